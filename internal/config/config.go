// Package config loads lingo settings from config.toml, .env and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/abhisek/lingo/internal/lesson"
	"github.com/abhisek/lingo/internal/llm"
)

// Explanation sources.
const (
	SourceServer = "server"
	SourceLLM    = "llm"
	SourceOff    = "off"
)

// Duration decodes TOML strings such as "15s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the merged configuration.
type Config struct {
	DB      string        `toml:"db"`
	LogFile string        `toml:"log_file"`
	Server  ServerConfig  `toml:"server"`
	Explain ExplainConfig `toml:"explain"`
	LLM     LLMConfig     `toml:"llm"`
	Trainer TrainerConfig `toml:"trainer"`
}

type ServerConfig struct {
	URL     string   `toml:"url"`
	Timeout Duration `toml:"timeout"`
}

type ExplainConfig struct {
	Source  string   `toml:"source"`
	Timeout Duration `toml:"timeout"`
}

// LLMConfig names the provider for local explanations. Empty values are
// discovered from the environment.
type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
}

type TrainerConfig struct {
	FreeLessons int      `toml:"free_lessons"`
	FreeLevels  []string `toml:"free_levels"`
}

// Default returns the built-in settings.
func Default() Config {
	policy := lesson.DefaultAccessPolicy()
	return Config{
		Server: ServerConfig{
			URL:     "http://localhost:8080",
			Timeout: Duration{15 * time.Second},
		},
		Explain: ExplainConfig{
			Source:  SourceServer,
			Timeout: Duration{30 * time.Second},
		},
		Trainer: TrainerConfig{
			FreeLessons: policy.FreeLessons,
			FreeLevels:  policy.FreeLevels,
		},
	}
}

// Load reads the file at path over the defaults and applies environment
// overrides from getenv. A missing file is not an error.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is
// ignored.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("LINGO_SERVER_URL"); v != "" {
		c.Server.URL = v
	}
	if v := getenv("LINGO_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("LINGO_TIMEOUT: %w", err)
		}
		c.Server.Timeout = Duration{d}
	}
	if v := getenv("LINGO_EXPLAIN_SOURCE"); v != "" {
		c.Explain.Source = strings.ToLower(v)
	}
	if v := getenv("LINGO_DB"); v != "" {
		c.DB = v
	}
	if v := getenv("LINGO_LOG_FILE"); v != "" {
		c.LogFile = v
	}
	return nil
}

// Validate rejects settings the client cannot run with.
func (c Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server url %q must be an absolute http(s) URL", c.Server.URL)
	}
	if c.Server.Timeout.Duration <= 0 {
		return fmt.Errorf("server timeout must be positive, got %s", c.Server.Timeout)
	}
	switch c.Explain.Source {
	case SourceServer, SourceLLM, SourceOff:
	default:
		return fmt.Errorf("explain source %q must be one of %s, %s, %s",
			c.Explain.Source, SourceServer, SourceLLM, SourceOff)
	}
	if c.Explain.Timeout.Duration <= 0 {
		return fmt.Errorf("explain timeout must be positive, got %s", c.Explain.Timeout)
	}
	if c.Trainer.FreeLessons < 0 {
		return fmt.Errorf("free_lessons must not be negative")
	}
	return nil
}

// AccessPolicy returns the client-side lesson gate. premium comes from the
// signed-in account.
func (c Config) AccessPolicy(premium bool) lesson.AccessPolicy {
	return lesson.AccessPolicy{
		FreeLessons: c.Trainer.FreeLessons,
		FreeLevels:  c.Trainer.FreeLevels,
		Premium:     premium,
	}
}

// Provider resolves the LLM provider settings for local explanations.
func (c Config) Provider(getenv func(string) string) (llm.Config, bool) {
	if getenv == nil {
		getenv = os.Getenv
	}
	return llm.ResolveConfig(c.LLM.Provider, c.LLM.Model, getenv)
}
