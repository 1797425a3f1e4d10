package llm

import (
	"fmt"
	"strings"
	"time"
)

// Supported provider names.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// discoveryOrder is the order in which API keys are probed when no
// provider is configured.
var discoveryOrder = []string{ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderOpenRouter}

var defaultModels = map[string]string{
	ProviderAnthropic:  "claude-haiku",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderGemini:     "gemini-flash",
	ProviderOpenRouter: "google/gemini-2.0-flash-001",
}

// Config selects and configures one provider.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string // optional endpoint override
	Retry    RetryConfig
}

// RetryConfig tunes retries of transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultRetryConfig retries three times with exponential backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Second,
		MaxWait:     10 * time.Second,
		Multiplier:  2,
	}
}

// DefaultConfig returns the defaults for provider.
func DefaultConfig(provider string) Config {
	return Config{
		Provider: provider,
		Model:    defaultModels[provider],
		Retry:    DefaultRetryConfig(),
	}
}

// EnvKey returns the LINGO_ variable name for a provider setting,
// e.g. EnvKey("openai", "API_KEY") is LINGO_OPENAI_API_KEY.
func EnvKey(provider, suffix string) string {
	return "LINGO_" + strings.ToUpper(provider) + "_" + suffix
}

func standardKey(provider string) string {
	return strings.ToUpper(provider) + "_API_KEY"
}

// ResolveConfig builds a Config from the environment and the config file.
// The environment wins: LINGO_LLM_PROVIDER over provider, LINGO_<P>_MODEL
// over model. With no provider named anywhere, the first provider with an
// API key in the environment (LINGO_<P>_API_KEY or <P>_API_KEY) is used.
// It reports false when no provider could be chosen.
func ResolveConfig(provider, model string, getenv func(string) string) (Config, bool) {
	if p := getenv("LINGO_LLM_PROVIDER"); p != "" {
		provider = p
	}
	if provider == "" {
		for _, p := range discoveryOrder {
			if apiKey(p, getenv) != "" {
				provider = p
				break
			}
		}
	}
	if provider == "" {
		return Config{}, false
	}

	cfg := DefaultConfig(provider)
	cfg.APIKey = apiKey(provider, getenv)
	if model != "" {
		cfg.Model = model
	}
	if m := getenv(EnvKey(provider, "MODEL")); m != "" {
		cfg.Model = m
	}
	cfg.BaseURL = getenv(EnvKey(provider, "BASE_URL"))
	return cfg, true
}

func apiKey(provider string, getenv func(string) string) string {
	if k := getenv(EnvKey(provider, "API_KEY")); k != "" {
		return k
	}
	return getenv(standardKey(provider))
}

// Validate checks that the provider is known and has a key.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderMock:
		return nil
	case ProviderAnthropic, ProviderOpenAI, ProviderGemini, ProviderOpenRouter:
		if c.APIKey == "" {
			return fmt.Errorf("%s is required for the %s provider", EnvKey(c.Provider, "API_KEY"), c.Provider)
		}
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
}
