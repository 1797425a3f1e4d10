package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/lingo/internal/api"
	"github.com/abhisek/lingo/internal/auth"
	"github.com/abhisek/lingo/internal/config"
	"github.com/abhisek/lingo/internal/logging"
	"github.com/abhisek/lingo/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "lingo",
	Short: "Terminal trainer for translation lessons",
	Long: "Lingo: practice the sentences of your course from the terminal. " +
		"Type the English translation of each sentence, get it checked, and ask for an explanation when you miss.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, 0)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to config.toml (default $XDG_CONFIG_HOME/lingo/config.toml)")
	pf.String("db", "", "Path to SQLite database file (overrides LINGO_DB env var)")
	pf.String("server", "", "Backend base URL (overrides LINGO_SERVER_URL env var)")
	pf.String("log-file", "", "Log file path (overrides LINGO_LOG_FILE env var)")
	pf.Bool("debug", false, "Log at debug level")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(drillCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(levelsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(devserverCmd)
}

// loadConfig merges .env, the config file, the environment and the
// persistent flags, in increasing order of precedence.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return config.Config{}, err
	}

	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path, os.Getenv)
	if err != nil {
		return config.Config{}, err
	}

	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.DB = v
	}
	if v, _ := cmd.Flags().GetString("server"); v != "" {
		cfg.Server.URL = v
	}
	if v, _ := cmd.Flags().GetString("log-file"); v != "" {
		cfg.LogFile = v
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// newLogger opens the rotating log file. The returned func flushes it.
func newLogger(cmd *cobra.Command, cfg config.Config) (*zap.Logger, func(), error) {
	debug, _ := cmd.Flags().GetBool("debug")
	path := cfg.LogFile
	if path == "" {
		path = config.DefaultLogPath()
	}
	return logging.New(logging.Options{Path: path, Debug: debug})
}

// resolveDBPath returns the database path from config (flag or env),
// then the default XDG path.
func resolveDBPath(cfg config.Config) (string, error) {
	if cfg.DB != "" {
		return cfg.DB, store.EnsureDir(cfg.DB)
	}
	return store.DefaultDBPath()
}

func openStore(cfg config.Config) (*store.Store, error) {
	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}

func openCredentials() (*auth.File, error) {
	creds, err := auth.Open(config.DefaultCredentialsPath())
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	return creds, nil
}

func newClient(cfg config.Config, ts api.TokenSource, logger *zap.Logger) (*api.Client, error) {
	return api.New(cfg.Server.URL,
		api.WithTokenSource(ts),
		api.WithTimeout(cfg.Server.Timeout.Duration),
		api.WithLogger(logger),
	)
}
