package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/teemow/auraflow/internal/config"
	"github.com/teemow/auraflow/internal/logging"
)

// rootCmd represents the base command for the auraflow application
var rootCmd = &cobra.Command{
	Use:   "auraflow",
	Short: "Mindful productivity assistant for Google Calendar and Tasks",
	Long: `auraflow lets a language model manage your Google Calendar and Google Tasks
through tool calls. Every turn is bounded: at most a fixed number of model
rounds, each tool call under its own timeout.

It can run as:
  - An interactive chat in the terminal (chat)
  - An HTTP and websocket chat service (serve)
  - An MCP (Model Context Protocol) server exposing the tools (mcp)`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// version will be set by main
var version = "dev"

var (
	cfgFile   string
	envFile   string
	logLevel  string
	logFormat string

	// cfg and logger are populated by setup before any RunE.
	cfg    *config.Config
	logger *slog.Logger
)

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "auraflow version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./auraflow.yaml, ~/.config/auraflow/config.yaml, /etc/auraflow/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before the environment is read")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (overrides config)")

	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newModelsCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// setup loads .env, the config file and the environment, then builds the
// process logger.
func setup(cmd *cobra.Command, _ []string) error {
	if err := loadDotenv(envFile); err != nil {
		return err
	}

	c, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		c.LogLevel = logLevel
	}
	if cmd.Flags().Changed("log-format") {
		c.LogFormat = logFormat
	}

	l, err := newLogger(c)
	if err != nil {
		return err
	}
	slog.SetDefault(l)
	cfg, logger = c, l
	return nil
}

// loadDotenv loads path into the environment. Variables already set win.
// A missing file is fine.
func loadDotenv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// loadConfig reads the config file, if any, and applies env overrides.
func loadConfig(explicit string) (*config.Config, error) {
	path, err := config.FindConfig(explicit)
	if err != nil {
		return nil, err
	}
	c, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.ApplyEnv()
	return c, nil
}

func newLogger(c *config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.NewLogger(os.Stderr, level, c.LogFormat)
}
