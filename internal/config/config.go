// Package config loads auraflow configuration from an optional YAML file and
// the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teemow/auraflow/internal/logging"
)

// Model gateway modes.
const (
	ModeMock      = "mock"
	ModeInference = "inference"
	ModeChat      = "chat"
)

// History drivers.
const (
	HistoryMemory   = "memory"
	HistorySQLite   = "sqlite"
	HistoryPostgres = "postgres"
)

// Config is the full runtime configuration.
type Config struct {
	LLM          LLMConfig          `yaml:"llm"`
	Google       GoogleConfig       `yaml:"google"`
	Conversation ConversationConfig `yaml:"conversation"`
	History      HistoryConfig      `yaml:"history"`
	Server       ServerConfig       `yaml:"server"`
	// User is the single identity used by the chat REPL and the mcp command.
	User UserConfig `yaml:"user"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// LLMConfig selects and parameterises the model backend.
type LLMConfig struct {
	Mode    string `yaml:"mode"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	// Model pins a model id. Empty means pick one from the catalog.
	Model string `yaml:"model"`
	// Models is the static catalog for the inference backend.
	Models       []string          `yaml:"models"`
	ExtraHeaders map[string]string `yaml:"extra_headers"`
	// Preferences overrides the default-model substring preference list.
	Preferences []string `yaml:"preferences"`
	Timeout     Duration `yaml:"timeout"`
}

// GoogleConfig holds the OAuth client used for Calendar and Tasks.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURI  string `yaml:"redirect_uri"`
	// TokenDir holds one token file per user.
	TokenDir string `yaml:"token_dir"`
}

// Enabled reports whether Google tools can be offered at all.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// ConversationConfig bounds each turn.
type ConversationConfig struct {
	MaxRounds    int      `yaml:"max_rounds"`
	ToolTimeout  Duration `yaml:"tool_timeout"`
	HistoryLimit int      `yaml:"history_limit"`
	Persona      string   `yaml:"persona"`
}

// HistoryConfig selects the chat history store.
type HistoryConfig struct {
	// Driver is "memory", "sqlite" or "postgres".
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	// MaxPerUser bounds the memory store.
	MaxPerUser int `yaml:"max_per_user"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	HTTPAddr       string `yaml:"http_addr"`
	MetricsAddr    string `yaml:"metrics_addr"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`
	// CatalogRefresh is a cron spec; empty disables scheduled refresh.
	CatalogRefresh string `yaml:"catalog_refresh"`
}

// UserConfig is a locally configured identity.
type UserConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	TimeZone string `yaml:"timezone"`
}

// Duration unmarshals from Go duration strings such as "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// DefaultSearchPaths returns the config file search order.
func DefaultSearchPaths() []string {
	paths := []string{"auraflow.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "auraflow", "config.yaml"))
	}
	return append(paths, "/etc/auraflow/config.yaml")
}

// FindConfig returns explicit if it exists, otherwise the first existing
// search path. No file at all is not an error; the path is then "".
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}
	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

// Default returns the built-in configuration.
func Default() *Config {
	tokenDir := "tokens"
	if dir, err := os.UserConfigDir(); err == nil {
		tokenDir = filepath.Join(dir, "auraflow", "tokens")
	}
	return &Config{
		LLM: LLMConfig{
			Mode:    ModeMock,
			Timeout: Duration(60 * time.Second),
		},
		Google: GoogleConfig{
			RedirectURI: "http://localhost:8080/auth/google/callback",
			TokenDir:    tokenDir,
		},
		Conversation: ConversationConfig{
			MaxRounds:    5,
			ToolTimeout:  Duration(30 * time.Second),
			HistoryLimit: 10,
		},
		History: HistoryConfig{
			Driver:     HistoryMemory,
			MaxPerUser: 50,
		},
		Server: ServerConfig{
			HTTPAddr:       ":8080",
			MetricsAddr:    ":9090",
			MetricsEnabled: true,
		},
		User: UserConfig{
			ID:       "local",
			Name:     "Local User",
			TimeZone: "UTC",
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads path on top of Default. Environment references in the file
// are expanded first. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the process environment.
func (c *Config) ApplyEnv() {
	c.LLM.BaseURL = getEnvOrDefault("LLM_BASE_URL", c.LLM.BaseURL)
	c.LLM.APIKey = getEnvOrDefault("LLM_API_KEY", c.LLM.APIKey)
	c.LLM.Mode = getEnvOrDefault("LLM_MODE", c.LLM.Mode)
	c.LLM.Model = getEnvOrDefault("LLM_MODEL", c.LLM.Model)
	if v := os.Getenv("LLM_EXTRA_HEADERS"); v != "" {
		c.LLM.ExtraHeaders = ParseHeaders(v)
	}

	c.Google.ClientID = getEnvOrDefault("GOOGLE_CLIENT_ID", c.Google.ClientID)
	c.Google.ClientSecret = getEnvOrDefault("GOOGLE_CLIENT_SECRET", c.Google.ClientSecret)
	c.Google.RedirectURI = getEnvOrDefault("GOOGLE_REDIRECT_URI", c.Google.RedirectURI)
	c.Google.TokenDir = getEnvOrDefault("AURAFLOW_TOKEN_DIR", c.Google.TokenDir)

	c.History.Driver = getEnvOrDefault("AURAFLOW_HISTORY_DRIVER", c.History.Driver)
	c.History.DSN = getEnvOrDefault("AURAFLOW_HISTORY_DSN", c.History.DSN)
	c.Conversation.MaxRounds = getEnvIntOrDefault("AURAFLOW_MAX_ROUNDS", c.Conversation.MaxRounds)

	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
}

// Validate checks values that would otherwise fail deep inside a turn.
func (c *Config) Validate() error {
	switch c.LLM.Mode {
	case ModeMock:
	case ModeInference, ModeChat:
		if c.LLM.BaseURL == "" {
			return fmt.Errorf("llm.base_url is required in %s mode", c.LLM.Mode)
		}
	default:
		return fmt.Errorf("invalid llm.mode %q, must be one of: mock, inference, chat", c.LLM.Mode)
	}
	if c.LLM.Mode == ModeInference && c.LLM.Model == "" && len(c.LLM.Models) == 0 {
		return fmt.Errorf("inference mode needs llm.model or llm.models")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be positive")
	}
	if c.Conversation.MaxRounds < 1 {
		return fmt.Errorf("conversation.max_rounds must be at least 1, got %d", c.Conversation.MaxRounds)
	}
	if c.Conversation.ToolTimeout <= 0 {
		return fmt.Errorf("conversation.tool_timeout must be positive")
	}
	if c.Conversation.HistoryLimit < 0 {
		return fmt.Errorf("conversation.history_limit must not be negative")
	}
	switch c.History.Driver {
	case HistoryMemory, "":
	case HistorySQLite, HistoryPostgres:
		if c.History.DSN == "" {
			return fmt.Errorf("history.dsn is required for the %s driver", c.History.Driver)
		}
	default:
		return fmt.Errorf("invalid history.driver %q, must be one of: memory, sqlite, postgres", c.History.Driver)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.User.TimeZone != "" {
		if _, err := time.LoadLocation(c.User.TimeZone); err != nil {
			return fmt.Errorf("invalid user.timezone %q: %w", c.User.TimeZone, err)
		}
	}
	return nil
}

// ParseHeaders parses "Name: value, Other: value" or "Name=value,Other=value".
// Malformed entries are skipped.
func ParseHeaders(s string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sep := strings.IndexAny(part, ":=")
		if sep <= 0 {
			continue
		}
		name := strings.TrimSpace(part[:sep])
		value := strings.TrimSpace(part[sep+1:])
		if name != "" {
			out[name] = value
		}
	}
	return out
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvIntOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
