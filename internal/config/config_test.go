package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindConfig_Explicit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auraflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0600))

	got, err := FindConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestFindConfig_ExplicitMissing(t *testing.T) {
	_, err := FindConfig("/nonexistent/auraflow.yaml")
	assert.Error(t, err)
}

func TestFindConfig_NothingFound(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	got, err := FindConfig("")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindConfig_CWD(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "auraflow.yaml"), []byte("{}\n"), 0600))
	t.Chdir(dir)

	got, err := FindConfig("")
	require.NoError(t, err)
	assert.Equal(t, "auraflow.yaml", got)
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_LLM_KEY", "sk-from-env")
	path := filepath.Join(t.TempDir(), "auraflow.yaml")
	yml := `
llm:
  mode: chat
  base_url: https://llm.example.com
  api_key: ${TEST_LLM_KEY}
  timeout: 15s
  extra_headers:
    Ancestry-IsInternal: "true"
conversation:
  max_rounds: 3
  tool_timeout: 5s
history:
  driver: sqlite
  dsn: /tmp/history.db
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ModeChat, cfg.LLM.Mode)
	assert.Equal(t, "sk-from-env", cfg.LLM.APIKey)
	assert.Equal(t, 15*time.Second, cfg.LLM.Timeout.Std())
	assert.Equal(t, "true", cfg.LLM.ExtraHeaders["Ancestry-IsInternal"])
	assert.Equal(t, 3, cfg.Conversation.MaxRounds)
	assert.Equal(t, 5*time.Second, cfg.Conversation.ToolTimeout.Std())
	// untouched sections keep their defaults
	assert.Equal(t, 10, cfg.Conversation.HistoryLimit)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	require.NoError(t, cfg.Validate())
}

func TestLoad_BadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auraflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  timeout: soon\n"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("LLM_BASE_URL", "https://env.example.com")
	t.Setenv("LLM_MODE", "chat")
	t.Setenv("LLM_EXTRA_HEADERS", "Ancestry-IsInternal: true, Ancestry-ClientPath=auraflow")
	t.Setenv("GOOGLE_CLIENT_ID", "client")
	t.Setenv("AURAFLOW_MAX_ROUNDS", "not-a-number")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, "https://env.example.com", cfg.LLM.BaseURL)
	assert.Equal(t, ModeChat, cfg.LLM.Mode)
	assert.Equal(t, map[string]string{
		"Ancestry-IsInternal": "true",
		"Ancestry-ClientPath": "auraflow",
	}, cfg.LLM.ExtraHeaders)
	assert.Equal(t, "client", cfg.Google.ClientID)
	assert.False(t, cfg.Google.Enabled(), "secret still missing")
	assert.Equal(t, 5, cfg.Conversation.MaxRounds)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown mode", func(c *Config) { c.LLM.Mode = "magic" }, true},
		{"chat without url", func(c *Config) { c.LLM.Mode = ModeChat }, true},
		{"chat with url", func(c *Config) { c.LLM.Mode = ModeChat; c.LLM.BaseURL = "http://x" }, false},
		{"inference without models", func(c *Config) { c.LLM.Mode = ModeInference; c.LLM.BaseURL = "http://x" }, true},
		{"zero rounds", func(c *Config) { c.Conversation.MaxRounds = 0 }, true},
		{"zero tool timeout", func(c *Config) { c.Conversation.ToolTimeout = 0 }, true},
		{"sqlite without dsn", func(c *Config) { c.History.Driver = "sqlite" }, true},
		{"unknown history driver", func(c *Config) { c.History.Driver = "redis" }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"bad timezone", func(c *Config) { c.User.TimeZone = "Mars/Olympus" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseHeaders(t *testing.T) {
	tests := []struct {
		in   string
		want map[string]string
	}{
		{"", map[string]string{}},
		{"A: 1", map[string]string{"A": "1"}},
		{"A=1, B: two ,", map[string]string{"A": "1", "B": "two"}},
		{"novalue, =x", map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseHeaders(tt.in))
		})
	}
}
