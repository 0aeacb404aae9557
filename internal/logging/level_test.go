package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"trace", LevelTrace, false},
		{"DEBUG", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{" info ", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewLogger_TraceLevelName(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, LevelTrace, "text")
	require.NoError(t, err)

	logger.Log(t.Context(), LevelTrace, "wire")
	assert.Contains(t, buf.String(), "level=TRACE")
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, slog.LevelInfo, "json")
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown")
	out := strings.TrimSpace(buf.String())
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.HasPrefix(out, "{"))
}

func TestNewLogger_UnknownFormat(t *testing.T) {
	_, err := NewLogger(&bytes.Buffer{}, slog.LevelInfo, "xml")
	assert.Error(t, err)
}
