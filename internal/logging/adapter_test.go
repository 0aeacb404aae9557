package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNewCronAdapter_Nil(t *testing.T) {
	a := NewCronAdapter(nil)
	if a == nil || a.logger == nil {
		t.Fatal("NewCronAdapter(nil) should fall back to the default logger")
	}
}

func TestCronAdapter_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	a := NewCronAdapter(logger)

	a.Info("schedule", "entry", 1)
	if buf.Len() != 0 {
		t.Errorf("Info should log at debug, got %q", buf.String())
	}

	a.Error(errors.New("job failed"), "panic", "entry", 1)
	out := buf.String()
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "error=\"job failed\"") {
		t.Errorf("unexpected error line: %q", out)
	}
	if !strings.Contains(out, "component=scheduler") {
		t.Errorf("missing component: %q", out)
	}
}
