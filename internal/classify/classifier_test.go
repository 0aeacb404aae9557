package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teemow/auraflow/internal/model"
	"github.com/teemow/auraflow/internal/toolerr"
)

func TestClassify(t *testing.T) {
	var syntaxErr error = json.Unmarshal([]byte("{invalid json"), &map[string]any{})

	tests := []struct {
		name     string
		err      error
		want     string
		prefix   string
		contains []string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "unavailable", err: &model.UnavailableError{Backend: "chat", Err: errors.New("dial tcp")}, want: ServiceUnavailable},
		{name: "invalid response", err: &model.ResponseInvalidError{Backend: "chat", Reason: "empty choices"}, want: ServiceUnavailable},
		{name: "wrapped unavailable", err: fmt.Errorf("round 2: %w", &model.UnavailableError{Backend: "chat"}), want: ServiceUnavailable},
		{
			name:     "argument parse error",
			err:      &toolerr.ArgumentParseError{Tool: "calendar_get_events", Err: syntaxErr},
			prefix:   "Tool Error: invalid tool arguments: ",
			contains: []string{syntaxErr.Error(), "Resend the call with a single JSON object."},
		},
		{
			name:     "auth expired",
			err:      toolerr.New(toolerr.KindAuthExpired, "calendar.get_events", "token revoked"),
			want:     authExpiredText,
			contains: []string{"sign in with Google again"},
		},
		{
			name: "not found",
			err:  toolerr.New(toolerr.KindNotFound, "calendar.delete_event", "event abc not found"),
			want: notFoundText,
		},
		{
			name:     "no match names the item",
			err:      toolerr.New(toolerr.KindNoMatch, "tasks.delete_task", "no task found with name containing %q", "groceries"),
			prefix:   "Tool Error: ",
			contains: []string{`"groceries"`, "retry with the exact id"},
		},
		{name: "timeout kind", err: toolerr.New(toolerr.KindTimeout, "tasks.get_tasks", "slow"), want: timeoutText},
		{name: "deadline exceeded", err: fmt.Errorf("get events: %w", context.DeadlineExceeded), want: timeoutText},
		{name: "invalid argument", err: toolerr.New(toolerr.KindInvalidArgument, "calendar.create_event", "end must be after start"), want: "Tool Error: calendar.create_event: end must be after start"},
		{name: "plain error", err: errors.New("unknown tool: weather_get"), want: "Tool Error: unknown tool: weather_get"},
	}

	c := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.err)
			if tt.want != "" || tt.err == nil {
				assert.Equal(t, tt.want, got)
			}
			if tt.prefix != "" {
				assert.True(t, strings.HasPrefix(got, tt.prefix), got)
			}
			for _, s := range tt.contains {
				assert.Contains(t, got, s)
			}
		})
	}
}

func TestClassify_KindBeatsMessage(t *testing.T) {
	// The message mentions "not found" but the kind is generic.
	err := toolerr.New(toolerr.KindGeneric, "tasks.get_tasks", "list not found in cache")
	assert.Equal(t, "Tool Error: tasks.get_tasks: list not found in cache", New().Classify(err))
}

func TestUserMessage(t *testing.T) {
	c := New()
	assert.Equal(t, ServiceUnavailable, c.UserMessage(&model.UnavailableError{Backend: "mock"}))
	assert.Equal(t, ServiceUnavailable, c.UserMessage(&model.ResponseInvalidError{Backend: "chat"}))
	assert.Equal(t, GenericUserMessage, c.UserMessage(errors.New("history store down")))
}
