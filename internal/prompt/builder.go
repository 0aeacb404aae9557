// Package prompt assembles the message list the model sees at the start of
// a turn: a system prompt describing the assistant, the user and the
// callable tools, followed by recent chat history.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/teemow/auraflow/internal/history"
	"github.com/teemow/auraflow/internal/model"
)

// DefaultHistoryLimit is how many past exchanges reach the prompt.
const DefaultHistoryLimit = 10

// DefaultPersona introduces the assistant.
const DefaultPersona = "You are Aurora, the AuraFlow mindful productivity assistant. " +
	"You help the user plan their day with Google Calendar and Google Tasks. " +
	"Keep responses concise, warm and helpful."

// UserContext identifies who the turn is for.
type UserContext struct {
	ID       string
	Name     string
	Email    string
	TimeZone string
}

// Location resolves the user's IANA zone, falling back to UTC.
func (u UserContext) Location() *time.Location {
	return ResolveLocation(u.TimeZone)
}

// ResolveLocation loads name, returning UTC when it is empty or unknown.
func ResolveLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Builder builds prompts.
type Builder struct {
	persona      string
	historyLimit int
	now          func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithPersona replaces the persona paragraph.
func WithPersona(p string) Option {
	return func(b *Builder) {
		if strings.TrimSpace(p) != "" {
			b.persona = p
		}
	}
}

// WithHistoryLimit caps the number of past exchanges.
func WithHistoryLimit(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.historyLimit = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		persona:      DefaultPersona,
		historyLimit: DefaultHistoryLimit,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// HistoryLimit returns the configured history cap.
func (b *Builder) HistoryLimit() int { return b.historyLimit }

// Build returns the system message followed by the most recent history,
// oldest first. The inbound user message is not included.
func (b *Builder) Build(user UserContext, toolNames []string, past []history.Exchange) []model.Message {
	if len(past) > b.historyLimit {
		past = past[len(past)-b.historyLimit:]
	}
	msgs := make([]model.Message, 0, 1+2*len(past))
	msgs = append(msgs, model.Message{Role: model.RoleSystem, Content: b.System(user, toolNames)})
	for _, e := range past {
		if e.UserMessage != "" {
			msgs = append(msgs, model.Message{Role: model.RoleUser, Content: e.UserMessage})
		}
		if e.AssistantMessage != "" {
			msgs = append(msgs, model.Message{Role: model.RoleAssistant, Content: e.AssistantMessage})
		}
	}
	return msgs
}

// System renders the system prompt.
func (b *Builder) System(user UserContext, toolNames []string) string {
	loc := user.Location()
	now := b.now().In(loc)

	var sb strings.Builder
	sb.WriteString(b.persona)
	sb.WriteString("\n\n")

	sb.WriteString("## User\n")
	if user.Name != "" {
		fmt.Fprintf(&sb, "- Name: %s\n", user.Name)
	}
	if user.Email != "" {
		fmt.Fprintf(&sb, "- Email: %s\n", user.Email)
	}
	fmt.Fprintf(&sb, "- Time zone: %s\n", loc.String())
	fmt.Fprintf(&sb, "- Current time: %s (%s)\n", now.Format(time.RFC3339), now.Format("Monday, January 2, 2006 15:04"))
	sb.WriteString("\n")

	if len(toolNames) > 0 {
		sb.WriteString("## Tools\n")
		fmt.Fprintf(&sb, "You can call these tools on behalf of user id %q: %s.\n",
			user.ID, strings.Join(toolNames, ", "))
		sb.WriteString("Pass that user id as userId. Dates without a time are read in the user's time zone.\n\n")

		sb.WriteString("## Rules\n")
		sb.WriteString("1. Before updating or deleting an event, call calendar_get_events to find its id.\n")
		sb.WriteString("2. Before updating, completing or deleting a task, call tasks_get_tasks to find its id.\n")
		sb.WriteString("3. Never invent ids. Use only ids returned by a previous tool result.\n")
		sb.WriteString("4. When a tool returns an error, follow its instruction before trying again.\n")
		sb.WriteString("5. After the tools have run, answer the user in plain language.\n")
	}
	return sb.String()
}
