package tools

import (
	"context"
	"log/slog"
	"time"

	"github.com/teemow/auraflow/internal/calendar"
	"github.com/teemow/auraflow/internal/instrumentation"
	"github.com/teemow/auraflow/internal/logging"
	"github.com/teemow/auraflow/internal/tasks"
	"github.com/teemow/auraflow/internal/toolerr"
)

type executor func(ctx context.Context, a *args) (any, error)

// Registry holds the tool definitions and dispatches calls to the calendar
// and tasks collaborators.
type Registry struct {
	calendar calendar.Service
	tasks    tasks.Service

	defs   []ToolDefinition
	byName map[string]ToolID
	exec   [toolCount]executor

	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithMetrics records tool_* metrics for every dispatch.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithAuditLogger writes one audit line per dispatch.
func WithAuditLogger(al *instrumentation.AuditLogger) Option {
	return func(r *Registry) { r.audit = al }
}

// WithLogger sets the debug logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithClock overrides time.Now, used for date defaults.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// NewRegistry builds the registry for the given collaborators.
func NewRegistry(cal calendar.Service, tsk tasks.Service, opts ...Option) *Registry {
	r := &Registry{
		calendar: cal,
		tasks:    tsk,
		byName:   make(map[string]ToolID, toolCount),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.WithComponent(r.logger, "tools")

	for _, id := range AllToolIDs() {
		r.defs = append(r.defs, newDefinition(buildTool(id)))
		r.byName[id.String()] = id
	}
	r.exec = [toolCount]executor{
		CalendarCreateEvent:   r.createEvent,
		CalendarGetEvents:     r.getEvents,
		CalendarUpdateEvent:   r.updateEvent,
		CalendarDeleteEvent:   r.deleteEvent,
		CalendarFindFocusTime: r.findFocusTime,
		TasksCreateTask:       r.createTask,
		TasksGetTasks:         r.getTasks,
		TasksUpdateTask:       r.updateTask,
		TasksDeleteTask:       r.deleteTask,
		TasksCompleteTask:     r.completeTask,
		TasksGetTaskLists:     r.getTaskLists,
	}
	return r
}

// Definitions returns the tool definitions in ToolID order.
func (r *Registry) Definitions() []ToolDefinition {
	out := make([]ToolDefinition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Names returns the tool names in ToolID order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.defs))
	for i, d := range r.defs {
		names[i] = d.Name
	}
	return names
}

// Dispatch runs the tool called name with args. The result is returned
// unwrapped; collaborator errors are returned as-is for classification.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (any, error) {
	id, ok := r.byName[name]
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}
	def := r.defs[id]
	for _, field := range def.InputSchema.Required {
		if v, ok := args[field]; !ok || v == nil {
			return nil, &MissingRequiredFieldError{Tool: name, Field: field}
		}
	}
	return r.instrumented(ctx, id, newArgs(ctx, name, args))
}

// instrumented runs the executor for id inside a span and records metrics
// and an audit entry.
func (r *Registry) instrumented(ctx context.Context, id ToolID, a *args) (any, error) {
	name := id.String()
	call := callFrom(ctx)
	userID := a.userID()

	ctx, span := instrumentation.StartToolSpan(ctx, name, call.ID)
	invocation := instrumentation.NewToolInvocation(name, call.ID, userID, call.Round).
		WithSpanContext(ctx)
	start := time.Now()

	result, err := r.exec[id](ctx, a)
	if err == nil {
		err = a.err()
	}
	duration := time.Since(start)

	status := instrumentation.StatusSuccess
	kind := ""
	if err != nil {
		k := toolerr.KindOf(err)
		kind = k.String()
		status = instrumentation.StatusError
		if k == toolerr.KindTimeout {
			status = instrumentation.StatusTimeout
		}
	}
	invocation.Complete(err, kind)

	r.metrics.RecordToolInvocation(ctx, name, status, kind, logging.AnonymizeUser(userID), duration)
	r.audit.Log(invocation)
	instrumentation.EndSpan(span, err)

	r.logger.Debug("tool dispatched",
		logging.Tool(name),
		logging.CallID(call.ID),
		logging.Status(status),
		logging.Duration(duration),
		logging.Err(err))

	if err != nil {
		return nil, err
	}
	return result, nil
}
