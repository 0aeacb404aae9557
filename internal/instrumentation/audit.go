package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/teemow/auraflow/internal/logging"
)

// ToolInvocation is one audited tool call.
type ToolInvocation struct {
	Tool      string
	CallID    string
	UserID    string
	Round     int
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	// ErrorKind is the toolerr kind name of a failure.
	ErrorKind string
	Error     string
	TraceID   string
}

// NewToolInvocation starts timing a call.
func NewToolInvocation(tool, callID, userID string, round int) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		CallID:    callID,
		UserID:    userID,
		Round:     round,
		StartTime: time.Now(),
	}
}

// WithSpanContext copies the trace id from ctx.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	ti.TraceID = GetTraceID(ctx)
	return ti
}

// Complete stops the clock. A nil err is a success.
func (ti *ToolInvocation) Complete(err error, kind string) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = err == nil
	if err != nil {
		ti.Error = err.Error()
		ti.ErrorKind = kind
	}
	return ti
}

// Status returns the metric status label.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

func (ti *ToolInvocation) attrs(includeUserID bool) []any {
	user := slog.String(logging.KeyUserHash, logging.AnonymizeUser(ti.UserID))
	if includeUserID {
		user = slog.String("user_id", ti.UserID)
	}
	args := []any{
		slog.String(logging.KeyTool, ti.Tool),
		slog.String(logging.KeyCallID, ti.CallID),
		slog.Int(logging.KeyRound, ti.Round),
		user,
		logging.Duration(ti.Duration),
		slog.Bool("success", ti.Success),
	}
	if ti.TraceID != "" {
		args = append(args, slog.String("trace_id", ti.TraceID))
	}
	if !ti.Success {
		args = append(args, slog.String("error_kind", ti.ErrorKind), slog.String(logging.KeyError, ti.Error))
	}
	return args
}

// AuditLogger writes one line per tool call.
type AuditLogger struct {
	logger        *slog.Logger
	enabled       bool
	includeUserID bool
}

// NewAuditLogger creates an audit logger. A nil logger uses slog.Default().
func NewAuditLogger(logger *slog.Logger, config AuditConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:        logging.WithComponent(logger, "audit"),
		enabled:       config.Enabled,
		includeUserID: config.IncludeUserID,
	}
}

// Log writes ti as tool_executed at info or tool_failed at warn.
func (al *AuditLogger) Log(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}
	if ti.Success {
		al.logger.Info("tool_executed", ti.attrs(al.includeUserID)...)
		return
	}
	al.logger.Warn("tool_failed", ti.attrs(al.includeUserID)...)
}
