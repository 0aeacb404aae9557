package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
)

// Attribute keys shared by every component so log lines can be joined on them.
const (
	KeyOperation = "operation"
	KeyComponent = "component"
	KeyUserHash  = "user_hash"
	KeyTurn      = "turn_id"
	KeyRound     = "round"
	KeyPhase     = "phase"
	KeyModel     = "model"
	KeyBackend   = "backend"
	KeyTool      = "tool"
	KeyCallID    = "tool_call_id"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
)

// Status values. Kept in sync with instrumentation by hand since
// instrumentation imports this package.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WithComponent returns a logger tagged with the owning component.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(slog.String(KeyComponent, component))
}

// WithTurn returns a logger scoped to one conversation turn.
func WithTurn(logger *slog.Logger, turnID, userID string) *slog.Logger {
	return logger.With(slog.String(KeyTurn, turnID), UserHash(userID))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

func Operation(op string) slog.Attr { return slog.String(KeyOperation, op) }

func Tool(tool string) slog.Attr { return slog.String(KeyTool, tool) }

func CallID(id string) slog.Attr { return slog.String(KeyCallID, id) }

func Round(n int) slog.Attr { return slog.Int(KeyRound, n) }

func Phase(p fmt.Stringer) slog.Attr { return slog.String(KeyPhase, p.String()) }

func Model(name string) slog.Attr { return slog.String(KeyModel, name) }

func Backend(name string) slog.Attr { return slog.String(KeyBackend, name) }

func Status(status string) slog.Attr { return slog.String(KeyStatus, status) }

// Duration records d in milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDuration, float64(d.Microseconds())/1000)
}

// Err returns an error attribute, or an empty group that slog drops when err
// is nil, so callers can pass Err(maybeNil) unconditionally.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeUser hashes a user id or email so log lines can be correlated
// without carrying the identifier itself.
func AnonymizeUser(id string) string {
	if id == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(id))
	return "user:" + hex.EncodeToString(sum[:8])
}

// UserHash returns the anonymized user attribute.
func UserHash(id string) slog.Attr {
	return slog.String(KeyUserHash, AnonymizeUser(id))
}

// SanitizeToken masks a credential down to its length.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}

// Truncate shortens s to at most n bytes for wire-level trace logging.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n] + fmt.Sprintf("...(%d more bytes)", len(s)-n)
}
