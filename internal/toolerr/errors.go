// Package toolerr defines the structured failure kinds that calendar and task
// collaborators surface to the tool layer.
//
// Classification downstream is a switch on Kind, never on message text, so
// every adapter that talks to an external API is expected to translate its
// transport errors into one of these kinds before returning.
package toolerr

import (
	"context"
	"errors"
	"fmt"
)

// Kind tags a tool failure with the category the error classifier keys on.
type Kind int

const (
	// KindGeneric is any failure without a more specific kind.
	KindGeneric Kind = iota
	// KindAuthExpired means the user's external credentials are missing,
	// revoked or expired.
	KindAuthExpired
	// KindNotFound means the referenced resource no longer exists.
	KindNotFound
	// KindNoMatch means a name lookup matched zero or several resources.
	KindNoMatch
	// KindInvalidArgument means the arguments were well-formed JSON but
	// semantically unusable (bad date, missing either/or field).
	KindInvalidArgument
	// KindTimeout means the collaborator did not answer in time.
	KindTimeout
)

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindAuthExpired:
		return "auth_expired"
	case KindNotFound:
		return "not_found"
	case KindNoMatch:
		return "no_match"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindTimeout:
		return "timeout"
	default:
		return "generic"
	}
}

// Error is a tool failure carrying a Kind.
type Error struct {
	Kind Kind
	// Op names the failing operation, e.g. "calendar.delete_event".
	Op  string
	Err error
}

func (e *Error) Error() string {
	msg := "unknown error"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with a formatted message.
func New(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap tags err with kind. A nil err stays nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain.
// Context deadline errors without an explicit kind count as KindTimeout.
func KindOf(err error) Kind {
	if err == nil {
		return KindGeneric
	}
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindGeneric
}

// Is reports whether err carries kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ArgumentParseError reports tool-call arguments that are not a JSON object.
// The orchestrator records it without ever dispatching the call.
type ArgumentParseError struct {
	Tool string
	Err  error
}

func (e *ArgumentParseError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %v", e.Tool, e.Err)
}

func (e *ArgumentParseError) Unwrap() error {
	return e.Err
}
