// Package classify turns failures into the text that is fed back to the
// model as a tool result, or shown to the user when a turn fails.
//
// Every decision is a switch on error types and toolerr kinds. Message text
// is never inspected.
package classify

import (
	"errors"

	"github.com/teemow/auraflow/internal/model"
	"github.com/teemow/auraflow/internal/toolerr"
)

const (
	// ServiceUnavailable is shown for every model gateway failure.
	ServiceUnavailable = "AI service unavailable"
	// GenericUserMessage is shown for any other failed turn.
	GenericUserMessage = "Sorry, I encountered an error processing your message."

	authExpiredText = "Tool Error: the user's Google authorization has expired or was revoked. " +
		"Do not retry; tell the user to sign in with Google again."
	notFoundText = "Tool Error: the item no longer exists. " +
		"Call calendar_get_events or tasks_get_tasks to fetch the current list, then retry with an id from that result."
	noMatchHint = ". Call calendar_get_events or tasks_get_tasks to list the items, then retry with the exact id."
	timeoutText = "Tool Error: the operation timed out"
	parseHint   = ". Resend the call with a single JSON object."
)

// Classifier formats failures.
type Classifier struct{}

// New returns a Classifier.
func New() Classifier { return Classifier{} }

// Classify returns the corrective text for err. A nil err yields "".
func (Classifier) Classify(err error) string {
	if err == nil {
		return ""
	}
	if model.IsGatewayError(err) {
		return ServiceUnavailable
	}

	var parseErr *toolerr.ArgumentParseError
	if errors.As(err, &parseErr) {
		detail := "not a JSON object"
		if parseErr.Err != nil {
			detail = parseErr.Err.Error()
		}
		return "Tool Error: invalid tool arguments: " + detail + parseHint
	}

	switch toolerr.KindOf(err) {
	case toolerr.KindAuthExpired:
		return authExpiredText
	case toolerr.KindNotFound:
		return notFoundText
	case toolerr.KindNoMatch:
		return "Tool Error: " + err.Error() + noMatchHint
	case toolerr.KindTimeout:
		return timeoutText
	default:
		return "Tool Error: " + err.Error()
	}
}

// UserMessage returns the end-user text for a failed turn.
func (Classifier) UserMessage(err error) string {
	if model.IsGatewayError(err) {
		return ServiceUnavailable
	}
	return GenericUserMessage
}
