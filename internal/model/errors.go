package model

import (
	"errors"
	"fmt"
)

// UnavailableError means the backend could not be reached, timed out or
// answered with a non-2xx status.
type UnavailableError struct {
	Backend string
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s model backend unavailable: %v", e.Backend, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// ResponseInvalidError means the backend answered but the payload could not
// be normalised.
type ResponseInvalidError struct {
	Backend string
	Reason  string
	// Body is a truncated copy of the offending payload.
	Body string
}

func (e *ResponseInvalidError) Error() string {
	return fmt.Sprintf("%s model backend returned an invalid response: %s", e.Backend, e.Reason)
}

// IsGatewayError reports whether err is one of the gateway failure types.
func IsGatewayError(err error) bool {
	var unavailable *UnavailableError
	var invalid *ResponseInvalidError
	return errors.As(err, &unavailable) || errors.As(err, &invalid)
}
