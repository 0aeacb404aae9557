package google

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/teemow/auraflow/internal/toolerr"
)

// Classify tags a Google API or OAuth error with a toolerr kind. Errors that
// already carry a kind keep it. nil stays nil.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var te *toolerr.Error
	if errors.As(err, &te) {
		return err
	}

	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return toolerr.Wrap(toolerr.KindAuthExpired, op, err)
	}
	if errors.Is(err, ErrNoToken) {
		return toolerr.Wrap(toolerr.KindAuthExpired, op, err)
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusNotFound, http.StatusGone:
			return toolerr.Wrap(toolerr.KindNotFound, op, err)
		case http.StatusUnauthorized:
			return toolerr.Wrap(toolerr.KindAuthExpired, op, err)
		case http.StatusBadRequest:
			return toolerr.Wrap(toolerr.KindInvalidArgument, op, err)
		}
		return toolerr.Wrap(toolerr.KindGeneric, op, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return toolerr.Wrap(toolerr.KindTimeout, op, err)
	}
	return toolerr.Wrap(toolerr.KindGeneric, op, err)
}
