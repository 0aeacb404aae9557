package calendar

import (
	"context"
	"time"
)

// Service is the calendar collaborator the tools act through. Every method
// acts on the user's primary calendar. Errors carry toolerr kinds; a missing
// event is KindNotFound.
type Service interface {
	CreateEvent(ctx context.Context, userID string, in EventInput) (*Event, error)
	GetEvents(ctx context.Context, userID string, start, end time.Time) ([]Event, error)
	UpdateEvent(ctx context.Context, userID, eventID string, patch EventPatch) (*Event, error)
	DeleteEvent(ctx context.Context, userID, eventID string) error
}
