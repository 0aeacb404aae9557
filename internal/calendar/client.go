package calendar

import (
	"context"
	"net/http"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/auraflow/internal/google"
	"github.com/teemow/auraflow/internal/instrumentation"
	"github.com/teemow/auraflow/internal/toolerr"
)

// PrimaryCalendarID is the calendar all operations act on.
const PrimaryCalendarID = "primary"

// GoogleService implements Service on the Google Calendar v3 API.
type GoogleService struct {
	services *google.ServiceCache[*calendar.Service]
	metrics  *instrumentation.Metrics
}

// Option configures a GoogleService.
type Option func(*serviceOptions)

type serviceOptions struct {
	metrics    *instrumentation.Metrics
	clientOpts []option.ClientOption
}

// WithMetrics records google_api_* metrics.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(o *serviceOptions) { o.metrics = m }
}

// WithClientOptions passes extra options to calendar.NewService, e.g. an
// endpoint override.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(o *serviceOptions) { o.clientOpts = append(o.clientOpts, opts...) }
}

// NewGoogleService creates a service that authenticates each user through
// clients.
func NewGoogleService(clients google.HTTPClientSource, opts ...Option) *GoogleService {
	var o serviceOptions
	for _, opt := range opts {
		opt(&o)
	}
	build := func(ctx context.Context, hc *http.Client) (*calendar.Service, error) {
		all := append([]option.ClientOption{option.WithHTTPClient(hc)}, o.clientOpts...)
		return calendar.NewService(ctx, all...)
	}
	return &GoogleService{
		services: google.NewServiceCache(clients, build),
		metrics:  o.metrics,
	}
}

// do runs fn against userID's service with a span, metrics and error
// classification. Auth failures evict the cached client.
func (s *GoogleService) do(ctx context.Context, userID, op string, fn func(ctx context.Context, svc *calendar.Service) error) error {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, op)
	start := time.Now()

	err := func() error {
		svc, err := s.services.Get(ctx, userID)
		if err != nil {
			return err
		}
		return google.Classify("calendar."+op, fn(ctx, svc))
	}()

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		if toolerr.Is(err, toolerr.KindAuthExpired) {
			s.services.Forget(userID)
		}
	}
	s.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, op, status, time.Since(start))
	instrumentation.EndSpan(span, err)
	return err
}

// CreateEvent inserts an event on the primary calendar.
func (s *GoogleService) CreateEvent(ctx context.Context, userID string, in EventInput) (*Event, error) {
	ev := &calendar.Event{
		Summary:     in.Summary,
		Description: in.Description,
		Location:    in.Location,
		Start:       toEventDateTime(in.Start, in.TimeZone),
		End:         toEventDateTime(in.End, in.TimeZone),
	}
	for _, email := range in.Attendees {
		ev.Attendees = append(ev.Attendees, &calendar.EventAttendee{Email: email})
	}

	var out Event
	err := s.do(ctx, userID, instrumentation.OperationCreate, func(ctx context.Context, svc *calendar.Service) error {
		created, err := svc.Events.Insert(PrimaryCalendarID, ev).Context(ctx).Do()
		if err != nil {
			return err
		}
		out = toEvent(created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetEvents lists single (expanded) events in [start, end) ordered by start.
func (s *GoogleService) GetEvents(ctx context.Context, userID string, start, end time.Time) ([]Event, error) {
	events := []Event{}
	err := s.do(ctx, userID, instrumentation.OperationList, func(ctx context.Context, svc *calendar.Service) error {
		call := svc.Events.List(PrimaryCalendarID).
			TimeMin(start.Format(time.RFC3339)).
			TimeMax(end.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			MaxResults(250)
		return call.Pages(ctx, func(page *calendar.Events) error {
			for _, item := range page.Items {
				events = append(events, toEvent(item))
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// UpdateEvent fetches the event, applies patch and writes it back.
func (s *GoogleService) UpdateEvent(ctx context.Context, userID, eventID string, patch EventPatch) (*Event, error) {
	var out Event
	err := s.do(ctx, userID, instrumentation.OperationUpdate, func(ctx context.Context, svc *calendar.Service) error {
		existing, err := svc.Events.Get(PrimaryCalendarID, eventID).Context(ctx).Do()
		if err != nil {
			return err
		}
		if patch.Summary != nil {
			existing.Summary = *patch.Summary
		}
		if patch.Description != nil {
			existing.Description = *patch.Description
		}
		if patch.Location != nil {
			existing.Location = *patch.Location
		}
		if patch.Start != nil {
			existing.Start = toEventDateTime(*patch.Start, patch.TimeZone)
		}
		if patch.End != nil {
			existing.End = toEventDateTime(*patch.End, patch.TimeZone)
		}

		updated, err := svc.Events.Update(PrimaryCalendarID, eventID, existing).Context(ctx).Do()
		if err != nil {
			return err
		}
		out = toEvent(updated)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteEvent removes an event. A missing event is KindNotFound.
func (s *GoogleService) DeleteEvent(ctx context.Context, userID, eventID string) error {
	return s.do(ctx, userID, instrumentation.OperationDelete, func(ctx context.Context, svc *calendar.Service) error {
		return svc.Events.Delete(PrimaryCalendarID, eventID).Context(ctx).Do()
	})
}
