package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// Event is the calendar event shape returned to tools and, through them, to
// the model.
type Event struct {
	ID          string         `json:"id"`
	Summary     string         `json:"summary"`
	Description string         `json:"description,omitempty"`
	Location    string         `json:"location,omitempty"`
	Start       time.Time      `json:"start"`
	End         time.Time      `json:"end"`
	AllDay      bool           `json:"allDay,omitempty"`
	Status      string         `json:"status,omitempty"`
	HTMLLink    string         `json:"htmlLink,omitempty"`
	MeetLink    string         `json:"meetLink,omitempty"`
	Attendees   []AttendeeInfo `json:"attendees,omitempty"`
}

// AttendeeInfo is one invitee of an event.
type AttendeeInfo struct {
	Email          string `json:"email"`
	DisplayName    string `json:"displayName,omitempty"`
	ResponseStatus string `json:"responseStatus,omitempty"`
}

// EventInput describes a new event.
type EventInput struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	// TimeZone is an IANA name sent alongside the times. Optional.
	TimeZone  string
	Attendees []string
}

// EventPatch holds the fields to change on an existing event. Nil fields are
// left untouched.
type EventPatch struct {
	Summary     *string
	Description *string
	Location    *string
	Start       *time.Time
	End         *time.Time
	TimeZone    string
}

// Empty reports whether the patch changes nothing.
func (p EventPatch) Empty() bool {
	return p.Summary == nil && p.Description == nil && p.Location == nil && p.Start == nil && p.End == nil
}

func toEvent(e *calendar.Event) Event {
	if e == nil {
		return Event{}
	}
	ev := Event{
		ID:          e.Id,
		Summary:     e.Summary,
		Description: e.Description,
		Location:    e.Location,
		Status:      e.Status,
		HTMLLink:    e.HtmlLink,
		MeetLink:    e.HangoutLink,
	}
	ev.Start, ev.AllDay = parseEventTime(e.Start)
	ev.End, _ = parseEventTime(e.End)

	for _, a := range e.Attendees {
		if a == nil {
			continue
		}
		ev.Attendees = append(ev.Attendees, AttendeeInfo{
			Email:          a.Email,
			DisplayName:    a.DisplayName,
			ResponseStatus: a.ResponseStatus,
		})
	}
	if ev.MeetLink == "" && e.ConferenceData != nil {
		for _, ep := range e.ConferenceData.EntryPoints {
			if ep != nil && ep.EntryPointType == "video" {
				ev.MeetLink = ep.Uri
				break
			}
		}
	}
	return ev
}

// parseEventTime reads a timed or all-day boundary. The bool is true for
// all-day dates.
func parseEventTime(dt *calendar.EventDateTime) (time.Time, bool) {
	if dt == nil {
		return time.Time{}, false
	}
	if dt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, dt.DateTime); err == nil {
			return t, false
		}
	}
	if dt.Date != "" {
		loc := time.UTC
		if dt.TimeZone != "" {
			if l, err := time.LoadLocation(dt.TimeZone); err == nil {
				loc = l
			}
		}
		if t, err := time.ParseInLocation("2006-01-02", dt.Date, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func toEventDateTime(t time.Time, tz string) *calendar.EventDateTime {
	return &calendar.EventDateTime{
		DateTime: t.Format(time.RFC3339),
		TimeZone: tz,
	}
}
