package tools

import (
	"context"
	"time"

	"github.com/teemow/auraflow/internal/calendar"
	"github.com/teemow/auraflow/internal/namematch"
	"github.com/teemow/auraflow/internal/toolerr"
)

const defaultEventWindow = 7 * 24 * time.Hour

// zoneName is the IANA name sent with new event times. The Calendar API
// rejects "Local".
func zoneName(loc *time.Location) string {
	if loc == nil || loc == time.Local {
		return ""
	}
	return loc.String()
}

func (r *Registry) createEvent(ctx context.Context, a *args) (any, error) {
	start, _ := a.time("start", startOfDay)
	end, _ := a.time("end", endOfDay)
	in := calendar.EventInput{
		Summary:     a.string("summary"),
		Description: a.string("description"),
		Location:    a.string("location"),
		Start:       start,
		End:         end,
		TimeZone:    zoneName(a.loc),
		Attendees:   a.strings("attendees", "email"),
	}
	if err := a.err(); err != nil {
		return nil, err
	}
	if in.Summary == "" {
		return nil, toolerr.New(toolerr.KindInvalidArgument, a.tool, "summary must not be empty")
	}
	if start.IsZero() || end.IsZero() {
		return nil, toolerr.New(toolerr.KindInvalidArgument, a.tool, "start and end need a dateTime")
	}
	if !end.After(start) {
		return nil, toolerr.New(toolerr.KindInvalidArgument, a.tool, "end must be after start")
	}
	return r.calendar.CreateEvent(ctx, a.userID(), in)
}

// eventRange reads startDate/endDate, defaulting to [today, today+7d).
func (r *Registry) eventRange(a *args) (time.Time, time.Time) {
	start, ok := a.time("startDate", startOfDay)
	if !ok {
		start = startOfToday(r.now(), a.loc)
	}
	end, ok := a.time("endDate", endOfDay)
	if !ok {
		end = start.Add(defaultEventWindow)
	}
	return start, end
}

func (r *Registry) getEvents(ctx context.Context, a *args) (any, error) {
	start, end := r.eventRange(a)
	if err := a.err(); err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, toolerr.New(toolerr.KindInvalidArgument, a.tool, "endDate must be after startDate")
	}
	return r.calendar.GetEvents(ctx, a.userID(), start, end)
}

func (r *Registry) updateEvent(ctx context.Context, a *args) (any, error) {
	patch := calendar.EventPatch{
		Summary:     a.optString("title"),
		Description: a.optString("description"),
		Location:    a.optString("location"),
		TimeZone:    zoneName(a.loc),
	}
	if t, ok := a.time("startDateTime", startOfDay); ok {
		patch.Start = &t
	}
	if t, ok := a.time("endDateTime", endOfDay); ok {
		patch.End = &t
	}
	if err := a.err(); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, toolerr.New(toolerr.KindInvalidArgument, a.tool, "nothing to update; set title, description, location, startDateTime or endDateTime")
	}
	return r.calendar.UpdateEvent(ctx, a.userID(), a.string("eventId"), patch)
}

// deleteResult reports what was removed.
type deleteResult struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
}

func (r *Registry) deleteEvent(ctx context.Context, a *args) (any, error) {
	userID := a.userID()
	eventID := a.string("eventId")
	eventName := a.string("eventName")
	start, end := r.eventRange(a)
	if err := a.err(); err != nil {
		return nil, err
	}

	var title string
	switch {
	case eventID != "":
	case eventName != "":
		events, err := r.calendar.GetEvents(ctx, userID, start, end)
		if err != nil {
			return nil, err
		}
		match, err := namematch.Find(a.tool, "event", events, eventName, func(e calendar.Event) string { return e.Summary })
		if err != nil {
			return nil, err
		}
		eventID, title = match.ID, match.Summary
	default:
		return nil, toolerr.New(toolerr.KindInvalidArgument, a.tool, "either eventId or eventName must be provided")
	}

	if err := r.calendar.DeleteEvent(ctx, userID, eventID); err != nil {
		return nil, err
	}
	return deleteResult{Deleted: true, ID: eventID, Title: title}, nil
}

// focusTimeResult is the calendar_find_focus_time payload.
type focusTimeResult struct {
	Date        string                `json:"date"`
	Gaps        []calendar.Gap        `json:"gaps"`
	Suggestions []calendar.FocusBlock `json:"suggestions"`
}

func (r *Registry) findFocusTime(ctx context.Context, a *args) (any, error) {
	day, ok := a.time("date", startOfDay)
	if !ok {
		day = r.now()
	}
	minMinutes := a.number("minMinutes", calendar.DefaultMinFocusGap.Minutes())
	focusContext := a.string("context")
	if err := a.err(); err != nil {
		return nil, err
	}
	if minMinutes <= 0 {
		return nil, toolerr.New(toolerr.KindInvalidArgument, a.tool, "minMinutes must be positive")
	}

	from, to := calendar.Workday(day, a.loc)
	events, err := r.calendar.GetEvents(ctx, a.userID(), from, to)
	if err != nil {
		return nil, err
	}

	gaps := calendar.FindTimeGaps(events, from, to, time.Duration(minMinutes*float64(time.Minute)))
	res := focusTimeResult{
		Date:        from.Format(dateOnly),
		Gaps:        []calendar.Gap{},
		Suggestions: []calendar.FocusBlock{},
	}
	for _, g := range gaps {
		res.Gaps = append(res.Gaps, g)
		res.Suggestions = append(res.Suggestions, calendar.SuggestFocusBlock(g, focusContext))
	}
	return res, nil
}
