package calendar

import (
	"fmt"
	"sort"
	"time"
)

// Working-day window and minimum gap used for focus-time suggestions.
const (
	WorkdayStartHour   = 8
	WorkdayEndHour     = 18
	DefaultMinFocusGap = 25 * time.Minute
)

// Gap is a free interval between events.
type Gap struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Minutes int       `json:"minutes"`
}

// FocusBlock is a suggested event filling a gap. It is not created.
type FocusBlock struct {
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Description string    `json:"description"`
}

// Workday returns the 08:00 to 18:00 window of day in loc.
func Workday(day time.Time, loc *time.Location) (time.Time, time.Time) {
	d := day.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), WorkdayStartHour, 0, 0, 0, loc)
	end := time.Date(d.Year(), d.Month(), d.Day(), WorkdayEndHour, 0, 0, 0, loc)
	return start, end
}

// FindTimeGaps returns the free intervals of at least minGap inside
// [from, to). All-day events are ignored; overlapping events are merged.
func FindTimeGaps(events []Event, from, to time.Time, minGap time.Duration) []Gap {
	timed := make([]Event, 0, len(events))
	for _, e := range events {
		if e.AllDay || e.Start.IsZero() || e.End.IsZero() {
			continue
		}
		timed = append(timed, e)
	}
	sort.SliceStable(timed, func(i, j int) bool { return timed[i].Start.Before(timed[j].Start) })

	var gaps []Gap
	cursor := from
	add := func(start, end time.Time) {
		if end.Sub(start) >= minGap {
			gaps = append(gaps, Gap{Start: start, End: end, Minutes: int(end.Sub(start) / time.Minute)})
		}
	}
	for _, e := range timed {
		if !e.End.After(cursor) {
			continue
		}
		if e.Start.After(cursor) {
			end := e.Start
			if end.After(to) {
				end = to
			}
			add(cursor, end)
		}
		cursor = e.End
		if !cursor.Before(to) {
			return gaps
		}
	}
	if cursor.Before(to) {
		add(cursor, to)
	}
	return gaps
}

// SuggestFocusBlock proposes an event covering gap.
func SuggestFocusBlock(gap Gap, context string) FocusBlock {
	desc := "Suggested focus time"
	if context != "" {
		desc += ". Context: " + context
	}
	return FocusBlock{
		Title:       fmt.Sprintf("Focus Block - %d min", gap.Minutes),
		Start:       gap.Start,
		End:         gap.End,
		Description: desc,
	}
}
