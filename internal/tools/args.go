package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/teemow/auraflow/internal/toolerr"
)

type ctxKey int

const (
	locationKey ctxKey = iota
	callKey
)

// WithLocation attaches the caller's time zone. Date arguments without an
// offset are interpreted in it.
func WithLocation(ctx context.Context, loc *time.Location) context.Context {
	if loc == nil {
		return ctx
	}
	return context.WithValue(ctx, locationKey, loc)
}

// LocationFrom returns the zone set by WithLocation, or UTC.
func LocationFrom(ctx context.Context) *time.Location {
	if loc, ok := ctx.Value(locationKey).(*time.Location); ok {
		return loc
	}
	return time.UTC
}

// CallInfo identifies the model tool call a dispatch serves.
type CallInfo struct {
	ID    string
	Round int
}

// WithCall attaches call metadata used for spans and audit records.
func WithCall(ctx context.Context, info CallInfo) context.Context {
	return context.WithValue(ctx, callKey, info)
}

func callFrom(ctx context.Context) CallInfo {
	info, _ := ctx.Value(callKey).(CallInfo)
	return info
}

// dayBound selects which end of the day a date-only string snaps to.
type dayBound int

const (
	startOfDay dayBound = iota
	endOfDay
)

const dateOnly = "2006-01-02"

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseDateTime parses the date formats models produce. A bare date becomes
// 00:00:00 or 23:59:59 in loc depending on bound; local date-times are
// read in loc; RFC 3339 values keep their offset.
func parseDateTime(s string, loc *time.Location, bound dayBound) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseInLocation(dateOnly, s, loc); err == nil {
		if bound == endOfDay {
			return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, loc), nil
		}
		return d, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q, use YYYY-MM-DD or an ISO 8601 date-time", s)
}

// startOfToday returns midnight of now's date in loc.
func startOfToday(now time.Time, loc *time.Location) time.Time {
	n := now.In(loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
}

// args wraps a tool's argument map with typed accessors. Accessors record
// the first conversion problem; err reports it as KindInvalidArgument.
type args struct {
	tool string
	m    map[string]any
	loc  *time.Location
	bad  error
}

func newArgs(ctx context.Context, tool string, m map[string]any) *args {
	return &args{tool: tool, m: m, loc: LocationFrom(ctx)}
}

func (a *args) fail(key string, err error) {
	if a.bad == nil {
		a.bad = toolerr.New(toolerr.KindInvalidArgument, a.tool, "%s: %v", key, err)
	}
}

func (a *args) err() error {
	return a.bad
}

func (a *args) has(key string) bool {
	v, ok := a.m[key]
	return ok && v != nil
}

func (a *args) userID() string {
	return a.string("userId")
}

func (a *args) string(key string) string {
	v, ok := a.m[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64, bool:
		return fmt.Sprint(s)
	default:
		a.fail(key, fmt.Errorf("expected a string, got %T", v))
		return ""
	}
}

// optString returns nil when key is absent so patches leave the field alone.
func (a *args) optString(key string) *string {
	if !a.has(key) {
		return nil
	}
	s := a.string(key)
	return &s
}

func (a *args) bool(key string, def bool) bool {
	v, ok := a.m[key]
	if !ok || v == nil {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "1":
			return true
		case "false", "no", "0":
			return false
		}
	}
	a.fail(key, fmt.Errorf("expected a boolean, got %v", v))
	return def
}

func (a *args) number(key string, def float64) float64 {
	v, ok := a.m[key]
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(n), "%g", &f); err == nil {
			return f
		}
	}
	a.fail(key, fmt.Errorf("expected a number, got %v", v))
	return def
}

// strings accepts ["a","b"], [{"email":"a"}] or a comma-separated string.
func (a *args) strings(key, objectField string) []string {
	v, ok := a.m[key]
	if !ok || v == nil {
		return nil
	}
	var out []string
	switch list := v.(type) {
	case string:
		for _, p := range strings.Split(list, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	case []any:
		for _, item := range list {
			switch it := item.(type) {
			case string:
				out = append(out, strings.TrimSpace(it))
			case map[string]any:
				if s, ok := it[objectField].(string); ok {
					out = append(out, strings.TrimSpace(s))
				}
			}
		}
	case []string:
		out = append(out, list...)
	default:
		a.fail(key, fmt.Errorf("expected an array, got %T", v))
	}
	return out
}

// time parses key as a date or date-time. start/end objects of the form
// {"dateTime": "..."} (or {"date": "..."}) are unwrapped.
func (a *args) time(key string, bound dayBound) (time.Time, bool) {
	v, ok := a.m[key]
	if !ok || v == nil {
		return time.Time{}, false
	}
	var raw string
	switch t := v.(type) {
	case string:
		raw = t
	case map[string]any:
		if s, ok := t["dateTime"].(string); ok {
			raw = s
		} else if s, ok := t["date"].(string); ok {
			raw = s
		} else {
			a.fail(key, fmt.Errorf("object needs a dateTime field"))
			return time.Time{}, false
		}
	default:
		a.fail(key, fmt.Errorf("expected a date string, got %T", v))
		return time.Time{}, false
	}
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, false
	}
	parsed, err := parseDateTime(raw, a.loc, bound)
	if err != nil {
		a.fail(key, err)
		return time.Time{}, false
	}
	return parsed, true
}
