package tools

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/teemow/auraflow/internal/calendar"
	"github.com/teemow/auraflow/internal/instrumentation"
	"github.com/teemow/auraflow/internal/logging"
	"github.com/teemow/auraflow/internal/tasks"
	"github.com/teemow/auraflow/internal/toolerr"
)

type fakeCalendar struct {
	events    []calendar.Event
	created   []calendar.EventInput
	patches   map[string]calendar.EventPatch
	deleted   []string
	ranges    [][2]time.Time
	err       error
	deleteErr error
}

func (f *fakeCalendar) CreateEvent(_ context.Context, _ string, in calendar.EventInput) (*calendar.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, in)
	return &calendar.Event{ID: "new", Summary: in.Summary, Start: in.Start, End: in.End}, nil
}

func (f *fakeCalendar) GetEvents(_ context.Context, _ string, start, end time.Time) ([]calendar.Event, error) {
	f.ranges = append(f.ranges, [2]time.Time{start, end})
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func (f *fakeCalendar) UpdateEvent(_ context.Context, _ string, id string, p calendar.EventPatch) (*calendar.Event, error) {
	if f.patches == nil {
		f.patches = map[string]calendar.EventPatch{}
	}
	f.patches[id] = p
	return &calendar.Event{ID: id}, nil
}

func (f *fakeCalendar) DeleteEvent(_ context.Context, _ string, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeTasks struct {
	lastRef       tasks.TaskRef
	lastPatch     tasks.TaskPatch
	lastList      string
	showCompleted bool
	created       []tasks.TaskInput
}

func (f *fakeTasks) CreateTask(_ context.Context, _, listID string, in tasks.TaskInput) (*tasks.Task, error) {
	f.lastList = listID
	f.created = append(f.created, in)
	return &tasks.Task{ID: "t1", Title: in.Title}, nil
}

func (f *fakeTasks) GetTasks(_ context.Context, _, listID string, showCompleted bool) ([]tasks.Task, error) {
	f.lastList, f.showCompleted = listID, showCompleted
	return []tasks.Task{}, nil
}

func (f *fakeTasks) UpdateTask(_ context.Context, _ string, ref tasks.TaskRef, p tasks.TaskPatch, listID string) (*tasks.Task, error) {
	f.lastRef, f.lastPatch, f.lastList = ref, p, listID
	return &tasks.Task{ID: "t1"}, nil
}

func (f *fakeTasks) DeleteTask(_ context.Context, _ string, ref tasks.TaskRef, listID string) (*tasks.Task, error) {
	f.lastRef, f.lastList = ref, listID
	return &tasks.Task{ID: "t9", Title: "Buy milk"}, nil
}

func (f *fakeTasks) CompleteTask(_ context.Context, _, taskID, listID string) (*tasks.Task, error) {
	f.lastRef, f.lastList = tasks.TaskRef{ID: taskID}, listID
	return &tasks.Task{ID: taskID, Status: tasks.StatusCompleted}, nil
}

func (f *fakeTasks) GetTaskLists(context.Context, string) ([]tasks.TaskList, error) {
	return []tasks.TaskList{{ID: "@default", Title: "My Tasks"}}, nil
}

var fixedNow = time.Date(2026, 3, 2, 15, 4, 0, 0, time.UTC)

func newTestRegistry(cal *fakeCalendar, tsk *fakeTasks, opts ...Option) *Registry {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewRegistry(cal, tsk, opts...)
}

func TestDefinitions(t *testing.T) {
	r := newTestRegistry(&fakeCalendar{}, &fakeTasks{})
	defs := r.Definitions()
	require.Len(t, defs, 11)

	for i, d := range defs {
		assert.Equal(t, ToolID(i).String(), d.Name, "definitions follow ToolID order")
		assert.True(t, d.IsRequired("userId"), "%s requires userId", d.Name)
		assert.Equal(t, "object", d.InputSchema.Type)
		assert.Contains(t, d.InputSchema.Properties, "userId")
		assert.NotEmpty(t, d.Description)
	}

	required := map[string][]string{
		"calendar_create_event": {"userId", "summary", "start", "end"},
		"calendar_update_event": {"userId", "eventId"},
		"tasks_create_task":     {"userId", "title"},
		"tasks_complete_task":   {"userId", "taskId"},
		"tasks_delete_task":     {"userId"},
	}
	for _, d := range defs {
		if want, ok := required[d.Name]; ok {
			assert.ElementsMatch(t, want, d.InputSchema.Required, d.Name)
		}
	}

	assert.Equal(t, "calendar_create_event", r.Names()[0])
	params := defs[CalendarCreateEvent].Parameters()
	assert.Equal(t, "object", params["type"])
	assert.Contains(t, params, "required")

	status, ok := defs[TasksUpdateTask].InputSchema.Properties["status"].(map[string]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"needsAction", "completed"}, status["enum"])
}

func TestParseToolID(t *testing.T) {
	for _, id := range AllToolIDs() {
		got, ok := ParseToolID(id.String())
		require.True(t, ok)
		assert.Equal(t, id, got)
	}
	_, ok := ParseToolID("Calendar_Get_Events")
	assert.False(t, ok)
	assert.Equal(t, "unknown", ToolID(99).String())
}

func TestDispatch_UnknownTool(t *testing.T) {
	r := newTestRegistry(&fakeCalendar{}, &fakeTasks{})
	_, err := r.Dispatch(context.Background(), "calendar_teleport", map[string]any{"userId": "u"})

	var unknown *UnknownToolError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "calendar_teleport", unknown.Name)
}

func TestDispatch_MissingRequiredField(t *testing.T) {
	r := newTestRegistry(&fakeCalendar{}, &fakeTasks{})
	_, err := r.Dispatch(context.Background(), "calendar_update_event", map[string]any{"userId": "u", "title": "x"})

	var missing *MissingRequiredFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "eventId", missing.Field)
	assert.Equal(t, "calendar_update_event", missing.Tool)
}

func TestDispatch_GetEventsDateNormalisation(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	tests := []struct {
		name      string
		args      map[string]any
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "defaults to the next seven days",
			args:      map[string]any{},
			wantStart: time.Date(2026, 3, 2, 0, 0, 0, 0, berlin),
			wantEnd:   time.Date(2026, 3, 9, 0, 0, 0, 0, berlin),
		},
		{
			name:      "date-only bounds cover whole days",
			args:      map[string]any{"startDate": "2026-03-05", "endDate": "2026-03-06"},
			wantStart: time.Date(2026, 3, 5, 0, 0, 0, 0, berlin),
			wantEnd:   time.Date(2026, 3, 6, 23, 59, 59, 0, berlin),
		},
		{
			name:      "explicit offsets are kept",
			args:      map[string]any{"startDate": "2026-03-05T09:00:00Z", "endDate": "2026-03-05T17:00:00Z"},
			wantStart: time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 3, 5, 17, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cal := &fakeCalendar{}
			r := newTestRegistry(cal, &fakeTasks{})
			tt.args["userId"] = "alice"

			_, err := r.Dispatch(WithLocation(context.Background(), berlin), "calendar_get_events", tt.args)
			require.NoError(t, err)
			require.Len(t, cal.ranges, 1)
			assert.True(t, tt.wantStart.Equal(cal.ranges[0][0]), "start %s", cal.ranges[0][0])
			assert.True(t, tt.wantEnd.Equal(cal.ranges[0][1]), "end %s", cal.ranges[0][1])
		})
	}
}

func TestDispatch_CreateEvent(t *testing.T) {
	cal := &fakeCalendar{}
	r := newTestRegistry(cal, &fakeTasks{})

	res, err := r.Dispatch(context.Background(), "calendar_create_event", map[string]any{
		"userId":    "alice",
		"summary":   "Planning",
		"start":     map[string]any{"dateTime": "2026-03-02T14:00:00"},
		"end":       "2026-03-02T15:00:00",
		"attendees": []any{"a@example.com", map[string]any{"email": "b@example.com"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "new", res.(*calendar.Event).ID)

	require.Len(t, cal.created, 1)
	in := cal.created[0]
	assert.Equal(t, time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC), in.Start)
	assert.Equal(t, "UTC", in.TimeZone)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, in.Attendees)
}

func TestDispatch_CreateEventRejectsBadInput(t *testing.T) {
	r := newTestRegistry(&fakeCalendar{}, &fakeTasks{})
	tests := []struct {
		name string
		args map[string]any
	}{
		{"end before start", map[string]any{"start": "2026-03-02T15:00:00", "end": "2026-03-02T14:00:00"}},
		{"unparseable date", map[string]any{"start": "next tuesday", "end": "2026-03-02T14:00:00"}},
		{"object without dateTime", map[string]any{"start": map[string]any{"when": "now"}, "end": "2026-03-02T14:00:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.args["userId"] = "alice"
			tt.args["summary"] = "x"
			_, err := r.Dispatch(context.Background(), "calendar_create_event", tt.args)
			assert.Equal(t, toolerr.KindInvalidArgument, toolerr.KindOf(err))
		})
	}
}

func TestDispatch_UpdateEvent(t *testing.T) {
	cal := &fakeCalendar{}
	r := newTestRegistry(cal, &fakeTasks{})

	_, err := r.Dispatch(context.Background(), "calendar_update_event", map[string]any{
		"userId": "alice", "eventId": "ev1", "title": "Renamed",
	})
	require.NoError(t, err)
	p := cal.patches["ev1"]
	require.NotNil(t, p.Summary)
	assert.Equal(t, "Renamed", *p.Summary)
	assert.Nil(t, p.Location)

	_, err = r.Dispatch(context.Background(), "calendar_update_event", map[string]any{"userId": "alice", "eventId": "ev1"})
	assert.Equal(t, toolerr.KindInvalidArgument, toolerr.KindOf(err))
}

func TestDispatch_DeleteEvent(t *testing.T) {
	day := func(h int) time.Time { return time.Date(2026, 3, 3, h, 0, 0, 0, time.UTC) }
	events := []calendar.Event{
		{ID: "e1", Summary: "Dentist appointment", Start: day(9), End: day(10)},
		{ID: "e2", Summary: "Team sync", Start: day(11), End: day(12)},
		{ID: "e3", Summary: "Team retro", Start: day(14), End: day(15)},
	}

	tests := []struct {
		name     string
		args     map[string]any
		wantID   string
		wantKind toolerr.Kind
	}{
		{name: "by id", args: map[string]any{"eventId": "e2"}, wantID: "e2"},
		{name: "by name", args: map[string]any{"eventName": "dentist"}, wantID: "e1"},
		{name: "no match", args: map[string]any{"eventName": "yoga"}, wantKind: toolerr.KindNoMatch},
		{name: "ambiguous", args: map[string]any{"eventName": "team"}, wantKind: toolerr.KindNoMatch},
		{name: "neither id nor name", args: map[string]any{}, wantKind: toolerr.KindInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cal := &fakeCalendar{events: events}
			r := newTestRegistry(cal, &fakeTasks{})
			tt.args["userId"] = "alice"

			res, err := r.Dispatch(context.Background(), "calendar_delete_event", tt.args)
			if tt.wantID == "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, toolerr.KindOf(err))
				assert.Empty(t, cal.deleted)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{tt.wantID}, cal.deleted)
			assert.Equal(t, tt.wantID, res.(deleteResult).ID)
		})
	}
}

func TestDispatch_DeleteEventStaleID(t *testing.T) {
	cal := &fakeCalendar{deleteErr: toolerr.New(toolerr.KindNotFound, "calendar.delete", "event not found")}
	r := newTestRegistry(cal, &fakeTasks{})

	_, err := r.Dispatch(context.Background(), "calendar_delete_event", map[string]any{"userId": "alice", "eventId": "stale"})
	assert.Equal(t, toolerr.KindNotFound, toolerr.KindOf(err))
}

func TestDispatch_FindFocusTime(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2026, 3, 2, h, 0, 0, 0, time.UTC) }
	cal := &fakeCalendar{events: []calendar.Event{
		{ID: "e1", Start: at(8), End: at(12)},
		{ID: "e2", Start: at(13), End: at(18)},
	}}
	r := newTestRegistry(cal, &fakeTasks{})

	res, err := r.Dispatch(context.Background(), "calendar_find_focus_time", map[string]any{
		"userId": "alice", "date": "2026-03-02", "minMinutes": float64(30), "context": "deep work",
	})
	require.NoError(t, err)

	out := res.(focusTimeResult)
	assert.Equal(t, "2026-03-02", out.Date)
	require.Len(t, out.Suggestions, 1)
	assert.Equal(t, "Focus Block - 60 min", out.Suggestions[0].Title)
	assert.Equal(t, "Suggested focus time. Context: deep work", out.Suggestions[0].Description)
	assert.Equal(t, at(8), cal.ranges[0][0])
	assert.Equal(t, at(18), cal.ranges[0][1])
}

func TestDispatch_Tasks(t *testing.T) {
	tsk := &fakeTasks{}
	r := newTestRegistry(&fakeCalendar{}, tsk)
	ctx := context.Background()

	_, err := r.Dispatch(ctx, "tasks_get_tasks", map[string]any{"userId": "alice"})
	require.NoError(t, err)
	assert.True(t, tsk.showCompleted)
	assert.Equal(t, tasks.DefaultListID, tsk.lastList)

	_, err = r.Dispatch(ctx, "tasks_update_task", map[string]any{
		"userId": "alice", "taskName": "milk", "status": "completed", "taskListId": "work",
	})
	require.NoError(t, err)
	assert.Equal(t, tasks.TaskRef{Name: "milk"}, tsk.lastRef)
	require.NotNil(t, tsk.lastPatch.Status)
	assert.Equal(t, "completed", *tsk.lastPatch.Status)
	assert.Nil(t, tsk.lastPatch.Title)
	assert.Equal(t, "work", tsk.lastList)

	_, err = r.Dispatch(ctx, "tasks_update_task", map[string]any{"userId": "alice", "title": "x"})
	assert.Equal(t, toolerr.KindInvalidArgument, toolerr.KindOf(err))

	res, err := r.Dispatch(ctx, "tasks_delete_task", map[string]any{"userId": "alice", "taskName": "milk"})
	require.NoError(t, err)
	assert.Equal(t, deleteResult{Deleted: true, ID: "t9", Title: "Buy milk"}, res)

	_, err = r.Dispatch(ctx, "tasks_create_task", map[string]any{"userId": "alice", "title": "Call mom", "due": "2026-03-05"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), tsk.created[0].Due)
}

func TestDispatch_CollaboratorErrorPropagates(t *testing.T) {
	boom := errors.New("backend exploded")
	r := newTestRegistry(&fakeCalendar{err: boom}, &fakeTasks{})

	_, err := r.Dispatch(context.Background(), "calendar_get_events", map[string]any{"userId": "alice"})
	assert.ErrorIs(t, err, boom)
}

func TestDispatch_Audit(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	audit := instrumentation.NewAuditLogger(logger, instrumentation.AuditConfig{Enabled: true})
	r := newTestRegistry(&fakeCalendar{}, &fakeTasks{}, WithAuditLogger(audit))

	ctx := WithCall(context.Background(), CallInfo{ID: "call_1", Round: 2})
	_, err := r.Dispatch(ctx, "tasks_get_task_lists", map[string]any{"userId": "alice"})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "tool_executed")
	assert.Contains(t, buf.String(), "call_1")
}

func TestDispatch_MetricsAnonymizeUser(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	metrics, err := instrumentation.NewMetrics(provider.Meter("test"), true)
	require.NoError(t, err)
	r := newTestRegistry(&fakeCalendar{}, &fakeTasks{}, WithMetrics(metrics))

	_, err = r.Dispatch(context.Background(), "tasks_get_task_lists", map[string]any{"userId": "alice@example.com"})
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var users []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "tool_invocations_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				if v, ok := dp.Attributes.Value("user"); ok {
					users = append(users, v.AsString())
				}
			}
		}
	}
	require.Len(t, users, 1)
	assert.Equal(t, logging.AnonymizeUser("alice@example.com"), users[0])
	assert.NotContains(t, users[0], "alice")
}

func TestParseDateTime(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	tests := []struct {
		in    string
		bound dayBound
		want  time.Time
		err   bool
	}{
		{in: "2026-03-02", bound: startOfDay, want: time.Date(2026, 3, 2, 0, 0, 0, 0, tokyo)},
		{in: "2026-03-02", bound: endOfDay, want: time.Date(2026, 3, 2, 23, 59, 59, 0, tokyo)},
		{in: "2026-03-02T10:30:00", bound: startOfDay, want: time.Date(2026, 3, 2, 10, 30, 0, 0, tokyo)},
		{in: "2026-03-02T10:30", bound: endOfDay, want: time.Date(2026, 3, 2, 10, 30, 0, 0, tokyo)},
		{in: " 2026-03-02T10:30:00+01:00 ", bound: startOfDay, want: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)},
		{in: "tomorrow", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDateTime(tt.in, tokyo, tt.bound)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestEncodeResult_NoHTMLEscaping(t *testing.T) {
	s, err := encodeResult(map[string]string{"title": "R&D <sync>"})
	require.NoError(t, err)
	assert.Contains(t, s, "R&D <sync>")
}
