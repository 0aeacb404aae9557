package tools

// ToolID enumerates the tools the registry can dispatch. The order is the
// order definitions are advertised to the model.
type ToolID int

const (
	CalendarCreateEvent ToolID = iota
	CalendarGetEvents
	CalendarUpdateEvent
	CalendarDeleteEvent
	CalendarFindFocusTime
	TasksCreateTask
	TasksGetTasks
	TasksUpdateTask
	TasksDeleteTask
	TasksCompleteTask
	TasksGetTaskLists

	toolCount
)

var toolNames = [toolCount]string{
	CalendarCreateEvent:   "calendar_create_event",
	CalendarGetEvents:     "calendar_get_events",
	CalendarUpdateEvent:   "calendar_update_event",
	CalendarDeleteEvent:   "calendar_delete_event",
	CalendarFindFocusTime: "calendar_find_focus_time",
	TasksCreateTask:       "tasks_create_task",
	TasksGetTasks:         "tasks_get_tasks",
	TasksUpdateTask:       "tasks_update_task",
	TasksDeleteTask:       "tasks_delete_task",
	TasksCompleteTask:     "tasks_complete_task",
	TasksGetTaskLists:     "tasks_get_task_lists",
}

// String returns the wire name of the tool.
func (id ToolID) String() string {
	if id < 0 || id >= toolCount {
		return "unknown"
	}
	return toolNames[id]
}

// AllToolIDs returns every tool in advertisement order.
func AllToolIDs() []ToolID {
	ids := make([]ToolID, 0, toolCount)
	for id := ToolID(0); id < toolCount; id++ {
		ids = append(ids, id)
	}
	return ids
}

// ParseToolID maps a wire name to its ToolID. Matching is exact.
func ParseToolID(name string) (ToolID, bool) {
	for id, n := range toolNames {
		if n == name {
			return ToolID(id), true
		}
	}
	return 0, false
}
