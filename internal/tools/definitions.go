package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// InputSchema is the JSON schema of a tool's arguments object.
type InputSchema struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Required   []string       `json:"required,omitempty"`
}

// ToolDefinition is what the model is told about a tool.
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`

	tool mcp.Tool
}

// Parameters returns the schema as a plain map, the shape chat completion
// endpoints expect under function.parameters.
func (d ToolDefinition) Parameters() map[string]any {
	params := map[string]any{
		"type":       d.InputSchema.Type,
		"properties": d.InputSchema.Properties,
	}
	if len(d.InputSchema.Required) > 0 {
		params["required"] = d.InputSchema.Required
	}
	return params
}

// MCPTool returns the definition as an MCP tool.
func (d ToolDefinition) MCPTool() mcp.Tool {
	return d.tool
}

// IsRequired reports whether field must be present.
func (d ToolDefinition) IsRequired(field string) bool {
	for _, r := range d.InputSchema.Required {
		if r == field {
			return true
		}
	}
	return false
}

func newDefinition(t mcp.Tool) ToolDefinition {
	schemaType := t.InputSchema.Type
	if schemaType == "" {
		schemaType = "object"
	}
	props := t.InputSchema.Properties
	if props == nil {
		props = map[string]any{}
	}
	return ToolDefinition{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: InputSchema{
			Type:       schemaType,
			Properties: props,
			Required:   append([]string(nil), t.InputSchema.Required...),
		},
		tool: t,
	}
}

func userIDParam() mcp.ToolOption {
	return mcp.WithString("userId",
		mcp.Required(),
		mcp.Description("User ID"),
	)
}

func dateTimeObject(what string) map[string]any {
	return map[string]any{
		"dateTime": map[string]any{
			"type":        "string",
			"description": what + " date/time (ISO 8601, e.g. 2026-03-02T14:00:00)",
		},
	}
}

// buildTool returns the mcp.Tool for id.
func buildTool(id ToolID) mcp.Tool {
	name := id.String()
	switch id {
	case CalendarCreateEvent:
		return mcp.NewTool(name,
			mcp.WithDescription("Create a new calendar event"),
			userIDParam(),
			mcp.WithString("summary", mcp.Required(), mcp.Description("Event title/summary")),
			mcp.WithString("description", mcp.Description("Event description")),
			mcp.WithObject("start",
				mcp.Required(),
				mcp.Description("Event start"),
				mcp.Properties(dateTimeObject("Start")),
			),
			mcp.WithObject("end",
				mcp.Required(),
				mcp.Description("Event end"),
				mcp.Properties(dateTimeObject("End")),
			),
			mcp.WithString("location", mcp.Description("Event location")),
			mcp.WithArray("attendees",
				mcp.Description("Attendee emails"),
				mcp.Items(map[string]any{"type": "string"}),
			),
		)
	case CalendarGetEvents:
		return mcp.NewTool(name,
			mcp.WithDescription("Get calendar events within a date range. Defaults to the next 7 days."),
			userIDParam(),
			mcp.WithString("startDate", mcp.Description("Start date (YYYY-MM-DD or ISO 8601)")),
			mcp.WithString("endDate", mcp.Description("End date (YYYY-MM-DD or ISO 8601)")),
		)
	case CalendarUpdateEvent:
		return mcp.NewTool(name,
			mcp.WithDescription("Update an existing calendar event"),
			userIDParam(),
			mcp.WithString("eventId", mcp.Required(), mcp.Description("Event ID")),
			mcp.WithString("title", mcp.Description("Event title")),
			mcp.WithString("description", mcp.Description("Event description")),
			mcp.WithString("startDateTime", mcp.Description("Start date/time (ISO 8601)")),
			mcp.WithString("endDateTime", mcp.Description("End date/time (ISO 8601)")),
			mcp.WithString("location", mcp.Description("Event location")),
		)
	case CalendarDeleteEvent:
		return mcp.NewTool(name,
			mcp.WithDescription("Delete a calendar event by ID or by name/title. Provide either eventId OR eventName."),
			userIDParam(),
			mcp.WithString("eventId", mcp.Description("Event ID (if known)")),
			mcp.WithString("eventName", mcp.Description("Event name/title to search for and delete")),
			mcp.WithString("startDate", mcp.Description("Start date to search within (optional)")),
			mcp.WithString("endDate", mcp.Description("End date to search within (optional)")),
		)
	case CalendarFindFocusTime:
		return mcp.NewTool(name,
			mcp.WithDescription("Find free gaps between 08:00 and 18:00 on a day and suggest focus blocks for them"),
			userIDParam(),
			mcp.WithString("date", mcp.Description("Day to analyse (YYYY-MM-DD). Defaults to today.")),
			mcp.WithNumber("minMinutes",
				mcp.Description("Shortest gap worth a focus block, in minutes"),
				mcp.DefaultNumber(25),
			),
			mcp.WithString("context", mcp.Description("What the focus time is for; added to each suggestion")),
		)
	case TasksCreateTask:
		return mcp.NewTool(name,
			mcp.WithDescription("Create a new task"),
			userIDParam(),
			mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
			mcp.WithString("notes", mcp.Description("Task notes")),
			mcp.WithString("due", mcp.Description("Due date (YYYY-MM-DD or ISO 8601)")),
			mcp.WithString("taskListId", mcp.Description("Task list ID (default: @default)")),
		)
	case TasksGetTasks:
		return mcp.NewTool(name,
			mcp.WithDescription("Get tasks from a task list"),
			userIDParam(),
			mcp.WithString("taskListId", mcp.Description("Task list ID (default: @default)")),
			mcp.WithBoolean("showCompleted",
				mcp.Description("Include completed tasks"),
				mcp.DefaultBool(true),
			),
		)
	case TasksUpdateTask:
		return mcp.NewTool(name,
			mcp.WithDescription("Update an existing task by ID or by name. Provide either taskId OR taskName."),
			userIDParam(),
			mcp.WithString("taskId", mcp.Description("Task ID (if known)")),
			mcp.WithString("taskName", mcp.Description("Task name/title to search for and update")),
			mcp.WithString("title", mcp.Description("New task title")),
			mcp.WithString("notes", mcp.Description("New task notes")),
			mcp.WithString("due", mcp.Description("New due date (YYYY-MM-DD or ISO 8601)")),
			mcp.WithString("status",
				mcp.Description("Task status"),
				mcp.Enum("needsAction", "completed"),
			),
			mcp.WithString("taskListId", mcp.Description("Task list ID (default: @default)")),
		)
	case TasksDeleteTask:
		return mcp.NewTool(name,
			mcp.WithDescription("Delete a task by ID or by name. Provide either taskId OR taskName."),
			userIDParam(),
			mcp.WithString("taskId", mcp.Description("Task ID (if known)")),
			mcp.WithString("taskName", mcp.Description("Task name/title to search for and delete")),
			mcp.WithString("taskListId", mcp.Description("Task list ID (default: @default)")),
		)
	case TasksCompleteTask:
		return mcp.NewTool(name,
			mcp.WithDescription("Mark a task as completed"),
			userIDParam(),
			mcp.WithString("taskId", mcp.Required(), mcp.Description("Task ID")),
			mcp.WithString("taskListId", mcp.Description("Task list ID (default: @default)")),
		)
	case TasksGetTaskLists:
		return mcp.NewTool(name,
			mcp.WithDescription("Get all task lists"),
			userIDParam(),
		)
	}
	panic("tools: no definition for " + name)
}
