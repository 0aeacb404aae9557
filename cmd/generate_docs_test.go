package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teemow/auraflow/internal/tools"
)

func TestGetCategoryFromToolName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "calendar_get_events", want: "Google Calendar Tools"},
		{name: "calendar_find_focus_time", want: "Google Calendar Tools"},
		{name: "tasks_complete_task", want: "Google Tasks Tools"},
		{name: "weather", want: "Other"},
		{name: "", want: "Other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getCategoryFromToolName(tt.name))
		})
	}
}

func TestGenerateToolsMarkdown(t *testing.T) {
	defs := tools.NewRegistry(nil, nil).Definitions()
	md := generateToolsMarkdown(defs)

	assert.True(t, strings.HasPrefix(md, "# Tools Reference\n"))
	assert.Contains(t, md, "- [Google Calendar Tools](#google-calendar-tools)")
	assert.Contains(t, md, "- [Google Tasks Tools](#google-tasks-tools)")
	for _, def := range defs {
		assert.Contains(t, md, "### "+def.Name+"\n")
	}
	assert.Contains(t, md, "- `userId` (string, required): ")

	// Calendar section sorts before Tasks, and tools sort by name within it.
	cal := strings.Index(md, "## Google Calendar Tools")
	tsk := strings.Index(md, "## Google Tasks Tools")
	assert.Less(t, cal, tsk)
	assert.Less(t, strings.Index(md, "### calendar_create_event"), strings.Index(md, "### calendar_update_event"))
}
