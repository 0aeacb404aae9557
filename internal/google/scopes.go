package google

import (
	calendar "google.golang.org/api/calendar/v3"
	tasks "google.golang.org/api/tasks/v1"
)

// DefaultOAuthScopes covers identity plus read/write Calendar and Tasks.
var DefaultOAuthScopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
	calendar.CalendarScope,
	tasks.TasksScope,
}
