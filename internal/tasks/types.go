package tasks

import (
	"time"

	tasks "google.golang.org/api/tasks/v1"
)

// DefaultListID addresses the user's default task list.
const DefaultListID = "@default"

// Task status values accepted by the Tasks API.
const (
	StatusNeedsAction = "needsAction"
	StatusCompleted   = "completed"
)

// TaskList is a Google Tasks list.
type TaskList struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Updated time.Time `json:"updated,omitzero"`
}

// Task is a Google Tasks task as returned to the model.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Notes     string    `json:"notes,omitempty"`
	Status    string    `json:"status"`
	Due       time.Time `json:"due,omitzero"`
	Completed time.Time `json:"completed,omitzero"`
	Parent    string    `json:"parent,omitempty"`
	Position  string    `json:"position,omitempty"`
	Links     []Link    `json:"links,omitempty"`
}

// Link is a related link attached to a task.
type Link struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Link        string `json:"link"`
}

// TaskInput holds the fields of a new task.
type TaskInput struct {
	Title string
	Notes string
	Due   time.Time
}

// TaskPatch lists the fields to change on an existing task. Nil fields are
// left untouched.
type TaskPatch struct {
	Title  *string
	Notes  *string
	Status *string
	Due    *time.Time
}

// TaskRef identifies a task either by id or by (part of) its title. ID wins
// when both are set.
type TaskRef struct {
	ID   string
	Name string
}

func (r TaskRef) empty() bool {
	return r.ID == "" && r.Name == ""
}

func toTaskList(tl *tasks.TaskList) TaskList {
	if tl == nil {
		return TaskList{}
	}
	result := TaskList{ID: tl.Id, Title: tl.Title}
	if tl.Updated != "" {
		if t, err := time.Parse(time.RFC3339, tl.Updated); err == nil {
			result.Updated = t
		}
	}
	return result
}

func toTask(t *tasks.Task) Task {
	if t == nil {
		return Task{}
	}

	result := Task{
		ID:       t.Id,
		Title:    t.Title,
		Notes:    t.Notes,
		Status:   t.Status,
		Parent:   t.Parent,
		Position: t.Position,
	}
	if t.Due != "" {
		if due, err := time.Parse(time.RFC3339, t.Due); err == nil {
			result.Due = due
		}
	}
	if t.Completed != nil && *t.Completed != "" {
		if completed, err := time.Parse(time.RFC3339, *t.Completed); err == nil {
			result.Completed = completed
		}
	}
	for _, link := range t.Links {
		if link == nil {
			continue
		}
		result.Links = append(result.Links, Link{
			Type:        link.Type,
			Description: link.Description,
			Link:        link.Link,
		})
	}
	return result
}

// dueString formats a due date the way the Tasks API stores it: the date at
// midnight UTC. The API ignores the time component.
func dueString(t time.Time) string {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
}

func applyPatch(t *tasks.Task, p TaskPatch) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.Due != nil {
		t.Due = dueString(*p.Due)
	}
	if p.Status != nil {
		t.Status = *p.Status
		if *p.Status == StatusNeedsAction {
			t.Completed = nil
		}
	}
}
