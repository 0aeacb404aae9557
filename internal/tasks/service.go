package tasks

import "context"

// Service is the Google Tasks surface used by the task tools. An empty
// listID means DefaultListID.
type Service interface {
	CreateTask(ctx context.Context, userID, listID string, in TaskInput) (*Task, error)
	GetTasks(ctx context.Context, userID, listID string, showCompleted bool) ([]Task, error)
	UpdateTask(ctx context.Context, userID string, ref TaskRef, patch TaskPatch, listID string) (*Task, error)
	// DeleteTask returns the task it removed. For id references only the
	// ID is populated.
	DeleteTask(ctx context.Context, userID string, ref TaskRef, listID string) (*Task, error)
	CompleteTask(ctx context.Context, userID, taskID, listID string) (*Task, error)
	GetTaskLists(ctx context.Context, userID string) ([]TaskList, error)
}
