package tools

import (
	"context"

	"github.com/teemow/auraflow/internal/tasks"
	"github.com/teemow/auraflow/internal/toolerr"
)

func (a *args) listID() string {
	if id := a.string("taskListId"); id != "" {
		return id
	}
	return tasks.DefaultListID
}

func (a *args) taskRef() tasks.TaskRef {
	return tasks.TaskRef{ID: a.string("taskId"), Name: a.string("taskName")}
}

func (r *Registry) createTask(ctx context.Context, a *args) (any, error) {
	in := tasks.TaskInput{
		Title: a.string("title"),
		Notes: a.string("notes"),
	}
	if due, ok := a.time("due", startOfDay); ok {
		in.Due = due
	}
	listID := a.listID()
	if err := a.err(); err != nil {
		return nil, err
	}
	return r.tasks.CreateTask(ctx, a.userID(), listID, in)
}

func (r *Registry) getTasks(ctx context.Context, a *args) (any, error) {
	showCompleted := a.bool("showCompleted", true)
	listID := a.listID()
	if err := a.err(); err != nil {
		return nil, err
	}
	return r.tasks.GetTasks(ctx, a.userID(), listID, showCompleted)
}

func (r *Registry) updateTask(ctx context.Context, a *args) (any, error) {
	patch := tasks.TaskPatch{
		Title:  a.optString("title"),
		Notes:  a.optString("notes"),
		Status: a.optString("status"),
	}
	if due, ok := a.time("due", startOfDay); ok {
		patch.Due = &due
	}
	ref := a.taskRef()
	listID := a.listID()
	if err := a.err(); err != nil {
		return nil, err
	}
	if ref.ID == "" && ref.Name == "" {
		return nil, toolerr.New(toolerr.KindInvalidArgument, a.tool, "either taskId or taskName must be provided")
	}
	return r.tasks.UpdateTask(ctx, a.userID(), ref, patch, listID)
}

func (r *Registry) deleteTask(ctx context.Context, a *args) (any, error) {
	ref := a.taskRef()
	listID := a.listID()
	if err := a.err(); err != nil {
		return nil, err
	}
	if ref.ID == "" && ref.Name == "" {
		return nil, toolerr.New(toolerr.KindInvalidArgument, a.tool, "either taskId or taskName must be provided")
	}
	deleted, err := r.tasks.DeleteTask(ctx, a.userID(), ref, listID)
	if err != nil {
		return nil, err
	}
	return deleteResult{Deleted: true, ID: deleted.ID, Title: deleted.Title}, nil
}

func (r *Registry) completeTask(ctx context.Context, a *args) (any, error) {
	taskID := a.string("taskId")
	listID := a.listID()
	if err := a.err(); err != nil {
		return nil, err
	}
	return r.tasks.CompleteTask(ctx, a.userID(), taskID, listID)
}

func (r *Registry) getTaskLists(ctx context.Context, a *args) (any, error) {
	return r.tasks.GetTaskLists(ctx, a.userID())
}
