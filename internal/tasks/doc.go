// Package tasks is the Google Tasks collaborator behind the tasks_* tools.
//
// GoogleService implements Service on the Tasks v1 API. Tasks may be
// referenced by id or by name; names resolve against the current contents
// of the list with a case-insensitive substring match, and zero or
// ambiguous matches fail with toolerr.KindNoMatch.
//
// Due dates are day-granular in the Tasks API. Only the calendar date of a
// TaskInput.Due or TaskPatch.Due is sent.
package tasks
