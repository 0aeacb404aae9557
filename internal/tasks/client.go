package tasks

import (
	"context"
	"net/http"
	"time"

	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"github.com/teemow/auraflow/internal/google"
	"github.com/teemow/auraflow/internal/instrumentation"
	"github.com/teemow/auraflow/internal/namematch"
	"github.com/teemow/auraflow/internal/toolerr"
)

// GoogleService implements Service on the Google Tasks v1 API.
type GoogleService struct {
	services *google.ServiceCache[*tasks.Service]
	metrics  *instrumentation.Metrics
	now      func() time.Time
}

// Option configures a GoogleService.
type Option func(*GoogleService, *[]option.ClientOption)

// WithMetrics records google_api_* metrics.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(s *GoogleService, _ *[]option.ClientOption) { s.metrics = m }
}

// WithClientOptions passes extra options to tasks.NewService.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(_ *GoogleService, co *[]option.ClientOption) { *co = append(*co, opts...) }
}

// NewGoogleService creates a service that authenticates each user through
// clients.
func NewGoogleService(clients google.HTTPClientSource, opts ...Option) *GoogleService {
	s := &GoogleService{now: time.Now}
	var clientOpts []option.ClientOption
	for _, opt := range opts {
		opt(s, &clientOpts)
	}
	s.services = google.NewServiceCache(clients, func(ctx context.Context, hc *http.Client) (*tasks.Service, error) {
		return tasks.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(hc)}, clientOpts...)...)
	})
	return s
}

func (s *GoogleService) do(ctx context.Context, userID, op string, fn func(ctx context.Context, svc *tasks.Service) error) error {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceTasks, op)
	start := time.Now()

	err := func() error {
		svc, err := s.services.Get(ctx, userID)
		if err != nil {
			return err
		}
		return google.Classify("tasks."+op, fn(ctx, svc))
	}()

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		if toolerr.Is(err, toolerr.KindAuthExpired) {
			s.services.Forget(userID)
		}
	}
	s.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceTasks, op, status, time.Since(start))
	instrumentation.EndSpan(span, err)
	return err
}

func listOrDefault(listID string) string {
	if listID == "" {
		return DefaultListID
	}
	return listID
}

// CreateTask inserts a task at the top of the list.
func (s *GoogleService) CreateTask(ctx context.Context, userID, listID string, in TaskInput) (*Task, error) {
	if in.Title == "" {
		return nil, toolerr.New(toolerr.KindInvalidArgument, "tasks.create", "title must not be empty")
	}
	t := &tasks.Task{Title: in.Title, Notes: in.Notes}
	if !in.Due.IsZero() {
		t.Due = dueString(in.Due)
	}

	var out Task
	err := s.do(ctx, userID, instrumentation.OperationCreate, func(ctx context.Context, svc *tasks.Service) error {
		created, err := svc.Tasks.Insert(listOrDefault(listID), t).Context(ctx).Do()
		if err != nil {
			return err
		}
		out = toTask(created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTasks lists every task in the list, following pagination.
func (s *GoogleService) GetTasks(ctx context.Context, userID, listID string, showCompleted bool) ([]Task, error) {
	var out []Task
	err := s.do(ctx, userID, instrumentation.OperationList, func(ctx context.Context, svc *tasks.Service) error {
		var err error
		out, err = listTasks(ctx, svc, listOrDefault(listID), showCompleted)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func listTasks(ctx context.Context, svc *tasks.Service, listID string, showCompleted bool) ([]Task, error) {
	out := []Task{}
	call := svc.Tasks.List(listID).
		ShowCompleted(showCompleted).
		ShowHidden(showCompleted).
		MaxResults(100)
	err := call.Pages(ctx, func(page *tasks.Tasks) error {
		for _, t := range page.Items {
			out = append(out, toTask(t))
		}
		return nil
	})
	return out, err
}

// resolve returns the id ref points at, looking the name up in listID when
// no id was given.
func resolve(ctx context.Context, svc *tasks.Service, op string, ref TaskRef, listID string) (Task, error) {
	if ref.ID != "" {
		return Task{ID: ref.ID}, nil
	}
	items, err := listTasks(ctx, svc, listID, true)
	if err != nil {
		return Task{}, err
	}
	return namematch.Find(op, "task", items, ref.Name, func(t Task) string { return t.Title })
}

// UpdateTask applies patch to the task ref points at.
func (s *GoogleService) UpdateTask(ctx context.Context, userID string, ref TaskRef, patch TaskPatch, listID string) (*Task, error) {
	if ref.empty() {
		return nil, toolerr.New(toolerr.KindInvalidArgument, "tasks.update", "either taskId or taskName must be provided")
	}
	if patch.Status != nil && *patch.Status != StatusNeedsAction && *patch.Status != StatusCompleted {
		return nil, toolerr.New(toolerr.KindInvalidArgument, "tasks.update", "status must be %q or %q", StatusNeedsAction, StatusCompleted)
	}
	listID = listOrDefault(listID)

	var out Task
	err := s.do(ctx, userID, instrumentation.OperationUpdate, func(ctx context.Context, svc *tasks.Service) error {
		target, err := resolve(ctx, svc, "tasks.update", ref, listID)
		if err != nil {
			return err
		}
		existing, err := svc.Tasks.Get(listID, target.ID).Context(ctx).Do()
		if err != nil {
			return err
		}
		applyPatch(existing, patch)
		updated, err := svc.Tasks.Update(listID, target.ID, existing).Context(ctx).Do()
		if err != nil {
			return err
		}
		out = toTask(updated)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTask removes the task ref points at.
func (s *GoogleService) DeleteTask(ctx context.Context, userID string, ref TaskRef, listID string) (*Task, error) {
	if ref.empty() {
		return nil, toolerr.New(toolerr.KindInvalidArgument, "tasks.delete", "either taskId or taskName must be provided")
	}
	listID = listOrDefault(listID)

	var out Task
	err := s.do(ctx, userID, instrumentation.OperationDelete, func(ctx context.Context, svc *tasks.Service) error {
		target, err := resolve(ctx, svc, "tasks.delete", ref, listID)
		if err != nil {
			return err
		}
		if err := svc.Tasks.Delete(listID, target.ID).Context(ctx).Do(); err != nil {
			return err
		}
		out = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CompleteTask marks a task completed now.
func (s *GoogleService) CompleteTask(ctx context.Context, userID, taskID, listID string) (*Task, error) {
	if taskID == "" {
		return nil, toolerr.New(toolerr.KindInvalidArgument, "tasks.complete", "taskId must not be empty")
	}
	listID = listOrDefault(listID)

	var out Task
	err := s.do(ctx, userID, instrumentation.OperationUpdate, func(ctx context.Context, svc *tasks.Service) error {
		existing, err := svc.Tasks.Get(listID, taskID).Context(ctx).Do()
		if err != nil {
			return err
		}
		existing.Status = StatusCompleted
		completed := s.now().UTC().Format(time.RFC3339)
		existing.Completed = &completed

		updated, err := svc.Tasks.Update(listID, taskID, existing).Context(ctx).Do()
		if err != nil {
			return err
		}
		out = toTask(updated)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTaskLists returns all of the user's task lists.
func (s *GoogleService) GetTaskLists(ctx context.Context, userID string) ([]TaskList, error) {
	out := []TaskList{}
	err := s.do(ctx, userID, instrumentation.OperationList, func(ctx context.Context, svc *tasks.Service) error {
		return svc.Tasklists.List().MaxResults(100).Pages(ctx, func(page *tasks.TaskLists) error {
			for _, tl := range page.Items {
				out = append(out, toTaskList(tl))
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
