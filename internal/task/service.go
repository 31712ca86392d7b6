// Package task creates tasks and drives them through their lifecycle:
// queued, in_progress, then done or failed.
package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kazz187/missioncontrol/internal/dispatch"
	"github.com/kazz187/missioncontrol/internal/document"
	"github.com/kazz187/missioncontrol/internal/eventbus"
	"github.com/kazz187/missioncontrol/internal/store"
	"github.com/kazz187/missioncontrol/pkg/cerr"
)

// DefaultTimeout bounds one dispatch. Task execution is expected to be
// substantive, hence minutes rather than seconds.
const DefaultTimeout = 300 * time.Second

const (
	logDispatching = "Dispatching to agent..."
	logCompleted   = "Task completed"
)

type Service struct {
	store   store.Store
	invoker dispatch.Invoker
	events  eventbus.Publisher
	timeout time.Duration
	now     func() time.Time
}

type Option func(*Service)

func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

func WithEventPublisher(p eventbus.Publisher) Option {
	return func(s *Service) { s.events = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(st store.Store, invoker dispatch.Invoker, opts ...Option) *Service {
	s := &Service{
		store:   st,
		invoker: invoker,
		events:  eventbus.Nop{},
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newID() string {
	return "task_" + ulid.Make().String()
}

// DispatchFailure is attached to the error of a failed dispatch so callers
// receive the task in its terminal state along with the error.
type DispatchFailure struct {
	Task *document.Task `json:"task"`
}

func (s *Service) CreateTask(ctx context.Context, title, details, agentID string) (*document.Task, error) {
	title = strings.TrimSpace(title)
	agentID = strings.TrimSpace(agentID)
	if title == "" || agentID == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "title and agentId are required", nil)
	}

	now := document.NewTimestamp(s.now())
	t := document.Task{
		ID:        newID(),
		Title:     title,
		Details:   details,
		AgentID:   agentID,
		Status:    document.StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
		Logs:      []document.LogEntry{{At: now, Text: "Task queued for " + agentID}},
	}
	err := s.store.Update(ctx, func(doc *document.Document) error {
		doc.Tasks = append(doc.Tasks, t)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "task created", "task_id", t.ID, "agent_id", agentID)
	s.events.PublishNew(eventbus.TaskCreated, t.ID, t)
	return &t, nil
}

func (s *Service) GetTask(ctx context.Context, id string) (*document.Task, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	t := doc.FindTask(id)
	if t == nil {
		return nil, cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	c := t.Clone()
	return &c, nil
}

// ListTasks returns every task, newest first.
func (s *Service) ListTasks(ctx context.Context) ([]document.Task, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.TasksNewestFirst(), nil
}

// DispatchTask hands a queued task to its agent and waits for the outcome.
// The in_progress state is persisted before the agent is called and the
// terminal state before DispatchTask returns. On failure both the failed
// task and the error are returned; the error carries a DispatchFailure in
// its details.
func (s *Service) DispatchTask(ctx context.Context, id string) (*document.Task, error) {
	// The caller going away does not abandon a running dispatch.
	ctx = context.WithoutCancel(ctx)

	started, err := s.transition(ctx, id, func(t *document.Task, now document.Timestamp) error {
		if t.Status != document.StatusQueued {
			return cerr.NewError(cerr.FailedPrecondition,
				fmt.Sprintf("task is %s, only queued tasks can be dispatched", t.Status), nil)
		}
		t.Status = document.StatusInProgress
		t.UpdatedAt = now
		t.Logs = append(t.Logs, document.LogEntry{At: now, Text: logDispatching})
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "task dispatched", "task_id", id, "agent_id", started.AgentID)

	reply, invokeErr := s.invoker.Invoke(ctx, started.AgentID, dispatch.TaskPrompt(started.Title, started.Details), s.timeout)

	finished, err := s.transition(ctx, id, func(t *document.Task, now document.Timestamp) error {
		t.UpdatedAt = now
		if invokeErr != nil {
			t.Status = document.StatusFailed
			t.Error = invokeErr.Error()
			t.Logs = append(t.Logs, document.LogEntry{At: now, Text: "Task failed: " + t.Error})
			return nil
		}
		r := reply.Clone()
		t.Status = document.StatusDone
		t.Result = &r
		t.Logs = append(t.Logs, document.LogEntry{At: now, Text: logCompleted})
		return nil
	})
	if err != nil {
		return nil, errors.Join(err, invokeErr)
	}

	if invokeErr != nil {
		slog.WarnContext(ctx, "task failed", "task_id", id, "error", invokeErr)
		return finished, dispatchError(invokeErr, finished)
	}
	slog.InfoContext(ctx, "task completed", "task_id", id)
	return finished, nil
}

func (s *Service) transition(ctx context.Context, id string, apply func(t *document.Task, now document.Timestamp) error) (*document.Task, error) {
	var out document.Task
	err := s.store.Update(ctx, func(doc *document.Document) error {
		t := doc.FindTask(id)
		if t == nil {
			return cerr.NewError(cerr.NotFound, "task not found", nil)
		}
		prev := t.Status
		if err := apply(t, document.NewTimestamp(s.now())); err != nil {
			return err
		}
		if prev != t.Status && !prev.CanTransition(t.Status) {
			return cerr.NewError(cerr.Internal, "server error",
				fmt.Errorf("illegal transition %s -> %s for task %s", prev, t.Status, id))
		}
		out = t.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.events.PublishNew(eventbus.TaskStatusChanged, out.ID, out)
	return &out, nil
}

func dispatchError(err error, t *document.Task) error {
	code, msg := cerr.Unavailable, "task dispatch failed"
	var cErr *cerr.Error
	if errors.As(err, &cErr) {
		code, msg = cErr.Code, cErr.Msg
	}
	c := t.Clone()
	return cerr.NewErrorWithDetails(code, msg, err, DispatchFailure{Task: &c})
}
