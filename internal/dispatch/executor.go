// Package dispatch invokes a single agent with a bounded wait.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kazz187/missioncontrol/internal/backend"
	"github.com/kazz187/missioncontrol/internal/document"
	"github.com/kazz187/missioncontrol/pkg/cerr"
	"github.com/kazz187/missioncontrol/pkg/panicerr"
)

// Invoker sends one message to one agent and waits at most timeout for the
// structured reply.
type Invoker interface {
	Invoke(ctx context.Context, agentID, message string, timeout time.Duration) (document.Reply, error)
}

var _ Invoker = (*Executor)(nil)

// Executor holds no state besides its backend. Failures are returned as
// cerr errors whose chain still matches backend.ErrTimeout,
// backend.ErrBackend or backend.ErrMalformedOutput.
type Executor struct {
	backend backend.Backend
}

func NewExecutor(b backend.Backend) *Executor {
	return &Executor{backend: b}
}

func (e *Executor) Invoke(ctx context.Context, agentID, message string, timeout time.Duration) (document.Reply, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	reply, err := panicerr.Call(func() (document.Reply, error) {
		return e.backend.RunAgent(callCtx, agentID, message, timeout)
	})
	if err != nil {
		err = classify(callCtx, agentID, timeout, err)
		slog.WarnContext(ctx, "agent invocation failed",
			"agent_id", agentID, "duration", time.Since(start), "error", err)
		return document.Reply{}, err
	}
	slog.DebugContext(ctx, "agent invocation completed",
		"agent_id", agentID, "duration", time.Since(start), "reply_kind", reply.Kind)
	return reply, nil
}

func classify(ctx context.Context, agentID string, timeout time.Duration, err error) error {
	switch {
	case errors.Is(err, backend.ErrTimeout):
		return cerr.NewError(cerr.DeadlineExceeded, fmt.Sprintf("agent %s timed out after %s", agentID, timeout), err)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return cerr.NewError(cerr.DeadlineExceeded, fmt.Sprintf("agent %s timed out after %s", agentID, timeout),
			fmt.Errorf("%w: %w", backend.ErrTimeout, err))
	case errors.Is(err, backend.ErrMalformedOutput):
		return cerr.NewError(cerr.Internal, fmt.Sprintf("agent %s returned malformed output", agentID), err)
	case errors.Is(err, backend.ErrBackend), errors.Is(err, backend.ErrUnavailable):
		return cerr.NewError(cerr.Unavailable, fmt.Sprintf("agent %s failed", agentID), err)
	default:
		return cerr.NewError(cerr.Unavailable, fmt.Sprintf("agent %s failed", agentID),
			fmt.Errorf("%w: %w", backend.ErrBackend, err))
	}
}
