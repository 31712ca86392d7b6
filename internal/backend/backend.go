// Package backend talks to the external agent runtime.
package backend

import (
	"context"
	"errors"
	"time"

	"github.com/kazz187/missioncontrol/internal/document"
)

var (
	// ErrUnavailable means the runtime could not be reached at all.
	ErrUnavailable = errors.New("agent backend unavailable")
	// ErrTimeout means an invocation exceeded its time bound.
	ErrTimeout = errors.New("agent invocation timed out")
	// ErrBackend means the runtime reported a failure.
	ErrBackend = errors.New("agent backend error")
	// ErrMalformedOutput means the runtime answered with something that is
	// not the expected structure.
	ErrMalformedOutput = errors.New("malformed agent output")
)

// Backend is the single external capability the engine depends on.
// Implementations must honor ctx cancellation and report an exceeded
// deadline as ErrTimeout.
type Backend interface {
	ListAgents(ctx context.Context) ([]document.Agent, error)
	ListSessions(ctx context.Context, agentDir string) ([]document.Session, error)
	RunAgent(ctx context.Context, agentID, message string, timeout time.Duration) (document.Reply, error)
}

func classifyContextErr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return nil
}
