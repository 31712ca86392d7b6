// Package agent lists the agents known to the backend and their sessions.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/kazz187/missioncontrol/internal/backend"
	"github.com/kazz187/missioncontrol/internal/document"
	"github.com/kazz187/missioncontrol/pkg/cerr"
	"github.com/kazz187/missioncontrol/pkg/panicerr"
)

const DefaultLookupTimeout = 30 * time.Second

type Directory struct {
	backend       backend.Backend
	roster        *backend.Roster
	lookupTimeout time.Duration
}

type Option func(*Directory)

// WithLookupTimeout bounds every single backend lookup.
func WithLookupTimeout(d time.Duration) Option {
	return func(dir *Directory) { dir.lookupTimeout = d }
}

func NewDirectory(b backend.Backend, roster *backend.Roster, opts ...Option) *Directory {
	if roster == nil {
		roster = backend.DefaultRoster()
	}
	d := &Directory{backend: b, roster: roster, lookupTimeout: DefaultLookupTimeout}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ListAgents fails with cerr.Unavailable when the backend cannot be reached
// or answers with something unparsable.
func (d *Directory) ListAgents(ctx context.Context) ([]document.Agent, error) {
	ctx, cancel := context.WithTimeout(ctx, d.lookupTimeout)
	defer cancel()

	agents, err := panicerr.Call(func() ([]document.Agent, error) {
		return d.backend.ListAgents(ctx)
	})
	if err != nil {
		return nil, cerr.NewError(cerr.Unavailable, "agent backend unavailable", fmt.Errorf("failed to list agents: %w", err))
	}
	if agents == nil {
		agents = []document.Agent{}
	}
	return agents, nil
}

// SessionsByAgent looks up the sessions of every agent concurrently. A
// failed lookup leaves that agent with no sessions and never affects the
// others.
func (d *Directory) SessionsByAgent(ctx context.Context, agents []document.Agent) map[string][]document.Session {
	var (
		mu  sync.Mutex
		out = make(map[string][]document.Session, len(agents))
	)
	wg := conc.NewWaitGroup()
	for _, a := range agents {
		wg.Go(func() {
			sessions := d.lookupSessions(ctx, a)
			mu.Lock()
			defer mu.Unlock()
			out[a.ID] = sessions
		})
	}
	wg.Wait()
	return out
}

func (d *Directory) lookupSessions(ctx context.Context, a document.Agent) []document.Session {
	ctx, cancel := context.WithTimeout(ctx, d.lookupTimeout)
	defer cancel()

	sessions, err := panicerr.Call(func() ([]document.Session, error) {
		return d.backend.ListSessions(ctx, a.AgentDir)
	})
	if err != nil {
		slog.DebugContext(ctx, "session lookup failed", "agent_id", a.ID, "error", err)
		return []document.Session{}
	}
	if sessions == nil {
		return []document.Session{}
	}
	return sessions
}

// Snapshot is the agent part of the overview.
type Snapshot struct {
	Agents          []document.Agent              `json:"agents"`
	SessionsByAgent map[string][]document.Session `json:"sessionsByAgent"`
	// Fallback is set when the roster stands in for an unreachable backend.
	Fallback bool `json:"-"`
}

// FallbackRoster returns the fixed placeholder agents, each with no sessions.
func (d *Directory) FallbackRoster() Snapshot {
	agents := d.roster.DocumentAgents()
	sessions := make(map[string][]document.Session, len(agents))
	for _, a := range agents {
		sessions[a.ID] = []document.Session{}
	}
	return Snapshot{Agents: agents, SessionsByAgent: sessions, Fallback: true}
}

// Snapshot never fails; the fallback roster replaces an unreachable backend.
func (d *Directory) Snapshot(ctx context.Context) Snapshot {
	agents, err := d.ListAgents(ctx)
	if err != nil {
		slog.WarnContext(ctx, "using fallback roster", "error", err)
		return d.FallbackRoster()
	}
	return Snapshot{Agents: agents, SessionsByAgent: d.SessionsByAgent(ctx, agents)}
}

// ValidIDs returns the ids of the listed agents, or of the fallback roster
// when the backend is unavailable.
func (d *Directory) ValidIDs(ctx context.Context) []string {
	agents, err := d.ListAgents(ctx)
	if err != nil {
		slog.WarnContext(ctx, "using fallback roster ids", "error", err)
		return d.roster.IDs()
	}
	ids := make([]string, 0, len(agents))
	for _, a := range agents {
		ids = append(ids, a.ID)
	}
	return ids
}

// DefaultResponders are addressed by a war-room message that mentions no
// known agent.
func (d *Directory) DefaultResponders() []string {
	return append([]string(nil), d.roster.DefaultResponders...)
}
