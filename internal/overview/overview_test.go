package overview

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/missioncontrol/internal/agent"
	"github.com/kazz187/missioncontrol/internal/document"
	"github.com/kazz187/missioncontrol/internal/store"
)

type downBackend struct{}

func (downBackend) ListAgents(context.Context) ([]document.Agent, error) {
	return nil, errors.New("exec: \"openclaw\": executable file not found in $PATH")
}

func (downBackend) ListSessions(context.Context, string) ([]document.Session, error) {
	return nil, errors.New("down")
}

func (downBackend) RunAgent(context.Context, string, string, time.Duration) (document.Reply, error) {
	return document.Reply{}, errors.New("down")
}

func TestGetOverview_BackendDown(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, st.Update(ctx, func(doc *document.Document) error {
		for i := range 3 {
			doc.Tasks = append(doc.Tasks, document.Task{
				ID:        fmt.Sprintf("task_%d", i),
				Status:    document.StatusQueued,
				CreatedAt: document.NewTimestamp(base.Add(time.Duration(i) * time.Minute)),
			})
		}
		for i := range 130 {
			doc.WarRoom.Messages = append(doc.WarRoom.Messages, document.Message{ID: fmt.Sprintf("msg_%03d", i)})
		}
		return nil
	}))

	svc := NewService(st, agent.NewDirectory(downBackend{}, nil))
	ov, err := svc.GetOverview(ctx)
	require.NoError(t, err)

	var agentIDs []string
	for _, a := range ov.Agents {
		agentIDs = append(agentIDs, a.ID)
	}
	assert.Equal(t, []string{"main", "codex", "research"}, agentIDs)
	assert.Len(t, ov.SessionsByAgent, 3)
	require.Len(t, ov.Tasks, 3)
	assert.Equal(t, "task_2", ov.Tasks[0].ID)
	require.Len(t, ov.WarRoom.Messages, 120)
	assert.Equal(t, "msg_010", ov.WarRoom.Messages[0].ID)
}
