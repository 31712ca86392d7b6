// Package overview composes the dashboard view of agents, tasks and the war
// room.
package overview

import (
	"context"

	"github.com/kazz187/missioncontrol/internal/agent"
	"github.com/kazz187/missioncontrol/internal/document"
	"github.com/kazz187/missioncontrol/internal/store"
	"github.com/kazz187/missioncontrol/internal/warroom"
)

type AgentSnapshotter interface {
	Snapshot(ctx context.Context) agent.Snapshot
}

type WarRoom struct {
	Messages []document.Message `json:"messages"`
}

type Overview struct {
	Agents          []document.Agent              `json:"agents"`
	SessionsByAgent map[string][]document.Session `json:"sessionsByAgent"`
	Tasks           []document.Task               `json:"tasks"`
	WarRoom         WarRoom                       `json:"warRoom"`
}

type Service struct {
	store  store.Store
	agents AgentSnapshotter
}

func NewService(st store.Store, agents AgentSnapshotter) *Service {
	return &Service{store: st, agents: agents}
}

// GetOverview returns persisted tasks and messages even when the agent
// backend is down; the fallback roster then stands in for the agents.
func (s *Service) GetOverview(ctx context.Context) (*Overview, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	snap := s.agents.Snapshot(ctx)
	return &Overview{
		Agents:          snap.Agents,
		SessionsByAgent: snap.SessionsByAgent,
		Tasks:           doc.TasksNewestFirst(),
		WarRoom:         WarRoom{Messages: doc.RecentMessages(warroom.HistoryWindow)},
	}, nil
}
