package backend

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/missioncontrol/internal/document"
)

type RosterAgent struct {
	ID       string `yaml:"id"`
	Model    string `yaml:"model"`
	Prompt   string `yaml:"prompt,omitempty"`
	MaxTurns int    `yaml:"max_turns,omitempty"`
}

// Roster is the static list of agents used when the backend cannot list
// them, and the default responders of the war room.
type Roster struct {
	Agents            []RosterAgent `yaml:"agents"`
	DefaultResponders []string      `yaml:"default_responders"`
}

func DefaultRoster() *Roster {
	return &Roster{
		Agents: []RosterAgent{
			{ID: "main", Model: "openai-codex/gpt-5.3-codex"},
			{ID: "codex", Model: "openai-codex/gpt-5.3-codex"},
			{ID: "research", Model: "google-antigravity/claude-opus-4-5-thinking"},
		},
		DefaultResponders: []string{"research", "codex"},
	}
}

// LoadRoster reads a roster file. An empty path or a missing file yields
// DefaultRoster; omitted sections are taken from it as well.
func LoadRoster(path string) (*Roster, error) {
	def := DefaultRoster()
	if path == "" {
		return def, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return def, nil
		}
		return nil, fmt.Errorf("failed to read roster %s: %w", path, err)
	}
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse roster %s: %w", path, err)
	}
	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("invalid roster %s: %w", path, err)
	}
	if len(r.Agents) == 0 {
		r.Agents = def.Agents
	}
	if len(r.DefaultResponders) == 0 {
		r.DefaultResponders = def.DefaultResponders
	}
	return &r, nil
}

func (r *Roster) validate() error {
	seen := map[string]bool{}
	for i := range r.Agents {
		a := &r.Agents[i]
		a.ID = strings.ToLower(strings.TrimSpace(a.ID))
		if a.ID == "" {
			return fmt.Errorf("agent #%d has no id", i+1)
		}
		if seen[a.ID] {
			return fmt.Errorf("duplicate agent %q", a.ID)
		}
		seen[a.ID] = true
		if a.MaxTurns < 0 {
			return fmt.Errorf("agent %q: max_turns must not be negative", a.ID)
		}
	}
	for i, id := range r.DefaultResponders {
		r.DefaultResponders[i] = strings.ToLower(strings.TrimSpace(id))
	}
	return nil
}

func (r *Roster) Find(id string) (RosterAgent, bool) {
	for _, a := range r.Agents {
		if a.ID == id {
			return a, true
		}
	}
	return RosterAgent{}, false
}

// DocumentAgents converts the roster into agent records.
func (r *Roster) DocumentAgents() []document.Agent {
	agents := make([]document.Agent, 0, len(r.Agents))
	for _, a := range r.Agents {
		agents = append(agents, document.Agent{ID: a.ID, Model: a.Model})
	}
	return agents
}

func (r *Roster) IDs() []string {
	ids := make([]string, 0, len(r.Agents))
	for _, a := range r.Agents {
		ids = append(ids, a.ID)
	}
	return ids
}
