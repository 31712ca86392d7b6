package backend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRoster(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRoster(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.yaml")} {
			r, err := LoadRoster(path)
			require.NoError(t, err)
			assert.Equal(t, DefaultRoster(), r)
		}
	})

	t.Run("custom", func(t *testing.T) {
		r, err := LoadRoster(writeRoster(t, `
agents:
  - id: Ops
    model: local/llama
    prompt: Keep the lights on.
    max_turns: 4
  - id: qa
    model: local/qwen
default_responders: [QA]
`))
		require.NoError(t, err)
		assert.Equal(t, []string{"ops", "qa"}, r.IDs())
		assert.Equal(t, []string{"qa"}, r.DefaultResponders)
		ops, ok := r.Find("ops")
		require.True(t, ok)
		assert.Equal(t, 4, ops.MaxTurns)
		assert.Equal(t, "Keep the lights on.", ops.Prompt)
	})

	t.Run("responders only", func(t *testing.T) {
		r, err := LoadRoster(writeRoster(t, "default_responders: [main]\n"))
		require.NoError(t, err)
		assert.Equal(t, DefaultRoster().Agents, r.Agents)
		assert.Equal(t, []string{"main"}, r.DefaultResponders)
	})

	tests := []struct {
		name    string
		content string
	}{
		{"not yaml", "agents: [\n"},
		{"missing id", "agents:\n  - model: x\n"},
		{"duplicate id", "agents:\n  - id: a\n  - id: A\n"},
		{"negative turns", "agents:\n  - id: a\n    max_turns: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRoster(writeRoster(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestRoster_DocumentAgents(t *testing.T) {
	agents := DefaultRoster().DocumentAgents()
	require.Len(t, agents, 3)
	assert.Equal(t, "research", agents[2].ID)
	assert.Equal(t, "google-antigravity/claude-opus-4-5-thinking", agents[2].Model)
	assert.Empty(t, agents[2].AgentDir)
}
