package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/missioncontrol/internal/config"
	"github.com/kazz187/missioncontrol/internal/eventbus"
	"github.com/kazz187/missioncontrol/internal/store"
)

func testEnv(t *testing.T) *config.Env {
	t.Helper()
	return &config.Env{
		BaseEnv: config.BaseEnv{Env: "test", LogLevel: "error"},
		StorageEnv: config.StorageEnv{
			Type:     "local",
			BaseDir:  t.TempDir(),
			Document: "tasks.json",
		},
		BackendEnv: config.BackendEnv{
			Type:          "openclaw",
			OpenClawPath:  "openclaw-does-not-exist",
			TaskTimeout:   time.Second,
			ReplyTimeout:  time.Second,
			LookupTimeout: time.Second,
		},
	}
}

func TestNew_LocalStorage(t *testing.T) {
	env := testEnv(t)
	a, err := New(context.Background(), env)
	require.NoError(t, err)
	assert.IsType(t, &store.FileStore{}, a.Store)
	assert.Nil(t, a.watcher)

	created, err := a.Tasks.CreateTask(context.Background(), "Check", "", "main")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(env.BaseDir, "tasks.json"))
	require.NoError(t, err)

	ov, err := a.Overview.GetOverview(context.Background())
	require.NoError(t, err)
	require.Len(t, ov.Tasks, 1)
	assert.Equal(t, created.ID, ov.Tasks[0].ID)
	// The missing binary makes the directory fall back to the roster.
	assert.NotEmpty(t, ov.Agents)
}

func TestNew_Memory(t *testing.T) {
	env := testEnv(t)
	env.StorageEnv.Type = "memory"
	a, err := New(context.Background(), env)
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, a.Store)
	assert.NoError(t, a.RunWatcher(context.Background()))
}

func TestNew_BadRoster(t *testing.T) {
	env := testEnv(t)
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte("agents: [{id: a}, {id: a}]\n"), 0o644))
	env.RosterFile = path
	_, err := New(context.Background(), env)
	assert.Error(t, err)
}

func TestWatcherPublishesExternalEdits(t *testing.T) {
	env := testEnv(t)
	env.Watch = true
	a, err := New(context.Background(), env)
	require.NoError(t, err)
	require.NotNil(t, a.watcher)

	_, ch := a.Bus.Subscribe(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = a.RunWatcher(ctx) }()

	// Writes made through the store are not reported.
	_, err = a.Tasks.CreateTask(ctx, "Ours", "", "main")
	require.NoError(t, err)

	// Give the watcher time to register before editing by hand.
	time.Sleep(100 * time.Millisecond)
	_, err = a.Tasks.CreateTask(ctx, "Ours again", "", "main")
	require.NoError(t, err)
	path := filepath.Join(env.BaseDir, "tasks.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tasks":[],"warRoom":{"messages":[]}}`), 0o644))

	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Type == eventbus.DocumentChanged {
				assert.Equal(t, "tasks.json", ev.ResourceID)
				return
			}
		case <-deadline:
			t.Fatal("document change was not published")
		}
	}
}
