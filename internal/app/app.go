// Package app assembles the orchestration services from the environment.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/kazz187/missioncontrol/internal/agent"
	"github.com/kazz187/missioncontrol/internal/backend"
	"github.com/kazz187/missioncontrol/internal/config"
	"github.com/kazz187/missioncontrol/internal/dispatch"
	"github.com/kazz187/missioncontrol/internal/eventbus"
	"github.com/kazz187/missioncontrol/internal/overview"
	"github.com/kazz187/missioncontrol/internal/store"
	"github.com/kazz187/missioncontrol/internal/task"
	"github.com/kazz187/missioncontrol/internal/warroom"
	"github.com/kazz187/missioncontrol/pkg/clog"
	"github.com/kazz187/missioncontrol/pkg/storage"
)

type App struct {
	Env       *config.Env
	Bus       *eventbus.Bus
	Store     store.Store
	Directory *agent.Directory
	Tasks     *task.Service
	WarRoom   *warroom.Router
	Overview  *overview.Service

	// watcher is nil unless the document lives on the local filesystem.
	watcher *store.Watcher
}

// SetupLogger installs the default logger for env.
func SetupLogger(env *config.Env) {
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewHTTPTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))
}

func New(ctx context.Context, env *config.Env) (*App, error) {
	a := &App{Env: env, Bus: eventbus.New()}

	switch env.StorageEnv.Type {
	case "memory":
		a.Store = store.NewMemoryStore()
	case "s3":
		s3, err := storage.NewS3Storage(ctx, env.S3Bucket, env.S3Prefix, env.S3Region)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 storage: %w", err)
		}
		a.Store = store.NewFileStore(s3, env.Document)
	default:
		local, err := storage.NewLocalStorage(env.BaseDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create local storage: %w", err)
		}
		fs := store.NewFileStore(local, env.Document)
		a.Store = fs
		if env.Watch {
			a.watcher = store.NewWatcher(local.Locate(env.Document), fs.WrittenByUs, func(ctx context.Context) {
				slog.InfoContext(ctx, "document changed on disk", "key", env.Document)
				a.Bus.PublishNew(eventbus.DocumentChanged, env.Document, nil)
			})
		}
	}

	roster, err := backend.LoadRoster(env.RosterFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	var b backend.Backend
	switch env.BackendEnv.Type {
	case "claude":
		b = backend.NewClaude(roster, env.WorkDir)
	default:
		b = backend.NewOpenClaw(env.OpenClawPath)
	}

	executor := dispatch.NewExecutor(b)
	a.Directory = agent.NewDirectory(b, roster, agent.WithLookupTimeout(env.LookupTimeout))
	a.Tasks = task.NewService(a.Store, executor,
		task.WithTimeout(env.TaskTimeout),
		task.WithEventPublisher(a.Bus),
	)
	a.WarRoom = warroom.NewRouter(a.Store, a.Directory, executor,
		warroom.WithReplyTimeout(env.ReplyTimeout),
		warroom.WithEventPublisher(a.Bus),
	)
	a.Overview = overview.NewService(a.Store, a.Directory)

	slog.DebugContext(ctx, "app assembled",
		"storage", env.StorageEnv.Type,
		"backend", env.BackendEnv.Type,
		"agents", roster.IDs(),
	)
	return a, nil
}

// RunWatcher blocks until ctx is done. It returns immediately when there is
// nothing to watch.
func (a *App) RunWatcher(ctx context.Context) error {
	if a.watcher == nil {
		return nil
	}
	return a.watcher.Run(ctx)
}
