// Package server exposes the orchestration operations over HTTP.
package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"connectrpc.com/grpchealth"
	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kazz187/missioncontrol/internal/config"
	"github.com/kazz187/missioncontrol/internal/document"
	"github.com/kazz187/missioncontrol/internal/eventbus"
	"github.com/kazz187/missioncontrol/internal/overview"
	"github.com/kazz187/missioncontrol/internal/warroom"
	"github.com/kazz187/missioncontrol/pkg/cerr"
	"github.com/kazz187/missioncontrol/pkg/clog"
)

type TaskService interface {
	CreateTask(ctx context.Context, title, details, agentID string) (*document.Task, error)
	GetTask(ctx context.Context, id string) (*document.Task, error)
	ListTasks(ctx context.Context) ([]document.Task, error)
	DispatchTask(ctx context.Context, id string) (*document.Task, error)
}

type WarRoom interface {
	PostMessage(ctx context.Context, author, text string) (*warroom.PostResult, error)
	RecentMessages(ctx context.Context) ([]document.Message, error)
}

type OverviewService interface {
	GetOverview(ctx context.Context) (*overview.Overview, error)
}

type EventSource interface {
	Subscribe(bufSize int) (string, <-chan *eventbus.Event)
	Unsubscribe(id string)
}

type Server struct {
	server   *http.Server
	env      *config.Env
	tasks    TaskService
	warRoom  WarRoom
	overview OverviewService
	events   EventSource
}

func NewServer(
	env *config.Env,
	tasks TaskService,
	warRoom WarRoom,
	overview OverviewService,
	events EventSource,
) *Server {
	return &Server{
		env:      env,
		tasks:    tasks,
		warRoom:  warRoom,
		overview: overview,
		events:   events,
	}
}

// Handler builds the complete request pipeline.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(
			clog.SlogChiMiddleware(clog.WithChiFilter(func(r *http.Request) bool {
				return r.URL.Path != "/api/events"
			})),
			cerr.NewJSONChiMiddleware(),
		)
		r.Get("/overview", s.getOverview)
		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.listTasks)
			r.Post("/", s.createTask)
			r.Get("/{id}", s.getTask)
			r.Post("/{id}/dispatch", s.dispatchTask)
		})
		r.Route("/war-room", func(r chi.Router) {
			r.Get("/", s.getWarRoom)
			r.Post("/message", s.postMessage)
		})
		r.Get("/events", s.streamEvents)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.InvalidArgument, "method not allowed", nil)
		})
	})

	mux := http.NewServeMux()
	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/api/", r)
	mux.Handle(grpchealth.NewHandler(grpchealth.NewStaticChecker()))

	return h2c.NewHandler(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(mux), &http2.Server{})
}

// ListenAndServe starts the HTTP server. ctx becomes the base context of
// every request, so cancelling it also ends open event streams.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
