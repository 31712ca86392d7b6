package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kazz187/missioncontrol/internal/document"
	"github.com/kazz187/missioncontrol/pkg/cerr"
	"github.com/kazz187/missioncontrol/pkg/clog"
)

const maxRequestBody = 1 << 20

type createTaskRequest struct {
	Title   string `json:"title"`
	AgentID string `json:"agentId"`
	Details string `json:"details"`
}

type postMessageRequest struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

type postMessageResponse struct {
	OK      bool               `json:"ok"`
	Message document.Message   `json:"message"`
	Thread  []document.Message `json:"thread"`
}

type listTasksResponse struct {
	Tasks []document.Task `json:"tasks"`
}

type warRoomResponse struct {
	Messages []document.Message `json:"messages"`
}

// decodeBody reads a JSON request body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return cerr.NewError(cerr.InvalidArgument, "invalid request body", err)
	}
	return nil
}

func (s *Server) getOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ov, err := s.overview.GetOverview(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, ov)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tasks, err := s.tasks.ListTasks(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, listTasksResponse{Tasks: tasks})
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createTaskRequest
	if err := decodeBody(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	t, err := s.tasks.CreateTask(ctx, req.Title, req.Details, req.AgentID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	clog.AddAttribute(ctx, "task_id", t.ID)
	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, t)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	clog.AddAttribute(ctx, "task_id", id)
	t, err := s.tasks.GetTask(ctx, id)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, t)
}

// dispatchTask blocks until the agent finishes. A failed dispatch is
// reported as an error whose details carry the failed task.
func (s *Server) dispatchTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	clog.AddAttribute(ctx, "task_id", id)
	t, err := s.tasks.DispatchTask(ctx, id)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, t)
}

func (s *Server) getWarRoom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	msgs, err := s.warRoom.RecentMessages(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, warRoomResponse{Messages: msgs})
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req postMessageRequest
	if err := decodeBody(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	res, err := s.warRoom.PostMessage(ctx, req.Author, req.Text)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	clog.AddAttribute(ctx, "message_id", res.UserMessage.ID)
	cerr.SetJSONResponse(ctx, postMessageResponse{
		OK:      true,
		Message: res.UserMessage,
		Thread:  res.Thread,
	})
}
