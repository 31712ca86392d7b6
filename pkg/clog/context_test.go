package clog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributes(t *testing.T) {
	ctx := ContextWithSlog(context.Background())
	AddAttribute(ctx, "task_id", "task_1")
	AddAttributes(ctx, map[string]any{
		"agent": map[string]any{"id": "codex"},
	})
	AddAttributes(ctx, map[string]any{
		"agent": map[string]any{"model": "gpt"},
	})
	AddError(ctx, errors.New("boom"))

	attrs := GetAttributes(ctx)
	assert.Equal(t, "task_1", attrs["task_id"])
	assert.Equal(t, map[string]any{"id": "codex", "model": "gpt"}, attrs["agent"])
	assert.EqualError(t, GetError(ctx), "boom")
	assert.Equal(t, "task_1", GetAttribute[string](ctx, "task_id"))
	assert.Equal(t, 0, GetAttribute[int](ctx, "task_id"))
}

func TestAttributes_NoBag(t *testing.T) {
	ctx := context.Background()
	AddAttribute(ctx, "k", "v")
	assert.Nil(t, GetAttributes(ctx))
	assert.Empty(t, GetStack(ctx))
}

func TestHTTPStatusToLevel(t *testing.T) {
	tests := []struct {
		status int
		want   Level
	}{
		{200, LevelInfo},
		{302, LevelInfo},
		{499, LevelInfo},
		{400, LevelWarn},
		{404, LevelWarn},
		{500, LevelError},
		{504, LevelError},
		{0, LevelError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatusToLevel(tt.status), "status %d", tt.status)
	}
}

func TestSlogChiMiddleware(t *testing.T) {
	buf := &bytes.Buffer{}
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	slog.SetDefault(slog.New(NewAttributesHandler(NewHTTPTextHandler(buf, WithColor(false)))))

	r := chi.NewRouter()
	r.Use(SlogChiMiddleware())
	r.Get("/api/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		AddAttribute(r.Context(), "task_id", chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks/task_x", nil))

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, "WARN GET /api/tasks/task_x 404 Not Found")
	assert.Contains(t, out, "task_id=task_x")
	assert.Contains(t, out, "route=/api/tasks/{id}")
}
