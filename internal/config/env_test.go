package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_Defaults(t *testing.T) {
	env, err := LoadEnv()
	require.NoError(t, err)

	assert.Equal(t, "local", env.Env)
	assert.Equal(t, "4311", env.HTTPPort)
	assert.Equal(t, "local", env.StorageEnv.Type)
	assert.Equal(t, "data", env.BaseDir)
	assert.Equal(t, "tasks.json", env.Document)
	assert.True(t, env.Watch)
	assert.Equal(t, "openclaw", env.BackendEnv.Type)
	assert.Equal(t, 5*time.Minute, env.TaskTimeout)
	assert.Equal(t, 2*time.Minute, env.ReplyTimeout)
	assert.Equal(t, 30*time.Second, env.LookupTimeout)
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("MISSIONCONTROL_HTTP_PORT", "8080")
	t.Setenv("MISSIONCONTROL_STORAGE_TYPE", "s3")
	t.Setenv("MISSIONCONTROL_S3_BUCKET", "ops")
	t.Setenv("MISSIONCONTROL_BACKEND", "claude")
	t.Setenv("MISSIONCONTROL_TASK_TIMEOUT", "90s")
	t.Setenv("MISSIONCONTROL_WATCH_DOCUMENT", "false")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "8080", env.HTTPPort)
	assert.Equal(t, "s3", env.StorageEnv.Type)
	assert.Equal(t, "ops", env.S3Bucket)
	assert.Equal(t, "claude", env.BackendEnv.Type)
	assert.Equal(t, 90*time.Second, env.TaskTimeout)
	assert.False(t, env.Watch)
}

func TestLoadEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown storage", "MISSIONCONTROL_STORAGE_TYPE", "floppy"},
		{"s3 without bucket", "MISSIONCONTROL_STORAGE_TYPE", "s3"},
		{"unknown backend", "MISSIONCONTROL_BACKEND", "telnet"},
		{"zero timeout", "MISSIONCONTROL_REPLY_TIMEOUT", "0s"},
		{"unparsable timeout", "MISSIONCONTROL_TASK_TIMEOUT", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := LoadEnv()
			assert.Error(t, err)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, (&BaseEnv{LogLevel: "debug"}).SlogLevel())
	assert.Equal(t, slog.LevelWarn, (&BaseEnv{LogLevel: "WARN"}).SlogLevel())
	assert.Equal(t, slog.LevelInfo, (&BaseEnv{LogLevel: "loud"}).SlogLevel())
	var nilEnv *BaseEnv
	assert.Equal(t, slog.LevelInfo, nilEnv.SlogLevel())
}
