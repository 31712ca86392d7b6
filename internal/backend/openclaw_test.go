package backend

import (
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/missioncontrol/internal/document"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls  []call
	stdout string
	stderr string
	err    error
	block  bool
}

func (f *fakeRunner) run(ctx context.Context, name string, args ...string) ([]byte, string, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if f.block {
		<-ctx.Done()
		return nil, "", ctx.Err()
	}
	return []byte(f.stdout), f.stderr, f.err
}

func newFakeOpenClaw(f *fakeRunner) *OpenClaw {
	return &OpenClaw{path: "openclaw", run: f.run}
}

func TestOpenClaw_ListAgents(t *testing.T) {
	f := &fakeRunner{stdout: `[{"id": "main", "model": "m1", "agentDir": "/srv/agents/main/agent"}, {"id": "codex", "model": "m2"}]`}
	agents, err := newFakeOpenClaw(f).ListAgents(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []document.Agent{
		{ID: "main", Model: "m1", AgentDir: "/srv/agents/main/agent"},
		{ID: "codex", Model: "m2"},
	}, agents)
	require.Len(t, f.calls, 1)
	assert.Equal(t, []string{"agents", "list", "--json"}, f.calls[0].args)
}

func TestOpenClaw_ListSessions(t *testing.T) {
	f := &fakeRunner{stdout: `{"sessions": [{"key": "a"}, {"key": "b"}]}`}
	sessions, err := newFakeOpenClaw(f).ListSessions(context.Background(), "/srv/agents/main/agent")
	require.NoError(t, err)

	assert.Len(t, sessions, 2)
	assert.JSONEq(t, `{"key": "a"}`, string(sessions[0]))
	assert.Equal(t, []string{"sessions", "--json", "--store", "/srv/agents/main/sessions/sessions.json"}, f.calls[0].args)

	f.stdout = `{"count": 0}`
	sessions, err = newFakeOpenClaw(f).ListSessions(context.Background(), "/a/b")
	require.NoError(t, err)
	assert.NotNil(t, sessions)
	assert.Empty(t, sessions)
}

func TestOpenClaw_RunAgent(t *testing.T) {
	f := &fakeRunner{stdout: `{"reply": "on it"}`}
	reply, err := newFakeOpenClaw(f).RunAgent(context.Background(), "codex", "do the thing", 300*time.Second)
	require.NoError(t, err)

	assert.Equal(t, document.ReplyKindReply, reply.Kind)
	assert.Equal(t, "on it", reply.Text)
	assert.Equal(t, []string{"agent", "--agent", "codex", "--message", "do the thing", "--json", "--timeout", "300"}, f.calls[0].args)
}

func TestOpenClaw_Errors(t *testing.T) {
	tests := []struct {
		name   string
		runner *fakeRunner
		want   error
	}{
		{
			name:   "binary missing",
			runner: &fakeRunner{err: &exec.Error{Name: "openclaw", Err: exec.ErrNotFound}},
			want:   ErrUnavailable,
		},
		{
			name:   "non zero exit",
			runner: &fakeRunner{err: errors.New("exit status 2"), stderr: "agent crashed\n"},
			want:   ErrBackend,
		},
		{
			name:   "not json",
			runner: &fakeRunner{stdout: "Agent says hi"},
			want:   ErrMalformedOutput,
		},
		{
			name:   "empty output",
			runner: &fakeRunner{stdout: "  \n"},
			want:   ErrMalformedOutput,
		},
		{
			name:   "output too large",
			runner: &fakeRunner{err: errOutputTooLarge},
			want:   ErrMalformedOutput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newFakeOpenClaw(tt.runner).RunAgent(context.Background(), "codex", "hi", time.Minute)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOpenClaw_StderrInError(t *testing.T) {
	f := &fakeRunner{err: errors.New("exit status 2"), stderr: "agent crashed\n"}
	_, err := newFakeOpenClaw(f).ListAgents(context.Background())
	require.Error(t, err)
	assert.True(t, strings.HasSuffix(err.Error(), ": agent crashed"), err.Error())
}

func TestOpenClaw_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	f := &fakeRunner{block: true}

	_, err := newFakeOpenClaw(f).RunAgent(ctx, "codex", "hi", time.Second)
	assert.ErrorIs(t, err, ErrTimeout)

	_, err = newFakeOpenClaw(f).ListAgents(ctx)
	assert.ErrorIs(t, err, ErrTimeout, "an expired context is reported without running")
	assert.Len(t, f.calls, 1)
}

func TestLimitedBuffer(t *testing.T) {
	b := &limitedBuffer{max: 4}
	n, err := b.Write([]byte("ab"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = b.Write([]byte("cde"))
	assert.ErrorIs(t, err, errOutputTooLarge)

	d := &limitedBuffer{max: 4, discard: true}
	n, err = d.Write([]byte("abcdef"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, "abcd", d.buf.String())
}

func TestRunCommand(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	stdout, _, err := runCommand(context.Background(), "sh", "-c", `printf '{"reply":"ok"}'`)
	require.NoError(t, err)
	assert.True(t, json.Valid(stdout))

	_, stderr, err := runCommand(context.Background(), "sh", "-c", "echo fail >&2; exit 3")
	require.Error(t, err)
	assert.Equal(t, "fail\n", stderr)

	_, _, err = runCommand(context.Background(), "openclaw-does-not-exist-"+t.Name())
	assert.ErrorIs(t, err, exec.ErrNotFound)
}
