package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kazz187/missioncontrol/internal/document"
	"github.com/kazz187/missioncontrol/pkg/shellformat"
)

const (
	// MaxOutputSize caps the stdout accepted from one openclaw call.
	MaxOutputSize = 10 << 20
	maxStderrSize = 64 << 10
)

var errOutputTooLarge = errors.New("output exceeds size limit")

type runFunc func(ctx context.Context, name string, args ...string) (stdout []byte, stderr string, err error)

var _ Backend = (*OpenClaw)(nil)

// OpenClaw drives agents through the openclaw command line tool. Every
// operation is one process invocation with JSON on stdout.
type OpenClaw struct {
	path string
	run  runFunc
}

func NewOpenClaw(path string) *OpenClaw {
	if path == "" {
		path = "openclaw"
	}
	return &OpenClaw{path: path, run: runCommand}
}

func (o *OpenClaw) ListAgents(ctx context.Context) ([]document.Agent, error) {
	out, err := o.runJSON(ctx, "agents", "list", "--json")
	if err != nil {
		return nil, err
	}
	var agents []document.Agent
	if err := json.Unmarshal(out, &agents); err != nil {
		return nil, fmt.Errorf("%w: agents list: %w", ErrMalformedOutput, err)
	}
	return agents, nil
}

// SessionStore locates the session log of the agent living in agentDir.
func SessionStore(agentDir string) string {
	return filepath.Join(filepath.Dir(agentDir), "sessions", "sessions.json")
}

func (o *OpenClaw) ListSessions(ctx context.Context, agentDir string) ([]document.Session, error) {
	out, err := o.runJSON(ctx, "sessions", "--json", "--store", SessionStore(agentDir))
	if err != nil {
		return nil, err
	}
	var resp struct {
		Sessions []document.Session `json:"sessions"`
	}
	if err := json.Unmarshal(out, &resp); err != nil {
		return nil, fmt.Errorf("%w: sessions: %w", ErrMalformedOutput, err)
	}
	if resp.Sessions == nil {
		return []document.Session{}, nil
	}
	return resp.Sessions, nil
}

func (o *OpenClaw) RunAgent(ctx context.Context, agentID, message string, timeout time.Duration) (document.Reply, error) {
	secs := int(math.Ceil(timeout.Seconds()))
	if secs < 1 {
		secs = 1
	}
	out, err := o.runJSON(ctx, "agent", "--agent", agentID, "--message", message, "--json", "--timeout", strconv.Itoa(secs))
	if err != nil {
		return document.Reply{}, err
	}
	reply, err := document.ParseReply(out)
	if err != nil {
		return document.Reply{}, fmt.Errorf("%w: %w", ErrMalformedOutput, err)
	}
	return reply, nil
}

func (o *OpenClaw) runJSON(ctx context.Context, args ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		if kind := classifyContextErr(ctx, err); kind != nil {
			return nil, kind
		}
		return nil, err
	}
	slog.DebugContext(ctx, "running openclaw",
		"command", shellformat.Command(o.path, args, shellformat.WithMaxArgLen(120)))

	stdout, stderr, err := o.run(ctx, o.path, args...)
	if err != nil {
		return nil, o.formatError(ctx, args[0], err, stderr)
	}
	if len(bytes.TrimSpace(stdout)) == 0 {
		return nil, fmt.Errorf("%w: %s: empty output", ErrMalformedOutput, args[0])
	}
	return stdout, nil
}

func (o *OpenClaw) formatError(ctx context.Context, op string, err error, stderr string) error {
	if kind := classifyContextErr(ctx, err); kind != nil {
		return fmt.Errorf("%w: openclaw %s", kind, op)
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, ErrUnavailable) {
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, o.path, err)
	}
	if errors.Is(err, errOutputTooLarge) {
		return fmt.Errorf("%w: openclaw %s: %w", ErrMalformedOutput, op, err)
	}
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return fmt.Errorf("%w: openclaw %s: %w", ErrBackend, op, err)
	}
	return fmt.Errorf("%w: openclaw %s: %w: %s", ErrBackend, op, err, stderr)
}

// limitedBuffer fails the write that would grow it past max, or with
// discard set, silently drops everything past max.
type limitedBuffer struct {
	buf     bytes.Buffer
	max     int
	discard bool
	err     error
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if b.buf.Len()+len(p) <= b.max {
		return b.buf.Write(p)
	}
	if b.discard {
		b.buf.Write(p[:b.max-b.buf.Len()])
		return len(p), nil
	}
	b.err = errOutputTooLarge
	return 0, b.err
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, "", err
	}
	cmd := exec.CommandContext(ctx, path, args...)
	stdout := &limitedBuffer{max: MaxOutputSize}
	stderr := &limitedBuffer{max: maxStderrSize, discard: true}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = time.Second

	err = cmd.Run()
	if stdout.err != nil {
		return nil, stderr.buf.String(), stdout.err
	}
	if err != nil {
		return nil, stderr.buf.String(), err
	}
	return stdout.buf.Bytes(), stderr.buf.String(), nil
}
