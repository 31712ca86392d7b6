package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	claudeagent "github.com/kazz187/claude-agent-sdk-go"

	"github.com/kazz187/missioncontrol/internal/document"
)

const defaultMaxTurns = 10

var errNoResult = errors.New("no result message")

type queryFunc func(ctx context.Context, prompt string, opts *claudeagent.ClaudeAgentOptions) (text string, isError bool, err error)

var _ Backend = (*Claude)(nil)

// Claude runs roster agents in-process through the Claude agent SDK. It
// keeps no session log, so every agent reports no sessions.
type Claude struct {
	roster  *Roster
	workDir string
	query   queryFunc
}

func NewClaude(roster *Roster, workDir string) *Claude {
	return &Claude{roster: roster, workDir: workDir, query: runQuery}
}

func (c *Claude) ListAgents(_ context.Context) ([]document.Agent, error) {
	return c.roster.DocumentAgents(), nil
}

func (c *Claude) ListSessions(_ context.Context, _ string) ([]document.Session, error) {
	return []document.Session{}, nil
}

func (c *Claude) RunAgent(ctx context.Context, agentID, message string, timeout time.Duration) (document.Reply, error) {
	agent, ok := c.roster.Find(agentID)
	if !ok {
		return document.Reply{}, fmt.Errorf("%w: unknown agent %q", ErrBackend, agentID)
	}
	maxTurns := agent.MaxTurns
	if maxTurns == 0 {
		maxTurns = defaultMaxTurns
	}
	opts := &claudeagent.ClaudeAgentOptions{
		SystemPrompt: systemPrompt(agent),
		Cwd:          c.workDir,
		MaxTurns:     &maxTurns,
	}

	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	text, isError, err := c.query(queryCtx, message, opts)
	if err != nil {
		if kind := classifyContextErr(queryCtx, err); kind != nil {
			return document.Reply{}, fmt.Errorf("%w: claude agent %s", kind, agentID)
		}
		return document.Reply{}, fmt.Errorf("%w: claude agent %s: %w", ErrBackend, agentID, err)
	}
	if isError {
		return document.Reply{}, fmt.Errorf("%w: claude agent %s: %s", ErrBackend, agentID, strings.TrimSpace(text))
	}
	if trimmed := strings.TrimSpace(text); strings.HasPrefix(trimmed, "{") {
		if reply, err := document.ParseReply([]byte(trimmed)); err == nil {
			return reply, nil
		}
	}
	return document.TextReply(text), nil
}

func systemPrompt(agent RosterAgent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the %q agent of a mission control team.", agent.ID)
	if agent.Prompt != "" {
		b.WriteString("\n\n")
		b.WriteString(agent.Prompt)
	}
	return b.String()
}

func runQuery(ctx context.Context, prompt string, opts *claudeagent.ClaudeAgentOptions) (string, bool, error) {
	result, err := claudeagent.RunQuerySync(ctx, prompt, opts)
	if err != nil {
		return "", false, err
	}
	if result.Result == nil {
		return "", false, errNoResult
	}
	return result.Result.Result, result.Result.IsError, nil
}
