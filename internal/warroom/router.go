// Package warroom runs the shared war-room thread: it stores posted messages
// and fans them out to the agents they address.
package warroom

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sourcegraph/conc"

	"github.com/kazz187/missioncontrol/internal/dispatch"
	"github.com/kazz187/missioncontrol/internal/document"
	"github.com/kazz187/missioncontrol/internal/eventbus"
	"github.com/kazz187/missioncontrol/internal/store"
	"github.com/kazz187/missioncontrol/pkg/cerr"
	"github.com/kazz187/missioncontrol/pkg/panicerr"
)

const (
	DefaultAuthor = "orchestrator"
	SystemAuthor  = "system"

	// MaxTargets caps the agents addressed by one message.
	MaxTargets = 3
	// HistoryWindow is the number of messages returned by reads.
	HistoryWindow = 120

	DefaultReplyTimeout = 120 * time.Second
)

// Directory resolves which agents a message may address.
type Directory interface {
	ValidIDs(ctx context.Context) []string
	DefaultResponders() []string
}

type Router struct {
	store        store.Store
	directory    Directory
	invoker      dispatch.Invoker
	events       eventbus.Publisher
	replyTimeout time.Duration
	now          func() time.Time
}

type Option func(*Router)

func WithReplyTimeout(d time.Duration) Option {
	return func(r *Router) { r.replyTimeout = d }
}

func WithEventPublisher(p eventbus.Publisher) Option {
	return func(r *Router) { r.events = p }
}

func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

func NewRouter(st store.Store, dir Directory, invoker dispatch.Invoker, opts ...Option) *Router {
	r := &Router{
		store:        st,
		directory:    dir,
		invoker:      invoker,
		events:       eventbus.Nop{},
		replyTimeout: DefaultReplyTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type PostResult struct {
	UserMessage document.Message   `json:"message"`
	Thread      []document.Message `json:"thread"`
}

func newID() string {
	return "msg_" + ulid.Make().String()
}

func (r *Router) newMessage(author, text, parentID string) document.Message {
	return document.Message{
		ID:       newID(),
		At:       document.NewTimestamp(r.now()),
		Author:   author,
		Text:     document.Truncate(text, document.MaxMessageLen),
		ParentID: parentID,
	}
}

// PostMessage stores the message, asks every addressed agent for input in
// parallel and appends their answers in the order they arrive. The user
// message is persisted before any agent is contacted; the answers are
// persisted together once every agent has answered or failed.
func (r *Router) PostMessage(ctx context.Context, author, text string) (*PostResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "text is required", nil)
	}
	if strings.TrimSpace(author) == "" {
		author = DefaultAuthor
	}
	// Only the reply timeout cancels the fan-out.
	ctx = context.WithoutCancel(ctx)

	userMsg := r.newMessage(author, strings.TrimSpace(text), "")
	if err := r.store.Update(ctx, func(doc *document.Document) error {
		doc.WarRoom.Messages = append(doc.WarRoom.Messages, userMsg)
		return nil
	}); err != nil {
		return nil, err
	}
	r.events.PublishNew(eventbus.WarRoomMessagePosted, userMsg.ID, userMsg)

	targets := r.targets(ctx, text)
	slog.InfoContext(ctx, "war room message posted", "message_id", userMsg.ID, "targets", targets)

	replies := r.fanOut(ctx, userMsg, text, targets)

	var thread []document.Message
	err := r.store.Update(ctx, func(doc *document.Document) error {
		doc.WarRoom.Messages = append(doc.WarRoom.Messages, replies...)
		thread = doc.RecentMessages(HistoryWindow)
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, m := range replies {
		r.events.PublishNew(eventbus.WarRoomMessagePosted, m.ID, m)
	}
	return &PostResult{UserMessage: userMsg, Thread: thread}, nil
}

func (r *Router) targets(ctx context.Context, text string) []string {
	targets := ExtractMentions(text, r.directory.ValidIDs(ctx))
	if len(targets) == 0 {
		targets = r.directory.DefaultResponders()
	}
	if len(targets) > MaxTargets {
		targets = targets[:MaxTargets]
	}
	return targets
}

// fanOut returns at most one message per target, in completion order.
func (r *Router) fanOut(ctx context.Context, userMsg document.Message, text string, targets []string) []document.Message {
	var (
		mu      sync.Mutex
		replies = make([]document.Message, 0, len(targets))
	)
	prompt := dispatch.WarRoomPrompt(userMsg.Author, text)
	wg := conc.NewWaitGroup()
	for _, target := range targets {
		wg.Go(func() {
			msg, ok := r.ask(ctx, target, prompt, userMsg.ID)
			if !ok {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			msg.At = document.NewTimestamp(r.now())
			replies = append(replies, msg)
		})
	}
	wg.Wait()
	return replies
}

func (r *Router) ask(ctx context.Context, target, prompt, parentID string) (document.Message, bool) {
	reply, err := panicerr.Call(func() (document.Reply, error) {
		return r.invoker.Invoke(ctx, target, prompt, r.replyTimeout)
	})
	if err != nil {
		slog.WarnContext(ctx, "war room target unreachable", "agent_id", target, "error", err)
		return r.newMessage(SystemAuthor, fmt.Sprintf("Could not reach @%s in this environment.", target), parentID), true
	}
	if dispatch.IsSkip(reply.Text) {
		slog.DebugContext(ctx, "war room target skipped", "agent_id", target)
		return document.Message{}, false
	}
	return r.newMessage(target, reply.Text, parentID), true
}

// RecentMessages returns the last HistoryWindow messages in insertion order.
func (r *Router) RecentMessages(ctx context.Context) ([]document.Message, error) {
	doc, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.RecentMessages(HistoryWindow), nil
}
