// Package eventbus fans lifecycle events out to in-process subscribers.
package eventbus

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type Type string

const (
	TaskCreated          Type = "task.created"
	TaskStatusChanged    Type = "task.status_changed"
	WarRoomMessagePosted Type = "warroom.message_posted"
	DocumentChanged      Type = "document.changed"
)

type Event struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	ResourceID string          `json:"resourceId,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Publisher is the sending half of a Bus.
type Publisher interface {
	PublishNew(eventType Type, resourceID string, payload any)
}

var _ Publisher = (*Bus)(nil)

type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan *Event
}

func New() *Bus {
	return &Bus{
		subscribers: make(map[string]chan *Event),
	}
}

func (b *Bus) Subscribe(bufSize int) (string, <-chan *Event) {
	id := ulid.Make().String()
	ch := make(chan *Event, bufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

// Publish never blocks; a subscriber with a full buffer misses the event.
func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// PublishNew publishes payload encoded as JSON. A payload that cannot be
// encoded is dropped from the event.
func (b *Bus) PublishNew(eventType Type, resourceID string, payload any) {
	event := &Event{
		ID:         ulid.Make().String(),
		Type:       eventType,
		ResourceID: resourceID,
		CreatedAt:  time.Now(),
	}
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			event.Payload = data
		}
	}
	b.Publish(event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) PublishNew(Type, string, any) {}
