// Package document holds the shared mission control document and the values
// stored in it.
package document

import (
	"encoding/json"
	"slices"
)

// MaxMessageLen bounds the text of every war-room message, in runes.
const MaxMessageLen = 2000

type Agent struct {
	ID       string `json:"id"`
	Model    string `json:"model"`
	AgentDir string `json:"agentDir,omitempty"`
}

// Session is a backend session record. Its structure is never inspected.
type Session = json.RawMessage

type LogEntry struct {
	At   Timestamp `json:"at"`
	Text string    `json:"text"`
}

type Task struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Details   string     `json:"details"`
	AgentID   string     `json:"agentId"`
	Status    Status     `json:"status"`
	CreatedAt Timestamp  `json:"createdAt"`
	UpdatedAt Timestamp  `json:"updatedAt"`
	Logs      []LogEntry `json:"logs"`
	Result    *Reply     `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
}

type Message struct {
	ID       string    `json:"id"`
	At       Timestamp `json:"at"`
	Author   string    `json:"author"`
	Text     string    `json:"text"`
	ParentID string    `json:"parentId,omitempty"`
}

// IsReply reports whether the message was produced by the router in
// response to another message.
func (m Message) IsReply() bool {
	return m.ParentID != ""
}

type WarRoom struct {
	Messages []Message `json:"messages"`
}

// Document is the unit of persistence. It is always read and written whole.
type Document struct {
	Tasks   []Task  `json:"tasks"`
	WarRoom WarRoom `json:"warRoom"`
}

func New() *Document {
	return &Document{
		Tasks:   []Task{},
		WarRoom: WarRoom{Messages: []Message{}},
	}
}

// FindTask returns a pointer into d.Tasks, or nil.
func (d *Document) FindTask(id string) *Task {
	for i := range d.Tasks {
		if d.Tasks[i].ID == id {
			return &d.Tasks[i]
		}
	}
	return nil
}

// RecentMessages returns a copy of the last n messages in insertion order.
func (d *Document) RecentMessages(n int) []Message {
	msgs := d.WarRoom.Messages
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	return slices.Clone(msgs)
}

// TasksNewestFirst returns copies of the tasks ordered by creation time,
// newest first. Tasks created in the same millisecond keep insertion order.
func (d *Document) TasksNewestFirst() []Task {
	tasks := make([]Task, len(d.Tasks))
	for i := range d.Tasks {
		tasks[i] = d.Tasks[i].Clone()
	}
	slices.SortStableFunc(tasks, func(a, b Task) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return tasks
}

func (t Task) Clone() Task {
	c := t
	c.Logs = slices.Clone(t.Logs)
	if t.Result != nil {
		r := t.Result.Clone()
		c.Result = &r
	}
	return c
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	c := &Document{
		Tasks:   make([]Task, len(d.Tasks)),
		WarRoom: WarRoom{Messages: slices.Clone(d.WarRoom.Messages)},
	}
	for i := range d.Tasks {
		c.Tasks[i] = d.Tasks[i].Clone()
	}
	if c.WarRoom.Messages == nil {
		c.WarRoom.Messages = []Message{}
	}
	return c
}
