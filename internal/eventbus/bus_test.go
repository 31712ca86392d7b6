package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	b := New()
	id1, ch1 := b.Subscribe(4)
	_, ch2 := b.Subscribe(4)

	b.PublishNew(TaskCreated, "task_1", map[string]string{"title": "Ship"})

	for _, ch := range []<-chan *Event{ch1, ch2} {
		ev := <-ch
		assert.Equal(t, TaskCreated, ev.Type)
		assert.Equal(t, "task_1", ev.ResourceID)
		assert.JSONEq(t, `{"title": "Ship"}`, string(ev.Payload))
		assert.NotEmpty(t, ev.ID)
	}

	b.Unsubscribe(id1)
	_, ok := <-ch1
	assert.False(t, ok, "channel is closed on unsubscribe")
	b.Unsubscribe(id1)
}

func TestBus_FullBufferDrops(t *testing.T) {
	b := New()
	_, ch := b.Subscribe(1)
	b.PublishNew(DocumentChanged, "", nil)
	b.PublishNew(DocumentChanged, "", nil)

	require.Len(t, ch, 1)
	ev := <-ch
	assert.Nil(t, ev.Payload)
}
