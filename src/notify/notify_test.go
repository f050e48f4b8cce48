package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type captureSink struct {
	mu      sync.Mutex
	intents []Intent
}

func (c *captureSink) Send(ctx context.Context, intent Intent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.intents = append(c.intents, intent)
	return nil
}

type failingSink struct{}

func (failingSink) Send(ctx context.Context, intent Intent) error {
	return errors.New("broker unreachable")
}

func TestDispatcherDelivers(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(sink)

	d.Dispatch(Intent{RecipientID: "user-1", Title: "hello"})
	d.Dispatch(Intent{RecipientID: "user-2", Title: "world"})
	d.Close()

	assert.Len(t, sink.intents, 2)
	assert.Equal(t, "user-1", sink.intents[0].RecipientID)
	assert.Equal(t, "user-2", sink.intents[1].RecipientID)
	assert.NotEmpty(t, sink.intents[0].ID, "dispatch assigns an id when missing")
}

func TestDispatcherKeepsExplicitID(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(sink)

	d.Dispatch(Intent{ID: "intent-1", RecipientID: "user-1"})
	d.Close()

	assert.Len(t, sink.intents, 1)
	assert.Equal(t, "intent-1", sink.intents[0].ID)
}

func TestDispatcherSinkFailureDoesNotBlockOthers(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(failingSink{}, sink)

	d.Dispatch(Intent{RecipientID: "user-1"})
	d.Close()

	assert.Len(t, sink.intents, 1, "a failing sink must not stop delivery to the rest")
}
