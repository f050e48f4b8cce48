// Package notify delivers fire-and-forget notification intents. The engine
// hands intents to the Dispatcher and never waits on delivery; failures are
// logged and discarded, never surfaced to the booking caller.
package notify

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

type Intent struct {
	ID          string
	RecipientID string
	Title       string
	Body        string
	Metadata    map[string]string
}

type Sink interface {
	Send(ctx context.Context, intent Intent) error
}

type Dispatcher struct {
	ch    chan Intent
	done  chan struct{}
	sinks []Sink
}

func NewDispatcher(sinks ...Sink) *Dispatcher {
	d := &Dispatcher{
		ch:    make(chan Intent, 64),
		done:  make(chan struct{}),
		sinks: sinks,
	}
	go d.run()
	return d
}

// Dispatch hands the intent to the delivery worker without waiting on the
// outcome. A full queue drops the intent rather than block the caller.
func (d *Dispatcher) Dispatch(intent Intent) {
	if intent.ID == "" {
		intent.ID = uuid.NewString()
	}
	select {
	case d.ch <- intent:
	default:
		log.Printf("[notify] queue full, dropping notification for %s\n", intent.RecipientID)
	}
}

// Close stops the worker after draining queued intents.
func (d *Dispatcher) Close() {
	close(d.ch)
	<-d.done
}

func (d *Dispatcher) run() {
	for intent := range d.ch {
		for _, sink := range d.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := sink.Send(ctx, intent); err != nil {
				log.Printf("[notify] delivery to %s failed: %s\n", intent.RecipientID, err.Error())
			}
			cancel()
		}
	}
	close(d.done)
}
