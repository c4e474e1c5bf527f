package events

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iago/geo-visibility-back/internal/domain"
)

type recorder struct {
	name string
	log  *[]string
	err  error
}

func (r *recorder) Handle(_ context.Context, event domain.QueueEvent) error {
	*r.log = append(*r.log, r.name+":"+string(event.Type))
	return r.err
}

type panicker struct{}

func (panicker) Handle(context.Context, domain.QueueEvent) error {
	panic("boom")
}

// sliceConsumer has a non-comparable dynamic type.
type sliceConsumer []string

func (sliceConsumer) Handle(context.Context, domain.QueueEvent) error { return nil }

func newTestBus() *Bus {
	return NewBus(log.New(io.Discard, "", 0))
}

func TestEmitDeliversInSubscriptionOrder(t *testing.T) {
	bus := newTestBus()
	var got []string
	bus.Subscribe(domain.EventJobAdded, &recorder{name: "a", log: &got})
	bus.Subscribe(domain.EventJobAdded, &recorder{name: "b", log: &got})
	bus.Subscribe(domain.EventJobStarted, &recorder{name: "c", log: &got})

	bus.Emit(context.Background(), domain.QueueEvent{Type: domain.EventJobAdded, JobID: "j1"})

	assert.Equal(t, []string{"a:job_added", "b:job_added"}, got)
}

func TestEmitIsolatesFailingConsumers(t *testing.T) {
	bus := newTestBus()
	var got []string
	bus.Subscribe(domain.EventJobFailed, &recorder{name: "err", log: &got, err: errors.New("store down")})
	bus.Subscribe(domain.EventJobFailed, panicker{})
	bus.Subscribe(domain.EventJobFailed, &recorder{name: "ok", log: &got})

	assert.NotPanics(t, func() {
		bus.Emit(context.Background(), domain.QueueEvent{Type: domain.EventJobFailed})
	})
	assert.Equal(t, []string{"err:job_failed", "ok:job_failed"}, got)
}

func TestUnsubscribe(t *testing.T) {
	bus := newTestBus()
	var got []string
	first := &recorder{name: "first", log: &got}
	second := &recorder{name: "second", log: &got}
	bus.Subscribe(domain.EventJobCompleted, first)
	bus.Subscribe(domain.EventJobCompleted, second)
	bus.Subscribe(domain.EventJobCompleted, sliceConsumer{"x"})

	assert.True(t, bus.Unsubscribe(domain.EventJobCompleted, first))
	assert.False(t, bus.Unsubscribe(domain.EventJobCompleted, first))
	assert.False(t, bus.Unsubscribe(domain.EventJobCompleted, sliceConsumer{"x"}))
	assert.Equal(t, 2, bus.ConsumerCount(domain.EventJobCompleted))

	bus.Emit(context.Background(), domain.QueueEvent{Type: domain.EventJobCompleted})
	assert.Equal(t, []string{"second:job_completed"}, got)
}

func TestEventTypes(t *testing.T) {
	bus := newTestBus()
	var got []string
	bus.Subscribe(domain.EventJobCancelled, &recorder{log: &got})
	bus.Subscribe(domain.EventJobAdded, &recorder{log: &got})

	assert.Equal(t, []domain.EventType{domain.EventJobAdded, domain.EventJobCancelled}, bus.EventTypes())
}
