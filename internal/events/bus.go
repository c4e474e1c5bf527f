// Package events is an in-process, synchronous publish/subscribe bus for
// queue lifecycle events.
package events

import (
	"context"
	"fmt"
	"log"
	"reflect"
	"sync"

	"github.com/iago/geo-visibility-back/internal/domain"
)

// Consumer receives events of the types it was subscribed to.
type Consumer interface {
	Handle(ctx context.Context, event domain.QueueEvent) error
}

// Bus delivers each event to every consumer subscribed to its type, in
// subscription order. A failing or panicking consumer is logged and skipped.
type Bus struct {
	mu        sync.RWMutex
	consumers map[domain.EventType][]Consumer
	logger    *log.Logger
}

func NewBus(logger *log.Logger) *Bus {
	return &Bus{
		consumers: make(map[domain.EventType][]Consumer),
		logger:    logger,
	}
}

func (b *Bus) Subscribe(eventType domain.EventType, consumer Consumer) {
	if consumer == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consumers[eventType] = append(b.consumers[eventType], consumer)
}

// Unsubscribe removes the first registration of consumer for eventType.
// Consumers whose dynamic type is not comparable cannot be removed.
func (b *Bus) Unsubscribe(eventType domain.EventType, consumer Consumer) bool {
	if consumer == nil || !reflect.TypeOf(consumer).Comparable() {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.consumers[eventType]
	for i, existing := range list {
		if !reflect.TypeOf(existing).Comparable() || existing != consumer {
			continue
		}
		next := make([]Consumer, 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		if len(next) == 0 {
			delete(b.consumers, eventType)
		} else {
			b.consumers[eventType] = next
		}
		return true
	}
	return false
}

// Emit dispatches synchronously. The consumer list is snapshotted so
// consumers may subscribe or unsubscribe while handling.
func (b *Bus) Emit(ctx context.Context, event domain.QueueEvent) {
	b.mu.RLock()
	consumers := append([]Consumer(nil), b.consumers[event.Type]...)
	b.mu.RUnlock()

	for _, consumer := range consumers {
		if err := b.dispatch(ctx, consumer, event); err != nil && b.logger != nil {
			b.logger.Printf("event consumer failed type=%s job_id=%s err=%v", event.Type, event.JobID, err)
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, consumer Consumer, event domain.QueueEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("consumer panic: %v", r)
		}
	}()
	return consumer.Handle(ctx, event)
}

func (b *Bus) ConsumerCount(eventType domain.EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.consumers[eventType])
}

// EventTypes lists the types that currently have at least one consumer.
func (b *Bus) EventTypes() []domain.EventType {
	b.mu.RLock()
	defer b.mu.RUnlock()

	types := make([]domain.EventType, 0, len(b.consumers))
	for _, eventType := range domain.QueueEventTypes {
		if len(b.consumers[eventType]) > 0 {
			types = append(types, eventType)
		}
	}
	return types
}
