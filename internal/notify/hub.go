// Package notify fans report notifications out to server-sent-event clients
// and other sinks.
package notify

import (
	"context"
	"log"
	"sync"

	"github.com/iago/geo-visibility-back/internal/domain"
)

const defaultClientBuffer = 32

// Hub is the in-process registry of SSE clients. Publishing never blocks:
// a client whose buffer is full misses the notification.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint64]chan domain.Notification
	nextID  uint64
	buffer  int
	logger  *log.Logger
}

func NewHub(buffer int, logger *log.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultClientBuffer
	}
	return &Hub{
		clients: make(map[uint64]chan domain.Notification),
		buffer:  buffer,
		logger:  logger,
	}
}

// Subscribe registers a client. The returned func unregisters it and closes
// the channel; it is safe to call more than once.
func (h *Hub) Subscribe() (<-chan domain.Notification, func()) {
	ch := make(chan domain.Notification, h.buffer)

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.clients[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Notify(_ context.Context, notification domain.Notification) {
	h.Publish(notification)
}

func (h *Hub) Publish(notification domain.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.clients {
		select {
		case ch <- notification:
		default:
			if h.logger != nil {
				h.logger.Printf("sse client lagging, dropped notification client=%d type=%s", id, notification.Type)
			}
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
