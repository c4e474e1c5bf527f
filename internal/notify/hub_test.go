package notify

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iago/geo-visibility-back/internal/domain"
)

func TestHubDeliversToEveryClient(t *testing.T) {
	hub := NewHub(4, log.New(io.Discard, "", 0))
	first, unsubscribeFirst := hub.Subscribe()
	defer unsubscribeFirst()
	second, unsubscribeSecond := hub.Subscribe()
	defer unsubscribeSecond()

	assert.Equal(t, 2, hub.ClientCount())

	hub.Notify(context.Background(), domain.Notification{Type: "job_started", ReportID: "r1"})

	assert.Equal(t, "job_started", (<-first).Type)
	assert.Equal(t, "r1", (<-second).ReportID)
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(1, nil)
	ch, unsubscribe := hub.Subscribe()

	unsubscribe()
	unsubscribe()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, hub.ClientCount())

	assert.NotPanics(t, func() { hub.Publish(domain.Notification{Type: "x"}) })
}

func TestHubDropsForSlowClient(t *testing.T) {
	hub := NewHub(1, log.New(io.Discard, "", 0))
	ch, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		hub.Publish(domain.Notification{Type: "first"})
		hub.Publish(domain.Notification{Type: "second"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full client")
	}
	assert.Equal(t, "first", (<-ch).Type)
}

type captureSink struct {
	got []domain.Notification
}

func (c *captureSink) Notify(_ context.Context, n domain.Notification) {
	c.got = append(c.got, n)
}

func TestFanoutForwardsToAllSinks(t *testing.T) {
	a, b := &captureSink{}, &captureSink{}
	fanout := Fanout{a, nil, b}

	fanout.Notify(context.Background(), domain.Notification{Type: domain.NotificationReportStatus})

	require.Len(t, a.got, 1)
	require.Len(t, b.got, 1)
}

func TestStreamValues(t *testing.T) {
	position := 2
	values := streamValues(domain.Notification{
		Type:      "job_added",
		JobID:     "j1",
		ReportID:  "r1",
		Position:  &position,
		Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	})

	assert.Equal(t, "job_added", values["type"])
	assert.Equal(t, 2, values["position"])
	assert.Equal(t, "2025-01-02T03:04:05Z", values["timestamp"])

	_, ok := streamValues(domain.Notification{})["position"]
	assert.False(t, ok)
}
