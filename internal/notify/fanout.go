package notify

import (
	"context"

	"github.com/iago/geo-visibility-back/internal/domain"
)

// Sink is anything that accepts notifications; Hub and RedisStreamSink
// both implement it.
type Sink interface {
	Notify(ctx context.Context, notification domain.Notification)
}

// Fanout forwards every notification to each sink in order.
type Fanout []Sink

func (f Fanout) Notify(ctx context.Context, notification domain.Notification) {
	for _, sink := range f {
		if sink != nil {
			sink.Notify(ctx, notification)
		}
	}
}
