package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iago/geo-visibility-back/internal/domain"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	MaxLen   int64
}

// RedisStreamSink appends notifications to a capped Redis stream so other
// processes can follow report progress.
type RedisStreamSink struct {
	client *redis.Client
	stream string
	maxLen int64
	logger *log.Logger
}

func NewRedisStreamSink(ctx context.Context, cfg RedisConfig, logger *log.Logger) (*RedisStreamSink, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	if cfg.Stream == "" {
		cfg.Stream = "geo_report_events"
	}
	if cfg.MaxLen <= 0 {
		cfg.MaxLen = 10000
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStreamSink{
		client: client,
		stream: cfg.Stream,
		maxLen: cfg.MaxLen,
		logger: logger,
	}, nil
}

func (s *RedisStreamSink) Close() error {
	return s.client.Close()
}

// Notify logs append failures instead of returning them; the stream is an
// audit trail, not the source of truth.
func (s *RedisStreamSink) Notify(ctx context.Context, notification domain.Notification) {
	if err := s.Append(ctx, notification); err != nil && s.logger != nil {
		s.logger.Printf("redis notification append failed type=%s report_id=%s err=%v",
			notification.Type, notification.ReportID, err)
	}
}

func (s *RedisStreamSink) Append(ctx context.Context, notification domain.Notification) error {
	_, err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: streamValues(notification),
	}).Result()
	if err != nil {
		return fmt.Errorf("append to stream: %w", err)
	}
	return nil
}

func streamValues(n domain.Notification) map[string]any {
	values := map[string]any{
		"type":      n.Type,
		"job_id":    n.JobID,
		"report_id": n.ReportID,
		"status":    string(n.Status),
		"error":     n.Error,
		"timestamp": n.Timestamp.Format(time.RFC3339Nano),
	}
	if n.Position != nil {
		values["position"] = *n.Position
	}
	return values
}
