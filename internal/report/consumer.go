package report

import (
	"context"
	"fmt"
	"log"

	"github.com/iago/geo-visibility-back/internal/domain"
	"github.com/iago/geo-visibility-back/internal/events"
)

// statusByEvent is the fixed mapping from queue event to report status.
var statusByEvent = map[domain.EventType]domain.ReportStatus{
	domain.EventJobAdded:     domain.ReportStatusPending,
	domain.EventJobStarted:   domain.ReportStatusRunning,
	domain.EventJobCompleted: domain.ReportStatusCompleted,
	domain.EventJobFailed:    domain.ReportStatusFailed,
	domain.EventJobCancelled: domain.ReportStatusCancelled,
}

// StatusFor returns the report status mirrored by a queue event type.
func StatusFor(eventType domain.EventType) (domain.ReportStatus, bool) {
	status, ok := statusByEvent[eventType]
	return status, ok
}

// StatusWriter is satisfied by Service.
type StatusWriter interface {
	UpdateStatus(ctx context.Context, id string, status domain.ReportStatus, errMsg string) error
}

// Consumer mirrors queue events onto reports and forwards each event as a
// flattened notification.
type Consumer struct {
	reports  StatusWriter
	notifier Notifier
	logger   *log.Logger
}

func NewConsumer(reports StatusWriter, notifier Notifier, logger *log.Logger) *Consumer {
	return &Consumer{reports: reports, notifier: notifier, logger: logger}
}

// SubscribeAll registers c for every queue event type.
func (c *Consumer) SubscribeAll(bus *events.Bus) {
	for _, eventType := range domain.QueueEventTypes {
		bus.Subscribe(eventType, c)
	}
}

// Handle ignores events without a report id.
func (c *Consumer) Handle(ctx context.Context, event domain.QueueEvent) error {
	if event.ReportID == "" {
		return nil
	}

	status, ok := StatusFor(event.Type)
	if !ok {
		return fmt.Errorf("unknown event type %q", event.Type)
	}
	if err := c.reports.UpdateStatus(ctx, event.ReportID, status, event.Error); err != nil {
		return err
	}

	if c.notifier != nil {
		c.notifier.Notify(ctx, domain.Notification{
			Type:      string(event.Type),
			JobID:     event.JobID,
			ReportID:  event.ReportID,
			Position:  event.Position,
			Error:     event.Error,
			Timestamp: event.Timestamp,
		})
	}

	if c.logger != nil {
		c.logger.Printf("report mirrored report_id=%s status=%s event=%s", event.ReportID, status, event.Type)
	}
	return nil
}
