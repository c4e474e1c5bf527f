package domain

import "time"

type EventType string

const (
	EventJobAdded     EventType = "job_added"
	EventJobStarted   EventType = "job_started"
	EventJobCompleted EventType = "job_completed"
	EventJobFailed    EventType = "job_failed"
	EventJobCancelled EventType = "job_cancelled"
)

// QueueEventTypes lists every event the queue emits, in lifecycle order.
var QueueEventTypes = []EventType{
	EventJobAdded,
	EventJobStarted,
	EventJobCompleted,
	EventJobFailed,
	EventJobCancelled,
}

// QueueEvent is an immutable fact about a job state change.
// Position is only set on job_added.
type QueueEvent struct {
	Type      EventType
	JobID     string
	ReportID  string
	Position  *int
	Error     string
	Timestamp time.Time
}

const (
	NotificationConnected    = "connection_established"
	NotificationReportStatus = "report_status_update"
)

// Notification is the flattened payload pushed to SSE clients.
type Notification struct {
	Type      string       `json:"type"`
	JobID     string       `json:"jobId,omitempty"`
	ReportID  string       `json:"reportId,omitempty"`
	Status    ReportStatus `json:"status,omitempty"`
	Position  *int         `json:"position,omitempty"`
	Error     string       `json:"error,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}
