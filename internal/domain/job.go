package domain

import (
	"time"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// JobParams carries the brand configuration for one batch run.
// The queue never inspects it.
type JobParams struct {
	BrandNames       []string `json:"brandNames"`
	BrandWebsites    []string `json:"brandWebsites"`
	CompetitorBrands []string `json:"competitorBrands"`
	Topic            string   `json:"topic"`
	TargetRegions    string   `json:"targetRegions"`
	QuestionCount    int      `json:"questionCount"`
	FileName         string   `json:"fileName"`
}

// Job is the canonical async unit processed by the scheduler.
type Job struct {
	ID        string    `json:"id"`
	Questions []string  `json:"questions"`
	Params    JobParams `json:"params"`
	ReportID  string    `json:"reportId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Status    JobStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
	Seq       uint64    `json:"-"`
}

// Clone returns a deep copy safe to hand out of a storage backend.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	clone := *j
	clone.Questions = append([]string(nil), j.Questions...)
	clone.Params.BrandNames = append([]string(nil), j.Params.BrandNames...)
	clone.Params.BrandWebsites = append([]string(nil), j.Params.BrandWebsites...)
	clone.Params.CompetitorBrands = append([]string(nil), j.Params.CompetitorBrands...)
	return &clone
}

// NewJob is the caller-supplied part of a Job.
type NewJob struct {
	Questions []string
	Params    JobParams
	ReportID  string
}

type QueueStatus struct {
	Pending    int  `json:"pending"`
	Processing int  `json:"processing"`
	Total      int  `json:"total"`
	CurrentJob *Job `json:"currentJob,omitempty"`
}
