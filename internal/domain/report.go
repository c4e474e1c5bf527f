package domain

import "time"

type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusRunning   ReportStatus = "running"
	ReportStatusCompleted ReportStatus = "completed"
	ReportStatusFailed    ReportStatus = "failed"
	ReportStatusCancelled ReportStatus = "cancelled"
)

// Report is the user-facing record of one batch run.
type Report struct {
	ID        string       `json:"id"`
	FileName  string       `json:"fileName"`
	Status    ReportStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Error     string       `json:"error,omitempty"`
}

// AnswerRecord is one output row: the answers collected for a question and
// the metrics derived from them. Brands holds the presence matrix keyed by
// column label.
type AnswerRecord struct {
	Input             string
	No                int
	Query             string
	AIO               string
	AIOOfficialSite   string
	AIOReference      string
	AIOBrandCompare   string
	AIOBrandExist     string
	AIOBrandRelated   string
	ChatGPT           string
	ChatGPTOfficial   string
	ChatGPTReference  string
	ChatGPTCompare    string
	ChatGPTBrandExist string
	ChatGPTRelated    string
	ContentAnalysis   string
	OptimizeDirection string
	AnswerEngine      string
	Brands            map[string]int
}
