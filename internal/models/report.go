package models

import "time"

// ReportFormat selects the rendered output type for an export.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// ReportJobStatus tracks the lifecycle of a report generation job.
type ReportJobStatus string

const (
	ReportJobPending   ReportJobStatus = "pending"
	ReportJobRunning   ReportJobStatus = "running"
	ReportJobCompleted ReportJobStatus = "completed"
	ReportJobFailed    ReportJobStatus = "failed"
)

// ReportRequest describes the payment report an admin asked for.
type ReportRequest struct {
	Format ReportFormat  `json:"format" validate:"required,oneof=csv pdf"`
	Status PaymentStatus `json:"status" validate:"omitempty,oneof=pending approved paid rejected"`
	From   *time.Time    `json:"from"`
	To     *time.Time    `json:"to"`
}

// ReportJob captures the state of a queued report export.
type ReportJob struct {
	ID          string          `json:"id"`
	Status      ReportJobStatus `json:"status"`
	Format      ReportFormat    `json:"format"`
	RequestedBy string          `json:"requested_by"`
	Request     ReportRequest   `json:"request"`
	DownloadURL string          `json:"download_url,omitempty"`
	Error       string          `json:"error,omitempty"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}
