package models

import "time"

// ExportStatus tracks the lifecycle of an async report export.
type ExportStatus string

const (
	ExportPending   ExportStatus = "PENDING"
	ExportRunning   ExportStatus = "RUNNING"
	ExportCompleted ExportStatus = "COMPLETED"
	ExportFailed    ExportStatus = "FAILED"
)

// ExportKind names a report that can be exported in the background.
type ExportKind string

const (
	ExportAttendanceDaily ExportKind = "attendance_daily"
	ExportLateReturns     ExportKind = "late_returns"
)

func (k ExportKind) Valid() bool {
	return k == ExportAttendanceDaily || k == ExportLateReturns
}

// ExportJob is the tracked state of one queued export.
type ExportJob struct {
	ID            string       `json:"id"`
	Kind          ExportKind   `json:"kind"`
	Format        string       `json:"format"`
	Status        ExportStatus `json:"status"`
	RequestedBy   string       `json:"requested_by"`
	Filename      string       `json:"filename,omitempty"`
	DownloadToken string       `json:"download_token,omitempty"`
	ExpiresAt     *time.Time   `json:"expires_at,omitempty"`
	Error         string       `json:"error,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty"`
}
