package model

import "time"

type BatchStatus string

const (
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
)

// UploadBatch records one submitted bulk-upload file and its outcome.
// It is created when ingestion starts and updated exactly once when the
// batch completes or fails.
type UploadBatch struct {
	ID           int64       `json:"id" db:"id"`
	Filename     string      `json:"filename" db:"filename"`
	ArchivePath  *string     `json:"archive_path,omitempty" db:"archive_path"`
	Status       BatchStatus `json:"status" db:"status"`
	TotalRows    int         `json:"total_rows" db:"total_rows"`
	SuccessCount int         `json:"success_count" db:"success_count"`
	ErrorCount   int         `json:"error_count" db:"error_count"`
	ErrorLog     *string     `json:"-" db:"error_log"`
	UploadedBy   int64       `json:"uploaded_by" db:"uploaded_by"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty" db:"completed_at"`
}
