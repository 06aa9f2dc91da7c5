package model

import "time"

// TaskRow is one validated data row of an upload file, keyed off the
// header regardless of the column order in the source file.
type TaskRow struct {
	BrandName       string
	ProductName     string
	ProductURL      string
	RewardAmount    float64
	MarketplaceLink string
	OrderID         string
	SellerID        *int64
	SellerName      string
	ReviewerMobile  string
	ReviewerEmail   string
	Notes           string
}

// RowFailure reports one failed row back to the operator.
type RowFailure struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// BatchResult is the outcome of one ingestion run.
type BatchResult struct {
	BatchID      int64        `json:"batch_id"`
	TotalRows    int          `json:"total_rows"`
	SuccessCount int          `json:"success_count"`
	ErrorCount   int          `json:"error_count"`
	Errors       []RowFailure `json:"errors"`
}

// Notification is a message queued to a reviewer after their task is
// created. Delivery is best-effort and never affects the row outcome.
type Notification struct {
	UserID    int64     `json:"user_id"`
	Category  string    `json:"category"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Link      string    `json:"link"`
	CreatedAt time.Time `json:"created_at"`
}

type BatchStatusResponse struct {
	BatchID      int64        `json:"batch_id"`
	Filename     string       `json:"filename"`
	Status       string       `json:"status"`
	TotalRows    int          `json:"total_rows"`
	SuccessCount int          `json:"success_count"`
	ErrorCount   int          `json:"error_count"`
	Errors       []RowFailure `json:"errors,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
}
