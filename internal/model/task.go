package model

import "time"

type TaskStatus string

const (
	TaskStatusPending TaskStatus = "pending"
)

type StepStatus string

const (
	StepStatusPending StepStatus = "pending"
)

// Task is the unit of assigned work created from one valid upload row.
type Task struct {
	ID           int64      `json:"id" db:"id"`
	ReviewerID   int64      `json:"reviewer_id" db:"reviewer_id"`
	BrandName    string     `json:"brand_name" db:"brand_name"`
	ProductName  string     `json:"product_name" db:"product_name"`
	ProductURL   string     `json:"product_url" db:"product_url"`
	SellerID     *int64     `json:"seller_id,omitempty" db:"seller_id"`
	Status       TaskStatus `json:"status" db:"status"`
	RewardAmount float64    `json:"reward_amount" db:"reward_amount"`
	Notes        string     `json:"notes" db:"notes"`
	AssignedBy   int64      `json:"assigned_by" db:"assigned_by"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// TaskStep is one checklist entry of a task. Every task carries the full
// canonical step sequence, numbered from 1, created in the same
// transaction as the task itself.
type TaskStep struct {
	ID         int64      `json:"id" db:"id"`
	TaskID     int64      `json:"task_id" db:"task_id"`
	StepNumber int        `json:"step_number" db:"step_number"`
	Name       string     `json:"name" db:"name"`
	Status     StepStatus `json:"status" db:"status"`
}
