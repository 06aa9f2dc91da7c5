package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/thepalians/reviewer-sub002/internal/db"
	"github.com/thepalians/reviewer-sub002/internal/logger"
	"github.com/thepalians/reviewer-sub002/internal/model"
	"github.com/thepalians/reviewer-sub002/internal/notify"

	"github.com/rs/zerolog"
)

// DefaultTaskSteps is the canonical checklist every task is created with.
// Configurable via ingestion.task_steps; this is the compiled fallback.
var DefaultTaskSteps = []string{
	"Order Placed",
	"Order Delivered",
	"Review Submitted",
	"Review Approved",
	"Refund Processed",
}

// TaskWriter persists one task per valid row and queues the reviewer
// notification afterwards. Persistence is transactional (task + steps
// together); the notification is best-effort.
type TaskWriter struct {
	repo     db.Repository
	notifier notify.Notifier
	steps    []string
	log      zerolog.Logger
}

func NewTaskWriter(repo db.Repository, notifier notify.Notifier, steps []string) *TaskWriter {
	if len(steps) == 0 {
		steps = DefaultTaskSteps
	}
	return &TaskWriter{
		repo:     repo,
		notifier: notifier,
		steps:    steps,
		log:      logger.Get(),
	}
}

func (w *TaskWriter) Persist(ctx context.Context, reviewerID, adminID int64, row model.TaskRow) (int64, error) {
	task := &model.Task{
		ReviewerID:   reviewerID,
		BrandName:    row.BrandName,
		ProductName:  row.ProductName,
		ProductURL:   row.ProductURL,
		SellerID:     row.SellerID,
		Status:       model.TaskStatusPending,
		RewardAmount: row.RewardAmount,
		Notes:        buildNotes(row),
		AssignedBy:   adminID,
	}

	steps := make([]model.TaskStep, len(w.steps))
	for i, name := range w.steps {
		steps[i] = model.TaskStep{
			StepNumber: i + 1,
			Name:       name,
			Status:     model.StepStatusPending,
		}
	}

	return w.repo.CreateTaskWithSteps(ctx, task, steps)
}

// Notify queues the assignment notification. The task already committed,
// so an enqueue failure is logged and swallowed.
func (w *TaskWriter) Notify(ctx context.Context, reviewerID, taskID int64, row model.TaskRow) {
	n := model.Notification{
		UserID:   reviewerID,
		Category: "task_assigned",
		Title:    "New task assigned",
		Body:     fmt.Sprintf("You have been assigned a review task for %s - %s", row.BrandName, row.ProductName),
		Link:     fmt.Sprintf("/tasks/%d", taskID),
	}

	if err := w.notifier.Send(ctx, n); err != nil {
		w.log.Warn().Err(err).
			Int64("reviewer_id", reviewerID).
			Int64("task_id", taskID).
			Msg("Failed to enqueue task notification")
	}
}

// buildNotes assembles the task notes from the optional row fields in a
// fixed order: product marker, free text, order id, marketplace link.
func buildNotes(row model.TaskRow) string {
	parts := []string{"Product: " + row.ProductName}

	if row.Notes != "" {
		parts = append(parts, row.Notes)
	}
	if row.OrderID != "" {
		parts = append(parts, "(Order: "+row.OrderID+")")
	}
	if row.MarketplaceLink != "" {
		parts = append(parts, "Marketplace: "+row.MarketplaceLink)
	}

	return strings.Join(parts, "\n")
}
