package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/thepalians/reviewer-sub002/internal/model"
	"github.com/thepalians/reviewer-sub002/pkg/errors"
)

type Repository interface {
	CreateBatch(ctx context.Context, batch *model.UploadBatch) (int64, error)
	FinalizeBatch(ctx context.Context, batchID int64, status model.BatchStatus, totalRows, successCount, errorCount int, errorLog *string) error
	GetBatch(ctx context.Context, batchID int64) (*model.UploadBatch, error)
	ListRecentBatches(ctx context.Context, limit int) ([]model.UploadBatch, error)
	FindEligibleReviewer(ctx context.Context, email, mobile string) (int64, error)
	CreateTaskWithSteps(ctx context.Context, task *model.Task, steps []model.TaskStep) (int64, error)
	GetAdminSession(ctx context.Context, token string) (*model.AdminSession, error)
	InsertNotification(ctx context.Context, n *model.Notification) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateBatch(ctx context.Context, batch *model.UploadBatch) (int64, error) {
	query := `INSERT INTO upload_batches (filename, archive_path, status, uploaded_by, created_at)
			  VALUES (?, ?, ?, ?, NOW())`

	result, err := r.db.ExecContext(ctx, query,
		batch.Filename, batch.ArchivePath, batch.Status, batch.UploadedBy)
	if err != nil {
		return 0, err
	}

	return result.LastInsertId()
}

func (r *repository) FinalizeBatch(ctx context.Context, batchID int64, status model.BatchStatus, totalRows, successCount, errorCount int, errorLog *string) error {
	query := `UPDATE upload_batches
			  SET status = ?, total_rows = ?, success_count = ?, error_count = ?, error_log = ?, completed_at = NOW()
			  WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, status, totalRows, successCount, errorCount, errorLog, batchID)
	return err
}

func (r *repository) GetBatch(ctx context.Context, batchID int64) (*model.UploadBatch, error) {
	query := `SELECT id, filename, archive_path, status, total_rows, success_count, error_count, error_log, uploaded_by, created_at, completed_at
			  FROM upload_batches WHERE id = ?`

	var batch model.UploadBatch
	err := r.db.QueryRowContext(ctx, query, batchID).Scan(
		&batch.ID, &batch.Filename, &batch.ArchivePath, &batch.Status,
		&batch.TotalRows, &batch.SuccessCount, &batch.ErrorCount,
		&batch.ErrorLog, &batch.UploadedBy, &batch.CreatedAt, &batch.CompletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrBatchNotFound
		}
		return nil, err
	}

	return &batch, nil
}

func (r *repository) ListRecentBatches(ctx context.Context, limit int) ([]model.UploadBatch, error) {
	query := `SELECT id, filename, archive_path, status, total_rows, success_count, error_count, error_log, uploaded_by, created_at, completed_at
			  FROM upload_batches ORDER BY id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []model.UploadBatch
	for rows.Next() {
		var batch model.UploadBatch
		err := rows.Scan(&batch.ID, &batch.Filename, &batch.ArchivePath, &batch.Status,
			&batch.TotalRows, &batch.SuccessCount, &batch.ErrorCount,
			&batch.ErrorLog, &batch.UploadedBy, &batch.CreatedAt, &batch.CompletedAt)
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}

	return batches, rows.Err()
}

// FindEligibleReviewer matches an active reviewer by email or mobile,
// whichever is supplied. It never creates accounts: unknown contacts in
// an upload must fail the row, not silently provision a credentialed
// user. When both contacts are supplied and match different accounts,
// the lowest id wins.
func (r *repository) FindEligibleReviewer(ctx context.Context, email, mobile string) (int64, error) {
	var conds []string
	var args []interface{}

	if email != "" {
		conds = append(conds, "email = ?")
		args = append(args, email)
	}
	if mobile != "" {
		conds = append(conds, "mobile = ?")
		args = append(args, mobile)
	}
	if len(conds) == 0 {
		return 0, errors.ErrNoEligibleReviewer
	}

	query := `SELECT id FROM users
			  WHERE role = 'reviewer' AND status = 'active' AND (` + strings.Join(conds, " OR ") + `)
			  ORDER BY id LIMIT 1`

	var id int64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, errors.ErrNoEligibleReviewer
		}
		return 0, err
	}

	return id, nil
}

// CreateTaskWithSteps persists one task and its full checklist in a
// single transaction. Either everything lands or nothing does; a failed
// step insert rolls back the task insert with it.
func (r *repository) CreateTaskWithSteps(ctx context.Context, task *model.Task, steps []model.TaskStep) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	taskQuery := `INSERT INTO tasks (reviewer_id, brand_name, product_name, product_url, seller_id, status, reward_amount, notes, assigned_by, created_at)
				  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NOW())`

	result, err := tx.ExecContext(ctx, taskQuery,
		task.ReviewerID, task.BrandName, task.ProductName, task.ProductURL,
		task.SellerID, task.Status, task.RewardAmount, task.Notes, task.AssignedBy)
	if err != nil {
		return 0, err
	}

	taskID, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	stepQuery := `INSERT INTO task_steps (task_id, step_number, name, status) VALUES (?, ?, ?, ?)`

	for _, step := range steps {
		_, err := tx.ExecContext(ctx, stepQuery, taskID, step.StepNumber, step.Name, step.Status)
		if err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return taskID, nil
}

func (r *repository) GetAdminSession(ctx context.Context, token string) (*model.AdminSession, error) {
	query := `SELECT s.token, s.admin_id, s.csrf_token, s.expires_at
			  FROM admin_sessions s
			  JOIN users u ON u.id = s.admin_id
			  WHERE s.token = ? AND u.role = 'admin' AND u.status = 'active'`

	var session model.AdminSession
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&session.Token, &session.AdminID, &session.CSRFToken, &session.ExpiresAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrSessionNotFound
		}
		return nil, err
	}

	if time.Now().After(session.ExpiresAt) {
		return nil, errors.ErrSessionExpired
	}

	return &session, nil
}

func (r *repository) InsertNotification(ctx context.Context, n *model.Notification) error {
	query := `INSERT INTO notifications (user_id, category, title, body, link, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query, n.UserID, n.Category, n.Title, n.Body, n.Link, createdAt)
	return err
}
