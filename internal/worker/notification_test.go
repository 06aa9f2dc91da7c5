package worker

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/thepalians/reviewer-sub002/internal/logger"
	"github.com/thepalians/reviewer-sub002/internal/model"
	apperrors "github.com/thepalians/reviewer-sub002/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	mu         sync.Mutex
	inserted   []model.Notification
	failInsert bool
}

func (s *stubRepo) CreateBatch(ctx context.Context, batch *model.UploadBatch) (int64, error) {
	return 0, nil
}

func (s *stubRepo) FinalizeBatch(ctx context.Context, batchID int64, status model.BatchStatus, totalRows, successCount, errorCount int, errorLog *string) error {
	return nil
}

func (s *stubRepo) GetBatch(ctx context.Context, batchID int64) (*model.UploadBatch, error) {
	return nil, apperrors.ErrBatchNotFound
}

func (s *stubRepo) ListRecentBatches(ctx context.Context, limit int) ([]model.UploadBatch, error) {
	return nil, nil
}

func (s *stubRepo) FindEligibleReviewer(ctx context.Context, email, mobile string) (int64, error) {
	return 0, apperrors.ErrNoEligibleReviewer
}

func (s *stubRepo) CreateTaskWithSteps(ctx context.Context, task *model.Task, steps []model.TaskStep) (int64, error) {
	return 0, nil
}

func (s *stubRepo) GetAdminSession(ctx context.Context, token string) (*model.AdminSession, error) {
	return nil, apperrors.ErrSessionNotFound
}

func (s *stubRepo) InsertNotification(ctx context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsert {
		return stderrors.New("db unavailable")
	}
	s.inserted = append(s.inserted, *n)
	return nil
}

type stubDeadLetter struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (s *stubDeadLetter) DeadLetterNotification(ctx context.Context, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, payload)
	return nil
}

func newTestWorker(repo *stubRepo, dlq *stubDeadLetter, poolSize int) *NotificationWorker {
	return &NotificationWorker{
		repo: repo,
		dlq:  dlq,
		pool: NewPool(poolSize),
		log:  logger.Get(),
	}
}

func notificationPayload(t *testing.T) []byte {
	t.Helper()
	data, err := json.Marshal(model.Notification{
		UserID:   7,
		Category: "task_assigned",
		Title:    "New task assigned",
	})
	require.NoError(t, err)
	return data
}

func TestHandleMessageDeliversNotification(t *testing.T) {
	repo := &stubRepo{}
	dlq := &stubDeadLetter{}
	w := newTestWorker(repo, dlq, 1)

	ctx := context.Background()
	w.pool.Start(ctx)

	require.NoError(t, w.handleMessage(ctx, notificationPayload(t)))
	w.pool.Stop()

	require.Len(t, repo.inserted, 1)
	assert.Equal(t, int64(7), repo.inserted[0].UserID)
	assert.Empty(t, dlq.payloads)
}

func TestHandleMessageDeadLettersFailedDelivery(t *testing.T) {
	repo := &stubRepo{failInsert: true}
	dlq := &stubDeadLetter{}
	w := newTestWorker(repo, dlq, 1)

	ctx := context.Background()
	w.pool.Start(ctx)

	payload := notificationPayload(t)
	require.NoError(t, w.handleMessage(ctx, payload))
	w.pool.Stop()

	// The message was already popped off the queue; a failed insert must
	// land it on the DLQ, not just a log line.
	require.Len(t, dlq.payloads, 1)
	assert.Equal(t, payload, dlq.payloads[0])
	assert.Empty(t, repo.inserted)
}

func TestHandleMessageRejectsMalformedPayload(t *testing.T) {
	w := newTestWorker(&stubRepo{}, &stubDeadLetter{}, 1)

	err := w.handleMessage(context.Background(), []byte("not json"))

	assert.Error(t, err)
}

func TestHandleMessageErrorsWhenPoolSaturated(t *testing.T) {
	dlq := &stubDeadLetter{}
	w := newTestWorker(&stubRepo{}, dlq, 1)
	// Pool not started: jobs stack up in the buffered channel until
	// Submit starts rejecting.

	ctx := context.Background()
	payload := notificationPayload(t)

	var errs []error
	for i := 0; i < 5; i++ {
		errs = append(errs, w.handleMessage(ctx, payload))
	}

	var rejected int
	for _, err := range errs {
		if err != nil {
			rejected++
		}
	}

	// Rejections surface as handler errors so the consumer's DLQ branch
	// takes over; the worker itself must not dead-letter them.
	assert.Greater(t, rejected, 0)
	assert.Empty(t, dlq.payloads)
}

func TestPoolSubmitReportsSaturation(t *testing.T) {
	p := NewPool(1)

	accepted := 0
	for i := 0; i < 5; i++ {
		if p.Submit(func(ctx context.Context) error { return nil }) {
			accepted++
		}
	}

	// Channel capacity is workerCount*2; everything beyond is rejected.
	assert.Equal(t, 2, accepted)
}
