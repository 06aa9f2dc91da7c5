package notify

import (
	"context"

	"github.com/thepalians/reviewer-sub002/internal/model"
	"github.com/thepalians/reviewer-sub002/internal/queue"
)

// Notifier enqueues a notification for later delivery. Callers on the
// ingestion path treat failures as log-only: a task that already
// committed stays committed.
type Notifier interface {
	Send(ctx context.Context, n model.Notification) error
}

type QueueNotifier struct {
	producer *queue.Producer
}

func NewQueueNotifier(producer *queue.Producer) *QueueNotifier {
	return &QueueNotifier{producer: producer}
}

func (q *QueueNotifier) Send(ctx context.Context, n model.Notification) error {
	return q.producer.EnqueueNotification(ctx, n)
}
