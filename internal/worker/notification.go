package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/thepalians/reviewer-sub002/internal/config"
	"github.com/thepalians/reviewer-sub002/internal/db"
	"github.com/thepalians/reviewer-sub002/internal/logger"
	"github.com/thepalians/reviewer-sub002/internal/model"
	"github.com/thepalians/reviewer-sub002/internal/queue"

	"github.com/rs/zerolog"
)

// DeadLetter parks a notification payload that could not be delivered so
// it can be inspected and replayed later.
type DeadLetter interface {
	DeadLetterNotification(ctx context.Context, payload []byte) error
}

// NotificationWorker drains the notification queue the ingestion
// pipeline feeds and persists each message for the reviewer's inbox.
// A message that cannot be delivered is pushed to the DLQ: once BRPop'd
// it no longer exists on the main queue, so losing it here would lose
// it for good.
type NotificationWorker struct {
	cfg      *config.Config
	repo     db.Repository
	consumer *queue.Consumer
	dlq      DeadLetter
	pool     *Pool
	log      zerolog.Logger
}

func NewNotificationWorker(
	cfg *config.Config,
	repo db.Repository,
	redisClient *queue.RedisClient,
) *NotificationWorker {
	return &NotificationWorker{
		cfg:      cfg,
		repo:     repo,
		consumer: queue.NewConsumer(redisClient, cfg),
		dlq:      queue.NewProducer(redisClient, cfg),
		pool:     NewPool(cfg.Workers.Notification.Count),
		log:      logger.Get(),
	}
}

func (w *NotificationWorker) Start(ctx context.Context) error {
	w.log.Info().Msg("Starting notification worker")

	w.pool.Start(ctx)

	return w.consumer.ConsumeNotificationQueue(ctx, w.handleMessage)
}

func (w *NotificationWorker) Stop() {
	w.log.Info().Msg("Stopping notification worker")
	w.pool.Stop()
}

func (w *NotificationWorker) handleMessage(ctx context.Context, data []byte) error {
	var n model.Notification
	if err := json.Unmarshal(data, &n); err != nil {
		w.log.Error().Err(err).Msg("Failed to unmarshal notification")
		return err
	}

	payload := data
	submitted := w.pool.Submit(func(ctx context.Context) error {
		if err := w.deliver(ctx, n); err != nil {
			w.deadLetter(ctx, payload)
			return err
		}
		return nil
	})
	if !submitted {
		// Returning an error sends the message to the DLQ via the
		// consumer instead of dropping it.
		return fmt.Errorf("worker pool saturated, notification rejected")
	}

	return nil
}

func (w *NotificationWorker) deliver(ctx context.Context, n model.Notification) error {
	if err := w.repo.InsertNotification(ctx, &n); err != nil {
		w.log.Error().Err(err).Int64("user_id", n.UserID).Msg("Failed to persist notification")
		return err
	}

	w.log.Debug().Int64("user_id", n.UserID).Str("category", n.Category).Msg("Notification delivered")
	return nil
}

func (w *NotificationWorker) deadLetter(ctx context.Context, payload []byte) {
	if err := w.dlq.DeadLetterNotification(ctx, payload); err != nil {
		w.log.Error().Err(err).Msg("Failed to dead-letter notification")
	}
}
