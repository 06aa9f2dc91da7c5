package queue

import (
	"context"
	"encoding/json"

	"github.com/thepalians/reviewer-sub002/internal/config"
	"github.com/thepalians/reviewer-sub002/internal/model"

	"github.com/go-redis/redis/v8"
)

type Producer struct {
	client *redis.Client
	cfg    *config.Config
}

func NewProducer(redisClient *RedisClient, cfg *config.Config) *Producer {
	return &Producer{
		client: redisClient.Client(),
		cfg:    cfg,
	}
}

func (p *Producer) EnqueueNotification(ctx context.Context, n model.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}

	return p.client.LPush(ctx, p.cfg.Redis.NotificationQueue, data).Err()
}

// DeadLetterNotification parks an undeliverable payload on the DLQ list
// for inspection and replay.
func (p *Producer) DeadLetterNotification(ctx context.Context, payload []byte) error {
	return p.client.LPush(ctx, p.cfg.Redis.NotificationQueue+p.cfg.Redis.DLQSuffix, payload).Err()
}
