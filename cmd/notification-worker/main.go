package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/thepalians/reviewer-sub002/internal/config"
	"github.com/thepalians/reviewer-sub002/internal/db"
	"github.com/thepalians/reviewer-sub002/internal/logger"
	"github.com/thepalians/reviewer-sub002/internal/queue"
	"github.com/thepalians/reviewer-sub002/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Get()

	log.Info().Str("version", cfg.App.Version).Msg("Starting notification worker")

	// Initialize database
	database, err := db.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	// Initialize repository
	repo := db.NewRepository(database)

	// Initialize Redis client
	redisClient, err := queue.NewRedisClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	// Create notification worker
	notificationWorker := worker.NewNotificationWorker(cfg, repo, redisClient)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start worker
	go func() {
		if err := notificationWorker.Start(ctx); err != nil && err != context.Canceled {
			log.Fatal().Err(err).Msg("Notification worker failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down notification worker...")

	// Cancel context to stop worker
	cancel()
	notificationWorker.Stop()

	log.Info().Msg("Notification worker exited")
}
