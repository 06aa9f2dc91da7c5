package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/thepalians/reviewer-sub002/internal/api"
	"github.com/thepalians/reviewer-sub002/internal/config"
	"github.com/thepalians/reviewer-sub002/internal/db"
	"github.com/thepalians/reviewer-sub002/internal/ingest"
	"github.com/thepalians/reviewer-sub002/internal/logger"
	"github.com/thepalians/reviewer-sub002/internal/notify"
	"github.com/thepalians/reviewer-sub002/internal/queue"
	"github.com/thepalians/reviewer-sub002/internal/storage"

	"github.com/gin-gonic/gin"
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

	log.Info().Str("version", cfg.App.Version).Msg("Starting admin API server")

	// Initialize database
	database, err := db.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	// Apply schema migrations
	if cfg.Database.MigrationsPath != "" {
		if err := db.RunMigrations(database, cfg.Database.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}

	// Initialize repository
	repo := db.NewRepository(database)

	// Initialize Redis client
	redisClient, err := queue.NewRedisClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	// Initialize queue producer and notifier
	producer := queue.NewProducer(redisClient, cfg)
	notifier := notify.NewQueueNotifier(producer)

	// Initialize S3 archive storage
	archive, err := storage.NewS3Storage(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize S3 storage")
	}

	// Initialize ingestion pipeline
	pipeline := ingest.NewPipeline(repo, notifier, cfg.Ingestion.TaskSteps)

	// Initialize API handler
	handler := api.NewHandler(repo, pipeline, archive, cfg)

	// Setup Gin router
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(api.CORSMiddleware())
	router.Use(api.LoggingMiddleware())
	router.Use(api.RecoveryMiddleware())

	// Setup routes
	api.SetupRoutes(router, handler, repo)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Create context for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Shutdown server
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
