package api

import (
	"github.com/thepalians/reviewer-sub002/internal/db"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler, repo db.Repository) {
	// Health check
	router.GET("/health", handler.HealthCheck)

	// Admin back-office API
	v1 := router.Group("/api/v1")
	admin := v1.Group("/admin")
	admin.Use(AuthMiddleware(repo), CSRFMiddleware())
	{
		admin.POST("/tasks/bulk-upload", handler.BulkUpload)
		admin.GET("/batches", handler.ListBatches)
		admin.GET("/batches/:batch_id", handler.GetBatch)
		admin.GET("/batches/:batch_id/file", handler.DownloadBatchFile)
	}
}
