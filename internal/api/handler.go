package api

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/thepalians/reviewer-sub002/internal/config"
	"github.com/thepalians/reviewer-sub002/internal/db"
	"github.com/thepalians/reviewer-sub002/internal/ingest"
	"github.com/thepalians/reviewer-sub002/internal/logger"
	"github.com/thepalians/reviewer-sub002/internal/model"
	"github.com/thepalians/reviewer-sub002/internal/storage"
	apperrors "github.com/thepalians/reviewer-sub002/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Handler struct {
	repo     db.Repository
	pipeline *ingest.Pipeline
	archive  storage.Storage
	cfg      *config.Config
	log      zerolog.Logger
}

func NewHandler(
	repo db.Repository,
	pipeline *ingest.Pipeline,
	archive storage.Storage,
	cfg *config.Config,
) *Handler {
	return &Handler{
		repo:     repo,
		pipeline: pipeline,
		archive:  archive,
		cfg:      cfg,
		log:      logger.Get(),
	}
}

// BulkUpload ingests a CSV/XLSX of task assignments. Row failures are
// reported per row; only header-level problems reject the whole file.
func (h *Handler) BulkUpload(c *gin.Context) {
	session := sessionFromContext(c)
	if session == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Authentication required"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No file uploaded"})
		return
	}

	if max := h.cfg.Ingestion.MaxUploadSize; max > 0 && fileHeader.Size > max {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "File too large"})
		return
	}

	reader, err := ingest.NewRowReader(fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Unsupported file type (expected .csv or .xlsx)",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to open uploaded file")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Unable to read uploaded file"})
		return
	}
	data, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read uploaded file")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Unable to read uploaded file"})
		return
	}

	archivePath := h.archiveUpload(c, fileHeader.Filename, data)

	result, err := h.pipeline.Run(c.Request.Context(), session.AdminID, fileHeader.Filename, archivePath, reader, data)
	if err != nil {
		var batchErr apperrors.BatchError
		if stderrors.As(err, &batchErr) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": batchErr.Error()})
			return
		}

		h.log.Error().Err(err).Msg("Bulk upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"batch_id":      result.BatchID,
		"total_rows":    result.TotalRows,
		"success_count": result.SuccessCount,
		"error_count":   result.ErrorCount,
		"errors":        result.Errors,
	})
}

// archiveUpload copies the raw upload to object storage for audit and
// replay. Best-effort: a storage outage must not block the import.
func (h *Handler) archiveUpload(c *gin.Context, filename string, data []byte) *string {
	if h.archive == nil {
		return nil
	}

	key := "uploads/" + uuid.NewString() + "_" + filepath.Base(filename)
	if err := h.archive.Upload(c.Request.Context(), key, bytes.NewReader(data)); err != nil {
		h.log.Warn().Err(err).Str("key", key).Msg("Failed to archive uploaded file")
		return nil
	}

	return &key
}

func (h *Handler) GetBatch(c *gin.Context) {
	batchID, err := strconv.ParseInt(c.Param("batch_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid batch ID"})
		return
	}

	batch, err := h.repo.GetBatch(c.Request.Context(), batchID)
	if err != nil {
		if stderrors.Is(err, apperrors.ErrBatchNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Batch not found"})
			return
		}
		h.log.Error().Err(err).Int64("batch_id", batchID).Msg("Failed to load batch")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, batchStatusResponse(batch))
}

// DownloadBatchFile streams the archived original upload back to the
// operator, typically to fix and resubmit a failed batch.
func (h *Handler) DownloadBatchFile(c *gin.Context) {
	batchID, err := strconv.ParseInt(c.Param("batch_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid batch ID"})
		return
	}

	batch, err := h.repo.GetBatch(c.Request.Context(), batchID)
	if err != nil {
		if stderrors.Is(err, apperrors.ErrBatchNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Batch not found"})
			return
		}
		h.log.Error().Err(err).Int64("batch_id", batchID).Msg("Failed to load batch")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}

	if h.archive == nil || batch.ArchivePath == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "No archived file for this batch"})
		return
	}

	reader, err := h.archive.Download(c.Request.Context(), *batch.ArchivePath)
	if err != nil {
		h.log.Error().Err(err).Str("key", *batch.ArchivePath).Msg("Failed to download archived file")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", batch.Filename))
	c.DataFromReader(http.StatusOK, -1, "application/octet-stream", reader, nil)
}

func (h *Handler) ListBatches(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	batches, err := h.repo.ListRecentBatches(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list batches")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}

	responses := make([]*model.BatchStatusResponse, len(batches))
	for i := range batches {
		responses[i] = batchStatusResponse(&batches[i])
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "batches": responses})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.cfg.App.Name,
		"version": h.cfg.App.Version,
	})
}

func batchStatusResponse(batch *model.UploadBatch) *model.BatchStatusResponse {
	resp := &model.BatchStatusResponse{
		BatchID:      batch.ID,
		Filename:     batch.Filename,
		Status:       string(batch.Status),
		TotalRows:    batch.TotalRows,
		SuccessCount: batch.SuccessCount,
		ErrorCount:   batch.ErrorCount,
		CreatedAt:    batch.CreatedAt,
		CompletedAt:  batch.CompletedAt,
	}

	if batch.ErrorLog != nil {
		// Failed batches store a plain reason; completed ones store the
		// per-row failure list as JSON.
		var failures []model.RowFailure
		if err := json.Unmarshal([]byte(*batch.ErrorLog), &failures); err == nil {
			resp.Errors = failures
		}
	}

	return resp
}

func sessionFromContext(c *gin.Context) *model.AdminSession {
	value, exists := c.Get(sessionContextKey)
	if !exists {
		return nil
	}
	session, ok := value.(*model.AdminSession)
	if !ok {
		return nil
	}
	return session
}
