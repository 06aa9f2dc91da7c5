package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/thepalians/reviewer-sub002/internal/config"
	"github.com/thepalians/reviewer-sub002/internal/ingest"
	"github.com/thepalians/reviewer-sub002/internal/model"
	apperrors "github.com/thepalians/reviewer-sub002/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testToken = "test-session-token"
	testCSRF  = "test-csrf-token"
)

type stubRepo struct {
	batches     map[int64]*model.UploadBatch
	nextBatchID int64
	nextTaskID  int64
	taskCount   int
	stepCount   int
}

func newStubRepo() *stubRepo {
	return &stubRepo{batches: make(map[int64]*model.UploadBatch)}
}

func (s *stubRepo) CreateBatch(ctx context.Context, batch *model.UploadBatch) (int64, error) {
	s.nextBatchID++
	stored := *batch
	stored.ID = s.nextBatchID
	stored.CreatedAt = time.Now()
	s.batches[stored.ID] = &stored
	return stored.ID, nil
}

func (s *stubRepo) FinalizeBatch(ctx context.Context, batchID int64, status model.BatchStatus, totalRows, successCount, errorCount int, errorLog *string) error {
	batch, ok := s.batches[batchID]
	if !ok {
		return apperrors.ErrBatchNotFound
	}
	batch.Status = status
	batch.TotalRows = totalRows
	batch.SuccessCount = successCount
	batch.ErrorCount = errorCount
	batch.ErrorLog = errorLog
	return nil
}

func (s *stubRepo) GetBatch(ctx context.Context, batchID int64) (*model.UploadBatch, error) {
	batch, ok := s.batches[batchID]
	if !ok {
		return nil, apperrors.ErrBatchNotFound
	}
	return batch, nil
}

func (s *stubRepo) ListRecentBatches(ctx context.Context, limit int) ([]model.UploadBatch, error) {
	var out []model.UploadBatch
	for _, b := range s.batches {
		out = append(out, *b)
	}
	return out, nil
}

func (s *stubRepo) FindEligibleReviewer(ctx context.Context, email, mobile string) (int64, error) {
	if email == "known@example.com" || mobile == "9876543210" {
		return 7, nil
	}
	return 0, apperrors.ErrNoEligibleReviewer
}

func (s *stubRepo) CreateTaskWithSteps(ctx context.Context, task *model.Task, steps []model.TaskStep) (int64, error) {
	s.nextTaskID++
	s.taskCount++
	s.stepCount += len(steps)
	return s.nextTaskID, nil
}

func (s *stubRepo) GetAdminSession(ctx context.Context, token string) (*model.AdminSession, error) {
	if token != testToken {
		return nil, apperrors.ErrSessionNotFound
	}
	return &model.AdminSession{
		Token:     testToken,
		AdminID:   1,
		CSRFToken: testCSRF,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (s *stubRepo) InsertNotification(ctx context.Context, n *model.Notification) error {
	return nil
}

type fakeArchive struct {
	objects map[string][]byte
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{objects: make(map[string][]byte)}
}

func (f *fakeArchive) Upload(ctx context.Context, key string, data io.Reader) error {
	content, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.objects[key] = content
	return nil
}

func (f *fakeArchive) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	content, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", key)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

type stubNotifier struct {
	sent int
}

func (s *stubNotifier) Send(ctx context.Context, n model.Notification) error {
	s.sent++
	return nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *stubRepo, *stubNotifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newStubRepo()
	notifier := &stubNotifier{}
	pipeline := ingest.NewPipeline(repo, notifier, nil)
	cfg := &config.Config{}
	cfg.App.Name = "reviewflow-admin"
	cfg.App.Version = "test"

	handler := NewHandler(repo, pipeline, nil, cfg)

	router := gin.New()
	router.Use(RecoveryMiddleware())
	SetupRoutes(router, handler, repo)

	return router, repo, notifier
}

func multipartFile(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func doUpload(t *testing.T, router *gin.Engine, filename, content string, authorize bool, csrf string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartFile(t, filename, content)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/tasks/bulk-upload", body)
	req.Header.Set("Content-Type", contentType)
	if authorize {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	if csrf != "" {
		req.Header.Set("X-CSRF-Token", csrf)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

const validCSV = "brand_name,product_name,product_url,reward_amount,reviewer_email\n" +
	"Acme,Widget,https://shop.example.com/widget,25.50,known@example.com\n"

func TestBulkUploadRequiresAuth(t *testing.T) {
	router, _, _ := newTestRouter(t)

	recorder := doUpload(t, router, "tasks.csv", validCSV, false, testCSRF)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestBulkUploadRejectsBadCSRF(t *testing.T) {
	router, _, _ := newTestRouter(t)

	recorder := doUpload(t, router, "tasks.csv", validCSV, true, "wrong-token")

	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestBulkUploadRejectsMissingFile(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/tasks/bulk-upload", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("X-CSRF-Token", testCSRF)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "No file uploaded")
}

func TestBulkUploadRejectsUnsupportedExtension(t *testing.T) {
	router, _, _ := newTestRouter(t)

	recorder := doUpload(t, router, "tasks.txt", validCSV, true, testCSRF)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Unsupported file type")
}

func TestBulkUploadMissingColumnReturns400(t *testing.T) {
	router, repo, _ := newTestRouter(t)

	csv := "brand_name,product_name,product_url,reviewer_email\n" +
		"Acme,Widget,https://shop.example.com/widget,known@example.com\n"

	recorder := doUpload(t, router, "tasks.csv", csv, true, testCSRF)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Missing required column: reward_amount")

	// Batch record exists and is marked failed, never left processing.
	batch, err := repo.GetBatch(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusFailed, batch.Status)
}

func TestBulkUploadHappyPath(t *testing.T) {
	router, repo, notifier := newTestRouter(t)

	recorder := doUpload(t, router, "tasks.csv", validCSV, true, testCSRF)

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp struct {
		Success      bool               `json:"success"`
		BatchID      int64              `json:"batch_id"`
		TotalRows    int                `json:"total_rows"`
		SuccessCount int                `json:"success_count"`
		ErrorCount   int                `json:"error_count"`
		Errors       []model.RowFailure `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.TotalRows)
	assert.Equal(t, 1, resp.SuccessCount)
	assert.Equal(t, 0, resp.ErrorCount)
	assert.Empty(t, resp.Errors)

	assert.Equal(t, 1, repo.taskCount)
	assert.Equal(t, len(ingest.DefaultTaskSteps), repo.stepCount)
	assert.Equal(t, 1, notifier.sent)
}

func TestBulkUploadReportsRowFailures(t *testing.T) {
	router, repo, _ := newTestRouter(t)

	csv := validCSV + "Acme,Widget,https://shop.example.com/widget,25.50,stranger@example.com\n"

	recorder := doUpload(t, router, "tasks.csv", csv, true, testCSRF)

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp struct {
		Success      bool               `json:"success"`
		SuccessCount int                `json:"success_count"`
		ErrorCount   int                `json:"error_count"`
		Errors       []model.RowFailure `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.SuccessCount)
	assert.Equal(t, 1, resp.ErrorCount)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, 3, resp.Errors[0].Row)
	assert.Equal(t, "could not find or create user", resp.Errors[0].Error)
	assert.Equal(t, 1, repo.taskCount)
}

func TestGetBatchStatus(t *testing.T) {
	router, _, _ := newTestRouter(t)

	doUpload(t, router, "tasks.csv", validCSV, true, testCSRF)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/batches/1", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp model.BatchStatusResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.BatchID)
	assert.Equal(t, string(model.BatchStatusCompleted), resp.Status)
	assert.Equal(t, 1, resp.SuccessCount)
}

func newTestRouterWithArchive(t *testing.T) (*gin.Engine, *fakeArchive) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newStubRepo()
	archive := newFakeArchive()
	pipeline := ingest.NewPipeline(repo, &stubNotifier{}, nil)
	cfg := &config.Config{}
	cfg.App.Name = "reviewflow-admin"
	cfg.App.Version = "test"

	handler := NewHandler(repo, pipeline, archive, cfg)

	router := gin.New()
	router.Use(RecoveryMiddleware())
	SetupRoutes(router, handler, repo)

	return router, archive
}

func TestDownloadBatchFile(t *testing.T) {
	router, archive := newTestRouterWithArchive(t)

	recorder := doUpload(t, router, "tasks.csv", validCSV, true, testCSRF)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Len(t, archive.objects, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/batches/1/file", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)

	download := httptest.NewRecorder()
	router.ServeHTTP(download, req)

	require.Equal(t, http.StatusOK, download.Code)
	assert.Equal(t, validCSV, download.Body.String())
	assert.Contains(t, download.Header().Get("Content-Disposition"), "tasks.csv")
}

func TestDownloadBatchFileWithoutArchive(t *testing.T) {
	// Archival is best-effort; a batch ingested while storage was down
	// has no file to return.
	router, _, _ := newTestRouter(t)

	doUpload(t, router, "tasks.csv", validCSV, true, testCSRF)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/batches/1/file", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "No archived file")
}

func TestGetBatchNotFound(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/batches/999", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestHealthCheckIsPublic(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "healthy")
}
