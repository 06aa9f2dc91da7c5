package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/thepalians/reviewer-sub002/internal/db"
	"github.com/thepalians/reviewer-sub002/internal/logger"
	"github.com/thepalians/reviewer-sub002/internal/model"
	"github.com/thepalians/reviewer-sub002/internal/notify"
	"github.com/thepalians/reviewer-sub002/pkg/errors"

	"github.com/rs/zerolog"
)

// Pipeline drives one bulk upload end to end: register the batch, check
// the header, then validate, resolve and persist each row independently.
// One bad row never aborts the batch; a bad header aborts it before any
// row is touched. The batch record is finalized on every exit path,
// including panics.
type Pipeline struct {
	repo      db.Repository
	validator *Validator
	writer    *TaskWriter
	log       zerolog.Logger
}

func NewPipeline(repo db.Repository, notifier notify.Notifier, steps []string) *Pipeline {
	return &Pipeline{
		repo:      repo,
		validator: NewValidator(),
		writer:    NewTaskWriter(repo, notifier, steps),
		log:       logger.Get(),
	}
}

func (p *Pipeline) Run(ctx context.Context, adminID int64, filename string, archivePath *string, reader RowReader, data []byte) (result *model.BatchResult, err error) {
	batchID, err := p.repo.CreateBatch(ctx, &model.UploadBatch{
		Filename:    filename,
		ArchivePath: archivePath,
		Status:      model.BatchStatusProcessing,
		UploadedBy:  adminID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create upload batch: %w", err)
	}

	log := p.log.With().Int64("batch_id", batchID).Str("filename", filename).Logger()

	res := &model.BatchResult{
		BatchID: batchID,
		Errors:  []model.RowFailure{},
	}

	// The batch must never be left in processing. Anything escaping the
	// row loop marks it failed and surfaces as a fatal error.
	finalized := false
	defer func() {
		if r := recover(); r != nil {
			detail := fmt.Sprintf("unexpected error during batch processing: %v", r)
			log.Error().Str("panic", detail).Msg("Bulk upload aborted")
			p.finalizeFailed(ctx, batchID, res, detail)
			finalized = true
			result = nil
			err = fmt.Errorf("%s", detail)
			return
		}
		if !finalized {
			p.finalizeFailed(ctx, batchID, res, "batch processing ended without finalization")
		}
	}()

	rows, readErr := reader.Rows(data)
	if readErr != nil {
		msg := fmt.Sprintf("Unable to read file: %v", readErr)
		p.finalizeFailed(ctx, batchID, res, msg)
		finalized = true
		return nil, errors.NewBatchError(readErr, msg)
	}

	if len(rows) == 0 {
		p.finalizeFailed(ctx, batchID, res, errors.ErrEmptyFile.Error())
		finalized = true
		return nil, errors.NewBatchError(errors.ErrEmptyFile, "File is empty")
	}

	columnMap := make(map[string]int)
	for i, col := range rows[0] {
		columnMap[normalizeColumn(col)] = i
	}

	for _, col := range RequiredColumns {
		if _, ok := columnMap[col]; !ok {
			msg := fmt.Sprintf("Missing required column: %s", col)
			p.finalizeFailed(ctx, batchID, res, msg)
			finalized = true
			return nil, errors.NewBatchError(errors.ErrMissingColumn, msg)
		}
	}

	for i, cells := range rows[1:] {
		rowNum := i + 2 // 1-based file row, header is row 1

		raw := buildRawRow(cells, columnMap)
		if isBlankRow(raw) {
			continue
		}

		res.TotalRows++

		if rowErr := p.processRow(ctx, adminID, raw); rowErr != nil {
			log.Debug().Int("row", rowNum).Str("reason", rowErr.Error()).Msg("Row failed")
			res.ErrorCount++
			res.Errors = append(res.Errors, model.RowFailure{Row: rowNum, Error: rowErr.Error()})
			continue
		}

		res.SuccessCount++
	}

	errorLog := encodeErrorLog(res.Errors)
	if finErr := p.repo.FinalizeBatch(ctx, batchID, model.BatchStatusCompleted,
		res.TotalRows, res.SuccessCount, res.ErrorCount, errorLog); finErr != nil {
		log.Error().Err(finErr).Msg("Failed to finalize upload batch")
	}
	finalized = true

	log.Info().
		Int("total_rows", res.TotalRows).
		Int("success_count", res.SuccessCount).
		Int("error_count", res.ErrorCount).
		Msg("Bulk upload completed")

	return res, nil
}

// processRow runs one row through validation, reviewer resolution and
// persistence. Any returned error is recorded against the row and the
// batch moves on.
func (p *Pipeline) processRow(ctx context.Context, adminID int64, raw RawRow) error {
	if err := p.validator.Validate(raw); err != nil {
		return err
	}

	row := ParseRow(raw)

	reviewerID, err := p.repo.FindEligibleReviewer(ctx, row.ReviewerEmail, row.ReviewerMobile)
	if err != nil {
		// Uploads never provision accounts; an unknown contact fails
		// the row.
		return errors.ErrNoEligibleReviewer
	}

	taskID, err := p.writer.Persist(ctx, reviewerID, adminID, row)
	if err != nil {
		return fmt.Errorf("failed to save task: %v", err)
	}

	p.writer.Notify(ctx, reviewerID, taskID, row)

	return nil
}

func (p *Pipeline) finalizeFailed(ctx context.Context, batchID int64, res *model.BatchResult, reason string) {
	if err := p.repo.FinalizeBatch(ctx, batchID, model.BatchStatusFailed,
		res.TotalRows, res.SuccessCount, res.ErrorCount, &reason); err != nil {
		p.log.Error().Err(err).Int64("batch_id", batchID).Msg("Failed to mark batch as failed")
	}
}

func buildRawRow(cells []string, columnMap map[string]int) RawRow {
	raw := make(RawRow, len(columnMap))
	for col, idx := range columnMap {
		if idx < len(cells) {
			raw[col] = strings.TrimSpace(cells[idx])
		} else {
			raw[col] = ""
		}
	}
	return raw
}

// isBlankRow reports whether every mapped cell is empty. Blank rows are
// skipped entirely: they count neither as successes nor as errors.
func isBlankRow(raw RawRow) bool {
	for _, v := range raw {
		if v != "" {
			return false
		}
	}
	return true
}

func encodeErrorLog(failures []model.RowFailure) *string {
	if len(failures) == 0 {
		return nil
	}
	data, err := json.Marshal(failures)
	if err != nil {
		return nil
	}
	s := string(data)
	return &s
}
