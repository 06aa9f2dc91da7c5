package errors

import (
	"errors"
	"fmt"
)

var (
	ErrBatchNotFound      = errors.New("upload batch not found")
	ErrUnsupportedFormat  = errors.New("unsupported file format")
	ErrEmptyFile          = errors.New("file is empty")
	ErrMissingColumn      = errors.New("missing required column")
	ErrNoEligibleReviewer = errors.New("could not find or create user")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)

// BatchError is a fatal, batch-level ingestion failure (unreadable file,
// missing required column). The whole upload is rejected before any row
// is processed.
type BatchError struct {
	Err     error
	Message string
}

func (e BatchError) Error() string {
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e BatchError) Unwrap() error {
	return e.Err
}

func NewBatchError(err error, format string, args ...interface{}) error {
	return BatchError{Err: err, Message: fmt.Sprintf(format, args...)}
}
