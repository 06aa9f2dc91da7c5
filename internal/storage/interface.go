package storage

import (
	"context"
	"io"
)

type Storage interface {
	Upload(ctx context.Context, key string, data io.Reader) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}
