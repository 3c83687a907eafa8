package storage

import (
	"context"

	"github.com/sashko-guz/splitter/internal/storage/drivers"
)

// ErrNotFound is returned by drivers when a key does not exist
var ErrNotFound = drivers.ErrNotFound

// Storage reads source images and writes cropped output.
// Keys are slash-separated paths; drivers map them onto their backend.
type Storage interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
	PutObject(ctx context.Context, key string, data []byte) error
}
