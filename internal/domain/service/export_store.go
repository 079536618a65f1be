package service

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned when no document is stored under a key.
var ErrObjectNotFound = errors.New("export document not found")

// ExportStore persists encoded import/export documents outside the database.
type ExportStore interface {
	// Write stores data under key.
	Write(ctx context.Context, key string, data []byte) error

	// Read loads the data stored under key.
	Read(ctx context.Context, key string) ([]byte, error)

	// List returns keys with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Close releases the underlying bucket.
	Close() error
}
