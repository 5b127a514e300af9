// Package store abstracts the durable object store holding the per-table
// artifacts and the single manifest object.
package store

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Get for absent keys. The first publication
// cycle ever sees it when fetching the previous manifest.
var ErrNotFound = errors.New("object not found")

type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}
