package object

import (
	"context"
	"io"
)

// ObjectStore defines the contract for saving rendered documents.
type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, r io.Reader) (sizeBytes int64, err error)
}
