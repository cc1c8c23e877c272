// Package storage keeps raw provider payloads in S3-compatible object storage
// so a cycle's input can be inspected after normalization.
package storage

import (
	"context"
	"io"
)

// ObjectStorage is the bucket operation the archive needs. Payloads are
// write-only from the service's point of view; replay reads the bucket with
// standard S3 tooling.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
}
