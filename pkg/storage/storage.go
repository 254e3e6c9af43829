package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clauselens/docserver/pkg/logger"
)

// Backend selects a blob store implementation.
type Backend string

const (
	BackendS3    Backend = "s3"
	BackendMinio Backend = "minio"
)

var (
	// ErrUnavailable means the backing store cannot be reached. The
	// caller decides whether to retry; the adapters never do.
	ErrUnavailable = errors.New("blob store unavailable")
	// ErrPayloadTooLarge means the payload exceeds the configured ceiling.
	ErrPayloadTooLarge = errors.New("payload exceeds size limit")
)

// BlobStore is durable keyed storage for uploaded bytes. Put returns an
// opaque locator of the form s3://bucket/key that Get accepts back.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, locator string) ([]byte, error)
	Delete(ctx context.Context, locator string) error
}

// NewBlobStore is the factory for blob store backends.
func NewBlobStore(backend Backend, maxBytes int64, log logger.Logger) (BlobStore, error) {
	switch backend {
	case BackendS3:
		return NewS3Store(maxBytes, log)
	case BackendMinio:
		return NewMinioStore(maxBytes, log)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", backend)
	}
}

// Locator formats a bucket and key as an opaque blob locator.
func Locator(bucket, key string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, key)
}

// ParseLocator splits a blob locator back into bucket and key.
func ParseLocator(locator string) (bucket, key string, err error) {
	trimmed, ok := strings.CutPrefix(locator, "s3://")
	if !ok {
		return "", "", fmt.Errorf("malformed blob locator: %s", locator)
	}
	bucket, key, ok = strings.Cut(trimmed, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("malformed blob locator: %s", locator)
	}
	return bucket, key, nil
}
