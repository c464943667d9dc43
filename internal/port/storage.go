package port

import (
	"context"
	"io"
	"time"
)

// ArchiveObject describes one artifact pushed to object storage.
type ArchiveObject struct {
	Key         string
	Body        io.Reader
	ContentType string
	Size        int64
}

// ObjectStorage abstracts the bucket completed artifacts are archived to.
type ObjectStorage interface {
	Upload(ctx context.Context, obj ArchiveObject) (string, error)
	DeletePrefix(ctx context.Context, prefix string) error
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
