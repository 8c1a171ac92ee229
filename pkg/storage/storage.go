package storage

import (
	"context"
	"errors"
	"time"
)

// ErrObjectNotFound is returned by Stat when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStore issues scoped, time-limited credentials against one bucket.
// The orchestrator never moves video bytes itself; clients transfer
// directly against storage with these credentials.
type ObjectStore interface {
	PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (string, error)
	PresignPost(ctx context.Context, key, contentType string, maxSize int64, expiry time.Duration) (url string, fields map[string]string, err error)
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	Stat(ctx context.Context, key string) (ObjectInfo, error)
}
