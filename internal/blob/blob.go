// Package blob provides named-object storage for snapshots and safety
// backups on top of an S3-compatible endpoint.
package blob

import (
	"context"
	"time"
)

// ObjectInfo describes one stored snapshot object.
type ObjectInfo struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Store is get/put over named blobs, plus listing for operator tooling.
type Store interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, data []byte) error
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}
