// Package storage holds the document blob backends. Metadata lives in the
// document store; only the raw file bytes go here.
package storage

import "context"

// BlobStore writes and reads uploaded document files by opaque key.
type BlobStore interface {
	Put(ctx context.Context, key string, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
