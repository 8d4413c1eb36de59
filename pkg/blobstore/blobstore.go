// Package blobstore defines the pluggable content store behind
// spec.md §4.3/§6: a flat, entity-id-addressed store of opaque blob
// content, independent of the catalog. Three backends satisfy it:
// pkg/blobstore/fs (a local directory), pkg/blobstore/s3 (an
// S3-compatible bucket), and pkg/blobstore/cache (either backend
// wrapped in a local read-through cache).
package blobstore

import (
	"context"
	"io"
)

// Writer streams a new blob's bytes. Write may be called any number
// of times; Close commits the blob atomically, Abort discards it.
// Exactly one of Close or Abort must be called, and not both.
type Writer interface {
	io.Writer
	Close() error
	Abort(reason error) error
}

// Store is the contract every blob-store backend implements. All
// methods address one entity within one bucket; callers are
// responsible for allocating a fresh EntityId per spec.md §3 before
// calling NewWriter.
type Store interface {
	// NewWriter opens a blob for writing. The blob is not visible to
	// Reader until Close succeeds.
	NewWriter(ctx context.Context, bucket, entityID string) (Writer, error)

	// Reader opens a blob for reading. Implementations return a
	// storeerr FileNotFound error when entityID has no blob.
	Reader(ctx context.Context, bucket, entityID string) (io.ReadCloser, error)

	// Remove deletes a blob. Removing an already-absent blob is not
	// an error (idempotent cleanup per spec.md §4.5).
	Remove(ctx context.Context, bucket, entityID string) error

	// Stat reports a blob's size without opening it for reading.
	Stat(ctx context.Context, bucket, entityID string) (size int64, err error)
}
