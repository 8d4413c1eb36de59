// Package fs is a blobstore.Store backed by a local directory tree:
// <basePath>/<bucket>/main/<entityId>.
package fs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/bucketfs/bucketfs/internal/telemetry"
	"github.com/bucketfs/bucketfs/pkg/blobstore"
	"github.com/bucketfs/bucketfs/pkg/storeerr"
)

// Store is a filesystem-backed blobstore.Store. Blobs are written to
// a scratch file and renamed into place, so a reader never observes a
// partially written blob.
type Store struct {
	basePath string
	dirMode  os.FileMode
	fileMode os.FileMode
}

// Config configures a filesystem Store.
type Config struct {
	// BasePath is the storage root; buckets are subdirectories of it.
	BasePath string
	// DirMode is the permission mode for created directories. Default: 0755.
	DirMode os.FileMode
	// FileMode is the permission mode for written blobs. Default: 0644.
	FileMode os.FileMode
}

// New creates a filesystem-backed Store rooted at cfg.BasePath,
// creating it if it does not already exist.
func New(cfg Config) (*Store, error) {
	if cfg.BasePath == "" {
		return nil, errors.New("blobstore/fs: base path is required")
	}
	if cfg.DirMode == 0 {
		cfg.DirMode = 0o755
	}
	if cfg.FileMode == 0 {
		cfg.FileMode = 0o644
	}
	if err := os.MkdirAll(cfg.BasePath, cfg.DirMode); err != nil {
		return nil, err
	}
	return &Store{basePath: cfg.BasePath, dirMode: cfg.DirMode, fileMode: cfg.FileMode}, nil
}

func (s *Store) blobPath(bucket, entityID string) string {
	return filepath.Join(s.basePath, bucket, "main", entityID)
}

// NewWriter opens entityID for writing via a scratch-file-then-rename
// sequence, matching the ".crswap"-style transactionality spec.md §4.3
// describes for the host filesystem's writable-stream contract.
func (s *Store) NewWriter(ctx context.Context, bucket, entityID string) (blobstore.Writer, error) {
	_, span := telemetry.StartBlobSpan(ctx, telemetry.SpanBlobPut, entityID, telemetry.Bucket(bucket), telemetry.StoreType("fs"))
	defer span.End()

	path := s.blobPath(bucket, entityID)
	if err := os.MkdirAll(filepath.Dir(path), s.dirMode); err != nil {
		err = storeerr.NewOther("blobstore/fs: mkdir: " + err.Error())
		telemetry.RecordError(ctx, err)
		return nil, err
	}

	scratch := path + ".crswap"
	f, err := os.OpenFile(scratch, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, s.fileMode)
	if err != nil {
		err = storeerr.NewOther("blobstore/fs: open scratch: " + err.Error())
		telemetry.RecordError(ctx, err)
		return nil, err
	}
	return &writer{f: f, scratchPath: scratch, finalPath: path}, nil
}

type writer struct {
	f           *os.File
	scratchPath string
	finalPath   string
	done        bool
}

func (w *writer) Write(p []byte) (int, error) {
	if w.done {
		return 0, storeerr.NewClosed("blob writer")
	}
	return w.f.Write(p)
}

func (w *writer) Close() error {
	if w.done {
		return storeerr.NewClosed("blob writer")
	}
	w.done = true

	if err := w.f.Sync(); err != nil {
		w.f.Close()
		os.Remove(w.scratchPath)
		return storeerr.NewOther("blobstore/fs: sync: " + err.Error())
	}
	if err := w.f.Close(); err != nil {
		os.Remove(w.scratchPath)
		return storeerr.NewOther("blobstore/fs: close: " + err.Error())
	}
	if err := os.Rename(w.scratchPath, w.finalPath); err != nil {
		os.Remove(w.scratchPath)
		return storeerr.NewOther("blobstore/fs: rename: " + err.Error())
	}
	return nil
}

func (w *writer) Abort(reason error) error {
	if w.done {
		return storeerr.NewClosed("blob writer")
	}
	w.done = true
	w.f.Close()
	if err := os.Remove(w.scratchPath); err != nil && !os.IsNotExist(err) {
		return storeerr.NewOther("blobstore/fs: abort cleanup: " + err.Error())
	}
	return nil
}

// Reader opens entityID for reading.
func (s *Store) Reader(ctx context.Context, bucket, entityID string) (io.ReadCloser, error) {
	ctx, span := telemetry.StartBlobSpan(ctx, telemetry.SpanBlobGet, entityID, telemetry.Bucket(bucket), telemetry.StoreType("fs"))
	defer span.End()

	f, err := os.Open(s.blobPath(bucket, entityID))
	if err != nil {
		if os.IsNotExist(err) {
			err = storeerr.NewFileNotFound(bucket, entityID)
		} else {
			err = storeerr.NewOther("blobstore/fs: open: " + err.Error())
		}
		telemetry.RecordError(ctx, err)
		return nil, err
	}
	return f, nil
}

// Remove deletes entityID's blob. Absence is not an error.
func (s *Store) Remove(ctx context.Context, bucket, entityID string) error {
	ctx, span := telemetry.StartBlobSpan(ctx, telemetry.SpanBlobDelete, entityID, telemetry.Bucket(bucket), telemetry.StoreType("fs"))
	defer span.End()

	err := os.Remove(s.blobPath(bucket, entityID))
	if err != nil && !os.IsNotExist(err) {
		err = storeerr.NewOther("blobstore/fs: remove: " + err.Error())
		telemetry.RecordError(ctx, err)
		return err
	}
	return nil
}

// Stat reports entityID's blob size.
func (s *Store) Stat(ctx context.Context, bucket, entityID string) (int64, error) {
	ctx, span := telemetry.StartBlobSpan(ctx, telemetry.SpanBlobStat, entityID, telemetry.Bucket(bucket), telemetry.StoreType("fs"))
	defer span.End()

	info, err := os.Stat(s.blobPath(bucket, entityID))
	if err != nil {
		if os.IsNotExist(err) {
			err = storeerr.NewFileNotFound(bucket, entityID)
		} else {
			err = storeerr.NewOther("blobstore/fs: stat: " + err.Error())
		}
		telemetry.RecordError(ctx, err)
		return 0, err
	}
	return info.Size(), nil
}

var _ blobstore.Store = (*Store)(nil)
