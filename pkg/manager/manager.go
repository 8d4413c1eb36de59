// Package manager implements the Entity Coordinator (spec.md §4.5):
// the top-level façade pairing blob writes with catalog writes,
// orchestrating compensating cleanup on every failure edge, and
// self-healing catalog rows left dangling by a missing blob.
package manager

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/bucketfs/bucketfs/internal/logger"
	"github.com/bucketfs/bucketfs/internal/telemetry"
	"github.com/bucketfs/bucketfs/pkg/blobstore"
	"github.com/bucketfs/bucketfs/pkg/catalog"
	"github.com/bucketfs/bucketfs/pkg/metricsx"
	"github.com/bucketfs/bucketfs/pkg/mutex"
	"github.com/bucketfs/bucketfs/pkg/storeerr"
	"github.com/bucketfs/bucketfs/pkg/stream"
)

// FileIdent names one committed object.
type FileIdent struct {
	BucketName string
	FilePath   string
}

// File is the result of ReadFile: side-metadata plus a lazily opened
// content stream. Description and Metadata are fetched back through
// the catalog on demand rather than eagerly, matching spec §4.5.
type File struct {
	Ident        FileIdent
	Size         int64
	MimeType     string
	Checksum     string
	LastModified int64

	body io.ReadCloser
	mgr  *Manager
}

// Reader returns the object's content stream. The caller owns it and
// must Close it.
func (f *File) Reader() io.ReadCloser { return f.body }

// Description fetches the object's description back through the catalog.
func (f *File) Description(ctx context.Context) (*string, error) {
	return f.mgr.cat.ReadDescription(ctx, f.Ident.FilePath)
}

// Metadata fetches the object's metadata back through the catalog,
// decoding it into out. It reports false if no metadata is stored.
func (f *File) Metadata(ctx context.Context, out any) (bool, error) {
	return f.mgr.cat.ReadMetadata(ctx, f.Ident.FilePath, out)
}

// WriteOptions carries the side-metadata fields accepted by WriteFile
// and CreateWritable. The Has* flags distinguish "not supplied" from
// "supplied as zero value".
type WriteOptions struct {
	MimeType       string
	HasMimeType    bool
	Description    *string
	HasDescription bool
	Metadata       any
	HasMetadata    bool
}

// OverwriteOptions carries OverwriteFile's fields. When HasData is
// false the call is metadata-only and no blob is rotated.
type OverwriteOptions struct {
	Data           []byte
	HasData        bool
	MimeType       string
	HasMimeType    bool
	Description    *string
	HasDescription bool
	Metadata       any
	HasMetadata    bool
}

// Manager is the Entity Coordinator for one bucket: it holds the
// catalog engine and blob store for that bucket and serializes every
// public operation through its own reader/writer scheduler.
type Manager struct {
	bucketName string
	cat        *catalog.Engine
	blobs      blobstore.Store
	sched      *mutex.Scheduler
	opened     atomic.Bool
	metrics    *metricsx.Metrics
}

// Option configures optional Manager behavior at construction time.
type Option func(*Manager)

// WithMetrics attaches a metrics sink. A nil metrics (the default) makes
// every recording call a no-op.
func WithMetrics(metrics *metricsx.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// New constructs a Manager. Open must be called before any other method.
func New(bucketName string, cat *catalog.Engine, blobs blobstore.Store, opts ...Option) *Manager {
	m := &Manager{bucketName: bucketName, cat: cat, blobs: blobs, sched: mutex.New()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// recordQueueDepth reports the scheduler's current queue depth to the
// metrics sink. Called after scheduling an operation so the sample
// reflects contention at submission time.
func (m *Manager) recordQueueDepth() {
	if m.metrics == nil {
		return
	}
	m.metrics.RecordMutexQueueDepth(m.bucketName, m.sched.QueueDepth())
}

// Opened reports whether Open has succeeded without a matching Close.
// This is the narrow capability streams use to detect a concurrent
// manager shutdown (stream.OpenChecker).
func (m *Manager) Opened() bool { return m.opened.Load() }

// Open connects the catalog and marks the manager ready. Idempotent.
func (m *Manager) Open(ctx context.Context) error {
	var outErr error
	m.sched.RunWrite(func() {
		if m.opened.Load() {
			return
		}
		if err := m.cat.Connect(ctx); err != nil {
			outErr = err
			return
		}
		m.opened.Store(true)
	})
	return outErr
}

// Close disconnects the catalog and marks the manager closed.
func (m *Manager) Close(ctx context.Context) error {
	var outErr error
	m.sched.RunWrite(func() {
		if !m.opened.Load() {
			outErr = storeerr.NewClosed("manager")
			return
		}
		outErr = m.cat.Disconnect(ctx)
		m.opened.Store(false)
	})
	return outErr
}

func optString(has bool, v string) catalog.Optional[string] {
	if !has {
		return catalog.Optional[string]{}
	}
	return catalog.Some(v)
}

func optDescription(has bool, v *string) catalog.Optional[*string] {
	if !has {
		return catalog.Optional[*string]{}
	}
	return catalog.Some(v)
}

func optMetadata(has bool, v any) catalog.Optional[any] {
	if !has {
		return catalog.Optional[any]{}
	}
	return catalog.Some(v)
}

func (m *Manager) streamOptions(opts WriteOptions) stream.Options {
	return stream.Options{
		MimeType:       opts.MimeType,
		HasMimeType:    opts.HasMimeType,
		Description:    opts.Description,
		HasDescription: opts.HasDescription,
		Metadata:       opts.Metadata,
		HasMetadata:    opts.HasMetadata,
	}
}

// WriteFile writes data as a brand-new object at path. On blob-write
// failure the blob is aborted and the fault rethrown; on catalog
// failure (duplicate fullpath surfaces FileExists) the blob is
// removed and the fault rethrown.
func (m *Manager) WriteFile(ctx context.Context, path string, data []byte, opts WriteOptions) (FileIdent, error) {
	ctx, span := telemetry.StartManagerSpan(ctx, telemetry.SpanManagerCreate, m.bucketName, path, telemetry.Size(int64(len(data))))
	defer span.End()
	start := time.Now()

	var outErr error
	m.recordQueueDepth()
	m.sched.RunWrite(func() {
		if !m.opened.Load() {
			outErr = storeerr.NewClosed("manager")
			return
		}

		entityID := uuid.NewString()
		sum := md5.Sum(data)
		checksum := hex.EncodeToString(sum[:])

		w, err := m.blobs.NewWriter(ctx, m.bucketName, entityID)
		if err != nil {
			outErr = err
			return
		}
		if _, werr := w.Write(data); werr != nil {
			if aerr := w.Abort(werr); aerr != nil {
				logger.Error("manager: abort writer after write failure", "error", aerr)
			}
			outErr = werr
			return
		}
		if cerr := w.Close(); cerr != nil {
			outErr = cerr
			return
		}

		var mimeType string
		if opts.HasMimeType {
			mimeType = opts.MimeType
		}
		var description *string
		if opts.HasDescription {
			description = opts.Description
		}
		var metadata any
		if opts.HasMetadata {
			metadata = opts.Metadata
		}

		createErr := m.cat.Create(ctx, path, catalog.CreateInput{
			EntityID:    entityID,
			Checksum:    checksum,
			MimeType:    mimeType,
			FileSize:    int64(len(data)),
			Description: description,
			Metadata:    metadata,
		})
		if createErr != nil {
			if rerr := m.blobs.Remove(ctx, m.bucketName, entityID); rerr != nil {
				logger.Error("manager: remove blob after catalog create failure", "error", rerr)
			}
			outErr = createErr
			return
		}
		m.metrics.ObserveBlobOperation("put", "blob", int64(len(data)), 0, nil)
	})
	m.metrics.ObserveCatalogOperation("create", time.Since(start), outErr)
	if outErr != nil {
		telemetry.RecordError(ctx, outErr)
		return FileIdent{}, outErr
	}
	return FileIdent{BucketName: m.bucketName, FilePath: path}, nil
}

// CreateWritable allocates a fresh entity and opens its blob for
// streaming writes, returning a WritableFileStream the caller drives
// to completion. If opening the blob writer fails, the entity is
// removed defensively before the fault is rethrown.
func (m *Manager) CreateWritable(ctx context.Context, path string, opts WriteOptions) (*stream.WritableFileStream, error) {
	ctx, span := telemetry.StartManagerSpan(ctx, telemetry.SpanManagerCreate, m.bucketName, path)
	defer span.End()

	var out *stream.WritableFileStream
	var outErr error
	m.recordQueueDepth()
	m.sched.RunWrite(func() {
		if !m.opened.Load() {
			outErr = storeerr.NewClosed("manager")
			return
		}

		entityID := uuid.NewString()
		w, err := m.blobs.NewWriter(ctx, m.bucketName, entityID)
		if err != nil {
			if rerr := m.blobs.Remove(ctx, m.bucketName, entityID); rerr != nil {
				logger.Error("manager: remove entity after writer open failure", "error", rerr)
			}
			outErr = err
			return
		}
		out = stream.NewWritableFileStream(ctx, m.blobs, m.cat, m, m.bucketName, path, entityID, w, m.streamOptions(opts))
	})
	if outErr != nil {
		telemetry.RecordError(ctx, outErr)
	}
	return out, outErr
}

// ReadFile reads path's catalog row and opens its blob. A dangling
// row (blob missing) is self-healed: the row is deleted and
// FileNotFound is raised instead of the underlying not-found fault.
func (m *Manager) ReadFile(ctx context.Context, path string) (*File, error) {
	ctx, span := telemetry.StartManagerSpan(ctx, telemetry.SpanManagerRead, m.bucketName, path)
	defer span.End()
	start := time.Now()

	var out *File
	var outErr error
	m.recordQueueDepth()
	m.sched.RunRead(func() {
		if !m.opened.Load() {
			outErr = storeerr.NewClosed("manager")
			return
		}

		rec, err := m.cat.Read(ctx, path)
		if err != nil {
			outErr = err
			return
		}

		body, err := m.blobs.Reader(ctx, m.bucketName, rec.EntityID)
		if err != nil {
			if storeerr.IsNotFound(err) {
				if derr := m.cat.Delete(ctx, path); derr != nil && !storeerr.IsNotFound(derr) {
					logger.Error("manager: self-heal dangling row failed", "error", derr)
				}
				outErr = storeerr.NewFileNotFound(m.bucketName, path)
				return
			}
			outErr = err
			return
		}

		out = &File{
			Ident:        FileIdent{BucketName: m.bucketName, FilePath: path},
			Size:         rec.FileSize,
			MimeType:     rec.MimeType,
			Checksum:     rec.Checksum,
			LastModified: rec.LastModified,
			body:         body,
			mgr:          m,
		}
	})
	m.metrics.ObserveCatalogOperation("read", time.Since(start), outErr)
	if outErr != nil {
		telemetry.RecordError(ctx, outErr)
	}
	return out, outErr
}

// MoveFile renames src to dst. Pure metadata operation; no blob I/O.
func (m *Manager) MoveFile(ctx context.Context, src, dst string) (FileIdent, error) {
	ctx, span := telemetry.StartManagerSpan(ctx, telemetry.SpanManagerMove, m.bucketName, src, telemetry.Path(dst))
	defer span.End()
	start := time.Now()

	var outErr error
	m.recordQueueDepth()
	m.sched.RunWrite(func() {
		if !m.opened.Load() {
			outErr = storeerr.NewClosed("manager")
			return
		}
		outErr = m.cat.Move(ctx, src, dst)
	})
	m.metrics.ObserveCatalogOperation("move", time.Since(start), outErr)
	if outErr != nil {
		telemetry.RecordError(ctx, outErr)
		return FileIdent{}, outErr
	}
	return FileIdent{BucketName: m.bucketName, FilePath: dst}, nil
}

// CopyFile duplicates src's blob under a fresh entity id and clones
// its catalog row to dst. A dangling src row is self-healed. Failure
// after the new blob is written removes it.
func (m *Manager) CopyFile(ctx context.Context, src, dst string) (FileIdent, error) {
	ctx, span := telemetry.StartManagerSpan(ctx, telemetry.SpanManagerCopy, m.bucketName, src)
	defer span.End()
	start := time.Now()

	var outErr error
	m.recordQueueDepth()
	m.sched.RunWrite(func() {
		if !m.opened.Load() {
			outErr = storeerr.NewClosed("manager")
			return
		}

		entityID, err := m.cat.ReadEntityID(ctx, src)
		if err != nil {
			outErr = err
			return
		}

		srcReader, err := m.blobs.Reader(ctx, m.bucketName, entityID)
		if err != nil {
			if storeerr.IsNotFound(err) {
				if derr := m.cat.Delete(ctx, src); derr != nil && !storeerr.IsNotFound(derr) {
					logger.Error("manager: self-heal dangling row failed", "error", derr)
				}
				outErr = storeerr.NewFileNotFound(m.bucketName, src)
				return
			}
			outErr = err
			return
		}
		defer srcReader.Close()

		dstEntityID := uuid.NewString()
		w, err := m.blobs.NewWriter(ctx, m.bucketName, dstEntityID)
		if err != nil {
			outErr = err
			return
		}
		if _, cerr := io.Copy(w, srcReader); cerr != nil {
			if aerr := w.Abort(cerr); aerr != nil {
				logger.Error("manager: abort writer after copy failure", "error", aerr)
			}
			outErr = cerr
			return
		}
		if cerr := w.Close(); cerr != nil {
			outErr = cerr
			return
		}

		if cerr := m.cat.Copy(ctx, src, dst, dstEntityID); cerr != nil {
			if rerr := m.blobs.Remove(ctx, m.bucketName, dstEntityID); rerr != nil {
				logger.Error("manager: remove blob after catalog copy failure", "error", rerr)
			}
			outErr = cerr
			return
		}
		m.metrics.ObserveBlobOperation("put", "blob", 0, 0, nil)
	})
	m.metrics.ObserveCatalogOperation("copy", time.Since(start), outErr)
	if outErr != nil {
		telemetry.RecordError(ctx, outErr)
		return FileIdent{}, outErr
	}
	return FileIdent{BucketName: m.bucketName, FilePath: dst}, nil
}

// OverwriteFile replaces path's content and/or side-metadata. With no
// option fields set it is a no-op returning the current ident. With
// no Data it updates only side-metadata. Otherwise it rotates the
// entity id, committing through catalog.Update's oldEntityId guard:
// on success the old blob is removed (log-only on cleanup failure);
// on any failure the new blob is removed.
func (m *Manager) OverwriteFile(ctx context.Context, path string, opts OverwriteOptions) (FileIdent, error) {
	ctx, span := telemetry.StartManagerSpan(ctx, telemetry.SpanManagerUpdate, m.bucketName, path)
	defer span.End()
	start := time.Now()

	var outErr error
	m.recordQueueDepth()
	m.sched.RunWrite(func() {
		if !m.opened.Load() {
			outErr = storeerr.NewClosed("manager")
			return
		}

		if !opts.HasData && !opts.HasMimeType && !opts.HasDescription && !opts.HasMetadata {
			return
		}

		if !opts.HasData {
			outErr = m.cat.Update(ctx, path, catalog.UpdateInput{
				MimeType:    optString(opts.HasMimeType, opts.MimeType),
				Description: optDescription(opts.HasDescription, opts.Description),
				Metadata:    optMetadata(opts.HasMetadata, opts.Metadata),
			})
			return
		}

		oldEntityID, err := m.cat.ReadEntityID(ctx, path)
		if err != nil {
			outErr = err
			return
		}

		newEntityID := uuid.NewString()
		sum := md5.Sum(opts.Data)
		checksum := hex.EncodeToString(sum[:])

		w, err := m.blobs.NewWriter(ctx, m.bucketName, newEntityID)
		if err != nil {
			outErr = err
			return
		}
		if _, werr := w.Write(opts.Data); werr != nil {
			if aerr := w.Abort(werr); aerr != nil {
				logger.Error("manager: abort writer after overwrite write failure", "error", aerr)
			}
			outErr = werr
			return
		}
		if cerr := w.Close(); cerr != nil {
			outErr = cerr
			return
		}

		updateErr := m.cat.Update(ctx, path, catalog.UpdateInput{
			NewEntityID: catalog.Some(newEntityID),
			OldEntityID: catalog.Some(oldEntityID),
			Checksum:    catalog.Some(checksum),
			FileSize:    catalog.Some(int64(len(opts.Data))),
			MimeType:    optString(opts.HasMimeType, opts.MimeType),
			Description: optDescription(opts.HasDescription, opts.Description),
			Metadata:    optMetadata(opts.HasMetadata, opts.Metadata),
		})
		if updateErr != nil {
			if rerr := m.blobs.Remove(ctx, m.bucketName, newEntityID); rerr != nil {
				logger.Error("manager: remove new blob after overwrite update failure", "error", rerr)
			}
			outErr = updateErr
			return
		}
		m.metrics.ObserveBlobOperation("put", "blob", int64(len(opts.Data)), 0, nil)

		if rerr := m.blobs.Remove(ctx, m.bucketName, oldEntityID); rerr != nil {
			logger.Error("manager: remove old blob after overwrite commit", "error", rerr)
		}
	})
	m.metrics.ObserveCatalogOperation("update", time.Since(start), outErr)
	if outErr != nil {
		telemetry.RecordError(ctx, outErr)
		return FileIdent{}, outErr
	}
	return FileIdent{BucketName: m.bucketName, FilePath: path}, nil
}

// RemoveFile deletes path's blob and catalog row. True absence (no
// catalog row) surfaces FileNotFound. A dangling row (blob already
// missing) still has its row deleted, but surfaces a FileExists-coded
// "entity mismatch" error rather than silently succeeding.
func (m *Manager) RemoveFile(ctx context.Context, path string) error {
	ctx, span := telemetry.StartManagerSpan(ctx, telemetry.SpanManagerDelete, m.bucketName, path)
	defer span.End()
	start := time.Now()

	var outErr error
	m.recordQueueDepth()
	m.sched.RunWrite(func() {
		if !m.opened.Load() {
			outErr = storeerr.NewClosed("manager")
			return
		}

		entityID, err := m.cat.ReadEntityID(ctx, path)
		if err != nil {
			outErr = err
			return
		}

		_, statErr := m.blobs.Stat(ctx, m.bucketName, entityID)
		blobMissing := storeerr.IsNotFound(statErr)
		if statErr != nil && !blobMissing {
			outErr = statErr
			return
		}

		if !blobMissing {
			if rerr := m.blobs.Remove(ctx, m.bucketName, entityID); rerr != nil {
				outErr = rerr
				return
			}
		}

		if derr := m.cat.Delete(ctx, path); derr != nil {
			outErr = derr
			return
		}

		if blobMissing {
			outErr = &storeerr.Error{
				Code:    storeerr.FileExists,
				Message: "entity mismatch: catalog row referenced a missing blob",
				Bucket:  m.bucketName,
				Path:    path,
			}
		}
	})
	m.metrics.ObserveCatalogOperation("delete", time.Since(start), outErr)
	if outErr != nil {
		telemetry.RecordError(ctx, outErr)
	}
	return outErr
}

// ExistsFile reports whether path names a committed object, self-healing
// a dangling row exactly as ReadFile does.
func (m *Manager) ExistsFile(ctx context.Context, path string) (bool, error) {
	var out bool
	var outErr error
	m.sched.RunRead(func() {
		if !m.opened.Load() {
			outErr = storeerr.NewClosed("manager")
			return
		}

		entityID, err := m.cat.ReadEntityID(ctx, path)
		if err != nil {
			if storeerr.IsNotFound(err) {
				return
			}
			outErr = err
			return
		}

		if _, serr := m.blobs.Stat(ctx, m.bucketName, entityID); serr != nil {
			if storeerr.IsNotFound(serr) {
				if derr := m.cat.Delete(ctx, path); derr != nil && !storeerr.IsNotFound(derr) {
					logger.Error("manager: self-heal dangling row failed", "error", derr)
				}
				return
			}
			outErr = serr
			return
		}
		out = true
	})
	return out, outErr
}

// ExistsDir delegates directly to the catalog.
func (m *Manager) ExistsDir(ctx context.Context, dir []string) (bool, error) {
	var out bool
	var outErr error
	m.sched.RunRead(func() {
		if !m.opened.Load() {
			outErr = storeerr.NewClosed("manager")
			return
		}
		out, outErr = m.cat.ExistsDir(ctx, dir)
	})
	return out, outErr
}

// Stat delegates directly to the catalog.
func (m *Manager) Stat(ctx context.Context, path string) (isFile, isDirectory bool, err error) {
	ctx, span := telemetry.StartManagerSpan(ctx, telemetry.SpanManagerStat, m.bucketName, path)
	defer span.End()
	start := time.Now()

	m.sched.RunRead(func() {
		if !m.opened.Load() {
			err = storeerr.NewClosed("manager")
			return
		}
		isFile, isDirectory, err = m.cat.Stat(ctx, path)
	})
	m.metrics.ObserveCatalogOperation("stat", time.Since(start), err)
	if err != nil {
		telemetry.RecordError(ctx, err)
	}
	return isFile, isDirectory, err
}

// SearchFile delegates directly to the catalog.
func (m *Manager) SearchFile(ctx context.Context, dir []string, query string, limit int, recursive bool, scoreThreshold float64) ([]catalog.SearchResult, error) {
	ctx, span := telemetry.StartManagerSpan(ctx, telemetry.SpanManagerSearch, m.bucketName, "", telemetry.Query(query))
	defer span.End()
	start := time.Now()

	var out []catalog.SearchResult
	var outErr error
	m.sched.RunRead(func() {
		if !m.opened.Load() {
			outErr = storeerr.NewClosed("manager")
			return
		}
		out, outErr = m.cat.Search(ctx, dir, query, limit, recursive, scoreThreshold)
	})
	m.metrics.ObserveCatalogOperation("search", time.Since(start), outErr)
	if outErr != nil {
		telemetry.RecordError(ctx, outErr)
	} else {
		telemetry.SetAttributes(ctx, telemetry.Results(len(out)))
	}
	return out, outErr
}

// List delegates directly to the catalog.
func (m *Manager) List(ctx context.Context, dir []string, limit, offset int, orderByName string) ([]catalog.ListEntry, error) {
	ctx, span := telemetry.StartManagerSpan(ctx, telemetry.SpanManagerList, m.bucketName, "")
	defer span.End()
	start := time.Now()

	var out []catalog.ListEntry
	var outErr error
	m.sched.RunRead(func() {
		if !m.opened.Load() {
			outErr = storeerr.NewClosed("manager")
			return
		}
		out, outErr = m.cat.List(ctx, dir, limit, offset, orderByName)
	})
	m.metrics.ObserveCatalogOperation("list", time.Since(start), outErr)
	if outErr != nil {
		telemetry.RecordError(ctx, outErr)
	} else {
		telemetry.SetAttributes(ctx, telemetry.Results(len(out)))
	}
	return out, outErr
}
