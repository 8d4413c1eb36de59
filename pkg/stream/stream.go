// Package stream implements the two chunked-write stream variants
// that sit between the entity coordinator and the blob store:
// WritableFileStream (new file) and OverwritableFileStream (existing
// file). Both accumulate size and an incremental MD5 hash as chunks
// arrive and commit through the catalog on close.
package stream

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"hash"

	"github.com/bucketfs/bucketfs/internal/logger"
	"github.com/bucketfs/bucketfs/pkg/blobstore"
	"github.com/bucketfs/bucketfs/pkg/bufpool"
	"github.com/bucketfs/bucketfs/pkg/catalog"
	"github.com/bucketfs/bucketfs/pkg/mutex"
	"github.com/bucketfs/bucketfs/pkg/storeerr"
)

// OpenChecker is the narrow capability a stream needs from the
// manager: whether it is still open. Streams never hold a full
// reference to the manager, only this one-method view of it.
type OpenChecker interface {
	Opened() bool
}

// Creator is the narrow capability a WritableFileStream needs from
// the catalog.
type Creator interface {
	Create(ctx context.Context, filePath string, in catalog.CreateInput) error
}

// Updater is the narrow capability an OverwritableFileStream needs
// from the catalog.
type Updater interface {
	Update(ctx context.Context, filePath string, in catalog.UpdateInput) error
}

// Options carries the side-metadata fields a stream commits alongside
// its content. The Has* flags distinguish "not supplied" from
// "supplied as zero value", mirroring catalog.Optional at the stream
// boundary.
type Options struct {
	MimeType       string
	HasMimeType    bool
	Description    *string
	HasDescription bool
	Metadata       any
	HasMetadata    bool
}

type baseStream struct {
	sched  *mutex.Scheduler
	ctx    context.Context
	blobs  blobstore.Store
	isOpen OpenChecker

	bucket   string
	filePath string
	entityID string // the entity whose blob `writer` is writing to
	writer   blobstore.Writer
	hasher   hash.Hash
	size     int64
	closed   bool
	wroteAny bool

	opts Options

	onFirstWrite func()
}

func newBaseStream(ctx context.Context, blobs blobstore.Store, isOpen OpenChecker, bucket, filePath, entityID string, w blobstore.Writer, opts Options) *baseStream {
	return &baseStream{
		sched:    mutex.New(),
		ctx:      ctx,
		blobs:    blobs,
		isOpen:   isOpen,
		bucket:   bucket,
		filePath: filePath,
		entityID: entityID,
		writer:   w,
		hasher:   md5.New(),
		opts:     opts,
	}
}

// write is shared by both stream kinds: it is the body of the public
// Write method, run inside the stream's own writer slot.
func (s *baseStream) write(chunk []byte) error {
	var outErr error
	s.sched.RunWrite(func() {
		if s.closed {
			outErr = storeerr.NewClosed("stream")
			return
		}
		if !s.isOpen.Opened() {
			if aerr := s.writer.Abort(storeerr.NewClosed("manager")); aerr != nil {
				logger.Error("stream: abort after manager close failed", "error", aerr)
			}
			if rerr := s.blobs.Remove(s.ctx, s.bucket, s.entityID); rerr != nil {
				logger.Error("stream: remove staged blob after manager close failed", "error", rerr)
			}
			s.closed = true
			outErr = storeerr.NewClosed("stream")
			return
		}
		if len(chunk) == 0 {
			return
		}
		buf := bufpool.Get(len(chunk))
		defer bufpool.Put(buf)
		copy(buf, chunk)

		n, werr := s.writer.Write(buf[:len(chunk)])
		if werr != nil {
			outErr = werr
			return
		}
		s.size += int64(n)
		s.hasher.Write(chunk[:n])
		if !s.wroteAny {
			s.wroteAny = true
			if s.onFirstWrite != nil {
				s.onFirstWrite()
			}
		}
	})
	return outErr
}

func (s *baseStream) checksum() string {
	return hex.EncodeToString(s.hasher.Sum(nil))
}

func (s *baseStream) mimeOpt() catalog.Optional[string] {
	if !s.opts.HasMimeType {
		return catalog.Optional[string]{}
	}
	return catalog.Some(s.opts.MimeType)
}

func (s *baseStream) descriptionOpt() catalog.Optional[*string] {
	if !s.opts.HasDescription {
		return catalog.Optional[*string]{}
	}
	return catalog.Some(s.opts.Description)
}

func (s *baseStream) metadataOpt() catalog.Optional[any] {
	if !s.opts.HasMetadata {
		return catalog.Optional[any]{}
	}
	return catalog.Some(s.opts.Metadata)
}

// WritableFileStream commits a brand-new file. Close performs
// catalog.create with the accumulated checksum and size.
type WritableFileStream struct {
	*baseStream
	cat Creator
}

// NewWritableFileStream constructs a stream for a freshly allocated
// entityID whose blob writer w is already open.
func NewWritableFileStream(ctx context.Context, blobs blobstore.Store, cat Creator, isOpen OpenChecker, bucket, filePath, entityID string, w blobstore.Writer, opts Options) *WritableFileStream {
	return &WritableFileStream{
		baseStream: newBaseStream(ctx, blobs, isOpen, bucket, filePath, entityID, w, opts),
		cat:        cat,
	}
}

// Write appends chunk to the staged blob, accumulating size and hash.
// Empty chunks are no-ops.
func (s *WritableFileStream) Write(chunk []byte) error {
	return s.write(chunk)
}

// Close closes the underlying writer and creates the catalog row. If
// either step fails the staged blob is removed and the error
// rethrown. Double-close fails Closed.
func (s *WritableFileStream) Close() error {
	var outErr error
	s.sched.RunWrite(func() {
		if s.closed {
			outErr = storeerr.NewClosed("stream")
			return
		}
		s.closed = true

		if cerr := s.writer.Close(); cerr != nil {
			if rerr := s.blobs.Remove(s.ctx, s.bucket, s.entityID); rerr != nil {
				logger.Error("stream: remove staged blob after writer close failure", "error", rerr)
			}
			outErr = cerr
			return
		}

		var mimeType string
		if s.opts.HasMimeType {
			mimeType = s.opts.MimeType
		}
		var description *string
		if s.opts.HasDescription {
			description = s.opts.Description
		}
		var metadata any
		if s.opts.HasMetadata {
			metadata = s.opts.Metadata
		}

		createErr := s.cat.Create(s.ctx, s.filePath, catalog.CreateInput{
			EntityID:    s.entityID,
			Checksum:    s.checksum(),
			MimeType:    mimeType,
			FileSize:    s.size,
			Description: description,
			Metadata:    metadata,
		})
		if createErr != nil {
			if rerr := s.blobs.Remove(s.ctx, s.bucket, s.entityID); rerr != nil {
				logger.Error("stream: remove staged blob after catalog create failure", "error", rerr)
			}
			outErr = createErr
			return
		}
	})
	return outErr
}

// Abort closes the underlying writer with reason and removes the
// staged blob. Double-abort fails Closed.
func (s *WritableFileStream) Abort(reason error) error {
	var outErr error
	s.sched.RunWrite(func() {
		if s.closed {
			outErr = storeerr.NewClosed("stream")
			return
		}
		s.closed = true
		if aerr := s.writer.Abort(reason); aerr != nil {
			logger.Error("stream: abort writer failed", "error", aerr)
		}
		if rerr := s.blobs.Remove(s.ctx, s.bucket, s.entityID); rerr != nil {
			logger.Error("stream: remove staged blob after abort", "error", rerr)
		}
	})
	return outErr
}

// OverwritableFileStream commits over an existing file. The first
// successful write flips updateEntityID, switching Close from a
// metadata-only update to a full content-and-metadata rotation.
type OverwritableFileStream struct {
	*baseStream
	cat            Updater
	oldEntityID    string
	updateEntityID bool
}

// NewOverwritableFileStream constructs a stream that rotates
// oldEntityID's blob to newEntityID, whose blob writer w is already
// open.
func NewOverwritableFileStream(ctx context.Context, blobs blobstore.Store, cat Updater, isOpen OpenChecker, bucket, filePath, oldEntityID, newEntityID string, w blobstore.Writer, opts Options) *OverwritableFileStream {
	s := &OverwritableFileStream{
		baseStream:  newBaseStream(ctx, blobs, isOpen, bucket, filePath, newEntityID, w, opts),
		cat:         cat,
		oldEntityID: oldEntityID,
	}
	s.onFirstWrite = func() { s.updateEntityID = true }
	return s
}

// Write appends chunk to the staged blob. The first successful write
// commits this stream to a full content rotation on Close.
func (s *OverwritableFileStream) Write(chunk []byte) error {
	return s.write(chunk)
}

// Close commits the overwrite. If no write ever succeeded, it is a
// metadata-only update and the unused staged blob is discarded.
// Otherwise it closes the writer, updates the catalog with the
// oldEntityId optimistic-concurrency guard, and on success removes
// the old blob (cleanup failures are logged, not raised). On failure
// the new blob is removed instead.
func (s *OverwritableFileStream) Close() error {
	var outErr error
	s.sched.RunWrite(func() {
		if s.closed {
			outErr = storeerr.NewClosed("stream")
			return
		}
		s.closed = true

		if !s.updateEntityID {
			if aerr := s.writer.Abort(nil); aerr != nil {
				logger.Error("stream: discard unused staged blob failed", "error", aerr)
			}
			outErr = s.cat.Update(s.ctx, s.filePath, catalog.UpdateInput{
				MimeType:    s.mimeOpt(),
				Description: s.descriptionOpt(),
				Metadata:    s.metadataOpt(),
			})
			return
		}

		if cerr := s.writer.Close(); cerr != nil {
			if rerr := s.blobs.Remove(s.ctx, s.bucket, s.entityID); rerr != nil {
				logger.Error("stream: remove new blob after writer close failure", "error", rerr)
			}
			outErr = cerr
			return
		}

		updateErr := s.cat.Update(s.ctx, s.filePath, catalog.UpdateInput{
			NewEntityID: catalog.Some(s.entityID),
			OldEntityID: catalog.Some(s.oldEntityID),
			Checksum:    catalog.Some(s.checksum()),
			FileSize:    catalog.Some(s.size),
			MimeType:    s.mimeOpt(),
			Description: s.descriptionOpt(),
			Metadata:    s.metadataOpt(),
		})
		if updateErr != nil {
			if rerr := s.blobs.Remove(s.ctx, s.bucket, s.entityID); rerr != nil {
				logger.Error("stream: remove new blob after catalog update failure", "error", rerr)
			}
			outErr = updateErr
			return
		}

		if rerr := s.blobs.Remove(s.ctx, s.bucket, s.oldEntityID); rerr != nil {
			logger.Error("stream: remove old blob after overwrite commit", "error", rerr)
		}
	})
	return outErr
}

// Abort closes the underlying writer with reason and removes the new
// (staged) blob, leaving the old blob untouched. Double-abort fails
// Closed.
func (s *OverwritableFileStream) Abort(reason error) error {
	var outErr error
	s.sched.RunWrite(func() {
		if s.closed {
			outErr = storeerr.NewClosed("stream")
			return
		}
		s.closed = true
		if aerr := s.writer.Abort(reason); aerr != nil {
			logger.Error("stream: abort writer failed", "error", aerr)
		}
		if rerr := s.blobs.Remove(s.ctx, s.bucket, s.entityID); rerr != nil {
			logger.Error("stream: remove staged blob after abort", "error", rerr)
		}
	})
	return outErr
}
