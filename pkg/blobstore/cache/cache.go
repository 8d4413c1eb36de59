// Package cache wraps a blobstore.Store in a local read-through cache
// backed by BadgerDB, so repeated reads of the same entity against a
// remote backend (pkg/blobstore/s3) don't re-fetch over the network
// every time.
package cache

import (
	"bytes"
	"context"
	"fmt"
	"io"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/bucketfs/bucketfs/internal/logger"
	"github.com/bucketfs/bucketfs/internal/telemetry"
	"github.com/bucketfs/bucketfs/pkg/blobstore"
	"github.com/bucketfs/bucketfs/pkg/storeerr"
)

// Store wraps a backend blobstore.Store with a BadgerDB-backed
// read-through cache. Writes pass straight through to the backend and
// invalidate any cached entry for that blob; reads are served from the cache when
// present, falling back to the backend and filling the cache on miss.
type Store struct {
	backend  blobstore.Store
	db       *badger.DB
	maxEntry int64 // entities larger than this are never cached
}

// Config configures a cache Store.
type Config struct {
	Backend blobstore.Store
	// Dir is the BadgerDB data directory.
	Dir string
	// MaxCachedEntitySize caps how large a blob may be before it is
	// skipped by the cache and served straight from the backend.
	// Zero means unbounded.
	MaxCachedEntitySize int64
	// InMemory runs Badger without persisting to disk, for tests.
	InMemory bool
}

// New opens (or creates) the BadgerDB cache directory and wraps cfg.Backend.
func New(cfg Config) (*Store, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("blobstore/cache: backend is required")
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, storeerr.NewOther("blobstore/cache: open badger: " + err.Error())
	}

	return &Store{backend: cfg.Backend, db: db, maxEntry: cfg.MaxCachedEntitySize}, nil
}

// Close releases the underlying BadgerDB handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func cacheKey(bucket, entityID string) []byte {
	return []byte(bucket + "\x00" + entityID)
}

// NewWriter passes through to the backend. The cache entry for
// entityID is invalidated so a subsequent read refetches fresh
// content rather than serving stale cached bytes.
func (s *Store) NewWriter(ctx context.Context, bucket, entityID string) (blobstore.Writer, error) {
	if err := s.invalidate(bucket, entityID); err != nil {
		logger.Warn("blobstore/cache: invalidate on write failed", "bucket", bucket, "entityId", entityID, "error", err)
	}
	return s.backend.NewWriter(ctx, bucket, entityID)
}

// Reader serves entityID from the cache when present, otherwise reads
// through to the backend and populates the cache for next time.
func (s *Store) Reader(ctx context.Context, bucket, entityID string) (io.ReadCloser, error) {
	ctx, span := telemetry.StartCacheSpan(ctx, telemetry.SpanCacheLookup, telemetry.Bucket(bucket), telemetry.BlobID(entityID))
	defer span.End()

	if data, ok := s.lookup(bucket, entityID); ok {
		telemetry.SetAttributes(ctx, telemetry.CacheHit(true))
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	telemetry.SetAttributes(ctx, telemetry.CacheHit(false))

	r, err := s.backend.Reader(ctx, bucket, entityID)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		err = storeerr.NewOther("blobstore/cache: read backend: " + err.Error())
		telemetry.RecordError(ctx, err)
		return nil, err
	}

	if s.maxEntry == 0 || int64(len(data)) <= s.maxEntry {
		if err := s.store(bucket, entityID, data); err != nil {
			logger.Warn("blobstore/cache: populate failed", "bucket", bucket, "entityId", entityID, "error", err)
		} else {
			_, writeSpan := telemetry.StartCacheSpan(ctx, telemetry.SpanCacheWrite, telemetry.Bucket(bucket), telemetry.BlobID(entityID), telemetry.Size(int64(len(data))))
			writeSpan.End()
		}
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// Remove deletes entityID from both the cache and the backend.
func (s *Store) Remove(ctx context.Context, bucket, entityID string) error {
	_, span := telemetry.StartCacheSpan(ctx, telemetry.SpanCacheEvict, telemetry.Bucket(bucket), telemetry.BlobID(entityID))
	if err := s.invalidate(bucket, entityID); err != nil {
		logger.Warn("blobstore/cache: invalidate on remove failed", "bucket", bucket, "entityId", entityID, "error", err)
	}
	span.End()
	return s.backend.Remove(ctx, bucket, entityID)
}

// Stat always asks the backend, since the cache does not track sizes
// for entries it has never been asked to read.
func (s *Store) Stat(ctx context.Context, bucket, entityID string) (int64, error) {
	return s.backend.Stat(ctx, bucket, entityID)
}

func (s *Store) lookup(bucket, entityID string) ([]byte, bool) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(bucket, entityID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, false
	}
	return data, true
}

func (s *Store) store(bucket, entityID string, data []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(cacheKey(bucket, entityID), data)
	})
}

func (s *Store) invalidate(bucket, entityID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(cacheKey(bucket, entityID))
	})
	if err == badger.ErrKeyNotFound {
		return nil
	}
	return err
}

var _ blobstore.Store = (*Store)(nil)
