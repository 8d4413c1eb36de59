// Package catalog implements the single-table embedded relational
// store described by spec.md §4.2: file metadata CRUD, directory
// prefix queries, and BM25 full-text search over descriptions, backed
// by an embedded SQLite engine.
package catalog

import (
	"database/sql"
	"log/slog"

	_ "github.com/glebarez/go-sqlite" // registers the "sqlite" database/sql driver
	"github.com/bucketfs/bucketfs/pkg/jsoncodec"
)

const (
	// DefaultMaxDescriptionSize bounds desc_raw's character count.
	DefaultMaxDescriptionSize = 100 * 1024
	// DefaultMaxMetadataJSONSize bounds the stringified meta_js column.
	DefaultMaxMetadataJSONSize = 100 * 1024
)

// ToFullTextSearchString pre-tokenizes a description before it is
// stored in desc_fts or used as a search query, so that callers whose
// languages are not whitespace-tokenized (e.g. Japanese) can supply
// their own normalizer. The default is the identity function.
type ToFullTextSearchString func(string) string

func identity(s string) string { return s }

// Engine owns one SQLite connection addressing a single bucket's
// catalog.db file. It is not safe for concurrent mutation without the
// caller serializing writers — see pkg/mutex — but read-only queries
// (database/sql connection pooling aside) may run concurrently.
type Engine struct {
	db     *sql.DB
	path   string
	bucket string

	codec               jsoncodec.Codec
	logger              *slog.Logger
	maxDescriptionSize  int
	maxMetadataJSONSize int
	toFTS               ToFullTextSearchString

	connected bool
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithCodec overrides the JSON codec used for the meta_js column.
func WithCodec(c jsoncodec.Codec) Option {
	return func(e *Engine) { e.codec = c }
}

// WithLogger attaches a structured logger; defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMaxDescriptionSize overrides DefaultMaxDescriptionSize.
func WithMaxDescriptionSize(n int) Option {
	return func(e *Engine) { e.maxDescriptionSize = n }
}

// WithMaxMetadataJSONSize overrides DefaultMaxMetadataJSONSize.
func WithMaxMetadataJSONSize(n int) Option {
	return func(e *Engine) { e.maxMetadataJSONSize = n }
}

// WithFullTextSearchTransform overrides the identity pre-tokenizer.
func WithFullTextSearchTransform(fn ToFullTextSearchString) Option {
	return func(e *Engine) { e.toFTS = fn }
}

// WithBucket attaches the owning bucket name, included on every
// domain error this Engine returns.
func WithBucket(bucket string) Option {
	return func(e *Engine) { e.bucket = bucket }
}

// New returns an Engine addressing the SQLite file at path. Connect
// must be called before any other method.
func New(path string, opts ...Option) *Engine {
	e := &Engine{
		path:                path,
		codec:               jsoncodec.Default,
		logger:              slog.Default(),
		maxDescriptionSize:  DefaultMaxDescriptionSize,
		maxMetadataJSONSize: DefaultMaxMetadataJSONSize,
		toFTS:               identity,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Connected reports whether Connect has succeeded without a matching
// Disconnect.
func (e *Engine) Connected() bool { return e.connected }
