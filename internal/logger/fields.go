package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Operation
	// ========================================================================
	KeyOperation = "operation"  // create, read, move, copy, update, delete, search, ...
	KeyStatus    = "status"     // Operation status code
	KeyStatusMsg = "status_msg" // Human-readable status message

	// ========================================================================
	// Entities
	// ========================================================================
	KeyBucket    = "bucket"     // Bucket name
	KeyPath      = "path"       // Entity path within a bucket
	KeyEntityID  = "entity_id"  // Catalog entity identifier
	KeyOldPath   = "old_path"   // Source path for move/copy operations
	KeyNewPath   = "new_path"   // Destination path for move/copy operations
	KeyMimeType  = "mime_type"  // Content MIME type
	KeySize      = "size"       // Entity size in bytes

	// ========================================================================
	// I/O Operations
	// ========================================================================
	KeyOffset       = "offset"        // Byte offset for read/write operations
	KeyCount        = "count"         // Byte count requested
	KeyBytesRead    = "bytes_read"    // Actual bytes read
	KeyBytesWritten = "bytes_written" // Actual bytes written
	KeyEOF          = "eof"           // End of stream indicator

	// ========================================================================
	// Caller identification (admin API)
	// ========================================================================
	KeyClientIP = "client_ip" // Caller IP address
	KeyUsername = "username"  // Authenticated caller
	KeyAuth     = "auth"      // Authentication method

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // Error code string
	KeySource     = "source"      // Data source: cache, blob_store, catalog
	KeyAttempt    = "attempt"     // Retry attempt number
	KeyMaxRetries = "max_retries" // Maximum retry attempts

	// ========================================================================
	// Blob store backend
	// ========================================================================
	KeyBlobID    = "blob_id"    // Blob identifier (the entity ID)
	KeyStoreName = "store_name" // Named blob store identifier
	KeyStoreType = "store_type" // Blob store kind: fs, s3, cache
	KeyStorageKey = "storage_key" // Backend-native object key
	KeyRegion    = "region"     // Cloud region

	// ========================================================================
	// Catalog / registry
	// ========================================================================
	KeyQuery    = "query"    // Search query string
	KeyResults  = "results"  // Result count
	KeyRegistry = "registry" // Bucket registry backend name

	// ========================================================================
	// Cache layer
	// ========================================================================
	KeyCacheHit   = "cache_hit"   // Cache hit indicator
	KeyCacheState = "cache_state" // Cache state: warm, cold, evicted
	KeyEvicted    = "evicted"     // Number of entries evicted

	// ========================================================================
	// Listing
	// ========================================================================
	KeyEntries    = "entries"     // Number of entries returned
	KeyPattern    = "pattern"     // Search/filter pattern
	KeyMaxEntries = "max_entries" // Maximum entries requested

	// ========================================================================
	// Mutex scheduling
	// ========================================================================
	KeyLockMode  = "lock_mode"  // read or write
	KeyWaitersQ  = "waiters"    // Queue length at acquire time
)

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr { return slog.String(KeyTraceID, id) }

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr { return slog.String(KeySpanID, id) }

// Operation returns a slog.Attr for the operation name
func Operation(op string) slog.Attr { return slog.String(KeyOperation, op) }

// Status returns a slog.Attr for operation status code
func Status(code int) slog.Attr { return slog.Int(KeyStatus, code) }

// StatusMsg returns a slog.Attr for human-readable status message
func StatusMsg(msg string) slog.Attr { return slog.String(KeyStatusMsg, msg) }

// Bucket returns a slog.Attr for bucket name
func Bucket(name string) slog.Attr { return slog.String(KeyBucket, name) }

// Path returns a slog.Attr for entity path
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }

// EntityID returns a slog.Attr for catalog entity ID
func EntityID(id string) slog.Attr { return slog.String(KeyEntityID, id) }

// OldPath returns a slog.Attr for source path in move/copy operations
func OldPath(p string) slog.Attr { return slog.String(KeyOldPath, p) }

// NewPath returns a slog.Attr for destination path in move/copy operations
func NewPath(p string) slog.Attr { return slog.String(KeyNewPath, p) }

// MimeType returns a slog.Attr for content MIME type
func MimeType(t string) slog.Attr { return slog.String(KeyMimeType, t) }

// Size returns a slog.Attr for entity size
func Size(s int64) slog.Attr { return slog.Int64(KeySize, s) }

// Offset returns a slog.Attr for byte offset
func Offset(off int64) slog.Attr { return slog.Int64(KeyOffset, off) }

// Count returns a slog.Attr for byte count requested
func Count(c int64) slog.Attr { return slog.Int64(KeyCount, c) }

// BytesRead returns a slog.Attr for actual bytes read
func BytesRead(n int) slog.Attr { return slog.Int(KeyBytesRead, n) }

// BytesWritten returns a slog.Attr for actual bytes written
func BytesWritten(n int) slog.Attr { return slog.Int(KeyBytesWritten, n) }

// EOF returns a slog.Attr for end-of-stream indicator
func EOF(eof bool) slog.Attr { return slog.Bool(KeyEOF, eof) }

// ClientIP returns a slog.Attr for caller IP address
func ClientIP(addr string) slog.Attr { return slog.String(KeyClientIP, addr) }

// Username returns a slog.Attr for authenticated caller
func Username(name string) slog.Attr { return slog.String(KeyUsername, name) }

// AuthMethod returns a slog.Attr for authentication method
func AuthMethod(method string) slog.Attr { return slog.String(KeyAuth, method) }

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr { return slog.Float64(KeyDurationMs, ms) }

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for an error code string
func ErrorCode(code string) slog.Attr { return slog.String(KeyErrorCode, code) }

// Source returns a slog.Attr for data source
func Source(src string) slog.Attr { return slog.String(KeySource, src) }

// Attempt returns a slog.Attr for retry attempt number
func Attempt(n int) slog.Attr { return slog.Int(KeyAttempt, n) }

// MaxRetries returns a slog.Attr for maximum retry attempts
func MaxRetries(n int) slog.Attr { return slog.Int(KeyMaxRetries, n) }

// BlobID returns a slog.Attr for the blob identifier (the entity ID)
func BlobID(id string) slog.Attr { return slog.String(KeyBlobID, id) }

// StoreName returns a slog.Attr for named blob store identifier
func StoreName(name string) slog.Attr { return slog.String(KeyStoreName, name) }

// StoreType returns a slog.Attr for blob store kind
func StoreType(t string) slog.Attr { return slog.String(KeyStoreType, t) }

// StorageKey returns a slog.Attr for a backend-native object key
func StorageKey(k string) slog.Attr { return slog.String(KeyStorageKey, k) }

// Region returns a slog.Attr for cloud region
func Region(r string) slog.Attr { return slog.String(KeyRegion, r) }

// Query returns a slog.Attr for a search query string
func Query(q string) slog.Attr { return slog.String(KeyQuery, q) }

// Results returns a slog.Attr for a result count
func Results(n int) slog.Attr { return slog.Int(KeyResults, n) }

// Registry returns a slog.Attr for the bucket registry backend name
func Registry(name string) slog.Attr { return slog.String(KeyRegistry, name) }

// CacheHit returns a slog.Attr for cache hit indicator
func CacheHit(hit bool) slog.Attr { return slog.Bool(KeyCacheHit, hit) }

// CacheState returns a slog.Attr for cache state
func CacheState(state string) slog.Attr { return slog.String(KeyCacheState, state) }

// Evicted returns a slog.Attr for number of entries evicted
func Evicted(n int) slog.Attr { return slog.Int(KeyEvicted, n) }

// Entries returns a slog.Attr for number of entries returned
func Entries(n int) slog.Attr { return slog.Int(KeyEntries, n) }

// Pattern returns a slog.Attr for search/filter pattern
func Pattern(p string) slog.Attr { return slog.String(KeyPattern, p) }

// MaxEntries returns a slog.Attr for maximum entries requested
func MaxEntries(n int) slog.Attr { return slog.Int(KeyMaxEntries, n) }

// LockMode returns a slog.Attr for mutex acquisition mode
func LockMode(mode string) slog.Attr { return slog.String(KeyLockMode, mode) }

// Waiters returns a slog.Attr for queue length at acquire time
func Waiters(n int) slog.Attr { return slog.Int(KeyWaitersQ, n) }
