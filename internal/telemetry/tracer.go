package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for storage operations.
// These follow OpenTelemetry semantic conventions where applicable.
const (
	// ========================================================================
	// Client / caller attributes
	// ========================================================================
	AttrClientIP   = "client.ip"
	AttrClientAddr = "client.address"

	// ========================================================================
	// Operation attributes
	// ========================================================================
	AttrOperation = "fs.operation" // create, read, move, copy, delete, search, ...
	AttrBucket    = "fs.bucket"
	AttrPath      = "fs.path"
	AttrEntityID  = "fs.entity_id"
	AttrOffset    = "fs.offset"
	AttrCount     = "fs.count"
	AttrSize      = "fs.size"
	AttrMimeType  = "fs.mime_type"
	AttrStatus    = "fs.status"
	AttrStatusMsg = "fs.status_msg"
	AttrEOF       = "fs.eof"

	// ========================================================================
	// Auth attributes (admin API)
	// ========================================================================
	AttrUsername = "user.name"
	AttrAuth     = "auth.method"

	// ========================================================================
	// Cache attributes
	// ========================================================================
	AttrCacheHit    = "cache.hit"
	AttrCacheSource = "cache.source"
	AttrCacheState  = "cache.state"

	// ========================================================================
	// Blob store backend attributes
	// ========================================================================
	AttrBlobID    = "blob.id"
	AttrStoreName = "store.name"
	AttrStoreType = "store.type" // fs, s3, cache
	AttrKey       = "storage.key"
	AttrRegion    = "storage.region"

	// ========================================================================
	// Catalog / registry attributes
	// ========================================================================
	AttrQuery    = "catalog.query"
	AttrResults  = "catalog.results"
	AttrRegistry = "registry.name"
)

// Span names for operations.
// Format: <component>.<operation>
const (
	SpanManagerCreate = "manager.create"
	SpanManagerRead   = "manager.read"
	SpanManagerMove   = "manager.move"
	SpanManagerCopy   = "manager.copy"
	SpanManagerUpdate = "manager.update"
	SpanManagerDelete = "manager.delete"
	SpanManagerStat   = "manager.stat"
	SpanManagerSearch = "manager.search"
	SpanManagerList   = "manager.list"

	SpanCatalogInsert = "catalog.insert"
	SpanCatalogLookup = "catalog.lookup"
	SpanCatalogUpdate = "catalog.update"
	SpanCatalogDelete = "catalog.delete"
	SpanCatalogSearch = "catalog.search"
	SpanCatalogList   = "catalog.list"

	SpanBlobPut    = "blob.put"
	SpanBlobGet    = "blob.get"
	SpanBlobDelete = "blob.delete"
	SpanBlobStat   = "blob.stat"

	SpanCacheLookup = "cache.lookup"
	SpanCacheWrite  = "cache.write"
	SpanCacheEvict  = "cache.evict"

	SpanRegistryLookup = "registry.lookup"
	SpanRegistryCreate = "registry.create"
	SpanRegistryDelete = "registry.delete"
)

// ClientIP returns an attribute for the caller's IP address.
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// ClientAddr returns an attribute for the caller's full network address.
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

// Operation returns an attribute for the logical operation name.
func Operation(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// Bucket returns an attribute for the bucket name.
func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrBucket, name)
}

// Path returns an attribute for the entity path within a bucket.
func Path(path string) attribute.KeyValue {
	return attribute.String(AttrPath, path)
}

// EntityID returns an attribute for the catalog entity identifier.
func EntityID(id string) attribute.KeyValue {
	return attribute.String(AttrEntityID, id)
}

// Offset returns an attribute for a byte offset.
func Offset(offset int64) attribute.KeyValue {
	return attribute.Int64(AttrOffset, offset)
}

// Count returns an attribute for a byte count.
func Count(count int64) attribute.KeyValue {
	return attribute.Int64(AttrCount, count)
}

// Size returns an attribute for an entity size.
func Size(size int64) attribute.KeyValue {
	return attribute.Int64(AttrSize, size)
}

// MimeType returns an attribute for a content type.
func MimeType(t string) attribute.KeyValue {
	return attribute.String(AttrMimeType, t)
}

// Status returns an attribute for an operation status code.
func Status(status int) attribute.KeyValue {
	return attribute.Int(AttrStatus, status)
}

// EOF returns an attribute for an end-of-stream indicator.
func EOF(eof bool) attribute.KeyValue {
	return attribute.Bool(AttrEOF, eof)
}

// Username returns an attribute for an authenticated caller's name.
func Username(name string) attribute.KeyValue {
	return attribute.String(AttrUsername, name)
}

// AuthMethod returns an attribute for the authentication method used.
func AuthMethod(method string) attribute.KeyValue {
	return attribute.String(AttrAuth, method)
}

// CacheHit returns an attribute for a cache hit/miss indicator.
func CacheHit(hit bool) attribute.KeyValue {
	return attribute.Bool(AttrCacheHit, hit)
}

// CacheSource returns an attribute identifying which cache tier served a read.
func CacheSource(source string) attribute.KeyValue {
	return attribute.String(AttrCacheSource, source)
}

// BlobID returns an attribute for the blob identifier (the entity ID).
func BlobID(id string) attribute.KeyValue {
	return attribute.String(AttrBlobID, id)
}

// StoreName returns an attribute for a configured store name.
func StoreName(name string) attribute.KeyValue {
	return attribute.String(AttrStoreName, name)
}

// StoreType returns an attribute for a blob store backend kind.
func StoreType(t string) attribute.KeyValue {
	return attribute.String(AttrStoreType, t)
}

// StorageKey returns an attribute for a backend-native object key.
func StorageKey(key string) attribute.KeyValue {
	return attribute.String(AttrKey, key)
}

// Region returns an attribute for a cloud region.
func Region(region string) attribute.KeyValue {
	return attribute.String(AttrRegion, region)
}

// Query returns an attribute for a search query string.
func Query(q string) attribute.KeyValue {
	return attribute.String(AttrQuery, q)
}

// Results returns an attribute for a result count.
func Results(n int) attribute.KeyValue {
	return attribute.Int(AttrResults, n)
}

// RegistryName returns an attribute for the bucket registry backend name.
func RegistryName(name string) attribute.KeyValue {
	return attribute.String(AttrRegistry, name)
}

// StartManagerSpan starts a span for a top-level manager operation.
func StartManagerSpan(ctx context.Context, name string, bucket, path string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{Bucket(bucket), Path(path)}, attrs...)
	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}

// StartCatalogSpan starts a span for a catalog engine operation.
func StartCatalogSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, name, trace.WithAttributes(attrs...))
}

// StartBlobSpan starts a span for a blob store backend operation.
func StartBlobSpan(ctx context.Context, name string, blobID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{BlobID(blobID)}, attrs...)
	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}

// StartCacheSpan starts a span for a read-through cache operation.
func StartCacheSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, name, trace.WithAttributes(attrs...))
}

// StartRegistrySpan starts a span for a bucket registry operation.
func StartRegistrySpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, name, trace.WithAttributes(attrs...))
}

// FSHandle formats an opaque handle as a hex attribute value, used for
// protocol-agnostic handles that do not have a stable string form.
func FSHandle(key string, handle []byte) attribute.KeyValue {
	return attribute.String(key, fmt.Sprintf("%x", handle))
}
