package catalog

// Optional distinguishes "field not supplied" from "field supplied as
// its zero value" for the partial-update operations in §4.2: a field
// that is unset leaves the stored column untouched, while a field set
// to a nil pointer clears it.
type Optional[T any] struct {
	set   bool
	value T
}

// Some returns a set Optional carrying value.
func Some[T any](value T) Optional[T] { return Optional[T]{set: true, value: value} }

// IsSet reports whether the caller supplied this field.
func (o Optional[T]) IsSet() bool { return o.set }

// Value returns the supplied value; callers must check IsSet first.
func (o Optional[T]) Value() T { return o.value }

// Record is the projection of a file_v0 row returned by Read.
type Record struct {
	EntityID     string
	Checksum     string
	MimeType     string
	FileSize     int64
	LastModified int64 // epoch milliseconds
}

// CreateInput holds the fields accepted by Create.
type CreateInput struct {
	EntityID    string
	Checksum    string
	MimeType    string // empty means infer from basename
	FileSize    int64
	Description *string
	Metadata    any // marshaled with the engine's configured codec
}

// UpdateInput holds the partial fields accepted by Update. A zero
// value (all fields unset) means "verify existence only".
type UpdateInput struct {
	NewEntityID Optional[string]
	OldEntityID Optional[string] // optimistic-concurrency guard
	Checksum    Optional[string]
	MimeType    Optional[string]
	FileSize    Optional[int64]
	Description Optional[*string]
	Metadata    Optional[any]
}

func (u UpdateInput) isEmpty() bool {
	return !u.NewEntityID.IsSet() && !u.Checksum.IsSet() && !u.MimeType.IsSet() &&
		!u.FileSize.IsSet() && !u.Description.IsSet() && !u.Metadata.IsSet()
}

// SearchResult is one row of a Search response.
type SearchResult struct {
	FilePath    string
	Description string
	Score       float64
}

// ListEntry is one row of a List response.
type ListEntry struct {
	Name   string
	IsFile bool
}
