// Package storeerr defines the error surface shared by the catalog,
// blob store, streams, and manager: a small set of domain error codes
// plus factory functions, so callers can branch on outcome rather than
// parse messages.
package storeerr

import (
	"errors"
	"fmt"
	"strings"
)

// Code is the category of a domain error.
type Code int

const (
	// FileNotFound indicates the requested path or entity does not exist.
	FileNotFound Code = iota

	// FileExists indicates a path or entity already occupies the target.
	FileExists

	// InvalidBucketName indicates a bucket name failed validation.
	InvalidBucketName

	// InvalidPath indicates a path failed parsing or validation.
	InvalidPath

	// TypeMismatch indicates a value was not of the expected type.
	TypeMismatch

	// Closed indicates an operation was attempted on a closed stream
	// or unopened manager.
	Closed

	// Other covers faults that do not fit a more specific code:
	// "not connected", transport faults, and wrapped infrastructure
	// errors surfaced verbatim from the catalog or blob store.
	Other
)

func (c Code) String() string {
	switch c {
	case FileNotFound:
		return "FileNotFound"
	case FileExists:
		return "FileExists"
	case InvalidBucketName:
		return "InvalidBucketName"
	case InvalidPath:
		return "InvalidPath"
	case TypeMismatch:
		return "TypeError"
	case Closed:
		return "Closed"
	default:
		return "Error"
	}
}

// Error is the concrete type behind every domain error this module
// returns. It carries a code, a human-readable message, and the
// bucket/path the error concerns, so callers can log or branch on any
// of the three without string matching.
type Error struct {
	Code    Code
	Message string
	Bucket  string
	Path    string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Code.String())
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Bucket != "" {
		fmt.Fprintf(&b, " (bucket=%s)", e.Bucket)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " (path=%s)", e.Path)
	}
	return b.String()
}

// NewFileNotFound reports that no row or blob exists at path.
func NewFileNotFound(bucket, path string) *Error {
	return &Error{Code: FileNotFound, Message: "file not found", Bucket: bucket, Path: path}
}

// NewFileExists reports that path is already occupied.
func NewFileExists(bucket, path string) *Error {
	return &Error{Code: FileExists, Message: "file already exists", Bucket: bucket, Path: path}
}

// NewInvalidBucketName reports a bucket name that failed validation.
func NewInvalidBucketName(name string) *Error {
	return &Error{Code: InvalidBucketName, Message: "invalid bucket name", Path: name}
}

// NewInvalidPath reports a path that failed parsing or validation.
func NewInvalidPath(path string) *Error {
	return &Error{Code: InvalidPath, Message: "invalid path", Path: path}
}

// NewTypeMismatch reports that a value was not of the expected type.
func NewTypeMismatch(expected, actual string) *Error {
	return &Error{Code: TypeMismatch, Message: fmt.Sprintf("expected %s, got %s", expected, actual)}
}

// NewClosed reports an operation attempted after close.
func NewClosed(what string) *Error {
	return &Error{Code: Closed, Message: what + " is closed"}
}

// NewOther wraps a fault that does not merit its own code, such as
// "not connected".
func NewOther(message string) *Error {
	return &Error{Code: Other, Message: message}
}

// Aggregate collects more than one error into a single value, used
// when a cleanup step fails alongside the original fault it was
// compensating for and both need to be reported.
type Aggregate struct {
	Errors []error
}

func (a *Aggregate) Error() string {
	msgs := make([]string, len(a.Errors))
	for i, e := range a.Errors {
		msgs[i] = e.Error()
	}
	return "multiple errors: " + strings.Join(msgs, "; ")
}

// Unwrap exposes the aggregated errors to errors.Is/errors.As.
func (a *Aggregate) Unwrap() []error {
	return a.Errors
}

// NewAggregate returns nil if errs is empty, the sole error if it
// holds exactly one, and an *Aggregate otherwise.
func NewAggregate(errs ...error) error {
	var nonNil []error
	for _, e := range errs {
		if e != nil {
			nonNil = append(nonNil, e)
		}
	}
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	default:
		return &Aggregate{Errors: nonNil}
	}
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsNotFound reports whether err is a FileNotFound domain error.
func IsNotFound(err error) bool { return Is(err, FileNotFound) }

// IsAlreadyExists reports whether err is a FileExists domain error.
func IsAlreadyExists(err error) bool { return Is(err, FileExists) }

// IsClosed reports whether err is a Closed domain error.
func IsClosed(err error) bool { return Is(err, Closed) }
