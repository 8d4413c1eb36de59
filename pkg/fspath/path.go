// Package fspath parses and validates the slash-delimited path strings
// used to address objects within a bucket. It has no notion of an
// underlying filesystem; it is pure string manipulation.
package fspath

import (
	"strings"
	"unicode/utf8"

	"github.com/bucketfs/bucketfs/pkg/storeerr"
)

// MaxLength is the largest accepted byte length of a path string.
const MaxLength = 1024

// Path is the parsed form of a validated path string.
type Path struct {
	full     string
	segments []string
}

// Parse validates raw and splits it into segments. It fails with an
// InvalidPath domain error on malformed UTF-8 or an oversize input.
// The empty string is accepted and denotes the bucket root.
func Parse(raw string) (Path, error) {
	if len(raw) > MaxLength {
		return Path{}, storeerr.NewInvalidPath(raw)
	}
	if !utf8.ValidString(raw) {
		return Path{}, storeerr.NewInvalidPath(raw)
	}

	if raw == "" {
		return Path{full: "", segments: nil}, nil
	}

	segments := strings.Split(raw, "/")
	return Path{full: raw, segments: segments}, nil
}

// String returns the original path string.
func (p Path) String() string { return p.full }

// Segments returns the path split on "/". The root path has a nil
// (zero-length) segment slice.
func (p Path) Segments() []string {
	out := make([]string, len(p.segments))
	copy(out, p.segments)
	return out
}

// Depth returns the number of segments.
func (p Path) Depth() int { return len(p.segments) }

// IsRoot reports whether p addresses the bucket root.
func (p Path) IsRoot() bool { return len(p.segments) == 0 }

// Dirname returns the path of the parent directory, or "" at the root.
func (p Path) Dirname() string {
	if len(p.segments) <= 1 {
		return ""
	}
	return strings.Join(p.segments[:len(p.segments)-1], "/")
}

// Basename returns the final path segment, or "" at the root.
func (p Path) Basename() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// Filename returns the basename with its final dot-extension removed.
// A dot-prefixed name such as ".bashrc" has no extension and is
// returned unchanged.
func (p Path) Filename() string {
	base := p.Basename()
	name, _ := splitExt(base)
	return name
}

// Extname returns the basename's final extension, including the
// leading dot, or "" if there is none.
func (p Path) Extname() string {
	_, ext := splitExt(p.Basename())
	return ext
}

func splitExt(base string) (name, ext string) {
	i := strings.LastIndexByte(base, '.')
	if i <= 0 {
		// No dot, or the name is dot-prefixed with no further dot
		// (e.g. ".bashrc"): treat as extension-less.
		return base, ""
	}
	return base[:i], base[i:]
}

// Join builds the canonical path string for a set of segments.
func Join(segments []string) string {
	return strings.Join(segments, "/")
}
