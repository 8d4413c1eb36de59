// Package mimetype infers a MIME type for an object, the "MIME
// lookup" collaborator spec.md names as an external concern. It
// prefers the extension on the path and falls back to content
// sniffing when the extension is absent or unrecognized.
package mimetype

import (
	"mime"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// Default is returned when neither the extension nor a content sniff
// can determine a type.
const Default = "application/octet-stream"

// FromPath returns the MIME type registered for basename's extension,
// or Default if none is registered.
func FromPath(basename string) string {
	ext := filepath.Ext(basename)
	if ext == "" {
		return Default
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return stripParams(t)
	}
	return Default
}

// Detect infers a MIME type for basename, preferring its extension
// and falling back to sniffing the leading bytes of content when the
// extension is unrecognized.
func Detect(basename string, content []byte) string {
	if t := FromPath(basename); t != Default {
		return t
	}
	return mimetype.Detect(content).String()
}

func stripParams(t string) string {
	if i := indexByte(t, ';'); i >= 0 {
		return t[:i]
	}
	return t
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
