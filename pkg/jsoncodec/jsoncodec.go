// Package jsoncodec defines the pluggable JSON codec used to encode
// and decode the catalog's opaque metadata blob (spec.md §6's "json"
// Manager construction option).
package jsoncodec

import "encoding/json"

// Codec marshals and unmarshals arbitrary metadata values. Callers may
// substitute their own implementation; the only contract is
// round-trip consistency with itself.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// stdCodec is the default Codec, backed by encoding/json.
type stdCodec struct{}

func (stdCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (stdCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Default is the encoding/json-backed Codec used when a Manager is
// constructed without an explicit one.
var Default Codec = stdCodec{}
