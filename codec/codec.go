// Package codec centralizes the JSON encoding of engine parameters and
// capture metadata.
//
// The engine parses the geometry descriptor as plain JSON, so any codec here
// must produce standard JSON. Capture files record the codec name in each
// record's metadata so that a reader can pick the same one.
package codec

import "fmt"

// Codec converts values to and from JSON. Implementations are stateless and
// safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns the codec a capture record names.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// MustMarshal encodes v with c, or with Default when c is nil, and panics on
// failure.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
