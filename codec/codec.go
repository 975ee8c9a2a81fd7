// Package codec holds parsers for loaded resource payloads: a Codec turns
// the raw bytes of a Loaded state into a domain value (see resload.Parse)
// and back, for tools that produce resources.
package codec

// Codec converts between V and its stored byte form.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// DecodeFunc lifts a plain parser into a decode-only Codec. Encode reports
// ErrEncodeUnsupported.
type DecodeFunc[V any] func([]byte) (V, error)

func (f DecodeFunc[V]) Decode(b []byte) (V, error) { return f(b) }
func (f DecodeFunc[V]) Encode(V) ([]byte, error)   { return nil, ErrEncodeUnsupported }
