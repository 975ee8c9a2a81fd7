package codec

import (
	"errors"
	"fmt"
)

var (
	ErrEncodeUnsupported = errors.New("codec: encode not supported")
	ErrTooLarge          = errors.New("codec: payload too large")
)

// MaxSize rejects payloads longer than Max bytes before handing them to
// Inner. Max <= 0 disables the check. Encode is forwarded unchanged.
type MaxSize[V any] struct {
	Inner Codec[V]
	Max   int
}

func (c MaxSize[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }

func (c MaxSize[V]) Decode(b []byte) (V, error) {
	if c.Max > 0 && len(b) > c.Max {
		var zero V
		return zero, fmt.Errorf("%w: %d > %d", ErrTooLarge, len(b), c.Max)
	}
	return c.Inner.Decode(b)
}
