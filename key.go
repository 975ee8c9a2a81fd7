package resload

import (
	"strconv"
	"sync/atomic"
)

// Key is the opaque handle correlating a Request with its eventual result.
// Keys are totally ordered by issue order and never reused within an issuer.
type Key uint64

func (k Key) String() string { return strconv.FormatUint(uint64(k), 10) }

// KeyIssuer hands out unique, strictly increasing keys.
// Must be safe for concurrent use.
type KeyIssuer interface {
	Issue() Key
}

// Counter is the default in-process KeyIssuer. The zero value is ready to
// use; the first key it issues is 1.
type Counter struct {
	n atomic.Uint64
}

var _ KeyIssuer = (*Counter)(nil)

func (c *Counter) Issue() Key { return Key(c.n.Add(1)) }
