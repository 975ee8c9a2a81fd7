// Package cached puts a provider.Provider byte store in front of a Loader.
//
// Hits skip the wrapped loader entirely. Stored values are framed and
// checksummed; a value that fails validation is deleted and the resource is
// re-read. A failing provider never fails a load: errors are logged and the
// wrapped loader is used directly. Failed loads are never cached.
package cached

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/resload"
	"github.com/unkn0wn-root/resload/internal/wire"
	"github.com/unkn0wn-root/resload/loader"
	"github.com/unkn0wn-root/resload/provider"
)

var ErrNilProvider = errors.New("cached: nil provider")

type Options struct {
	Provider provider.Provider // required
	// TTL passed to Provider.Set; 0 = no expiry where supported.
	TTL time.Duration
	// Payloads larger than MaxEntrySize are served but not cached. 0 = no limit.
	MaxEntrySize int
	Logger       resload.Logger
}

type Loader struct {
	inner loader.Loader
	p     provider.Provider
	ttl   time.Duration
	max   int
	log   resload.Logger

	hits, misses, healed atomic.Uint64
}

var _ loader.Loader = (*Loader)(nil)

// Stats are cumulative counters since New.
type Stats struct {
	Hits     uint64
	Misses   uint64
	SelfHeal uint64
}

func New(inner loader.Loader, opts Options) (*Loader, error) {
	if opts.Provider == nil {
		return nil, ErrNilProvider
	}
	return &Loader{
		inner: inner,
		p:     opts.Provider,
		ttl:   opts.TTL,
		max:   opts.MaxEntrySize,
		log:   coalesceLogger(opts.Logger),
	}, nil
}

func (c *Loader) Load(ctx context.Context, path string) ([]byte, error) {
	raw, ok, err := c.p.Get(ctx, path)
	switch {
	case err != nil:
		c.log.Warn("content cache get failed; reading through",
			resload.Fields{"path": path, "err": err})
	case ok:
		payload, derr := wire.Decode(raw)
		if derr == nil {
			c.hits.Add(1)
			return payload, nil
		}
		c.healed.Add(1)
		_ = c.p.Del(ctx, path) // self-heal corrupt
		c.log.Debug("content cache entry dropped",
			resload.Fields{"path": path, "reason": derr.Error()})
	}

	c.misses.Add(1)
	b, err := c.inner.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	if c.max > 0 && len(b) > c.max {
		return b, nil
	}
	if ok, err := c.p.Set(ctx, path, wire.Encode(b), int64(len(b)), c.ttl); err != nil {
		c.log.Warn("content cache set failed",
			resload.Fields{"path": path, "err": err})
	} else if !ok {
		c.log.Debug("content cache rejected entry",
			resload.Fields{"path": path, "size": len(b)})
	}
	return b, nil
}

// Invalidate drops the cached copy of path.
func (c *Loader) Invalidate(ctx context.Context, path string) error {
	return c.p.Del(ctx, path)
}

func (c *Loader) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), SelfHeal: c.healed.Load()}
}

func coalesceLogger(l resload.Logger) resload.Logger {
	if l == nil {
		return resload.NopLogger{}
	}
	return l
}
