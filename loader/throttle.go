package loader

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttled limits the aggregate throughput of the wrapped Loader.
// The payload is read first and then charged against the limiter, so a
// single large resource delays its own completion rather than the reads of
// others already in flight.
type Throttled struct {
	inner Loader
	lim   *rate.Limiter
}

var _ Loader = (*Throttled)(nil)

// Throttle wraps l so that at most bytesPerSec bytes are delivered per second
// on average. bytesPerSec <= 0 returns l unchanged.
func Throttle(l Loader, bytesPerSec int) Loader {
	if bytesPerSec <= 0 {
		return l
	}
	return &Throttled{inner: l, lim: rate.NewLimiter(rate.Limit(bytesPerSec), bytesPerSec)}
}

func (t *Throttled) Load(ctx context.Context, path string) ([]byte, error) {
	b, err := t.inner.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	// WaitN rejects n > burst, so charge in burst-sized chunks.
	burst := t.lim.Burst()
	for n := len(b); n > 0; {
		c := min(n, burst)
		if err := t.lim.WaitN(ctx, c); err != nil {
			return nil, err
		}
		n -= c
	}
	return b, nil
}
