// usage:
//
// import (
//
//	"log/slog"
//
//	"github.com/unkn0wn-root/resload"
//	"github.com/unkn0wn-root/resload/hooks/async"
//	"github.com/unkn0wn-root/resload/loader/file"
//	"github.com/unkn0wn-root/resload/sloghooks"
//
// )
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    FinishedEvery: 100, // sample logs: ~every 100th successful load
//	})
//
// hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
// defer hooks.Close()
//
//	mgr, _ := resload.New(resload.Options{
//	    Loader: file.New("./assets"),
//	    Hooks:  hooks, // or `raw` if you don’t want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/resload"
)

type Hooks struct {
	inner resload.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once

	mu      sync.RWMutex // guards closed against sends on a closed q
	closed  bool
	dropped atomic.Uint64
}

var _ resload.Hooks = (*Hooks)(nil)

func New(inner resload.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close stops accepting events and waits for queued ones to run.
// Events fired after Close are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded because the queue was full
// or the hooks were closed.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) LoadStarted(k resload.Key, p string) { h.try(func() { h.inner.LoadStarted(k, p) }) }
func (h *Hooks) UnknownKey(k resload.Key)            { h.try(func() { h.inner.UnknownKey(k) }) }
func (h *Hooks) TerminalOverwrite(k resload.Key)     { h.try(func() { h.inner.TerminalOverwrite(k) }) }
func (h *Hooks) LoadFinished(k resload.Key, p string, n int, d time.Duration) {
	h.try(func() { h.inner.LoadFinished(k, p, n, d) })
}
func (h *Hooks) LoadFailed(k resload.Key, p string, kind resload.ErrorKind, err error) {
	h.try(func() { h.inner.LoadFailed(k, p, kind, err) })
}
