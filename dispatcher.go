package resload

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/unkn0wn-root/resload/loader"
)

type job struct {
	key  Key
	path string
}

// DispatcherOptions tune a Dispatcher. The zero value is usable.
type DispatcherOptions struct {
	Workers int    // max concurrent loads; 0 => GOMAXPROCS
	Logger  Logger // nil => NopLogger
	Hooks   Hooks  // nil => NopHooks
}

// Dispatcher drains an unbounded FIFO of load jobs on background goroutines
// and records each outcome in the Store. At most Workers loads run at once;
// jobs for different keys complete in whatever order their loads finish.
type Dispatcher struct {
	store  *Store
	loader loader.Loader
	log    Logger
	hooks  Hooks
	sem    *semaphore.Weighted

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []job
	closed bool

	inflight sync.WaitGroup
	done     chan struct{}
}

// NewDispatcher starts the dispatch loop. It runs until Close.
func NewDispatcher(store *Store, l loader.Loader, opts DispatcherOptions) *Dispatcher {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	d := &Dispatcher{
		store:  store,
		loader: l,
		log:    coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:  coalesce[Hooks](opts.Hooks, NopHooks{}),
		sem:    semaphore.NewWeighted(int64(workers)),
		done:   make(chan struct{}),
	}
	d.cond = sync.NewCond(&d.mu)
	go d.loop()
	return d
}

// Submit enqueues a load of path whose result is written under k.
// It never blocks; it returns false once the dispatcher is closed.
func (d *Dispatcher) Submit(k Key, path string) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	d.queue = append(d.queue, job{key: k, path: path})
	d.mu.Unlock()
	d.cond.Signal()
	return true
}

// Pending returns the number of jobs waiting for a free worker.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Close stops accepting jobs and waits until every queued and running load
// has recorded its result, or until ctx is done. Loads are never aborted;
// when ctx expires first they keep running in the background.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	first := !d.closed
	d.closed = true
	pending := len(d.queue)
	d.mu.Unlock()
	d.cond.Broadcast()

	if first {
		d.log.Info("dispatcher closing", Fields{"pending": pending})
	}
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) next() (job, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for len(d.queue) == 0 && !d.closed {
		d.cond.Wait()
	}
	if len(d.queue) == 0 {
		return job{}, false
	}
	j := d.queue[0]
	d.queue[0] = job{}
	d.queue = d.queue[1:]
	return j, true
}

func (d *Dispatcher) loop() {
	defer close(d.done)
	ctx := context.Background()
	for {
		j, ok := d.next()
		if !ok {
			break
		}
		// cannot fail: ctx is never cancelled
		_ = d.sem.Acquire(ctx, 1)
		d.inflight.Add(1)
		go func() {
			defer d.inflight.Done()
			defer d.sem.Release(1)
			d.run(ctx, j)
		}()
	}
	d.inflight.Wait()
}

func (d *Dispatcher) run(ctx context.Context, j job) {
	d.hooks.LoadStarted(j.key, j.path)
	start := time.Now()

	b, err := d.load(ctx, j.path)
	if err != nil {
		kind := classify(err)
		lerr := &LoadError{Key: j.key, Path: j.path, Kind: kind, Err: err}
		d.write(j.key, Failed(kind, lerr))
		d.log.Warn("load failed", Fields{"key": j.key, "path": j.path, "kind": kind.String(), "err": err})
		d.hooks.LoadFailed(j.key, j.path, kind, err)
		return
	}

	took := time.Since(start)
	d.write(j.key, Loaded(b))
	d.log.Debug("load completed", Fields{"key": j.key, "path": j.path, "size": len(b), "took": took})
	d.hooks.LoadFinished(j.key, j.path, len(b), took)
}

// load shields the dispatcher from a misbehaving Loader.
func (d *Dispatcher) load(ctx context.Context, path string) (b []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, fmt.Errorf("loader panic: %v", r)
		}
	}()
	return d.loader.Load(ctx, path)
}

func (d *Dispatcher) write(k Key, st State) {
	if !d.store.Put(k, st) {
		d.log.Warn("refused overwrite of terminal state", Fields{"key": k, "state": st.String()})
		d.hooks.TerminalOverwrite(k)
	}
}

func classify(err error) ErrorKind {
	if errors.Is(err, loader.ErrNotFound) {
		return NotFound
	}
	return LoadFailed
}
