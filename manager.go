package resload

import (
	"context"
	"errors"

	"github.com/unkn0wn-root/resload/loader"
)

// Options configure a Manager. Only Loader is required.
type Options struct {
	Loader loader.Loader

	Logger  Logger    // nil => NopLogger
	Hooks   Hooks     // nil => NopHooks
	Issuer  KeyIssuer // nil => a fresh Counter
	Workers int       // concurrent loads; 0 => GOMAXPROCS
}

// Manager is the caller-facing façade: Request enqueues a load, Get reads the
// current state. Neither ever blocks on I/O. Managers are independent values;
// create one per engine (or per test) and pass it where it is needed.
type Manager struct {
	issuer KeyIssuer
	store  *Store
	disp   *Dispatcher
	log    Logger
	hooks  Hooks
}

// New builds a Manager and starts its dispatcher. An error here means the
// loading subsystem cannot run at all and should abort startup.
func New(opts Options) (*Manager, error) {
	if opts.Loader == nil {
		return nil, errors.New("resload: loader is required")
	}
	m := &Manager{
		store: NewStore(),
		log:   coalesce[Logger](opts.Logger, NopLogger{}),
		hooks: coalesce[Hooks](opts.Hooks, NopHooks{}),
	}
	m.issuer = opts.Issuer
	if m.issuer == nil {
		m.issuer = &Counter{}
	}
	m.disp = NewDispatcher(m.store, opts.Loader, DispatcherOptions{
		Workers: opts.Workers,
		Logger:  m.log,
		Hooks:   m.hooks,
	})
	return m, nil
}

// Request starts loading d.Path unless d already carries a key, in which
// case it does nothing. On return d has a key and Get(key) reports at least
// Loading.
//
// A Descriptor must not be passed to Request from several goroutines at once.
func (m *Manager) Request(d *Descriptor) {
	if d == nil || !d.ShouldRequest() {
		return
	}
	k := m.issuer.Issue()
	d.attach(k)

	// Loading must be visible before the job can possibly finish.
	m.store.Put(k, Loading())
	if !m.disp.Submit(k, d.Path) {
		m.store.Put(k, Failed(LoadFailed, &LoadError{Key: k, Path: d.Path, Kind: LoadFailed, Err: ErrClosed}))
		m.log.Warn("request after close", Fields{"key": k, "path": d.Path})
		return
	}
	m.log.Debug("request accepted", Fields{"key": k, "path": d.Path})
}

// Get returns the current state of k. Keys not issued by this manager read
// as Error(Unknown).
func (m *Manager) Get(k Key) State {
	st, ok := m.store.lookup(k)
	if !ok {
		m.hooks.UnknownKey(k)
		return Failed(Unknown, nil)
	}
	return st
}

// Stats counts store entries per phase.
func (m *Manager) Stats() StoreStats { return m.store.Stats() }

// Pending returns the number of accepted requests not yet picked up by a
// worker.
func (m *Manager) Pending() int { return m.disp.Pending() }

// Close stops accepting requests and waits for in-flight loads (bounded by
// ctx). States already recorded stay readable through Get.
func (m *Manager) Close(ctx context.Context) error {
	return m.disp.Close(ctx)
}

// coalesce picks def when v is T's zero value.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
