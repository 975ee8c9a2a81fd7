package loader

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

const schemeSep = "://"

// Mux routes paths of the form "<scheme>://<rest>" to the backend registered
// for scheme, passing it only <rest>. Paths without a scheme go to the
// default backend.
type Mux struct {
	mu       sync.RWMutex
	def      Loader
	backends map[string]Loader
}

var _ Loader = (*Mux)(nil)

// NewMux returns a Mux with def as the fallback backend. def may be nil.
func NewMux(def Loader) *Mux {
	return &Mux{def: def, backends: make(map[string]Loader)}
}

// Handle registers l for scheme, replacing any earlier registration.
func (m *Mux) Handle(scheme string, l Loader) {
	m.mu.Lock()
	m.backends[scheme] = l
	m.mu.Unlock()
}

func (m *Mux) Load(ctx context.Context, path string) ([]byte, error) {
	l, rest := m.route(path)
	if l == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoRoute, path)
	}
	return l.Load(ctx, rest)
}

func (m *Mux) route(path string) (Loader, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if scheme, rest, ok := strings.Cut(path, schemeSep); ok {
		if l, found := m.backends[scheme]; found {
			return l, rest
		}
		return nil, path
	}
	return m.def, path
}
