package resload

import "sync"

// Store is the shared map from Key to State. Every read and write goes
// through one RWMutex and holds it only for the map operation itself.
//
// Entries are never evicted.
type Store struct {
	mu      sync.RWMutex
	entries map[Key]State
}

// StoreStats counts entries per phase.
type StoreStats struct {
	Loading int
	Loaded  int
	Failed  int
}

func NewStore() *Store {
	return &Store{entries: make(map[Key]State)}
}

// Put sets the state for k. A terminal entry is write-once: Put refuses to
// overwrite it and reports false.
func (s *Store) Put(k Key, st State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.entries[k]; ok && cur.IsTerminal() {
		return false
	}
	s.entries[k] = st
	return true
}

// Snapshot returns the current state for k, or Error(Unknown) when k is not
// in the store. It never waits for a pending load.
func (s *Store) Snapshot(k Key) State {
	st, ok := s.lookup(k)
	if !ok {
		return Failed(Unknown, nil)
	}
	return st
}

func (s *Store) lookup(k Key) (State, bool) {
	s.mu.RLock()
	st, ok := s.entries[k]
	s.mu.RUnlock()
	return st, ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) Stats() StoreStats {
	var out StoreStats
	s.mu.RLock()
	for _, st := range s.entries {
		switch st.phase {
		case PhaseLoading:
			out.Loading++
		case PhaseLoaded:
			out.Loaded++
		case PhaseError:
			out.Failed++
		}
	}
	s.mu.RUnlock()
	return out
}
