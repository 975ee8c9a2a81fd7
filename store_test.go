package resload

import (
	"errors"
	"sync"
	"testing"
)

func TestCounterConcurrentUniqueAndMonotonic(t *testing.T) {
	var c Counter
	const goroutines, per = 16, 1000

	results := make([][]Key, goroutines)
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			ks := make([]Key, per)
			for i := range ks {
				ks[i] = c.Issue()
			}
			results[g] = ks
		}(g)
	}
	wg.Wait()

	seen := make(map[Key]bool, goroutines*per)
	for _, ks := range results {
		for i, k := range ks {
			if k == 0 {
				t.Fatalf("issued zero key")
			}
			if seen[k] {
				t.Fatalf("duplicate key %d", k)
			}
			seen[k] = true
			// each goroutine observes strictly increasing keys
			if i > 0 && k <= ks[i-1] {
				t.Fatalf("non-monotonic: %d after %d", k, ks[i-1])
			}
		}
	}
	if next := c.Issue(); next != Key(goroutines*per+1) {
		t.Fatalf("next key = %d, want %d", next, goroutines*per+1)
	}
}

func TestStoreSnapshotUnknown(t *testing.T) {
	s := NewStore()
	st := s.Snapshot(7)
	if kind, ok := st.ErrorKind(); !ok || kind != Unknown {
		t.Fatalf("expected Error(Unknown), got %v", st)
	}
	if s.Len() != 0 {
		t.Fatalf("Snapshot must not insert")
	}
}

func TestStoreTerminalIsWriteOnce(t *testing.T) {
	s := NewStore()
	if !s.Put(1, Loading()) {
		t.Fatalf("initial Loading write refused")
	}
	if !s.Put(1, Loaded([]byte("A"))) {
		t.Fatalf("terminal write refused")
	}
	if s.Put(1, Loading()) {
		t.Fatalf("Loading after terminal must be refused")
	}
	if s.Put(1, Failed(LoadFailed, errors.New("late"))) {
		t.Fatalf("second terminal write must be refused")
	}
	if b, ok := s.Snapshot(1).Bytes(); !ok || string(b) != "A" {
		t.Fatalf("terminal state changed: %v", s.Snapshot(1))
	}
}

func TestStoreStats(t *testing.T) {
	s := NewStore()
	s.Put(1, Loading())
	s.Put(2, Loaded(nil))
	s.Put(3, Failed(NotFound, nil))
	s.Put(4, Failed(LoadFailed, nil))

	want := StoreStats{Loading: 1, Loaded: 1, Failed: 2}
	if got := s.Stats(); got != want {
		t.Fatalf("Stats = %+v, want %+v", got, want)
	}
	if s.Len() != 4 {
		t.Fatalf("Len = %d", s.Len())
	}
}

func TestStateVariants(t *testing.T) {
	if Loading().IsTerminal() {
		t.Fatalf("Loading is not terminal")
	}
	if Loading().Err() != nil {
		t.Fatalf("Loading has no error")
	}
	if _, ok := Loading().Bytes(); ok {
		t.Fatalf("Loading has no bytes")
	}

	ld := Loaded([]byte("x"))
	if !ld.IsTerminal() || ld.Err() != nil {
		t.Fatalf("Loaded: %v", ld)
	}
	if _, ok := ld.ErrorKind(); ok {
		t.Fatalf("Loaded has no error kind")
	}

	cause := errors.New("eio")
	fl := Failed(LoadFailed, cause)
	if !fl.IsTerminal() {
		t.Fatalf("Error is terminal")
	}
	if !errors.Is(fl.Err(), ErrLoadFailed) || !errors.Is(fl.Err(), cause) {
		t.Fatalf("Err does not match sentinel and cause: %v", fl.Err())
	}
	if errors.Is(fl.Err(), ErrNotFound) {
		t.Fatalf("LoadFailed matched ErrNotFound")
	}
}

func TestStateEqual(t *testing.T) {
	cases := []struct {
		a, b State
		eq   bool
	}{
		{Loading(), Loading(), true},
		{Loaded([]byte("a")), Loaded([]byte("a")), true},
		{Loaded([]byte("a")), Loaded([]byte("b")), false},
		{Failed(NotFound, errors.New("x")), Failed(NotFound, errors.New("y")), true},
		{Failed(NotFound, nil), Failed(LoadFailed, nil), false},
		{Loading(), Failed(Unknown, nil), false},
	}
	for i, tc := range cases {
		if got := tc.a.Equal(tc.b); got != tc.eq {
			t.Fatalf("case %d: %v.Equal(%v) = %v", i, tc.a, tc.b, got)
		}
	}
}

func TestStateString(t *testing.T) {
	if s := Loaded([]byte("abc")).String(); s != "loaded(3 bytes)" {
		t.Fatalf("got %q", s)
	}
	if s := Failed(NotFound, nil).String(); s != "error(not found)" {
		t.Fatalf("got %q", s)
	}
	if s := Loading().String(); s != "loading" {
		t.Fatalf("got %q", s)
	}
}
