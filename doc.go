// Package resload loads external resources on background goroutines and
// caches their raw bytes so that a tick-driven caller never blocks on I/O.
//
// Components:
//   - KeyIssuer: unique, strictly increasing Keys (Counter by default).
//   - Store: Key -> State, guarded by one lock, never evicted.
//   - loader.Loader: path -> bytes (filesystem, S3, MinIO, Redis, kar archives).
//   - Dispatcher: unbounded job queue drained by a bounded set of goroutines.
//   - Manager: the façade combining the above.
//
// States:
//
//	Loading -> Loaded(bytes)
//	        -> Error(NotFound | LoadFailed)
//
// Terminal states are write-once. Get on a key that was never issued returns
// Error(Unknown) instead of blocking or panicking.
//
// Tick pattern:
//
//	m.Request(desc)          // once; no-op when desc already has a key
//	...
//	k, _ := desc.Key()
//	st := m.Get(k)           // every tick until st.IsTerminal()
//	if b, ok := st.Bytes(); ok {
//		mesh, err := parseMesh(b)
//	}
package resload
