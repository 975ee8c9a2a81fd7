package resload

import "github.com/unkn0wn-root/resload/codec"

// RequestAll requests every descriptor that has not been requested yet.
// Call it once per tick with the descriptors of the current frame.
func RequestAll(m *Manager, descs []*Descriptor) {
	for _, d := range descs {
		if d != nil && d.ShouldRequest() {
			m.Request(d)
		}
	}
}

// Collect polls every requested descriptor and calls fn for those whose
// state is terminal. It returns how many descriptors are still loading.
func Collect(m *Manager, descs []*Descriptor, fn func(d *Descriptor, st State)) int {
	loading := 0
	for _, d := range descs {
		if d == nil {
			continue
		}
		k, ok := d.Key()
		if !ok {
			continue
		}
		st := m.Get(k)
		if !st.IsTerminal() {
			loading++
			continue
		}
		fn(d, st)
	}
	return loading
}

// Parse hands the payload of a Loaded state to c. Any other state yields
// ErrNotLoaded, or the state's own error for Error states.
func Parse[V any](st State, c codec.Codec[V]) (V, error) {
	var zero V
	if err := st.Err(); err != nil {
		return zero, err
	}
	b, ok := st.Bytes()
	if !ok {
		return zero, ErrNotLoaded
	}
	return c.Decode(b)
}
