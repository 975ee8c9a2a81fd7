package resload

// Descriptor identifies an external resource by its path and, once
// requested, carries the key of that request. The key is attached exactly
// once by Manager.Request and never changes afterwards.
type Descriptor struct {
	Path string

	key    Key
	hasKey bool
}

// NewDescriptor returns an unrequested descriptor for path.
func NewDescriptor(path string) *Descriptor {
	return &Descriptor{Path: path}
}

// ShouldRequest reports whether d has not been requested yet.
func (d *Descriptor) ShouldRequest() bool { return !d.hasKey }

// Key returns the attached key, if any.
func (d *Descriptor) Key() (Key, bool) { return d.key, d.hasKey }

func (d *Descriptor) attach(k Key) {
	d.key = k
	d.hasKey = true
}
