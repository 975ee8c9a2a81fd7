package kar

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

var indexEnc = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

type pending struct {
	entry Entry
	data  []byte
}

// Builder assembles an archive in memory. Archives cannot be appended to;
// collect everything with Add, then write once with WriteTo.
//
// Add is safe for concurrent use.
type Builder struct {
	header Header
	comp   Compression

	mu    sync.Mutex
	files map[string]pending
}

var _ io.WriterTo = (*Builder)(nil)

// NewBuilder returns a Builder that compresses entries with c. The Entries
// field of header is ignored.
func NewBuilder(header Header, c Compression) *Builder {
	header.Entries = nil
	return &Builder{header: header, comp: c, files: make(map[string]pending)}
}

// Add reads r to EOF and stores it as name, a slash-separated path as
// accepted by fs.ValidPath. Compression runs before the lock is taken.
func (b *Builder) Add(name string, r io.Reader) error {
	if !validName(name) {
		return fmt.Errorf("%w: %q", ErrName, name)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("kar: read %s: %w", name, err)
	}
	stored, c, err := compress(raw, b.comp)
	if err != nil {
		return fmt.Errorf("kar: compress %s: %w", name, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, dup := b.files[name]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicate, name)
	}
	b.files[name] = pending{
		entry: Entry{Name: name, Size: int64(len(raw)), Stored: int64(len(stored)), Compression: c},
		data:  stored,
	}
	return nil
}

// Len reports the number of added entries.
func (b *Builder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.files)
}

// WriteTo writes the archive. Entries are laid out in name order, so the
// same inputs always produce the same bytes.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	names := make([]string, 0, len(b.files))
	for n := range b.files {
		names = append(names, n)
	}
	sort.Strings(names)

	h := b.header
	h.Entries = make([]Entry, 0, len(names))
	var off int64
	for _, n := range names {
		e := b.files[n].entry
		e.Offset = off
		off += e.Stored
		h.Entries = append(h.Entries, e)
	}

	index, err := indexEnc.Marshal(h)
	if err != nil {
		return 0, fmt.Errorf("kar: encode index: %w", err)
	}
	if len(index) > maxIndexLen {
		return 0, fmt.Errorf("kar: index too large (%d bytes)", len(index))
	}

	var prefix bytes.Buffer
	prefix.Grow(prefixLen + len(index))
	prefix.Write(magic[:])
	prefix.WriteByte(formatVersion)
	var u4 [4]byte
	binary.BigEndian.PutUint32(u4[:], uint32(len(index)))
	prefix.Write(u4[:])
	prefix.Write(index)

	written, err := w.Write(prefix.Bytes())
	total := int64(written)
	if err != nil {
		return total, err
	}
	for _, n := range names {
		written, err = w.Write(b.files[n].data)
		total += int64(written)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
