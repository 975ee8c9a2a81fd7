package kar

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fxamacker/cbor/v2"
)

var indexDec = func() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		MaxArrayElements: 1 << 24,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}()

// Archive is an opened, validated archive. Safe for concurrent use as long
// as the underlying io.ReaderAt is.
type Archive struct {
	r      io.ReaderAt
	base   int64 // first blob byte
	header Header
	byName map[string]int
}

// Open reads and validates the index of the size-byte archive behind r.
func Open(r io.ReaderAt, size int64) (*Archive, error) {
	if size < prefixLen {
		return nil, ErrFormat
	}
	var pre [prefixLen]byte
	if err := readAt(r, pre[:], 0); err != nil {
		return nil, fmt.Errorf("kar: read header: %w", err)
	}
	if !bytes.Equal(pre[:4], magic[:]) {
		return nil, ErrFormat
	}
	if pre[4] != formatVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, pre[4])
	}
	ilen := int64(binary.BigEndian.Uint32(pre[5:9]))
	if ilen > maxIndexLen || ilen > size-prefixLen {
		return nil, ErrFormat
	}

	raw := make([]byte, ilen)
	if err := readAt(r, raw, prefixLen); err != nil {
		return nil, fmt.Errorf("kar: read index: %w", err)
	}
	var h Header
	if err := indexDec.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("%w: index: %v", ErrFormat, err)
	}

	a := &Archive{
		r:      r,
		base:   prefixLen + ilen,
		header: h,
		byName: make(map[string]int, len(h.Entries)),
	}
	blobs := size - a.base
	for i, e := range h.Entries {
		if !validName(e.Name) || e.Offset < 0 || e.Stored < 0 || e.Size < 0 ||
			e.Offset > blobs || e.Stored > blobs-e.Offset || e.Compression > Zstd {
			return nil, fmt.Errorf("%w: entry %d", ErrFormat, i)
		}
		if e.Compression == None && e.Size != e.Stored {
			return nil, fmt.Errorf("%w: entry %q", ErrFormat, e.Name)
		}
		if _, dup := a.byName[e.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicate, e.Name)
		}
		a.byName[e.Name] = i
	}
	return a, nil
}

// Header returns the archive metadata. Entries are in archive order.
func (a *Archive) Header() Header {
	h := a.header
	h.Entries = append([]Entry(nil), a.header.Entries...)
	return h
}

// Names returns the entry names in sorted order.
func (a *Archive) Names() []string {
	out := make([]string, 0, len(a.byName))
	for n := range a.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (a *Archive) Stat(name string) (Entry, error) {
	i, ok := a.byName[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotExist, name)
	}
	return a.header.Entries[i], nil
}

// ReadAll returns the uncompressed contents of name.
func (a *Archive) ReadAll(name string) ([]byte, error) {
	e, err := a.Stat(name)
	if err != nil {
		return nil, err
	}
	stored := make([]byte, e.Stored)
	if err := readAt(a.r, stored, a.base+e.Offset); err != nil {
		return nil, fmt.Errorf("kar: read %s: %w", name, err)
	}
	return decompress(stored, e)
}

// readAt fills p. An io.EOF that arrives together with a full read is not
// an error.
func readAt(r io.ReaderAt, p []byte, off int64) error {
	if len(p) == 0 {
		return nil
	}
	n, err := r.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// File is an Archive backed by an open file.
type File struct {
	*Archive
	f *os.File
}

// OpenFile opens and validates the archive at path.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	a, err := Open(f, st.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	return &File{Archive: a, f: f}, nil
}

func (f *File) Close() error { return f.f.Close() }
