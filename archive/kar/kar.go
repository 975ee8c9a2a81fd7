// Package kar implements a resource archive in which every entry is stored
// (and optionally compressed) on its own, with the full index at the front
// of the file. Entries can therefore be located and read individually
// without scanning the archive, and an Archive can be read concurrently.
//
// Layout:
//
//	magic "KAR\x00" | version(u8) | index length(u32 be) | CBOR index | blobs
//
// Entry offsets are relative to the first byte after the index.
package kar

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

const (
	formatVersion byte = 1
	prefixLen          = 4 + 1 + 4
	// maxIndexLen bounds the index read on Open.
	maxIndexLen = 64 << 20
)

var magic = [4]byte{'K', 'A', 'R', 0}

var (
	ErrFormat    = errors.New("kar: corrupted or not a kar archive")
	ErrVersion   = errors.New("kar: unsupported archive version")
	ErrDuplicate = errors.New("kar: duplicate entry name")
	ErrName      = errors.New("kar: invalid entry name")
	// ErrNotExist reports a name with no entry. It matches fs.ErrNotExist.
	ErrNotExist = fmt.Errorf("kar: %w", fs.ErrNotExist)
)

// Compression selects how an entry's bytes are stored.
type Compression uint8

const (
	None Compression = iota
	LZ4
	Zstd
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression accepts the names printed by Compression.String.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return Zstd, nil
	}
	return 0, fmt.Errorf("kar: unknown compression %q", s)
}

// Entry describes one stored resource.
type Entry struct {
	Name        string      `cbor:"1,keyasint"`
	Offset      int64       `cbor:"2,keyasint"`
	Size        int64       `cbor:"3,keyasint"` // uncompressed
	Stored      int64       `cbor:"4,keyasint"` // bytes on disk
	Compression Compression `cbor:"5,keyasint"`
}

// Header is the archive index.
type Header struct {
	Author  string  `cbor:"1,keyasint,omitempty"`
	Created int64   `cbor:"2,keyasint"` // unix seconds
	Version int64   `cbor:"3,keyasint"` // producer-defined content version
	Entries []Entry `cbor:"4,keyasint"`
}

func validName(name string) bool {
	return name != "" && fs.ValidPath(name) && name != "."
}
