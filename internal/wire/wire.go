// Package wire frames resource payloads stored in a content cache so that
// truncated, foreign or bit-flipped values are detected on read.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/cespare/xxhash/v2"
)

const (
	version byte = 1
	hdrLen       = 4 + 1 + 8 + 4
)

var (
	ErrCorrupt = errors.New("resload: corrupt cache entry")
	magic4     = [...]byte{'R', 'S', 'L', 'D'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Encode frames payload:
//
//	magic(4) | ver(1) | xxh64(payload, u64 be) | plen(u32 be) | payload(plen)
func Encode(payload []byte) []byte {
	out := make([]byte, hdrLen+len(payload))
	copy(out, magic4[:])
	out[4] = version
	binary.BigEndian.PutUint64(out[5:13], xxhash.Sum64(payload))
	binary.BigEndian.PutUint32(out[13:17], uint32(len(payload)))
	copy(out[hdrLen:], payload)
	return out
}

// Decode validates a frame and returns its payload. The payload aliases b.
func Decode(b []byte) ([]byte, error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version {
		return nil, ErrCorrupt
	}
	sum := binary.BigEndian.Uint64(b[5:13])
	plen := int(binary.BigEndian.Uint32(b[13:17]))
	if plen != len(b)-hdrLen { // trailing or missing bytes
		return nil, ErrCorrupt
	}
	payload := b[hdrLen:]
	if xxhash.Sum64(payload) != sum {
		return nil, ErrCorrupt
	}
	return payload, nil
}
