package kar

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	return dec
}

// compress returns the stored form of data and the compression actually
// applied. Data that does not shrink is stored as is.
func compress(data []byte, c Compression) ([]byte, Compression, error) {
	if c == None || len(data) == 0 {
		return data, None, nil
	}
	var out []byte
	switch c {
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, None, err
		}
		out = buf[:n] // n == 0: incompressible
	case Zstd:
		enc := getZstdEncoder()
		out = enc.EncodeAll(data, make([]byte, 0, len(data)))
		zstdEncoderPool.Put(enc)
	default:
		return nil, None, fmt.Errorf("kar: unknown compression %d", c)
	}
	if len(out) == 0 || len(out) >= len(data) {
		return data, None, nil
	}
	return out, c, nil
}

func decompress(stored []byte, e Entry) ([]byte, error) {
	switch e.Compression {
	case None:
		return stored, nil
	case LZ4:
		out := make([]byte, e.Size)
		n, err := lz4.UncompressBlock(stored, out)
		if err != nil {
			return nil, fmt.Errorf("kar: %s: %w", e.Name, err)
		}
		if int64(n) != e.Size {
			return nil, fmt.Errorf("%w: %s: size mismatch", ErrFormat, e.Name)
		}
		return out, nil
	case Zstd:
		dec := getZstdDecoder()
		out, err := dec.DecodeAll(stored, make([]byte, 0, e.Size))
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, fmt.Errorf("kar: %s: %w", e.Name, err)
		}
		if int64(len(out)) != e.Size {
			return nil, fmt.Errorf("%w: %s: size mismatch", ErrFormat, e.Name)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s: unknown compression %d", ErrFormat, e.Name, e.Compression)
}
