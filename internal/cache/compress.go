package cache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects how DiskBlockCache stores block files.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionLZ4
	CompressionZSTD
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression resolves "none", "lz4" or "zstd".
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("unknown cache compression %q", s)
	}
}

var errCorruptBlock = errors.New("cache: corrupt block file")

// Block file header: rawLen u32 | storedLen u32 | mode u8. storedLen 0
// means the payload is stored raw.
const blockHeaderSize = 9

var (
	zstdEncoders sync.Pool
	zstdDecoders sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoders.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoders.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func encodeBlock(data []byte, mode Compression) ([]byte, error) {
	var packed []byte
	switch mode {
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		packed = buf[:n]
	case CompressionZSTD:
		enc := getZstdEncoder()
		packed = enc.EncodeAll(data, nil)
		zstdEncoders.Put(enc)
	}

	out := make([]byte, blockHeaderSize, blockHeaderSize+len(data))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	// Incompressible blocks are stored raw.
	if len(packed) == 0 || len(packed) >= len(data) {
		out[8] = byte(CompressionNone)
		return append(out, data...), nil
	}
	binary.LittleEndian.PutUint32(out[4:], uint32(len(packed)))
	out[8] = byte(mode)
	return append(out, packed...), nil
}

func decodeBlock(b []byte) ([]byte, error) {
	if len(b) < blockHeaderSize {
		return nil, errCorruptBlock
	}
	rawLen := int(binary.LittleEndian.Uint32(b[0:]))
	storedLen := int(binary.LittleEndian.Uint32(b[4:]))
	payload := b[blockHeaderSize:]

	switch Compression(b[8]) {
	case CompressionNone:
		if len(payload) != rawLen {
			return nil, errCorruptBlock
		}
		return payload, nil
	case CompressionLZ4:
		if len(payload) != storedLen {
			return nil, errCorruptBlock
		}
		out := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, err
		}
		if n != rawLen {
			return nil, errCorruptBlock
		}
		return out, nil
	case CompressionZSTD:
		if len(payload) != storedLen {
			return nil, errCorruptBlock
		}
		dec := getZstdDecoder()
		defer zstdDecoders.Put(dec)
		out, err := dec.DecodeAll(payload, make([]byte, 0, rawLen))
		if err != nil {
			return nil, err
		}
		if len(out) != rawLen {
			return nil, errCorruptBlock
		}
		return out, nil
	default:
		return nil, errCorruptBlock
	}
}
