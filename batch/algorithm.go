// Package batch bundles several already-encoded DCCL frames into a single
// transport-level transmission window, with selectable compression —
// mirroring the way a real acoustic-modem deployment queues multiple small
// DCCL messages and sends them together once the channel comes up, rather
// than paying a per-message framing overhead for each.
//
// This is deliberately a thin layer on top of the core codec engine (C1-C11):
// it never looks inside a frame's bits, it only concatenates whole
// already-encoded messages and optionally compresses the bundle.
package batch

import "fmt"

// Algorithm identifies a compression algorithm usable for a batch payload.
type Algorithm uint8

const (
	// AlgorithmNone disables compression; the bundle is stored verbatim.
	AlgorithmNone Algorithm = 0x1
	// AlgorithmZstd compresses the bundle with Zstandard.
	AlgorithmZstd Algorithm = 0x2
	// AlgorithmS2 compresses the bundle with S2 (Snappy-compatible, low CPU).
	AlgorithmS2 Algorithm = 0x3
	// AlgorithmLZ4 compresses the bundle with LZ4 (lowest CPU cost).
	AlgorithmLZ4 Algorithm = 0x4
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmNone:
		return "None"
	case AlgorithmZstd:
		return "Zstd"
	case AlgorithmS2:
		return "S2"
	case AlgorithmLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// Compressor compresses a batch payload.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor decompresses a batch payload.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines Compressor and Decompressor.
type Codec interface {
	Compressor
	Decompressor
}

// NewCodec is a factory function that creates a Codec for the given
// algorithm.
func NewCodec(alg Algorithm) (Codec, error) {
	switch alg {
	case AlgorithmNone:
		return NoOpCodec{}, nil
	case AlgorithmZstd:
		return NewZstdCodec(), nil
	case AlgorithmS2:
		return S2Codec{}, nil
	case AlgorithmLZ4:
		return LZ4Codec{}, nil
	default:
		return nil, fmt.Errorf("batch: unsupported compression algorithm: %v", alg)
	}
}
