package batch

import (
	"fmt"

	"github.com/dcclgo/dccl/endian"
	"github.com/dcclgo/dccl/errs"
	"github.com/dcclgo/dccl/internal/hash"
)

// byteOrder is the wire byte order for all fixed-width header fields in a
// bundle frame.
var byteOrder = endian.GetLittleEndianEngine()

// magic identifies a dccl-go batch frame on the wire. Written little-endian
// its first byte is 0x01, which the default ID codec reads as the long-form
// prefix of message ID 28160 (0xDC01 >> 1), so a batch frame can be told
// apart from a bare DCCL message only when no loaded schema uses that ID.
const magic uint16 = 0xDC01

// headerSize is the fixed-size portion of a bundle: magic(2) + algorithm(1) +
// count(2) + checksum(8).
const headerSize = 2 + 1 + 2 + 8

// Bundle is a sequence of already-encoded DCCL frames (the output of
// Driver.Encode) queued for a single transmission window.
type Bundle struct {
	Algorithm Algorithm
	Frames    [][]byte
}

// Pack concatenates b's frames (each prefixed with a uint16 length) and
// compresses the result with b.Algorithm, producing a single self-describing
// byte string suitable for handing to the underlying transport.
func (b Bundle) Pack() ([]byte, error) {
	if len(b.Frames) > 0xFFFF {
		return nil, fmt.Errorf("batch: %d frames exceeds maximum of 65535", len(b.Frames))
	}

	plain := make([]byte, 0, headerSize)
	for _, frame := range b.Frames {
		if len(frame) > 0xFFFF {
			return nil, fmt.Errorf("batch: frame of %d bytes exceeds maximum of 65535", len(frame))
		}

		var lenBuf [2]byte
		byteOrder.PutUint16(lenBuf[:], uint16(len(frame))) //nolint:gosec
		plain = append(plain, lenBuf[:]...)
		plain = append(plain, frame...)
	}

	checksum := hash.ID(string(plain))

	codec, err := NewCodec(b.Algorithm)
	if err != nil {
		return nil, err
	}

	compressed, err := codec.Compress(plain)
	if err != nil {
		return nil, fmt.Errorf("batch: compress: %w", err)
	}

	out := make([]byte, 0, headerSize+len(compressed))
	var hdr [headerSize]byte
	byteOrder.PutUint16(hdr[0:2], magic)
	hdr[2] = byte(b.Algorithm)
	byteOrder.PutUint16(hdr[3:5], uint16(len(b.Frames))) //nolint:gosec
	byteOrder.PutUint64(hdr[5:13], checksum)
	out = append(out, hdr[:]...)
	out = append(out, compressed...)

	return out, nil
}

// Unpack reverses Pack, validating the magic, checksum, and frame count
// before returning the individual frame byte strings in order.
func Unpack(data []byte) ([][]byte, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: batch header truncated", errs.ErrDecodeIncomplete)
	}

	if byteOrder.Uint16(data[0:2]) != magic {
		return nil, fmt.Errorf("%w: not a dccl-go batch frame", errs.ErrSchemaError)
	}

	alg := Algorithm(data[2])
	count := int(byteOrder.Uint16(data[3:5]))
	checksum := byteOrder.Uint64(data[5:13])

	codec, err := NewCodec(alg)
	if err != nil {
		return nil, err
	}

	plain, err := codec.Decompress(data[headerSize:])
	if err != nil {
		return nil, fmt.Errorf("batch: decompress: %w", err)
	}

	if hash.ID(string(plain)) != checksum {
		return nil, fmt.Errorf("%w: batch checksum mismatch", errs.ErrDecodeIncomplete)
	}

	frames := make([][]byte, 0, count)

	pos := 0
	for range count {
		if pos+2 > len(plain) {
			return nil, fmt.Errorf("%w: batch frame length truncated", errs.ErrDecodeIncomplete)
		}

		n := int(byteOrder.Uint16(plain[pos : pos+2]))
		pos += 2

		if pos+n > len(plain) {
			return nil, fmt.Errorf("%w: batch frame data truncated", errs.ErrDecodeIncomplete)
		}

		frames = append(frames, plain[pos:pos+n])
		pos += n
	}

	return frames, nil
}
