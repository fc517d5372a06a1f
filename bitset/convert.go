package bitset

import "github.com/dcclgo/dccl/errs"

// FromUnsigned returns a new BitVec of exactly width bits holding value's
// low width bits, bit 0 (front) being the least significant.
func FromUnsigned(width int, value uint64) *BitVec {
	if width < 0 {
		panic("bitset: negative width")
	}

	b := New()
	b.ensureWordCap(numWords(width))
	b.length = width

	remaining := width
	for i := 0; remaining > 0; i++ {
		n := remaining
		if n > 64 {
			n = 64
		}
		if n == 64 {
			b.words[i] = value
		} else {
			b.words[i] = value & ((uint64(1) << uint(n)) - 1)
		}
		value >>= uint(n)
		remaining -= n
	}

	return b
}

// ToUnsigned returns b's bits as an unsigned integer, bit 0 as the least
// significant bit. It fails with errs.ErrOutOfRange if b is wider than 64
// bits.
func (b *BitVec) ToUnsigned() (uint64, error) {
	if b.length > 64 {
		return 0, errs.ErrOutOfRange
	}
	if b.length == 0 {
		return 0, nil
	}
	return b.words[0], nil
}

// Bytes returns b's bits as a little-endian byte string: byte k holds bits
// [8k, 8k+8) with bit 8k at the LSB; the final byte's unused high bits are
// zero.
func (b *BitVec) Bytes() []byte {
	nbytes := (b.length + 7) / 8
	out := make([]byte, nbytes)

	for i := range out {
		base := i * 8
		var v byte
		for j := 0; j < 8; j++ {
			bitIdx := base + j
			if bitIdx >= b.length {
				break
			}
			if b.bit(bitIdx) {
				v |= 1 << uint(j)
			}
		}
		out[i] = v
	}

	return out
}

// FromBytes reconstructs a BitVec of exactly nbits bits from data, the
// inverse of Bytes. nbits must not exceed len(data)*8.
func FromBytes(data []byte, nbits int) *BitVec {
	if nbits > len(data)*8 {
		panic("bitset: nbits exceeds data length")
	}

	b := New()
	b.ensureWordCap(numWords(nbits))
	b.length = nbits

	for i := 0; i < nbits; i++ {
		byteVal := data[i/8]
		if byteVal&(1<<uint(i%8)) != 0 {
			b.setBit(i, true)
		}
	}

	return b
}
