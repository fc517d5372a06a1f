package bitset

import "github.com/dcclgo/dccl/errs"

// And returns the bitwise AND of b and other, which must have equal
// lengths.
func (b *BitVec) And(other *BitVec) (*BitVec, error) {
	return b.combine(other, func(x, y uint64) uint64 { return x & y })
}

// Or returns the bitwise OR of b and other, which must have equal lengths.
func (b *BitVec) Or(other *BitVec) (*BitVec, error) {
	return b.combine(other, func(x, y uint64) uint64 { return x | y })
}

// Xor returns the bitwise XOR of b and other, which must have equal
// lengths.
func (b *BitVec) Xor(other *BitVec) (*BitVec, error) {
	return b.combine(other, func(x, y uint64) uint64 { return x ^ y })
}

func (b *BitVec) combine(other *BitVec, op func(x, y uint64) uint64) (*BitVec, error) {
	if b.length != other.length {
		return nil, errs.ErrSchemaError
	}

	out := New()
	nw := numWords(b.length)
	out.ensureWordCap(nw)
	out.length = b.length

	for i := 0; i < nw; i++ {
		out.words[i] = op(b.words[i], other.words[i])
	}

	return out, nil
}

// ShiftLeft returns a new BitVec holding b's bits shifted toward the back
// by n positions; the n lowest bits of the result are zero and b's length
// is preserved (bits shifted past the back are discarded).
func (b *BitVec) ShiftLeft(n int) *BitVec {
	out := b.Clone()
	if n <= 0 {
		return out
	}
	if n >= out.length {
		for i := range out.words {
			out.words[i] = 0
		}
		return out
	}

	for i := out.length - 1; i >= n; i-- {
		out.setBit(i, out.bit(i-n))
	}
	for i := 0; i < n; i++ {
		out.setBit(i, false)
	}

	return out
}

// ShiftRight returns a new BitVec holding b's bits shifted toward the
// front by n positions; the n highest bits of the result are zero.
func (b *BitVec) ShiftRight(n int) *BitVec {
	out := b.Clone()
	if n <= 0 {
		return out
	}
	if n >= out.length {
		for i := range out.words {
			out.words[i] = 0
		}
		return out
	}

	for i := 0; i < out.length-n; i++ {
		out.setBit(i, out.bit(i+n))
	}
	for i := out.length - n; i < out.length; i++ {
		out.setBit(i, false)
	}

	return out
}
