// Package bitset implements BitVec, a double-ended deque of bits backed by
// a pooled []uint64 word slice. Bit 0 is the front (least significant, the
// first bit transmitted on the wire); the last valid bit is the back.
package bitset

import (
	"github.com/dcclgo/dccl/internal/pool"
)

// minWords is the initial word capacity requested from the pool for a new
// BitVec; most DCCL fields fit comfortably within a handful of words.
const minWords = 2

// BitVec is an ordered sequence of bits indexed 0 (front) to Len()-1 (back).
//
// A BitVec may reference a parent via SetParent; BorrowMore pulls additional
// bits from the parent's front onto this BitVec's back, recursing up the
// parent chain as needed. Parents must outlive any child still borrowing
// from them.
type BitVec struct {
	words  []uint64
	length int

	parent   *BitVec
	borrowed int // bits pulled from parent so far, for diagnostics
}

// New returns an empty BitVec with storage drawn from the package pool.
func New() *BitVec {
	words, _ := pool.GetUint64Slice(minWords)
	return &BitVec{words: words}
}

// Release returns b's backing storage to the pool. b must not be used
// afterwards. Release does not affect b's parent.
func (b *BitVec) Release() {
	if b.words != nil {
		pool.PutUint64Slice(b.words)
		b.words = nil
	}
	b.length = 0
	b.parent = nil
	b.borrowed = 0
}

// Len returns the number of valid bits in b.
func (b *BitVec) Len() int {
	return b.length
}

func numWords(nbits int) int {
	return (nbits + 63) / 64
}

// ensureWordCap grows b.words so it has at least nWords elements, zeroing
// any newly exposed words. When the capacity is too small it is doubled,
// or set to exactly nWords when doubling is not enough.
func (b *BitVec) ensureWordCap(nWords int) {
	old := len(b.words)
	if cap(b.words) >= nWords {
		if old < nWords {
			b.words = b.words[:nWords]
			for i := old; i < nWords; i++ {
				b.words[i] = 0
			}
		}
		return
	}

	grow := cap(b.words) * 2
	if grow < nWords {
		grow = nWords
	}

	newWords := make([]uint64, nWords, grow)
	copy(newWords, b.words)
	b.words = newWords
}

// bit returns the value of bit i. i must be in [0, length).
func (b *BitVec) bit(i int) bool {
	return b.words[i/64]&(uint64(1)<<uint(i%64)) != 0
}

// setBit sets bit i to v. i must be in [0, length).
func (b *BitVec) setBit(i int, v bool) {
	word := i / 64
	mask := uint64(1) << uint(i%64)
	if v {
		b.words[word] |= mask
	} else {
		b.words[word] &^= mask
	}
}

// Get returns the value of bit i, panicking if i is out of range.
func (b *BitVec) Get(i int) bool {
	if i < 0 || i >= b.length {
		panic("bitset: index out of range")
	}
	return b.bit(i)
}

// Set assigns bit i to v, panicking if i is out of range.
func (b *BitVec) Set(i int, v bool) {
	if i < 0 || i >= b.length {
		panic("bitset: index out of range")
	}
	b.setBit(i, v)
}

// PushBack appends bit to the high (back) end of b.
func (b *BitVec) PushBack(bit bool) {
	idx := b.length
	b.ensureWordCap(numWords(idx + 1))
	b.length++
	b.setBit(idx, bit)
}

// PopBack removes and returns the bit at the high (back) end of b.
// It panics if b is empty.
func (b *BitVec) PopBack() bool {
	if b.length == 0 {
		panic("bitset: pop from empty BitVec")
	}
	v := b.bit(b.length - 1)
	b.setBit(b.length-1, false)
	b.length--
	return v
}

// shlWords shifts all of words left by shift bits (0 <
// shift < 64), discarding bits shifted out of the top word and filling
// with zero at the bottom.
func shlWords(words []uint64, shift uint) {
	for i := len(words) - 1; i > 0; i-- {
		words[i] = (words[i] << shift) | (words[i-1] >> (64 - shift))
	}
	words[0] <<= shift
}

// shrWords shifts all of words right by shift bits (0 <
// shift < 64), discarding bits shifted out of the bottom word and filling
// with zero at the top.
func shrWords(words []uint64, shift uint) {
	for i := 0; i < len(words)-1; i++ {
		words[i] = (words[i] >> shift) | (words[i+1] << (64 - shift))
	}
	words[len(words)-1] >>= shift
}

// PushFront inserts bit at the low (front) end of b, shifting every
// existing bit up by one position.
func (b *BitVec) PushFront(bit bool) {
	newLen := b.length + 1
	b.ensureWordCap(numWords(newLen))
	shlWords(b.words[:numWords(newLen)], 1)
	b.length = newLen
	b.setBit(0, bit)
}

// PopFront removes and returns the bit at the low (front) end of b,
// shifting every remaining bit down by one position. It panics if b is
// empty.
func (b *BitVec) PopFront() bool {
	if b.length == 0 {
		panic("bitset: pop from empty BitVec")
	}
	v := b.bit(0)
	shrWords(b.words[:numWords(b.length)], 1)
	b.length--
	return v
}

// Append concatenates other onto the back (high side) of b, leaving other
// unmodified.
func (b *BitVec) Append(other *BitVec) {
	for i := 0; i < other.length; i++ {
		b.PushBack(other.bit(i))
	}
}

// Prepend concatenates other onto the front (low side) of b, leaving other
// unmodified. Bits are inserted so that other's own front-to-back order is
// preserved ahead of b's existing content.
func (b *BitVec) Prepend(other *BitVec) {
	for i := other.length - 1; i >= 0; i-- {
		b.PushFront(other.bit(i))
	}
}

// Clone returns an independent copy of b with its own pooled storage.
func (b *BitVec) Clone() *BitVec {
	c := New()
	c.ensureWordCap(numWords(b.length))
	copy(c.words, b.words[:numWords(b.length)])
	c.length = b.length
	return c
}
