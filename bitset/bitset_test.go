package bitset

import (
	"testing"

	"github.com/dcclgo/dccl/errs"
	"github.com/stretchr/testify/require"
)

func TestPushPopBack(t *testing.T) {
	b := New()
	defer b.Release()

	b.PushBack(true)
	b.PushBack(false)
	b.PushBack(true)
	require.Equal(t, 3, b.Len())

	require.True(t, b.PopBack())
	require.False(t, b.PopBack())
	require.True(t, b.PopBack())
	require.Equal(t, 0, b.Len())
}

func TestPushPopFront(t *testing.T) {
	b := New()
	defer b.Release()

	b.PushFront(true)  // [1]
	b.PushFront(false) // [0,1]
	b.PushFront(true)  // [1,0,1]

	require.Equal(t, 3, b.Len())
	require.True(t, b.Get(0))
	require.False(t, b.Get(1))
	require.True(t, b.Get(2))

	require.True(t, b.PopFront())
	require.False(t, b.PopFront())
	require.True(t, b.PopFront())
}

func TestPushAcrossWordBoundary(t *testing.T) {
	b := New()
	defer b.Release()

	for i := 0; i < 130; i++ {
		b.PushBack(i%3 == 0)
	}
	require.Equal(t, 130, b.Len())
	for i := 0; i < 130; i++ {
		require.Equal(t, i%3 == 0, b.Get(i), "bit %d", i)
	}
}

func TestFromUnsignedToUnsigned(t *testing.T) {
	cases := []struct {
		width int
		value uint64
	}{
		{1, 1},
		{8, 0xAB},
		{16, 0xBEEF},
		{33, 1 << 32},
		{64, ^uint64(0)},
	}

	for _, c := range cases {
		b := FromUnsigned(c.width, c.value)
		require.Equal(t, c.width, b.Len())

		got, err := b.ToUnsigned()
		require.NoError(t, err)
		require.Equal(t, c.value&maskFor(c.width), got)
		b.Release()
	}
}

func maskFor(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(width)) - 1
}

func TestToUnsignedTooWide(t *testing.T) {
	b := New()
	defer b.Release()
	for i := 0; i < 65; i++ {
		b.PushBack(false)
	}
	_, err := b.ToUnsigned()
	require.Error(t, err)
}

func TestBytesRoundTrip(t *testing.T) {
	b := FromUnsigned(12, 0x0ABC&0xFFF)
	defer b.Release()

	data := b.Bytes()
	require.Len(t, data, 2)

	rt := FromBytes(data, 12)
	defer rt.Release()

	got, err := rt.ToUnsigned()
	require.NoError(t, err)

	want, err := b.ToUnsigned()
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestBytesLastByteZeroPadded(t *testing.T) {
	b := FromUnsigned(3, 0x7)
	defer b.Release()

	data := b.Bytes()
	require.Len(t, data, 1)
	require.Equal(t, byte(0x07), data[0])
}

func TestAppend(t *testing.T) {
	a := FromUnsigned(4, 0b1010)
	defer a.Release()
	c := FromUnsigned(4, 0b0101)
	defer c.Release()

	a.Append(c)
	require.Equal(t, 8, a.Len())
	v, err := a.ToUnsigned()
	require.NoError(t, err)
	require.Equal(t, uint64(0b0101_1010), v)
}

func TestAndOrXorRequireEqualLength(t *testing.T) {
	a := FromUnsigned(4, 0b1100)
	defer a.Release()
	b := FromUnsigned(3, 0b101)
	defer b.Release()

	_, err := a.And(b)
	require.Error(t, err)
}

func TestAndOrXor(t *testing.T) {
	a := FromUnsigned(4, 0b1100)
	defer a.Release()
	b := FromUnsigned(4, 0b1010)
	defer b.Release()

	and, err := a.And(b)
	require.NoError(t, err)
	v, _ := and.ToUnsigned()
	require.Equal(t, uint64(0b1000), v)
	and.Release()

	or, err := a.Or(b)
	require.NoError(t, err)
	v, _ = or.ToUnsigned()
	require.Equal(t, uint64(0b1110), v)
	or.Release()

	xor, err := a.Xor(b)
	require.NoError(t, err)
	v, _ = xor.ToUnsigned()
	require.Equal(t, uint64(0b0110), v)
	xor.Release()
}

func TestShiftLeftRight(t *testing.T) {
	b := FromUnsigned(8, 0b0000_1111)
	defer b.Release()

	left := b.ShiftLeft(2)
	defer left.Release()
	v, _ := left.ToUnsigned()
	require.Equal(t, uint64(0b0011_1100), v)

	right := b.ShiftRight(2)
	defer right.Release()
	v, _ = right.ToUnsigned()
	require.Equal(t, uint64(0b0000_0011), v)
}

func TestBorrowMore(t *testing.T) {
	parent := FromUnsigned(8, 0b1011_0010)
	defer parent.Release()

	child := New()
	defer child.Release()
	child.SetParent(parent)

	require.NoError(t, child.BorrowMore(3))
	require.Equal(t, 3, child.Len())
	require.Equal(t, 5, parent.Len())
	require.Equal(t, 3, child.Borrowed())

	// borrowed bits are parent's front 3 bits: 0b010, preserved in order
	// onto child's back.
	v, err := child.ToUnsigned()
	require.NoError(t, err)
	require.Equal(t, uint64(0b010), v)
}

func TestBorrowMoreRecursesThroughAncestors(t *testing.T) {
	grandparent := FromUnsigned(8, 0xFF)
	defer grandparent.Release()

	parent := New()
	defer parent.Release()
	parent.SetParent(grandparent)

	child := New()
	defer child.Release()
	child.SetParent(parent)

	require.NoError(t, child.BorrowMore(6))
	require.Equal(t, 6, child.Len())
	require.Equal(t, 2, grandparent.Len())
}

func TestBorrowMoreUnderflow(t *testing.T) {
	parent := FromUnsigned(2, 0b11)
	defer parent.Release()

	child := New()
	defer child.Release()
	child.SetParent(parent)

	require.ErrorIs(t, child.BorrowMore(5), errs.ErrUnderflow)
}
