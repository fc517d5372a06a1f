// Package idcodec implements the default ID codec of spec.md §4.7: the
// variable-length message-type tag Driver prepends to every encoded
// message so a decoder can select the right schema before decoding the
// head/body bits.
package idcodec

import (
	"github.com/dcclgo/dccl/bitset"
	"github.com/dcclgo/dccl/errs"
)

// MaxID is the largest message ID the default codec can represent.
const MaxID = 32767

// shortFormMax is the largest ID the 1-byte short form can carry.
const shortFormMax = 127

// Codec implements the default ID codec: a 1-byte short form (LSB=0, 7
// bits of ID, IDs 0..127) or a 2-byte long form (LSB=1, 15 bits of ID,
// IDs 128..32767), little-endian within each byte.
type Codec struct{}

// New returns the default ID codec.
func New() *Codec { return &Codec{} }

// Name identifies this ID codec.
func (Codec) Name() string { return "dccl.id.default" }

// Validate rejects IDs the codec cannot represent.
func (Codec) Validate(id uint32) error {
	if id > MaxID {
		return errs.ErrSchemaError
	}
	return nil
}

// Encode returns the bit sequence (a whole number of bytes) tagging id.
func (c Codec) Encode(id uint32) (*bitset.BitVec, error) {
	if err := c.Validate(id); err != nil {
		return nil, err
	}

	out := bitset.New()
	if id <= shortFormMax {
		out.PushBack(false)
		for i := 0; i < 7; i++ {
			out.PushBack(id&(1<<uint(i)) != 0)
		}
		return out, nil
	}

	out.PushBack(true)
	for i := 0; i < 15; i++ {
		out.PushBack(id&(1<<uint(i)) != 0)
	}
	return out, nil
}

// MinSize is the short form's bit width: enough to detect whether the long
// form follows.
func (Codec) MinSize() int { return 8 }

// Decode reads the ID tag from the front of bits, consuming either 8 or 16
// bits, and returns the decoded ID.
func (c Codec) Decode(bits *bitset.BitVec) (uint32, error) {
	if err := bits.EnsureLen(8); err != nil {
		return 0, err
	}

	long := bits.PopFront()
	var id uint32
	for i := 0; i < 7; i++ {
		if bits.PopFront() {
			id |= 1 << uint(i)
		}
	}
	if !long {
		return id, nil
	}

	if err := bits.EnsureLen(8); err != nil {
		return 0, err
	}
	for i := 7; i < 15; i++ {
		if bits.PopFront() {
			id |= 1 << uint(i)
		}
	}
	return id, nil
}
