package codec

import (
	"fmt"
	"io"

	"github.com/dcclgo/dccl/bitset"
	"github.com/dcclgo/dccl/errs"
	"github.com/dcclgo/dccl/internal/hash"
	"github.com/dcclgo/dccl/internal/trav"
	"github.com/dcclgo/dccl/schema"
)

// StringCodec implements spec.md §4.4's string codec: a header field of
// ceil_log2(max_length+1) bits carries the actual byte length, followed by
// that many bytes. Strings longer than max_length are truncated unless
// ctx.Strict, in which case they raise errs.ErrOutOfRange.
type StringCodec struct {
	BaseCodec
}

var _ FieldCodec = (*StringCodec)(nil)

func NewStringCodec() *StringCodec {
	c := &StringCodec{}
	c.Init(c)
	return c
}

func (c *StringCodec) Name() string { return "dccl.string" }

func (c *StringCodec) headerWidth(fd *schema.FieldDescriptor) int {
	return ceilLog2(fd.Options.MaxLength + 1)
}

func (c *StringCodec) PreEncode(_ *schema.FieldDescriptor, value any) (any, error) {
	return value, nil
}

func (c *StringCodec) Encode(ctx *trav.Context, fd *schema.FieldDescriptor, wire any) (*bitset.BitVec, error) {
	s, _ := wire.(string)
	maxLen := fd.Options.MaxLength

	if len(s) > maxLen {
		if ctx != nil && ctx.Strict {
			return nil, errs.ErrOutOfRange
		}
		s = s[:maxLen]
	}

	hw := c.headerWidth(fd)
	out := bitset.New()

	header := packUint(hw, uint64(len(s)))
	out.Append(header)
	header.Release()

	if len(s) > 0 {
		body := bitset.FromBytes([]byte(s), len(s)*8)
		out.Append(body)
		body.Release()
	}

	return out, nil
}

func (c *StringCodec) Size(_ *trav.Context, fd *schema.FieldDescriptor, wire any) (int, error) {
	s, _ := wire.(string)
	if len(s) > fd.Options.MaxLength {
		s = s[:fd.Options.MaxLength]
	}
	return c.headerWidth(fd) + len(s)*8, nil
}

func (c *StringCodec) Decode(_ *trav.Context, fd *schema.FieldDescriptor, bits *bitset.BitVec) (any, error) {
	hw := c.headerWidth(fd)
	n, err := unpackUint(bits, hw)
	if err != nil {
		return nil, err
	}
	if int(n) > fd.Options.MaxLength {
		return nil, errs.ErrDecodeIncomplete
	}

	nbits := int(n) * 8
	if err := bits.EnsureLen(nbits); err != nil {
		return nil, err
	}

	body := bitset.New()
	defer body.Release()
	for i := 0; i < nbits; i++ {
		body.PushBack(bits.PopFront())
	}

	return string(body.Bytes()), nil
}

func (c *StringCodec) PostDecode(_ *schema.FieldDescriptor, wire any) (any, error) {
	return wire, nil
}

func (c *StringCodec) MinSize(fd *schema.FieldDescriptor) int {
	return c.headerWidth(fd)
}

func (c *StringCodec) MaxSize(fd *schema.FieldDescriptor) int {
	return c.headerWidth(fd) + fd.Options.MaxLength*8
}

func (c *StringCodec) Validate(fd *schema.FieldDescriptor) error {
	if fd.Options.MaxLength <= 0 || fd.Options.MaxLength > 255 {
		return errs.ErrSchemaError
	}
	return nil
}

func (c *StringCodec) Info(w io.Writer, fd *schema.FieldDescriptor) {
	fmt.Fprintf(w, "%s: string, max_length=%d\n", fd.Name, fd.Options.MaxLength)
}

func (c *StringCodec) Hash(fd *schema.FieldDescriptor) uint64 {
	f := hash.NewFolder()
	f.WriteString("string")
	f.WriteString(fd.Name)
	f.WriteUint64(uint64(fd.Options.MaxLength))
	return f.Sum()
}
