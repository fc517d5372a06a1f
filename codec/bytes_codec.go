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

// BytesCodec implements spec.md §4.4's fixed bytes codec: exactly
// max_length bytes; optional adds a 1-bit presence prefix.
type BytesCodec struct {
	BaseCodec
}

var _ FieldCodec = (*BytesCodec)(nil)

func NewBytesCodec() *BytesCodec {
	c := &BytesCodec{}
	c.Init(c)
	return c
}

func (c *BytesCodec) Name() string { return "dccl.bytes" }

func (c *BytesCodec) PreEncode(_ *schema.FieldDescriptor, value any) (any, error) {
	return value, nil
}

func (c *BytesCodec) Encode(ctx *trav.Context, fd *schema.FieldDescriptor, wire any) (*bitset.BitVec, error) {
	required := isRequired(fd, c.ForceRequired())
	maxLen := fd.Options.MaxLength

	out := bitset.New()
	if !required {
		out.PushBack(wire != nil)
	}

	var data []byte
	if wire != nil {
		data, _ = wire.([]byte)
	}
	if len(data) > maxLen {
		if ctx != nil && ctx.Strict {
			out.Release()
			return nil, errs.ErrOutOfRange
		}
		data = data[:maxLen]
	}

	padded := make([]byte, maxLen)
	copy(padded, data)

	body := bitset.FromBytes(padded, maxLen*8)
	out.Append(body)
	body.Release()

	return out, nil
}

func (c *BytesCodec) Size(_ *trav.Context, fd *schema.FieldDescriptor, _ any) (int, error) {
	n := fd.Options.MaxLength * 8
	if !isRequired(fd, c.ForceRequired()) {
		n++
	}
	return n, nil
}

func (c *BytesCodec) Decode(_ *trav.Context, fd *schema.FieldDescriptor, bits *bitset.BitVec) (any, error) {
	required := isRequired(fd, c.ForceRequired())

	present := true
	if !required {
		if err := bits.EnsureLen(1); err != nil {
			return nil, err
		}
		present = bits.PopFront()
	}

	nbits := fd.Options.MaxLength * 8
	if err := bits.EnsureLen(nbits); err != nil {
		return nil, err
	}

	body := bitset.New()
	defer body.Release()
	for i := 0; i < nbits; i++ {
		body.PushBack(bits.PopFront())
	}

	if !present {
		return nil, errs.ErrNullValue
	}

	return body.Bytes(), nil
}

func (c *BytesCodec) PostDecode(_ *schema.FieldDescriptor, wire any) (any, error) {
	return wire, nil
}

func (c *BytesCodec) MinSize(fd *schema.FieldDescriptor) int { n, _ := c.Size(nil, fd, nil); return n }
func (c *BytesCodec) MaxSize(fd *schema.FieldDescriptor) int { n, _ := c.Size(nil, fd, nil); return n }

func (c *BytesCodec) Validate(fd *schema.FieldDescriptor) error {
	if fd.Options.MaxLength <= 0 || fd.Options.MaxLength > 255 {
		return errs.ErrSchemaError
	}
	return nil
}

func (c *BytesCodec) Info(w io.Writer, fd *schema.FieldDescriptor) {
	fmt.Fprintf(w, "%s: bytes, max_length=%d\n", fd.Name, fd.Options.MaxLength)
}

func (c *BytesCodec) Hash(fd *schema.FieldDescriptor) uint64 {
	f := hash.NewFolder()
	f.WriteString("bytes")
	f.WriteString(fd.Name)
	f.WriteUint64(uint64(fd.Options.MaxLength))
	return f.Sum()
}

// VarBytesCodec implements spec.md §4.4's variable bytes codec (codec
// version >= 3): a length header plus a variable body, analogous to
// StringCodec but without truncation — overflow always raises
// errs.ErrOutOfRange.
type VarBytesCodec struct {
	BaseCodec
}

var _ FieldCodec = (*VarBytesCodec)(nil)

func NewVarBytesCodec() *VarBytesCodec {
	c := &VarBytesCodec{}
	c.Init(c)
	return c
}

func (c *VarBytesCodec) Name() string { return "dccl.var_bytes" }

func (c *VarBytesCodec) headerWidth(fd *schema.FieldDescriptor) int {
	return ceilLog2(fd.Options.MaxLength + 1)
}

func (c *VarBytesCodec) PreEncode(_ *schema.FieldDescriptor, value any) (any, error) {
	return value, nil
}

func (c *VarBytesCodec) Encode(_ *trav.Context, fd *schema.FieldDescriptor, wire any) (*bitset.BitVec, error) {
	var data []byte
	if wire != nil {
		data, _ = wire.([]byte)
	}
	if len(data) > fd.Options.MaxLength {
		return nil, errs.ErrOutOfRange
	}

	hw := c.headerWidth(fd)
	out := bitset.New()

	header := packUint(hw, uint64(len(data)))
	out.Append(header)
	header.Release()

	if len(data) > 0 {
		body := bitset.FromBytes(data, len(data)*8)
		out.Append(body)
		body.Release()
	}

	return out, nil
}

func (c *VarBytesCodec) Size(_ *trav.Context, fd *schema.FieldDescriptor, wire any) (int, error) {
	var data []byte
	if wire != nil {
		data, _ = wire.([]byte)
	}
	return c.headerWidth(fd) + len(data)*8, nil
}

func (c *VarBytesCodec) Decode(_ *trav.Context, fd *schema.FieldDescriptor, bits *bitset.BitVec) (any, error) {
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

	return body.Bytes(), nil
}

func (c *VarBytesCodec) PostDecode(_ *schema.FieldDescriptor, wire any) (any, error) {
	return wire, nil
}

func (c *VarBytesCodec) MinSize(fd *schema.FieldDescriptor) int {
	return c.headerWidth(fd)
}

func (c *VarBytesCodec) MaxSize(fd *schema.FieldDescriptor) int {
	return c.headerWidth(fd) + fd.Options.MaxLength*8
}

func (c *VarBytesCodec) Validate(fd *schema.FieldDescriptor) error {
	if fd.Options.MaxLength <= 0 || fd.Options.MaxLength > 255 {
		return errs.ErrSchemaError
	}
	return nil
}

func (c *VarBytesCodec) Info(w io.Writer, fd *schema.FieldDescriptor) {
	fmt.Fprintf(w, "%s: var_bytes, max_length=%d\n", fd.Name, fd.Options.MaxLength)
}

func (c *VarBytesCodec) Hash(fd *schema.FieldDescriptor) uint64 {
	f := hash.NewFolder()
	f.WriteString("var_bytes")
	f.WriteString(fd.Name)
	f.WriteUint64(uint64(fd.Options.MaxLength))
	return f.Sum()
}
