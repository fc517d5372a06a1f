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

// EnumCodec implements spec.md §4.4's enum codec: value maps to its
// declaration index, then encodes as a bounded integer in [0, count-1].
type EnumCodec struct {
	BaseCodec
}

var _ FieldCodec = (*EnumCodec)(nil)

func NewEnumCodec() *EnumCodec {
	c := &EnumCodec{}
	c.Init(c)
	return c
}

func (c *EnumCodec) Name() string { return "dccl.enum" }

func (c *EnumCodec) width(fd *schema.FieldDescriptor) int {
	extra := 0
	if !isRequired(fd, c.ForceRequired()) {
		extra = 1
	}
	return ceilLog2(len(fd.Options.EnumValues) + extra)
}

func (c *EnumCodec) indexOf(fd *schema.FieldDescriptor, name string) int {
	for i, v := range fd.Options.EnumValues {
		if v == name {
			return i
		}
	}
	return -1
}

func (c *EnumCodec) PreEncode(_ *schema.FieldDescriptor, value any) (any, error) {
	return value, nil
}

func (c *EnumCodec) Encode(ctx *trav.Context, fd *schema.FieldDescriptor, wire any) (*bitset.BitVec, error) {
	required := isRequired(fd, c.ForceRequired())
	w := c.width(fd)

	if wire == nil {
		if required {
			return nil, errs.ErrSchemaError
		}
		return packUint(w, 0), nil
	}

	name, _ := wire.(string)
	idx := c.indexOf(fd, name)
	if idx < 0 {
		if ctx != nil && ctx.Strict {
			return nil, errs.ErrOutOfRange
		}
		idx = 0
	}

	u := uint64(idx)
	if !required {
		u++
	}

	return packUint(w, u), nil
}

func (c *EnumCodec) Size(_ *trav.Context, fd *schema.FieldDescriptor, _ any) (int, error) {
	return c.width(fd), nil
}

func (c *EnumCodec) Decode(_ *trav.Context, fd *schema.FieldDescriptor, bits *bitset.BitVec) (any, error) {
	required := isRequired(fd, c.ForceRequired())
	w := c.width(fd)

	u, err := unpackUint(bits, w)
	if err != nil {
		return nil, err
	}

	if !required {
		if u == 0 {
			return nil, errs.ErrNullValue
		}
		u--
	}

	if int(u) >= len(fd.Options.EnumValues) {
		return nil, errs.ErrDecodeIncomplete
	}

	return fd.Options.EnumValues[u], nil
}

func (c *EnumCodec) PostDecode(_ *schema.FieldDescriptor, wire any) (any, error) {
	return wire, nil
}

func (c *EnumCodec) MinSize(fd *schema.FieldDescriptor) int { return c.width(fd) }
func (c *EnumCodec) MaxSize(fd *schema.FieldDescriptor) int { return c.width(fd) }

func (c *EnumCodec) Validate(fd *schema.FieldDescriptor) error {
	if len(fd.Options.EnumValues) == 0 {
		return errs.ErrSchemaError
	}
	return nil
}

func (c *EnumCodec) Info(w io.Writer, fd *schema.FieldDescriptor) {
	fmt.Fprintf(w, "%s: enum %v, %d bit(s)\n", fd.Name, fd.Options.EnumValues, c.width(fd))
}

func (c *EnumCodec) Hash(fd *schema.FieldDescriptor) uint64 {
	f := hash.NewFolder()
	f.WriteString("enum")
	f.WriteString(fd.Name)
	for _, v := range fd.Options.EnumValues {
		f.WriteString(v)
	}
	return f.Sum()
}
