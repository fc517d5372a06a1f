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

// BoolCodec implements spec.md §4.4's bool codec: 1 bit (2 values) if
// required, 2 bits (3 values: 0=absent,1=false,2=true) if optional.
type BoolCodec struct {
	BaseCodec
}

var _ FieldCodec = (*BoolCodec)(nil)

func NewBoolCodec() *BoolCodec {
	c := &BoolCodec{}
	c.Init(c)
	return c
}

func (c *BoolCodec) Name() string { return "dccl.bool" }

func (c *BoolCodec) width(fd *schema.FieldDescriptor) int {
	if isRequired(fd, c.ForceRequired()) {
		return 1
	}
	return 2
}

func (c *BoolCodec) PreEncode(_ *schema.FieldDescriptor, value any) (any, error) {
	return value, nil
}

func (c *BoolCodec) Encode(_ *trav.Context, fd *schema.FieldDescriptor, wire any) (*bitset.BitVec, error) {
	w := c.width(fd)
	required := isRequired(fd, c.ForceRequired())

	var u uint64
	switch {
	case !required && wire == nil:
		u = 0
	case required:
		if v, _ := wire.(bool); v {
			u = 1
		}
	default:
		if v, _ := wire.(bool); v {
			u = 2
		} else {
			u = 1
		}
	}

	return packUint(w, u), nil
}

func (c *BoolCodec) Size(_ *trav.Context, fd *schema.FieldDescriptor, _ any) (int, error) {
	return c.width(fd), nil
}

func (c *BoolCodec) Decode(_ *trav.Context, fd *schema.FieldDescriptor, bits *bitset.BitVec) (any, error) {
	w := c.width(fd)
	u, err := unpackUint(bits, w)
	if err != nil {
		return nil, err
	}

	required := isRequired(fd, c.ForceRequired())
	if required {
		return u == 1, nil
	}
	if u == 0 {
		return nil, errs.ErrNullValue
	}
	return u == 2, nil
}

func (c *BoolCodec) PostDecode(_ *schema.FieldDescriptor, wire any) (any, error) {
	return wire, nil
}

func (c *BoolCodec) MinSize(fd *schema.FieldDescriptor) int { return c.width(fd) }
func (c *BoolCodec) MaxSize(fd *schema.FieldDescriptor) int { return c.width(fd) }

func (c *BoolCodec) Validate(fd *schema.FieldDescriptor) error {
	if fd.Kind != schema.KindBool {
		return errs.ErrSchemaError
	}
	return nil
}

func (c *BoolCodec) Info(w io.Writer, fd *schema.FieldDescriptor) {
	fmt.Fprintf(w, "%s: bool, %d bit(s)\n", fd.Name, c.width(fd))
}

func (c *BoolCodec) Hash(fd *schema.FieldDescriptor) uint64 {
	f := hash.NewFolder()
	f.WriteString("bool")
	f.WriteString(fd.Name)
	f.WriteBool(isRequired(fd, c.ForceRequired()))
	return f.Sum()
}
