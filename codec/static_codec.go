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

// StaticCodec implements spec.md §4.4's static codec: 0 bits on the wire;
// decode always returns the literal static_value from the schema.
type StaticCodec struct {
	BaseCodec
}

var _ FieldCodec = (*StaticCodec)(nil)

func NewStaticCodec() *StaticCodec {
	c := &StaticCodec{}
	c.Init(c)
	return c
}

func (c *StaticCodec) Name() string { return "dccl.static" }

func (c *StaticCodec) PreEncode(_ *schema.FieldDescriptor, value any) (any, error) {
	return value, nil
}

func (c *StaticCodec) Encode(_ *trav.Context, _ *schema.FieldDescriptor, _ any) (*bitset.BitVec, error) {
	return bitset.New(), nil
}

func (c *StaticCodec) Size(_ *trav.Context, _ *schema.FieldDescriptor, _ any) (int, error) {
	return 0, nil
}

func (c *StaticCodec) Decode(_ *trav.Context, fd *schema.FieldDescriptor, _ *bitset.BitVec) (any, error) {
	return fd.Options.StaticValue, nil
}

func (c *StaticCodec) PostDecode(_ *schema.FieldDescriptor, wire any) (any, error) {
	return wire, nil
}

func (c *StaticCodec) MinSize(_ *schema.FieldDescriptor) int { return 0 }
func (c *StaticCodec) MaxSize(_ *schema.FieldDescriptor) int { return 0 }

func (c *StaticCodec) Validate(fd *schema.FieldDescriptor) error {
	if !fd.Options.HasStatic {
		return errs.ErrSchemaError
	}
	return nil
}

func (c *StaticCodec) Info(w io.Writer, fd *schema.FieldDescriptor) {
	fmt.Fprintf(w, "%s: static = %q, 0 bits\n", fd.Name, fd.Options.StaticValue)
}

func (c *StaticCodec) Hash(fd *schema.FieldDescriptor) uint64 {
	f := hash.NewFolder()
	f.WriteString("static")
	f.WriteString(fd.Name)
	f.WriteString(fd.Options.StaticValue)
	return f.Sum()
}
