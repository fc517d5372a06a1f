package codec

import (
	"fmt"
	"io"
	"math"

	"github.com/dcclgo/dccl/bitset"
	"github.com/dcclgo/dccl/errs"
	"github.com/dcclgo/dccl/internal/hash"
	"github.com/dcclgo/dccl/internal/trav"
	"github.com/dcclgo/dccl/schema"
)

// PresenceBitCodec implements spec.md §4.4's alternate PRESENCE_BIT
// numeric strategy: optional fields prepend a single presence bit instead
// of reserving a wire value, so the value portion always uses the
// required-field width.
type PresenceBitCodec struct {
	BaseCodec
}

var _ FieldCodec = (*PresenceBitCodec)(nil)

func NewPresenceBitCodec() *PresenceBitCodec {
	c := &PresenceBitCodec{}
	c.Init(c)
	return c
}

func (c *PresenceBitCodec) Name() string { return "dccl.presence" }

func (c *PresenceBitCodec) valueWidth(ctx *trav.Context, fd *schema.FieldDescriptor) int {
	min, max, res := bounds(ctx, fd)
	return widthForRange(min, max, res, 0)
}

func (c *PresenceBitCodec) PreEncode(_ *schema.FieldDescriptor, value any) (any, error) {
	return value, nil
}

func (c *PresenceBitCodec) Encode(ctx *trav.Context, fd *schema.FieldDescriptor, wire any) (*bitset.BitVec, error) {
	min, max, res := bounds(ctx, fd)
	required := isRequired(fd, c.ForceRequired())
	vw := widthForRange(min, max, res, 0)

	absent := wire == nil || isNaNValue(wire)

	out := bitset.New()
	if !required {
		out.PushBack(!absent)
	}

	if absent {
		if required {
			out.Release()
			return nil, errs.ErrSchemaError
		}
		return out, nil
	}

	v := toFloat(wire)
	strict := ctx != nil && ctx.Strict
	if v < min || v > max {
		if strict {
			out.Release()
			return nil, errs.ErrOutOfRange
		}
		if v < min {
			v = min
		} else {
			v = max
		}
	}

	u := uint64(math.Round((v - min) / res))
	bv := packUint(vw, u)
	out.Append(bv)
	bv.Release()

	return out, nil
}

func (c *PresenceBitCodec) Size(ctx *trav.Context, fd *schema.FieldDescriptor, wire any) (int, error) {
	if isRequired(fd, c.ForceRequired()) {
		return c.valueWidth(ctx, fd), nil
	}
	if wire == nil || isNaNValue(wire) {
		return 1, nil
	}
	return c.valueWidth(ctx, fd) + 1, nil
}

func (c *PresenceBitCodec) Decode(ctx *trav.Context, fd *schema.FieldDescriptor, bits *bitset.BitVec) (any, error) {
	min, _, res := bounds(ctx, fd)
	required := isRequired(fd, c.ForceRequired())
	vw := c.valueWidth(ctx, fd)

	if !required {
		if err := bits.EnsureLen(1); err != nil {
			return nil, err
		}
		if !bits.PopFront() {
			return nil, errs.ErrNullValue
		}
	}

	u, err := unpackUint(bits, vw)
	if err != nil {
		return nil, err
	}

	v := min + float64(u)*res
	return fromFloat(v, fd.Kind), nil
}

func (c *PresenceBitCodec) PostDecode(_ *schema.FieldDescriptor, wire any) (any, error) {
	return wire, nil
}

func (c *PresenceBitCodec) MinSize(fd *schema.FieldDescriptor) int {
	if isRequired(fd, c.ForceRequired()) {
		return c.valueWidth(nil, fd)
	}
	return 1
}

func (c *PresenceBitCodec) MaxSize(fd *schema.FieldDescriptor) int {
	w := c.valueWidth(nil, fd)
	if isRequired(fd, c.ForceRequired()) {
		return w
	}
	return w + 1
}

func (c *PresenceBitCodec) Validate(fd *schema.FieldDescriptor) error {
	if fd.Options.Max < fd.Options.Min {
		return errs.ErrSchemaError
	}
	return nil
}

func (c *PresenceBitCodec) Info(w io.Writer, fd *schema.FieldDescriptor) {
	fmt.Fprintf(w, "%s: numeric (presence-bit), %d bit(s)\n", fd.Name, c.MinSize(fd))
}

func (c *PresenceBitCodec) Hash(fd *schema.FieldDescriptor) uint64 {
	f := hash.NewFolder()
	f.WriteString("presence_bit_numeric")
	f.WriteString(fd.Name)
	return f.Sum()
}
