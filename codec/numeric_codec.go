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

// NumericCodec implements spec.md §4.4's bounded numeric codec with the
// default PRESENCE_VALUE strategy: an optional field reserves wire value 0
// for "absent" and shifts every real value up by one.
type NumericCodec struct {
	BaseCodec
}

var _ FieldCodec = (*NumericCodec)(nil)

func NewNumericCodec() *NumericCodec {
	c := &NumericCodec{}
	c.Init(c)
	return c
}

func (c *NumericCodec) Name() string { return "dccl.numeric" }

// bounds returns the effective (min, max, resolution) for fd, consulting
// ctx.Conditions when fd carries a dynamic min_if/max_if predicate. "this"
// is the closest enclosing message (spec.md §4.9), resolved from ctx's
// traversal stack rather than always the top-level root.
func bounds(ctx *trav.Context, fd *schema.FieldDescriptor) (min, max, res float64) {
	min, max = fd.Options.Min, fd.Options.Max
	res = fd.Options.EffectiveResolution()

	if ctx != nil && ctx.Conditions != nil {
		this := ctx.CurrentMessage()
		if fd.Options.MinIfExpr != "" {
			min = ctx.Conditions.Min(this, ctx.Root, fd.Position, fd.Options.MinIfExpr, min)
		}
		if fd.Options.MaxIfExpr != "" {
			max = ctx.Conditions.Max(this, ctx.Root, fd.Position, fd.Options.MaxIfExpr, max)
		}
	}

	return min, max, res
}

func (c *NumericCodec) width(ctx *trav.Context, fd *schema.FieldDescriptor) int {
	min, max, res := bounds(ctx, fd)
	extra := 0
	if !isRequired(fd, c.ForceRequired()) {
		extra = 1
	}
	return widthForRange(min, max, res, extra)
}

func (c *NumericCodec) PreEncode(_ *schema.FieldDescriptor, value any) (any, error) {
	return value, nil
}

func (c *NumericCodec) Encode(ctx *trav.Context, fd *schema.FieldDescriptor, wire any) (*bitset.BitVec, error) {
	min, max, res := bounds(ctx, fd)
	required := isRequired(fd, c.ForceRequired())
	w := widthForRange(min, max, res, boolToInt(!required))

	if wire == nil || isNaNValue(wire) {
		if required {
			return nil, errs.ErrSchemaError
		}
		return packUint(w, 0), nil
	}

	v := toFloat(wire)
	strict := ctx != nil && ctx.Strict
	if v < min || v > max {
		if strict {
			return nil, errs.ErrOutOfRange
		}
		if v < min {
			v = min
		} else {
			v = max
		}
	}

	q := math.Round((v - min) / res)
	u := uint64(q)
	if !required {
		u++
	}

	return packUint(w, u), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (c *NumericCodec) Size(ctx *trav.Context, fd *schema.FieldDescriptor, _ any) (int, error) {
	return c.width(ctx, fd), nil
}

func (c *NumericCodec) Decode(ctx *trav.Context, fd *schema.FieldDescriptor, bits *bitset.BitVec) (any, error) {
	min, _, res := bounds(ctx, fd)
	required := isRequired(fd, c.ForceRequired())
	w := c.width(ctx, fd)

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

	v := min + float64(u)*res
	return fromFloat(v, fd.Kind), nil
}

func (c *NumericCodec) PostDecode(_ *schema.FieldDescriptor, wire any) (any, error) {
	return wire, nil
}

func (c *NumericCodec) MinSize(fd *schema.FieldDescriptor) int {
	return c.width(nil, fd)
}

func (c *NumericCodec) MaxSize(fd *schema.FieldDescriptor) int {
	return c.width(nil, fd)
}

func (c *NumericCodec) Validate(fd *schema.FieldDescriptor) error {
	if fd.Options.Max < fd.Options.Min {
		return errs.ErrSchemaError
	}
	if fd.Options.EffectiveResolution() <= 0 {
		return errs.ErrSchemaError
	}
	return nil
}

func (c *NumericCodec) Info(w io.Writer, fd *schema.FieldDescriptor) {
	min, max, res := bounds(nil, fd)
	fmt.Fprintf(w, "%s: numeric [%g, %g] step %g, %d bit(s)\n", fd.Name, min, max, res, c.width(nil, fd))
}

func (c *NumericCodec) Hash(fd *schema.FieldDescriptor) uint64 {
	min, max, res := bounds(nil, fd)
	f := hash.NewFolder()
	f.WriteString("numeric")
	f.WriteString(fd.Name)
	f.WriteUint64(math.Float64bits(min))
	f.WriteUint64(math.Float64bits(max))
	f.WriteUint64(math.Float64bits(res))
	return f.Sum()
}
