package arith

import (
	"fmt"
	"io"
	"math"

	"github.com/dcclgo/dccl/bitset"
	"github.com/dcclgo/dccl/codec"
	"github.com/dcclgo/dccl/errs"
	"github.com/dcclgo/dccl/internal/hash"
	"github.com/dcclgo/dccl/internal/trav"
	"github.com/dcclgo/dccl/schema"
)

// Codec adapts the arithmetic coder to codec.FieldCodec, registered under
// the name "dccl.arithmetic" (spec.md §4.8's "loadable sub-codec"). It
// applies to enum fields (symbol = declaration index) and bounded numeric
// fields (symbol = value quantized to the field's resolution), coding a
// repeated field's whole value sequence as one adaptive symbol stream
// terminated by EOFSymbol rather than per-element length-prefixing.
type Codec struct {
	codec.BaseCodec
}

var _ codec.FieldCodec = (*Codec)(nil)

func NewCodec() *Codec {
	c := &Codec{}
	c.Init(c)
	return c
}

func (c *Codec) Name() string { return "dccl.arithmetic" }

func (c *Codec) PreEncode(_ *schema.FieldDescriptor, value any) (any, error) { return value, nil }
func (c *Codec) PostDecode(_ *schema.FieldDescriptor, wire any) (any, error) { return wire, nil }

// symbolCount returns the model's alphabet size K for fd.
func symbolCount(fd *schema.FieldDescriptor) int {
	if fd.Kind == schema.KindEnum {
		return len(fd.Options.EnumValues)
	}
	res := fd.Options.EffectiveResolution()
	return int(math.Round((fd.Options.Max-fd.Options.Min)/res)) + 1
}

func newModel(fd *schema.FieldDescriptor) *Model {
	return NewModel(symbolCount(fd), true)
}

func toSymbol(fd *schema.FieldDescriptor, value any) (int, error) {
	if value == nil {
		return OutOfRangeSymbol, nil
	}
	if fd.Kind == schema.KindEnum {
		name, _ := value.(string)
		for i, v := range fd.Options.EnumValues {
			if v == name {
				return i, nil
			}
		}
		return OutOfRangeSymbol, nil
	}

	v := toFloatAny(value)
	res := fd.Options.EffectiveResolution()
	if v < fd.Options.Min || v > fd.Options.Max {
		return OutOfRangeSymbol, nil
	}
	return int(math.Round((v - fd.Options.Min) / res)), nil
}

func fromSymbol(fd *schema.FieldDescriptor, sym int) (any, error) {
	if sym == OutOfRangeSymbol || sym == EOFSymbol {
		return nil, errs.ErrDecodeIncomplete
	}
	if fd.Kind == schema.KindEnum {
		if sym < 0 || sym >= len(fd.Options.EnumValues) {
			return nil, errs.ErrOutOfRange
		}
		return fd.Options.EnumValues[sym], nil
	}
	res := fd.Options.EffectiveResolution()
	v := fd.Options.Min + float64(sym)*res
	return fromFloatKind(v, fd.Kind), nil
}

func toFloatAny(v any) float64 {
	switch t := v.(type) {
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case int:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case uint:
		return float64(t)
	case float32:
		return float64(t)
	case float64:
		return t
	default:
		return 0
	}
}

func fromFloatKind(v float64, kind schema.Kind) any {
	switch kind {
	case schema.KindInt32:
		return int32(v)
	case schema.KindInt64:
		return int64(v)
	case schema.KindUint32:
		return uint32(v)
	case schema.KindUint64:
		return uint64(v)
	case schema.KindFloat:
		return float32(v)
	default:
		return v
	}
}

// Encode codes a single value followed immediately by EOF. Most callers
// use EncodeRepeated, which amortizes the model across a whole sequence.
func (c *Codec) Encode(_ *trav.Context, fd *schema.FieldDescriptor, wire any) (*bitset.BitVec, error) {
	return c.EncodeRepeated(nil, fd, []any{wire})
}

func (c *Codec) Decode(_ *trav.Context, fd *schema.FieldDescriptor, bits *bitset.BitVec) (any, error) {
	values, err := c.DecodeRepeated(nil, fd, bits)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, errs.ErrNullValue
	}
	return values[0], nil
}

func (c *Codec) Size(ctx *trav.Context, fd *schema.FieldDescriptor, wire any) (int, error) {
	bv, err := c.Encode(ctx, fd, wire)
	if err != nil {
		return 0, err
	}
	n := bv.Len()
	bv.Release()
	return n, nil
}

// EncodeRepeated codes values as one adaptive symbol stream terminated by
// EOFSymbol, per spec.md §4.8.
func (c *Codec) EncodeRepeated(_ *trav.Context, fd *schema.FieldDescriptor, values []any) (*bitset.BitVec, error) {
	m := newModel(fd)
	enc := NewEncoder()

	for _, v := range values {
		sym, err := toSymbol(fd, v)
		if err != nil {
			return nil, err
		}
		if err := enc.Encode(m, sym); err != nil {
			return nil, err
		}
	}
	if err := enc.Encode(m, EOFSymbol); err != nil {
		return nil, err
	}

	return enc.Finish(), nil
}

func (c *Codec) SizeRepeated(ctx *trav.Context, fd *schema.FieldDescriptor, values []any) (int, error) {
	bv, err := c.EncodeRepeated(ctx, fd, values)
	if err != nil {
		return 0, err
	}
	n := bv.Len()
	bv.Release()
	return n, nil
}

// DecodeRepeated peels symbols off bits until EOFSymbol, per spec.md §4.8.
func (c *Codec) DecodeRepeated(_ *trav.Context, fd *schema.FieldDescriptor, bits *bitset.BitVec) ([]any, error) {
	m := newModel(fd)
	dec := NewDecoder(bits)

	var out []any
	maxRepeat := fd.Options.MaxRepeat
	if maxRepeat == 0 {
		maxRepeat = 1 << 20 // effectively unbounded unless configured
	}
	for i := 0; i < maxRepeat+1; i++ {
		sym, err := dec.Decode(m)
		if err != nil {
			return nil, err
		}
		if sym == EOFSymbol {
			return out, nil
		}
		v, err := fromSymbol(fd, sym)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return nil, errs.ErrDecodeIncomplete
}

func (c *Codec) MinSize(fd *schema.FieldDescriptor) int {
	return newModel(fd).MinSize(fd.Options.MaxRepeat)
}

func (c *Codec) MaxSize(fd *schema.FieldDescriptor) int {
	return newModel(fd).MaxSize(fd.Options.MaxRepeat)
}

func (c *Codec) Validate(fd *schema.FieldDescriptor) error {
	if symbolCount(fd) < 1 {
		return errs.ErrSchemaError
	}
	return nil
}

func (c *Codec) Info(w io.Writer, fd *schema.FieldDescriptor) {
	fmt.Fprintf(w, "%s: arithmetic, %d symbols\n", fd.Name, symbolCount(fd))
}

func (c *Codec) Hash(fd *schema.FieldDescriptor) uint64 {
	f := hash.NewFolder()
	f.WriteString("arithmetic")
	f.WriteString(fd.Name)
	f.WriteUint64(uint64(symbolCount(fd)))
	return f.Sum()
}
