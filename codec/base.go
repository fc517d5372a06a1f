package codec

import (
	"math"
	"math/bits"

	"github.com/dcclgo/dccl/bitset"
	"github.com/dcclgo/dccl/errs"
	"github.com/dcclgo/dccl/internal/trav"
	"github.com/dcclgo/dccl/schema"
)

// BaseCodec provides the default repeated-field encoding of spec.md §4.2:
// a length prefix of ceil_log2(max_repeat-min_repeat+1) bits for codec
// version >= 3, or a fixed MaxRepeat-element layout for version 2.
//
// Concrete codecs embed BaseCodec and call Init(self) from their
// constructor so the default repeated methods can call back into the
// concrete codec's own Encode/Size/Decode.
type BaseCodec struct {
	self          FieldCodec
	forceRequired bool
}

// Init binds self as the concrete codec BaseCodec should delegate
// per-element encode/decode calls to.
func (b *BaseCodec) Init(self FieldCodec) {
	b.self = self
}

func (b *BaseCodec) SetForceRequired(v bool) { b.forceRequired = v }
func (b *BaseCodec) ForceRequired() bool     { return b.forceRequired }

// ceilLog2 returns ceil(log2(n)) for n >= 1, and 0 for n <= 1.
func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

func codecVersion(ctx *trav.Context) int {
	if ctx != nil && ctx.RootDescriptor != nil && ctx.RootDescriptor.Options.CodecVersion != 0 {
		return ctx.RootDescriptor.Options.CodecVersion
	}
	return 4
}

// EncodeRepeated is BaseCodec's default repeated-field encoder.
func (b *BaseCodec) EncodeRepeated(ctx *trav.Context, fd *schema.FieldDescriptor, values []any) (*bitset.BitVec, error) {
	out := bitset.New()

	version := codecVersion(ctx)
	minRepeat, maxRepeat := fd.Options.MinRepeat, fd.Options.MaxRepeat
	if maxRepeat == 0 {
		maxRepeat = len(values)
	}

	if version >= 3 {
		width := ceilLog2(maxRepeat - minRepeat + 1)
		if len(values) < minRepeat || len(values) > maxRepeat {
			return nil, errs.ErrOutOfRange
		}
		countBits := bitset.FromUnsigned(width, uint64(len(values)-minRepeat))
		out.Append(countBits)
		countBits.Release()

		for _, v := range values {
			bv, err := b.self.Encode(ctx, fd, v)
			if err != nil {
				return nil, err
			}
			out.Append(bv)
			bv.Release()
		}

		return out, nil
	}

	// Version 2: always emit exactly MaxRepeat elements.
	for i := 0; i < maxRepeat; i++ {
		var v any
		if i < len(values) {
			v = values[i]
		}
		bv, err := b.self.Encode(ctx, fd, v)
		if err != nil {
			return nil, err
		}
		out.Append(bv)
		bv.Release()
	}

	return out, nil
}

// SizeRepeated is BaseCodec's default repeated-field size calculation.
func (b *BaseCodec) SizeRepeated(ctx *trav.Context, fd *schema.FieldDescriptor, values []any) (int, error) {
	version := codecVersion(ctx)
	minRepeat, maxRepeat := fd.Options.MinRepeat, fd.Options.MaxRepeat
	if maxRepeat == 0 {
		maxRepeat = len(values)
	}

	total := 0
	if version >= 3 {
		total += ceilLog2(maxRepeat - minRepeat + 1)
		for _, v := range values {
			n, err := b.self.Size(ctx, fd, v)
			if err != nil {
				return 0, err
			}
			total += n
		}
		return total, nil
	}

	for i := 0; i < maxRepeat; i++ {
		var v any
		if i < len(values) {
			v = values[i]
		}
		n, err := b.self.Size(ctx, fd, v)
		if err != nil {
			return 0, err
		}
		total += n
	}

	return total, nil
}

// DecodeRepeated is BaseCodec's default repeated-field decoder.
func (b *BaseCodec) DecodeRepeated(ctx *trav.Context, fd *schema.FieldDescriptor, bv *bitset.BitVec) ([]any, error) {
	version := codecVersion(ctx)
	minRepeat, maxRepeat := fd.Options.MinRepeat, fd.Options.MaxRepeat

	if version >= 3 {
		width := ceilLog2(maxRepeat - minRepeat + 1)
		if err := bv.EnsureLen(width); err != nil {
			return nil, err
		}
		countBits := bitset.New()
		defer countBits.Release()
		for i := 0; i < width; i++ {
			countBits.PushBack(bv.PopFront())
		}
		n64, err := countBits.ToUnsigned()
		if err != nil {
			return nil, err
		}
		count := int(n64) + minRepeat

		out := make([]any, 0, count)
		for i := 0; i < count; i++ {
			v, err := b.self.Decode(ctx, fd, bv)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}

		return out, nil
	}

	out := make([]any, 0, maxRepeat)
	for i := 0; i < maxRepeat; i++ {
		v, err := b.self.Decode(ctx, fd, bv)
		if errs.IsNullValue(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}

	return out, nil
}

// widthForRange returns ceil_log2((max-min)/resolution + 1 + extra).
func widthForRange(min, max, resolution float64, extra int) int {
	span := (max - min) / resolution
	n := int(math.Round(span)) + 1 + extra
	return ceilLog2(n)
}
