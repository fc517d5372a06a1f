package codec

import (
	"math"

	"github.com/dcclgo/dccl/bitset"
	"github.com/dcclgo/dccl/schema"
)

// isNaNValue reports whether wire holds a floating-point NaN, the
// spec.md §8 scenario 3 sentinel for an optional numeric field encoding
// to "absent" without the caller needing to set it nil explicitly.
func isNaNValue(wire any) bool {
	switch t := wire.(type) {
	case float32:
		return math.IsNaN(float64(t))
	case float64:
		return math.IsNaN(t)
	default:
		return false
	}
}

// packUint encodes v's low width bits into a fresh BitVec.
func packUint(width int, v uint64) *bitset.BitVec {
	return bitset.FromUnsigned(width, v)
}

// unpackUint consumes width bits from the front of bv (borrowing from its
// parent chain as needed) and returns them as an unsigned integer.
func unpackUint(bv *bitset.BitVec, width int) (uint64, error) {
	if width == 0 {
		return 0, nil
	}
	if err := bv.EnsureLen(width); err != nil {
		return 0, err
	}

	tmp := bitset.New()
	defer tmp.Release()
	for i := 0; i < width; i++ {
		tmp.PushBack(bv.PopFront())
	}

	return tmp.ToUnsigned()
}

// toFloat converts a Go numeric value to float64 for bounds arithmetic.
func toFloat(v any) float64 {
	switch t := v.(type) {
	case bool:
		if t {
			return 1
		}
		return 0
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

// fromFloat converts v back into the Go type matching kind.
func fromFloat(v float64, kind schema.Kind) any {
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
	case schema.KindDouble:
		return v
	default:
		return v
	}
}

// isRequired reports whether fd should be encoded without a presence slot,
// honoring both its static cardinality and a codec's ForceRequired override.
func isRequired(fd *schema.FieldDescriptor, forced bool) bool {
	return forced || fd.Cardinality == schema.Required
}
