package arith

import (
	"testing"

	"github.com/dcclgo/dccl/bitset"
	"github.com/dcclgo/dccl/schema"
	"github.com/stretchr/testify/require"
)

// TestStaticReferenceVectorRoundTrip exercises the Howard-Vitter worked
// example from spec.md §8 scenario 6: a two-symbol alphabet {a, b} with
// frequencies 4 and 5 plus a unit-frequency EOF, coding the sequence
// b, b, b, EOF. A freshly-seeded decoder, built with the same static
// frequency model as the encoder, must reproduce the symbol stream
// exactly.
func TestStaticReferenceVectorRoundTrip(t *testing.T) {
	const a, b = 0, 1
	seq := []int{b, b, b, EOFSymbol}

	encModel := NewWeightedModel([]uint64{4, 5}, 1, 0, false)
	enc := NewEncoder()
	for _, sym := range seq {
		require.NoError(t, enc.Encode(encModel, sym))
	}
	bits := enc.Finish()
	require.Greater(t, bits.Len(), 0)

	decModel := NewWeightedModel([]uint64{4, 5}, 1, 0, false)
	dec := NewDecoder(bits)
	for _, want := range seq {
		got, err := dec.Decode(decModel)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

// TestAdaptiveRoundTripMatchesModelState covers property 7: encoding a
// sequence against an adaptive model and decoding it back against an
// identically-seeded adaptive model must reproduce the exact symbol
// stream, and the two models must end up in identical states, since an
// adaptive model mutates itself after every symbol and any divergence
// would desync the next field coded against it.
func TestAdaptiveRoundTripMatchesModelState(t *testing.T) {
	seq := []int{0, 1, 1, 2, 0, OutOfRangeSymbol, 2, EOFSymbol}

	encModel := NewModel(3, true)
	enc := NewEncoder()
	for _, sym := range seq {
		require.NoError(t, enc.Encode(encModel, sym))
	}
	bits := enc.Finish()

	decModel := NewModel(3, true)
	dec := NewDecoder(bits)
	got := make([]int, 0, len(seq))
	for range seq {
		sym, err := dec.Decode(decModel)
		require.NoError(t, err)
		got = append(got, sym)
	}

	require.Equal(t, seq, got)
	require.Equal(t, encModel.freqs, decModel.freqs)
}

// TestEncodeRejectsOverflowingModel covers spec.md §4.8's MaxFreqTotal
// ceiling: a model whose frequencies sum past 2^(CODE_BITS-2)-1 cannot be
// coded against, since the coder's interval arithmetic would overflow.
func TestEncodeRejectsOverflowingModel(t *testing.T) {
	m := NewWeightedModel([]uint64{MaxFreqTotal, 1}, 1, 0, false)
	enc := NewEncoder()
	err := enc.Encode(m, 0)
	require.Error(t, err)
}

// TestFieldCodecRepeatedRoundTrip exercises the codec.FieldCodec adapter
// (Codec, registered as "dccl.arithmetic") end to end: a repeated bounded
// numeric field coded as a single adaptive symbol stream must decode back
// to the same values in the same order.
func TestFieldCodecRepeatedRoundTrip(t *testing.T) {
	fd := &schema.FieldDescriptor{
		Name:        "samples",
		Kind:        schema.KindInt32,
		Cardinality: schema.Repeated,
		Options:     schema.ParseOptions("min=0,max=10,resolution=1,max_repeat=16"),
	}

	c := NewCodec()
	values := []any{int32(1), int32(1), int32(7), int32(0), int32(10)}

	bv, err := c.EncodeRepeated(nil, fd, values)
	require.NoError(t, err)

	decoded, err := c.DecodeRepeated(nil, fd, bv)
	require.NoError(t, err)
	require.Equal(t, values, decoded)
}

// TestDecodeOnEmptyInputStillTerminates exercises the decoder's
// zero-padding behavior (§4.8): once the input bits are exhausted,
// further reads behave as if trailing zero bits were appended, rather
// than panicking or blocking.
func TestDecodeOnEmptyInputStillTerminates(t *testing.T) {
	m := NewWeightedModel([]uint64{1, 1}, 1, 0, false)
	dec := NewDecoder(bitset.New())
	_, err := dec.Decode(m)
	require.NoError(t, err)
}
