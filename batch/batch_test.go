package batch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBundle_PackUnpack_RoundTrip(t *testing.T) {
	for _, alg := range []Algorithm{AlgorithmNone, AlgorithmZstd, AlgorithmS2, AlgorithmLZ4} {
		t.Run(alg.String(), func(t *testing.T) {
			b := Bundle{
				Algorithm: alg,
				Frames:    [][]byte{{0x04}, {0x21, 0x4E, 0x01, 0x02}, {}},
			}

			packed, err := b.Pack()
			require.NoError(t, err)

			frames, err := Unpack(packed)
			require.NoError(t, err)
			require.Equal(t, b.Frames, frames)
		})
	}
}

func TestUnpack_RejectsBadMagic(t *testing.T) {
	_, err := Unpack([]byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	require.Error(t, err)
}

func TestUnpack_RejectsTruncated(t *testing.T) {
	_, err := Unpack([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestUnpack_RejectsChecksumMismatch(t *testing.T) {
	b := Bundle{Algorithm: AlgorithmNone, Frames: [][]byte{{1, 2, 3}}}
	packed, err := b.Pack()
	require.NoError(t, err)

	corrupted := make([]byte, len(packed))
	copy(corrupted, packed)
	corrupted[len(corrupted)-1] ^= 0xFF

	_, err = Unpack(corrupted)
	require.Error(t, err)
}
