package collision

import (
	"testing"

	"github.com/dcclgo/dccl/errs"
	"github.com/stretchr/testify/require"
)

func TestNewTracker(t *testing.T) {
	tracker := NewTracker()

	require.NotNil(t, tracker)
	require.Equal(t, 0, tracker.Count())
}

func TestTracker_Track_Success(t *testing.T) {
	tracker := NewTracker()

	require.NoError(t, tracker.Track(2, "turtle.Status"))
	require.Equal(t, 1, tracker.Count())

	name, ok := tracker.NameFor(2)
	require.True(t, ok)
	require.Equal(t, "turtle.Status", name)
}

func TestTracker_Track_SameSchemaReload(t *testing.T) {
	tracker := NewTracker()

	require.NoError(t, tracker.Track(2, "turtle.Status"))
	require.NoError(t, tracker.Track(2, "turtle.Status"))
	require.Equal(t, 1, tracker.Count())
}

func TestTracker_Track_Collision(t *testing.T) {
	tracker := NewTracker()

	require.NoError(t, tracker.Track(2, "turtle.Status"))
	err := tracker.Track(2, "turtle.Command")
	require.ErrorIs(t, err, errs.ErrHashCollision)
}

func TestTracker_UntrackAndReset(t *testing.T) {
	tracker := NewTracker()
	require.NoError(t, tracker.Track(2, "turtle.Status"))
	require.NoError(t, tracker.Track(3, "turtle.Command"))

	tracker.Untrack(2)
	_, ok := tracker.NameFor(2)
	require.False(t, ok)
	require.Equal(t, 1, tracker.Count())

	tracker.Reset()
	require.Equal(t, 0, tracker.Count())
}
