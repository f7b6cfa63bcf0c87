package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLRUK_InfiniteDistanceBeatsFiniteDistance(t *testing.T) {
	r := NewLRUK(2)

	// Frame 1 accessed twice (finite backward-2 distance).
	r.RecordAccess(1)
	r.RecordAccess(1)
	r.Unpin(1)

	// Frame 2 accessed once (infinite backward-2 distance: fewer than k).
	r.RecordAccess(2)
	r.Unpin(2)

	v, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, FrameID(2), v, "frame with fewer than k accesses has infinite backward distance and is evicted first")
}

func TestLRUK_TiesAtInfinity_BrokenByEarliestFirstAccess(t *testing.T) {
	r := NewLRUK(3)

	r.RecordAccess(1) // first access overall
	r.RecordAccess(2)
	r.Unpin(1)
	r.Unpin(2)

	v, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, FrameID(1), v)
}

func TestLRUK_Pin_BlocksEviction(t *testing.T) {
	r := NewLRUK(2)
	r.RecordAccess(1)
	require.Equal(t, 1, r.EvictableCount())
	r.Pin(1)
	require.Equal(t, 0, r.EvictableCount())

	_, ok := r.Evict()
	require.False(t, ok)
}

func TestLRUK_Remove_PanicsOnNonEvictable(t *testing.T) {
	r := NewLRUK(2)
	r.RecordAccess(1)
	r.Pin(1)
	require.Panics(t, func() { r.Remove(1) })
}
