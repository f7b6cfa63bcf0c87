package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newInitedPage() *TablePage {
	var buf [PageSize]byte
	p := NewTablePage(&buf)
	p.InitHeader()
	return p
}

func TestTablePage_InsertAndGetTuple_RoundTrips(t *testing.T) {
	p := newInitedPage()

	slot, err := p.InsertTuple([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, uint16(0), slot)

	got, err := p.GetTuple(slot)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)
	require.Equal(t, uint16(1), p.TupleCount())
}

func TestTablePage_GetTuple_SlotOutOfRange(t *testing.T) {
	p := newInitedPage()
	_, err := p.GetTuple(0)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestTablePage_InsertTuple_ReturnsOutOfBoundsWhenFull(t *testing.T) {
	p := newInitedPage()

	// This tuple size is chosen so the page cannot fit it once the header
	// and one slot are accounted for.
	big := make([]byte, PageSize-headerSize-slotSize+1)
	_, err := p.InsertTuple(big)
	require.ErrorIs(t, err, ErrOutOfBounds)
}

func TestTablePage_UpdateTupleMetadata_LogicalDeleteOnly(t *testing.T) {
	p := newInitedPage()

	slot, err := p.InsertTuple([]byte("x"))
	require.NoError(t, err)

	require.NoError(t, p.UpdateTupleMetadata(slot, true))
	require.Equal(t, uint16(1), p.DeletedTupleCount())
	require.True(t, p.IsDeleted(slot))

	_, err = p.GetTuple(slot)
	require.ErrorIs(t, err, ErrInvalidInput)

	// Space is never reclaimed: GetTupleRef would still find the bytes if
	// we bypassed the is_deleted check, and the slot still counts.
	require.Equal(t, uint16(1), p.TupleCount())

	// Idempotent: deleting twice does not double-count.
	require.NoError(t, p.UpdateTupleMetadata(slot, true))
	require.Equal(t, uint16(1), p.DeletedTupleCount())
}

func TestTablePage_NoOverlapInvariant_MultipleTuples(t *testing.T) {
	p := newInitedPage()

	var slots []uint16
	for i := 0; i < 5; i++ {
		s, err := p.InsertTuple([]byte{byte(i), byte(i), byte(i)})
		require.NoError(t, err)
		slots = append(slots, s)
	}

	lowest := p.lowestTupleOffset()
	headerEnd := headerSize + int(p.TupleCount())*slotSize
	require.GreaterOrEqual(t, int(lowest), headerEnd)

	for i, s := range slots {
		got, err := p.GetTuple(s)
		require.NoError(t, err)
		require.Equal(t, []byte{byte(i), byte(i), byte(i)}, got)
	}
}

func TestTablePage_SetNextPageID(t *testing.T) {
	p := newInitedPage()
	require.Equal(t, InvalidPageID, p.NextPageID())

	p.SetNextPageID(PageID(42))
	require.Equal(t, PageID(42), p.NextPageID())
}
