package heap

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/novadb/storage/internal/bufferpool"
	"github.com/novadb/storage/internal/storage"
)

func newTestHeap(t *testing.T, poolSize int) *TableHeap {
	t.Helper()
	dir := t.TempDir()
	dm, err := storage.OpenDiskManager(filepath.Join(dir, "data.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dm.Close() })

	bpm := bufferpool.New(poolSize, dm, storage.NewLRU())
	h, err := New(bpm)
	require.NoError(t, err)
	return h
}

func TestTableHeap_InsertAndGet_RoundTrips(t *testing.T) {
	h := newTestHeap(t, 4)

	id, err := h.InsertTuple([]byte("row one"))
	require.NoError(t, err)

	got, err := h.GetTuple(id)
	require.NoError(t, err)
	require.Equal(t, []byte("row one"), got)
}

func TestTableHeap_InsertTriggersPageAllocation(t *testing.T) {
	h := newTestHeap(t, 4)

	// Each tuple is sized so only a handful fit per page, forcing the heap
	// to allocate and link a second page partway through the loop.
	big := make([]byte, 2000)
	for i := range big {
		big[i] = byte(i)
	}

	var ids []storage.RecordID
	for i := 0; i < 5; i++ {
		id, err := h.InsertTuple(big)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	require.Greater(t, h.PageCount(), 1)

	for _, id := range ids {
		got, err := h.GetTuple(id)
		require.NoError(t, err)
		require.Equal(t, big, got)
	}
}

func TestTableHeap_DeleteTuple_IsLogicalAndExcludedFromIteration(t *testing.T) {
	h := newTestHeap(t, 4)

	var ids []storage.RecordID
	for i := 0; i < 5; i++ {
		id, err := h.InsertTuple([]byte{byte(i)})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	deleted, err := h.DeleteTuple(ids[2])
	require.NoError(t, err)
	require.Equal(t, []byte{byte(2)}, deleted)

	_, err = h.GetTuple(ids[2])
	require.ErrorIs(t, err, storage.ErrInvalidInput)

	it := NewTupleIterator(h)
	var seen []storage.RecordID
	for {
		id, _, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		seen = append(seen, id)
	}
	require.Len(t, seen, 4)
	for _, id := range seen {
		require.NotEqual(t, ids[2], id)
	}
}

func TestPageIterator_WalksFullChain(t *testing.T) {
	h := newTestHeap(t, 4)

	big := make([]byte, 2000)
	for i := 0; i < 6; i++ {
		_, err := h.InsertTuple(big)
		require.NoError(t, err)
	}

	it := NewPageIterator(h)
	count := 0
	for {
		guard, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		count++
		guard.Release()
	}
	require.Equal(t, h.PageCount(), count)
}
