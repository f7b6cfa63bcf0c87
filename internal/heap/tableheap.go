// Package heap implements the table heap: a singly linked list of slotted
// table pages holding one relation's tuples.
package heap

import (
	"errors"
	"sync"

	"github.com/novadb/storage/internal/bufferpool"
	"github.com/novadb/storage/internal/storage"
)

// TableHeap is an append-mostly collection of tuples spread across a chain
// of table pages, addressed by the buffer pool manager it was built on.
type TableHeap struct {
	bpm *bufferpool.Manager

	mu          sync.Mutex
	firstPageID storage.PageID
	lastPageID  storage.PageID
	pageCount   int
}

// New allocates the heap's first page and returns the heap.
func New(bpm *bufferpool.Manager) (*TableHeap, error) {
	guard, err := bpm.CreatePage()
	if err != nil {
		return nil, err
	}
	guard.TablePage().InitHeader()
	id := guard.PageID()
	guard.Release()

	return &TableHeap{
		bpm:         bpm,
		firstPageID: id,
		lastPageID:  id,
		pageCount:   1,
	}, nil
}

// FirstPageID returns the id of the heap's first page.
func (h *TableHeap) FirstPageID() storage.PageID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.firstPageID
}

// PageCount returns the number of pages currently in the heap.
func (h *TableHeap) PageCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pageCount
}

// InsertTuple appends data as a new tuple, allocating a fresh page and
// linking it onto the chain if the current last page has no room.
func (h *TableHeap) InsertTuple(data []byte) (storage.RecordID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	pageID := h.lastPageID
	guard, err := h.bpm.FetchPageWrite(pageID)
	if err != nil {
		return storage.RecordID{}, err
	}

	fresh := false
	for {
		slot, err := guard.TablePage().InsertTuple(data)
		if err == nil {
			guard.Release()
			return storage.RecordID{PageID: pageID, Slot: slot}, nil
		}
		if !errors.Is(err, storage.ErrOutOfBounds) {
			guard.Release()
			return storage.RecordID{}, err
		}
		if fresh {
			// Even a brand new, empty page has no room: the tuple itself is
			// too large for a page to ever hold. Allocating another page
			// would just repeat this same failure forever.
			guard.Release()
			return storage.RecordID{}, err
		}

		newGuard, cerr := h.bpm.CreatePage()
		if cerr != nil {
			guard.Release()
			return storage.RecordID{}, cerr
		}
		newGuard.TablePage().InitHeader()
		newID := newGuard.PageID()

		// The old page's handle must stay live until the link is written,
		// otherwise a reader following the chain could observe a page with
		// no next pointer set yet.
		guard.TablePage().SetNextPageID(newID)
		guard.Release()

		h.lastPageID = newID
		h.pageCount++

		pageID = newID
		guard = newGuard
		fresh = true
	}
}

// GetTuple returns a copy of the tuple identified by id.
func (h *TableHeap) GetTuple(id storage.RecordID) ([]byte, error) {
	guard, err := h.bpm.FetchPageRead(id.PageID)
	if err != nil {
		return nil, err
	}
	defer guard.Release()
	return guard.TablePage().GetTuple(id.Slot)
}

// DeleteTuple logically deletes the tuple identified by id and returns the
// bytes it held immediately before the delete. The tuple's bytes remain on
// the page; no space is reclaimed.
func (h *TableHeap) DeleteTuple(id storage.RecordID) ([]byte, error) {
	guard, err := h.bpm.FetchPageWrite(id.PageID)
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	tp := guard.TablePage()
	snapshot, err := tp.GetTuple(id.Slot)
	if err != nil {
		return nil, err
	}
	if err := tp.UpdateTupleMetadata(id.Slot, true); err != nil {
		return nil, err
	}
	return snapshot, nil
}
