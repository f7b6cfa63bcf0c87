package heap

import (
	"github.com/novadb/storage/internal/bufferpool"
	"github.com/novadb/storage/internal/storage"
)

// PageIterator walks a table heap's linked list of pages, from first page
// to the invalid-page-id sentinel that terminates the chain.
type PageIterator struct {
	bpm     *bufferpool.Manager
	current storage.PageID
	done    bool
}

// NewPageIterator returns an iterator starting at heap's first page.
func NewPageIterator(heap *TableHeap) *PageIterator {
	return &PageIterator{bpm: heap.bpm, current: heap.FirstPageID()}
}

// Next returns a read guard over the next page in the chain, or ok=false
// once the chain is exhausted. The caller must Release the guard.
func (it *PageIterator) Next() (guard *bufferpool.ReadPageGuard, ok bool, err error) {
	if it.done || it.current == storage.InvalidPageID {
		it.done = true
		return nil, false, nil
	}

	guard, err = it.bpm.FetchPageRead(it.current)
	if err != nil {
		return nil, false, err
	}
	it.current = guard.TablePage().NextPageID()
	return guard, true, nil
}

// TupleIterator walks every live (non-deleted) tuple across a table heap's
// pages, in page-then-slot order, skipping logically deleted slots.
type TupleIterator struct {
	bpm         *bufferpool.Manager
	currentPage storage.PageID
	currentSlot uint16
	done        bool
}

// NewTupleIterator returns an iterator starting at heap's first tuple.
func NewTupleIterator(heap *TableHeap) *TupleIterator {
	return &TupleIterator{bpm: heap.bpm, currentPage: heap.FirstPageID()}
}

// Next returns the RecordID and bytes of the next live tuple, or ok=false
// once every page in the chain has been exhausted.
func (it *TupleIterator) Next() (id storage.RecordID, data []byte, ok bool, err error) {
	for {
		if it.done || it.currentPage == storage.InvalidPageID {
			it.done = true
			return storage.RecordID{}, nil, false, nil
		}

		guard, ferr := it.bpm.FetchPageRead(it.currentPage)
		if ferr != nil {
			return storage.RecordID{}, nil, false, ferr
		}
		tp := guard.TablePage()

		if it.currentSlot >= tp.TupleCount() {
			next := tp.NextPageID()
			guard.Release()
			it.currentPage = next
			it.currentSlot = 0
			continue
		}

		slot := it.currentSlot
		it.currentSlot++

		if tp.IsDeleted(slot) {
			guard.Release()
			continue
		}

		raw, gerr := tp.GetTuple(slot)
		rid := storage.RecordID{PageID: it.currentPage, Slot: slot}
		guard.Release()
		if gerr != nil {
			return storage.RecordID{}, nil, false, gerr
		}
		return rid, raw, true, nil
	}
}
