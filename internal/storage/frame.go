package storage

import (
	locking "github.com/novadb/storage/internal/lock"
)

// Frame is one slot in the buffer pool: a page-sized byte array plus the
// bookkeeping the pool needs to decide whether it can be reused.
type Frame struct {
	PageID PageID
	Dirty  bool
	pin    *locking.RefCount
	Data   [PageSize]byte
}

// NewFrame returns an unused frame: invalid page id, unpinned, clean, zeroed.
func NewFrame() *Frame {
	return &Frame{
		PageID: InvalidPageID,
		pin:    locking.NewRefCount(),
	}
}

// PinCount returns the number of outstanding pins on this frame.
func (f *Frame) PinCount() uint16 {
	return uint16(f.pin.Get())
}

// IncPin records one more pin on this frame's page.
func (f *Frame) IncPin() {
	f.pin.Inc()
}

// DecPin releases one pin. Panics if the frame was not pinned at all -
// that is a caller bug (unbalanced unpin), not a recoverable error.
func (f *Frame) DecPin() {
	f.pin.Dec()
}

// Reset returns the frame to its unused state so it can be handed to a
// different page. The caller must have already written back dirty data.
func (f *Frame) Reset() {
	f.PageID = InvalidPageID
	f.Dirty = false
	f.pin.Reset()
	for i := range f.Data {
		f.Data[i] = 0
	}
}

// WriteAt copies data into the frame at offset, panicking if it would run
// past the end of the page - writing past page bounds is a fatal,
// non-recoverable invariant violation per the storage layer's contract.
func (f *Frame) WriteAt(offset int, data []byte) {
	if offset < 0 || offset+len(data) > PageSize {
		panic("storage: write past page bounds")
	}
	copy(f.Data[offset:], data)
}
