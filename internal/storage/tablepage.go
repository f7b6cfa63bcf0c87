package storage

import (
	"github.com/novadb/storage/internal/alias/bx"
)

// Slotted-page layout: a 16-byte header, followed by a forward-growing
// array of 6-byte slots, followed by free space, followed by a
// backward-growing heap of tuple bytes anchored at the end of the page.
//
//	[ header(16) | slot[0] slot[1] ... | free space | ... tuple1 tuple0 ]
const (
	headerSize = 16
	slotSize   = 6

	headerOffNextPageID   = 0 // uint64
	headerOffTupleCount   = 8 // uint16
	headerOffDeletedCount = 10

	slotOffOffset    = 0 // uint16
	slotOffSize      = 2 // uint16
	slotOffIsDeleted = 4 // uint8
)

// TablePage is a view over one page frame's bytes, interpreting them as a
// slotted table page. It does not own the bytes; callers must hold the
// page pinned for as long as the TablePage is in use.
type TablePage struct {
	data *[PageSize]byte
}

// NewTablePage wraps page bytes as a TablePage view.
func NewTablePage(data *[PageSize]byte) *TablePage {
	return &TablePage{data: data}
}

// InitHeader initializes an empty page: no next page, zero tuples.
func (p *TablePage) InitHeader() {
	bx.PutU64At(p.data[:], headerOffNextPageID, uint64(InvalidPageID))
	bx.PutU16At(p.data[:], headerOffTupleCount, 0)
	bx.PutU16At(p.data[:], headerOffDeletedCount, 0)
}

// NextPageID returns the id of the next page in this table's linked list.
func (p *TablePage) NextPageID() PageID {
	return PageID(bx.U64At(p.data[:], headerOffNextPageID))
}

// SetNextPageID links this page to the next page in the table's chain.
func (p *TablePage) SetNextPageID(id PageID) {
	bx.PutU64At(p.data[:], headerOffNextPageID, uint64(id))
}

// TupleCount returns the number of slots (live and deleted) on this page.
func (p *TablePage) TupleCount() uint16 {
	return bx.U16At(p.data[:], headerOffTupleCount)
}

// DeletedTupleCount returns the number of slots marked deleted.
func (p *TablePage) DeletedTupleCount() uint16 {
	return bx.U16At(p.data[:], headerOffDeletedCount)
}

func (p *TablePage) slotOffset(slot uint16) int {
	return headerSize + int(slot)*slotSize
}

func (p *TablePage) readSlot(slot uint16) (offset, size uint16, isDeleted bool) {
	so := p.slotOffset(slot)
	offset = bx.U16At(p.data[:], so+slotOffOffset)
	size = bx.U16At(p.data[:], so+slotOffSize)
	isDeleted = p.data[so+slotOffIsDeleted] != 0
	return
}

func (p *TablePage) writeSlot(slot uint16, offset, size uint16, isDeleted bool) {
	so := p.slotOffset(slot)
	bx.PutU16At(p.data[:], so+slotOffOffset, offset)
	bx.PutU16At(p.data[:], so+slotOffSize, size)
	if isDeleted {
		p.data[so+slotOffIsDeleted] = 1
	} else {
		p.data[so+slotOffIsDeleted] = 0
	}
}

// lowestTupleOffset returns the smallest slot offset currently in use, or
// PageSize if there are no tuples yet - i.e. the start of free space from
// the tail end of the page.
func (p *TablePage) lowestTupleOffset() uint16 {
	count := p.TupleCount()
	if count == 0 {
		return PageSize
	}
	lowest := uint16(PageSize)
	for s := uint16(0); s < count; s++ {
		off, _, _ := p.readSlot(s)
		if off < lowest {
			lowest = off
		}
	}
	return lowest
}

// InsertTuple appends data as a new tuple, returning its slot index.
// Returns an OutOfBounds error if the page has no room: the no-overlap
// invariant headerSize + tupleCnt*slotSize <= min(slot offsets) must hold
// after the insert.
func (p *TablePage) InsertTuple(data []byte) (uint16, error) {
	count := p.TupleCount()
	newHeaderEnd := headerSize + (int(count)+1)*slotSize
	newOffset := int(p.lowestTupleOffset()) - len(data)

	if newOffset < newHeaderEnd {
		return 0, wrap("InsertTuple", KindOutOfBounds, nil)
	}

	copy(p.data[newOffset:newOffset+len(data)], data)
	p.writeSlot(count, uint16(newOffset), uint16(len(data)), false)
	bx.PutU16At(p.data[:], headerOffTupleCount, count+1)

	return count, nil
}

// GetTuple returns a copy of the tuple at slot. Returns InvalidInput if slot
// has never been written on this page or if the tuple at slot has been
// logically deleted.
func (p *TablePage) GetTuple(slot uint16) ([]byte, error) {
	raw, err := p.GetTupleRef(slot)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

// GetTupleRef returns a zero-copy view of the tuple at slot, backed
// directly by the page's frame memory. The slice is only valid while the
// page remains pinned.
func (p *TablePage) GetTupleRef(slot uint16) ([]byte, error) {
	if slot >= p.TupleCount() {
		return nil, wrap("GetTuple", KindInvalidInput, nil)
	}
	offset, size, isDeleted := p.readSlot(slot)
	if isDeleted {
		return nil, wrap("GetTuple", KindInvalidInput, nil)
	}
	return p.data[offset : offset+size], nil
}

// UpdateTupleMetadata flips the is_deleted flag for slot. Deletion is
// logical only: the tuple's bytes and slot entry are left in place, so no
// space is ever reclaimed by this operation.
func (p *TablePage) UpdateTupleMetadata(slot uint16, isDeleted bool) error {
	if slot >= p.TupleCount() {
		return wrap("UpdateTupleMetadata", KindInvalidInput, nil)
	}
	offset, size, was := p.readSlot(slot)
	if was == isDeleted {
		return nil
	}
	p.writeSlot(slot, offset, size, isDeleted)

	deleted := p.DeletedTupleCount()
	if isDeleted {
		deleted++
	} else {
		deleted--
	}
	bx.PutU16At(p.data[:], headerOffDeletedCount, deleted)
	return nil
}

// IsDeleted reports whether the tuple at slot is logically deleted.
func (p *TablePage) IsDeleted(slot uint16) bool {
	_, _, isDeleted := p.readSlot(slot)
	return isDeleted
}
