// Package bufferpool implements the fixed-size buffer pool manager: the
// component that mediates every access to on-disk pages, keeping a bounded
// number of them resident in memory and deciding which to evict when full.
package bufferpool

import (
	"log/slog"
	"sync"

	"github.com/novadb/storage/internal/storage"
)

var logDebugPrefix = "bufferpool: "

// Manager is the buffer pool manager. One coarse mutex guards all of its
// state; only disk I/O performed while that mutex is held (fetch/create
// reads, eviction write-back) can block a caller.
type Manager struct {
	mu sync.Mutex

	disk     *storage.DiskManager
	replacer storage.Replacer

	frames    []*storage.Frame
	pageTable map[storage.PageID]storage.FrameID
	freeList  []storage.FrameID
}

// New creates a buffer pool of poolSize frames backed by disk, using
// replacer to select eviction victims. Pass storage.NewLRU() for the
// required default policy.
func New(poolSize int, disk *storage.DiskManager, replacer storage.Replacer) *Manager {
	frames := make([]*storage.Frame, poolSize)
	freeList := make([]storage.FrameID, poolSize)
	for i := range frames {
		frames[i] = storage.NewFrame()
		freeList[i] = storage.FrameID(i)
	}
	return &Manager{
		disk:      disk,
		replacer:  replacer,
		frames:    frames,
		pageTable: make(map[storage.PageID]storage.FrameID),
		freeList:  freeList,
	}
}

// Capacity returns the fixed number of frames in the pool.
func (m *Manager) Capacity() int {
	return len(m.frames)
}

// FreeFrameCount returns the number of frames that are either on the free
// list or currently evictable - i.e. how many more distinct pages the pool
// could hold before the next create/fetch would need to block or fail.
func (m *Manager) FreeFrameCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.freeList) + m.replacer.EvictableCount()
}

// getFreeFrameLocked returns a frame ready to hold a new page: either an
// unused one from the free list, or one reclaimed from the replacer's
// victim (writing it back first if dirty). Caller must hold m.mu.
func (m *Manager) getFreeFrameLocked() (storage.FrameID, error) {
	if n := len(m.freeList); n > 0 {
		id := m.freeList[n-1]
		m.freeList = m.freeList[:n-1]
		return id, nil
	}

	victimID, ok := m.replacer.Evict()
	if !ok {
		return 0, storage.ErrBufferPoolFull
	}

	victim := m.frames[victimID]
	if victim.PinCount() != 0 {
		panic("bufferpool: replacer returned a pinned frame as victim")
	}

	if victim.Dirty {
		slog.Debug(logDebugPrefix+"writing back dirty victim", "pageID", victim.PageID, "frameID", victimID)
		if err := m.disk.Write(victim.PageID, victim.Data[:]); err != nil {
			return 0, err
		}
	}

	delete(m.pageTable, victim.PageID)
	victim.Reset()
	return victimID, nil
}

// CreatePage allocates a brand new page on disk and pins it resident in the
// pool, returning a write guard over it.
func (m *Manager) CreatePage() (*WritePageGuard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, err := m.disk.AllocatePage()
	if err != nil {
		return nil, err
	}

	frameID, err := m.getFreeFrameLocked()
	if err != nil {
		return nil, err
	}

	frame := m.frames[frameID]
	frame.PageID = id
	frame.Dirty = false
	frame.IncPin()

	m.pageTable[id] = frameID
	m.replacer.RecordAccess(frameID)
	m.replacer.Pin(frameID)

	slog.Debug(logDebugPrefix+"created page", "pageID", id, "frameID", frameID)
	return newWritePageGuard(m, id), nil
}

// fetchLocked returns the frame id holding page id, loading it from disk if
// necessary. Caller must hold m.mu.
func (m *Manager) fetchLocked(id storage.PageID) (storage.FrameID, error) {
	if frameID, ok := m.pageTable[id]; ok {
		frame := m.frames[frameID]
		wasUnpinned := frame.PinCount() == 0
		frame.IncPin()
		m.replacer.RecordAccess(frameID)
		if wasUnpinned {
			m.replacer.Pin(frameID)
		}
		return frameID, nil
	}

	frameID, err := m.getFreeFrameLocked()
	if err != nil {
		return 0, err
	}

	frame := m.frames[frameID]
	data, ok, err := m.disk.Read(id)
	if err != nil {
		m.freeList = append(m.freeList, frameID)
		return 0, err
	}
	if !ok {
		m.freeList = append(m.freeList, frameID)
		return 0, storage.ErrIO
	}

	frame.PageID = id
	frame.Data = data
	frame.Dirty = false
	frame.IncPin()

	m.pageTable[id] = frameID
	m.replacer.RecordAccess(frameID)
	m.replacer.Pin(frameID)

	slog.Debug(logDebugPrefix+"fetched page from disk", "pageID", id, "frameID", frameID)
	return frameID, nil
}

// FetchPageRead pins page id and returns a read-only guard over it.
func (m *Manager) FetchPageRead(id storage.PageID) (*ReadPageGuard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.fetchLocked(id); err != nil {
		return nil, err
	}
	return newReadPageGuard(m, id), nil
}

// FetchPageWrite pins page id and returns a writable guard over it.
func (m *Manager) FetchPageWrite(id storage.PageID) (*WritePageGuard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.fetchLocked(id); err != nil {
		return nil, err
	}
	return newWritePageGuard(m, id), nil
}

// unpinPage releases one pin on id, optionally marking it dirty. It is a
// no-op if id is not resident - a guard double-release is made harmless by
// the guard's own idempotence, not by this method.
func (m *Manager) unpinPage(id storage.PageID, dirty bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	frameID, ok := m.pageTable[id]
	if !ok {
		return
	}
	frame := m.frames[frameID]
	if dirty {
		frame.Dirty = true
	}
	frame.DecPin()
	if frame.PinCount() == 0 {
		m.replacer.Unpin(frameID)
	}
}

// DeletePage removes page id from the buffer pool and deallocates it on
// disk. It is a no-op if id is not currently resident - a page must be
// fetched before it can be deleted. It panics if the page is currently
// pinned: deleting a page anyone still holds a handle to would leave that
// handle pointing at a frame the pool could hand to someone else.
func (m *Manager) DeletePage(id storage.PageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	frameID, ok := m.pageTable[id]
	if !ok {
		return nil
	}

	frame := m.frames[frameID]
	if frame.PinCount() != 0 {
		panic("bufferpool: cannot delete a pinned page")
	}

	m.replacer.Unpin(frameID)
	m.replacer.Remove(frameID)
	delete(m.pageTable, id)
	m.freeList = append(m.freeList, frameID)
	frame.Reset()

	slog.Debug(logDebugPrefix+"deleted page", "pageID", id)
	return m.disk.DeallocatePage(id)
}
