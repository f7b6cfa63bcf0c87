package bufferpool

import (
	"sync/atomic"

	"github.com/novadb/storage/internal/storage"
)

// ReadPageGuard is a scoped, read-only handle on a pinned page. It stores
// only the owning Manager and the PageID - never a pointer into frame
// memory - and resolves the frame through the Manager on every access, so
// the only thing keeping that memory valid is the pin, never an address
// cached ahead of time.
type ReadPageGuard struct {
	bpm      *Manager
	pageID   storage.PageID
	released atomic.Bool
}

func newReadPageGuard(bpm *Manager, id storage.PageID) *ReadPageGuard {
	return &ReadPageGuard{bpm: bpm, pageID: id}
}

// PageID returns the page this guard is pinning.
func (g *ReadPageGuard) PageID() storage.PageID {
	return g.pageID
}

// Data returns the page's raw bytes. The returned pointer is only valid until
// Release is called.
func (g *ReadPageGuard) Data() *[storage.PageSize]byte {
	g.bpm.mu.Lock()
	defer g.bpm.mu.Unlock()
	frameID := g.bpm.pageTable[g.pageID]
	return &g.bpm.frames[frameID].Data
}

// TablePage returns a slotted-page view over this guard's bytes.
func (g *ReadPageGuard) TablePage() *storage.TablePage {
	return storage.NewTablePage(g.Data())
}

// Release unpins the page. Safe to call more than once; only the first
// call has any effect.
func (g *ReadPageGuard) Release() {
	if g.released.Swap(true) {
		return
	}
	g.bpm.unpinPage(g.pageID, false)
}

// WritePageGuard is a scoped, read-write handle on a pinned page. Release
// always marks the page dirty, since the caller held write access to it.
type WritePageGuard struct {
	bpm      *Manager
	pageID   storage.PageID
	released atomic.Bool
}

func newWritePageGuard(bpm *Manager, id storage.PageID) *WritePageGuard {
	return &WritePageGuard{bpm: bpm, pageID: id}
}

// PageID returns the page this guard is pinning.
func (g *WritePageGuard) PageID() storage.PageID {
	return g.pageID
}

// Data returns the page's raw bytes for in-place mutation. The returned
// pointer is only valid until Release is called.
func (g *WritePageGuard) Data() *[storage.PageSize]byte {
	g.bpm.mu.Lock()
	defer g.bpm.mu.Unlock()
	frameID := g.bpm.pageTable[g.pageID]
	return &g.bpm.frames[frameID].Data
}

// TablePage returns a slotted-page view over this guard's bytes.
func (g *WritePageGuard) TablePage() *storage.TablePage {
	return storage.NewTablePage(g.Data())
}

// Release unpins the page and marks it dirty. Safe to call more than once;
// only the first call has any effect.
func (g *WritePageGuard) Release() {
	if g.released.Swap(true) {
		return
	}
	g.bpm.unpinPage(g.pageID, true)
}
