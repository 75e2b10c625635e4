package vm

import (
	"sync"

	"defs"
	"mem"
)

/// FrameInfo records who a physical frame is mapped for, grounded on the
/// spec's frame-table entry shape. Owner is the thread's tid rather than
/// a thread handle: package vm sits below package thread in this
/// module's layering (thread embeds *AddrSpace), so a frame can only
/// name its owner by value, not by reference.
type FrameInfo struct {
	Owner defs.Tid_t
	Va    mem.Va_t
	Flags mem.PTEFlags
}

/// FrameTable is the array of FrameInfo slots indexed by physical frame
/// number within the user pool, plus a FIFO of in-use indices kept as a
/// hook for a future eviction policy (none is implemented; the swap
/// pool and SPT loader in this core never reclaim a live frame).
type FrameTable struct {
	mu     sync.Mutex
	base   mem.Pa_t
	frames []*FrameInfo
	fifo   []int
}

/// NewFrameTable allocates a table covering n frames starting at base.
func NewFrameTable(base mem.Pa_t, n int) *FrameTable {
	return &FrameTable{base: base, frames: make([]*FrameInfo, n)}
}

/// index computes the frame-table slot for a physical address.
func (ft *FrameTable) index(pa mem.Pa_t) int {
	return int((pa - ft.base) >> mem.PG_SHIFT)
}

/// Set installs fi as the owner record for pa.
func (ft *FrameTable) Set(pa mem.Pa_t, fi *FrameInfo) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	idx := ft.index(pa)
	if ft.frames[idx] == nil {
		ft.fifo = append(ft.fifo, idx)
	}
	ft.frames[idx] = fi
}

/// Get returns the owner record for pa, if any.
func (ft *FrameTable) Get(pa mem.Pa_t) (*FrameInfo, bool) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	fi := ft.frames[ft.index(pa)]
	return fi, fi != nil
}

/// Clear removes the owner record for pa.
func (ft *FrameTable) Clear(pa mem.Pa_t) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	idx := ft.index(pa)
	ft.frames[idx] = nil
	for i, v := range ft.fifo {
		if v == idx {
			ft.fifo = append(ft.fifo[:i], ft.fifo[i+1:]...)
			break
		}
	}
}
