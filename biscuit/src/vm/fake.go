package vm

import (
	"sync"

	"mem"
)

/// FakePageTable is a host-portable stand-in for the real sv32/sv39 page
/// table this core treats as an external collaborator. It is a plain map
/// from virtual to physical address plus flags — enough for the
/// page-fault handler and syscall dispatcher to exercise against in
/// tests without real MMU hardware.
type FakePageTable struct {
	mu   sync.Mutex
	ptes map[mem.Va_t]fakePTE
}

type fakePTE struct {
	pa    mem.Pa_t
	flags mem.PTEFlags
}

/// NewFakePageTable returns an empty page table.
func NewFakePageTable() *FakePageTable {
	return &FakePageTable{ptes: make(map[mem.Va_t]fakePTE)}
}

func (pt *FakePageTable) GetPTE(va mem.Va_t) (mem.PTEFlags, mem.Pa_t, bool) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	va = mem.Va_t(mem.Floor(int(va)))
	e, ok := pt.ptes[va]
	if !ok || e.flags&mem.V == 0 {
		return 0, 0, false
	}
	return e.flags, e.pa, true
}

func (pt *FakePageTable) Map(va mem.Va_t, pa mem.Pa_t, flags mem.PTEFlags) bool {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	va = mem.Va_t(mem.Floor(int(va)))
	if e, ok := pt.ptes[va]; ok && e.flags&mem.V != 0 {
		return false
	}
	pt.ptes[va] = fakePTE{pa: pa, flags: flags}
	return true
}

func (pt *FakePageTable) Unmap(va mem.Va_t) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	delete(pt.ptes, mem.Va_t(mem.Floor(int(va))))
}

func (pt *FakePageTable) Activate() {}

/// FakeFramePool is a host-portable stand-in for the physical user-frame
/// allocator. Freed frames are handed out again first, most recently
/// freed first; otherwise it hands out fresh fake physical addresses in
/// increasing order up to a configured limit.
type FakeFramePool struct {
	mu    sync.Mutex
	base  mem.Pa_t
	limit int
	next  int
	free  []mem.Pa_t
}

/// NewFakeFramePool returns a pool of limit frames starting at base.
func NewFakeFramePool(base mem.Pa_t, limit int) *FakeFramePool {
	return &FakeFramePool{base: base, limit: limit}
}

func (fp *FakeFramePool) Alloc() (mem.Pa_t, bool) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	if n := len(fp.free); n > 0 {
		pa := fp.free[n-1]
		fp.free = fp.free[:n-1]
		return pa, true
	}
	if fp.next >= fp.limit {
		return 0, false
	}
	pa := fp.base + mem.Pa_t(fp.next*mem.PG_SIZE)
	fp.next++
	return pa, true
}

func (fp *FakeFramePool) Free(pa mem.Pa_t) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.free = append(fp.free, pa)
}

/// PhysMem is the byte-addressable physical memory this core treats as
/// an external collaborator alongside the frame allocator: something
/// has to actually hold the bytes a mapped page contains. Real hardware
/// backs this with DRAM at the frame's physical address; FakePhysMem
/// below backs it with a plain Go map for tests and the boot demo.
type PhysMem interface {
	ReadPage(pa mem.Pa_t) []uint8
	WritePage(pa mem.Pa_t, buf []uint8)
}

/// FakePhysMem is a host-portable stand-in for physical DRAM: one
/// PG_SIZE byte slice per allocated frame.
type FakePhysMem struct {
	mu    sync.Mutex
	pages map[mem.Pa_t][]uint8
}

/// NewFakePhysMem returns an empty physical memory backing.
func NewFakePhysMem() *FakePhysMem {
	return &FakePhysMem{pages: make(map[mem.Pa_t][]uint8)}
}

/// ReadPage returns a copy of the PG_SIZE bytes stored at pa, or a
/// zero-filled page if nothing has been written there yet.
func (m *FakePhysMem) ReadPage(pa mem.Pa_t) []uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]uint8, mem.PG_SIZE)
	if p, ok := m.pages[pa]; ok {
		copy(buf, p)
	}
	return buf
}

/// WritePage stores exactly PG_SIZE bytes of buf at pa, zero-padding a
/// short buffer.
func (m *FakePhysMem) WritePage(pa mem.Pa_t, buf []uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := make([]uint8, mem.PG_SIZE)
	copy(p, buf)
	m.pages[pa] = p
}
