// Package vm holds the supplementary page table, mmap table, frame
// table, and swap pool — the bookkeeping the page-fault handler (package
// fault) consults to decide how to service a fault. The raw page-table
// walk/install primitives and the physical-frame allocator are external
// collaborators (PageTable, FramePool below); this core only specifies
// how it calls them, grounded on the shape of the teacher's Vm_t in
// as.go (Lock_pmap-protected page table, Pmaps map, user region
// bookkeeping) generalized from its x86 Pmap_t to the interface seam
// below.
package vm

import (
	"sync"

	"defs"
	"fs"
	"mem"
)

/// PageTable is the raw page-table walk/install mechanics this core
/// treats as an external collaborator (spec's "page-table MMU
/// mechanics": map, get_pte, activate, clone of kernel mappings).
type PageTable interface {
	GetPTE(va mem.Va_t) (flags mem.PTEFlags, pa mem.Pa_t, present bool)
	Map(va mem.Va_t, pa mem.Pa_t, flags mem.PTEFlags) bool
	Unmap(va mem.Va_t)
	Activate()
}

/// FramePool is the physical user-frame allocator this core treats as an
/// external collaborator (spec's "UserPool::alloc_pages/dealloc_pages").
type FramePool interface {
	Alloc() (mem.Pa_t, bool)
	Free(pa mem.Pa_t)
}

/// SPTEntry describes a region loaded on first touch from the swap file
/// (component I: supplementary page table).
type SPTEntry struct {
	Va      mem.Va_t
	Offset  int
	Memsize int
	Flags   mem.PTEFlags
}

/// Contains reports whether va falls within this entry's range.
func (e *SPTEntry) Contains(va mem.Va_t) bool {
	end := mem.Va_t(mem.CeilPage(int(e.Va) + e.Memsize))
	return va >= e.Va && va < end
}

/// MapInfo describes an mmap region backed by a user file.
type MapInfo struct {
	Mapid    defs.Mapid_t
	File     fs.File
	Offset   int
	Va       mem.Va_t
	Filesize int
	Memsize  int
	Flags    mem.PTEFlags
}

/// Contains reports whether va falls within this mapping's range.
func (m *MapInfo) Contains(va mem.Va_t) bool {
	end := mem.Va_t(mem.CeilPage(int(m.Va) + m.Memsize))
	return va >= m.Va && va < end
}

/// AddrSpace is one thread's virtual-memory state: the page table handle,
/// the frame allocator it draws from, its supplementary page table, and
/// its mmap table. Guarded by a plain mutex rather than the donation-
/// aware sleep lock package §5 names for per-thread tables — only the
/// owning thread's goroutine ever touches its own AddrSpace in this
/// core's cooperative scheduling model, so the donation machinery a
/// sleep lock provides has no one to donate to here; see DESIGN.md.
type AddrSpace struct {
	mu        sync.Mutex
	PT        PageTable
	Frames    FramePool
	spt       []*SPTEntry
	maps      []*MapInfo
	nextMapid defs.Mapid_t
}

/// NewAddrSpace builds an address space over the given page table and
/// frame pool collaborators.
func NewAddrSpace(pt PageTable, frames FramePool) *AddrSpace {
	return &AddrSpace{PT: pt, Frames: frames}
}

/// VaRangeCheck reports whether [l, r) intersects no existing region.
func (as *AddrSpace) VaRangeCheck(l, r mem.Va_t) bool {
	as.mu.Lock()
	defer as.mu.Unlock()
	overlaps := func(a, b mem.Va_t) bool { return l < b && a < r }
	for _, e := range as.spt {
		end := mem.Va_t(mem.CeilPage(int(e.Va) + e.Memsize))
		if overlaps(e.Va, end) {
			return false
		}
	}
	for _, m := range as.maps {
		end := mem.Va_t(mem.CeilPage(int(m.Va) + m.Memsize))
		if overlaps(m.Va, end) {
			return false
		}
	}
	return true
}

/// AddSPT registers a new supplementary-page-table region.
func (as *AddrSpace) AddSPT(va mem.Va_t, offset, memsize int, flags mem.PTEFlags) *SPTEntry {
	e := &SPTEntry{Va: va, Offset: offset, Memsize: memsize, Flags: flags}
	as.mu.Lock()
	as.spt = append(as.spt, e)
	as.mu.Unlock()
	return e
}

/// FindSPT returns the SPT entry containing va, if any.
func (as *AddrSpace) FindSPT(va mem.Va_t) (*SPTEntry, bool) {
	as.mu.Lock()
	defer as.mu.Unlock()
	for _, e := range as.spt {
		if e.Contains(va) {
			return e, true
		}
	}
	return nil, false
}

/// AddMap registers a new mmap region, assigning it mapid = current max + 1
/// (starting at 1 on an empty table).
func (as *AddrSpace) AddMap(file fs.File, offset int, va mem.Va_t, filesize, memsize int, flags mem.PTEFlags) *MapInfo {
	as.mu.Lock()
	defer as.mu.Unlock()
	var mapid defs.Mapid_t
	for _, e := range as.maps {
		if e.Mapid > mapid {
			mapid = e.Mapid
		}
	}
	mapid++
	m := &MapInfo{
		Mapid: mapid, File: file, Offset: offset, Va: va,
		Filesize: filesize, Memsize: memsize, Flags: flags,
	}
	as.maps = append(as.maps, m)
	return m
}

/// FindMap returns the mapping containing va, if any.
func (as *AddrSpace) FindMap(va mem.Va_t) (*MapInfo, bool) {
	as.mu.Lock()
	defer as.mu.Unlock()
	for _, m := range as.maps {
		if m.Contains(va) {
			return m, true
		}
	}
	return nil, false
}

/// MapByID returns the mapping with the given mapid, if any.
func (as *AddrSpace) MapByID(mapid defs.Mapid_t) (*MapInfo, bool) {
	as.mu.Lock()
	defer as.mu.Unlock()
	for _, m := range as.maps {
		if m.Mapid == mapid {
			return m, true
		}
	}
	return nil, false
}

/// RemoveMap drops the mapping with the given mapid.
func (as *AddrSpace) RemoveMap(mapid defs.Mapid_t) {
	as.mu.Lock()
	defer as.mu.Unlock()
	for i, m := range as.maps {
		if m.Mapid == mapid {
			as.maps = append(as.maps[:i], as.maps[i+1:]...)
			return
		}
	}
}
