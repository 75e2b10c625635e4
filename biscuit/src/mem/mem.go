// Package mem holds the page-size constants and sv32/sv39-style PTE flag
// bits shared by every component that reasons about virtual memory. The
// physical-frame allocator and the page-table MMU mechanics themselves
// (UserPool, Pmap_t, Physmem) are external collaborators per the kernel
// core's scope and are not modeled here; this package only carries the
// numeric vocabulary those collaborators and this core agree on.
package mem

import "util"

/// PG_SHIFT is the base-2 exponent for the page size.
const PG_SHIFT uint = 12

/// PG_SIZE is the size of a single page in bytes.
const PG_SIZE int = 1 << PG_SHIFT

/// PGOFFSET masks the in-page offset bits of an address.
const PGOFFSET = PG_SIZE - 1

/// Pa_t is a physical address.
type Pa_t uintptr

/// Va_t is a virtual address.
type Va_t uintptr

/// PTEFlags are the sv32/sv39 leaf-PTE permission and status bits this core
/// cares about. Bit positions follow the RISC-V privileged spec ordering
/// (V, R, W, X, U, G, A, D); the teacher's x86-style PTE_P/PTE_W/PTE_U bits
/// occupied the same role for a different ISA and are renamed here rather
/// than reused, since spec.md names these flags explicitly (V, R, W, U, A).
type PTEFlags uint

const (
	V PTEFlags = 1 << 0 /// page table entry is valid
	R PTEFlags = 1 << 1 /// page is readable
	W PTEFlags = 1 << 2 /// page is writable
	X PTEFlags = 1 << 3 /// page is executable
	U PTEFlags = 1 << 4 /// page is user-accessible
	G PTEFlags = 1 << 5 /// globally mapped page
	A PTEFlags = 1 << 6 /// page has been accessed
	D PTEFlags = 1 << 7 /// page has been written (dirty)
)

/// Floor rounds va down to the start of its containing page.
func Floor(va int) int {
	return util.Rounddown(va, PG_SIZE)
}

/// CeilPage rounds va up to the start of the next page, unless va is
/// already page-aligned.
func CeilPage(va int) int {
	return util.Roundup(va, PG_SIZE)
}

/// PageRound rounds n up to a whole number of pages.
func PageRound(n int) int {
	return util.Roundup(n, PG_SIZE)
}

/// KERNBASE is the lowest virtual address reserved for the kernel; a
/// safe user-pointer probe (component L) refuses any address at or
/// above it outright, without touching the page table at all.
const KERNBASE Va_t = 1 << 38

/// IsUserVA reports whether va lies below the kernel/user split.
func IsUserVA(va Va_t) bool {
	return va < KERNBASE
}
