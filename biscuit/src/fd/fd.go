// Package fd implements the per-thread file descriptor table (component
// N): fd allocation, lookup by fd for the syscall dispatcher, and close.
// Grounded on the teacher's Fd_t/Cwd_t shape, dropped down to what this
// core's syscall surface needs. Console fds (0/1/2) are special-cased by
// the syscall dispatcher and are never stored as table entries; there is
// no working directory here, since this core has no path-resolving
// filesystem of its own to resolve one against (ustr.Ustr/bpath, the
// teacher's path-canonicalization helpers Cwd_t depended on, have no
// role without one).
package fd

import (
	"sync"

	"fs"
)

/// File descriptor permission bits, matching the OPEN flag semantics at
/// the syscall boundary.
const (
	FD_READ  = 0x1
	FD_WRITE = 0x2
)

/// Fd_t is one open file descriptor: the disk file it names and the
/// permission bits OPEN was called with.
type Fd_t struct {
	File  fs.File
	Perms int
}

/// Copyfd duplicates an existing descriptor, kept for parity with the
/// teacher's Copyfd though this core's syscall surface has no dup call.
func Copyfd(f *Fd_t) *Fd_t {
	nf := &Fd_t{}
	*nf = *f
	return nf
}

/// FDTable is a thread's fd -> Fd_t mapping. Guarded by a plain mutex:
/// per-thread tables are conceptually sleep-lock guarded (§5), but in
/// this core's cooperative scheduling model only the owning thread's
/// goroutine ever reaches into its own table, so the donation machinery
/// a sleep lock provides has nothing to donate to here (see
/// vm.AddrSpace for the same reasoning, and DESIGN.md).
type FDTable struct {
	mu  sync.Mutex
	fds map[int]*Fd_t
}

/// NewFDTable returns an empty table.
func NewFDTable() *FDTable {
	return &FDTable{fds: make(map[int]*Fd_t)}
}

/// Open installs f under a freshly allocated fd and returns it. The
/// allocation rule is max(2, max existing fd) + 1, recomputed from the
/// live table on every call, so closing the current top fd frees it for
/// immediate reuse by the next Open (matching the original's fdlist.rs).
func (t *FDTable) Open(f *Fd_t) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	nfd := 2
	for fdn := range t.fds {
		if fdn > nfd {
			nfd = fdn
		}
	}
	nfd++
	t.fds[nfd] = f
	return nfd
}

/// Get returns the descriptor for fd, if any is open there.
func (t *FDTable) Get(fdn int) (*Fd_t, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f, ok := t.fds[fdn]
	return f, ok
}

/// Close removes fd from the table, reporting whether it was open.
func (t *FDTable) Close(fdn int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.fds[fdn]; !ok {
		return false
	}
	delete(t.fds, fdn)
	return true
}
