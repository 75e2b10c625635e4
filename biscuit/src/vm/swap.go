package vm

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"limits"
	"mem"
)

/// SwapPool is the backing store for demand-paged and evicted memory: a
/// single file (the teacher's disk-backed pools use the same single-
/// backing-file shape, see fs/disk/swap.rs in the original this core was
/// distilled from) plus a LIFO free-list of page-aligned byte positions.
/// Reads and writes go through golang.org/x/sys/unix.Pread/Pwrite so each
/// transfer is an exact, unbuffered PG_SIZE access at a page-aligned
/// offset, matching the byte-exact access the original specifies instead
/// of the buffered os.File.Read/Write this core's host otherwise offers.
type SwapPool struct {
	mu      sync.Mutex
	f       *os.File
	free    []int
	fileLen int
}

/// OpenSwapPool opens the swap backing file at path, which must already
/// exist and have a page-aligned length; the free-list is seeded with
/// every page-aligned position in the file.
func OpenSwapPool(path string) (*SwapPool, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	n := int(fi.Size())
	if n%mem.PG_SIZE != 0 {
		f.Close()
		return nil, fmt.Errorf("swap file %s length %d not page-aligned", path, n)
	}
	sp := &SwapPool{f: f, fileLen: n}
	for pos := n - mem.PG_SIZE; pos >= 0; pos -= mem.PG_SIZE {
		sp.free = append(sp.free, pos)
	}
	limits.Syslimit.Swappages = limits.Sysatomic_t(len(sp.free))
	return sp, nil
}

/// NewPage pops one page-aligned position off the free-list, metered
/// against the system-wide swap-page limit the same way the teacher's
/// own swap allocator gates against Syslimit.Swappages.
func (sp *SwapPool) NewPage() (int, bool) {
	if !limits.Syslimit.Swappages.Take() {
		return 0, false
	}
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if len(sp.free) == 0 {
		limits.Syslimit.Swappages.Give()
		return 0, false
	}
	n := len(sp.free) - 1
	pos := sp.free[n]
	sp.free = sp.free[:n]
	return pos, true
}

/// PushPage returns a page-aligned position to the free-list.
func (sp *SwapPool) PushPage(pos int) {
	sp.mu.Lock()
	sp.free = append(sp.free, pos)
	sp.mu.Unlock()
	limits.Syslimit.Swappages.Give()
}

/// ReadPage reads exactly PG_SIZE bytes at pos into buf.
func (sp *SwapPool) ReadPage(pos int, buf []uint8) {
	if pos < 0 || pos >= sp.fileLen {
		panic("swap read out of range")
	}
	n, err := unix.Pread(int(sp.f.Fd()), buf[:mem.PG_SIZE], int64(pos))
	if err != nil || n != mem.PG_SIZE {
		panic(fmt.Sprintf("swap read at %d failed: %v", pos, err))
	}
}

/// WritePage writes exactly PG_SIZE bytes from buf at pos.
func (sp *SwapPool) WritePage(pos int, buf []uint8) {
	if pos < 0 || pos >= sp.fileLen {
		panic("swap write out of range")
	}
	n, err := unix.Pwrite(int(sp.f.Fd()), buf[:mem.PG_SIZE], int64(pos))
	if err != nil || n != mem.PG_SIZE {
		panic(fmt.Sprintf("swap write at %d failed: %v", pos, err))
	}
}

/// Close releases the backing file.
func (sp *SwapPool) Close() error {
	return sp.f.Close()
}
