// Package proc is the process-lifecycle glue binding the scheduler's
// child registry (component G) to the user-process loader (component
// H): loading an executable into a fresh address space, building its
// argv image, spawning the schedulable thread that runs it, and tearing
// down an mmap region on unmap (spec.md §4.11). Grounded on the
// original's userproc::execute and sys_munmap, generalized from a
// single hard-coded x86_64 trap-frame layout to the Frame/Writer seam
// package loader already defines, and from Pmap_t's dirty-bit check to
// the PageTable/PhysMem interfaces package vm exposes.
package proc

import (
	"defs"
	"fault"
	"fd"
	"fs"
	"limits"
	"loader"
	"mem"
	"thread"
	"uaccess"
	"vm"
)

// argvWriter adapts uaccess's byte-range write to loader.Writer so
// BuildArgv can poke the new stack image through the normal
// fault-serviced path, exactly as if a user program were writing its
// own stack for the first time.
type argvWriter struct {
	as         *vm.AddrSpace
	ctx        *fault.Context
	stackTop   mem.Va_t
	stackLimit mem.Va_t
}

func (w *argvWriter) WriteBytes(va mem.Va_t, buf []uint8) defs.Err_t {
	return uaccess.WriteBytes(w.as, w.ctx, va, buf, w.stackTop, w.stackLimit)
}

/// Exec loads file into a fresh address space via ld and builds the
/// argv image on its stack (spec.md §4.8). It does not yet spawn a
/// schedulable thread — see Spawn — so a syscall handler can fail EXEC
/// cleanly (return −1, no side effects) if argv construction overflows
/// MaxArgvBytes, without ever having registered a child.
func Exec(ld loader.Loader, file fs.File, pt vm.PageTable, frames vm.FramePool, phys vm.PhysMem, argv []string) (*vm.AddrSpace, loader.Frame, defs.Err_t) {
	img, err := ld.Load(file, pt)
	if err != 0 {
		return nil, loader.Frame{}, err
	}
	as := vm.NewAddrSpace(pt, frames)
	ctx := &fault.Context{AS: as, Phys: phys, UserSP: img.InitSP}
	w := &argvWriter{as: as, ctx: ctx, stackTop: thread.STACK_TOP, stackLimit: thread.STACK_LIMIT}
	frame, err := loader.BuildArgv(w, img.InitSP, img.EntryPoint, argv)
	if err != 0 {
		return nil, loader.Frame{}, err
	}
	return as, frame, 0
}

/// Spawn registers a child thread of parent that owns as and a fresh fd
/// table, and runs body once dispatched. body stands in for the real
/// trap-return-to-user-mode this core treats as an external
/// collaborator (spec.md §1): callers pass the installed Frame through
/// so body can observe argc/argv/entry exactly as a real resumed user
/// program would via a0/a1/sepc.
func Spawn(parent *thread.Thread, as *vm.AddrSpace, name string, prio uint32, frame loader.Frame, body func(loader.Frame)) *thread.Thread {
	t := thread.SpawnChild(parent, name, prio, func() { body(frame) })
	t.AS = as
	t.FDs = fd.NewFDTable()
	t.UserSP = frame.SP
	return t
}

/// Munmap tears down the mapping identified by mapid (spec.md §4.11):
/// for every page in its range, write back the page to the backing file
/// if its PTE is valid and dirty, free the physical frame, and
/// invalidate the PTE; then activate the page table and remove the
/// MapInfo. Returns defs.EINVAL if mapid names no live mapping in as.
/// ft is the frame table (component I) ownership records are dropped
/// from as each page is freed; nil is accepted when no frame table is
/// attached (unit tests that don't care about ownership bookkeeping).
func Munmap(as *vm.AddrSpace, frames vm.FramePool, phys vm.PhysMem, ft *vm.FrameTable, mapid defs.Mapid_t) defs.Err_t {
	m, ok := as.MapByID(mapid)
	if !ok {
		return defs.EINVAL
	}
	npages := mem.PageRound(m.Memsize) / mem.PG_SIZE
	for i := 0; i < npages; i++ {
		va := m.Va + mem.Va_t(i*mem.PG_SIZE)
		flags, pa, present := as.PT.GetPTE(va)
		if !present {
			continue
		}
		if flags&mem.D != 0 {
			pos := i * mem.PG_SIZE
			limit := m.Filesize - pos
			if limit > mem.PG_SIZE {
				limit = mem.PG_SIZE
			}
			if limit > 0 {
				if err := m.File.Seek(m.Offset + pos); err != 0 {
					return err
				}
				buf := phys.ReadPage(pa)
				if _, err := m.File.Write(buf[:limit]); err != 0 {
					return err
				}
			}
		}
		as.PT.Unmap(va)
		frames.Free(pa)
		limits.Syslimit.Userpages.Give()
		if ft != nil {
			ft.Clear(pa)
		}
	}
	as.PT.Activate()
	as.RemoveMap(mapid)
	return 0
}
