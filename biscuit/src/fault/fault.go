// Package fault is the page-fault handler (component J): given a
// faulting virtual address, it tries the supplementary page table, then
// stack growth, then the mmap table, in that order, and maps a freshly
// populated page on the first one that claims the address. Grounded
// directly on the original's trap::pagefault::handler/spt_handler/
// stack_growth_handler/mmap_handler, generalized from its riscv::register
// trap plumbing to the PageTable/FramePool/PhysMem collaborator
// interfaces package vm already defines.
package fault

import (
	"fmt"

	"golang.org/x/arch/riscv64/riscv64asm"

	"defs"
	"limits"
	"mem"
	"vm"
)

/// Kind distinguishes the access that faulted, used only for the debug
/// log line; the servicing logic itself doesn't depend on it.
type Kind int

const (
	Load Kind = iota
	Store
	Instruction
)

func (k Kind) String() string {
	switch k {
	case Load:
		return "reading"
	case Store:
		return "writing"
	case Instruction:
		return "fetching instruction"
	default:
		return "?"
	}
}

/// Privilege is the mode the faulting access ran in.
type Privilege int

const (
	User Privilege = iota
	Supervisor
)

/// Context bundles the collaborators the handler needs: the faulting
/// address space, the physical memory and swap backing, the current
/// user stack pointer (for the stack-growth check), the faulting
/// thread's tid (recorded as the new frame's owner), and an optional
/// frame table to record ownership in. Frames may be nil (proc.Exec's
/// argv-build context leaves it unset); no ownership is recorded then.
type Context struct {
	AS     *vm.AddrSpace
	Phys   vm.PhysMem
	Swap   *vm.SwapPool
	UserSP mem.Va_t
	Owner  defs.Tid_t
	Frames *vm.FrameTable
}

// takeUserPage meters one physical user frame against the system-wide
// pool limit (spec.md §1's UserPool, accounted the way the teacher's
// Syslimit.Userpages gates every physical allocation). Call sites that
// fail the check must give back the frame they already pulled from
// the FramePool collaborator.
func takeUserPage() bool {
	return limits.Syslimit.Userpages.Take()
}

// own records pa's new owner in the frame table, if one is attached to
// ctx (component I's frame table, spec.md §3).
func own(ctx *Context, pa mem.Pa_t, va mem.Va_t, flags mem.PTEFlags) {
	if ctx.Frames == nil {
		return
	}
	ctx.Frames.Set(pa, &vm.FrameInfo{Owner: ctx.Owner, Va: va, Flags: flags})
}

// sptHandler services a fault inside a supplementary-page-table region:
// one page is read from swap at the region's offset, zero-padded, and
// mapped with the region's flags plus V|A.
func sptHandler(ctx *Context, va mem.Va_t) bool {
	e, ok := ctx.AS.FindSPT(va)
	if !ok {
		return false
	}
	faultPage := mem.Va_t(mem.Floor(int(va)))
	pos := e.Offset + mem.Floor(int(va)-int(e.Va))
	pa, ok := ctx.AS.Frames.Alloc()
	if !ok {
		return false
	}
	if !takeUserPage() {
		ctx.AS.Frames.Free(pa)
		return false
	}
	buf := make([]uint8, mem.PG_SIZE)
	ctx.Swap.ReadPage(pos, buf)
	ctx.Phys.WritePage(pa, buf)
	flags := e.Flags | mem.V | mem.A
	ctx.AS.PT.Map(faultPage, pa, flags)
	ctx.AS.PT.Activate()
	own(ctx, pa, faultPage, flags)
	return true
}

// stackGrowthHandler services a fault within [STACK_TOP-STACK_LIMIT,
// STACK_TOP) at or above the current user stack pointer by allocating
// one fresh, zeroed page and mapping it V|R|W|U.
func stackGrowthHandler(ctx *Context, va mem.Va_t, stackTop, stackLimit mem.Va_t) bool {
	if va >= stackTop || va < stackTop-stackLimit || va < ctx.UserSP {
		return false
	}
	faultPage := mem.Va_t(mem.Floor(int(va)))
	pa, ok := ctx.AS.Frames.Alloc()
	if !ok {
		return false
	}
	if !takeUserPage() {
		ctx.AS.Frames.Free(pa)
		return false
	}
	ctx.Phys.WritePage(pa, make([]uint8, mem.PG_SIZE))
	flags := mem.V | mem.R | mem.W | mem.U
	ctx.AS.PT.Map(faultPage, pa, flags)
	ctx.AS.PT.Activate()
	own(ctx, pa, faultPage, flags)
	return true
}

// mmapHandler services a fault inside a file-backed mmap region: up to
// one page is read from the backing file at the mapping's offset,
// clamped to filesize, zero-padded, and mapped with the region's flags
// plus V|A.
func mmapHandler(ctx *Context, va mem.Va_t) bool {
	m, ok := ctx.AS.FindMap(va)
	if !ok {
		return false
	}
	faultPage := mem.Va_t(mem.Floor(int(va)))
	pos := mem.Floor(int(va) - int(m.Va))
	pa, ok := ctx.AS.Frames.Alloc()
	if !ok {
		return false
	}
	if !takeUserPage() {
		ctx.AS.Frames.Free(pa)
		return false
	}
	limit := m.Filesize - pos
	if limit > mem.PG_SIZE {
		limit = mem.PG_SIZE
	}
	buf := make([]uint8, mem.PG_SIZE)
	if limit > 0 {
		if err := m.File.Seek(m.Offset + pos); err != 0 {
			ctx.AS.Frames.Free(pa)
			limits.Syslimit.Userpages.Give()
			return false
		}
		n, _ := m.File.Read(buf[:limit])
		_ = n
	}
	ctx.Phys.WritePage(pa, buf)
	flags := m.Flags | mem.V | mem.A
	ctx.AS.PT.Map(faultPage, pa, flags)
	ctx.AS.PT.Activate()
	own(ctx, pa, faultPage, flags)
	return true
}

/// Handle runs the SPT/stack-growth/mmap dispatch for a !present fault
/// at va, in the order spec.md §4.10 fixes: SPT, then stack growth,
/// then mmap. It reports whether one of them serviced the fault.
func Handle(ctx *Context, va mem.Va_t, stackTop, stackLimit mem.Va_t) bool {
	return sptHandler(ctx, va) ||
		stackGrowthHandler(ctx, va, stackTop, stackLimit) ||
		mmapHandler(ctx, va)
}

/// Outcome is what the caller of a simulated trap should do next.
type Outcome int

const (
	Serviced Outcome = iota
	KillProcess
	KernelPanic
)

/// Dispatch mirrors the original's handler(): checks whether the PTE is
/// already present (nothing to do), otherwise tries Handle, and
/// classifies the result per spec.md §4.10 item 4 — a user-mode fault
/// that nothing claims kills the process with exit code -1; the same
/// in supervisor mode is a kernel bug.
func Dispatch(ctx *Context, va mem.Va_t, kind Kind, priv Privilege, stackTop, stackLimit mem.Va_t) Outcome {
	if _, _, present := ctx.AS.PT.GetPTE(va); present {
		return Serviced
	}
	if Handle(ctx, va, stackTop, stackLimit) {
		return Serviced
	}
	if priv == User {
		return KillProcess
	}
	return KernelPanic
}

/// PanicMessage formats the diagnostic the kernel prints before it
/// panics on an unhandled supervisor-mode fault, grounded on the
/// original's kprintln! in trap::pagefault::handler. When the bytes at
/// the faulting instruction are available it disassembles them first,
/// the host-portable analogue of the kernel dumping raw opcode bytes
/// at a real crash.
func PanicMessage(va mem.Va_t, kind Kind, faultingInstr []byte) string {
	msg := fmt.Sprintf("kernel page fault at %#x: %s, not present and unclaimed", va, kind)
	if len(faultingInstr) == 0 {
		return msg
	}
	inst, err := riscv64asm.Decode(faultingInstr)
	if err != nil {
		return msg + fmt.Sprintf(" (instruction bytes %x, undecodable: %v)", faultingInstr, err)
	}
	return msg + fmt.Sprintf(" (instruction: %s)", inst.String())
}
