// Package uaccess is the safe user-pointer access primitive (component
// L). A real kernel embeds two labelled instructions in a tiny assembly
// routine and has the page-fault handler rewrite the trap PC if the
// access faults (spec.md §4.12, grounded on the original's
// __knrl_read_usr_byte_pc/__knrl_read_usr_exit pair in
// mem::userbuf.rs). Go has no inline assembly and no portable way to
// recognize "the PC was inside this routine" from a signal handler, so
// this core takes the approach its own teacher repo already uses for
// the identical problem in vm.Userdmap8_inner: proactively resolve the
// PTE through the same dispatch the page-fault handler (package fault)
// uses, rather than waiting to be trapped into. See DESIGN.md.
package uaccess

import (
	"defs"
	"fault"
	"mem"
	"vm"
)

/// ReadByte reads one byte from user virtual address p in as, servicing
/// a missing mapping via fault.Handle exactly as a real fault would,
/// and refusing outright any address at or above the kernel/user split.
func ReadByte(as *vm.AddrSpace, ctx *fault.Context, p mem.Va_t, stackTop, stackLimit mem.Va_t) (uint8, defs.Err_t) {
	_, pa, off, err := resolve(as, ctx, p, stackTop, stackLimit)
	if err != defs.Err_t(0) {
		return 0, err
	}
	page := ctx.Phys.ReadPage(pa)
	return page[off], 0
}

/// WriteByte writes one byte to user virtual address p in as, with the
/// same refusal and fault-servicing rules as ReadByte. A real MMU sets
/// the PTE's dirty bit on a store; nothing here traps hardware stores,
/// so this path sets it explicitly once the write has happened, which is
/// what lets munmap (spec.md §4.11) know to flush the page back to its
/// backing file.
func WriteByte(as *vm.AddrSpace, ctx *fault.Context, p mem.Va_t, v uint8, stackTop, stackLimit mem.Va_t) defs.Err_t {
	flags, pa, off, err := resolve(as, ctx, p, stackTop, stackLimit)
	if err != defs.Err_t(0) {
		return err
	}
	page := ctx.Phys.ReadPage(pa)
	page[off] = v
	ctx.Phys.WritePage(pa, page)
	if flags&mem.D == 0 {
		faultPage := mem.Va_t(mem.Floor(int(p)))
		as.PT.Unmap(faultPage)
		as.PT.Map(faultPage, pa, flags|mem.D)
		as.PT.Activate()
	}
	return 0
}

func resolve(as *vm.AddrSpace, ctx *fault.Context, p mem.Va_t, stackTop, stackLimit mem.Va_t) (mem.PTEFlags, mem.Pa_t, int, defs.Err_t) {
	if !mem.IsUserVA(p) {
		return 0, 0, 0, defs.EFAULT
	}
	flags, pa, present := as.PT.GetPTE(p)
	if !present {
		if !fault.Handle(ctx, p, stackTop, stackLimit) {
			return 0, 0, 0, defs.EFAULT
		}
		flags, pa, present = as.PT.GetPTE(p)
		if !present {
			return 0, 0, 0, defs.EFAULT
		}
	}
	if flags&mem.U == 0 {
		return 0, 0, 0, defs.EFAULT
	}
	return flags, pa, int(p) & mem.PGOFFSET, 0
}

/// ReadUsize composes byte reads little-endian into a machine word, the
/// building block the syscall dispatcher uses to fetch argv pointers
/// and similar word-sized user data (spec.md §4.12).
func ReadUsize(as *vm.AddrSpace, ctx *fault.Context, p mem.Va_t, stackTop, stackLimit mem.Va_t) (uint, defs.Err_t) {
	var v uint
	for i := 0; i < 8; i++ {
		b, err := ReadByte(as, ctx, p+mem.Va_t(i), stackTop, stackLimit)
		if err != 0 {
			return 0, err
		}
		v |= uint(b) << (8 * uint(i))
	}
	return v, 0
}

/// WriteUsize composes byte writes little-endian from a machine word.
func WriteUsize(as *vm.AddrSpace, ctx *fault.Context, p mem.Va_t, v uint, stackTop, stackLimit mem.Va_t) defs.Err_t {
	for i := 0; i < 8; i++ {
		b := uint8(v >> (8 * uint(i)))
		if err := WriteByte(as, ctx, p+mem.Va_t(i), b, stackTop, stackLimit); err != 0 {
			return err
		}
	}
	return 0
}

/// ReadBytes reads n bytes starting at p into a freshly allocated
/// slice, failing the whole operation if any byte is unreadable — the
/// building block OPEN/WRITE argument validation uses for buffers.
func ReadBytes(as *vm.AddrSpace, ctx *fault.Context, p mem.Va_t, n int, stackTop, stackLimit mem.Va_t) ([]uint8, defs.Err_t) {
	buf := make([]uint8, n)
	for i := 0; i < n; i++ {
		b, err := ReadByte(as, ctx, p+mem.Va_t(i), stackTop, stackLimit)
		if err != 0 {
			return nil, err
		}
		buf[i] = b
	}
	return buf, 0
}

/// WriteBytes writes buf starting at p, failing the whole operation if
/// any byte is unwritable.
func WriteBytes(as *vm.AddrSpace, ctx *fault.Context, p mem.Va_t, buf []uint8, stackTop, stackLimit mem.Va_t) defs.Err_t {
	for i, b := range buf {
		if err := WriteByte(as, ctx, p+mem.Va_t(i), b, stackTop, stackLimit); err != 0 {
			return err
		}
	}
	return 0
}

/// ReadCString reads a NUL-terminated string starting at p, failing if
/// any byte is unreadable or the string exceeds maxlen bytes
/// (spec.md §4.13: "strings are null-terminated and validated
/// byte-by-byte while copying").
func ReadCString(as *vm.AddrSpace, ctx *fault.Context, p mem.Va_t, maxlen int, stackTop, stackLimit mem.Va_t) (string, defs.Err_t) {
	buf := make([]uint8, 0, 64)
	for i := 0; i < maxlen; i++ {
		b, err := ReadByte(as, ctx, p+mem.Va_t(i), stackTop, stackLimit)
		if err != 0 {
			return "", err
		}
		if b == 0 {
			return string(buf), 0
		}
		buf = append(buf, b)
	}
	return "", defs.ENAMETOOLONG
}
