// Package loader is the user-process loader glue (component H): it
// calls out to the external ELF-style loader (out of scope per
// spec.md §1) and builds the argv image on the new process's user
// stack. Grounded on the original's userproc::execute, generalized
// from its x86_64/riscv asm frame-poking into the Loader/Frame seam
// below so this core can exercise the same argv-layout logic without a
// real loader or a real trap frame.
package loader

import (
	"defs"
	"fs"
	"mem"
	"vm"
)

/// Image is what an external ELF-style loader hands back after
/// mapping a program into a fresh address space: the entry point and
/// the initial (pre-argv) stack pointer, both already page-backed.
type Image struct {
	EntryPoint mem.Va_t
	InitSP     mem.Va_t
}

/// Loader is the `load_executable` collaborator this core treats as an
/// external dependency (spec.md §1): given an open file and a fresh
/// page table, it maps the program image and returns where it starts.
type Loader interface {
	Load(file fs.File, pt vm.PageTable) (Image, defs.Err_t)
}

/// FakeLoader is a deterministic stand-in for a real ELF-style loader,
/// used by tests and the boot demo: it maps one page at a fixed user
/// entry address and reports a fixed initial stack pointer, without
/// reading the file's actual contents.
type FakeLoader struct {
	Frames  vm.FramePool
	Phys    vm.PhysMem
	EntryVA mem.Va_t
	StackVA mem.Va_t
}

/// Load satisfies Loader by mapping one zero-filled page at EntryVA
/// with V|R|X|U and one at StackVA-PG_SIZE with V|R|W|U, exactly
/// enough for the argv/S5/S6 scenario tests to exercise the load ->
/// argv -> run path without a real ELF image.
func (l *FakeLoader) Load(file fs.File, pt vm.PageTable) (Image, defs.Err_t) {
	textPA, ok := l.Frames.Alloc()
	if !ok {
		return Image{}, defs.ENOMEM
	}
	l.Phys.WritePage(textPA, make([]uint8, mem.PG_SIZE))
	pt.Map(l.EntryVA, textPA, mem.V|mem.R|mem.X|mem.U)

	stackPage := l.StackVA - mem.Va_t(mem.PG_SIZE)
	stackPA, ok := l.Frames.Alloc()
	if !ok {
		return Image{}, defs.ENOMEM
	}
	l.Phys.WritePage(stackPA, make([]uint8, mem.PG_SIZE))
	pt.Map(stackPage, stackPA, mem.V|mem.R|mem.W|mem.U)

	return Image{EntryPoint: l.EntryVA, InitSP: l.StackVA}, 0
}

/// MaxArgvBytes bounds the total size of the argv image pushed onto the
/// stack; spec.md §7 calls an oversized image a user-visible failure.
const MaxArgvBytes = 4096

/// Writer is the narrow byte-poking surface BuildArgv needs: write n
/// bytes at a descending stack address. The syscall/process layer
/// supplies an implementation backed by uaccess.WriteBytes once the
/// frame's page table is active; tests supply a plain in-memory one.
type Writer interface {
	WriteBytes(va mem.Va_t, buf []uint8) defs.Err_t
}

/// Frame is the subset of a trap frame BuildArgv fills in: stack
/// pointer, argc/argv registers, entry point, and the supervisor ->
/// user privilege switch (spec.md §4.8).
type Frame struct {
	SP   mem.Va_t
	A0   uint // argc
	A1   mem.Va_t // argv
	Sepc mem.Va_t
	SPP  Privilege
}

/// Privilege selects which mode the new thread resumes in.
type Privilege int

const (
	PrivUser Privilege = iota
	PrivSupervisor
)

/// BuildArgv lays out argv on the user stack below initSP (stack grows
/// down), word-aligns the argv[] vector itself, and returns the frame
/// the new thread should resume with. Per spec.md §4.8: for each
/// argument in reverse order, reserve len+1 (word-rounded) bytes, copy
/// the bytes plus a NUL terminator, and record the pointer; then push a
/// terminating NULL pointer, then the pointer array; argc/argv land in
/// a0/a1, entry point in sepc, and SPP is set to User.
func BuildArgv(w Writer, initSP mem.Va_t, entry mem.Va_t, argv []string) (Frame, defs.Err_t) {
	sp := initSP
	ptrs := make([]mem.Va_t, len(argv))
	total := 0
	for i := len(argv) - 1; i >= 0; i-- {
		arg := argv[i]
		n := wordRound(len(arg) + 1)
		total += n
		if total > MaxArgvBytes {
			return Frame{}, defs.ENAMETOOLONG
		}
		sp -= mem.Va_t(n)
		buf := make([]uint8, n)
		copy(buf, arg)
		if err := w.WriteBytes(sp, buf); err != 0 {
			return Frame{}, err
		}
		ptrs[i] = sp
	}

	// Word-align sp so the argv[] vector pushed next lands on a machine
	// word boundary (spec.md §9 open question).
	sp = wordAlign(sp)

	// terminating NULL pointer
	total += 8
	if total > MaxArgvBytes {
		return Frame{}, defs.ENAMETOOLONG
	}
	sp -= 8
	if err := w.WriteBytes(sp, make([]uint8, 8)); err != 0 {
		return Frame{}, err
	}

	// argv[] vector, highest index first so argv[0] ends up at the
	// lowest address (i.e. at the final sp).
	for i := len(ptrs) - 1; i >= 0; i-- {
		total += 8
		if total > MaxArgvBytes {
			return Frame{}, defs.ENAMETOOLONG
		}
		sp -= 8
		var word [8]uint8
		putLE(word[:], uint64(ptrs[i]))
		if err := w.WriteBytes(sp, word[:]); err != 0 {
			return Frame{}, err
		}
	}
	argvVA := sp

	return Frame{
		SP:   sp,
		A0:   uint(len(argv)),
		A1:   argvVA,
		Sepc: entry,
		SPP:  PrivUser,
	}, 0
}

func wordRound(n int) int {
	const w = 8
	return ((n + w - 1) / w) * w
}

func wordAlign(va mem.Va_t) mem.Va_t {
	return mem.Va_t((int(va) / 8) * 8)
}

func putLE(b []uint8, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = uint8(v >> (8 * uint(i)))
	}
}
