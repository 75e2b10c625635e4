// Package scall is the syscall dispatcher (component M): argument
// marshalling and validation through package uaccess, and the
// per-call semantics of spec.md §4.13's fourteen-call table. Named
// scall rather than syscall so its import path does not collide with
// the standard library package of that name. Grounded on the
// original's trap::syscall dispatch (match on syscall number, fetch
// args from the trap frame, marshal pointers through the safe-access
// routine), generalized from its Rust Result<isize, Errno> return
// convention to this core's collapse-to-minus-one policy (spec.md §7).
package scall

import (
	"defs"
	"fault"
	"fd"
	"fs"
	"hal"
	"loader"
	"mem"
	"proc"
	"stat"
	"thread"
	"uaccess"
	"ustr"
	"vm"
)

// Syscall numbers, exactly spec.md §4.13's table.
const (
	HALT   = 1
	EXIT   = 2
	EXEC   = 3
	WAIT   = 4
	REMOVE = 5
	OPEN   = 6
	READ   = 7
	WRITE  = 8
	SEEK   = 9
	TELL   = 10
	CLOSE  = 11
	FSTAT  = 12
	MMAP   = 13
	MUNMAP = 14
)

// OPEN flag bits, per spec.md §4.13.
const (
	O_RDONLY = 0x000
	O_WRONLY = 0x001
	O_RDWR   = 0x002
	O_CREATE = 0x200
	O_TRUNC  = 0x400
)

const maxNameLen = 256
const maxArgv = 32

/// Env bundles the external collaborators a Dispatch call needs beyond
/// the calling thread itself: the disk filesystem, console, shutdown
/// primitive, the frame pool and physical-memory backing used by every
/// address space, and a fresh-page-table factory for EXEC. Programs
/// stands in for the real ELF loader's jump into user code (trap-frame
/// assembly glue is explicitly out of scope per spec.md §1): it maps a
/// filename to the Go closure a test or boot demo registers as "what
/// that program does", preserving EXEC's observable contract — spawn a
/// child, it eventually exits with some code — without a real
/// instruction decoder.
type Env struct {
	FS           fs.FileSys
	Console      hal.Console
	Power        hal.Power
	Frames       vm.FramePool
	FrameTable   *vm.FrameTable
	Phys         vm.PhysMem
	Swap         *vm.SwapPool
	StackTop     mem.Va_t
	StackLimit   mem.Va_t
	Loader       loader.Loader
	NewPageTable func() vm.PageTable
	Programs     map[string]func(t *thread.Thread, argv []string) int
}

func ctxFor(t *thread.Thread, env *Env) *fault.Context {
	return &fault.Context{
		AS: t.AS, Phys: env.Phys, Swap: env.Swap, UserSP: t.UserSP,
		Owner: t.Tid, Frames: env.FrameTable,
	}
}

/// Dispatch runs one syscall for the calling thread t and returns the
/// a0 result, per spec.md §4.13's table and validation rules: any
/// pointer argument must resolve for every byte touched, or the call
/// fails with −1 and no side effects. a1, a2, a3 are the syscall's up
/// to three word-sized arguments, matching the trap frame's a1..a3
/// register slots.
func Dispatch(t *thread.Thread, sysno uint, a1, a2, a3 uint, env *Env) int {
	switch sysno {
	case HALT:
		env.Power.Shutdown()
		return 0
	case EXIT:
		t.Exit(int(int32(a1)))
		return 0
	case EXEC:
		return sysExec(t, a1, a2, env)
	case WAIT:
		return sysWait(t, a1)
	case REMOVE:
		return sysRemove(t, a1, env)
	case OPEN:
		return sysOpen(t, a1, a2, env)
	case READ:
		return sysRead(t, a1, a2, a3, env)
	case WRITE:
		return sysWrite(t, a1, a2, a3, env)
	case SEEK:
		return sysSeek(t, a1, a2)
	case TELL:
		return sysTell(t, a1)
	case CLOSE:
		return sysClose(t, a1)
	case FSTAT:
		return sysFstat(t, a1, a2, env)
	case MMAP:
		return sysMmap(t, a1, a2, env)
	case MUNMAP:
		return sysMunmap(t, a1, env)
	default:
		panic("scall: unknown syscall id")
	}
}

// readFilename validates and reads a syscall's filename pointer
// argument, per spec.md §4.13 ("empty filename is invalid"). The
// result is carried as ustr.Ustr — the teacher's own path-bytes type —
// rather than a plain Go string, matching how every other filename
// consumer in the teacher's tree (Cwd_t, bpath) takes its argument.
func readFilename(t *thread.Thread, ctx *fault.Context, va mem.Va_t, env *Env) (ustr.Ustr, defs.Err_t) {
	s, err := uaccess.ReadCString(t.AS, ctx, va, maxNameLen, env.StackTop, env.StackLimit)
	if err != 0 {
		return nil, err
	}
	name := ustr.Ustr(s)
	if len(name) == 0 {
		return nil, defs.EINVAL
	}
	return name, 0
}

func sysExec(t *thread.Thread, filenameVA, argvVA uint, env *Env) int {
	ctx := ctxFor(t, env)
	name, err := readFilename(t, ctx, mem.Va_t(filenameVA), env)
	if err != 0 {
		return -1
	}
	argv, err := readArgv(t.AS, ctx, mem.Va_t(argvVA), env)
	if err != 0 {
		return -1
	}
	prog, ok := env.Programs[name.String()]
	if !ok {
		return -1
	}
	file, ferr := env.FS.Open(name.String())
	if ferr != 0 {
		return -1
	}
	pt := env.NewPageTable()
	as, frame, berr := proc.Exec(env.Loader, file, pt, env.Frames, env.Phys, argv)
	if berr != 0 {
		return -1
	}
	child := proc.Spawn(t, as, name.String(), t.BasePriority(), frame, func(loader.Frame) {
		code := prog(thread.Current(), argv)
		thread.Current().Exit(code)
	})
	return int(child.Tid)
}

func readArgv(as *vm.AddrSpace, ctx *fault.Context, p mem.Va_t, env *Env) ([]string, defs.Err_t) {
	var argv []string
	for i := 0; i < maxArgv; i++ {
		ptr, err := uaccess.ReadUsize(as, ctx, p+mem.Va_t(i*8), env.StackTop, env.StackLimit)
		if err != 0 {
			return nil, err
		}
		if ptr == 0 {
			return argv, 0
		}
		s, err := uaccess.ReadCString(as, ctx, mem.Va_t(ptr), maxNameLen, env.StackTop, env.StackLimit)
		if err != 0 {
			return nil, err
		}
		argv = append(argv, s)
	}
	return nil, defs.ENAMETOOLONG
}

func sysWait(t *thread.Thread, tidArg uint) int {
	code, ok := t.Wait(defs.Tid_t(int(tidArg)))
	if !ok {
		return -1
	}
	return code
}

func sysRemove(t *thread.Thread, nameVA uint, env *Env) int {
	name, err := readFilename(t, ctxFor(t, env), mem.Va_t(nameVA), env)
	if err != 0 {
		return -1
	}
	if rerr := env.FS.Remove(name.String()); rerr != 0 {
		return -1
	}
	return 0
}

func sysOpen(t *thread.Thread, nameVA, flags uint, env *Env) int {
	name, err := readFilename(t, ctxFor(t, env), mem.Va_t(nameVA), env)
	if err != 0 {
		return -1
	}
	var file fs.File
	var ferr defs.Err_t
	if flags&O_TRUNC != 0 {
		file, ferr = env.FS.Create(name.String())
	} else {
		file, ferr = env.FS.Open(name.String())
		if ferr == fs.ErrNoSuchFile && flags&O_CREATE != 0 {
			file, ferr = env.FS.Create(name.String())
		}
	}
	if ferr != 0 {
		return -1
	}
	perms := 0
	switch flags & 0x003 {
	case O_RDONLY:
		perms = fd.FD_READ
	case O_WRONLY:
		perms = fd.FD_WRITE
	case O_RDWR:
		perms = fd.FD_READ | fd.FD_WRITE
	}
	return t.FDs.Open(&fd.Fd_t{File: file, Perms: perms})
}

func sysRead(t *thread.Thread, fdn, bufVA, n uint, env *Env) int {
	switch fdn {
	case 0:
		b := env.Console.Getc()
		if werr := uaccess.WriteByte(t.AS, ctxFor(t, env), mem.Va_t(bufVA), b, env.StackTop, env.StackLimit); werr != 0 {
			return -1
		}
		return 1
	case 1, 2:
		return -1
	}
	f, ok := t.FDs.Get(int(fdn))
	if !ok || f.Perms&fd.FD_READ == 0 {
		return -1
	}
	buf := make([]uint8, n)
	nr, rerr := f.File.Read(buf)
	if rerr != 0 {
		return -1
	}
	if werr := uaccess.WriteBytes(t.AS, ctxFor(t, env), mem.Va_t(bufVA), buf[:nr], env.StackTop, env.StackLimit); werr != 0 {
		return -1
	}
	return nr
}

func sysWrite(t *thread.Thread, fdn, bufVA, n uint, env *Env) int {
	if fdn == 0 {
		return -1
	}
	buf, err := uaccess.ReadBytes(t.AS, ctxFor(t, env), mem.Va_t(bufVA), int(n), env.StackTop, env.StackLimit)
	if err != 0 {
		return -1
	}
	if fdn == 1 || fdn == 2 {
		env.Console.Putb(buf)
		return int(n)
	}
	f, ok := t.FDs.Get(int(fdn))
	if !ok || f.Perms&fd.FD_WRITE == 0 {
		return -1
	}
	nw, werr := f.File.Write(buf)
	if werr != 0 {
		return -1
	}
	return nw
}

func sysSeek(t *thread.Thread, fdn, pos uint) int {
	if fdn < 3 {
		return -1
	}
	f, ok := t.FDs.Get(int(fdn))
	if !ok {
		return -1
	}
	if err := f.File.Seek(int(pos)); err != 0 {
		return -1
	}
	return 0
}

func sysTell(t *thread.Thread, fdn uint) int {
	if fdn < 3 {
		return -1
	}
	f, ok := t.FDs.Get(int(fdn))
	if !ok {
		return -1
	}
	return f.File.Pos()
}

func sysClose(t *thread.Thread, fdn uint) int {
	if fdn < 3 {
		return -1
	}
	if !t.FDs.Close(int(fdn)) {
		return -1
	}
	return 0
}

func sysFstat(t *thread.Thread, fdn, outVA uint, env *Env) int {
	if fdn < 3 {
		return -1
	}
	f, ok := t.FDs.Get(int(fdn))
	if !ok {
		return -1
	}
	size, err := f.File.Len()
	if err != 0 {
		return -1
	}
	// Stage the two words through stat.Stat_t rather than poking raw
	// uints directly, matching the teacher's Wino/Wsize accessor style
	// even though this core's wire format is only the two words
	// spec.md §4.13 names (inum, size), not the teacher's full rusage-
	// style stat struct.
	var st stat.Stat_t
	st.Wino(f.File.Inum())
	st.Wsize(uint(size))
	ctx := ctxFor(t, env)
	if werr := uaccess.WriteUsize(t.AS, ctx, mem.Va_t(outVA), st.Rino(), env.StackTop, env.StackLimit); werr != 0 {
		return -1
	}
	if werr := uaccess.WriteUsize(t.AS, ctx, mem.Va_t(outVA+8), st.Size(), env.StackTop, env.StackLimit); werr != 0 {
		return -1
	}
	return 0
}

// sysMmap validates every MMAP failure condition spec.md §4.13 lists:
// fd ≤ 2, zero-length file, unaligned or zero va, a page already mapped
// in the covered range, or an SPT/mmap overlap.
func sysMmap(t *thread.Thread, fdn, vaArg uint, env *Env) int {
	if fdn < 3 {
		return -1
	}
	va := mem.Va_t(vaArg)
	if va == 0 || int(va)%mem.PG_SIZE != 0 {
		return -1
	}
	f, ok := t.FDs.Get(int(fdn))
	if !ok {
		return -1
	}
	size, err := f.File.Len()
	if err != 0 || size == 0 {
		return -1
	}
	memsize := mem.PageRound(size)
	if !t.AS.VaRangeCheck(va, va+mem.Va_t(memsize)) {
		return -1
	}
	for off := 0; off < memsize; off += mem.PG_SIZE {
		if _, _, present := t.AS.PT.GetPTE(va + mem.Va_t(off)); present {
			return -1
		}
	}
	m := t.AS.AddMap(f.File, 0, va, size, memsize, mem.V|mem.R|mem.W|mem.U)
	return int(m.Mapid)
}

func sysMunmap(t *thread.Thread, mapidArg uint, env *Env) int {
	if merr := proc.Munmap(t.AS, env.Frames, env.Phys, env.FrameTable, defs.Mapid_t(int(mapidArg))); merr != 0 {
		return -1
	}
	return 0
}

// Trap simulates the CPU trap entry for a user-mode memory access that
// faults outside of any syscall argument touch — an ordinary load,
// store, or instruction fetch against a page that isn't present yet
// (spec.md §4.10's top-level handler, grounded on the original's
// trap::pagefault::handler). This is the real counterpart to uaccess's
// proactive resolution: uaccess only ever runs while the kernel is
// already marshalling a syscall argument, but a user program's own
// instruction stream faults independently of any syscall and has no
// pointer-argument validation wrapped around it, so it goes through
// fault.Dispatch directly and reacts to the three outcomes spec.md §4.10
// item 4 names: serviced faults just resume, a user-mode fault nothing
// claims kills the faulting thread with exit code −1 (tinfo.Tnote_t
// records the cause), and the same in supervisor mode is a kernel bug.
func Trap(t *thread.Thread, va mem.Va_t, kind fault.Kind, priv fault.Privilege, env *Env) {
	ctx := ctxFor(t, env)
	switch fault.Dispatch(ctx, va, kind, priv, env.StackTop, env.StackLimit) {
	case fault.Serviced:
		return
	case fault.KillProcess:
		t.Tnote.Kill(defs.EFAULT)
		t.Exit(-1)
	case fault.KernelPanic:
		panic(fault.PanicMessage(va, kind, nil))
	}
}
