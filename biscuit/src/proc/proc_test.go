package proc

import (
	"testing"

	"defs"
	"fs"
	"limits"
	"loader"
	"mem"
	"thread"
	"vm"
)

type fakeFile struct {
	data []uint8
	pos  int
}

func (f *fakeFile) Read(buf []uint8) (int, defs.Err_t) {
	n := copy(buf, f.data[f.pos:])
	f.pos += n
	return n, 0
}
func (f *fakeFile) Write(buf []uint8) (int, defs.Err_t) {
	f.data = append(f.data[:f.pos], buf...)
	f.pos += len(buf)
	return len(buf), 0
}
func (f *fakeFile) Seek(pos int) defs.Err_t {
	if pos < 0 {
		return defs.EINVAL
	}
	f.pos = pos
	return 0
}
func (f *fakeFile) Pos() int               { return f.pos }
func (f *fakeFile) Len() (int, defs.Err_t) { return len(f.data), 0 }
func (f *fakeFile) Inum() uint             { return 1 }

var _ fs.File = (*fakeFile)(nil)

func TestExecLoadsAndBuildsArgv(t *testing.T) {
	frames := vm.NewFakeFramePool(0x10000, 16)
	phys := vm.NewFakePhysMem()
	pt := vm.NewFakePageTable()
	ld := &loader.FakeLoader{Frames: frames, Phys: phys, EntryVA: 0x1000, StackVA: 0x80000000}

	as, frame, err := Exec(ld, &fakeFile{}, pt, frames, phys, []string{"/bin/sh", "-c", "true"})
	if err != 0 {
		t.Fatalf("Exec returned %v", err)
	}
	if as == nil {
		t.Fatal("Exec should return a non-nil address space on success")
	}
	if frame.Sepc != 0x1000 {
		t.Fatalf("frame.Sepc = %#x, want 0x1000", frame.Sepc)
	}
	if frame.A0 != 3 {
		t.Fatalf("frame.A0 = %d, want 3", frame.A0)
	}
}

func TestExecFailsOnOversizedArgv(t *testing.T) {
	frames := vm.NewFakeFramePool(0x10000, 16)
	phys := vm.NewFakePhysMem()
	pt := vm.NewFakePageTable()
	ld := &loader.FakeLoader{Frames: frames, Phys: phys, EntryVA: 0x1000, StackVA: 0x80000000}

	huge := []string{string(make([]byte, loader.MaxArgvBytes*2))}
	_, _, err := Exec(ld, &fakeFile{}, pt, frames, phys, huge)
	if err != defs.ENAMETOOLONG {
		t.Fatalf("Exec(oversized argv) = %v, want ENAMETOOLONG", err)
	}
}

func TestSpawnWiresAddrSpaceAndFDTable(t *testing.T) {
	parent := thread.NewThread("parent", 1)
	frames := vm.NewFakeFramePool(0x10000, 16)
	as := vm.NewAddrSpace(vm.NewFakePageTable(), frames)
	frame := loader.Frame{SP: 0x80000000, A0: 0, A1: 0, Sepc: 0x1000}

	var ran bool
	child := Spawn(parent, as, "child", 1, frame, func(f loader.Frame) {
		ran = true
		_ = f
	})

	if child.AS != as {
		t.Fatal("Spawn should install the given address space on the new thread")
	}
	if child.FDs == nil {
		t.Fatal("Spawn should give the new thread a fresh fd table")
	}
	if child.UserSP != frame.SP {
		t.Fatalf("child.UserSP = %#x, want %#x", child.UserSP, frame.SP)
	}
	if len(parent.Children) != 1 || parent.Children[0].Tid != child.Tid {
		t.Fatal("Spawn should register the new thread as parent's child")
	}
	_ = ran // body only runs once the scheduler dispatches the child; never exercised here.
}

func TestMunmapWritesBackDirtyPageAndFreesFrame(t *testing.T) {
	frames := vm.NewFakeFramePool(0x10000, 16)
	phys := vm.NewFakePhysMem()
	pt := vm.NewFakePageTable()
	as := vm.NewAddrSpace(pt, frames)
	ft := vm.NewFrameTable(0x10000, 16)

	file := &fakeFile{data: make([]uint8, mem.PG_SIZE)}
	m := as.AddMap(file, 0, 0x40000000, mem.PG_SIZE, mem.PG_SIZE, mem.V|mem.R|mem.W|mem.U)

	pa, _ := frames.Alloc()
	buf := make([]uint8, mem.PG_SIZE)
	buf[0] = 0x77
	phys.WritePage(pa, buf)
	pt.Map(m.Va, pa, mem.V|mem.R|mem.W|mem.U|mem.D)
	ft.Set(pa, &vm.FrameInfo{Owner: 1, Va: m.Va})

	before := limits.Syslimit.Userpages
	if err := Munmap(as, frames, phys, ft, m.Mapid); err != 0 {
		t.Fatalf("Munmap returned %v", err)
	}
	if limits.Syslimit.Userpages != before+1 {
		t.Fatalf("Syslimit.Userpages = %d, want %d (one page given back)", limits.Syslimit.Userpages, before+1)
	}
	if file.data[0] != 0x77 {
		t.Fatalf("dirty page was not written back: file.data[0] = %#x, want 0x77", file.data[0])
	}
	if _, _, present := pt.GetPTE(m.Va); present {
		t.Fatal("Munmap should unmap the PTE")
	}
	if _, ok := ft.Get(pa); ok {
		t.Fatal("Munmap should clear the frame table entry")
	}
	if _, ok := as.MapByID(m.Mapid); ok {
		t.Fatal("Munmap should remove the MapInfo")
	}
}

func TestMunmapRejectsUnknownMapid(t *testing.T) {
	frames := vm.NewFakeFramePool(0x10000, 4)
	phys := vm.NewFakePhysMem()
	as := vm.NewAddrSpace(vm.NewFakePageTable(), frames)

	if err := Munmap(as, frames, phys, nil, 999); err != defs.EINVAL {
		t.Fatalf("Munmap(unknown mapid) = %v, want EINVAL", err)
	}
}

