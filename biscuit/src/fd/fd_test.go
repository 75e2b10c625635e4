package fd

import (
	"testing"

	"defs"
)

type fakeFile struct{ inum uint }

func (f *fakeFile) Read(buf []uint8) (int, defs.Err_t)  { return 0, 0 }
func (f *fakeFile) Write(buf []uint8) (int, defs.Err_t) { return 0, 0 }
func (f *fakeFile) Seek(pos int) defs.Err_t             { return 0 }
func (f *fakeFile) Pos() int                            { return 0 }
func (f *fakeFile) Len() (int, defs.Err_t)              { return 0, 0 }
func (f *fakeFile) Inum() uint                          { return f.inum }

func TestOpenAllocatesPastReservedFds(t *testing.T) {
	tbl := NewFDTable()
	first := tbl.Open(&Fd_t{File: &fakeFile{inum: 1}, Perms: FD_READ})
	if first != 3 {
		t.Fatalf("first Open() = %d, want 3 (fds 0-2 are reserved for the console)", first)
	}
	second := tbl.Open(&Fd_t{File: &fakeFile{inum: 2}, Perms: FD_WRITE})
	if second != 4 {
		t.Fatalf("second Open() = %d, want 4", second)
	}
}

func TestGetAndClose(t *testing.T) {
	tbl := NewFDTable()
	fdn := tbl.Open(&Fd_t{File: &fakeFile{inum: 9}, Perms: FD_READ})

	got, ok := tbl.Get(fdn)
	if !ok || got.File.Inum() != 9 {
		t.Fatalf("Get(%d) = %v, %v, want inum 9", fdn, got, ok)
	}

	if !tbl.Close(fdn) {
		t.Fatal("Close should report true for an open fd")
	}
	if _, ok := tbl.Get(fdn); ok {
		t.Fatal("Get should miss after Close")
	}
	if tbl.Close(fdn) {
		t.Fatal("Close should report false for an already-closed fd")
	}
}

func TestOpenNeverReusesALowerFdWhileHigherIsOpen(t *testing.T) {
	tbl := NewFDTable()
	a := tbl.Open(&Fd_t{File: &fakeFile{}, Perms: FD_READ})
	b := tbl.Open(&Fd_t{File: &fakeFile{}, Perms: FD_READ})
	tbl.Close(a)
	c := tbl.Open(&Fd_t{File: &fakeFile{}, Perms: FD_READ})
	if c == a || c <= b {
		t.Fatalf("Open after closing a lower fd = %d, want something above %d (got a=%d b=%d)", c, b, a, b)
	}
}

func TestOpenReusesTheTopFdAfterItIsClosed(t *testing.T) {
	tbl := NewFDTable()
	a := tbl.Open(&Fd_t{File: &fakeFile{}, Perms: FD_READ})
	b := tbl.Open(&Fd_t{File: &fakeFile{}, Perms: FD_READ})
	if a != 3 || b != 4 {
		t.Fatalf("got a=%d b=%d, want a=3 b=4", a, b)
	}
	tbl.Close(b)
	c := tbl.Open(&Fd_t{File: &fakeFile{}, Perms: FD_READ})
	if c != 4 {
		t.Fatalf("Open after closing the top fd = %d, want 4 (reused, not 5)", c)
	}
}

func TestCopyfdDuplicatesFields(t *testing.T) {
	orig := &Fd_t{File: &fakeFile{inum: 5}, Perms: FD_READ | FD_WRITE}
	dup := Copyfd(orig)
	if dup == orig {
		t.Fatal("Copyfd should return a distinct *Fd_t")
	}
	if dup.File != orig.File || dup.Perms != orig.Perms {
		t.Fatalf("Copyfd() = %+v, want a copy of %+v", dup, orig)
	}
}
