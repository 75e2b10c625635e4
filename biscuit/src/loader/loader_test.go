package loader

import (
	"testing"

	"golang.org/x/tools/txtar"

	"defs"
	"mem"
	"vm"
)

// fakeWriter is an in-memory stand-in for the uaccess-backed Writer a
// real process resumes into; it just records byte ranges by address so
// tests can read back exactly what BuildArgv wrote.
type fakeWriter struct {
	mem map[mem.Va_t]uint8
}

func newFakeWriter() *fakeWriter { return &fakeWriter{mem: map[mem.Va_t]uint8{}} }

func (w *fakeWriter) WriteBytes(va mem.Va_t, buf []uint8) defs.Err_t {
	for i, b := range buf {
		w.mem[va+mem.Va_t(i)] = b
	}
	return 0
}

func (w *fakeWriter) readBytes(va mem.Va_t, n int) []uint8 {
	out := make([]uint8, n)
	for i := range out {
		out[i] = w.mem[va+mem.Va_t(i)]
	}
	return out
}

func (w *fakeWriter) readWord(va mem.Va_t) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(w.mem[va+mem.Va_t(i)]) << (8 * uint(i))
	}
	return v
}

func (w *fakeWriter) readCString(va mem.Va_t) string {
	var out []uint8
	for i := 0; ; i++ {
		b := w.mem[va+mem.Va_t(i)]
		if b == 0 {
			break
		}
		out = append(out, b)
	}
	return string(out)
}

// argsFromFixture decodes a golden-fixture txtar archive into an argv
// slice: one file per argument, in archive order, file content is the
// literal argument text (trailing newline stripped).
func argsFromFixture(t *testing.T, raw string) []string {
	t.Helper()
	ar := txtar.Parse([]byte(raw))
	argv := make([]string, len(ar.Files))
	for i, f := range ar.Files {
		argv[i] = string(f.Data)
		for len(argv[i]) > 0 && (argv[i][len(argv[i])-1] == '\n') {
			argv[i] = argv[i][:len(argv[i])-1]
		}
	}
	return argv
}

const argvFixture = `
-- argv0 --
/bin/cat
-- argv1 --
-n
-- argv2 --
/etc/motd
`

func TestBuildArgvRoundTripsFromFixture(t *testing.T) {
	argv := argsFromFixture(t, argvFixture)
	if len(argv) != 3 {
		t.Fatalf("fixture decoded to %d args, want 3", len(argv))
	}

	w := newFakeWriter()
	const initSP = mem.Va_t(0x80000000)
	const entry = mem.Va_t(0x1000)

	frame, err := BuildArgv(w, initSP, entry, argv)
	if err != 0 {
		t.Fatalf("BuildArgv returned %v", err)
	}
	if frame.A0 != uint(len(argv)) {
		t.Fatalf("frame.A0 = %d, want %d", frame.A0, len(argv))
	}
	if frame.Sepc != entry {
		t.Fatalf("frame.Sepc = %#x, want %#x", frame.Sepc, entry)
	}
	if frame.SPP != PrivUser {
		t.Fatalf("frame.SPP = %v, want PrivUser", frame.SPP)
	}
	if frame.SP%8 != 0 {
		t.Fatalf("frame.SP = %#x is not word-aligned", frame.SP)
	}

	// argv[] vector lives at A1; each entry points at a NUL-terminated
	// copy of the original string, and the vector itself is NULL-terminated.
	for i, want := range argv {
		ptr := mem.Va_t(w.readWord(frame.A1 + mem.Va_t(8*i)))
		if got := w.readCString(ptr); got != want {
			t.Fatalf("argv[%d] = %q, want %q", i, got, want)
		}
	}
	term := w.readWord(frame.A1 + mem.Va_t(8*len(argv)))
	if term != 0 {
		t.Fatalf("argv[] vector is not NULL-terminated: got %#x", term)
	}
}

func TestBuildArgvFailsWhenOversized(t *testing.T) {
	w := newFakeWriter()
	huge := make([]string, 1)
	huge[0] = string(make([]byte, MaxArgvBytes*2))

	_, err := BuildArgv(w, 0x80000000, 0x1000, huge)
	if err != defs.ENAMETOOLONG {
		t.Fatalf("BuildArgv(oversized) = %v, want ENAMETOOLONG", err)
	}
}

func TestBuildArgvEmptyArgvStillTerminates(t *testing.T) {
	w := newFakeWriter()
	frame, err := BuildArgv(w, 0x80000000, 0x1000, nil)
	if err != 0 {
		t.Fatalf("BuildArgv(nil) returned %v", err)
	}
	if frame.A0 != 0 {
		t.Fatalf("frame.A0 = %d, want 0", frame.A0)
	}
	if w.readWord(frame.A1) != 0 {
		t.Fatal("an empty argv should still write a terminating NULL pointer")
	}
}

func TestFakeLoaderMapsEntryAndStack(t *testing.T) {
	l := &FakeLoader{
		Frames:  vm.NewFakeFramePool(0x10000, 8),
		Phys:    vm.NewFakePhysMem(),
		EntryVA: 0x1000,
		StackVA: 0x80000000,
	}
	pt := vm.NewFakePageTable()

	img, err := l.Load(nil, pt)
	if err != 0 {
		t.Fatalf("Load returned %v", err)
	}
	if img.EntryPoint != l.EntryVA || img.InitSP != l.StackVA {
		t.Fatalf("Load() = %+v, want entry %#x sp %#x", img, l.EntryVA, l.StackVA)
	}
	if _, _, present := pt.GetPTE(l.EntryVA); !present {
		t.Fatal("Load should map the entry page")
	}
	if _, _, present := pt.GetPTE(l.StackVA - mem.Va_t(mem.PG_SIZE)); !present {
		t.Fatal("Load should map the initial stack page")
	}
}
