package tinfo

import (
	"testing"

	"defs"
)

func TestKillIsIdempotent(t *testing.T) {
	var tn Tnote_t
	if tn.Doomed() {
		t.Fatal("fresh Tnote_t should not be doomed")
	}
	tn.Kill(defs.EFAULT)
	if !tn.Doomed() {
		t.Fatal("Tnote_t should be doomed after Kill")
	}
	if tn.Exitcode() != defs.EFAULT {
		t.Fatalf("Exitcode() = %v, want %v", tn.Exitcode(), defs.EFAULT)
	}
	// a second Kill must not overwrite the first cause
	tn.Kill(defs.EINVAL)
	if tn.Exitcode() != defs.EFAULT {
		t.Fatalf("second Kill overwrote the exit code: got %v, want %v", tn.Exitcode(), defs.EFAULT)
	}
}
