// Package tinfo carries the small piece of per-thread state that outlives
// the scheduler's own bookkeeping: whether a thread has been marked to
// die, and the exit code a killer wants it to die with. The scheduler
// (package thread) embeds a Tnote_t in every Thread; scall.Trap records
// a kill in it. The scheduler's suspension points do not read it.
package tinfo

import (
	"sync"

	"defs"
)

/// Tnote_t is set by whichever kernel code decides a thread must die —
/// the page-fault handler killing a faulting user process, or a parent
/// propagating a fatal condition to a child. Embedding this directly in
/// Thread, rather than tracking kills through a side table, is how the
/// teacher's own Tnote_t was used; this core keeps that shape and drops
/// the alive/state bookkeeping the teacher needed for driver recycling,
/// which has no equivalent here.
type Tnote_t struct {
	sync.Mutex
	Killed   bool
	Isdoomed bool
	Kerr     defs.Err_t
}

/// Doomed reports whether the thread is marked to die.
func (t *Tnote_t) Doomed() bool {
	t.Lock()
	defer t.Unlock()
	return t.Isdoomed
}

/// Kill marks the thread doomed, recording the exit code it should die
/// with. Idempotent: the first kill wins.
func (t *Tnote_t) Kill(err defs.Err_t) {
	t.Lock()
	defer t.Unlock()
	if t.Isdoomed {
		return
	}
	t.Killed = true
	t.Isdoomed = true
	t.Kerr = err
}

/// Exitcode returns the code a kill requested, valid only once Doomed.
func (t *Tnote_t) Exitcode() defs.Err_t {
	t.Lock()
	defer t.Unlock()
	return t.Kerr
}
