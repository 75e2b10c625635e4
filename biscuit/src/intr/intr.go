// Package intr models the one hardware primitive this kernel core treats
// as truly atomic: the supervisor-mode interrupt-enable bit. Every
// critical section that touches scheduler state, semaphore waiter
// lists, the donation graph, or the alarm queue runs with interrupts
// disabled, and is restored on every exit path, exactly as a real
// single-core kernel's SIE bit would be saved and restored around such
// a section.
//
// This core has no real maskable interrupts to mask — there is one flag,
// touched only by whichever goroutine currently holds package thread's
// scheduling baton. Because the baton-passing scheduler already
// guarantees that exactly one goroutine is ever executing kernel logic
// at a time, Set needs no lock of its own: a second lock here would only
// recreate the hazard the baton protocol already rules out, and would
// deadlock across a context switch taken while "interrupts" are held
// disabled (the new thread resumes with its own saved state, not the
// blocker's, exactly as a real kernel's per-thread interrupt state
// would after a switch).
package intr

var enabled = true

/// Set installs the new enabled state and returns the previous one, the
/// standard save/restore idiom used throughout this core, e.g.:
///
///	prev := intr.Set(false)
///	defer intr.Set(prev)
func Set(next bool) bool {
	prev := enabled
	enabled = next
	return prev
}

/// Enabled reports the current state without changing it. Used only by
/// assertions — normal control flow always goes through Set so the
/// previous state is captured for restoration.
func Enabled() bool {
	return enabled
}
