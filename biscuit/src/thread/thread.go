// Package thread is the merged home of the scheduler's tightly coupled
// cluster: the counting semaphore (B), priority scheduler (C), thread
// object and donation graph (D), sleep lock (E), alarm wheel (F), and
// child registry (G). The original this core was distilled from spread
// these across mutually recursive modules inside one crate (sema.rs,
// sleep.rs, thread.rs, thread/alarm.rs, childinfo.rs calling back into
// thread.rs and vice versa); Go's import graph has no equivalent of an
// intra-crate module cycle, so all six live in one package, split across
// files the way the teacher splits a single package into files by
// concern (see e.g. its vm package's as.go/dmap.go split) rather than by
// a strict layering boundary.
package thread

import (
	"accnt"
	"caller"
	"defs"
	"fd"
	"intr"
	"mem"
	"tinfo"
	"vm"
)

/// Status is a thread's scheduling state.
type Status int

const (
	Ready Status = iota
	Running
	Blocked
	Dying
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Blocked:
		return "blocked"
	case Dying:
		return "dying"
	default:
		return "?"
	}
}

/// Thread is one schedulable kernel entity: a TID, scheduling state,
/// donation graph, and the per-thread tables a user process owns (an
/// address space and fd table; both nil for kernel-only threads).
/// Every field below is touched only while the thread package's own
/// baton is held by the thread doing the touching, or — for Donators,
/// Donating, HoldingLocks, RequiredLock, and the scheduler's own
/// bookkeeping — only with intr.Set(false) in effect, per the ambient
/// concurrency discipline the whole package follows.
type Thread struct {
	Tid  defs.Tid_t
	Name string

	Status   Status
	basePrio uint32
	effPrio  uint32

	Donators     []*Thread
	Donating     *Thread
	HoldingLocks []*Lock_t
	RequiredLock *Lock_t

	Tnote tinfo.Tnote_t
	Accnt accnt.Accnt_t

	AS  *vm.AddrSpace
	FDs *fd.FDTable

	// UserSP is the stack pointer the trap frame most recently installed
	// for this thread (spec.md §4.8); the page-fault handler's stack-
	// growth check (§4.10b) compares a faulting address against it. This
	// core has no real trap-frame resumption to keep it live moment to
	// moment (trap-frame assembly glue is out of scope per spec.md §1),
	// so it is set once at EXEC and treated as the stack-growth baseline
	// for the thread's whole lifetime.
	UserSP mem.Va_t

	Parent   *Thread
	Children []*ChildInfo

	// runSince is the accnt.Accnt_t.Now() timestamp of this thread's most
	// recent dispatch, the baseline dispatch() measures elapsed run time
	// against when it next switches away from this thread.
	runSince int

	entry  func()
	resume chan struct{}
}

/// STACK_TOP is the highest user-stack virtual address; STACK_LIMIT is
/// the maximum number of bytes the stack may grow to below it. Both are
/// fixed, compile-time constants per spec.md §3, matching the original's
/// thread::STACK_TOP / trap::pagefault::STACK_LIMIT.
const (
	STACK_TOP   = 0x80000000
	STACK_LIMIT = 0x800000
)

/// EffectivePriority returns the thread's current effective priority.
func (t *Thread) EffectivePriority() uint32 {
	return t.effPrio
}

/// BasePriority returns the thread's own, undonated priority.
func (t *Thread) BasePriority() uint32 {
	return t.basePrio
}

/// SetBasePriority updates the base priority and recomputes effective
/// priority for this thread and every thread it donates to,
/// transitively. Callers that change the priority of the currently
/// running thread must yield afterward (spec.md §5 lists set_priority
/// among the mandatory preemption points); SetPriority below does this
/// for the common "change my own priority" case.
func (t *Thread) SetBasePriority(p uint32) {
	t.basePrio = p
	t.RecomputePriority()
}

/// SetPriority sets the calling thread's own base priority and yields,
/// giving a now-higher-priority ready thread a chance to run.
func SetPriority(p uint32) {
	prev := intr.Set(false)
	Current().SetBasePriority(p)
	intr.Set(prev)
	Yield()
}

/// RecomputePriority sets effective = max(base, max over donators of
/// their effective priority); if this thread is itself donating to
/// another, that thread is recomputed too, propagating the change up
/// the donation chain. Chain depth is bounded by the number of distinct
/// lock holders on the path; cycles cannot occur because a thread can
/// never hold a lock it is blocked trying to acquire.
func (t *Thread) RecomputePriority() {
	max := t.basePrio
	for _, d := range t.Donators {
		if ep := d.EffectivePriority(); ep > max {
			max = ep
		}
	}
	t.effPrio = max
	if t.Donating != nil {
		t.Donating.RecomputePriority()
	}
}

/// NewThread allocates a Thread with a fresh tid, registers it with the
/// manager, and leaves it not yet runnable — callers must still assign
/// entry and call Register to place it on the ready queue.
func NewThread(name string, prio uint32) *Thread {
	t := &Thread{
		Name:     name,
		Status:   Ready,
		basePrio: prio,
		effPrio:  prio,
		resume:   make(chan struct{}, 1),
	}
	addToManager(t)
	return t
}

/// Spawn creates a thread running fn and hands it to the scheduler's
/// ready queue. fn runs with interrupts enabled, as a freshly scheduled
/// thread always does.
func Spawn(name string, prio uint32, fn func()) *Thread {
	t := NewThread(name, prio)
	t.entry = fn
	prev := intr.Set(false)
	Register(t)
	intr.Set(prev)
	go t.run()
	return t
}

/// SpawnChild is Spawn plus child-registry bookkeeping (component G):
/// the new thread gets a ChildInfo row in parent's children list so a
/// later parent.Wait(child.Tid) can observe its exit code. Used for
/// every user process spawn (EXEC); kernel-only helper threads use
/// plain Spawn and are never waitable.
func SpawnChild(parent *Thread, name string, prio uint32, fn func()) *Thread {
	t := NewThread(name, prio)
	t.entry = fn
	newChild(parent, t)
	prev := intr.Set(false)
	Register(t)
	intr.Set(prev)
	go t.run()
	return t
}

func (t *Thread) run() {
	<-t.resume
	defer func() {
		if r := recover(); r != nil {
			caller.Callerdump(2)
			panic(r)
		}
	}()
	t.entry()
	t.Exit(0)
}
