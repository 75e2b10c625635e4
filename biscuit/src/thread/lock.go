package thread

import "intr"

// nextLockID hands out stable identifiers for Lock_t, used only for the
// %v-style debug dumps the teacher's own Callerdump-adjacent code favors.
var nextLockID int

/// Lock_t is the sleep lock component (E): mutual exclusion plus
/// multi-level priority donation, grounded on the original's sync::Sleep
/// (an inner Semaphore of initial value 1, a holder, and a waiting_list
/// threads donate through).
type Lock_t struct {
	inner       *Semaphore
	Holder      *Thread
	WaitingList []*Thread
	id          int
}

/// NewLock returns an unheld lock.
func NewLock() *Lock_t {
	nextLockID++
	return &Lock_t{inner: NewSemaphore(1), id: nextLockID}
}

/// Acquire blocks until the calling thread holds the lock, donating its
/// priority to the current holder (if any) for as long as it waits.
func (l *Lock_t) Acquire() {
	prev := intr.Set(false)
	cur := Current()
	cur.RequiredLock = l
	cur.donate()
	l.WaitingList = append(l.WaitingList, cur)
	intr.Set(prev)

	l.inner.Down()

	prev = intr.Set(false)
	l.Holder = cur
	cur.RequiredLock = nil
	cur.HoldingLocks = append(cur.HoldingLocks, l)
	for i, t := range l.WaitingList {
		if t == cur {
			l.WaitingList = append(l.WaitingList[:i], l.WaitingList[i+1:]...)
			break
		}
	}
	intr.Set(prev)
	Yield()
}

/// Release hands the lock back, dropping any donations that existed
/// solely because a waiter's RequiredLock was this lock, then wakes the
/// next waiter via the inner semaphore. Releasing a lock this thread
/// does not hold is a kernel bug (assertion failure), per spec.md §4.5.
func (l *Lock_t) Release() {
	cur := Current()
	if l.Holder != cur {
		panic("lock: release by non-holder")
	}
	prev := intr.Set(false)
	l.Holder = nil
	for i, hl := range cur.HoldingLocks {
		if hl == l {
			cur.HoldingLocks = append(cur.HoldingLocks[:i], cur.HoldingLocks[i+1:]...)
			break
		}
	}
	pruned := cur.Donators[:0]
	for _, d := range cur.Donators {
		if d.RequiredLock == l {
			d.Donating = nil
			continue
		}
		pruned = append(pruned, d)
	}
	cur.Donators = pruned
	cur.RecomputePriority()
	intr.Set(prev)

	l.inner.Up()
}

/// donate lends this thread's effective priority to the holder of the
/// lock it is about to block on, recording the donation edge so
/// RecomputePriority can walk it. Called with interrupts already
/// disabled, right before the thread joins a lock's waiting_list.
/// Cycles are impossible: a thread can never hold a lock it is itself
/// blocked trying to acquire.
func (t *Thread) donate() {
	l := t.RequiredLock
	if l == nil || l.Holder == nil {
		return
	}
	t.Donating = l.Holder
	l.Holder.Donators = append(l.Holder.Donators, t)
	l.Holder.RecomputePriority()
}
