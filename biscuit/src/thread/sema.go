package thread

import (
	"sort"

	"intr"
)

/// Semaphore is the counting semaphore component (B): a non-negative
/// value plus a FIFO-with-priority-sort waiter list. Grounded on the
/// original's sync::Semaphore (push_front on block, pop_back sorted by
/// effective priority on up) — the donation graph in package thread
/// makes that ordering meaningful here in a way a plain FIFO semaphore
/// wouldn't be.
type Semaphore struct {
	value   int
	waiters []*Thread
}

/// NewSemaphore returns a semaphore with the given initial value.
func NewSemaphore(n int) *Semaphore {
	return &Semaphore{value: n}
}

/// Value returns the current counter value.
func (s *Semaphore) Value() int {
	return s.value
}

/// Down is the P operation: blocks the calling thread until the value is
/// positive, then claims one unit of it. Up hands the unit directly to
/// whichever waiter it wakes (value goes 0 -> 1 -> 0 across the pair), so
/// a thread resuming from block already owns its unit and must not
/// decrement again — only the uncontended path (value already positive,
/// nobody waiting) decrements here.
func (s *Semaphore) Down() {
	prev := intr.Set(false)
	if s.value == 0 {
		cur := Current()
		s.waiters = append([]*Thread{cur}, s.waiters...)
		block()
	} else {
		s.value--
	}
	intr.Set(prev)
}

/// Up is the V operation: releases one unit and wakes the single
/// highest-effective-priority waiter, if any. Ties break FIFO via
/// sort.SliceStable. Re-evaluated at every call, so priority donation
/// that happened after a thread started waiting is still honoured.
func (s *Semaphore) Up() {
	prev := intr.Set(false)
	s.value++

	sort.SliceStable(s.waiters, func(i, j int) bool {
		return s.waiters[i].EffectivePriority() < s.waiters[j].EffectivePriority()
	})

	shouldPreempt := false
	if n := len(s.waiters); n > 0 {
		if s.value != 1 {
			panic("semaphore: up found value != 1 with waiters present")
		}
		t := s.waiters[n-1]
		s.waiters = s.waiters[:n-1]
		s.value--
		shouldPreempt = t.EffectivePriority() >= Current().EffectivePriority()
		wakeUp(t)
	}

	intr.Set(prev)
	if shouldPreempt {
		Yield()
	}
}
