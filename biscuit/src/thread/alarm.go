package thread

import (
	"sort"

	"hal"
	"intr"
)

// alarmEntry is one (wake_tick, thread) row in the global alarm queue.
type alarmEntry struct {
	wake uint64
	t    *Thread
}

var alarmQ []alarmEntry

/// AlarmAdd files t to be woken once the clock reaches wake, keeping the
/// queue sorted ascending by wake tick. Sleep files its own entry into
/// the same queue the same way; duplicates are allowed and no tie-break
/// beyond arrival order is required.
func AlarmAdd(wake uint64, t *Thread) {
	prev := intr.Set(false)
	alarmQ = append(alarmQ, alarmEntry{wake: wake, t: t})
	sort.SliceStable(alarmQ, func(i, j int) bool { return alarmQ[i].wake < alarmQ[j].wake })
	intr.Set(prev)
}

/// AlarmTick is called from the (simulated) timer ISR with the current
/// tick count. It wakes every thread whose wake tick has arrived and
/// reports whether the caller should yield afterward: true iff any
/// woken thread's effective priority is at least the current thread's.
func AlarmTick(now uint64) bool {
	prev := intr.Set(false)
	defer intr.Set(prev)

	curPrio := Current().EffectivePriority()
	shouldPreempt := false
	i := 0
	for i < len(alarmQ) && alarmQ[i].wake <= now {
		e := alarmQ[i]
		if e.t.EffectivePriority() >= curPrio {
			shouldPreempt = true
		}
		wakeUp(e.t)
		i++
	}
	alarmQ = alarmQ[i:]
	return shouldPreempt
}

/// Sleep blocks the calling thread until at least ticks clock ticks have
/// elapsed. A non-positive duration is a no-op, per spec.md §5.
func Sleep(clk hal.Clock, ticks int64) {
	if ticks <= 0 {
		return
	}
	prev := intr.Set(false)
	cur := Current()
	wake := clk.Ticks() + uint64(ticks)
	alarmQ = append(alarmQ, alarmEntry{wake: wake, t: cur})
	sort.SliceStable(alarmQ, func(i, j int) bool { return alarmQ[i].wake < alarmQ[j].wake })
	cur.Status = Blocked
	Schedule()
	intr.Set(prev)
}
