package thread

import (
	"sort"
	"sync"

	"defs"
	"intr"
	"prof"
	"stats"
)

// dispatchCount and dispatchCycles are opt-in scheduler instrumentation
// (disabled by default, per stats.Stats/stats.Timing), mirroring the
// teacher's own Counter_t/Cycles_t fields on its Sched_t — zero cost
// when off, exact dispatch counts and cumulative switch latency when
// a debug build flips the two consts in package stats.
var (
	dispatchCount  stats.Counter_t
	dispatchCycles stats.Cycles_t
)

var mgrMu sync.Mutex
var nextTid defs.Tid_t
var allThreads = map[defs.Tid_t]*Thread{}

func addToManager(t *Thread) {
	mgrMu.Lock()
	nextTid++
	t.Tid = nextTid
	allThreads[t.Tid] = t
	mgrMu.Unlock()
}

/// Lookup returns the live thread with the given tid, if any.
func Lookup(tid defs.Tid_t) (*Thread, bool) {
	mgrMu.Lock()
	defer mgrMu.Unlock()
	t, ok := allThreads[tid]
	return t, ok
}

func forget(tid defs.Tid_t) {
	mgrMu.Lock()
	delete(allThreads, tid)
	mgrMu.Unlock()
}

// readyQ and current are scheduler-global state, touched only while
// intr.Set(false) is in effect (see package doc).
var readyQ []*Thread
var current *Thread

/// Current returns the thread presently holding the scheduling baton.
func Current() *Thread {
	if current == nil {
		panic("thread: no current thread — call Bootstrap first")
	}
	return current
}

/// Register pushes t onto the front of the ready queue. Called by the
/// scheduler (C) whenever a thread becomes runnable: at spawn, and at
/// every wake_up.
func Register(t *Thread) {
	t.Status = Ready
	readyQ = append([]*Thread{t}, readyQ...)
}

/// Schedule re-sorts the ready queue ascending by effective priority and
/// dispatches the highest-priority thread, blocking the calling
/// goroutine until it is itself redispatched; a caller already marked
/// Dying is never redispatched and returns at once. The caller must already
/// hold the thread it is running as "current"; if that thread wishes to
/// keep running it must first re-Register itself (see Yield) — Schedule
/// always dispatches whatever now sits at the back of the queue,
/// including the caller if it re-registered and still wins.
///
/// Must be called with interrupts disabled (as every suspension point in
/// this package is); it returns with interrupts still disabled.
func Schedule() {
	if len(readyQ) == 0 {
		panic("scheduler: ready queue empty, no thread to dispatch")
	}
	sort.SliceStable(readyQ, func(i, j int) bool {
		return readyQ[i].EffectivePriority() < readyQ[j].EffectivePriority()
	})
	next := readyQ[len(readyQ)-1]
	readyQ = readyQ[:len(readyQ)-1]
	dispatch(next)
}

func dispatch(next *Thread) {
	start := stats.Rdtsc()
	prev := current
	now := next.Accnt.Now()
	if prev != nil {
		prev.Accnt.Utadd(now - prev.runSince)
	}
	next.Status = Running
	next.runSince = now
	current = next
	prof.Sample(string(next.Name))
	dispatchCount.Inc()
	dispatchCycles.Add(start)
	if prev == next {
		return
	}
	next.resume <- struct{}{}
	if prev != nil && prev.Status != Dying {
		<-prev.resume
	}
}

/// block marks the calling thread Blocked and dispatches another thread.
/// Called only with interrupts disabled, from a suspension point that
/// has already recorded itself on whatever waiter list will wake it
/// (a semaphore's waiters, a lock's waiting_list, the alarm queue).
func block() {
	if intr.Enabled() {
		panic("thread: block called with interrupts enabled")
	}
	cur := Current()
	cur.Status = Blocked
	Schedule()
}

/// wakeUp moves a Blocked thread back to Ready and onto the ready
/// queue. The thread must currently be Blocked — waking a thread that
/// is not blocked indicates a bookkeeping bug elsewhere (spec.md §5).
func wakeUp(t *Thread) {
	if t.Status != Blocked {
		panic("thread: wake_up of non-blocked thread")
	}
	Register(t)
}

/// Yield voluntarily gives up the CPU, re-entering the ready queue at
/// the caller's own effective priority; Schedule then decides whether a
/// higher- or equal-priority thread actually takes over. This is the
/// mechanism behind the "preempt hint" documented on Up, Tick, and
/// SetBasePriority.
func Yield() {
	prev := intr.Set(false)
	cur := Current()
	Register(cur)
	Schedule()
	intr.Set(prev)
}

/// Bootstrap hands the CPU to the highest-priority ready thread for the
/// first time. Called once by the boot sequence, never by a managed
/// thread itself.
func Bootstrap() {
	if current != nil {
		panic("thread: already bootstrapped")
	}
	if len(readyQ) == 0 {
		panic("thread: no thread to bootstrap")
	}
	sort.SliceStable(readyQ, func(i, j int) bool {
		return readyQ[i].EffectivePriority() < readyQ[j].EffectivePriority()
	})
	next := readyQ[len(readyQ)-1]
	readyQ = readyQ[:len(readyQ)-1]
	dispatch(next)
}

// schedStats is the struct Stats2String reflects over: one field per
// counter, any of type Counter_t or Cycles_t gets picked up.
type schedStats struct {
	Dispatches     stats.Counter_t
	DispatchCycles stats.Cycles_t
}

/// DispatchStats formats the scheduler's dispatch counters via
/// stats.Stats2String, returning "" unless package stats.Stats is
/// turned on.
func DispatchStats() string {
	return stats.Stats2String(schedStats{Dispatches: dispatchCount, DispatchCycles: dispatchCycles})
}

/// SpawnIdle installs the lowest-priority thread that keeps the ready
/// queue non-empty forever, matching the spec's idle policy of busy-
/// waiting until the next interrupt rather than panicking when nothing
/// else is runnable.
func SpawnIdle() *Thread {
	return Spawn("idle", 0, func() {
		for {
			Yield()
		}
	})
}
