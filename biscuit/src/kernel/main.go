// Command kernel is the boot demo: it wires the scheduler and alarm
// wheel together over the hal fakes and drives two of spec.md §8's
// end-to-end scenarios (S1 priority donate+release, S3 sleep-then-wake),
// printing a transcript and a final dispatch-count dump. There is no
// real RISC-V hardware to boot against — hal.FakeClock stands in for
// the timer interrupt — so this plays the same role the teacher's own
// kernel/main.go plays in its tree: the thing that actually calls
// Bootstrap and owns the process's one goroutine-driven "CPU". The
// EXEC/WAIT scenario (S6) needs a thread actually dispatched as
// Current to drive a syscall through scall.Dispatch correctly, so it is
// exercised by scall's own tests instead of duplicated here.
package main

import (
	"bytes"
	"fmt"

	"golang.org/x/text/message"

	"hal"
	"prof"
	"thread"
)

var transcript []string

func record(name string) {
	transcript = append(transcript, name)
}

// donationDemo runs scenario S1: L holds a lock, M is ready at a higher
// base priority than L, H blocks acquiring L's lock and donates up to
// H's priority; the scheduler must run L (now boosted) before M, then H
// after release. Expected transcript order: [L, H, M].
func donationDemo() {
	lk := thread.NewLock()
	done := make(chan struct{})

	lk.Acquire()

	thread.Spawn("M", 32, func() {
		record("M")
	})

	thread.Spawn("H", 63, func() {
		lk.Acquire()
		record("H")
		lk.Release()
		close(done)
	})

	thread.Yield() // let H block on the lock and donate up to 63

	record("L")
	lk.Release()

	<-done
}

// sleepWakeDemo runs scenario S3: a high-priority thread sleeps on the
// alarm wheel; advancing the clock past its wake tick must service a
// wake-up whose preempt hint is honored by the caller's Yield.
func sleepWakeDemo(clk *hal.FakeClock) {
	woke := make(chan struct{})
	thread.Spawn("sleeper", 40, func() {
		thread.Sleep(clk, 10)
		record("sleeper-woke")
		close(woke)
	})
	thread.Yield()
	clk.Advance(10)
	if thread.AlarmTick(clk.Ticks()) {
		thread.Yield()
	}
	<-woke
}

func main() {
	thread.SpawnIdle()
	thread.Spawn("boot", 10, func() {
		donationDemo()
		sleepWakeDemo(&hal.FakeClock{})
		printStats()
	})
	thread.Bootstrap()
}

func printStats() {
	p := message.NewPrinter(message.MatchLanguage("en"))
	var buf bytes.Buffer
	p.Fprintf(&buf, "transcript: %v\n", transcript)
	dispatches := prof.Counts()
	p.Fprintf(&buf, "dispatches: %d thread names sampled\n", len(dispatches))
	fmt.Print(buf.String())
	if s := thread.DispatchStats(); s != "" {
		fmt.Print(s)
	}
}
