package stats

import "testing"

// Stats and Timing are compile-time consts fixed to false in this build,
// so every counter operation below must be an observable no-op — the
// whole point of the opt-in design (see package doc).

func TestCounterIsNoOpWhenDisabled(t *testing.T) {
	var c Counter_t
	c.Inc()
	c.Inc()
	if c != 0 {
		t.Fatalf("Counter_t.Inc() moved the counter to %d with Stats disabled", c)
	}
}

func TestCyclesIsNoOpWhenDisabled(t *testing.T) {
	var c Cycles_t
	c.Add(Rdtsc())
	if c != 0 {
		t.Fatalf("Cycles_t.Add() moved the counter to %d with Timing disabled", c)
	}
}

func TestRdtscZeroWhenDisabled(t *testing.T) {
	if got := Rdtsc(); got != 0 {
		t.Fatalf("Rdtsc() = %d, want 0 with Stats and Timing both disabled", got)
	}
}

func TestStats2StringEmptyWhenDisabled(t *testing.T) {
	type sample struct {
		A Counter_t
		B Cycles_t
	}
	if got := Stats2String(sample{A: 5, B: 10}); got != "" {
		t.Fatalf("Stats2String = %q, want empty string with Stats disabled", got)
	}
}
