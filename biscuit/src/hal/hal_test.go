package hal

import "testing"

func TestFakeConsoleGetcBlocksUntilFed(t *testing.T) {
	c := NewFakeConsole(8)
	got := make(chan uint8, 1)
	go func() {
		got <- c.Getc()
	}()

	select {
	case <-got:
		t.Fatal("Getc returned before any input was fed")
	default:
	}

	c.Feed([]uint8{'x'})
	if b := <-got; b != 'x' {
		t.Fatalf("Getc() = %q, want 'x'", b)
	}
}

func TestFakeConsolePutbCapturesOutput(t *testing.T) {
	c := NewFakeConsole(1)
	c.Putb([]uint8("hi"))
	c.Putb([]uint8("!"))
	if got := string(c.Output()); got != "hi!" {
		t.Fatalf("Output() = %q, want %q", got, "hi!")
	}
}

func TestFakeClockAdvance(t *testing.T) {
	c := &FakeClock{}
	if c.Ticks() != 0 {
		t.Fatalf("fresh clock Ticks() = %d, want 0", c.Ticks())
	}
	if got := c.Advance(5); got != 5 {
		t.Fatalf("Advance(5) = %d, want 5", got)
	}
	if c.Ticks() != 5 {
		t.Fatalf("Ticks() = %d, want 5", c.Ticks())
	}
}

func TestFakePowerShutdown(t *testing.T) {
	p := &FakePower{}
	if p.ShutdownCalled {
		t.Fatal("ShutdownCalled should start false")
	}
	p.Shutdown()
	if !p.ShutdownCalled {
		t.Fatal("Shutdown() should record the request")
	}
}
