// Package hal is the SBI/hardware-abstraction boundary this kernel core
// treats as an external collaborator: timer ticks, console I/O, and
// shutdown. The core only ever calls through the Console/Clock/Power
// interfaces below; a host-portable fake implementation (FakeConsole,
// FakeClock) backs the tests and the boot demo, grounded on the
// teacher's cons_t/trap_cons channel-driven console in its kernel
// package, adapted here to a plain struct since this core has no real
// interrupt source to drive it.
package hal

import "circbuf"

/// Console is the console device: Getc blocks until one byte of input is
/// available (fd 0 reads one character at a time per the syscall
/// boundary's fd special cases), Putb writes bytes out (fd 1/2).
type Console interface {
	Getc() uint8
	Putb(b []uint8)
}

/// Clock reports the current tick count, advanced by whatever drives the
/// simulated timer interrupt (the boot demo and the tests both call
/// Advance directly).
type Clock interface {
	Ticks() uint64
}

/// Power is the shutdown primitive HALT calls into.
type Power interface {
	Shutdown()
}

/// FakeConsole is a host-portable console backed by an in-memory ring
/// buffer for input and a captured byte slice for output — enough to
/// drive the S1-S6 scenario tests and a boot demo without a real UART.
type FakeConsole struct {
	in  circbuf.Circbuf_t
	out []uint8
	wake chan struct{}
}

/// NewFakeConsole builds a console with the given input queue depth.
func NewFakeConsole(qdepth int) *FakeConsole {
	c := &FakeConsole{wake: make(chan struct{}, 1)}
	c.in.Cb_init(qdepth)
	return c
}

/// Feed injects bytes as if typed at the console, waking one blocked
/// Getc if the queue was empty.
func (c *FakeConsole) Feed(b []uint8) {
	wasEmpty := c.in.Empty()
	c.in.Copyin(b)
	if wasEmpty && !c.in.Empty() {
		select {
		case c.wake <- struct{}{}:
		default:
		}
	}
}

/// Getc blocks until one byte is available and returns it.
func (c *FakeConsole) Getc() uint8 {
	for {
		var b [1]uint8
		if c.in.Copyout(b[:]) == 1 {
			return b[0]
		}
		<-c.wake
	}
}

/// Putb appends b to the captured output, standing in for writing to the
/// physical console.
func (c *FakeConsole) Putb(b []uint8) {
	c.out = append(c.out, b...)
}

/// Output returns everything written to the console so far.
func (c *FakeConsole) Output() []uint8 {
	return c.out
}

/// FakeClock is a manually advanced tick source.
type FakeClock struct {
	ticks uint64
}

/// Ticks returns the current tick count.
func (c *FakeClock) Ticks() uint64 {
	return c.ticks
}

/// Advance moves the clock forward by n ticks and returns the new value.
func (c *FakeClock) Advance(n uint64) uint64 {
	c.ticks += n
	return c.ticks
}

/// FakePower records whether shutdown was requested, instead of actually
/// halting the host process.
type FakePower struct {
	ShutdownCalled bool
}

/// Shutdown records the request.
func (p *FakePower) Shutdown() {
	p.ShutdownCalled = true
}
