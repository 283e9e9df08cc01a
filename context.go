package desim

import "math/rand"

// Context is the capability handle a component uses to interact with the
// kernel: emitting and cancelling events, reading the simulation clock,
// drawing from the shared RNG, and logging. It is bound to exactly one
// ComponentID at creation time.
//
// Context holds only a *Kernel and a ComponentID, never a pointer back
// into the component's own state, which is what keeps the
// component→context→kernel→components graph acyclic (see idmap.go).
type Context struct {
	k    *Kernel
	self ComponentID
}

// Self returns the ComponentID this Context is bound to.
func (c *Context) Self() ComponentID { return c.self }

// Emit schedules payload for delivery to dst, delay time units after the
// current clock, on the kernel's general O(log n) path. It returns
// ErrNegativeDelay if delay is negative.
func (c *Context) Emit(payload any, dst ComponentID, delay float64) (EventID, error) {
	return c.k.emit(c.self, dst, payload, delay, false)
}

// EmitOrdered is like Emit but uses the per-source fast path: the caller
// asserts that across all of its own calls to EmitOrdered, the resulting
// absolute times are non-decreasing. Violating that assertion returns
// ErrEmitOrderedViolation instead of silently corrupting delivery order.
func (c *Context) EmitOrdered(payload any, dst ComponentID, delay float64) (EventID, error) {
	return c.k.emit(c.self, dst, payload, delay, true)
}

// EmitSelf schedules payload for delivery back to this same component,
// delay time units from now. It is the common pattern used to implement a
// component's own internal timers (e.g. the instrumentation module's
// periodic snapshot).
func (c *Context) EmitSelf(payload any, delay float64) (EventID, error) {
	return c.Emit(payload, c.self, delay)
}

// EmitNow schedules payload for immediate delivery, i.e. at the current
// clock value. It is shorthand for Emit(payload, dst, 0).
func (c *Context) EmitNow(payload any, dst ComponentID) (EventID, error) {
	return c.Emit(payload, dst, 0)
}

// Cancel logically cancels a previously scheduled event. The event stays
// in whichever queue holds it until it would next be popped, at which
// point the kernel discards it silently and counts it, rather than
// delivering it.
func (c *Context) Cancel(id EventID) {
	c.k.queue.cancel(id)
}

// CancelMatching cancels every currently pending event for which match
// returns true. It is O(n) in the number of pending events, since it must
// inspect the whole pending set; use Cancel directly when the EventID is
// already known.
func (c *Context) CancelMatching(match func(Event) bool) int {
	n := 0
	for _, ev := range c.k.queue.all() {
		if match(*ev) {
			c.k.queue.cancel(ev.ID)
			n++
		}
	}
	return n
}

// Time returns the kernel's current simulation clock value.
func (c *Context) Time() float64 { return c.k.clock }

// Rand returns the kernel's shared *rand.Rand, for components that need
// more than the convenience helpers below.
func (c *Context) Rand() *rand.Rand { return c.k.rng }

// GenRange draws a float64 uniformly from [lo, hi).
func (c *Context) GenRange(lo, hi float64) float64 {
	return lo + c.k.rng.Float64()*(hi-lo)
}

// Sample returns a uniformly random index in [0, n).
func (c *Context) Sample(n int) int {
	return c.k.rng.Intn(n)
}

// Log returns the Logger bound to this component's name, already filtered
// through the kernel's LevelFilter if one is configured.
func (c *Context) Log() Logger {
	return c.k.loggerFor(c.self)
}
