package desim

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

// Stats summarizes what a Kernel has done so far. Unhandled and Cancelled
// are model anomalies: they are counted,
// not treated as errors, since a dangling event or a late cancellation is
// a property of the model being simulated, not a bug in the kernel.
type Stats struct {
	Processed int
	Unhandled int
	Cancelled int
	Pending   int
}

// Option configures a Kernel at construction time, following the
// functional-options pattern for optional, independently-evolvable
// configuration.
type Option func(*Kernel)

// WithLogger sets the Logger every component's Context.Log() is backed
// by, wrapped in a LevelFilter at LevelInfo unless overridden with
// WithLevelFilter.
func WithLogger(l Logger) Option {
	return func(k *Kernel) { k.filter.next = l }
}

// WithLevelFilter replaces the kernel's default LevelFilter wholesale,
// for callers that want to configure global/per-component thresholds
// before the first event is ever emitted.
func WithLevelFilter(f *LevelFilter) Option {
	return func(k *Kernel) { k.filter = f }
}

// WithMetrics registers the kernel's Prometheus collectors against reg.
// Without this option the kernel tracks the same counters in-memory
// (Stats) but exposes nothing to Prometheus.
func WithMetrics(reg prometheusRegisterer) Option {
	return func(k *Kernel) { k.metrics = newKernelMetrics(reg) }
}

// Kernel is the discrete-event simulation engine: it owns the virtual
// clock, the pending-event queue, the component registry, the shared RNG
// and the logger, and drives components forward one event at a time
//.
//
// A Kernel is not safe for concurrent use; it is a single-threaded event
// loop by design, matching how every model built on top of
// it is expected to run.
type Kernel struct {
	runID string
	clock float64

	queue    *pendingQueue
	registry *componentRegistry
	rng      *rand.Rand
	filter   *LevelFilter
	metrics  *kernelMetrics

	nextEventID EventID
	stats       Stats
}

// New creates a Kernel seeded with seed, so that two kernels constructed
// with the same seed and driven through the same sequence of
// registrations, handler attachments, and emits will produce byte-for-byte
// identical event traces.
func New(seed int64, opts ...Option) *Kernel {
	k := &Kernel{
		runID:    uuid.NewString(),
		queue:    newPendingQueue(),
		registry: newComponentRegistry(),
		rng:      rand.New(rand.NewSource(seed)),
		filter:   NewLevelFilter(NopLogger{}, LevelInfo),
	}
	k.queue.onCancelledDiscard = func() {
		if k.metrics != nil {
			k.metrics.cancelled.Inc()
		}
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// RunID returns the unique identifier generated for this Kernel at
// construction time. The kernel does not attach it to log records or
// metrics itself; callers that want to correlate output by run pass it
// along explicitly.
func (k *Kernel) RunID() string { return k.runID }

// Clock returns the kernel's current simulation time.
func (k *Kernel) Clock() float64 { return k.clock }

// Stats returns a snapshot of the kernel's running counters.
func (k *Kernel) Stats() Stats {
	s := k.stats
	s.Pending = k.queue.len()
	s.Cancelled = k.queue.cancelledCount()
	return s
}

func (k *Kernel) loggerFor(id ComponentID) Logger {
	name, err := k.registry.nameOf(id)
	if err != nil {
		name = fmt.Sprintf("component#%d", id)
	}
	return k.filter.ForComponent(name)
}

// Register allocates a new component under name and returns its
// ComponentID, or ErrNameAlreadyRegistered if the name is taken.
func (k *Kernel) Register(name string) (ComponentID, error) {
	return k.registry.register(name)
}

// MustRegister is like Register but panics on error; intended for setup
// code (main functions, test fixtures) where a naming collision is a
// programming mistake, not a runtime condition to handle.
func (k *Kernel) MustRegister(name string) ComponentID {
	id, err := k.Register(name)
	if err != nil {
		panic(err)
	}
	return id
}

// CreateContext returns a new Context bound to id, or ErrUnknownComponent
// if id was never registered. Multiple Contexts may be created for the
// same id; all of them observe the same kernel state.
func (k *Kernel) CreateContext(id ComponentID) (*Context, error) {
	if !k.registry.valid(id) {
		return nil, ErrUnknownComponent
	}
	return &Context{k: k, self: id}, nil
}

// MustCreateContext is like CreateContext but panics on error.
func (k *Kernel) MustCreateContext(id ComponentID) *Context {
	ctx, err := k.CreateContext(id)
	if err != nil {
		panic(err)
	}
	return ctx
}

// AttachHandler attaches h to receive events addressed to id. It returns
// ErrUnknownComponent if id was never registered, or ErrHandlerAlreadySet
// if a handler is already attached.
func (k *Kernel) AttachHandler(id ComponentID, h EventHandler) error {
	return k.registry.setHandler(id, h)
}

// MustAttachHandler is like AttachHandler but panics on error.
func (k *Kernel) MustAttachHandler(id ComponentID, h EventHandler) {
	if err := k.AttachHandler(id, h); err != nil {
		panic(err)
	}
}

// DetachHandler removes whatever handler is attached to id, if any. It is
// a no-op, not an error, if no handler was attached.
func (k *Kernel) DetachHandler(id ComponentID) error {
	return k.registry.clearHandler(id)
}

func (k *Kernel) emit(src, dst ComponentID, payload any, delay float64, ordered bool) (EventID, error) {
	if delay < 0 {
		return 0, ErrNegativeDelay
	}
	if !k.registry.valid(dst) {
		return 0, ErrUnknownComponent
	}
	id := k.nextEventID
	k.nextEventID++
	ev := &Event{
		ID:      id,
		Time:    k.clock + delay,
		Src:     src,
		Dst:     dst,
		Payload: payload,
		seq:     uint64(id),
	}
	if ordered {
		if err := k.queue.pushOrdered(ev); err != nil {
			return 0, err
		}
	} else {
		k.queue.pushHeap(ev)
	}
	if k.metrics != nil {
		k.metrics.emitted.Inc()
	}
	return id, nil
}

// StepOne pops and delivers the single earliest pending event, advancing
// the clock to its scheduled time. It returns false if no event was
// pending. A handler error is returned unchanged: handler failures
// propagate out of Step.
func (k *Kernel) StepOne() (bool, error) {
	ev := k.queue.popMin()
	if ev == nil {
		return false, nil
	}
	if ev.Time < k.clock {
		return false, ErrStepBackwards
	}
	k.clock = ev.Time

	handler := k.registry.handlerOf(ev.Dst)
	if handler == nil {
		k.stats.Unhandled++
		if k.metrics != nil {
			k.metrics.unhandled.Inc()
		}
		k.loggerFor(ev.Dst).Warn("dropped event with no attached handler",
			"event_id", ev.ID, "dst", ev.Dst, "src", ev.Src)
		return true, nil
	}

	if err := handler.HandleEvent(context.Background(), *ev); err != nil {
		return true, err
	}
	k.stats.Processed++
	if k.metrics != nil {
		k.metrics.processed.Inc()
	}
	return true, nil
}

// StepN delivers up to n events, stopping early if the queue empties or a
// handler returns an error. It returns the number of events actually
// delivered.
func (k *Kernel) StepN(n int) (int, error) {
	delivered := 0
	for i := 0; i < n; i++ {
		ok, err := k.StepOne()
		if err != nil {
			return delivered, err
		}
		if !ok {
			break
		}
		delivered++
	}
	return delivered, nil
}

// StepUntilNoEvents drains the pending queue completely, delivering every
// event in order, and returns the number delivered.
func (k *Kernel) StepUntilNoEvents() (int, error) {
	delivered := 0
	for {
		ok, err := k.StepOne()
		if err != nil {
			return delivered, err
		}
		if !ok {
			return delivered, nil
		}
		delivered++
	}
}

// StepUntilTime delivers every live event scheduled at or before t, then
// advances the clock to t regardless of whether any event landed exactly
// there. peekMin already discards cancelled events as it scans, so a
// cancelled entry sitting at or before t never causes the loop to reach
// past t for a later live event.
func (k *Kernel) StepUntilTime(t float64) (int, error) {
	delivered := 0
	for {
		next := k.queue.peekMin()
		if next == nil || next.Time > t {
			break
		}
		ok, err := k.StepOne()
		if err != nil {
			return delivered, err
		}
		if !ok {
			break
		}
		delivered++
	}
	if t > k.clock {
		k.clock = t
	}
	return delivered, nil
}

// StepForDuration is shorthand for StepUntilTime(k.Clock() + d).
func (k *Kernel) StepForDuration(d float64) (int, error) {
	if d < 0 {
		return 0, ErrNegativeDuration
	}
	return k.StepUntilTime(k.clock + d)
}
