package instrumentation

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/desimkit/desim"
)

// tick is the internal payload a Component emits to itself; it is never
// visible to other components.
type tick struct{}

// Snapshot is whatever a Sampler reports at one tick. It carries the
// simulation time the sample was taken at, alongside the caller's own
// data, so a Sink can correlate many components' snapshots.
type Snapshot struct {
	Time float64
	Data any
}

// Sampler produces the data a Component reports on each tick, typically
// a kernel's Stats() merged with one or more tshare.Model ActiveCount()s.
type Sampler func() any

// Sink receives every Snapshot a Component produces, e.g. logging it,
// pushing it onto a debugserver feed, or translating it to a CloudEvents
// envelope with desim.ToCloudEvent.
type Sink func(Snapshot)

// Component periodically samples simulation state and reports it to a
// Sink, driven purely by the kernel's normal event delivery (EmitSelf plus
// Cancel), the pattern used for ambient, non-core
// observability built on top of the kernel rather than inside it.
type Component struct {
	name     string
	kernel   *desim.Kernel
	self     desim.ComponentID
	ctx      *desim.Context
	schedule cron.Schedule
	sample   Sampler
	sink     Sink
	pending  desim.EventID
	running  bool
}

// New registers a new instrumentation Component named name on k, firing
// according to cronExpr (a standard 6-field cron expression, seconds
// first) interpreted against simulated time.
func New(k *desim.Kernel, name, cronExpr string, sample Sampler, sink Sink) (*Component, error) {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("instrumentation: parse cron expression %q: %w", cronExpr, err)
	}
	id, err := k.Register(name)
	if err != nil {
		return nil, err
	}
	ctx, err := k.CreateContext(id)
	if err != nil {
		return nil, err
	}
	c := &Component{
		name:     name,
		kernel:   k,
		self:     id,
		ctx:      ctx,
		schedule: schedule,
		sample:   sample,
		sink:     sink,
	}
	if err := k.AttachHandler(id, desim.HandlerFunc(c.handleTick)); err != nil {
		return nil, err
	}
	return c, nil
}

// simTimeToWallClock anchors simulated seconds at the Unix epoch purely so
// the cron schedule, which operates on time.Time, has something to
// evaluate against. It carries no real-world meaning.
func simTimeToWallClock(simTime float64) time.Time {
	return time.Unix(0, int64(simTime*float64(time.Second))).UTC()
}

// Start schedules the component's first tick at or after the kernel's
// current time. Calling Start more than once is a no-op.
func (c *Component) Start() error {
	if c.running {
		return nil
	}
	c.running = true
	return c.scheduleNext()
}

// Stop cancels the component's next pending tick, if any.
func (c *Component) Stop() {
	if !c.running {
		return
	}
	c.ctx.Cancel(c.pending)
	c.running = false
}

func (c *Component) scheduleNext() error {
	now := c.ctx.Time()
	next := c.schedule.Next(simTimeToWallClock(now))
	delay := next.Sub(simTimeToWallClock(now)).Seconds()
	if delay < 0 {
		delay = 0
	}
	id, err := c.ctx.EmitSelf(tick{}, delay)
	if err != nil {
		return err
	}
	c.pending = id
	return nil
}

func (c *Component) handleTick(ctx context.Context, ev desim.Event) error {
	snap := Snapshot{Time: c.ctx.Time()}
	if c.sample != nil {
		snap.Data = c.sample()
	}
	if c.sink != nil {
		c.sink(snap)
	}
	if !c.running {
		return nil
	}
	return c.scheduleNext()
}
