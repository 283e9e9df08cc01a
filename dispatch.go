package desim

import (
	"context"
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// timeFromSimClock maps a simulation clock reading to a time.Time anchored
// at the Unix epoch, purely so CloudEvents envelopes (which require a real
// timestamp) carry something that sorts the same way the simulation's own
// virtual clock does. It has no wall-clock meaning.
func timeFromSimClock(simTime float64) time.Time {
	return time.Unix(0, int64(simTime*float64(time.Second)))
}

// Tagged is implemented by payload types that want an explicit dispatch
// tag instead of being matched by Go's dynamic type name. Components with
// a handful of payload variants usually don't need this; it exists for
// components whose payloads cross a process boundary (see ToCloudEvent)
// and so need a stable tag independent of the Go type name.
type Tagged interface {
	Tag() string
}

func tagOf(payload any) string {
	if t, ok := payload.(Tagged); ok {
		return t.Tag()
	}
	return fmt.Sprintf("%T", payload)
}

// TypeTag returns the dispatch tag a Dispatcher would use for payload:
// its Tag() result if it implements Tagged, otherwise its Go type name.
// Exposed for host code (e.g. debugserver) that wants to label an event
// without duplicating Dispatcher's own tagging rule.
func TypeTag(payload any) string { return tagOf(payload) }

// Dispatcher routes events to per-payload-tag handlers: a component with
// several event shapes registers one handler per shape instead of a
// single HandleEvent with a type switch. It implements EventHandler
// itself, so it can be attached directly via Kernel.AttachHandler.
type Dispatcher struct {
	handlers map[string]func(ctx context.Context, ev Event) error
}

// NewDispatcher returns an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]func(ctx context.Context, ev Event) error)}
}

// On registers fn to handle any event whose payload tag equals tag. A
// payload's tag is its Tag() result if it implements Tagged, otherwise
// its Go type name via fmt's %T verb.
func (d *Dispatcher) On(tag string, fn func(ctx context.Context, ev Event) error) *Dispatcher {
	d.handlers[tag] = fn
	return d
}

// HandleEvent implements EventHandler by dispatching ev to whichever
// handler was registered for ev.Payload's tag, or returning
// ErrUnhandledVariant if none matches.
func (d *Dispatcher) HandleEvent(ctx context.Context, ev Event) error {
	fn, ok := d.handlers[tagOf(ev.Payload)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnhandledVariant, tagOf(ev.Payload))
	}
	return fn(ctx, ev)
}

// ToCloudEvent wraps ev in a cloudevents.Event, using tagOf(ev.Payload) as
// the CloudEvents "type" attribute and source as the "source" attribute.
// It exists for components that bridge a simulation's internal event
// stream out to an external bus, not for normal
// in-kernel dispatch, which never needs the envelope.
func ToCloudEvent(ev Event, source string) (cloudevents.Event, error) {
	ce := cloudevents.NewEvent()
	ce.SetID(fmt.Sprintf("%d", ev.ID))
	ce.SetType(tagOf(ev.Payload))
	ce.SetSource(source)
	ce.SetTime(timeFromSimClock(ev.Time))
	if err := ce.SetData(cloudevents.ApplicationJSON, ev.Payload); err != nil {
		return cloudevents.Event{}, err
	}
	return ce, nil
}
