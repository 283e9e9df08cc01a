package desim

import "context"

// EventHandler is the callback a component attaches to receive events
// addressed to it. It is handed
// the standard library context.Context for cancellation/deadline plumbing
// in handlers that call out to external code, and the Event being
// delivered.
//
// A handler error is a "handler failure":
// it propagates out of the Step call that triggered it rather than being
// swallowed, since the kernel has no way to know whether the failure
// leaves the model in a usable state.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev Event) error
}

// HandlerFunc adapts an ordinary function to the EventHandler interface,
// the same adapter shape as http.HandlerFunc.
type HandlerFunc func(ctx context.Context, ev Event) error

func (f HandlerFunc) HandleEvent(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Component is the minimal identity every participant in a simulation
// must provide. Most components will additionally implement EventHandler,
// but the two are kept separate so a component can exist purely as an
// addressable name without ever receiving
// events — for instance, an external observer that only emits.
type Component interface {
	Name() string
}

// NamedComponent is a trivial Component built from a plain string, handy
// for components that have no other state worth a dedicated type.
type NamedComponent string

func (n NamedComponent) Name() string { return string(n) }
