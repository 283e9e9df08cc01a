// Package desim provides a reusable discrete-event simulation kernel.
//
// The kernel drives arbitrary user-defined components through a
// time-ordered event stream. It owns the virtual clock, the pending-event
// priority queue, the component registry, the shared random number
// generator, and a configurable logger, and exposes a Context handle to
// components for emitting, cancelling, and logging events.
//
// Basic usage:
//
//	k := desim.New(42)
//	a := k.MustRegister("A")
//	b := k.MustRegister("B")
//	bctx := k.MustCreateContext(b)
//	k.MustAttachHandler(b, desim.HandlerFunc(func(ctx context.Context, ev desim.Event) error {
//		bctx.Emit("pong", a, 1.2)
//		return nil
//	}))
//	actx := k.MustCreateContext(a)
//	actx.Emit("ping", b, 0.5)
//	k.StepUntilNoEvents()
//
// The companion package modules/tshare implements the fair-sharing
// throughput model used to compute completion times for activities that
// compete for one shared resource (network links, disks, CPUs); domain
// components built on top of this kernel typically use it internally and
// then emit completion events through their Context.
package desim
