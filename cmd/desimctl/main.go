// Command desimctl runs the end-to-end worked scenarios and
// prints their resulting event traces and finish times. It exists as a
// smoke test and as living documentation of desim's public contract; it
// adds no behavior of its own beyond what desim and modules/tshare
// already expose.
package main

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/desimkit/desim"
	"github.com/desimkit/desim/modules/tshare"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "desimctl",
		Short: "Run the desim worked scenarios and print their traces",
	}
	root.AddCommand(
		newScenarioCmd("ping-pong", runPingPong),
		newScenarioCmd("cancellation", runCancellation),
		newScenarioCmd("tshare-equal", runTShareEqual),
		newScenarioCmd("tshare-staggered", runTShareStaggered),
		newScenarioCmd("tshare-degraded", runTShareDegraded),
		newScenarioCmd("determinism", runDeterminism),
		newScenarioCmd("all", runAll),
	)
	return root
}

func newScenarioCmd(name string, run func()) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Run the %q scenario", name),
		Run:   func(cmd *cobra.Command, args []string) { run() },
	}
}

func runAll() {
	for _, s := range []struct {
		name string
		run  func()
	}{
		{"ping-pong", runPingPong},
		{"cancellation", runCancellation},
		{"tshare-equal", runTShareEqual},
		{"tshare-staggered", runTShareStaggered},
		{"tshare-degraded", runTShareDegraded},
		{"determinism", runDeterminism},
	} {
		fmt.Printf("=== %s ===\n", s.name)
		s.run()
	}
}

type ping struct{ payload float64 }
type pong struct{ payload float64 }

func runPingPong() {
	k := desim.New(1)
	a := k.MustRegister("A")
	b := k.MustRegister("B")
	actx := k.MustCreateContext(a)
	bctx := k.MustCreateContext(b)

	k.MustAttachHandler(b, desim.HandlerFunc(func(ctx context.Context, ev desim.Event) error {
		p := ev.Payload.(ping)
		fmt.Printf("B received Ping{%.1f} at t=%.1f\n", p.payload, k.Clock())
		_, err := bctx.Emit(pong{payload: 1.7}, a, 1.2)
		return err
	}))
	k.MustAttachHandler(a, desim.HandlerFunc(func(ctx context.Context, ev desim.Event) error {
		p := ev.Payload.(pong)
		fmt.Printf("A received Pong{%.1f} at t=%.1f\n", p.payload, k.Clock())
		return nil
	}))

	_, _ = actx.Emit(ping{payload: 0.5}, b, 0.5)
	delivered, _ := k.StepUntilNoEvents()
	fmt.Printf("done: time=%.1f delivered=%d\n", k.Clock(), delivered)
}

func runCancellation() {
	k := desim.New(1)
	a := k.MustRegister("A")
	actx := k.MustCreateContext(a)

	k.MustAttachHandler(a, desim.HandlerFunc(func(ctx context.Context, ev desim.Event) error {
		fmt.Printf("delivered %v at t=%.1f\n", ev.Payload, k.Clock())
		return nil
	}))

	_, _ = actx.Emit("one", a, 1)
	mid, _ := actx.Emit("two", a, 2)
	_, _ = actx.Emit("three", a, 3)
	actx.Cancel(mid)

	for i := 0; i < 3; i++ {
		ok, _ := k.StepOne()
		if !ok {
			fmt.Println("no more events")
		}
	}
	fmt.Printf("unhandled=%d\n", k.Stats().Unhandled)
}

func runTShareEqual() {
	m := tshare.NewModel(func(int) float64 { return 100 })
	_, _ = m.Insert("x", 50, 0)
	_, _ = m.Insert("y", 50, 0)
	ft1, p1, _, _ := m.Pop(0)
	ft2, p2, _, _ := m.Pop(ft1)
	fmt.Printf("%v finishes at %.3f\n%v finishes at %.3f\n", p1, ft1, p2, ft2)
}

func runTShareStaggered() {
	m := tshare.NewModel(func(int) float64 { return 100 })
	_, _ = m.Insert("first", 100, 0)
	_, _ = m.Insert("second", 100, 0.5)
	ft1, p1, _, _ := m.Pop(0.5)
	ft2, p2, _, _ := m.Pop(ft1)
	fmt.Printf("%v finishes at %.3f\n%v finishes at %.3f\n", p1, ft1, p2, ft2)
}

func runTShareDegraded() {
	m := tshare.NewModel(func(n int) float64 { return 100 / math.Sqrt(float64(n)) })
	for i := 0; i < 3; i++ {
		_, _ = m.Insert(i, 30, 0)
	}
	now := 0.0
	for m.ActiveCount() > 0 {
		ft, p, _, _ := m.Pop(now)
		fmt.Printf("%v finishes at %.4f\n", p, ft)
		now = ft
	}
}

func runDeterminism() {
	trace := func() []desim.EventID {
		k := desim.New(42)
		a := k.MustRegister("A")
		b := k.MustRegister("B")
		actx := k.MustCreateContext(a)
		var ids []desim.EventID
		k.MustAttachHandler(b, desim.HandlerFunc(func(ctx context.Context, ev desim.Event) error {
			ids = append(ids, ev.ID)
			return nil
		}))
		for i := 0; i < 5; i++ {
			_, _ = actx.Emit(i, b, actx.GenRange(0, 10))
		}
		_, _ = k.StepUntilNoEvents()
		return ids
	}
	first, second := trace(), trace()
	match := len(first) == len(second)
	for i := range first {
		if !match {
			break
		}
		match = first[i] == second[i]
	}
	fmt.Printf("run 1: %v\nrun 2: %v\nidentical: %v\n", first, second, match)
}
