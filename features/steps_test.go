package features

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/cucumber/godog"

	"github.com/desimkit/desim"
	"github.com/desimkit/desim/modules/tshare"
)

type pingPayload struct{ value float64 }
type pongPayload struct{ value float64 }

type world struct {
	kernel     *desim.Kernel
	components map[string]desim.ComponentID
	contexts   map[string]*desim.Context
	delivered  int

	cancelMid desim.EventID

	tmodel *tshare.Model
	tnow   float64

	kernelA, kernelB *desim.Kernel
	traceA, traceB   []desim.EventID
}

func newWorld() *world {
	return &world{
		components: make(map[string]desim.ComponentID),
		contexts:   make(map[string]*desim.Context),
	}
}

func (w *world) aKernelSeededWith(seed int) error {
	w.kernel = desim.New(int64(seed))
	return nil
}

func (w *world) componentsAreRegistered(names string) error {
	for _, name := range splitQuoted(names) {
		id := w.kernel.MustRegister(name)
		w.components[name] = id
		w.contexts[name] = w.kernel.MustCreateContext(id)
	}
	return nil
}

func (w *world) componentIsRegistered(name string) error {
	id := w.kernel.MustRegister(name)
	w.components[name] = id
	w.contexts[name] = w.kernel.MustCreateContext(id)
	return nil
}

func (w *world) aEmitsAPingToBWithDelay(from string, value float64, to string, delay float64) error {
	toID := w.components[to]
	_, err := w.contexts[from].Emit(pingPayload{value: value}, toID, delay)
	return err
}

func (w *world) bRepliesWithAPongToAWithDelayOnReceipt(from string, value float64, to string, delay float64) error {
	toID := w.components[to]
	selfID := w.components[from]
	w.kernel.MustAttachHandler(selfID, desim.HandlerFunc(func(ctx context.Context, ev desim.Event) error {
		w.delivered++
		_, err := w.contexts[from].Emit(pongPayload{value: value}, toID, delay)
		return err
	}))
	// The receiving side ("A") also needs a handler so its own delivery
	// counts, even though it does nothing further.
	for name, id := range w.components {
		if id == toID {
			w.kernel.MustAttachHandler(id, desim.HandlerFunc(func(ctx context.Context, ev desim.Event) error {
				w.delivered++
				return nil
			}))
			_ = name
		}
	}
	return nil
}

func (w *world) theKernelStepsUntilNoEventsRemain() error {
	_, err := w.kernel.StepUntilNoEvents()
	return err
}

func (w *world) theKernelsClockIs(expected float64) error {
	if w.kernel.Clock() != expected {
		return fmt.Errorf("expected clock %v, got %v", expected, w.kernel.Clock())
	}
	return nil
}

func (w *world) eventsHaveBeenDelivered(n int) error {
	if w.delivered != n {
		return fmt.Errorf("expected %d delivered events, got %d", n, w.delivered)
	}
	return nil
}

var deliveryTimes []float64

func (w *world) aEmitsEventsToItselfAtDelays(name string, n int) error {
	deliveryTimes = nil
	self := w.components[name]
	ctx := w.contexts[name]
	w.kernel.MustAttachHandler(self, desim.HandlerFunc(func(ctx context.Context, ev desim.Event) error {
		deliveryTimes = append(deliveryTimes, w.kernel.Clock())
		return nil
	}))
	for _, d := range []float64{1, 2, 3} {
		id, err := ctx.Emit("tick", self, d)
		if err != nil {
			return err
		}
		if d == 2 {
			w.cancelMid = id
		}
	}
	_ = n
	return nil
}

func (w *world) aCancelsTheSecondOfThoseEventsBeforeStepping(name string) error {
	w.contexts[name].Cancel(w.cancelMid)
	return nil
}

func (w *world) theKernelStepsNTimes(n int) error {
	for i := 0; i < n; i++ {
		if _, err := w.kernel.StepOne(); err != nil {
			return err
		}
	}
	return nil
}

func (w *world) eventsWereDeliveredAtTimesAnd(t1, t2 float64) error {
	if len(deliveryTimes) != 2 || deliveryTimes[0] != t1 || deliveryTimes[1] != t2 {
		return fmt.Errorf("expected delivery times [%v %v], got %v", t1, t2, deliveryTimes)
	}
	return nil
}

func (w *world) theUnhandledCounterIs(n int) error {
	if w.kernel.Stats().Unhandled != n {
		return fmt.Errorf("expected unhandled=%d, got %d", n, w.kernel.Stats().Unhandled)
	}
	return nil
}

func (w *world) aThroughputSharingModelWithConstantRate(rate float64) error {
	w.tmodel = tshare.NewModel(func(int) float64 { return rate })
	return nil
}

func (w *world) aThroughputSharingModelWithRateDividedBySqrtN() error {
	w.tmodel = tshare.NewModel(func(n int) float64 { return 100 / math.Sqrt(float64(n)) })
	return nil
}

func (w *world) twoActivitiesOfVolumeAreInsertedAtTime(volume, at float64) error {
	if _, err := w.tmodel.Insert("first", volume, at); err != nil {
		return err
	}
	if _, err := w.tmodel.Insert("second", volume, at); err != nil {
		return err
	}
	w.tnow = at
	return nil
}

func (w *world) anActivityOfVolumeIsInsertedAtTime(volume, at float64) error {
	_, err := w.tmodel.Insert(fmt.Sprintf("activity-at-%v", at), volume, at)
	if err == nil {
		w.tnow = at
	}
	return err
}

func (w *world) threeActivitiesOfVolumeAreInsertedAtTime(volume, at float64) error {
	for i := 0; i < 3; i++ {
		if _, err := w.tmodel.Insert(i, volume, at); err != nil {
			return err
		}
	}
	w.tnow = at
	return nil
}

func (w *world) theFirstPopFinishesAt(expected float64) error {
	ft, _, ok, err := w.tmodel.Pop(w.tnow)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("expected a pop, got none")
	}
	w.tnow = ft
	return approxEqual(expected, ft)
}

func (w *world) theSecondPopFinishesAt(expected float64) error {
	ft, _, ok, err := w.tmodel.Pop(w.tnow)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("expected a pop, got none")
	}
	w.tnow = ft
	return approxEqual(expected, ft)
}

func (w *world) allThreePopsFinishAtApproximately(expected float64) error {
	for i := 0; i < 3; i++ {
		ft, _, ok, err := w.tmodel.Pop(w.tnow)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("expected a pop, got none")
		}
		if err := approxEqual(expected, ft); err != nil {
			return err
		}
		w.tnow = ft
	}
	return nil
}

func approxEqual(want, got float64) error {
	if math.Abs(want-got) > 1e-3 {
		return fmt.Errorf("expected approximately %v, got %v", want, got)
	}
	return nil
}

func (w *world) twoKernelsBothSeededWith(seed int) error {
	w.kernelA = desim.New(int64(seed))
	w.kernelB = desim.New(int64(seed))
	return nil
}

func runDeterminismTrace(k *desim.Kernel) []desim.EventID {
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

func (w *world) theSameEmitSequenceRunsOnBoth() error {
	w.traceA = runDeterminismTrace(w.kernelA)
	w.traceB = runDeterminismTrace(w.kernelB)
	return nil
}

func (w *world) bothKernelsProduceAnIdenticalEventTrace() error {
	if len(w.traceA) != len(w.traceB) {
		return fmt.Errorf("trace length mismatch: %v vs %v", w.traceA, w.traceB)
	}
	for i := range w.traceA {
		if w.traceA[i] != w.traceB[i] {
			return fmt.Errorf("trace mismatch at %d: %v vs %v", i, w.traceA, w.traceB)
		}
	}
	return nil
}

func splitQuoted(s string) []string {
	var out []string
	var cur []rune
	inQuote := false
	for _, r := range s {
		switch {
		case r == '"':
			if inQuote {
				out = append(out, string(cur))
				cur = nil
			}
			inQuote = !inQuote
		case inQuote:
			cur = append(cur, r)
		}
	}
	return out
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	w := newWorld()

	ctx.Step(`^a kernel seeded with (\d+)$`, w.aKernelSeededWith)
	ctx.Step(`^components "([^"]*)" and "([^"]*)" are registered$`, func(a, b string) error {
		return w.componentsAreRegistered(fmt.Sprintf("%q %q", a, b))
	})
	ctx.Step(`^component "([^"]*)" is registered$`, w.componentIsRegistered)
	ctx.Step(`^"([^"]*)" emits a ping of ([\d.]+) to "([^"]*)" with delay ([\d.]+)$`, w.aEmitsAPingToBWithDelay)
	ctx.Step(`^"([^"]*)" replies with a pong of ([\d.]+) to "([^"]*)" with delay ([\d.]+) on receipt$`, w.bRepliesWithAPongToAWithDelayOnReceipt)
	ctx.Step(`^the kernel steps until no events remain$`, w.theKernelStepsUntilNoEventsRemain)
	ctx.Step(`^the kernel's clock is ([\d.]+)$`, w.theKernelsClockIs)
	ctx.Step(`^(\d+) events have been delivered$`, w.eventsHaveBeenDelivered)

	ctx.Step(`^"([^"]*)" emits (\d+) events to itself at delays 1, 2 and 3$`, w.aEmitsEventsToItselfAtDelays)
	ctx.Step(`^"([^"]*)" cancels the second of those events before stepping$`, w.aCancelsTheSecondOfThoseEventsBeforeStepping)
	ctx.Step(`^the kernel steps (\d+) times$`, w.theKernelStepsNTimes)
	ctx.Step(`^events were delivered at times (\d+) and (\d+)$`, func(a, b float64) error {
		return w.eventsWereDeliveredAtTimesAnd(a, b)
	})
	ctx.Step(`^the unhandled counter is (\d+)$`, w.theUnhandledCounterIs)

	ctx.Step(`^a throughput-sharing model with constant rate (\d+)$`, w.aThroughputSharingModelWithConstantRate)
	ctx.Step(`^a throughput-sharing model with rate 100 divided by the square root of n$`, w.aThroughputSharingModelWithRateDividedBySqrtN)
	ctx.Step(`^two activities of volume (\d+) are inserted at time (\d+)$`, w.twoActivitiesOfVolumeAreInsertedAtTime)
	ctx.Step(`^an activity of volume (\d+) is inserted at time (\d+)$`, w.anActivityOfVolumeIsInsertedAtTime)
	ctx.Step(`^another activity of volume (\d+) is inserted at time ([\d.]+)$`, w.anActivityOfVolumeIsInsertedAtTime)
	ctx.Step(`^three activities of volume (\d+) are inserted at time (\d+)$`, w.threeActivitiesOfVolumeAreInsertedAtTime)
	ctx.Step(`^the first pop finishes at ([\d.]+)$`, w.theFirstPopFinishesAt)
	ctx.Step(`^the second pop finishes at ([\d.]+)$`, w.theSecondPopFinishesAt)
	ctx.Step(`^all three pops finish at approximately ([\d.]+)$`, w.allThreePopsFinishAtApproximately)

	ctx.Step(`^two kernels both seeded with (\d+)$`, w.twoKernelsBothSeededWith)
	ctx.Step(`^the same emit sequence runs on both$`, w.theSameEmitSequenceRunsOnBoth)
	ctx.Step(`^both kernels produce an identical event trace$`, w.bothKernelsProduceAnIdenticalEventTrace)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"scenarios.feature"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
