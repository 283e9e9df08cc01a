package tshare

import "container/heap"

// resetThreshold is the point at which the monotonically growing total-work
// accumulator gets folded back down to keep it within float64 precision.
const resetThreshold = 1e12

// RateFunc gives the shared resource's total throughput when n activities
// are concurrently in flight. It must be strictly positive for every
// n >= 1.
type RateFunc func(n int) float64

// FactorFunc multiplies the effective work rate one activity perceives,
// e.g. a message-size-to-latency or disk-block-to-seek-cost multiplier.
// It must be strictly positive. A nil FactorFunc is equivalent to a
// constant 1 for every payload.
type FactorFunc func(payload any) float64

// activity is one unit of shared work tracked by Model's fast algorithm.
// fw is the fixed finish-work value computed at insertion time; it never
// changes afterwards except during an overflow reset, when it is shifted
// by the same amount as tw.
type activity struct {
	id      uint64
	payload any
	fw      float64
	seq     uint64 // insertion order, for deterministic tie-breaking
}

// activityHeap orders activities by (fw ascending, seq ascending), giving
// the minimum-fw (earliest-finishing) activity in O(log n) and breaking
// ties by insertion order.
type activityHeap []*activity

func (h activityHeap) Len() int { return len(h) }

func (h activityHeap) Less(i, j int) bool {
	if h[i].fw != h[j].fw {
		return h[i].fw < h[j].fw
	}
	return h[i].seq < h[j].seq
}

func (h activityHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *activityHeap) Push(x any) { *h = append(*h, x.(*activity)) }

func (h *activityHeap) Pop() any {
	old := *h
	n := len(old)
	a := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return a
}

// Option configures a Model at construction time.
type Option func(*Model)

// WithFactor sets the per-activity factor function. Without this option
// every activity's factor is 1.
func WithFactor(f FactorFunc) Option {
	return func(m *Model) { m.factor = f }
}

// WithMetrics registers this Model's Prometheus collectors against reg,
// labelled with name (typically the shared resource's identity, e.g. a
// link or disk name) so multiple Models in one process stay distinguishable.
func WithMetrics(reg prometheusRegisterer, name string) Option {
	return func(m *Model) { m.metrics = newMetrics(reg, name) }
}

// WithResetThreshold overrides the point at which Model folds its total-work
// accumulator back down.
func WithResetThreshold(threshold float64) Option {
	return func(m *Model) { m.resetThreshold = threshold }
}

// Model is the O(log n) fast-algorithm implementation of the
// throughput-sharing model.
type Model struct {
	rate   RateFunc
	factor FactorFunc

	heap           activityHeap
	tw             float64
	lastTime       float64
	nextSeq        uint64
	metrics        *metrics
	resetThreshold float64
}

// NewModel creates an empty Model that shares its resource according to
// rate. rate is fixed for the model's lifetime.
func NewModel(rate RateFunc, opts ...Option) *Model {
	m := &Model{rate: rate, resetThreshold: resetThreshold}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Model) factorOf(payload any) float64 {
	if m.factor == nil {
		return 1
	}
	return m.factor(payload)
}

// advance brings the model's bookkeeping up to now, folding in the work
// completed by every currently in-flight activity since the last
// recorded time, using the throughput that applied over that interval
// (i.e. based on the activity count *before* whatever insert/pop triggered
// this call).
func (m *Model) advance(now float64) error {
	if now < m.lastTime {
		return ErrTimeWentBackwards
	}
	if n := m.heap.Len(); n > 0 {
		rate := m.rate(n)
		if rate <= 0 {
			return ErrNonPositiveRate
		}
		perItem := rate / float64(n)
		m.tw += (now - m.lastTime) * perItem
	}
	m.lastTime = now
	m.maybeReset()
	return nil
}

// maybeReset performs the semantically-invisible overflow reset described
// once tw crosses resetThreshold.
func (m *Model) maybeReset() {
	if m.tw <= m.resetThreshold {
		return
	}
	shift := m.tw
	for _, a := range m.heap {
		a.fw -= shift
	}
	m.tw -= shift
	if m.metrics != nil {
		m.metrics.resets.Inc()
	}
}

// Insert adds one activity of the given volume at time now, returning its
// id. volume must be positive; now must not be earlier than the time of
// any previous operation on this Model.
func (m *Model) Insert(payload any, volume float64, now float64) (uint64, error) {
	if volume <= 0 {
		return 0, ErrNonPositiveVolume
	}
	factor := m.factorOf(payload)
	if factor <= 0 {
		return 0, ErrNonPositiveFactor
	}
	if err := m.advance(now); err != nil {
		return 0, err
	}
	id := m.nextSeq
	m.nextSeq++
	a := &activity{id: id, payload: payload, fw: m.tw + volume/factor, seq: id}
	heap.Push(&m.heap, a)
	if m.metrics != nil {
		m.metrics.active.Set(float64(m.heap.Len()))
		m.metrics.inserted.Inc()
	}
	return id, nil
}

// predictFinish returns the absolute time at which a currently sits at
// the front of the heap (i.e. still counted in the current n) will reach
// its finish-work value, given the throughput that applies right now.
func (m *Model) predictFinish(a *activity) float64 {
	n := m.heap.Len()
	perItem := m.rate(n) / float64(n)
	remaining := a.fw - m.tw
	if remaining <= 0 {
		return m.lastTime
	}
	return m.lastTime + remaining/perItem
}

// Peek reports the finish time and payload of the earliest-finishing
// activity without removing it, or ok=false if the model is empty.
func (m *Model) Peek(now float64) (finishTime float64, payload any, ok bool, err error) {
	if err := m.advance(now); err != nil {
		return 0, nil, false, err
	}
	if m.heap.Len() == 0 {
		return 0, nil, false, nil
	}
	top := m.heap[0]
	return m.predictFinish(top), top.payload, true, nil
}

// Pop removes and returns the finish time and payload of the
// earliest-finishing activity, or ok=false if the model is empty.
func (m *Model) Pop(now float64) (finishTime float64, payload any, ok bool, err error) {
	if err := m.advance(now); err != nil {
		return 0, nil, false, err
	}
	if m.heap.Len() == 0 {
		return 0, nil, false, nil
	}
	top := m.heap[0]
	ft := m.predictFinish(top)
	heap.Pop(&m.heap)
	if m.metrics != nil {
		m.metrics.active.Set(float64(m.heap.Len()))
		m.metrics.popped.Inc()
	}
	return ft, top.payload, true, nil
}

// ActiveCount returns the number of activities currently tracked.
func (m *Model) ActiveCount() int { return m.heap.Len() }
