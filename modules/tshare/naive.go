package tshare

import "sort"

// naiveActivity tracks remaining volume directly, the O(n) representation
// NaiveModel uses as a reference cross-check for the fast algorithm.
type naiveActivity struct {
	id       uint64
	payload  any
	volume   float64
	factor   float64
	insertAt float64
	seq      uint64
}

// NaiveModel is the O(n)-per-operation reference implementation of the
// throughput-sharing model: on every insert or pop it recomputes each
// activity's remaining volume from the elapsed time and the current
// per-item throughput, then re-sorts. It exists to cross-check Model's
// fast algorithm in tests, not for production use.
type NaiveModel struct {
	rate       RateFunc
	factor     FactorFunc
	activities []*naiveActivity
	lastTime   float64
	nextSeq    uint64
}

// NewNaiveModel creates an empty NaiveModel sharing its resource
// according to rate.
func NewNaiveModel(rate RateFunc, opts ...Option) *NaiveModel {
	shim := &Model{}
	for _, opt := range opts {
		opt(shim)
	}
	return &NaiveModel{rate: rate, factor: shim.factor}
}

func (m *NaiveModel) factorOf(payload any) float64 {
	if m.factor == nil {
		return 1
	}
	return m.factor(payload)
}

// settle subtracts the work completed since lastTime from every
// activity's remaining volume, using the throughput in effect over that
// interval (based on the activity count before this call's own
// insert/pop changes it).
func (m *NaiveModel) settle(now float64) error {
	if now < m.lastTime {
		return ErrTimeWentBackwards
	}
	n := len(m.activities)
	if n > 0 {
		rate := m.rate(n)
		if rate <= 0 {
			return ErrNonPositiveRate
		}
		perItem := rate / float64(n)
		elapsed := now - m.lastTime
		for _, a := range m.activities {
			a.volume -= elapsed * perItem * a.factor
		}
	}
	m.lastTime = now
	sort.SliceStable(m.activities, func(i, j int) bool {
		vi, vj := m.activities[i].volume/m.activities[i].factor, m.activities[j].volume/m.activities[j].factor
		if vi != vj {
			return vi < vj
		}
		return m.activities[i].seq < m.activities[j].seq
	})
	return nil
}

// Insert adds one activity of the given volume at time now.
func (m *NaiveModel) Insert(payload any, volume float64, now float64) (uint64, error) {
	if volume <= 0 {
		return 0, ErrNonPositiveVolume
	}
	factor := m.factorOf(payload)
	if factor <= 0 {
		return 0, ErrNonPositiveFactor
	}
	if err := m.settle(now); err != nil {
		return 0, err
	}
	id := m.nextSeq
	m.nextSeq++
	m.activities = append(m.activities, &naiveActivity{
		id: id, payload: payload, volume: volume, factor: factor, insertAt: now, seq: id,
	})
	return id, nil
}

// finishTimeOf predicts when the first (smallest remaining-work) activity
// will reach zero remaining volume, given the throughput in effect now.
func (m *NaiveModel) finishTimeOf() float64 {
	n := len(m.activities)
	a := m.activities[0]
	perItem := m.rate(n) / float64(n)
	remaining := a.volume / a.factor
	if remaining <= 0 {
		return m.lastTime
	}
	return m.lastTime + remaining/perItem
}

// Peek reports the finish time and payload of the earliest-finishing
// activity without removing it.
func (m *NaiveModel) Peek(now float64) (finishTime float64, payload any, ok bool, err error) {
	if err := m.settle(now); err != nil {
		return 0, nil, false, err
	}
	if len(m.activities) == 0 {
		return 0, nil, false, nil
	}
	return m.finishTimeOf(), m.activities[0].payload, true, nil
}

// Pop removes and returns the earliest-finishing activity.
func (m *NaiveModel) Pop(now float64) (finishTime float64, payload any, ok bool, err error) {
	if err := m.settle(now); err != nil {
		return 0, nil, false, err
	}
	if len(m.activities) == 0 {
		return 0, nil, false, nil
	}
	ft := m.finishTimeOf()
	p := m.activities[0].payload
	m.activities = m.activities[1:]
	return ft, p, true, nil
}

// ActiveCount returns the number of activities currently tracked.
func (m *NaiveModel) ActiveCount() int { return len(m.activities) }
