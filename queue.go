package desim

import "container/heap"

// eventHeap is a binary heap of *Event ordered by (Time ascending, ID
// ascending), the canonical delivery ordering and tie-break rule.
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}
	return h[i].ID < h[j].ID
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(*Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return ev
}

// orderedTail is the per-source FIFO used by the emit-ordered fast path
//. Events pushed here are
// asserted by the caller to have non-decreasing scheduled times, so
// appending is O(1); the queue never needs to re-sort its own contents,
// only to be merged against the main heap and the other sources' tails at
// pop time.
type orderedTail struct {
	events   []*Event
	head     int // index of the first not-yet-popped event
	lastTime float64
	hasLast  bool
}

func (t *orderedTail) empty() bool { return t.head >= len(t.events) }

func (t *orderedTail) front() *Event {
	if t.empty() {
		return nil
	}
	return t.events[t.head]
}

func (t *orderedTail) popFront() *Event {
	ev := t.events[t.head]
	t.events[t.head] = nil
	t.head++
	// Reclaim the backing array once fully drained so a long-lived source
	// doesn't pin an ever-growing slice.
	if t.head == len(t.events) {
		t.events = nil
		t.head = 0
	}
	return ev
}

// pendingQueue is the kernel's full pending-event store: the main heap for
// events emitted via Emit, plus one orderedTail per source that has used
// EmitOrdered, plus the logical cancellation set shared by both paths
//.
type pendingQueue struct {
	heap      eventHeap
	ordered   map[ComponentID]*orderedTail
	active    []ComponentID // sources with a non-empty orderedTail, for fast scanning
	cancelled map[EventID]struct{}

	cancelledTotal     int // running count of discarded cancelled events
	onCancelledDiscard func()
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{
		ordered:   make(map[ComponentID]*orderedTail),
		cancelled: make(map[EventID]struct{}),
	}
}

// pushHeap inserts ev on the general O(log n) path.
func (q *pendingQueue) pushHeap(ev *Event) {
	heap.Push(&q.heap, ev)
}

// pushOrdered inserts ev on the per-source fast path. It returns
// ErrEmitOrderedViolation if ev.Time is smaller than the last time pushed
// for the same source, since that would break the FIFO-implies-sorted
// assumption the merge step at pop time relies on.
func (q *pendingQueue) pushOrdered(ev *Event) error {
	tail, ok := q.ordered[ev.Src]
	if !ok {
		tail = &orderedTail{}
		q.ordered[ev.Src] = tail
	}
	if tail.hasLast && ev.Time < tail.lastTime {
		return ErrEmitOrderedViolation
	}
	wasEmpty := tail.empty()
	tail.events = append(tail.events, ev)
	tail.lastTime = ev.Time
	tail.hasLast = true
	if wasEmpty {
		q.active = append(q.active, ev.Src)
	}
	return nil
}

func less(a, b *Event) bool {
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	return a.ID < b.ID
}

// findMin locates the earliest-keyed event across the heap and every
// active ordered tail without removing anything. fromHeap reports
// whether it came from the heap; otherwise tailIdx indexes q.active.
// Returns a nil event if the queue holds nothing at all.
func (q *pendingQueue) findMin() (ev *Event, fromHeap bool, tailIdx int) {
	var heapTop *Event
	if len(q.heap) > 0 {
		heapTop = q.heap[0]
	}

	bestIdx := -1
	var bestTail *Event
	for i, src := range q.active {
		front := q.ordered[src].front()
		if front == nil {
			continue
		}
		if bestTail == nil || less(front, bestTail) {
			bestTail = front
			bestIdx = i
		}
	}

	switch {
	case heapTop == nil && bestTail == nil:
		return nil, false, -1
	case heapTop == nil:
		return bestTail, false, bestIdx
	case bestTail == nil:
		return heapTop, true, -1
	case less(heapTop, bestTail):
		return heapTop, true, -1
	default:
		return bestTail, false, bestIdx
	}
}

// removeAt physically removes the event findMin identified at (fromHeap,
// tailIdx) and returns it.
func (q *pendingQueue) removeAt(fromHeap bool, tailIdx int) *Event {
	if fromHeap {
		return heap.Pop(&q.heap).(*Event)
	}
	return q.popActiveAt(tailIdx)
}

// discardCancelled physically removes the cancelled event findMin located
// at (fromHeap, tailIdx), drops it from the cancellation set and bumps the
// running discard count, notifying the kernel so Prometheus and Stats()
// stay in sync with each other.
func (q *pendingQueue) discardCancelled(fromHeap bool, tailIdx int) {
	ev := q.removeAt(fromHeap, tailIdx)
	delete(q.cancelled, ev.ID)
	q.cancelledTotal++
	if q.onCancelledDiscard != nil {
		q.onCancelledDiscard()
	}
}

// cancelledCount returns the running total of cancelled events discarded
// so far by peekMin/popMin.
func (q *pendingQueue) cancelledCount() int { return q.cancelledTotal }

// peekMin returns the earliest-keyed live (non-cancelled) event across the
// heap and every active ordered tail, without removing it, or nil if no
// live event remains. Cancelled events encountered along the way are
// permanently discarded, the same as popMin does, since a peek is the only
// chance some callers (StepUntilTime) get to inspect them before deciding
// whether to stop.
func (q *pendingQueue) peekMin() *Event {
	for {
		ev, fromHeap, idx := q.findMin()
		if ev == nil {
			return nil
		}
		if _, dead := q.cancelled[ev.ID]; !dead {
			return ev
		}
		q.discardCancelled(fromHeap, idx)
	}
}

// popMin removes and returns the earliest-keyed live (non-cancelled) event,
// discarding any cancelled events it encounters along the way, or returns
// nil if no live event remains.
func (q *pendingQueue) popMin() *Event {
	for {
		ev, fromHeap, idx := q.findMin()
		if ev == nil {
			return nil
		}
		if _, dead := q.cancelled[ev.ID]; dead {
			q.discardCancelled(fromHeap, idx)
			continue
		}
		return q.removeAt(fromHeap, idx)
	}
}

func (q *pendingQueue) popActiveAt(i int) *Event {
	src := q.active[i]
	tail := q.ordered[src]
	ev := tail.popFront()
	if tail.empty() {
		q.active = append(q.active[:i], q.active[i+1:]...)
	}
	return ev
}

// cancel marks id cancelled; a future pop that encounters it will discard
// it silently.
func (q *pendingQueue) cancel(id EventID) {
	q.cancelled[id] = struct{}{}
}

// len reports the number of live (non-cancelled) events still pending.
// It is O(n) and intended for diagnostics/tests, not the hot path.
func (q *pendingQueue) len() int {
	return len(q.all())
}

// all returns every currently live pending event, in no particular order.
// Used by CancelMatching, which must inspect the whole pending set.
func (q *pendingQueue) all() []*Event {
	out := make([]*Event, 0, len(q.heap))
	for _, ev := range q.heap {
		if _, dead := q.cancelled[ev.ID]; !dead {
			out = append(out, ev)
		}
	}
	for _, src := range q.active {
		tail := q.ordered[src]
		for i := tail.head; i < len(tail.events); i++ {
			ev := tail.events[i]
			if _, dead := q.cancelled[ev.ID]; !dead {
				out = append(out, ev)
			}
		}
	}
	return out
}
