package gpu

import "container/heap"

// EventHandler is invoked when a scheduled event fires. now is the cycle
// at which it fires (equal to the cycle passed to the Drain call, not
// necessarily the cycle it was scheduled at).
type EventHandler func(now int64, payload any)

// EventToken identifies a scheduled event for Cancel.
type EventToken uint64

type scheduledEvent struct {
	fireCycle int64
	order     uint64 // schedule order, for FIFO tie-break
	token     EventToken
	handler   EventHandler
	payload   any
	cancelled bool
}

// eventQueue implements heap.Interface, ordering by (fireCycle, order) —
// the teacher's sim.EventQueue orders purely by timestamp over
// container/heap; we add the schedule-order tie-break spec.md §4.2
// requires ("breaking ties by schedule order (FIFO)").
type eventQueue []*scheduledEvent

func (q eventQueue) Len() int { return len(q) }
func (q eventQueue) Less(i, j int) bool {
	if q[i].fireCycle != q[j].fireCycle {
		return q[i].fireCycle < q[j].fireCycle
	}
	return q[i].order < q[j].order
}
func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *eventQueue) Push(x any)   { *q = append(*q, x.(*scheduledEvent)) }
func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// EventSimulator is a priority queue of (fire_cycle, handler, payload)
// that drains every event whose fire_cycle has arrived (spec.md §4.2, C2).
type EventSimulator struct {
	q         eventQueue
	nextOrder uint64
	nextToken EventToken
	byToken   map[EventToken]*scheduledEvent
}

// NewEventSimulator creates an empty event simulator.
func NewEventSimulator() *EventSimulator {
	return &EventSimulator{byToken: make(map[EventToken]*scheduledEvent)}
}

// Schedule enqueues handler(payload) to fire at cycle now+delay. delay must be
// ≥ 1: spec.md §4.2 commits to rejecting delay=0 rather than resolving the
// reentrancy ambiguity it would otherwise introduce, so Schedule panics on
// delay < 1 — this is a programmer bug, not a runtime error condition.
func (es *EventSimulator) Schedule(now int64, delay int64, handler EventHandler, payload any) EventToken {
	if delay < 1 {
		panic("gpu: EventSimulator.Schedule requires delay >= 1")
	}
	es.nextOrder++
	es.nextToken++
	ev := &scheduledEvent{
		fireCycle: now + delay,
		order:     es.nextOrder,
		token:     es.nextToken,
		handler:   handler,
		payload:   payload,
	}
	es.byToken[ev.token] = ev
	heap.Push(&es.q, ev)
	return ev.token
}

// Cancel prevents a previously scheduled event from firing. Cancelling an
// already-fired or already-cancelled token is a no-op.
func (es *EventSimulator) Cancel(token EventToken) {
	if ev, ok := es.byToken[token]; ok {
		ev.cancelled = true
		delete(es.byToken, token)
	}
}

// Drain fires every non-cancelled event with fireCycle <= now, in
// non-decreasing fireCycle order with FIFO tie-break. Drain is reentrant:
// a handler may call Schedule again (with delay >= 1, so the new event
// fires no earlier than the next Drain at a later cycle).
func (es *EventSimulator) Drain(now int64) {
	for es.q.Len() > 0 && es.q[0].fireCycle <= now {
		ev := heap.Pop(&es.q).(*scheduledEvent)
		delete(es.byToken, ev.token)
		if ev.cancelled {
			continue
		}
		ev.handler(now, ev.payload)
	}
}

// Pending reports whether any non-cancelled event remains queued.
func (es *EventSimulator) Pending() bool {
	return len(es.byToken) > 0
}
