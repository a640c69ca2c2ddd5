package gpu

// AccessKind distinguishes a memory access's direction.
type AccessKind int

const (
	AccessRead AccessKind = iota
	AccessWrite
)

// MemAccessHandle is the latency-bearing handle returned by MemoryModule.
// Completion is observed via Done, not by the caller polling internals —
// spec.md §9's "capability set" design: the caller only ever sees this
// handle.
type MemAccessHandle struct {
	done bool
}

// Done reports whether the access has completed.
func (h *MemAccessHandle) Done() bool { return h.done }

// MemoryModule is the abstract external interface to the memory subsystem
// (spec.md §2 C4, §9 "capability set"). It is callback-based and returns
// immediately; no operation blocks (spec.md §5).
//
// Implementations are expected to call the supplied callback from Step or
// from a later event-simulator drain, not from BeginAccess itself, to
// avoid re-entrancy hazards of invoking a caller's code mid-cycle.
type MemoryModule interface {
	// BeginAccess starts a memory access of the given kind at address,
	// returning a handle that becomes Done once the access completes.
	// onComplete is invoked (exactly once) when the access finishes.
	BeginAccess(now int64, kind AccessKind, address uint64, onComplete func()) *MemAccessHandle

	// Step advances the memory module by one cycle, firing any callbacks
	// whose latency has elapsed (a no-op for implementations whose
	// callbacks are fired by an EventSimulator).
	Step(now int64)
}

// FixedLatencyMemory is a simple MemoryModule that completes every access
// after a fixed number of cycles. It stands in for the real memory
// subsystem, which spec.md §1 places out of scope ("treated as an opaque
// module returning latency-bearing read/write handles").
type FixedLatencyMemory struct {
	Latency int64
	es      *EventSimulator
}

// NewFixedLatencyMemory creates a memory module backed by the given event
// simulator, completing every access after latency cycles.
func NewFixedLatencyMemory(es *EventSimulator, latency int64) *FixedLatencyMemory {
	if latency < 1 {
		latency = 1
	}
	return &FixedLatencyMemory{Latency: latency, es: es}
}

func (m *FixedLatencyMemory) BeginAccess(now int64, _ AccessKind, _ uint64, onComplete func()) *MemAccessHandle {
	h := &MemAccessHandle{}
	m.es.Schedule(now, m.Latency, func(int64, any) {
		h.done = true
		onComplete()
	}, nil)
	return h
}

// Step is a no-op: completion is driven entirely by the event simulator
// this module was constructed with.
func (m *FixedLatencyMemory) Step(int64) {}
