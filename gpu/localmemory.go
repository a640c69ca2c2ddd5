package gpu

// LocalMemoryModule is the banked, port-limited scratchpad owned by a
// compute unit (spec.md §4.9, added back from the distillation's generic
// C4 framing because it is report-visible and in-scope, unlike the
// external global-memory module).
type LocalMemoryModule struct {
	Size      int
	AllocSize int
	BlockSize int
	Latency   int64
	Ports     int

	es *EventSimulator

	// portsFreeAt[i] holds the cycle the i-th port next becomes free. Each
	// effective access holds a port for Latency cycles; accesses beyond
	// the free ports wait for the port that frees soonest, modelled as
	// added latency rather than rejection.
	portsFreeAt []int64

	Accesses        int64
	Reads           int64
	EffectiveReads  int64
	CoalescedReads  int64
	Writes          int64
	EffectiveWrites int64
	CoalescedWrites int64
}

// NewLocalMemoryModule constructs a local memory module backed by es.
func NewLocalMemoryModule(es *EventSimulator, size, allocSize, blockSize int, latency int64, ports int) *LocalMemoryModule {
	return &LocalMemoryModule{
		Size:        size,
		AllocSize:   allocSize,
		BlockSize:   blockSize,
		Latency:     latency,
		Ports:       ports,
		es:          es,
		portsFreeAt: make([]int64, ports),
	}
}

// block returns which BlockSize-byte block an address falls in, the unit
// of coalescing (spec.md §4.9).
func (m *LocalMemoryModule) block(addr uint64) uint64 {
	return addr / uint64(m.BlockSize)
}

// AccessBundle issues the local-memory-accessing slots of one VLIW bundle
// (spec.md §4.4 "Local-memory slots", §4.9 coalescing): slots sharing a
// block with an earlier slot in the same bundle count as coalesced rather
// than effective accesses. onComplete is invoked once, after the slowest
// port among the effective accesses frees up.
func (m *LocalMemoryModule) AccessBundle(now int64, slots []ALUSlot, onComplete func()) {
	seenBlocks := make(map[uint64]bool, len(slots))
	effective := 0
	for _, s := range slots {
		if !s.IsLocalMemAccess {
			continue
		}
		m.Accesses++
		if s.IsLocalMemWrite {
			m.Writes++
		} else {
			m.Reads++
		}
		b := m.block(s.LocalMemAddr)
		if seenBlocks[b] {
			if s.IsLocalMemWrite {
				m.CoalescedWrites++
			} else {
				m.CoalescedReads++
			}
			continue
		}
		seenBlocks[b] = true
		effective++
		if s.IsLocalMemWrite {
			m.EffectiveWrites++
		} else {
			m.EffectiveReads++
		}
	}
	if effective == 0 {
		return
	}
	readyAt := m.reservePorts(now, effective)
	delay := readyAt - now
	if delay < 1 {
		delay = 1
	}
	m.es.Schedule(now, delay, func(int64, any) { onComplete() }, nil)
}

// reservePorts assigns effective accesses to the module's Ports free ports,
// queuing excess accesses onto whichever port frees soonest, and returns
// the cycle the last of them completes.
func (m *LocalMemoryModule) reservePorts(now int64, effective int) int64 {
	latest := now
	for i := 0; i < effective; i++ {
		minIdx := 0
		for j := 1; j < len(m.portsFreeAt); j++ {
			if m.portsFreeAt[j] < m.portsFreeAt[minIdx] {
				minIdx = j
			}
		}
		start := now
		if m.portsFreeAt[minIdx] > start {
			start = m.portsFreeAt[minIdx]
		}
		done := start + m.Latency
		m.portsFreeAt[minIdx] = done
		if done > latest {
			latest = done
		}
	}
	return latest
}
