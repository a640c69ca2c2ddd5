package gpu

// TerminationReason is why the GPU's Run loop stopped (spec.md §4.7, §7).
type TerminationReason int

const (
	TerminationNone TerminationReason = iota
	Completed
	MaxCyclesReached
	MaxInstReached
	MaxKernelsReached
	Halted
)

func (r TerminationReason) String() string {
	switch r {
	case TerminationNone:
		return "None"
	case Completed:
		return "Completed"
	case MaxCyclesReached:
		return "MaxCyclesReached"
	case MaxInstReached:
		return "MaxInstReached"
	case MaxKernelsReached:
		return "MaxKernelsReached"
	case Halted:
		return "Halted"
	default:
		return "Unknown"
	}
}

// GPU owns the compute-unit arena and the three intrusive lists
// (ready/busy/drained) that partition it at every cycle (spec.md §3,
// property 1). List linkage is a doubly-linked list over
// ComputeUnit.prev/next indices into Units — an arena, no dynamic
// allocation per transition (spec.md §9).
type GPU struct {
	Cycle   int64
	NDRange *NDRange
	Units   []*ComputeUnit
	Events  *EventSimulator

	head [3]int
	tail [3]int

	MaxCycles      int64
	MaxInst        int64
	MaxKernels     int64
	KernelsLaunched int64

	// FaultInjection, if set, is invoked once per cycle after the per-CU
	// step and before the event drain (spec.md §4.7 point 5).
	FaultInjection func(now int64)

	TerminationReason TerminationReason
}

// NewGPU constructs a GPU over the given compute units, all initially on
// the ready list in ascending id order.
func NewGPU(units []*ComputeUnit, events *EventSimulator) *GPU {
	g := &GPU{Units: units, Events: events}
	g.head = [3]int{-1, -1, -1}
	g.tail = [3]int{-1, -1, -1}
	for _, cu := range units {
		cu.prev, cu.next = -1, -1
		g.listPushBack(CUReady, cu)
	}
	return g
}

func (g *GPU) listPushBack(state CUState, cu *ComputeUnit) {
	cu.State = state
	cu.next = -1
	cu.prev = g.tail[state]
	if g.tail[state] != -1 {
		g.Units[g.tail[state]].next = cu.ID
	} else {
		g.head[state] = cu.ID
	}
	g.tail[state] = cu.ID
}

func (g *GPU) listRemove(state CUState, cu *ComputeUnit) {
	if cu.prev != -1 {
		g.Units[cu.prev].next = cu.next
	} else {
		g.head[state] = cu.next
	}
	if cu.next != -1 {
		g.Units[cu.next].prev = cu.prev
	} else {
		g.tail[state] = cu.prev
	}
	cu.prev, cu.next = -1, -1
}

func (g *GPU) listPopFront(state CUState) *ComputeUnit {
	idx := g.head[state]
	if idx == -1 {
		return nil
	}
	cu := g.Units[idx]
	g.listRemove(state, cu)
	return cu
}

// BeginNDRange attaches nr as the GPU's single active ND-Range and
// caches its shape on every compute unit (spec.md §3 "gpu.ndrange is a
// single slot"). Moves every drained CU back onto the ready list — the
// "subsequently back to ready" half of §4.3's busy->drained transition.
func (g *GPU) BeginNDRange(nr *NDRange, gprsPerWorkItem, localMemPerGroup int) {
	g.KernelsLaunched++
	g.NDRange = nr
	workItemsPerGroup := nr.WorkItemsPerGroup()
	for {
		cu := g.listPopFront(CUDrained)
		if cu == nil {
			break
		}
		g.listPushBack(CUReady, cu)
	}
	for _, cu := range g.Units {
		cu.BeginNDRange(workItemsPerGroup, gprsPerWorkItem, localMemPerGroup)
	}
}

// admission implements §4.7 point 1: while the ready list and the
// ND-Range's pending list are both non-empty, map the head pending
// work-group onto the head ready CU. A CU that still has free capacity
// after admitting stays on the ready list — it is also, from here on,
// visited by stepUnitsWithWork every cycle, since the original's ready
// and busy lists overlap for exactly this case (a CU can be both "has
// room for more work-groups" and "has a work-group to step").
func (g *GPU) admission() {
	for len(g.NDRange.Pending) > 0 {
		cu := g.listPopFront(CUReady)
		if cu == nil {
			return
		}
		wg := g.NDRange.PopPendingWorkGroup()
		cu.AdmitWorkGroup(wg)
		if cu.HasFreeCapacity() {
			g.listPushBack(CUReady, cu)
		} else {
			g.listPushBack(CUBusy, cu)
		}
	}
}

// stepUnitsWithWork steps every compute unit that has at least one
// resident work-group, in ascending CU.ID order (spec.md §4.6 step (f),
// §4.7 point 4), regardless of whether that CU is presently linked on
// the ready or the busy list. This mirrors the original's busy_list_head
// walk (original_source's gpu.c:806-835), which steps every CU with a
// mapped work-group: there, the ready and busy lists overlap, so a CU
// with spare capacity is on both. Here each CU can only be linked on one
// of the three lists at a time (ComputeUnit has a single prev/next
// pair), so membership is tracked via cu.State instead and the one-of-
// three linkage is only ever used to find CUs to admit onto (ready) or
// to recycle for the next ND-Range (drained) — not to decide who gets
// stepped. Units is iterated directly, already in ascending-id order by
// construction, so no snapshot-before-iterate hazard applies here: unlike
// the old busy-list walk, Step never invalidates the next unit visited.
func (g *GPU) stepUnitsWithWork() {
	for _, cu := range g.Units {
		if len(cu.WorkGroups) == 0 {
			continue
		}
		wasState := cu.State
		cu.Step(g.Cycle, g.NDRange.DecodedText, g.NDRange)

		switch {
		case cu.Idle():
			if wasState != CUDrained {
				g.listRemove(wasState, cu)
				g.listPushBack(CUDrained, cu)
			}
		case cu.HasFreeCapacity():
			if wasState != CUReady {
				g.listRemove(wasState, cu)
				g.listPushBack(CUReady, cu)
			}
		default:
			if wasState != CUBusy {
				g.listRemove(wasState, cu)
				g.listPushBack(CUBusy, cu)
			}
		}
	}
}

// TotalInstructions sums every compute unit's CF+ALU+TEX instruction
// counters (spec.md §8 property 5). The ALU term is InstructionSlots, not
// Instructions: the device-wide instruction count is occupied VLIW slots,
// not retired bundles (a bundle with k occupied slots is k instructions),
// matching the original's evg_emu->inst_count. Computed on demand rather
// than tracked incrementally so it can never drift from its definition.
func (g *GPU) TotalInstructions() int64 {
	var total int64
	for _, cu := range g.Units {
		total += cu.CF.Instructions + cu.ALU.InstructionSlots + cu.TEX.Instructions
	}
	return total
}

// Run drives the GPU's cycle loop until the active ND-Range completes or
// a budget is exceeded (spec.md §4.7). Must be called with NDRange
// already set via BeginNDRange.
func (g *GPU) Run() TerminationReason {
	g.TerminationReason = TerminationNone
	for {
		g.admission()

		if g.NDRange.Complete() {
			g.TerminationReason = Completed
		}
		if g.MaxCycles > 0 && g.Cycle >= g.MaxCycles {
			g.TerminationReason = MaxCyclesReached
		}
		if g.MaxInst > 0 && g.TotalInstructions() >= g.MaxInst {
			g.TerminationReason = MaxInstReached
		}

		g.stepUnitsWithWork()

		if g.FaultInjection != nil {
			g.FaultInjection(g.Cycle)
		}
		g.Events.Drain(g.Cycle)

		g.Cycle++

		if g.TerminationReason != TerminationNone {
			return g.TerminationReason
		}
	}
}
