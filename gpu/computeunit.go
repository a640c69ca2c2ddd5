package gpu

// CUState is which of the GPU's three intrusive lists a compute unit
// currently belongs to (spec.md §3 "exactly one linkage at any time").
type CUState int

const (
	CUReady CUState = iota
	CUBusy
	CUDrained
)

// ComputeUnit owns one CF/ALU/TEX engine triple, a local-memory module,
// and its resident work-groups/wavefronts (spec.md §3, §4.6).
type ComputeUnit struct {
	ID     int
	Params OccupancyParams

	CF    *CFEngine
	ALU   *ALUEngine
	TEX   *TEXEngine
	Local *LocalMemoryModule
	Mem   MemoryModule
	Pool  *UopPool

	State CUState
	Cycle int64

	// Cached shape of the ND-Range currently resident — homogeneous
	// across all of its work-groups, set once by BeginNDRange.
	workItemsPerGroup int
	gprsPerWorkItem   int
	localMemPerGroup  int

	WorkGroups []*WorkGroup
	Wavefronts []*Wavefront

	regBlocksUsed   int
	localBlocksUsed int

	// prev/next are indices into the owning GPU's compute-unit arena,
	// the intrusive doubly-linked-list linkage for whichever of
	// ready/busy/drained this CU currently occupies (spec.md §9).
	prev, next int
}

// NewComputeUnit constructs an idle compute unit with its three engines
// wired to a shared local-memory module, external memory module, and uop
// pool (spec.md §4.6 "owns one instance of C5/C6/C7...").
func NewComputeUnit(id int, params OccupancyParams, cf *CFEngine, alu *ALUEngine, tex *TEXEngine, local *LocalMemoryModule, mem MemoryModule, pool *UopPool) *ComputeUnit {
	return &ComputeUnit{
		ID:     id,
		Params: params,
		CF:     cf,
		ALU:    alu,
		TEX:    tex,
		Local:  local,
		Mem:    mem,
		Pool:   pool,
		State:  CUReady,
		prev:   -1,
		next:   -1,
	}
}

// BeginNDRange caches the shape of the ND-Range that will supply
// work-groups to this CU until it drains. Must be called before the
// first AdmitWorkGroup for a given ND-Range.
func (cu *ComputeUnit) BeginNDRange(workItemsPerGroup, gprsPerWorkItem, localMemPerGroup int) {
	cu.workItemsPerGroup = workItemsPerGroup
	cu.gprsPerWorkItem = gprsPerWorkItem
	cu.localMemPerGroup = localMemPerGroup
}

// HasFreeCapacity reports whether one more work-group of the cached shape
// fits without violating any of §4.6's capacity invariants.
func (cu *ComputeUnit) HasFreeCapacity() bool {
	if len(cu.WorkGroups) >= cu.Params.MaxWorkGroupsPerComputeUnit {
		return false
	}
	wavefronts := ceilDiv(cu.workItemsPerGroup, cu.Params.WavefrontSize)
	if len(cu.Wavefronts)+wavefronts > cu.Params.MaxWavefrontsPerComputeUnit {
		return false
	}
	regBlock := registerBlock(cu.Params, cu.workItemsPerGroup, cu.gprsPerWorkItem)
	if cu.regBlocksUsed+regBlock > cu.Params.NumRegisters {
		return false
	}
	memBlock := localMemBlock(cu.Params, cu.localMemPerGroup)
	if cu.localBlocksUsed+memBlock > cu.Params.LocalMemSize {
		return false
	}
	return true
}

// AdmitWorkGroup maps wg onto this CU: registers its wavefronts and
// starts each one's CF engine FETCH (spec.md §4.7 "map WG -> CU").
func (cu *ComputeUnit) AdmitWorkGroup(wg *WorkGroup) {
	wg.CUOwner = cu
	cu.WorkGroups = append(cu.WorkGroups, wg)
	cu.Wavefronts = append(cu.Wavefronts, wg.Wavefronts...)
	cu.regBlocksUsed += registerBlock(cu.Params, cu.workItemsPerGroup, cu.gprsPerWorkItem)
	cu.localBlocksUsed += localMemBlock(cu.Params, cu.localMemPerGroup)
	for _, wf := range wg.Wavefronts {
		cu.CF.AdmitWavefront(wf)
	}
}

// Step advances the compute unit by one cycle in the mandated order
// (spec.md §4.6): CF, ALU, TEX, memory module, uop/work-group retire.
// List-linkage update (step (f)) is the caller's responsibility — it
// needs the owning ND-Range to know whether capacity has freed up.
func (cu *ComputeUnit) Step(now int64, prog *DecodedProgram, nr *NDRange) {
	cu.Cycle++
	cu.CF.Step(now, cu.Wavefronts, prog, cu.ALU, cu.TEX, cu.Mem)
	cu.ALU.Step(now)
	cu.TEX.Step(now)
	cu.Mem.Step(now)
	cu.retireFinishedWorkGroups(nr)
}

// retireFinishedWorkGroups reclaims capacity for any resident work-group
// whose wavefronts have all finished (spec.md §4.3 "work-group is moved
// to the CU's finished list").
func (cu *ComputeUnit) retireFinishedWorkGroups(nr *NDRange) {
	remaining := cu.WorkGroups[:0]
	for _, wg := range cu.WorkGroups {
		if !wg.AllWavefrontsFinished() {
			remaining = append(remaining, wg)
			continue
		}
		cu.regBlocksUsed -= registerBlock(cu.Params, cu.workItemsPerGroup, cu.gprsPerWorkItem)
		cu.localBlocksUsed -= localMemBlock(cu.Params, cu.localMemPerGroup)
		cu.Wavefronts = removeWavefronts(cu.Wavefronts, wg.Wavefronts)
		nr.MarkFinished(wg)
	}
	cu.WorkGroups = remaining
}

func removeWavefronts(from []*Wavefront, drop []*Wavefront) []*Wavefront {
	dropSet := make(map[*Wavefront]bool, len(drop))
	for _, wf := range drop {
		dropSet[wf] = true
	}
	out := from[:0]
	for _, wf := range from {
		if !dropSet[wf] {
			out = append(out, wf)
		}
	}
	return out
}

// Idle reports whether the CU has no resident work-groups at all — the
// condition for transitioning busy -> drained (spec.md §4.3).
func (cu *ComputeUnit) Idle() bool {
	return len(cu.WorkGroups) == 0
}
