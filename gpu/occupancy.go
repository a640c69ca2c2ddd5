package gpu

// RegisterAllocGranularity selects whether register blocks are rounded up
// per wavefront or per work-group (spec.md §4.1, §6 Device.RegisterAllocGranularity).
type RegisterAllocGranularity int

const (
	RegisterAllocWavefront RegisterAllocGranularity = iota
	RegisterAllocWorkGroup
)

// OccupancyParams are the machine parameters the occupancy calculator
// reads, mirroring the Device/LocalMemory sections of spec.md §6.
type OccupancyParams struct {
	WavefrontSize               int
	MaxWavefrontsPerComputeUnit int
	MaxWorkGroupsPerComputeUnit int
	NumRegisters                int
	RegisterAllocSize           int
	RegisterAllocGranularity    RegisterAllocGranularity
	LocalMemSize                int
	LocalMemAllocSize           int
}

// ceilDiv computes ceil(a/b) for non-negative a and positive b.
func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// roundUp rounds a up to the next multiple of unit (unit > 0).
func roundUp(a, unit int) int {
	return ceilDiv(a, unit) * unit
}

// registerBlock returns the number of registers charged for one admission
// unit under the configured granularity (spec.md §4.1): a whole wavefront's
// worth of registers rounded up to RegisterAllocSize under Wavefront
// granularity, or a whole work-group's worth under WorkGroup granularity.
func registerBlock(p OccupancyParams, workItemsPerGroup, gprsPerWorkItem int) int {
	wavefronts := ceilDiv(workItemsPerGroup, p.WavefrontSize)
	switch p.RegisterAllocGranularity {
	case RegisterAllocWavefront:
		perWavefront := roundUp(gprsPerWorkItem*p.WavefrontSize, p.RegisterAllocSize)
		return perWavefront * wavefronts
	default: // RegisterAllocWorkGroup
		return roundUp(gprsPerWorkItem*workItemsPerGroup, p.RegisterAllocSize)
	}
}

// localMemBlock returns the local-memory bytes charged for one work-group,
// rounded up to LocalMemAllocSize (spec.md §4.1).
func localMemBlock(p OccupancyParams, localMemPerGroup int) int {
	return roundUp(localMemPerGroup, p.LocalMemAllocSize)
}

// ComputeOccupancy returns the largest number of work-groups that can be
// admitted to one compute unit simultaneously, given the work-group's
// shape (spec.md §4.1). It is pure, deterministic, and total: n=0 is a
// valid, not erroneous, return — callers that require n>0 should check
// explicitly and raise OccupancyInfeasibleError naming the binding
// constraint (spec.md §4.1: "If n = 0, admission fails... listing which
// constraint was violated").
func ComputeOccupancy(p OccupancyParams, workItemsPerGroup, gprsPerWorkItem, localMemPerGroup int) int {
	wavefrontsPerGroup := ceilDiv(workItemsPerGroup, p.WavefrontSize)

	limitByWavefronts := p.MaxWavefrontsPerComputeUnit
	if wavefrontsPerGroup > 0 {
		limitByWavefronts = p.MaxWavefrontsPerComputeUnit / wavefrontsPerGroup
	}

	limitByGroups := p.MaxWorkGroupsPerComputeUnit

	regBlock := registerBlock(p, workItemsPerGroup, gprsPerWorkItem)
	limitByRegisters := p.MaxWorkGroupsPerComputeUnit
	if regBlock > 0 {
		limitByRegisters = p.NumRegisters / regBlock
	}

	limitByLocalMem := p.MaxWorkGroupsPerComputeUnit
	memBlock := localMemBlock(p, localMemPerGroup)
	if memBlock > 0 {
		limitByLocalMem = p.LocalMemSize / memBlock
	}

	n := limitByWavefronts
	if limitByGroups < n {
		n = limitByGroups
	}
	if limitByRegisters < n {
		n = limitByRegisters
	}
	if limitByLocalMem < n {
		n = limitByLocalMem
	}
	if n < 0 {
		n = 0
	}
	return n
}

// LimitingResource identifies which constraint in ComputeOccupancy binds at
// n=0, for OccupancyInfeasibleError's diagnostic message. Checked in the
// order spec.md §4.1 lists the constraints.
func LimitingResource(p OccupancyParams, workItemsPerGroup, gprsPerWorkItem, localMemPerGroup int) string {
	wavefrontsPerGroup := ceilDiv(workItemsPerGroup, p.WavefrontSize)
	if wavefrontsPerGroup > p.MaxWavefrontsPerComputeUnit {
		return "MaxWavefrontsPerComputeUnit"
	}
	if 1 > p.MaxWorkGroupsPerComputeUnit {
		return "MaxWorkGroupsPerComputeUnit"
	}
	regBlock := registerBlock(p, workItemsPerGroup, gprsPerWorkItem)
	if regBlock > p.NumRegisters {
		return "NumRegisters"
	}
	memBlock := localMemBlock(p, localMemPerGroup)
	if memBlock > p.LocalMemSize {
		return "LocalMemory.Size"
	}
	return "unknown"
}
