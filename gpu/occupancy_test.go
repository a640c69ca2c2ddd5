package gpu

import "testing"

// S1: single work-group, trivial kernel — plenty of everything, occupancy
// must allow the one work-group in.
func TestComputeOccupancy_S1SingleWorkGroup(t *testing.T) {
	p := OccupancyParams{
		WavefrontSize:               64,
		MaxWavefrontsPerComputeUnit: 32,
		MaxWorkGroupsPerComputeUnit: 8,
		NumRegisters:                16384,
		RegisterAllocSize:           32,
		RegisterAllocGranularity:    RegisterAllocWorkGroup,
		LocalMemSize:                32768,
		LocalMemAllocSize:           1024,
	}
	n := ComputeOccupancy(p, 64, 4, 0)
	if n < 1 {
		t.Fatalf("expected at least one admissible work-group, got %d", n)
	}
}

// S2: occupancy gate by registers. With a register allocation size of 32
// and gprs_per_work_item=2 over a 16-work-item group, register_block is
// exactly 32 — one work-group saturates NumRegisters=32, so occupancy is 1.
// Raising gprs_per_work_item to 3 pushes register_block to 64, which
// exceeds NumRegisters=32, dropping occupancy to 0.
func TestComputeOccupancy_S2GatedByRegisters(t *testing.T) {
	p := OccupancyParams{
		WavefrontSize:               16,
		MaxWavefrontsPerComputeUnit: 32,
		MaxWorkGroupsPerComputeUnit: 8,
		NumRegisters:                32,
		RegisterAllocSize:           32,
		RegisterAllocGranularity:    RegisterAllocWorkGroup,
		LocalMemSize:                32768,
		LocalMemAllocSize:           1024,
	}

	block := registerBlock(p, 16, 2)
	if block != 32 {
		t.Fatalf("expected register_block=32, got %d", block)
	}

	n := ComputeOccupancy(p, 16, 2, 0)
	if n != 1 {
		t.Fatalf("expected occupancy=1, got %d", n)
	}

	n = ComputeOccupancy(p, 16, 3, 0)
	if n != 0 {
		t.Fatalf("expected occupancy=0 after doubling gprs, got %d", n)
	}
	if reason := LimitingResource(p, 16, 3, 0); reason != "NumRegisters" {
		t.Fatalf("expected NumRegisters as the limiting resource, got %q", reason)
	}
}

// property 7: ComputeOccupancy is total — never negative, never panics,
// even at the degenerate zero-size edges.
func TestComputeOccupancy_PropertyTotalAndNonNegative(t *testing.T) {
	p := OccupancyParams{
		WavefrontSize:               64,
		MaxWavefrontsPerComputeUnit: 32,
		MaxWorkGroupsPerComputeUnit: 8,
		NumRegisters:                16384,
		RegisterAllocSize:           32,
		RegisterAllocGranularity:    RegisterAllocWavefront,
		LocalMemSize:                32768,
		LocalMemAllocSize:           1024,
	}

	cases := []struct {
		workItems, gprs, localMem int
	}{
		{0, 0, 0},
		{1, 1, 1},
		{100000, 255, 100000},
		{64, 0, 0},
	}
	for _, c := range cases {
		n := ComputeOccupancy(p, c.workItems, c.gprs, c.localMem)
		if n < 0 {
			t.Fatalf("ComputeOccupancy(%+v) returned negative n=%d", c, n)
		}
	}
}

func TestComputeOccupancy_WavefrontGranularityRoundsPerWavefront(t *testing.T) {
	p := OccupancyParams{
		WavefrontSize:               64,
		MaxWavefrontsPerComputeUnit: 32,
		MaxWorkGroupsPerComputeUnit: 8,
		NumRegisters:                16384,
		RegisterAllocSize:           128,
		RegisterAllocGranularity:    RegisterAllocWavefront,
		LocalMemSize:                32768,
		LocalMemAllocSize:           1024,
	}
	// Two wavefronts per group; each wavefront's register charge (3*64=192)
	// is rounded up independently to 256, giving 512, unlike WorkGroup
	// granularity where the whole group's 384 registers are rounded up
	// together and stay 384.
	wavefrontBlock := registerBlock(p, 128, 3)
	groupGranularity := p
	groupGranularity.RegisterAllocGranularity = RegisterAllocWorkGroup
	workGroupBlock := registerBlock(groupGranularity, 128, 3)
	if wavefrontBlock == workGroupBlock {
		t.Fatalf("expected the two granularities to diverge for this shape, both gave %d", wavefrontBlock)
	}
}

func TestLimitingResource_LocalMemory(t *testing.T) {
	p := OccupancyParams{
		WavefrontSize:               64,
		MaxWavefrontsPerComputeUnit: 32,
		MaxWorkGroupsPerComputeUnit: 8,
		NumRegisters:                16384,
		RegisterAllocSize:           32,
		RegisterAllocGranularity:    RegisterAllocWorkGroup,
		LocalMemSize:                1024,
		LocalMemAllocSize:           1024,
	}
	if n := ComputeOccupancy(p, 64, 4, 2048); n != 0 {
		t.Fatalf("expected occupancy=0 when local memory exceeds LocalMemSize, got %d", n)
	}
	if reason := LimitingResource(p, 64, 4, 2048); reason != "LocalMemory.Size" {
		t.Fatalf("expected LocalMemory.Size as the limiting resource, got %q", reason)
	}
}
