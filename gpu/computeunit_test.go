package gpu

import "testing"

func newTestComputeUnit(params OccupancyParams) (*ComputeUnit, *EventSimulator) {
	es := NewEventSimulator()
	mem := NewFixedLatencyMemory(es, 2)
	pool := NewUopPool()
	local := NewLocalMemoryModule(es, 32768, 1024, 256, 2, 2)
	cf := NewCFEngine(2, RoundRobinPicker{})
	alu := NewALUEngine(64, 2, 4, 16, params.WavefrontSize, local, pool)
	tex := NewTEXEngine(32, 8, 2, mem, pool)
	cu := NewComputeUnit(0, params, cf, alu, tex, local, mem, pool)
	return cu, es
}

func testOccupancyParams() OccupancyParams {
	return OccupancyParams{
		WavefrontSize:               64,
		MaxWavefrontsPerComputeUnit: 2,
		MaxWorkGroupsPerComputeUnit: 1,
		NumRegisters:                16384,
		RegisterAllocSize:           32,
		RegisterAllocGranularity:    RegisterAllocWorkGroup,
		LocalMemSize:                32768,
		LocalMemAllocSize:           1024,
	}
}

// property 2: a work-group is only admitted while HasFreeCapacity holds,
// and MaxWorkGroupsPerComputeUnit is respected exactly.
func TestComputeUnit_CapacityGate(t *testing.T) {
	params := testOccupancyParams()
	cu, _ := newTestComputeUnit(params)
	cu.BeginNDRange(64, 4, 0)

	if !cu.HasFreeCapacity() {
		t.Fatalf("expected free capacity for the first work-group")
	}
	wg := &WorkGroup{ID: 0, WorkItemCount: 64, Wavefronts: []*Wavefront{{ID: 0, WorkItemCount: 64}}}
	cu.AdmitWorkGroup(wg)

	if cu.HasFreeCapacity() {
		t.Fatalf("expected no free capacity after reaching MaxWorkGroupsPerComputeUnit=1")
	}
}

// step order (a)-(f): CF -> ALU -> TEX -> Mem -> retire, verified by
// checking that a work-group with only a terminator retires by the cycle
// CF reports it Finished.
func TestComputeUnit_StepRetiresFinishedWorkGroup(t *testing.T) {
	params := testOccupancyParams()
	cu, _ := newTestComputeUnit(params)
	cu.BeginNDRange(64, 4, 0)

	nr := &NDRange{DecodedText: &DecodedProgram{CF: []CFInst{{Kind: CFInstTerminator}}}}
	wf := &Wavefront{ID: 0, WorkItemCount: 64}
	wg := &WorkGroup{ID: 0, WorkItemCount: 64, Wavefronts: []*Wavefront{wf}}
	wf.WorkGroup = wg
	cu.AdmitWorkGroup(wg)

	for cycle := int64(0); cycle < 10 && !cu.Idle(); cycle++ {
		cu.Step(cycle, nr.DecodedText, nr)
	}
	if !cu.Idle() {
		t.Fatalf("expected compute unit to be idle after its only work-group finished")
	}
	if len(nr.Finished) != 1 || nr.Finished[0] != 0 {
		t.Fatalf("expected work-group 0 marked finished, got %v", nr.Finished)
	}
	if cu.HasFreeCapacity() != true {
		t.Fatalf("expected capacity reclaimed after retirement")
	}
}
