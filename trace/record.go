// Package trace provides line-oriented event recording for the GPU
// timing simulator (spec.md §6 "Trace stream"). This package has no
// dependency on gpu/ or driver/ — it stores pure data types and formats
// them, mirroring the teacher's trace package's layering.
package trace

import "fmt"

// InitRecord is emitted once at simulator startup.
type InitRecord struct {
	NumComputeUnits int
	WavefrontSize   int
}

func (r InitRecord) Line() string {
	return fmt.Sprintf("init num_compute_units=%d wavefront_size=%d", r.NumComputeUnits, r.WavefrontSize)
}

// NDRangeRecord is emitted when a kernel launch creates a new ND-Range.
type NDRangeRecord struct {
	ID         int
	Kernel     string
	GroupCount int
}

func (r NDRangeRecord) Line() string {
	return fmt.Sprintf("new_ndrange id=%d kernel=%s group_count=%d", r.ID, r.Kernel, r.GroupCount)
}

// WorkGroupRecord is emitted when a work-group is admitted to a CU.
type WorkGroupRecord struct {
	ID      int
	NDRange int
	CUID    int
}

func (r WorkGroupRecord) Line() string {
	return fmt.Sprintf("new_wg id=%d ndrange=%d cu=%d", r.ID, r.NDRange, r.CUID)
}

// WavefrontRecord is emitted when a wavefront begins executing.
type WavefrontRecord struct {
	ID        int
	WorkGroup int
	CUID      int
}

func (r WavefrontRecord) Line() string {
	return fmt.Sprintf("new_wf id=%d wg=%d cu=%d", r.ID, r.WorkGroup, r.CUID)
}

// ClockRecord is emitted once per cycle at TraceLevelFull.
type ClockRecord struct {
	Cycle int64
}

func (r ClockRecord) Line() string {
	return fmt.Sprintf("clk cycle=%d", r.Cycle)
}

// AsmRecord carries one disassembled CF/ALU/TEX instruction.
type AsmRecord struct {
	CUID int
	PC   int
	Text string
}

func (r AsmRecord) Line() string {
	return fmt.Sprintf("asm cu=%d pc=%d text=%s", r.CUID, r.PC, r.Text)
}
