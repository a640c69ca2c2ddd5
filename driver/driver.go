// Package driver implements the single launch/suspend contract the core
// simulator accepts from a host-side emulated context (spec.md §4.8,
// §6.4), modelled on Multi2Sim's cuLaunchKernel ABI
// (original_source/.../cuda.c:680-772).
package driver

import (
	"fmt"

	"github.com/hbarclay/multi2sim/gpu"
)

// LaunchArgs is the 11-word argument block read from the host context's
// registers (spec.md §6 "the relevant call reads 11 words").
type LaunchArgs struct {
	FunctionID     int
	Grid           [3]int
	Block          [3]int
	SharedMemBytes int
	Stream         uint64
	KernelParams   uint64 // host pointer to the argument-pointer array
	Extra          uint64
}

// Function is a resolved kernel: its decoded program text and the
// per-work-item resource shape the occupancy calculator needs.
type Function struct {
	ID               int
	Name             string
	ArgSizes         []int
	GPRsPerWorkItem  int
	LocalMemPerGroup int
	Program          *gpu.DecodedProgram
}

// HostContext is the host-side emulated context a Driver launches
// kernels against and suspends until they complete.
type HostContext interface {
	// ReadLaunchArgs decodes the 11-word argument block at the host
	// context's current register state (spec.md §4.8 point 1).
	ReadLaunchArgs() (LaunchArgs, error)
	// ResolveFunction looks up a kernel function by id (point 2).
	ResolveFunction(id int) (*Function, error)
	// CopyArg dereferences the host pointer array and copies the value
	// of argument index i, sized bytes, from host memory (point 2).
	CopyArg(i int, size int) ([]byte, error)
	// Suspend installs the two callbacks of the cooperative-future
	// protocol (point 5): canWake is polled once per host cycle; wake
	// fires the first time canWake returns true.
	Suspend(canWake func() bool, wake func())
	// WakeSuspended asks the host emulator to re-evaluate suspended
	// contexts (point 4).
	WakeSuspended()
}

// LaunchInfo is the cooperative-future record held by the host emulator
// across a launch (spec.md §9 "a small tagged record held by the host
// emulator and polled once per host cycle").
type LaunchInfo struct {
	finished bool
}

// CanWake reports whether the grid has finished. It deliberately never
// reads anything off the grid/NDRange itself — only this sentinel flag —
// reproducing "the grid has been freed at this point"
// (original_source/.../cuda.c:660-669, cuda_abi_frm_kernel_launch_can_wakeup).
func (li *LaunchInfo) CanWake() bool {
	return li.finished
}

// Wake is the wake-cleanup callback, the counterpart of cuda_func's
// free(info) in cuda_abi_frm_kernel_launch_wakeup. It does no work: the
// Driver keeps no reference to the LaunchInfo, which is reclaimed once
// the host context drops its callbacks. Called at most once, from the
// host context's wake step.
func (li *LaunchInfo) Wake() {}

// Driver launches kernels onto a GPU and suspends the host context that
// requested them until their grid completes (spec.md §4.8).
//
// Counters live on the Driver instance rather than as package-level
// mutable state (spec.md §9 "Re-architect as a single Config record...
// no process-wide state" — the same discipline extended to driver-owned
// identifiers).
type Driver struct {
	GPU           *gpu.GPU
	WavefrontSize int

	nextNDRangeID   int
	nextWorkGroupID int
	nextWavefrontID int
}

// NewDriver constructs a Driver bound to g.
func NewDriver(g *gpu.GPU, wavefrontSize int) *Driver {
	return &Driver{GPU: g, WavefrontSize: wavefrontSize}
}

// Launch implements spec.md §4.8's five points. Because the simulator is
// single-threaded and cooperative (§5), the grid is run to completion
// synchronously before the host context is suspended — by the time
// Suspend is called, CanWake already returns true, matching S6's "runs
// grid to completion... can-wake returns true" in one step.
func (d *Driver) Launch(ctx HostContext) error {
	args, err := ctx.ReadLaunchArgs()
	if err != nil {
		return fmt.Errorf("reading launch args: %w", err)
	}

	fn, err := ctx.ResolveFunction(args.FunctionID)
	if err != nil {
		return fmt.Errorf("resolving function %d: %w", args.FunctionID, err)
	}

	for i, size := range fn.ArgSizes {
		if _, err := ctx.CopyArg(i, size); err != nil {
			return fmt.Errorf("copying kernel arg %d: %w", i, err)
		}
	}

	nr := d.buildNDRange(fn, args)
	d.GPU.BeginNDRange(nr, fn.GPRsPerWorkItem, fn.LocalMemPerGroup)
	d.GPU.Run()

	info := &LaunchInfo{}
	info.finished = true
	ctx.WakeSuspended()

	ctx.Suspend(info.CanWake, info.Wake)
	return nil
}

// buildNDRange constructs the grid object bound to fn (spec.md §4.8
// point 3): global size is block-count times block-size, work-groups and
// their wavefronts are pre-created and queued pending in FIFO (id) order.
func (d *Driver) buildNDRange(fn *Function, args LaunchArgs) *gpu.NDRange {
	nr := &gpu.NDRange{
		ID:     d.nextNDRangeID,
		Kernel: fn.Name,
		GlobalSize: [3]int{
			args.Grid[0] * args.Block[0],
			args.Grid[1] * args.Block[1],
			args.Grid[2] * args.Block[2],
		},
		LocalSize:   args.Block,
		DecodedText: fn.Program,
	}
	d.nextNDRangeID++

	groupCount := args.Grid[0] * args.Grid[1] * args.Grid[2]
	workItemsPerGroup := args.Block[0] * args.Block[1] * args.Block[2]
	wavefrontsPerGroup := ceilDiv(workItemsPerGroup, d.WavefrontSize)

	nr.GroupCount = groupCount
	nr.WavefrontsPerWorkGroup = wavefrontsPerGroup
	nr.WorkGroups = make([]*gpu.WorkGroup, groupCount)
	nr.Pending = make([]int, groupCount)

	firstWorkItem := 0
	for g := 0; g < groupCount; g++ {
		wg := &gpu.WorkGroup{
			ID:             d.nextWorkGroupID,
			NDRange:        nr,
			FirstWorkItem:  firstWorkItem,
			WorkItemCount:  workItemsPerGroup,
			FirstWavefront: d.nextWavefrontID,
			WavefrontCount: wavefrontsPerGroup,
			State:          gpu.WorkGroupPending,
		}
		d.nextWorkGroupID++
		firstWorkItem += workItemsPerGroup

		wg.Wavefronts = make([]*gpu.Wavefront, wavefrontsPerGroup)
		remaining := workItemsPerGroup
		for wf := 0; wf < wavefrontsPerGroup; wf++ {
			count := d.WavefrontSize
			if remaining < count {
				count = remaining
			}
			remaining -= count
			wg.Wavefronts[wf] = &gpu.Wavefront{
				ID:            d.nextWavefrontID,
				WorkGroup:     wg,
				WorkItemCount: count,
			}
			d.nextWavefrontID++
		}

		nr.WorkGroups[g] = wg
		nr.Pending[g] = g
	}

	return nr
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
