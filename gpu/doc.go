// Package gpu implements a cycle-driven timing simulator for an AMD
// Evergreen-class GPU.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - ndrange.go, workgroup.go, wavefront.go, uop.go: the data model
//   - occupancy.go: the admission calculus deciding how many work-groups
//     fit on a compute unit
//   - gpu.go: the top-level scheduler, its ready/busy/drained compute-unit
//     lists, and the per-cycle Run loop
//   - computeunit.go: one compute unit's per-cycle step, owning a CF, ALU,
//     and TEX engine plus local memory
//   - cfengine.go, aluengine.go, texengine.go: the three pipelines
//   - event.go: the event simulator that drains timed callbacks each cycle
//
// # Architecture
//
// The instruction decoder, the functional emulator, and the memory
// subsystem are external collaborators. This package consumes pre-decoded
// instruction records (program.go) and an abstract MemoryModule (memory.go)
// rather than producing them.
package gpu
