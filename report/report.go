// Package report writes the sectioned text report emitted at simulator
// termination (spec.md §6 "Report format"). Rendering follows the
// teacher's Metrics.Print style (plain fmt.Fprintf, no templating
// library) rather than introducing text/template for a one-shot format.
package report

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/stat"

	"github.com/hbarclay/multi2sim/config"
	"github.com/hbarclay/multi2sim/gpu"
)

// Write emits the [Config.*], [Device], [ComputeUnit N], and
// [Device.Aggregate] sections for one completed ND-Range run.
func Write(w io.Writer, cfg *config.Config, g *gpu.GPU) error {
	if err := writeConfigSections(w, cfg); err != nil {
		return err
	}
	if err := writeDeviceSection(w, g); err != nil {
		return err
	}
	for _, cu := range g.Units {
		if err := writeComputeUnitSection(w, cu); err != nil {
			return err
		}
	}
	return writeAggregateSection(w, g)
}

func writeConfigSections(w io.Writer, cfg *config.Config) error {
	if _, err := fmt.Fprintf(w, "[Config.Device]\n"+
		"NumComputeUnits = %d\n"+
		"NumStreamCores = %d\n"+
		"NumRegisters = %d\n"+
		"RegisterAllocSize = %d\n"+
		"RegisterAllocGranularity = %s\n"+
		"WavefrontSize = %d\n"+
		"MaxWorkGroupsPerComputeUnit = %d\n"+
		"MaxWavefrontsPerComputeUnit = %d\n"+
		"SchedulingPolicy = %s\n\n",
		cfg.Device.NumComputeUnits, cfg.Device.NumStreamCores, cfg.Device.NumRegisters,
		cfg.Device.RegisterAllocSize, cfg.Device.RegisterAllocGranularity, cfg.Device.WavefrontSize,
		cfg.Device.MaxWorkGroupsPerComputeUnit, cfg.Device.MaxWavefrontsPerComputeUnit, cfg.Device.SchedulingPolicy); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "[Config.LocalMemory]\n"+
		"Size = %d\n"+
		"AllocSize = %d\n"+
		"BlockSize = %d\n"+
		"Latency = %d\n"+
		"Ports = %d\n\n",
		cfg.LocalMemory.Size, cfg.LocalMemory.AllocSize, cfg.LocalMemory.BlockSize,
		cfg.LocalMemory.Latency, cfg.LocalMemory.Ports); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "[Config.CFEngine]\nInstructionMemoryLatency = %d\n\n"+
		"[Config.ALUEngine]\nInstructionMemoryLatency = %d\nFetchQueueSize = %d\nProcessingElementLatency = %d\n\n"+
		"[Config.TEXEngine]\nInstructionMemoryLatency = %d\nFetchQueueSize = %d\nLoadQueueSize = %d\n\n",
		cfg.CFEngine.InstructionMemoryLatency,
		cfg.ALUEngine.InstructionMemoryLatency, cfg.ALUEngine.FetchQueueSize, cfg.ALUEngine.ProcessingElementLatency,
		cfg.TEXEngine.InstructionMemoryLatency, cfg.TEXEngine.FetchQueueSize, cfg.TEXEngine.LoadQueueSize)
	return err
}

func writeDeviceSection(w io.Writer, g *gpu.GPU) error {
	instructions := g.TotalInstructions()
	ipc := 0.0
	if g.Cycle > 0 {
		ipc = float64(instructions) / float64(g.Cycle)
	}
	_, err := fmt.Fprintf(w, "[Device]\n"+
		"NDRangeCount = %d\n"+
		"Instructions = %d\n"+
		"Cycles = %d\n"+
		"IPC = %.4f\n"+
		"TerminationReason = %s\n\n",
		g.KernelsLaunched, instructions, g.Cycle, ipc, g.TerminationReason)
	return err
}

func writeComputeUnitSection(w io.Writer, cu *gpu.ComputeUnit) error {
	v := cu.ALU.VLIWOccupancy
	_, err := fmt.Fprintf(w, "[ComputeUnit %d]\n"+
		"CFEngine.Instructions = %d\n"+
		"CFEngine.ALUClauseTriggers = %d\n"+
		"CFEngine.TEXClauseTriggers = %d\n"+
		"CFEngine.GlobalMemWrites = %d\n"+
		"ALUEngine.WavefrontCount = %d\n"+
		"ALUEngine.Instructions = %d\n"+
		"ALUEngine.InstructionSlots = %d\n"+
		"ALUEngine.LocalMemorySlots = %d\n"+
		"ALUEngine.VLIWOccupancy = %d %d %d %d %d\n"+
		"ALUEngine.Cycles = %d\n"+
		"TEXEngine.WavefrontCount = %d\n"+
		"TEXEngine.Instructions = %d\n"+
		"TEXEngine.Cycles = %d\n"+
		"LocalMemory.Accesses = %d\n"+
		"LocalMemory.Reads = %d\n"+
		"LocalMemory.EffectiveReads = %d\n"+
		"LocalMemory.CoalescedReads = %d\n"+
		"LocalMemory.Writes = %d\n"+
		"LocalMemory.EffectiveWrites = %d\n"+
		"LocalMemory.CoalescedWrites = %d\n\n",
		cu.ID,
		cu.CF.Instructions, cu.CF.ALUClauseTriggers, cu.CF.TEXClauseTriggers, cu.CF.GlobalMemWrites,
		cu.ALU.WavefrontCount, cu.ALU.Instructions, cu.ALU.InstructionSlots, cu.ALU.LocalMemorySlots,
		v[0], v[1], v[2], v[3], v[4], cu.ALU.Cycles,
		cu.TEX.WavefrontCount, cu.TEX.Instructions, cu.TEX.Cycles,
		cu.Local.Accesses, cu.Local.Reads, cu.Local.EffectiveReads, cu.Local.CoalescedReads,
		cu.Local.Writes, cu.Local.EffectiveWrites, cu.Local.CoalescedWrites)
	return err
}

// writeAggregateSection is an addition beyond spec.md's literal table
// (SPEC_FULL.md §6.2): mean/stddev of per-CU IPC and occupancy, computed
// with gonum/stat the way the teacher's dependency on gonum is exercised
// nowhere else in the distilled core.
func writeAggregateSection(w io.Writer, g *gpu.GPU) error {
	ipcs := make([]float64, 0, len(g.Units))
	occupancies := make([]float64, 0, len(g.Units))
	for _, cu := range g.Units {
		insts := cu.CF.Instructions + cu.ALU.InstructionSlots + cu.TEX.Instructions
		if g.Cycle > 0 {
			ipcs = append(ipcs, float64(insts)/float64(g.Cycle))
		}
		occupancies = append(occupancies, float64(len(cu.WorkGroups)))
	}

	ipcMean, ipcStdDev := meanStdDev(ipcs)
	occMean, occStdDev := meanStdDev(occupancies)

	_, err := fmt.Fprintf(w, "[Device.Aggregate]\n"+
		"MeanIPC = %.4f\n"+
		"StdDevIPC = %.4f\n"+
		"MeanOccupancy = %.4f\n"+
		"StdDevOccupancy = %.4f\n",
		ipcMean, ipcStdDev, occMean, occStdDev)
	return err
}

func meanStdDev(xs []float64) (mean, stddev float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	mean = stat.Mean(xs, nil)
	stddev = stat.StdDev(xs, nil)
	return mean, stddev
}
