// cmd/root.go
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hbarclay/multi2sim/config"
	"github.com/hbarclay/multi2sim/driver"
	"github.com/hbarclay/multi2sim/gpu"
	"github.com/hbarclay/multi2sim/kernel"
	"github.com/hbarclay/multi2sim/report"
	"github.com/hbarclay/multi2sim/trace"
)

var (
	configPath string
	kernelPath string
	reportPath string
	tracePath  string
	traceLevel string
	logLevel   string

	globalSizeFlag []int
	localSizeFlag  []int

	maxCycles  int64
	maxInst    int64
	maxKernels int64
)

var rootCmd = &cobra.Command{
	Use:   "evgsim",
	Short: "Cycle-driven timing simulator for an AMD Evergreen-class GPU",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Launch a kernel and run it to completion",
	RunE:  runSimulation,
}

// Execute runs the root command, matching the teacher's cmd.Execute entry
// point.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "device configuration file (defaults if unset)")
	runCmd.Flags().StringVar(&kernelPath, "kernel", "", "kernel descriptor YAML file (required)")
	runCmd.Flags().StringVar(&reportPath, "report", "", "report output file (stdout if unset)")
	runCmd.Flags().StringVar(&tracePath, "trace", "", "trace output file (discarded if unset)")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "trace verbosity: none, basic, full")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "log level (debug, info, warn, error)")

	runCmd.Flags().IntSliceVar(&globalSizeFlag, "global-size", []int{64, 1, 1}, "ND-Range global size (3 ints)")
	runCmd.Flags().IntSliceVar(&localSizeFlag, "local-size", []int{64, 1, 1}, "work-group local size (3 ints)")

	runCmd.Flags().Int64Var(&maxCycles, "max-cycles", 0, "terminate after this many cycles (0 = unbounded)")
	runCmd.Flags().Int64Var(&maxInst, "max-inst", 0, "terminate after this many instructions (0 = unbounded)")
	runCmd.Flags().Int64Var(&maxKernels, "max-kernels", 0, "terminate after this many kernel launches (0 = unbounded)")

	rootCmd.AddCommand(runCmd)
}

// dims3 converts a parsed --global-size/--local-size flag (a variable
// length []int from pflag) into the fixed [3]int shape the rest of the
// simulator works with, padding missing trailing dimensions with 1.
func dims3(vals []int) [3]int {
	d := [3]int{1, 1, 1}
	for i := 0; i < len(vals) && i < 3; i++ {
		d[i] = vals[i]
	}
	return d
}

func runSimulation(cmd *cobra.Command, args []string) error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	desc, err := kernel.Load(kernelPath)
	if err != nil {
		return err
	}
	prog, err := desc.DecodedProgram()
	if err != nil {
		return err
	}

	tr := trace.NewTrace(trace.TraceLevel(traceLevel))
	tr.RecordInit(trace.InitRecord{NumComputeUnits: cfg.Device.NumComputeUnits, WavefrontSize: cfg.Device.WavefrontSize})

	es := gpu.NewEventSimulator()
	mem := gpu.NewFixedLatencyMemory(es, cfg.LocalMemory.Latency)
	params := cfg.OccupancyParams()

	units := make([]*gpu.ComputeUnit, cfg.Device.NumComputeUnits)
	for i := range units {
		pool := gpu.NewUopPool()
		local := gpu.NewLocalMemoryModule(es, cfg.LocalMemory.Size, cfg.LocalMemory.AllocSize, cfg.LocalMemory.BlockSize, cfg.LocalMemory.Latency, cfg.LocalMemory.Ports)
		cf := gpu.NewCFEngine(cfg.CFEngine.InstructionMemoryLatency, gpu.NewWavefrontPicker(cfg.Device.SchedulingPolicy))
		alu := gpu.NewALUEngine(cfg.ALUEngine.FetchQueueSize, cfg.ALUEngine.InstructionMemoryLatency, cfg.ALUEngine.ProcessingElementLatency, cfg.Device.NumStreamCores, cfg.Device.WavefrontSize, local, pool)
		tex := gpu.NewTEXEngine(cfg.TEXEngine.FetchQueueSize, cfg.TEXEngine.LoadQueueSize, cfg.TEXEngine.InstructionMemoryLatency, mem, pool)
		units[i] = gpu.NewComputeUnit(i, params, cf, alu, tex, local, mem, pool)
	}

	g := gpu.NewGPU(units, es)
	g.MaxCycles = maxCycles
	g.MaxInst = maxInst
	g.MaxKernels = maxKernels

	globalSize := dims3(globalSizeFlag)
	localSize := dims3(localSizeFlag)

	d := driver.NewDriver(g, cfg.Device.WavefrontSize)
	host := &cliHostContext{
		fn: &driver.Function{
			Name:             desc.Name,
			GPRsPerWorkItem:  desc.GPRsPerWorkItem,
			LocalMemPerGroup: desc.LocalMemPerGroup,
			Program:          prog,
		},
		globalSize: globalSize,
		localSize:  localSize,
	}

	logrus.Infof("launching kernel %s: global=%v local=%v", desc.Name, globalSize, localSize)
	if err := d.Launch(host); err != nil {
		return err
	}
	logrus.Infof("kernel %s finished: reason=%s cycles=%d instructions=%d", desc.Name, g.TerminationReason, g.Cycle, g.TotalInstructions())

	tr.RecordNDRange(trace.NDRangeRecord{Kernel: desc.Name, GroupCount: g.NDRange.GroupCount})

	if err := writeReport(cfg, g); err != nil {
		return err
	}
	return writeTrace(tr)
}

func writeReport(cfg *config.Config, g *gpu.GPU) error {
	if reportPath == "" {
		return report.Write(os.Stdout, cfg, g)
	}
	f, err := os.Create(reportPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return report.Write(f, cfg, g)
}

func writeTrace(tr *trace.Trace) error {
	if tracePath == "" {
		return nil
	}
	f, err := os.Create(tracePath)
	if err != nil {
		return err
	}
	defer f.Close()
	return tr.WriteTo(f)
}

// cliHostContext is the minimal HostContext the CLI drives a single
// launch with: block dimensions come straight from flags rather than a
// real functional emulator's register file (spec.md §1 places the
// functional emulator out of scope).
type cliHostContext struct {
	fn         *driver.Function
	globalSize [3]int
	localSize  [3]int
}

func (c *cliHostContext) ReadLaunchArgs() (driver.LaunchArgs, error) {
	grid := [3]int{
		c.globalSize[0] / c.localSize[0],
		c.globalSize[1] / c.localSize[1],
		c.globalSize[2] / c.localSize[2],
	}
	return driver.LaunchArgs{FunctionID: 0, Grid: grid, Block: c.localSize}, nil
}

func (c *cliHostContext) ResolveFunction(id int) (*driver.Function, error) {
	return c.fn, nil
}

func (c *cliHostContext) CopyArg(i int, size int) ([]byte, error) {
	return make([]byte, size), nil
}

func (c *cliHostContext) Suspend(canWake func() bool, wake func()) {
	if canWake() {
		wake()
	}
}

func (c *cliHostContext) WakeSuspended() {}
