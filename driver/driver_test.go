package driver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hbarclay/multi2sim/config"
	"github.com/hbarclay/multi2sim/gpu"
)

// fakeHostContext is a minimal HostContext double for S6 (spec.md §8):
// launch, run grid to completion, verify the suspend protocol fires
// exactly once and in the right order.
type fakeHostContext struct {
	args LaunchArgs
	fn   *Function

	wakeSuspendedCalls int
	canWake            func() bool
	wake               func()
	wakeCalls          int
}

func (c *fakeHostContext) ReadLaunchArgs() (LaunchArgs, error) { return c.args, nil }
func (c *fakeHostContext) ResolveFunction(id int) (*Function, error) { return c.fn, nil }
func (c *fakeHostContext) CopyArg(i int, size int) ([]byte, error)  { return make([]byte, size), nil }
func (c *fakeHostContext) Suspend(canWake func() bool, wake func()) {
	c.canWake = canWake
	c.wake = wake
}
func (c *fakeHostContext) WakeSuspended() { c.wakeSuspendedCalls++ }

// pollHostCycle is what the host emulator's own loop does once per host
// cycle: check canWake, and if true, call wake exactly once.
func (c *fakeHostContext) pollHostCycle() {
	if c.wake != nil && c.canWake != nil && c.canWake() {
		w := c.wake
		c.wake = nil
		c.wakeCalls++
		w()
	}
}

func newTestDriver(t *testing.T) (*Driver, *Function) {
	t.Helper()
	cfg := config.Default()
	cfg.Device.NumComputeUnits = 1

	es := gpu.NewEventSimulator()
	mem := gpu.NewFixedLatencyMemory(es, 4)
	params := cfg.OccupancyParams()

	pool := gpu.NewUopPool()
	local := gpu.NewLocalMemoryModule(es, cfg.LocalMemory.Size, cfg.LocalMemory.AllocSize, cfg.LocalMemory.BlockSize, cfg.LocalMemory.Latency, cfg.LocalMemory.Ports)
	cf := gpu.NewCFEngine(cfg.CFEngine.InstructionMemoryLatency, gpu.NewWavefrontPicker(cfg.Device.SchedulingPolicy))
	alu := gpu.NewALUEngine(cfg.ALUEngine.FetchQueueSize, cfg.ALUEngine.InstructionMemoryLatency, cfg.ALUEngine.ProcessingElementLatency, cfg.Device.NumStreamCores, cfg.Device.WavefrontSize, local, pool)
	tex := gpu.NewTEXEngine(cfg.TEXEngine.FetchQueueSize, cfg.TEXEngine.LoadQueueSize, cfg.TEXEngine.InstructionMemoryLatency, mem, pool)
	cu := gpu.NewComputeUnit(0, params, cf, alu, tex, local, mem, pool)

	g := gpu.NewGPU([]*gpu.ComputeUnit{cu}, es)
	d := NewDriver(g, cfg.Device.WavefrontSize)

	prog := &gpu.DecodedProgram{
		CF: []gpu.CFInst{{Kind: gpu.CFInstTerminator}},
	}
	fn := &Function{ID: 0, Name: "trivial", Program: prog}
	return d, fn
}

func TestLaunch_RoundTrip(t *testing.T) {
	d, fn := newTestDriver(t)
	host := &fakeHostContext{
		fn: fn,
		args: LaunchArgs{
			FunctionID: 0,
			Grid:       [3]int{1, 1, 1},
			Block:      [3]int{64, 1, 1},
		},
	}

	require.NoError(t, d.Launch(host))
	require.Equal(t, 1, host.wakeSuspendedCalls)
	require.NotNil(t, host.canWake)
	require.True(t, host.canWake())

	host.pollHostCycle()
	require.Equal(t, 1, host.wakeCalls)

	host.pollHostCycle()
	require.Equal(t, 1, host.wakeCalls, "wake must fire exactly once")
}
