package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hbarclay/multi2sim/gpu"
)

func TestDefault_Validates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestValidate_NumComputeUnitsBoundary(t *testing.T) {
	cfg := Default()
	cfg.Device.NumComputeUnits = 1
	require.NoError(t, cfg.Validate())

	cfg.Device.NumComputeUnits = 0
	err := cfg.Validate()
	require.Error(t, err)
	var cerr *gpu.ConfigInvalidError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "Device.NumComputeUnits", cerr.Key)
}

func TestValidate_NumRegistersMultipleOfAllocSize(t *testing.T) {
	cfg := Default()
	cfg.Device.NumRegisters = 16385
	require.Error(t, cfg.Validate())
}

func TestValidate_RegisterAllocGranularityEnum(t *testing.T) {
	cfg := Default()
	cfg.Device.RegisterAllocGranularity = "Wavefront"
	require.NoError(t, cfg.Validate())

	cfg.Device.RegisterAllocGranularity = "Bogus"
	require.Error(t, cfg.Validate())
}

func TestValidate_SchedulingPolicyEnum(t *testing.T) {
	cfg := Default()
	cfg.Device.SchedulingPolicy = "Greedy"
	require.NoError(t, cfg.Validate())

	cfg.Device.SchedulingPolicy = "FIFO"
	require.Error(t, cfg.Validate())
}

func TestValidate_LocalMemorySizeConstraints(t *testing.T) {
	cfg := Default()

	cfg.LocalMemory.Size = 1000 // not a power of two
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.LocalMemory.Size = 512
	cfg.LocalMemory.BlockSize = 1024 // Size < BlockSize
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.LocalMemory.Size = 2048
	cfg.LocalMemory.AllocSize = 1024
	// 2048 % 1024 == 0, valid
	require.NoError(t, cfg.Validate())
}

func TestValidate_ALUEngineFetchQueueMinimum(t *testing.T) {
	cfg := Default()
	cfg.ALUEngine.FetchQueueSize = 56
	require.NoError(t, cfg.Validate())

	cfg.ALUEngine.FetchQueueSize = 55
	require.Error(t, cfg.Validate())
}

func TestValidate_TEXEngineFetchQueueMinimum(t *testing.T) {
	cfg := Default()
	cfg.TEXEngine.FetchQueueSize = 16
	require.NoError(t, cfg.Validate())

	cfg.TEXEngine.FetchQueueSize = 15
	require.Error(t, cfg.Validate())
}

func TestOccupancyParams_GranularityMapping(t *testing.T) {
	cfg := Default()
	cfg.Device.RegisterAllocGranularity = "Wavefront"
	require.Equal(t, gpu.RegisterAllocWavefront, cfg.OccupancyParams().RegisterAllocGranularity)

	cfg.Device.RegisterAllocGranularity = "WorkGroup"
	require.Equal(t, gpu.RegisterAllocWorkGroup, cfg.OccupancyParams().RegisterAllocGranularity)
}
