// Package config parses the simulator's sectioned key/value configuration
// file (spec.md §6). Unlike the teacher's YAML policy bundle, the format
// here is Multi2Sim's own ini-style layout, so parsing uses gopkg.in/ini.v1
// instead of yaml.v3 — the section/key shape does not map onto YAML without
// inventing structure the spec doesn't have.
package config

import (
	"fmt"

	"gopkg.in/ini.v1"

	"github.com/hbarclay/multi2sim/gpu"
)

// DeviceConfig is the [Device] section (spec.md §6).
type DeviceConfig struct {
	NumComputeUnits             int
	NumStreamCores               int
	NumRegisters                 int
	RegisterAllocSize             int
	RegisterAllocGranularity      string
	WavefrontSize                 int
	MaxWorkGroupsPerComputeUnit   int
	MaxWavefrontsPerComputeUnit   int
	SchedulingPolicy              string
}

// LocalMemoryConfig is the [LocalMemory] section.
type LocalMemoryConfig struct {
	Size      int
	AllocSize int
	BlockSize int
	Latency   int64
	Ports     int
}

// CFEngineConfig is the [CFEngine] section.
type CFEngineConfig struct {
	InstructionMemoryLatency int64
}

// ALUEngineConfig is the [ALUEngine] section.
type ALUEngineConfig struct {
	InstructionMemoryLatency int64
	FetchQueueSize           int
	ProcessingElementLatency int64
}

// TEXEngineConfig is the [TEXEngine] section.
type TEXEngineConfig struct {
	InstructionMemoryLatency int64
	FetchQueueSize           int
	LoadQueueSize            int
}

// Config is the complete effective configuration (spec.md §6 table).
type Config struct {
	Device      DeviceConfig
	LocalMemory LocalMemoryConfig
	CFEngine    CFEngineConfig
	ALUEngine   ALUEngineConfig
	TEXEngine   TEXEngineConfig
}

// Default returns the configuration with every default from spec.md §6.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			NumComputeUnits:             20,
			NumStreamCores:              16,
			NumRegisters:                16384,
			RegisterAllocSize:           32,
			RegisterAllocGranularity:    "WorkGroup",
			WavefrontSize:               64,
			MaxWorkGroupsPerComputeUnit: 8,
			MaxWavefrontsPerComputeUnit: 32,
			SchedulingPolicy:            "RoundRobin",
		},
		LocalMemory: LocalMemoryConfig{
			Size:      32768,
			AllocSize: 1024,
			BlockSize: 256,
			Latency:   2,
			Ports:     2,
		},
		CFEngine: CFEngineConfig{InstructionMemoryLatency: 2},
		ALUEngine: ALUEngineConfig{
			InstructionMemoryLatency: 2,
			FetchQueueSize:           64,
			ProcessingElementLatency: 4,
		},
		TEXEngine: TEXEngineConfig{
			InstructionMemoryLatency: 2,
			FetchQueueSize:           32,
			LoadQueueSize:            8,
		},
	}
}

// Load reads and parses a configuration file; an empty path returns
// Default() unmodified (spec.md SPEC_FULL.md §6.1 "Load(path) ... returns
// defaults if path == \"\"").
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("reading device config: %w", err)
	}

	if sec, err := f.GetSection("Device"); err == nil {
		d := &cfg.Device
		mapInt(sec, "NumComputeUnits", &d.NumComputeUnits)
		mapInt(sec, "NumStreamCores", &d.NumStreamCores)
		mapInt(sec, "NumRegisters", &d.NumRegisters)
		mapInt(sec, "RegisterAllocSize", &d.RegisterAllocSize)
		mapString(sec, "RegisterAllocGranularity", &d.RegisterAllocGranularity)
		mapInt(sec, "WavefrontSize", &d.WavefrontSize)
		mapInt(sec, "MaxWorkGroupsPerComputeUnit", &d.MaxWorkGroupsPerComputeUnit)
		mapInt(sec, "MaxWavefrontsPerComputeUnit", &d.MaxWavefrontsPerComputeUnit)
		mapString(sec, "SchedulingPolicy", &d.SchedulingPolicy)
	}
	if sec, err := f.GetSection("LocalMemory"); err == nil {
		l := &cfg.LocalMemory
		mapInt(sec, "Size", &l.Size)
		mapInt(sec, "AllocSize", &l.AllocSize)
		mapInt(sec, "BlockSize", &l.BlockSize)
		mapInt64(sec, "Latency", &l.Latency)
		mapInt(sec, "Ports", &l.Ports)
	}
	if sec, err := f.GetSection("CFEngine"); err == nil {
		mapInt64(sec, "InstructionMemoryLatency", &cfg.CFEngine.InstructionMemoryLatency)
	}
	if sec, err := f.GetSection("ALUEngine"); err == nil {
		a := &cfg.ALUEngine
		mapInt64(sec, "InstructionMemoryLatency", &a.InstructionMemoryLatency)
		mapInt(sec, "FetchQueueSize", &a.FetchQueueSize)
		mapInt64(sec, "ProcessingElementLatency", &a.ProcessingElementLatency)
	}
	if sec, err := f.GetSection("TEXEngine"); err == nil {
		x := &cfg.TEXEngine
		mapInt64(sec, "InstructionMemoryLatency", &x.InstructionMemoryLatency)
		mapInt(sec, "FetchQueueSize", &x.FetchQueueSize)
		mapInt(sec, "LoadQueueSize", &x.LoadQueueSize)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func mapInt(sec *ini.Section, key string, dst *int) {
	if sec.HasKey(key) {
		if v, err := sec.Key(key).Int(); err == nil {
			*dst = v
		}
	}
}

func mapInt64(sec *ini.Section, key string, dst *int64) {
	if sec.HasKey(key) {
		if v, err := sec.Key(key).Int64(); err == nil {
			*dst = v
		}
	}
}

func mapString(sec *ini.Section, key string, dst *string) {
	if sec.HasKey(key) {
		*dst = sec.Key(key).String()
	}
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Validate checks every constraint in spec.md §6's table, in the table's
// own order, returning the first violation — mirroring Multi2Sim's
// evg_config_read ordered fatal() checks (original_source's gpu.c:206-317).
func (c *Config) Validate() error {
	d := c.Device
	if d.NumComputeUnits < 1 {
		return &gpu.ConfigInvalidError{Key: "Device.NumComputeUnits", Reason: "must be >= 1"}
	}
	if d.NumStreamCores < 1 {
		return &gpu.ConfigInvalidError{Key: "Device.NumStreamCores", Reason: "must be >= 1"}
	}
	if d.RegisterAllocSize < 1 {
		return &gpu.ConfigInvalidError{Key: "Device.RegisterAllocSize", Reason: "must be >= 1"}
	}
	if d.NumRegisters < 1 || d.NumRegisters%d.RegisterAllocSize != 0 {
		return &gpu.ConfigInvalidError{Key: "Device.NumRegisters", Reason: "must be >= 1 and a multiple of RegisterAllocSize"}
	}
	if d.RegisterAllocGranularity != "Wavefront" && d.RegisterAllocGranularity != "WorkGroup" {
		return &gpu.ConfigInvalidError{Key: "Device.RegisterAllocGranularity", Reason: "must be Wavefront or WorkGroup"}
	}
	if d.WavefrontSize < 1 {
		return &gpu.ConfigInvalidError{Key: "Device.WavefrontSize", Reason: "must be >= 1"}
	}
	if d.MaxWorkGroupsPerComputeUnit < 1 {
		return &gpu.ConfigInvalidError{Key: "Device.MaxWorkGroupsPerComputeUnit", Reason: "must be >= 1"}
	}
	if d.MaxWavefrontsPerComputeUnit < 1 {
		return &gpu.ConfigInvalidError{Key: "Device.MaxWavefrontsPerComputeUnit", Reason: "must be >= 1"}
	}
	if d.SchedulingPolicy != "RoundRobin" && d.SchedulingPolicy != "Greedy" {
		return &gpu.ConfigInvalidError{Key: "Device.SchedulingPolicy", Reason: "must be RoundRobin or Greedy"}
	}

	l := c.LocalMemory
	// The "Size cannot be smaller than BlockSize * Banks" message refers to
	// a Banks key this parser never reads (spec.md §9 open question,
	// preserved as documentation drift, not fixed): the actual check below
	// only involves BlockSize and AllocSize.
	if !isPowerOfTwo(l.Size) || l.Size < 4 || l.Size < l.BlockSize || l.Size%l.AllocSize != 0 {
		return &gpu.ConfigInvalidError{Key: "LocalMemory.Size", Reason: "must be a power of two, >= 4, >= BlockSize, and a multiple of AllocSize"}
	}
	if l.AllocSize < 1 || l.AllocSize%l.BlockSize != 0 {
		return &gpu.ConfigInvalidError{Key: "LocalMemory.AllocSize", Reason: "must be >= 1 and a multiple of BlockSize"}
	}
	if !isPowerOfTwo(l.BlockSize) || l.BlockSize < 4 {
		return &gpu.ConfigInvalidError{Key: "LocalMemory.BlockSize", Reason: "must be a power of two >= 4"}
	}
	if l.Latency < 1 {
		return &gpu.ConfigInvalidError{Key: "LocalMemory.Latency", Reason: "must be >= 1"}
	}
	if l.Ports < 1 {
		return &gpu.ConfigInvalidError{Key: "LocalMemory.Ports", Reason: "must be >= 1"}
	}

	if c.CFEngine.InstructionMemoryLatency < 1 {
		return &gpu.ConfigInvalidError{Key: "CFEngine.InstructionMemoryLatency", Reason: "must be >= 1"}
	}

	a := c.ALUEngine
	if a.InstructionMemoryLatency < 1 {
		return &gpu.ConfigInvalidError{Key: "ALUEngine.InstructionMemoryLatency", Reason: "must be >= 1"}
	}
	if a.FetchQueueSize < 56 {
		return &gpu.ConfigInvalidError{Key: "ALUEngine.FetchQueueSize", Reason: "must be >= 56"}
	}
	if a.ProcessingElementLatency < 1 {
		return &gpu.ConfigInvalidError{Key: "ALUEngine.ProcessingElementLatency", Reason: "must be >= 1"}
	}

	x := c.TEXEngine
	if x.InstructionMemoryLatency < 1 {
		return &gpu.ConfigInvalidError{Key: "TEXEngine.InstructionMemoryLatency", Reason: "must be >= 1"}
	}
	if x.FetchQueueSize < 16 {
		return &gpu.ConfigInvalidError{Key: "TEXEngine.FetchQueueSize", Reason: "must be >= 16"}
	}
	if x.LoadQueueSize < 1 {
		return &gpu.ConfigInvalidError{Key: "TEXEngine.LoadQueueSize", Reason: "must be >= 1"}
	}

	return nil
}

// OccupancyParams projects the Device/LocalMemory sections into the shape
// gpu.ComputeOccupancy consumes.
func (c *Config) OccupancyParams() gpu.OccupancyParams {
	granularity := gpu.RegisterAllocWorkGroup
	if c.Device.RegisterAllocGranularity == "Wavefront" {
		granularity = gpu.RegisterAllocWavefront
	}
	return gpu.OccupancyParams{
		WavefrontSize:               c.Device.WavefrontSize,
		MaxWavefrontsPerComputeUnit: c.Device.MaxWavefrontsPerComputeUnit,
		MaxWorkGroupsPerComputeUnit: c.Device.MaxWorkGroupsPerComputeUnit,
		NumRegisters:                c.Device.NumRegisters,
		RegisterAllocSize:           c.Device.RegisterAllocSize,
		RegisterAllocGranularity:    granularity,
		LocalMemSize:                c.LocalMemory.Size,
		LocalMemAllocSize:           c.LocalMemory.AllocSize,
	}
}
