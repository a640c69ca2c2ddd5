// Package kernel loads the decoded CF/ALU/TEX instruction stream a real
// instruction decoder would hand the simulator (spec.md §1 places the
// decoder itself out of scope). Since that stream is out of scope to
// *produce*, it is supplied as a YAML fixture and strictly decoded the
// way the teacher's sim.LoadPolicyBundle decodes its policy bundle
// (SPEC_FULL.md "Kernel/program descriptor loading").
package kernel

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/hbarclay/multi2sim/gpu"
)

// Descriptor is the YAML-level representation of one kernel's decoded
// program plus the per-work-item resource shape the occupancy calculator
// and driver need.
type Descriptor struct {
	Name             string                     `yaml:"name"`
	GPRsPerWorkItem  int                        `yaml:"gprs_per_work_item"`
	LocalMemPerGroup int                        `yaml:"local_mem_per_group"`
	CF               []cfInstYAML               `yaml:"cf"`
	ALUClauses       map[string][]aluBundleYAML `yaml:"alu_clauses"`
	TEXClauses       map[string][]texInstYAML   `yaml:"tex_clauses"`
}

type cfInstYAML struct {
	Kind                 string `yaml:"kind"`
	LoopDelta            int    `yaml:"loop_delta"`
	ALUClauseAddr        int    `yaml:"alu_clause_addr"`
	ALUClauseBundleCount int    `yaml:"alu_clause_bundle_count"`
	TEXClauseAddr        int    `yaml:"tex_clause_addr"`
	TEXClauseInstCount   int    `yaml:"tex_clause_inst_count"`
}

type aluSlotYAML struct {
	Lane          string `yaml:"lane"`
	LocalMem      bool   `yaml:"local_mem"`
	LocalMemWrite bool   `yaml:"local_mem_write"`
	LocalMemAddr  uint64 `yaml:"local_mem_addr"`
}

type aluBundleYAML struct {
	Slots    []aluSlotYAML `yaml:"slots"`
	Literals int           `yaml:"literals"`
}

type texInstYAML struct {
	Load bool   `yaml:"load"`
	Addr uint64 `yaml:"addr"`
}

// Load reads and strictly parses a kernel descriptor file — unrecognized
// keys are rejected, matching sim.LoadPolicyBundle's
// decoder.KnownFields(true) convention.
func Load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading kernel descriptor: %w", err)
	}
	var d Descriptor
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("parsing kernel descriptor: %w", err)
	}
	return &d, nil
}

var cfKindByName = map[string]gpu.CFInstKind{
	"other":            gpu.CFInstOther,
	"alu_clause":       gpu.CFInstALUClause,
	"tex_clause":       gpu.CFInstTEXClause,
	"global_mem_write": gpu.CFInstGlobalMemWrite,
	"terminator":       gpu.CFInstTerminator,
}

// DecodedProgram converts the YAML descriptor into the gpu package's
// runtime program representation (spec.md SPEC_FULL.md §3 "program
// types supplied by the external decoder").
func (d *Descriptor) DecodedProgram() (*gpu.DecodedProgram, error) {
	prog := &gpu.DecodedProgram{
		ALUClauses: make(map[int][]gpu.ALUBundle, len(d.ALUClauses)),
		TEXClauses: make(map[int][]gpu.TEXInst, len(d.TEXClauses)),
	}

	for i, inst := range d.CF {
		kind, ok := cfKindByName[inst.Kind]
		if !ok {
			return nil, &gpu.DecodeError{PC: i, Reason: fmt.Sprintf("unknown CF instruction kind %q", inst.Kind)}
		}
		prog.CF = append(prog.CF, gpu.CFInst{
			Kind:                 kind,
			LoopDelta:            inst.LoopDelta,
			ALUClauseAddr:        inst.ALUClauseAddr,
			ALUClauseBundleCount: inst.ALUClauseBundleCount,
			TEXClauseAddr:        inst.TEXClauseAddr,
			TEXClauseInstCount:   inst.TEXClauseInstCount,
		})
	}

	for addrStr, bundles := range d.ALUClauses {
		addr, err := strconv.Atoi(addrStr)
		if err != nil {
			return nil, fmt.Errorf("alu_clauses key %q: %w", addrStr, err)
		}
		converted := make([]gpu.ALUBundle, len(bundles))
		for i, b := range bundles {
			slots := make([]gpu.ALUSlot, len(b.Slots))
			for j, s := range b.Slots {
				lane := byte(0)
				if len(s.Lane) > 0 {
					lane = s.Lane[0]
				}
				slots[j] = gpu.ALUSlot{
					Lane:             lane,
					IsLocalMemAccess: s.LocalMem,
					IsLocalMemWrite:  s.LocalMemWrite,
					LocalMemAddr:     s.LocalMemAddr,
				}
			}
			converted[i] = gpu.ALUBundle{Slots: slots, Literals: b.Literals}
		}
		prog.ALUClauses[addr] = converted
	}

	for addrStr, insts := range d.TEXClauses {
		addr, err := strconv.Atoi(addrStr)
		if err != nil {
			return nil, fmt.Errorf("tex_clauses key %q: %w", addrStr, err)
		}
		converted := make([]gpu.TEXInst, len(insts))
		for i, inst := range insts {
			converted[i] = gpu.TEXInst{IsLoad: inst.Load, Addr: inst.Addr}
		}
		prog.TEXClauses[addr] = converted
	}

	return prog, nil
}
