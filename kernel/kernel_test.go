package kernel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const fixture = `
name: vecadd
gprs_per_work_item: 4
local_mem_per_group: 0
cf:
  - kind: terminator
`

func TestLoad_ParsesFixture(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kernel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))

	d, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "vecadd", d.Name)
	require.Equal(t, 4, d.GPRsPerWorkItem)
	require.Len(t, d.CF, 1)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kernel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixture+"\nbogus_field: 1\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestDecodedProgram_ConvertsALUAndTEXClauses(t *testing.T) {
	d := &Descriptor{
		Name: "k",
		CF: []cfInstYAML{
			{Kind: "alu_clause", ALUClauseAddr: 0, ALUClauseBundleCount: 1},
			{Kind: "terminator"},
		},
		ALUClauses: map[string][]aluBundleYAML{
			"0": {{Slots: []aluSlotYAML{{Lane: "x"}, {Lane: "y", LocalMem: true, LocalMemAddr: 256}}}},
		},
		TEXClauses: map[string][]texInstYAML{
			"0": {{Load: true, Addr: 1024}},
		},
	}

	prog, err := d.DecodedProgram()
	require.NoError(t, err)
	require.Len(t, prog.CF, 2)
	require.Len(t, prog.ALUClauses[0], 1)
	require.Len(t, prog.ALUClauses[0][0].Slots, 2)
	require.True(t, prog.ALUClauses[0][0].Slots[1].IsLocalMemAccess)
	require.Len(t, prog.TEXClauses[0], 1)
}

func TestDecodedProgram_RejectsUnknownCFKind(t *testing.T) {
	d := &Descriptor{CF: []cfInstYAML{{Kind: "bogus"}}}
	_, err := d.DecodedProgram()
	require.Error(t, err)
}
