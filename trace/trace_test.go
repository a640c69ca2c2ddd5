package trace

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrace_RecordAppendsInOrder(t *testing.T) {
	tr := NewTrace(TraceLevelBasic)

	tr.RecordInit(InitRecord{NumComputeUnits: 20, WavefrontSize: 64})
	tr.RecordNDRange(NDRangeRecord{ID: 0, Kernel: "vecadd", GroupCount: 4})
	tr.RecordWorkGroup(WorkGroupRecord{ID: 0, NDRange: 0, CUID: 0})
	tr.RecordWavefront(WavefrontRecord{ID: 0, WorkGroup: 0, CUID: 0})

	var buf bytes.Buffer
	require.NoError(t, tr.WriteTo(&buf))

	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	require.Len(t, lines, 4)
	require.Equal(t, "init num_compute_units=20 wavefront_size=64", string(lines[0]))
	require.Equal(t, "new_ndrange id=0 kernel=vecadd group_count=4", string(lines[1]))
	require.Equal(t, "new_wg id=0 ndrange=0 cu=0", string(lines[2]))
	require.Equal(t, "new_wf id=0 wg=0 cu=0", string(lines[3]))
}

func TestTrace_LevelNoneRecordsNothing(t *testing.T) {
	tr := NewTrace(TraceLevelNone)
	tr.RecordInit(InitRecord{NumComputeUnits: 20, WavefrontSize: 64})

	var buf bytes.Buffer
	require.NoError(t, tr.WriteTo(&buf))
	require.Empty(t, buf.Bytes())
}

func TestTrace_ClockGatedByFullLevel(t *testing.T) {
	basic := NewTrace(TraceLevelBasic)
	basic.RecordClock(ClockRecord{Cycle: 1})
	require.Empty(t, basic.records)

	full := NewTrace(TraceLevelFull)
	full.RecordClock(ClockRecord{Cycle: 1})
	require.Len(t, full.records, 1)
	require.Equal(t, "clk cycle=1", full.records[0].Line())
}

func TestIsValidTraceLevel(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"none", true},
		{"basic", true},
		{"full", true},
		{"", true},
		{"detailed", false},
		{"NONE", false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.valid, IsValidTraceLevel(tt.level), tt.level)
	}
}
