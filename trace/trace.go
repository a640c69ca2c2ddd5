package trace

import (
	"bufio"
	"io"
)

// TraceLevel controls the verbosity of event recording (spec.md §6).
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelBasic records init/new_ndrange/new_wg/new_wf/asm but not
	// the once-per-cycle clk line.
	TraceLevelBasic TraceLevel = "basic"
	// TraceLevelFull additionally records a clk line every cycle.
	TraceLevelFull TraceLevel = "full"
)

var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:  true,
	TraceLevelBasic: true,
	TraceLevelFull:  true,
	"":              true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is recognized.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// line is the common interface every record type satisfies.
type line interface {
	Line() string
}

// Trace collects the GPU's line-oriented events during a run (spec.md
// §6 "Line-oriented events emitted lazily... each line is `key k=v k=v`").
type Trace struct {
	Level   TraceLevel
	records []line
}

// NewTrace creates a Trace at the given level.
func NewTrace(level TraceLevel) *Trace {
	return &Trace{Level: level}
}

func (t *Trace) enabled() bool {
	return t != nil && t.Level != TraceLevelNone && t.Level != ""
}

// RecordInit appends an init record, gated on any non-None level.
func (t *Trace) RecordInit(r InitRecord) {
	if t.enabled() {
		t.records = append(t.records, r)
	}
}

// RecordNDRange appends a new_ndrange record.
func (t *Trace) RecordNDRange(r NDRangeRecord) {
	if t.enabled() {
		t.records = append(t.records, r)
	}
}

// RecordWorkGroup appends a new_wg record.
func (t *Trace) RecordWorkGroup(r WorkGroupRecord) {
	if t.enabled() {
		t.records = append(t.records, r)
	}
}

// RecordWavefront appends a new_wf record.
func (t *Trace) RecordWavefront(r WavefrontRecord) {
	if t.enabled() {
		t.records = append(t.records, r)
	}
}

// RecordAsm appends an asm (disassembly) record.
func (t *Trace) RecordAsm(r AsmRecord) {
	if t.enabled() {
		t.records = append(t.records, r)
	}
}

// RecordClock appends a clk record; gated on TraceLevelFull since it
// fires once per cycle and dominates trace volume otherwise.
func (t *Trace) RecordClock(r ClockRecord) {
	if t != nil && t.Level == TraceLevelFull {
		t.records = append(t.records, r)
	}
}

// WriteTo renders every recorded event, one per line, in the order
// recorded.
func (t *Trace) WriteTo(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, r := range t.records {
		if _, err := bw.WriteString(r.Line()); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
