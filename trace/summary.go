package trace

// TraceSummary aggregates per-kind event counts from a Trace.
type TraceSummary struct {
	TotalRecords    int
	NDRanges        int
	WorkGroups      int
	Wavefronts      int
	AsmLines        int
	ClockTicks      int
}

// Summarize computes aggregate statistics from a Trace. Safe for nil.
func Summarize(t *Trace) *TraceSummary {
	summary := &TraceSummary{}
	if t == nil {
		return summary
	}
	summary.TotalRecords = len(t.records)
	for _, r := range t.records {
		switch r.(type) {
		case NDRangeRecord:
			summary.NDRanges++
		case WorkGroupRecord:
			summary.WorkGroups++
		case WavefrontRecord:
			summary.Wavefronts++
		case AsmRecord:
			summary.AsmLines++
		case ClockRecord:
			summary.ClockTicks++
		}
	}
	return summary
}
