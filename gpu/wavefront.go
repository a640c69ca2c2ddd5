package gpu

// ClauseKind reflects which engine is currently advancing a wavefront
// (spec.md §3 invariant: "a wavefront is in exactly one engine's queue at
// a time; its clause_kind reflects the engine currently advancing it").
type ClauseKind int

const (
	ClauseNone ClauseKind = iota
	ClauseALU
	ClauseTEX
)

// CFState is the per-wavefront CF engine state machine (spec.md §4.3):
// IDLE → FETCH → DECODE → EXECUTE → (COMPLETE | WAIT_CLAUSE).
type CFState int

const (
	CFIdle CFState = iota
	CFFetch
	CFDecode
	CFExecute
	CFWaitClause
)

// Wavefront is a SIMD group of work-items executed together; the
// scheduling unit within a compute unit (spec.md §3, glossary).
type Wavefront struct {
	ID              int
	WorkGroup       *WorkGroup
	FirstWorkItem   int
	WorkItemCount   int
	PC              int
	ClauseKind      ClauseKind
	LoopDepth       int
	ReadyNextCycle  bool
	Finished        bool

	// CF engine cursor state (spec.md §3 "CFEngine state"): an index into
	// the decoded CF stream plus the FETCH-latency countdown.
	State           CFState
	FetchRemaining  int64
	LastExecuted    int64 // cycle this wavefront was last promoted into DECODE; not read by the pickers

	// pendingClauseUops is not updated by any engine: clause completion is
	// signalled to the CF engine through the onComplete callback passed to
	// ALUEngine.StartClause / TEXEngine.StartClause.
	pendingClauseUops int
}

// Ready reports whether the wavefront can be picked by the CF engine this
// cycle: not finished, not mid-clause, and not still waiting on fetch
// latency.
func (wf *Wavefront) Ready() bool {
	return !wf.Finished && wf.State != CFWaitClause && wf.FetchRemaining <= 0
}
