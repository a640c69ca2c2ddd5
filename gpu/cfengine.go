package gpu

// CFEngine drives the top-level control-flow stream of every resident
// wavefront until each has executed its terminator (spec.md §4.3). It
// holds two logical cursors — which wavefront is mid-decode and which is
// mid-execute — each occupied by at most one wavefront per cycle, while
// any number of wavefronts may be independently counting down FETCH
// latency concurrently ("one wavefront may be in FETCH while another is
// in EXECUTE").
type CFEngine struct {
	Latency int64
	Picker  WavefrontPicker

	decodeSlot  *Wavefront
	executeSlot *Wavefront
	lastPicked  int

	Instructions      int64
	ALUClauseTriggers int64
	TEXClauseTriggers int64
	GlobalMemWrites   int64
}

// NewCFEngine constructs a CF engine with the given instruction-memory
// fetch latency and wavefront-selection policy.
func NewCFEngine(latency int64, picker WavefrontPicker) *CFEngine {
	return &CFEngine{Latency: latency, Picker: picker, lastPicked: -1}
}

// AdmitWavefront initializes a freshly-admitted wavefront's CF state:
// FETCH of its first instruction begins immediately (spec.md §4.3).
func (e *CFEngine) AdmitWavefront(wf *Wavefront) {
	wf.State = CFFetch
	wf.FetchRemaining = e.Latency
}

// Step advances the CF engine by one cycle for the given compute unit
// (spec.md §4.6 step (a)). resident is the CU's live wavefronts; prog is
// the decoded text of the active ND-Range.
func (e *CFEngine) Step(now int64, resident []*Wavefront, prog *DecodedProgram, alu *ALUEngine, tex *TEXEngine, mem MemoryModule) {
	// (1) retire the wavefront that finished EXECUTE last cycle.
	if e.executeSlot != nil {
		wf := e.executeSlot
		e.executeSlot = nil
		e.execute(now, wf, prog, alu, tex, mem)
	}

	// (2) promote the wavefront that finished DECODE into EXECUTE.
	if e.decodeSlot != nil && e.executeSlot == nil {
		wf := e.decodeSlot
		e.decodeSlot = nil
		e.decode(wf, prog)
		wf.State = CFExecute
		e.executeSlot = wf
	}

	// (3) age every wavefront mid-FETCH; promote one whose latency has
	// elapsed into the (now-vacant) decode slot, chosen by the
	// configured WavefrontPicker with lowest-id tie-break.
	for _, wf := range resident {
		if wf.State == CFFetch && wf.FetchRemaining > 0 {
			wf.FetchRemaining--
		}
	}
	if e.decodeSlot == nil {
		if idx := e.Picker.Pick(resident, e.lastPicked); idx >= 0 {
			wf := resident[idx]
			if wf.State == CFFetch && wf.FetchRemaining <= 0 {
				e.lastPicked = idx
				wf.LastExecuted = now
				wf.State = CFDecode
				e.decodeSlot = wf
			}
		}
	}
}

// decode updates loop depth for the instruction at wf.PC (spec.md §4.3
// "DECODE"): +1 on INC_LOOP_IDX, -1 on DEC_LOOP_IDX. The decrement is
// applied *during* decode while the corresponding increment (below, in
// execute) happens *after* execute — this asymmetry is preserved
// verbatim per spec.md §9's open question and is load-bearing for debug
// disassembly depth display; do not "fix" it.
func (e *CFEngine) decode(wf *Wavefront, prog *DecodedProgram) {
	if wf.PC < 0 || wf.PC >= len(prog.CF) {
		panic("gpu: CF engine decode out of range")
	}
	inst := prog.CF[wf.PC]
	if inst.LoopDelta < 0 {
		if wf.LoopDepth <= 0 {
			panic(&DecodeError{PC: wf.PC, Reason: ErrLoopUnderflow.Error()})
		}
		wf.LoopDepth += inst.LoopDelta
	}
}

// execute performs the EXECUTE-stage action for the instruction at
// wf.PC (spec.md §4.3 "EXECUTE") and advances wf to its next state.
func (e *CFEngine) execute(now int64, wf *Wavefront, prog *DecodedProgram, alu *ALUEngine, tex *TEXEngine, mem MemoryModule) {
	inst := prog.CF[wf.PC]
	e.Instructions++

	switch inst.Kind {
	case CFInstALUClause:
		e.ALUClauseTriggers++
		wf.ClauseKind = ClauseALU
		wf.State = CFWaitClause
		alu.StartClause(now, wf, inst.ALUClauseAddr, inst.ALUClauseBundleCount, prog, func() {
			e.completeClause(wf)
		})
	case CFInstTEXClause:
		e.TEXClauseTriggers++
		wf.ClauseKind = ClauseTEX
		wf.State = CFWaitClause
		tex.StartClause(now, wf, inst.TEXClauseAddr, inst.TEXClauseInstCount, prog, func() {
			e.completeClause(wf)
		})
	case CFInstGlobalMemWrite:
		e.GlobalMemWrites++
		if mem != nil {
			mem.BeginAccess(now, AccessWrite, 0, func() {})
		}
		e.advance(wf, inst)
	case CFInstTerminator:
		wf.Finished = true
	default:
		e.advance(wf, inst)
	}
}

// advance moves a wavefront past a plain (non-clause, non-terminator) CF
// instruction: loop depth increments *after* execute for INC_LOOP_IDX
// (the other half of the §9 asymmetry), PC advances, and FETCH of the
// next instruction begins.
func (e *CFEngine) advance(wf *Wavefront, inst CFInst) {
	if inst.LoopDelta > 0 {
		wf.LoopDepth += inst.LoopDelta
	}
	wf.PC++
	wf.State = CFFetch
	wf.FetchRemaining = e.Latency
}

// completeClause is invoked by the ALU or TEX engine once a triggered
// clause has fully retired; it resumes the wavefront's CF stream.
func (e *CFEngine) completeClause(wf *Wavefront) {
	wf.ClauseKind = ClauseNone
	wf.PC++
	wf.State = CFFetch
	wf.FetchRemaining = e.Latency
}
