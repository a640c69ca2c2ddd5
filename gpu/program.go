package gpu

// CFInstKind identifies the category of a decoded CF-stream instruction.
// The instruction decoder (out of scope, spec.md §1) is responsible for
// classifying raw encodings into these kinds.
type CFInstKind int

const (
	// CFInstOther is any CF instruction with no special timing effect
	// beyond fetch/decode/execute (e.g. jumps, vertex exports).
	CFInstOther CFInstKind = iota
	// CFInstALUClause triggers the ALU engine (CF_ALU_WORD0 format).
	CFInstALUClause
	// CFInstTEXClause triggers the TEX engine (INST_TC).
	CFInstTEXClause
	// CFInstGlobalMemWrite records a global-memory write against the
	// memory module.
	CFInstGlobalMemWrite
	// CFInstTerminator ends the wavefront's control-flow stream.
	CFInstTerminator
)

// CFInst is one decoded control-flow instruction, as the CF engine (4.3)
// would receive it from the instruction decoder.
type CFInst struct {
	Kind CFInstKind

	// LoopDelta is +1 for INC_LOOP_IDX, -1 for DEC_LOOP_IDX, 0 otherwise.
	LoopDelta int

	// ALUClauseAddr/ALUClauseBundleCount identify the ALU clause to run
	// when Kind == CFInstALUClause.
	ALUClauseAddr        int
	ALUClauseBundleCount int

	// TEXClauseAddr/TEXClauseInstCount identify the TEX clause to run
	// when Kind == CFInstTEXClause.
	TEXClauseAddr     int
	TEXClauseInstCount int
}

// ALUSlot is one occupied lane (x, y, z, w, or t) of a VLIW bundle.
type ALUSlot struct {
	Lane byte // 'x','y','z','w','t'

	// IsLocalMemAccess marks a slot that reads or writes local memory
	// (4.4 "Local-memory slots").
	IsLocalMemAccess bool
	// IsLocalMemWrite distinguishes a local-memory write from a read;
	// meaningless unless IsLocalMemAccess is set.
	IsLocalMemWrite bool
	// LocalMemAddr is the local-memory byte address touched by this slot;
	// meaningless unless IsLocalMemAccess is set.
	LocalMemAddr uint64
}

// ALUBundle is one VLIW bundle: up to 5 ALU slots and up to 4 literal
// constants, encoded in at most 56 bytes (spec.md §4.4).
type ALUBundle struct {
	Slots    []ALUSlot
	Literals int
}

// SizeBytes returns the encoded size of the bundle: 2 words (8 bytes) per
// slot plus 1 word (4 bytes) per literal constant, mirroring the Evergreen
// VLIW encoding referenced by ALUEngine.FetchQueueSize's minimum of 56
// (5*8 + 4*4 = 56).
func (b ALUBundle) SizeBytes() int {
	return len(b.Slots)*8 + b.Literals*4
}

// TEXInst is one decoded TEX-clause instruction (16 bytes encoded,
// spec.md §4.5).
type TEXInst struct {
	IsLoad bool
	Addr   uint64
}

// DecodedProgram is the complete pre-decoded instruction stream for a
// kernel, as the instruction decoder (out of scope) would hand it to the
// simulator. CF is indexed by program counter; ALUClauses/TEXClauses are
// indexed by clause address as referenced from a CFInst.
type DecodedProgram struct {
	CF         []CFInst
	ALUClauses map[int][]ALUBundle
	TEXClauses map[int][]TEXInst
}
