package gpu

// aluClauseJob tracks one wavefront's ALU clause working its way through
// the bundle pipeline (spec.md §4.4).
type aluClauseJob struct {
	wf         *Wavefront
	bundles    []ALUBundle
	nextBundle int
	onComplete func()

	peDoneAt   int64
	localDone  bool
	issued     bool
	uop        *Uop
}

// ALUEngine models VLIW bundle issue and stream-core time-multiplexing
// (spec.md §4.4). It services one clause at a time; clauses from other
// wavefronts queue FIFO.
type ALUEngine struct {
	FetchQueueSize        int
	InstructionMemLatency int64
	PELatency             int64
	NumStreamCores        int
	WavefrontSize         int

	local *LocalMemoryModule
	pool  *UopPool

	queue  []*aluClauseJob
	active *aluClauseJob

	WavefrontCount    int64
	Instructions      int64
	InstructionSlots  int64
	LocalMemorySlots  int64
	VLIWOccupancy     [5]int64
	Cycles            int64
}

// NewALUEngine constructs an ALU engine backed by the given local-memory
// module and uop pool.
func NewALUEngine(fetchQueueSize int, instMemLatency, peLatency int64, numStreamCores, wavefrontSize int, local *LocalMemoryModule, pool *UopPool) *ALUEngine {
	return &ALUEngine{
		FetchQueueSize:        fetchQueueSize,
		InstructionMemLatency: instMemLatency,
		PELatency:             peLatency,
		NumStreamCores:        numStreamCores,
		WavefrontSize:         wavefrontSize,
		local:                 local,
		pool:                  pool,
	}
}

// StartClause enqueues wavefront wf's ALU clause at clauseAddr for
// execution; onComplete fires once every bundle has written back
// (spec.md §4.4 "the ALU engine then notifies the CF engine").
func (e *ALUEngine) StartClause(now int64, wf *Wavefront, clauseAddr int, bundleCount int, prog *DecodedProgram, onComplete func()) {
	bundles := prog.ALUClauses[clauseAddr]
	if bundleCount < len(bundles) {
		bundles = bundles[:bundleCount]
	}
	e.WavefrontCount++
	e.queue = append(e.queue, &aluClauseJob{wf: wf, bundles: bundles, onComplete: onComplete})
}

func (e *ALUEngine) timeMultiplex() int64 {
	if e.NumStreamCores <= 0 {
		return 1
	}
	return int64(ceilDiv(e.WavefrontSize, e.NumStreamCores))
}

// Step advances the ALU engine by one cycle (spec.md §4.6 step (b)).
func (e *ALUEngine) Step(now int64) {
	e.Cycles++

	if e.active == nil && len(e.queue) > 0 {
		e.active = e.queue[0]
		e.queue = e.queue[1:]
	}
	if e.active == nil {
		return
	}
	job := e.active

	if !job.issued {
		e.issueBundle(now, job)
	}

	if job.peDoneAt <= now && job.localDone {
		e.retireBundle(job)
		if job.nextBundle >= len(job.bundles) {
			onComplete := job.onComplete
			e.active = nil
			onComplete()
			return
		}
		job.issued = false
	}
}

// issueBundle puts the next bundle of the active clause into flight: all
// occupied slots issue in the same cycle, the bundle completing when its
// slowest slot completes (spec.md §4.4), elongated by the stream-core
// replay factor.
func (e *ALUEngine) issueBundle(now int64, job *aluClauseJob) {
	bundle := job.bundles[job.nextBundle]
	job.issued = true
	latency := e.PELatency * e.timeMultiplex()
	job.peDoneAt = now + latency
	job.uop = e.pool.Alloc(job.wf, now, latency)

	hasLocal := false
	for _, s := range bundle.Slots {
		if s.IsLocalMemAccess {
			hasLocal = true
			break
		}
	}
	if hasLocal && e.local != nil {
		job.localDone = false
		e.local.AccessBundle(now, bundle.Slots, func() { job.localDone = true })
	} else {
		job.localDone = true
	}
}

// retireBundle records the completed bundle's statistics (spec.md §4.4
// "slot histogram"; property 6).
func (e *ALUEngine) retireBundle(job *aluClauseJob) {
	bundle := job.bundles[job.nextBundle]
	job.nextBundle++
	e.pool.Free(job.uop)
	job.uop = nil

	k := len(bundle.Slots)
	if k < 1 {
		k = 1
	}
	if k > 5 {
		k = 5
	}
	e.VLIWOccupancy[k-1]++
	e.Instructions++
	e.InstructionSlots += int64(len(bundle.Slots))

	for _, s := range bundle.Slots {
		if s.IsLocalMemAccess {
			e.LocalMemorySlots++
		}
	}
}
