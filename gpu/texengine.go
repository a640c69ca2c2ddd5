package gpu

// texClauseJob tracks one wavefront's TEX clause working through the
// fetch/load queues (spec.md §4.5).
type texClauseJob struct {
	wf         *Wavefront
	insts      []TEXInst
	nextInst   int
	inFlight   int
	onComplete func()
}

// TEXEngine models the load queue for memory-bound texture/vector loads
// (spec.md §4.5). Like the ALU engine it services one clause at a time,
// FIFO across wavefronts. FetchQueueSize is stored but does not limit
// fetch: instructions are taken straight from the clause, bounded only by
// LoadQueueSize.
type TEXEngine struct {
	FetchQueueSize int
	LoadQueueSize  int
	Latency        int64

	memory MemoryModule
	pool   *UopPool

	queue  []*texClauseJob
	active *texClauseJob

	WavefrontCount int64
	Instructions   int64
	Cycles         int64
}

// NewTEXEngine constructs a TEX engine backed by the given memory module.
func NewTEXEngine(fetchQueueSize, loadQueueSize int, latency int64, memory MemoryModule, pool *UopPool) *TEXEngine {
	return &TEXEngine{FetchQueueSize: fetchQueueSize, LoadQueueSize: loadQueueSize, Latency: latency, memory: memory, pool: pool}
}

// StartClause enqueues wavefront wf's TEX clause at clauseAddr;
// onComplete fires once the wavefront has no in-flight loads and no
// fetched instructions remain (spec.md §4.5).
func (e *TEXEngine) StartClause(now int64, wf *Wavefront, clauseAddr int, instCount int, prog *DecodedProgram, onComplete func()) {
	insts := prog.TEXClauses[clauseAddr]
	if instCount < len(insts) {
		insts = insts[:instCount]
	}
	e.WavefrontCount++
	e.queue = append(e.queue, &texClauseJob{wf: wf, insts: insts, onComplete: onComplete})
}

// Step advances the TEX engine by one cycle (spec.md §4.6 step (c)).
// Issue is capped at LoadQueueSize in-flight accesses: once the cap is
// reached, remaining fetched instructions wait — this is the backpressure
// exercised by scenario S5.
func (e *TEXEngine) Step(now int64) {
	e.Cycles++

	if e.active == nil && len(e.queue) > 0 {
		e.active = e.queue[0]
		e.queue = e.queue[1:]
	}
	if e.active == nil {
		return
	}
	job := e.active

	for job.inFlight < e.LoadQueueSize && job.nextInst < len(job.insts) {
		inst := job.insts[job.nextInst]
		job.nextInst++
		job.inFlight++
		e.Instructions++

		kind := AccessRead
		if !inst.IsLoad {
			kind = AccessWrite
		}
		uop := e.pool.Alloc(job.wf, now, e.Latency)
		e.memory.BeginAccess(now, kind, inst.Addr, func() {
			job.inFlight--
			e.pool.Free(uop)
		})
	}

	if job.nextInst >= len(job.insts) && job.inFlight == 0 {
		onComplete := job.onComplete
		e.active = nil
		onComplete()
	}
}
