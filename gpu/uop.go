package gpu

// Uop is a micro-operation record carrying per-wavefront pipeline metadata
// as it moves through an engine. Pooled: allocated from a UopPool on issue,
// returned to the pool on retire.
type Uop struct {
	ID          uint64
	Wavefront   *Wavefront
	IssueCycle  int64
	ReadyCycle  int64
	VLIWSlotMask byte // bit i set iff slot i (x,y,z,w,t) is occupied
	MemAccess   *MemAccessHandle

	inPool bool
}

// UopPool allocates and frees Uop records. A freelist avoids per-issue
// heap allocation; this is the intrusive-reuse idiom spec.md §9 describes
// for compute-unit list linkage, applied here to uops (spec.md §2 C1).
type UopPool struct {
	next uint64
	free []*Uop
}

// NewUopPool creates an empty pool.
func NewUopPool() *UopPool {
	return &UopPool{}
}

// Alloc returns a Uop for the given wavefront issued at issueCycle, ready
// no earlier than issueCycle+latency cycles later (spec.md §3 invariant:
// "ready_cycle ≥ issue_cycle + engine_latency").
func (p *UopPool) Alloc(wf *Wavefront, issueCycle int64, latency int64) *Uop {
	var u *Uop
	if n := len(p.free); n > 0 {
		u = p.free[n-1]
		p.free = p.free[:n-1]
		*u = Uop{}
	} else {
		p.next++
		u = &Uop{ID: p.next}
	}
	u.Wavefront = wf
	u.IssueCycle = issueCycle
	u.ReadyCycle = issueCycle + latency
	return u
}

// Free returns a uop to the pool. Calling Free twice on the same uop, or
// using it afterward, is a programmer bug.
func (p *UopPool) Free(u *Uop) {
	if u.inPool {
		panic("gpu: double free of uop")
	}
	u.inPool = true
	p.free = append(p.free, u)
}
