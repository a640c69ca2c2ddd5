package gpu

import "fmt"

// WavefrontPicker selects the next ready wavefront to advance within a CF
// engine (spec.md §4.3 "Scheduling within CF"). Mirrors the teacher's
// InstanceScheduler strategy interface (sim/scheduler.go): a single method,
// called each cycle, implementations reorder/select in place or by index.
type WavefrontPicker interface {
	// Pick returns the index into resident of the wavefront to advance
	// next, or -1 if none is ready. lastPicked is the index most recently
	// advanced (or -1 initially), used by Greedy.
	Pick(resident []*Wavefront, lastPicked int) int
}

// RoundRobinPicker cycles over resident wavefronts in order, skipping
// those not ready (spec.md §4.3 "cyclic over resident wavefronts").
type RoundRobinPicker struct{}

func (RoundRobinPicker) Pick(resident []*Wavefront, lastPicked int) int {
	n := len(resident)
	if n == 0 {
		return -1
	}
	start := lastPicked + 1
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		if resident[idx].Ready() {
			return idx
		}
	}
	return -1
}

// GreedyPicker keeps running the most-recently-executed resident wavefront
// as long as it remains ready; when it stalls, it picks the ready
// wavefront with the lowest id (spec.md §4.3 "most-recently-executed
// resident wavefront, as long as it remains ready").
type GreedyPicker struct{}

func (GreedyPicker) Pick(resident []*Wavefront, lastPicked int) int {
	n := len(resident)
	if n == 0 {
		return -1
	}
	if lastPicked >= 0 && lastPicked < n && resident[lastPicked].Ready() {
		return lastPicked
	}
	// Ties broken by lowest wavefront id (spec.md §4.3).
	best := -1
	for i, wf := range resident {
		if !wf.Ready() {
			continue
		}
		if best == -1 || wf.ID < resident[best].ID {
			best = i
		}
	}
	return best
}

// NewWavefrontPicker creates a WavefrontPicker by name. Valid names:
// "RoundRobin" (default), "Greedy". Panics on an unrecognized name — by
// the time this is called, config.Validate has already rejected bad
// SchedulingPolicy values, so an unrecognized name here is a programmer
// bug, matching the teacher's NewScheduler panic-on-unknown-name
// convention (sim/scheduler.go).
func NewWavefrontPicker(name string) WavefrontPicker {
	switch name {
	case "", "RoundRobin":
		return RoundRobinPicker{}
	case "Greedy":
		return GreedyPicker{}
	default:
		panic(fmt.Sprintf("gpu: unknown scheduling policy %q", name))
	}
}
