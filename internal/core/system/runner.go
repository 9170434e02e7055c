package system

import (
	"sort"
	"time"
)

// TickStats is the wall time one full tick spent, in total and per phase.
type TickStats struct {
	Total  time.Duration
	Phases [phaseCount]time.Duration
}

// Slowest returns the phase that took longest.
func (s TickStats) Slowest() Phase {
	slowest := PhaseInput
	for p := range s.Phases {
		if s.Phases[p] > s.Phases[slowest] {
			slowest = Phase(p)
		}
	}
	return slowest
}

// Runner ticks its systems in phase order. Systems sharing a phase run in
// registration order.
type Runner struct {
	systems []System
	sorted  bool
	ticks   uint64
	last    TickStats

	budget time.Duration
	onSlow func(TickStats)
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 8),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// OnSlowTick calls fn after every tick that took longer than budget.
// A zero budget disables the check.
func (r *Runner) OnSlowTick(budget time.Duration, fn func(TickStats)) {
	r.budget = budget
	r.onSlow = fn
}

func (r *Runner) Tick(dt time.Duration) {
	r.ensureSorted()
	var stats TickStats
	start := time.Now()
	for _, s := range r.systems {
		began := time.Now()
		s.Update(dt)
		if p := s.Phase(); p >= 0 && int(p) < phaseCount {
			stats.Phases[p] += time.Since(began)
		}
	}
	stats.Total = time.Since(start)
	r.last = stats
	r.ticks++

	if r.onSlow != nil && r.budget > 0 && stats.Total > r.budget {
		r.onSlow(stats)
	}
}

// TickPhase runs only the systems of one phase, without counting a tick.
// Used to poll input between full ticks.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			s.Update(dt)
		}
	}
}

// Ticks returns the number of completed full ticks.
func (r *Runner) Ticks() uint64 {
	return r.ticks
}

// LastTick returns the timings of the most recent full tick.
func (r *Runner) LastTick() TickStats {
	return r.last
}

func (r *Runner) ensureSorted() {
	if r.sorted {
		return
	}
	sort.SliceStable(r.systems, func(i, j int) bool {
		return r.systems[i].Phase() < r.systems[j].Phase()
	})
	r.sorted = true
}
