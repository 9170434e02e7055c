package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain terminal input
	PhasePreUpdate               // 1: dispatch last tick's events
	PhaseUpdate                  // 2: world frame
	PhasePostUpdate              // 3: cache refresh
	PhaseOutput                  // 4: flush the screen
	PhaseCleanup                 // 5: end-of-tick bookkeeping

	phaseCount = int(PhaseCleanup) + 1
)

var phaseNames = [...]string{"input", "pre_update", "update", "post_update", "output", "cleanup"}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// System is one step of the game loop.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
