package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/jamgo/jam/internal/core/system"
	"github.com/jamgo/jam/internal/handler"
)

// CleanupSystem releases destroyed entities that no frame visits, such as
// ones left behind outside the camera range. Phase 5 (Cleanup).
type CleanupSystem struct {
	worlds    *handler.WorldHandler
	log       *zap.Logger
	tickCount int
	interval  int
	swept     int
}

func NewCleanupSystem(worlds *handler.WorldHandler, intervalTicks int, log *zap.Logger) *CleanupSystem {
	if intervalTicks < 1 {
		intervalTicks = 1
	}
	return &CleanupSystem{worlds: worlds, log: log, interval: intervalTicks}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0

	w := s.worlds.World()
	if w == nil {
		return
	}
	if n := w.Sweep(); n > 0 {
		s.swept += n
		s.log.Debug("swept destroyed entities", zap.Int("count", n))
	}
}

// Swept returns the total number of entities released.
func (s *CleanupSystem) Swept() int {
	return s.swept
}
