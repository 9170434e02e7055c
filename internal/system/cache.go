package system

import (
	"errors"
	"time"

	"go.uber.org/zap"

	coresys "github.com/jamgo/jam/internal/core/system"
	"github.com/jamgo/jam/internal/handler"
	"github.com/jamgo/jam/internal/world"
)

// CacheSystem requests a background cache refresh every interval ticks so
// the in-range cache follows the camera. Phase 3 (PostUpdate).
type CacheSystem struct {
	worlds    *handler.WorldHandler
	log       *zap.Logger
	tickCount int
	interval  int

	requested int
	refused   int
}

func NewCacheSystem(worlds *handler.WorldHandler, intervalTicks int, log *zap.Logger) *CacheSystem {
	if intervalTicks < 1 {
		intervalTicks = 1
	}
	return &CacheSystem{worlds: worlds, log: log, interval: intervalTicks}
}

func (s *CacheSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *CacheSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0

	w := s.worlds.World()
	if w == nil || !w.Caching() {
		return
	}
	err := w.RefreshCache()
	switch {
	case err == nil:
		s.requested++
	case errors.Is(err, world.ErrRefreshInFlight):
		// Try again next interval.
		s.refused++
		s.log.Debug("cache refresh skipped", zap.Error(err))
	case errors.Is(err, world.ErrCachingDisabled), errors.Is(err, world.ErrFreed):
	default:
		s.log.Error("cache refresh", zap.Error(err))
	}
}

// Stats returns how many refreshes were started and how many were refused
// because the previous one was still running.
func (s *CacheSystem) Stats() (requested, refused int) {
	return s.requested, s.refused
}
