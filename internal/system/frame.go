package system

import (
	"time"

	coresys "github.com/jamgo/jam/internal/core/system"
	"github.com/jamgo/jam/internal/handler"
)

// FrameSystem processes one world frame per tick. Phase 2 (Update).
type FrameSystem struct {
	worlds *handler.WorldHandler
	frames uint64
}

func NewFrameSystem(worlds *handler.WorldHandler) *FrameSystem {
	return &FrameSystem{worlds: worlds}
}

func (s *FrameSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *FrameSystem) Update(_ time.Duration) {
	w := s.worlds.World()
	if w == nil {
		return
	}
	w.ProcessFrame()
	s.frames++
}

// Frames returns the number of frames processed.
func (s *FrameSystem) Frames() uint64 {
	return s.frames
}
