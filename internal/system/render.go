package system

import (
	"fmt"
	"time"

	coresys "github.com/jamgo/jam/internal/core/system"
	"github.com/jamgo/jam/internal/handler"
)

// Screen is the output side of the renderer.
type Screen interface {
	SetHUD(s string)
	Show()
	Clear()
}

// RenderSystem writes the status line, flushes the frame drawn during
// Update and clears the buffer for the next tick. Phase 4 (Output).
type RenderSystem struct {
	screen Screen
	worlds *handler.WorldHandler
	ticks  uint64
}

func NewRenderSystem(screen Screen, worlds *handler.WorldHandler) *RenderSystem {
	return &RenderSystem{screen: screen, worlds: worlds}
}

func (s *RenderSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *RenderSystem) Update(_ time.Duration) {
	s.ticks++
	s.screen.SetHUD(s.hud())
	s.screen.Show()
	s.screen.Clear()
}

func (s *RenderSystem) hud() string {
	w := s.worlds.World()
	if w == nil {
		return "no level"
	}
	name := ""
	if lvl := s.worlds.Level(); lvl != nil {
		name = lvl.Name
	}
	if !w.Caching() {
		return fmt.Sprintf("%s  entities %d  direct  tick %d", name, w.Len(), s.ticks)
	}
	return fmt.Sprintf("%s  entities %d  cached %d  tick %d", name, w.Len(), w.CacheLen(), s.ticks)
}
