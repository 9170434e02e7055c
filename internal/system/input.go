package system

import (
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	coresys "github.com/jamgo/jam/internal/core/system"
	"github.com/jamgo/jam/internal/handler"
)

// EventSource yields the terminal events queued since the last call.
type EventSource interface {
	Drain() []tcell.Event
}

// Panner moves the camera by a world-space offset.
type Panner interface {
	Pan(dx, dy float64)
}

// InputSystem drains terminal events once per tick. Arrow keys pan the
// camera, 'c' toggles entity caching, and q, Esc or Ctrl-C request quit.
// Phase 0 (Input).
type InputSystem struct {
	events  EventSource
	camera  Panner
	worlds  *handler.WorldHandler
	step    float64
	quit    func()
	resized func()
	log     *zap.Logger
}

func NewInputSystem(events EventSource, camera Panner, worlds *handler.WorldHandler, panStep float64, quit func(), log *zap.Logger) *InputSystem {
	return &InputSystem{
		events: events,
		camera: camera,
		worlds: worlds,
		step:   panStep,
		quit:   quit,
		log:    log,
	}
}

// OnResize sets a callback run for terminal resize events.
func (s *InputSystem) OnResize(fn func()) {
	s.resized = fn
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	for _, ev := range s.events.Drain() {
		switch ev := ev.(type) {
		case *tcell.EventKey:
			s.handleKey(ev)
		case *tcell.EventResize:
			if s.resized != nil {
				s.resized()
			}
		}
	}
}

func (s *InputSystem) handleKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		s.quit()
	case tcell.KeyLeft:
		s.camera.Pan(-s.step, 0)
	case tcell.KeyRight:
		s.camera.Pan(s.step, 0)
	case tcell.KeyUp:
		s.camera.Pan(0, -s.step)
	case tcell.KeyDown:
		s.camera.Pan(0, s.step)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'Q':
			s.quit()
		case 'c', 'C':
			s.toggleCaching()
		}
	}
}

func (s *InputSystem) toggleCaching() {
	w := s.worlds.World()
	if w == nil {
		return
	}
	on := !w.Caching()
	w.EnableCaching(on)
	s.log.Info("entity caching toggled", zap.Bool("caching", on))
}
