package render

import "github.com/gdamore/tcell/v2"

// Input pumps screen events into a buffered channel so the simulation loop
// can drain them without blocking.
type Input struct {
	events chan tcell.Event
}

// NewInput starts polling screen. The channel is closed once the screen is
// finalized.
func NewInput(screen tcell.Screen) *Input {
	in := &Input{events: make(chan tcell.Event, 100)}
	go func() {
		defer close(in.events)
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			in.events <- ev
		}
	}()
	return in
}

// Drain returns every event queued so far.
func (in *Input) Drain() []tcell.Event {
	var out []tcell.Event
	for {
		select {
		case ev, ok := <-in.events:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}
