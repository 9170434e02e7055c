// Package audio plays short synthesized cues for entity lifecycle events.
// The game runs without sound when no output device is available.
package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"go.uber.org/zap"

	"github.com/jamgo/jam/internal/config"
	"github.com/jamgo/jam/internal/core/event"
	"github.com/jamgo/jam/internal/world"
)

const (
	cueLength = 60 * time.Millisecond
	maxVoices = 8
)

// Base pitch per entity type; destruction cues play an octave lower.
var pitches = map[world.EntityType]float64{
	world.TypePlayer:   660,
	world.TypeEnemy:    220,
	world.TypeNPC:      440,
	world.TypeSolid:    110,
	world.TypeObject:   880,
	world.TypeParticle: 1320,
}

// Cues mixes lifecycle cues into a single speaker stream.
type Cues struct {
	mu          sync.Mutex
	log         *zap.Logger
	rate        beep.SampleRate
	mixer       *beep.Mixer
	initialized bool
	played      int
}

func New(cfg config.AudioConfig, log *zap.Logger) *Cues {
	if log == nil {
		log = zap.NewNop()
	}
	rate := beep.SampleRate(cfg.SampleRate)
	if rate <= 0 {
		rate = 44100
	}
	return &Cues{log: log, rate: rate, mixer: &beep.Mixer{}}
}

// Initialize opens the speaker. On failure the cues stay silent and the
// error is returned for the caller to log.
func (c *Cues) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		return nil
	}
	if err := speaker.Init(c.rate, c.rate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(c.mixer)
	c.initialized = true
	return nil
}

// Subscribe plays a cue for every entity created or destroyed on bus.
func (c *Cues) Subscribe(bus *event.Bus) {
	event.Subscribe(bus, func(ev event.EntityCreated) { c.Play(ev.Type, true) })
	event.Subscribe(bus, func(ev event.EntityDestroyed) { c.Play(ev.Type, false) })
}

// Play queues the cue for an entity of type t. Cues beyond maxVoices
// concurrently playing are dropped.
func (c *Cues) Play(t world.EntityType, created bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return
	}
	speaker.Lock()
	voices := c.mixer.Len()
	speaker.Unlock()
	if voices >= maxVoices {
		return
	}
	s, err := Cue(c.rate, t, created)
	if err != nil {
		c.log.Debug("audio cue skipped", zap.Stringer("type", t), zap.Error(err))
		return
	}
	speaker.Lock()
	c.mixer.Add(s)
	speaker.Unlock()
	c.played++
}

// Played returns the number of cues queued since Initialize.
func (c *Cues) Played() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.played
}

// Close silences every queued cue.
func (c *Cues) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return
	}
	speaker.Lock()
	c.mixer.Clear()
	speaker.Unlock()
	c.initialized = false
}

// Cue builds the finite stream for one lifecycle event.
func Cue(rate beep.SampleRate, t world.EntityType, created bool) (beep.Streamer, error) {
	freq, ok := pitches[t]
	if !ok {
		freq = 330
	}
	if !created {
		freq /= 2
	}
	tone, err := generators.SineTone(rate, freq)
	if err != nil {
		return nil, err
	}
	return &effects.Gain{
		Streamer: beep.Take(rate.N(cueLength), tone),
		Gain:     -0.7,
	}, nil
}
