package audio

import (
	"testing"

	"github.com/gopxl/beep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamgo/jam/internal/config"
	"github.com/jamgo/jam/internal/core/event"
	"github.com/jamgo/jam/internal/world"
)

func drain(s beep.Streamer) (n int, peak float64) {
	buf := make([][2]float64, 512)
	for {
		got, ok := s.Stream(buf)
		for i := 0; i < got; i++ {
			peak = max(peak, buf[i][0], -buf[i][0])
		}
		n += got
		if !ok || got == 0 {
			return n, peak
		}
	}
}

func TestCueLength(t *testing.T) {
	rate := beep.SampleRate(44100)
	for _, created := range []bool{true, false} {
		s, err := Cue(rate, world.TypePlayer, created)
		require.NoError(t, err)
		n, peak := drain(s)
		assert.Equal(t, rate.N(cueLength), n)
		assert.Greater(t, peak, 0.1)
		assert.LessOrEqual(t, peak, 0.31)
	}
}

func TestCueUnknownTypeFallsBack(t *testing.T) {
	s, err := Cue(beep.SampleRate(8000), world.EntityType(99), true)
	require.NoError(t, err)
	n, _ := drain(s)
	assert.Equal(t, 480, n)
}

func TestCueAboveNyquist(t *testing.T) {
	_, err := Cue(beep.SampleRate(2000), world.TypeParticle, true)
	assert.Error(t, err)
}

func TestUninitializedCuesAreSilent(t *testing.T) {
	c := New(config.AudioConfig{SampleRate: 22050}, nil)
	bus := event.NewBus()
	c.Subscribe(bus)

	event.Emit(bus, event.EntityCreated{Type: world.TypeEnemy})
	bus.SwapBuffers()
	bus.DispatchAll()
	assert.Zero(t, c.Played())
	c.Close()
}
