package world

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeCamera struct {
	x, y float64
	w, h uint32
}

func (c *fakeCamera) CameraX() float64     { return c.x }
func (c *fakeCamera) CameraY() float64     { return c.y }
func (c *fakeCamera) BufferWidth() uint32  { return c.w }
func (c *fakeCamera) BufferHeight() uint32 { return c.h }

type countingDrawer struct {
	drawn map[*Entity]int
}

func (d *countingDrawer) DrawEntity(e *Entity) {
	if d.drawn == nil {
		d.drawn = make(map[*Entity]int)
	}
	d.drawn[e]++
}

type recordedEvents struct {
	created   []*Entity
	destroyed []*Entity
}

func (r *recordedEvents) EntityCreated(e *Entity)   { r.created = append(r.created, e) }
func (r *recordedEvents) EntityDestroyed(e *Entity) { r.destroyed = append(r.destroyed, e) }

func newTestWorld(opts Options) *World {
	return New(opts, nil)
}

func newLoggedWorld(t *testing.T, opts Options) *World {
	t.Helper()
	w := New(opts, zaptest.NewLogger(t))
	t.Cleanup(w.Free)
	return w
}

// requireCellConsistency checks that every live entity's recorded cells and
// slots point back at it and that its cells are distinct.
func requireCellConsistency(t *testing.T, w *World) {
	t.Helper()
	w.addMu.Lock()
	defer w.addMu.Unlock()
	for id := 0; id < w.entities.Size(); id++ {
		e := w.entities.At(id)
		if e == nil {
			continue
		}
		require.Equal(t, id, e.ID())
		require.Greater(t, e.cells, 0, "entity %d has no cells", id)
		seen := map[int]bool{}
		for i := 0; i < e.cells; i++ {
			c := e.cellsIn[i]
			require.False(t, seen[c], "entity %d listed twice in cell %d", id, c)
			seen[c] = true
			require.Same(t, e, w.grid.cells[c].At(e.cellsLoc[i]), "entity %d cell %d slot %d", id, c, e.cellsLoc[i])
		}
	}
}

func requireNoDuplicates(t *testing.T, ents []*Entity) {
	t.Helper()
	seen := make(map[*Entity]bool, len(ents))
	for _, e := range ents {
		require.False(t, seen[e], "entity %d cached twice", e.ID())
		seen[e] = true
	}
}
