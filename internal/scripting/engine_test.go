package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap/zaptest"

	"github.com/jamgo/jam/internal/world"
)

const walker = `
behaviors.walker = {
  on_creation = function(e)
    e.h_speed = 2
  end,
  on_frame = function(e)
    if e.x > 40 then
      e.destroy = true
    end
  end,
}
`

func newTestEngine(t *testing.T, src string) *Engine {
	t.Helper()
	e := newEngine(zaptest.NewLogger(t))
	t.Cleanup(e.Close)
	require.NoError(t, e.DoString(src))
	return e
}

func newTestWorld(t *testing.T) *world.World {
	t.Helper()
	w := world.New(world.Options{GridWidth: 4, GridHeight: 4, CellWidth: 16, CellHeight: 16}, nil)
	t.Cleanup(w.Free)
	return w
}

func TestNewEngineLoadsDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "behaviors"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "behaviors", "walker.lua"), []byte(walker), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "common.lua"), []byte("behaviors.rock = {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not lua"), 0o644))

	e, err := NewEngine(dir, nil)
	require.NoError(t, err)
	defer e.Close()
	assert.Equal(t, []string{"rock", "walker"}, e.Names())

	rock, ok := e.Behavior("rock")
	require.True(t, ok)
	assert.Nil(t, rock.OnFrame)
	assert.Nil(t, rock.OnCreation)
}

func TestNewEngineMissingDir(t *testing.T) {
	e, err := NewEngine(filepath.Join(t.TempDir(), "nope"), nil)
	require.NoError(t, err)
	e.Close()
}

func TestNewEngineSyntaxError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.lua"), []byte("behaviors.x = {"), 0o644))
	_, err := NewEngine(dir, nil)
	assert.Error(t, err)
}

func TestBehaviorDrivesEntity(t *testing.T) {
	eng := newTestEngine(t, walker)
	w := newTestWorld(t)

	b, ok := eng.Behavior("walker")
	require.True(t, ok)
	assert.NotNil(t, b.OnCreation)
	assert.NotNil(t, b.OnFrame)
	assert.Nil(t, b.OnDraw)
	assert.Nil(t, b.OnDestruction)

	again, _ := eng.Behavior("walker")
	assert.Same(t, b, again)

	ent := world.NewEntity(world.TypeEnemy, 30, 8)
	ent.Behavior = b
	require.NoError(t, w.AddEntity(ent))
	assert.Equal(t, 2.0, ent.HSpeed)

	for i := 0; i < 8; i++ {
		w.ProcessFrame()
	}
	assert.Equal(t, world.IDNotAssigned, ent.ID(), "destroyed once past x=40")
	assert.Zero(t, eng.Failures())
}

func TestUnknownBehavior(t *testing.T) {
	eng := newTestEngine(t, "")
	_, ok := eng.Behavior("ghost")
	assert.False(t, ok)
}

func TestHookErrorsAreContained(t *testing.T) {
	eng := newTestEngine(t, `
behaviors.broken = {
  on_frame = function(e)
    e.x = 99
    error("boom")
  end,
}
`)
	w := newTestWorld(t)
	b, _ := eng.Behavior("broken")
	ent := world.NewEntity(world.TypeNPC, 1, 1)
	ent.Behavior = b
	require.NoError(t, w.AddEntity(ent))

	w.ProcessFrame()
	w.ProcessFrame()
	assert.Equal(t, 2, eng.Failures())
	assert.Equal(t, 1.0, ent.X, "fields are not copied back from a failed hook")
}

func TestAPISpawnAndFind(t *testing.T) {
	eng := newTestEngine(t, `
spawned = nil
behaviors.spark = {
  on_creation = function(e) e.v_speed = -1 end,
}
behaviors.emitter = {
  on_frame = function(e)
    if spawned == nil then
      spawned = jam.spawn("particle", e.x + 1, e.y, "spark")
    end
    local p = jam.find_first("particle")
    if p ~= nil then
      seen_y = p.y
    end
  end,
}
`)
	w := newTestWorld(t)
	b, _ := eng.Behavior("emitter")
	ent := world.NewEntity(world.TypeObject, 10, 10)
	ent.Behavior = b
	require.NoError(t, w.AddEntity(ent))

	w.ProcessFrame()
	spark := w.FindFirstOfType(world.TypeParticle)
	require.NotNil(t, spark)
	assert.Equal(t, 11.0, spark.X)
	assert.Equal(t, -1.0, spark.VSpeed)
	assert.Equal(t, 2, w.Len())
	assert.Equal(t, lua.LNumber(spark.ID()), global(eng, "spawned"))
	assert.Equal(t, lua.LNumber(10), global(eng, "seen_y"))
}

func TestAPICollisionAndDestroy(t *testing.T) {
	eng := newTestEngine(t, `
behaviors.hunter = {
  on_frame = function(e)
    local hit = jam.collision(e.x + 4, e.y, "enemy")
    if hit ~= nil then
      jam.destroy(hit.id)
    end
    blocked = jam.tile_collision(e.x, e.y)
  end,
}
`)
	w := newTestWorld(t)
	b, _ := eng.Behavior("hunter")
	hunter := world.NewEntity(world.TypePlayer, 2, 2)
	hunter.Hitbox = &world.Hitbox{Width: 4, Height: 4}
	hunter.Behavior = b
	prey := world.NewEntity(world.TypeEnemy, 7, 2)
	prey.Hitbox = &world.Hitbox{Width: 4, Height: 4}
	require.NoError(t, w.AddEntity(hunter))
	require.NoError(t, w.AddEntity(prey))

	w.ProcessFrame()
	assert.True(t, prey.Destroyed())
	assert.Equal(t, lua.LFalse, global(eng, "blocked"))
}

func TestAPIOutsideHook(t *testing.T) {
	eng := newEngine(nil)
	defer eng.Close()
	assert.Error(t, eng.DoString(`jam.spawn("npc", 0, 0)`))
}

type glyphs struct{ got []rune }

func (g *glyphs) DrawGlyph(_, _ float64, r rune) { g.got = append(g.got, r) }

func TestAPIDraw(t *testing.T) {
	eng := newTestEngine(t, `
behaviors.star = {
  on_draw = function(e) jam.draw(e.x, e.y, "★") end,
}
`)
	canvas := &glyphs{}
	eng.SetCanvas(canvas)
	w := newTestWorld(t)
	b, _ := eng.Behavior("star")
	ent := world.NewEntity(world.TypeObject, 3, 3)
	ent.Behavior = b
	require.NoError(t, w.AddEntity(ent))

	w.ProcessFrame()
	assert.Equal(t, []rune{'★'}, canvas.got)
}

func global(e *Engine, name string) lua.LValue {
	return e.vm.GetGlobal(name)
}

func TestShippedBehaviorsLoad(t *testing.T) {
	e, err := NewEngine(filepath.Join("..", "..", "scripts"), nil)
	require.NoError(t, err)
	defer e.Close()
	assert.Equal(t, []string{"emitter", "patrol", "spark", "wanderer"}, e.Names())
}
