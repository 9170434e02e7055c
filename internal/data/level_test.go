package data

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamgo/jam/internal/world"
)

const demoLevel = `
grid:
  width: 8
  height: 8
  cell_width: 16
  cell_height: 16
proc_distance: 8
caching: true
camera: {x: 4, y: 4}
tile_maps:
  - file: walls.csv
    tile_width: 8
    tile_height: 8
spawns:
  - type: player
    x: 20
    y: 20
    glyph: "@"
    width: 4
    height: 8
    hitbox: {width: 4, height: 8}
    behavior: player
  - type: particle
    x: 64
    y: 64
    spread: 10
    count: 25
    h_speed: 0.5
    hitbox: {shape: circle, radius: 2}
`

func TestLoadLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(demoLevel), 0o644))

	lvl, err := LoadLevel(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", lvl.Name)
	assert.Equal(t, GridSpec{Width: 8, Height: 8, CellWidth: 16, CellHeight: 16}, lvl.Grid)
	require.NotNil(t, lvl.Caching)
	assert.True(t, *lvl.Caching)
	assert.Equal(t, 26, lvl.EntityCount())
	require.Len(t, lvl.TileMaps, 1)
	assert.Equal(t, "walls.csv", lvl.TileMaps[0].File)
}

func TestParseLevelDefaultsCount(t *testing.T) {
	lvl, err := ParseLevel([]byte("spawns:\n  - type: npc\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, lvl.Spawns[0].Count)
	assert.Nil(t, lvl.Caching)
}

func TestParseLevelRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad yaml", "grid: ["},
		{"negative grid", "grid: {width: -1}"},
		{"unknown type", "spawns: [{type: dragon}]"},
		{"negative count", "spawns: [{type: npc, count: -2}]"},
		{"bad shape", "spawns: [{type: npc, hitbox: {shape: star}}]"},
		{"tile map without file", "tile_maps: [{tile_width: 1, tile_height: 1}]"},
		{"tile map without size", "tile_maps: [{file: a.csv}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLevel([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLevelRoundTrip(t *testing.T) {
	lvl, err := ParseLevel([]byte(demoLevel))
	require.NoError(t, err)
	lvl.Name = "demo"

	raw, err := lvl.Marshal()
	require.NoError(t, err)
	again, err := ParseLevel(raw)
	require.NoError(t, err)
	assert.Equal(t, lvl, again)
}

func TestSpawnEntities(t *testing.T) {
	lvl, err := ParseLevel([]byte(demoLevel))
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(1))

	players := lvl.Spawns[0].Entities(rng)
	require.Len(t, players, 1)
	p := players[0]
	assert.Equal(t, world.TypePlayer, p.Type)
	assert.Equal(t, 20.0, p.X)
	require.NotNil(t, p.Sprite)
	assert.Equal(t, '@', p.Sprite.Glyph)
	assert.Equal(t, world.HitboxRectangle, p.Hitbox.Kind)

	particles := lvl.Spawns[1].Entities(rng)
	require.Len(t, particles, 25)
	for _, e := range particles {
		assert.InDelta(t, 64, e.X, 10)
		assert.InDelta(t, 64, e.Y, 10)
		assert.Equal(t, 0.5, e.HSpeed)
		assert.Equal(t, world.HitboxCircle, e.Hitbox.Kind)
		assert.Nil(t, e.Sprite)
		assert.Equal(t, world.IDNotAssigned, e.ID())
	}
}

func TestShippedDemoLevel(t *testing.T) {
	dir := filepath.Join("..", "..", "levels")
	lvl, err := LoadLevel(filepath.Join(dir, "demo.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "demo", lvl.Name)
	assert.Equal(t, 222, lvl.EntityCount())

	require.Len(t, lvl.TileMaps, 1)
	tm, err := LoadTileMap(dir, lvl.TileMaps[0])
	require.NoError(t, err)
	cols, rows := tm.Size()
	assert.Equal(t, 32, cols)
	assert.Equal(t, 32, rows)
	assert.True(t, tm.Solid(1, 1), "border wall")
	assert.False(t, tm.Solid(160, 96), "player start is open")
}
