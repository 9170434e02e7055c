package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/jamgo/jam/internal/core/event"
	"github.com/jamgo/jam/internal/data"
	"github.com/jamgo/jam/internal/world"
)

// ErrLevelNotFound is returned by LoadFromStore for unknown level names.
var ErrLevelNotFound = errors.New("handler: level not found")

// cameraMover is implemented by cameras that can be repositioned, such as
// the terminal renderer.
type cameraMover interface {
	SetCamera(x, y float64)
}

// WorldHandler owns the current world and the assets it borrows. Switching
// levels frees the previous world; tile maps live here, not in the world.
type WorldHandler struct {
	deps     *Deps
	log      *zap.Logger
	cur      *world.World
	level    *data.Level
	tileMaps []*data.TileMap
}

func NewWorldHandler(deps *Deps) *WorldHandler {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Rand == nil {
		seed := deps.Config.Level.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		deps.Rand = rand.New(rand.NewSource(seed))
	}
	return &WorldHandler{deps: deps, log: deps.Log}
}

// World returns the current world, or nil before the first load.
func (h *WorldHandler) World() *world.World {
	return h.cur
}

// Level returns the description of the current level.
func (h *WorldHandler) Level() *data.Level {
	return h.level
}

// Load builds a world from a YAML level file. Tile map files resolve
// relative to the level file.
func (h *WorldHandler) Load(path string) error {
	lvl, err := data.LoadLevel(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tileMaps := make([]*data.TileMap, 0, len(lvl.TileMaps))
	for _, spec := range lvl.TileMaps {
		tm, err := data.LoadTileMap(dir, spec)
		if err != nil {
			return err
		}
		tileMaps = append(tileMaps, tm)
	}
	return h.install(lvl, tileMaps)
}

// LoadFromStore builds a world from a level stored in the database.
func (h *WorldHandler) LoadFromStore(ctx context.Context, name string) error {
	if h.deps.Levels == nil {
		return fmt.Errorf("load level %s: no level store configured", name)
	}
	row, err := h.deps.Levels.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("load level %s: %w", name, err)
	}
	if row == nil {
		return fmt.Errorf("load level %s: %w", name, ErrLevelNotFound)
	}
	lvl, err := data.ParseLevel(row.Document)
	if err != nil {
		return fmt.Errorf("level %s: %w", name, err)
	}
	if lvl.Name == "" {
		lvl.Name = row.Name
	}
	tileMaps := make([]*data.TileMap, 0, len(lvl.TileMaps))
	for _, spec := range lvl.TileMaps {
		content, ok := row.TileMaps[spec.File]
		if !ok {
			return fmt.Errorf("level %s: tile map %s not stored", name, spec.File)
		}
		tm, err := data.ParseTileMap(bytes.NewReader(content), spec)
		if err != nil {
			return fmt.Errorf("level %s: tile map %s: %w", name, spec.File, err)
		}
		tm.Name = spec.File
		tileMaps = append(tileMaps, tm)
	}
	return h.install(lvl, tileMaps)
}

// install builds the new world and, once it is populated, frees the old
// one. On error the current world is left untouched.
func (h *WorldHandler) install(lvl *data.Level, tileMaps []*data.TileMap) error {
	w, err := h.build(lvl, tileMaps)
	if err != nil {
		return fmt.Errorf("build level %s: %w", lvl.Name, err)
	}
	if h.cur != nil {
		h.cur.Free()
	}
	h.cur = w
	h.level = lvl
	h.tileMaps = tileMaps

	if h.deps.Bus != nil {
		event.Emit(h.deps.Bus, event.LevelLoaded{Name: lvl.Name, Entities: w.Len(), Caching: w.Caching()})
	}
	h.log.Info("level loaded",
		zap.String("level", lvl.Name),
		zap.Int("entities", w.Len()),
		zap.Int("tile_maps", len(tileMaps)),
		zap.Bool("caching", w.Caching()))
	return nil
}

func (h *WorldHandler) build(lvl *data.Level, tileMaps []*data.TileMap) (*world.World, error) {
	cfg := h.deps.Config.World
	opts := world.Options{
		GridWidth:    cfg.GridWidth,
		GridHeight:   cfg.GridHeight,
		CellWidth:    cfg.CellWidth,
		CellHeight:   cfg.CellHeight,
		ProcDistance: cfg.ProcDistance,
		ListBlock:    cfg.ListBlock,
		MaxEntities:  cfg.MaxEntities,
		Camera:       h.deps.Camera,
		Drawer:       h.deps.Drawer,
	}
	if g := lvl.Grid; g.Width > 0 || g.Height > 0 || g.CellWidth > 0 || g.CellHeight > 0 {
		opts.GridWidth, opts.GridHeight = g.Width, g.Height
		opts.CellWidth, opts.CellHeight = g.CellWidth, g.CellHeight
	}
	if lvl.ProcDistance > 0 {
		opts.ProcDistance = lvl.ProcDistance
	}
	if h.deps.Bus != nil {
		opts.Events = event.WorldEvents{Bus: h.deps.Bus}
	}

	w := world.New(opts, h.log.With(zap.String("level", lvl.Name)))
	for _, tm := range tileMaps {
		if err := w.AddTileMap(tm); err != nil {
			w.Free()
			return nil, err
		}
	}
	if cam, ok := h.deps.Camera.(cameraMover); ok {
		cam.SetCamera(lvl.Camera.X, lvl.Camera.Y)
	}

	for i := range lvl.Spawns {
		spawn := &lvl.Spawns[i]
		var behavior *world.Behavior
		if spawn.Behavior != "" {
			behavior = h.behavior(spawn.Behavior)
		}
		for _, e := range spawn.Entities(h.deps.Rand) {
			e.Behavior = behavior
			if err := w.AddEntity(e); err != nil {
				w.Free()
				return nil, fmt.Errorf("spawn %d: %w", i, err)
			}
		}
	}

	caching := cfg.Caching
	if lvl.Caching != nil {
		caching = *lvl.Caching
	}
	w.EnableCaching(caching)
	return w, nil
}

func (h *WorldHandler) behavior(name string) *world.Behavior {
	if h.deps.Scripting == nil {
		h.log.Warn("behavior ignored, scripting disabled", zap.String("behavior", name))
		return nil
	}
	b, ok := h.deps.Scripting.Behavior(name)
	if !ok {
		h.log.Warn("unknown behavior", zap.String("behavior", name))
		return nil
	}
	return b
}

// Close frees the current world and drops the tile maps.
func (h *WorldHandler) Close() {
	if h.cur != nil {
		h.cur.Free()
		h.cur = nil
	}
	h.level = nil
	h.tileMaps = nil
}
