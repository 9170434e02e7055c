// Package world holds the entity simulation layer: a spatial hash grid of
// entity lists, the master list of live entities, per-frame update and draw
// traversal, and an optional in-range cache rebuilt by a background worker.
//
// ProcessFrame, AddEntity, UpdateMembership, the lookup helpers and the
// collision queries must be called from the simulation goroutine. The cache
// worker is the only other goroutine touching a World, and it only reads
// grid membership and swaps the cache list.
package world

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// MaxTileMaps is the number of tile maps a world can reference.
const MaxTileMaps = 10

// Camera exposes the viewport the world processes around.
type Camera interface {
	CameraX() float64
	CameraY() float64
	BufferWidth() uint32
	BufferHeight() uint32
}

// Drawer draws entities that have no OnDraw hook.
type Drawer interface {
	DrawEntity(e *Entity)
}

// Events receives entity lifecycle notifications.
type Events interface {
	EntityCreated(e *Entity)
	EntityDestroyed(e *Entity)
}

// TileMap is a collision surface borrowed from the asset side. The world
// never frees tile maps.
type TileMap interface {
	Collides(x, y, w, h float64) bool
}

// Options configures a World. A zero grid size or cell size disables spatial
// partitioning and every entity lands in the single out-of-range list.
type Options struct {
	GridWidth    int
	GridHeight   int
	CellWidth    float64
	CellHeight   float64
	ProcDistance float64
	ListBlock    int
	MaxEntities  int

	Camera Camera
	Drawer Drawer
	Events Events
}

// World owns the grid, the master entity list and the in-range cache.
type World struct {
	log  *zap.Logger
	opts Options

	// addMu guards grid membership and the master list.
	addMu    sync.Mutex
	grid     *grid
	entities *EntityList
	live     int
	spawned  []*Entity

	// cacheMu is held for reading for a whole cached frame and for writing
	// only while the worker swaps lists.
	cacheMu sync.RWMutex
	cache   *EntityList

	caching  bool
	framing  bool
	freed    bool

	// Requests made by hooks while framing, applied after the frame.
	pendingFree    bool
	pendingCaching *bool

	refresh  *refresher
	tileMaps []TileMap

	errMu   sync.Mutex
	lastErr error
}

// New creates an empty world with caching disabled.
func New(opts Options, log *zap.Logger) *World {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.ListBlock <= 0 {
		opts.ListBlock = DefaultListBlock
	}
	entities := NewEntityList(opts.ListBlock)
	entities.SetLimit(opts.MaxEntities)
	return &World{
		log:      log,
		opts:     opts,
		grid:     newGrid(opts.GridWidth, opts.GridHeight, opts.CellWidth, opts.CellHeight, opts.ListBlock),
		entities: entities,
	}
}

// SetCamera replaces the viewport source.
func (w *World) SetCamera(c Camera) { w.opts.Camera = c }

// SetDrawer replaces the default drawer.
func (w *World) SetDrawer(d Drawer) { w.opts.Drawer = d }

// SetEvents replaces the lifecycle event sink.
func (w *World) SetEvents(ev Events) { w.opts.Events = ev }

// SetProcDistance sets the margin, in world units, processed around the
// camera viewport.
func (w *World) SetProcDistance(d float64) { w.opts.ProcDistance = d }

// Len returns the number of live entities.
func (w *World) Len() int {
	w.addMu.Lock()
	defer w.addMu.Unlock()
	return w.live
}

// CellIndex returns the grid cell for a world position. Positions outside
// the grid map to OutOfRangeCell.
func (w *World) CellIndex(x, y float64) int {
	return w.grid.cellIndex(x, y)
}

// OutOfRangeCell is the index of the catch-all list.
func (w *World) OutOfRangeCell() int {
	return w.grid.outOfRange()
}

// CellEntities returns a snapshot of the live entities in cell i.
func (w *World) CellEntities(i int) []*Entity {
	w.addMu.Lock()
	defer w.addMu.Unlock()
	if i < 0 || i >= len(w.grid.cells) {
		return nil
	}
	return snapshot(w.grid.cells[i])
}

func snapshot(l *EntityList) []*Entity {
	out := make([]*Entity, 0, l.Size())
	for i := 0; i < l.Size(); i++ {
		if e := l.At(i); e != nil {
			out = append(out, e)
		}
	}
	return out
}

// AddEntity inserts e into the grid and, on first insertion, the master
// list, then runs its OnCreation hook. With caching enabled the entity also
// joins the current cache so it is processed this frame. Adding an entity
// that is already in the world only refreshes its grid membership.
func (w *World) AddEntity(e *Entity) error {
	if e == nil {
		return w.fail(ErrNullReference, "add entity")
	}
	if w.freed {
		return ErrFreed
	}
	fresh, err := w.insert(e)
	if err != nil {
		return w.fail(err, "add entity", zap.Stringer("type", e.Type))
	}

	if fresh {
		if b := e.Behavior; b != nil && b.OnCreation != nil {
			b.OnCreation(w, e)
		}
		if w.opts.Events != nil {
			w.opts.Events.EntityCreated(e)
		}
	}
	return nil
}

// insert takes the locks AddEntity needs. Hooks run after both are
// released so they can add entities themselves.
func (w *World) insert(e *Entity) (bool, error) {
	if w.caching && !w.framing {
		w.cacheMu.RLock()
		defer w.cacheMu.RUnlock()
	}
	w.addMu.Lock()
	defer w.addMu.Unlock()
	return w.insertLocked(e)
}

// insertLocked reports whether e was assigned an id for the first time.
func (w *World) insertLocked(e *Entity) (bool, error) {
	if e.owner != nil && e.owner != w {
		return false, ErrForeignEntity
	}
	if err := w.grid.updateMembership(e); err != nil {
		return false, err
	}

	fresh := false
	if !e.alive() {
		slot, err := w.entities.Add(e)
		if err != nil {
			w.grid.unlink(e)
			return false, err
		}
		e.slot = slot + 1
		e.owner = w
		w.live++
		fresh = !e.created
		e.created = true
	}

	if w.caching && w.cache != nil && !e.inCache {
		if _, err := w.cache.Add(e); err != nil {
			w.log.Warn("entity not cached", zap.Int("id", e.ID()), zap.Error(err))
		} else {
			e.inCache = true
			w.spawned = append(w.spawned, e)
		}
	}
	return fresh, nil
}

// UpdateMembership re-buckets e after it moved outside the frame loop.
func (w *World) UpdateMembership(e *Entity) error {
	if e == nil {
		return w.fail(ErrNullReference, "update membership")
	}
	if e.owner != nil && e.owner != w {
		return w.fail(ErrForeignEntity, "update membership", zap.Int("id", e.ID()))
	}
	w.addMu.Lock()
	err := w.grid.updateMembership(e)
	w.addMu.Unlock()
	if err != nil {
		return w.fail(err, "update membership", zap.Int("id", e.ID()))
	}
	return nil
}

// FindEntity returns the entity with the given id, or nil.
func (w *World) FindEntity(id int) *Entity {
	w.addMu.Lock()
	defer w.addMu.Unlock()
	if id < 0 || id >= w.entities.Size() {
		w.fail(ErrOutOfBounds, "find entity", zap.Int("id", id), zap.Int("size", w.entities.Size()))
		return nil
	}
	return w.entities.At(id)
}

// FindFirstOfType returns the live entity of type t with the lowest id,
// skipping entities marked for destruction.
func (w *World) FindFirstOfType(t EntityType) *Entity {
	w.addMu.Lock()
	defer w.addMu.Unlock()
	for i := 0; i < w.entities.Size(); i++ {
		if e := w.entities.At(i); e != nil && e.Type == t && !e.Destroyed() {
			return e
		}
	}
	return nil
}

// DestroyEntity marks e for removal. The entity is unlinked and released the
// next time a frame visits it. Safe to call from any goroutine.
func (w *World) DestroyEntity(e *Entity) {
	if e == nil {
		w.fail(ErrNullReference, "destroy entity")
		return
	}
	e.destroy.Store(true)
}

// AddTileMap attaches a borrowed tile map.
func (w *World) AddTileMap(tm TileMap) error {
	if tm == nil {
		return w.fail(ErrNullReference, "add tile map")
	}
	if len(w.tileMaps) >= MaxTileMaps {
		return w.fail(ErrTooManyTileMaps, "add tile map", zap.Int("max", MaxTileMaps))
	}
	w.tileMaps = append(w.tileMaps, tm)
	return nil
}

// TileMaps returns the attached tile maps.
func (w *World) TileMaps() []TileMap {
	return w.tileMaps
}

// TileMapCollision reports whether e's hitbox placed at (x, y) overlaps a
// solid tile in any attached tile map. Entities without a hitbox never
// collide.
func (w *World) TileMapCollision(e *Entity, x, y float64) bool {
	if e == nil || e.Hitbox == nil {
		return false
	}
	x1, y1, x2, y2 := e.Hitbox.Rect(x, y)
	for _, tm := range w.tileMaps {
		if tm.Collides(x1, y1, x2-x1, y2-y1) {
			return true
		}
	}
	return false
}

// Free stops the cache worker and releases the grid, the cache and every
// entity still in the world. Tile maps are dropped without being freed.
// Called from a hook during a cached frame, the rest of the frame is skipped
// and the world is freed once the frame returns.
func (w *World) Free() {
	if w.freed {
		return
	}
	if w.framing {
		w.pendingFree = true
		return
	}
	w.stopRefresher()

	w.cacheMu.Lock()
	if w.cache != nil {
		w.cache.Empty(false)
		w.cache = nil
	}
	w.caching = false
	w.cacheMu.Unlock()

	w.addMu.Lock()
	w.grid.empty()
	w.entities.Empty(true)
	w.live = 0
	w.spawned = nil
	w.addMu.Unlock()

	w.tileMaps = nil
	w.freed = true
}

// Err returns the most recent error recovered by the world.
func (w *World) Err() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.lastErr
}

func (w *World) fail(err error, op string, fields ...zap.Field) error {
	err = fmt.Errorf("%s: %w", op, err)
	w.errMu.Lock()
	w.lastErr = err
	w.errMu.Unlock()

	fields = append(fields, zap.Error(err))
	if errors.Is(err, ErrNullReference) || errors.Is(err, ErrRefreshInFlight) {
		w.log.Debug("world operation skipped", fields...)
	} else {
		w.log.Warn("world operation failed", fields...)
	}
	return err
}
