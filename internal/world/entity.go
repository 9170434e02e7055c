package world

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// IDNotAssigned is reported by Entity.ID before the entity joins a world.
const IDNotAssigned = -1

// maxCells is the number of bounding-box corners sampled for grid membership.
const maxCells = 4

// EntityType classifies entities for lookups like FindFirstOfType.
type EntityType uint16

const (
	TypeNone EntityType = iota
	TypePlayer
	TypeEnemy
	TypeNPC
	TypeSolid
	TypeObject
	TypeParticle
	TypeLogic
)

var entityTypeNames = [...]string{
	TypeNone:     "none",
	TypePlayer:   "player",
	TypeEnemy:    "enemy",
	TypeNPC:      "npc",
	TypeSolid:    "solid",
	TypeObject:   "object",
	TypeParticle: "particle",
	TypeLogic:    "logic",
}

func (t EntityType) String() string {
	if int(t) < len(entityTypeNames) {
		return entityTypeNames[t]
	}
	return fmt.Sprintf("type(%d)", uint16(t))
}

// ParseEntityType maps a level-file type name to an EntityType.
func ParseEntityType(s string) (EntityType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range entityTypeNames {
		if n == name {
			return EntityType(i), nil
		}
	}
	return TypeNone, fmt.Errorf("unknown entity type %q", s)
}

// Behavior is the optional set of per-entity lifecycle hooks. Any hook may be
// nil. A non-nil OnDraw replaces the world's default drawing.
type Behavior struct {
	OnCreation    func(w *World, e *Entity)
	OnDestruction func(w *World, e *Entity)
	OnFrame       func(w *World, e *Entity)
	OnDraw        func(w *World, e *Entity)
}

// Sprite is the visual footprint of an entity. The box spans
// [X-OriginX, X-OriginX+Width] horizontally and likewise vertically.
type Sprite struct {
	Glyph   rune
	Width   float64
	Height  float64
	OriginX float64
	OriginY float64
}

// Entity is a fixed-shape world object. Gameplay fields are owned by the
// simulation goroutine; membership bookkeeping is owned by the World.
type Entity struct {
	Type     EntityType
	X, Y     float64
	XPrev    float64
	YPrev    float64
	HSpeed   float64
	VSpeed   float64
	Sprite   *Sprite
	Hitbox   *Hitbox
	Behavior *Behavior
	Data     any

	// slot is the master list index plus one; zero means not in a world.
	slot    int
	owner   *World
	created bool

	cells     int
	cellsIn   [maxCells]int
	cellsLoc  [maxCells]int
	memberBox [4]float64

	proc    bool
	draw    bool
	inCache bool
	destroy atomic.Bool
}

// NewEntity returns an entity of the given type positioned at (x, y).
func NewEntity(t EntityType, x, y float64) *Entity {
	return &Entity{Type: t, X: x, Y: y, XPrev: x, YPrev: y}
}

// ID returns the entity's master list slot, or IDNotAssigned.
func (e *Entity) ID() int {
	return e.slot - 1
}

// Destroyed reports whether the entity has been marked for removal.
func (e *Entity) Destroyed() bool {
	return e.destroy.Load()
}

// CellCount returns how many distinct grid cells the entity occupies.
func (e *Entity) CellCount() int {
	return e.cells
}

// Bounds returns the box used for grid membership. Sprites take precedence
// over hitboxes; an entity with neither is a point.
func (e *Entity) Bounds() (x1, y1, x2, y2 float64) {
	if s := e.Sprite; s != nil && (s.Width > 0 || s.Height > 0) {
		x1 = e.X - s.OriginX
		y1 = e.Y - s.OriginY
		return x1, y1, x1 + s.Width, y1 + s.Height
	}
	if e.Hitbox != nil {
		return e.Hitbox.Rect(e.X, e.Y)
	}
	return e.X, e.Y, e.X, e.Y
}

func (e *Entity) alive() bool {
	return e.slot > 0
}

func (e *Entity) membershipStale() bool {
	if e.cells == 0 {
		return true
	}
	x1, y1, x2, y2 := e.Bounds()
	return e.memberBox != [4]float64{x1, y1, x2, y2}
}

// release drops every world-owned reference so the entity can be collected
// or added to a world again.
func (e *Entity) release() {
	e.slot = 0
	e.owner = nil
	e.cells = 0
	e.cellsIn = [maxCells]int{}
	e.cellsLoc = [maxCells]int{}
	e.memberBox = [4]float64{}
	e.proc = false
	e.draw = false
	e.inCache = false
	e.destroy.Store(false)
}
