package event

import "github.com/jamgo/jam/internal/world"

// EntityCreated is emitted after an entity's OnCreation hook ran.
type EntityCreated struct {
	ID   int
	Type world.EntityType
	X, Y float64
}

// EntityDestroyed is emitted when a tombstoned entity is swept, before its
// id is released.
type EntityDestroyed struct {
	ID   int
	Type world.EntityType
	X, Y float64
}

// LevelLoaded is emitted once a level's world is populated.
type LevelLoaded struct {
	Name     string
	Entities int
	Caching  bool
}

// WorldEvents adapts a Bus to the world's lifecycle sink.
type WorldEvents struct {
	Bus *Bus
}

func (w WorldEvents) EntityCreated(e *world.Entity) {
	Emit(w.Bus, EntityCreated{ID: e.ID(), Type: e.Type, X: e.X, Y: e.Y})
}

func (w WorldEvents) EntityDestroyed(e *world.Entity) {
	Emit(w.Bus, EntityDestroyed{ID: e.ID(), Type: e.Type, X: e.X, Y: e.Y})
}
