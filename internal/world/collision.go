package world

// CollisionCursor walks the entities whose hitbox overlaps a query entity's
// hitbox at a hypothetical position. Each entity is reported once per
// cursor. The cursor reads the grid as it is when Next is called; it must
// be used on the simulation goroutine.
type CollisionCursor struct {
	w     *World
	e     *Entity
	x, y  float64
	cells [maxCells]int
	n     int
	cell  int
	slot  int
	seen  map[*Entity]struct{}
}

// Collisions starts a collision query for e placed at (x, y). Only the
// cells under the four corners of e's hitbox are searched.
func (w *World) Collisions(e *Entity, x, y float64) *CollisionCursor {
	c := &CollisionCursor{w: w, e: e, x: x, y: y}
	if e == nil {
		w.fail(ErrNullReference, "collision query")
		return c
	}
	if e.Hitbox == nil {
		return c
	}
	x1, y1, x2, y2 := e.Hitbox.Rect(x, y)
	for _, idx := range [maxCells]int{
		w.grid.cellIndex(x1, y1),
		w.grid.cellIndex(x2, y1),
		w.grid.cellIndex(x1, y2),
		w.grid.cellIndex(x2, y2),
	} {
		dup := false
		for i := 0; i < c.n; i++ {
			if c.cells[i] == idx {
				dup = true
				break
			}
		}
		if !dup {
			c.cells[c.n] = idx
			c.n++
		}
	}
	return c
}

// Next returns the next colliding entity, or nil once the query is
// exhausted.
func (c *CollisionCursor) Next() *Entity {
	for c.cell < c.n {
		list := c.w.grid.cells[c.cells[c.cell]]
		for c.slot < list.Size() {
			other := list.At(c.slot)
			c.slot++
			if other == nil || other == c.e || other.Destroyed() {
				continue
			}
			if _, dup := c.seen[other]; dup {
				continue
			}
			if !Collides(c.e.Hitbox, c.x, c.y, other.Hitbox, other.X, other.Y) {
				continue
			}
			if c.seen == nil {
				c.seen = make(map[*Entity]struct{}, 4)
			}
			c.seen[other] = struct{}{}
			return other
		}
		c.cell++
		c.slot = 0
	}
	return nil
}

// Collision returns the first entity e would collide with at (x, y).
func (w *World) Collision(e *Entity, x, y float64) *Entity {
	return w.Collisions(e, x, y).Next()
}

// CollisionOfType returns the first colliding entity of type t.
func (w *World) CollisionOfType(e *Entity, x, y float64, t EntityType) *Entity {
	cur := w.Collisions(e, x, y)
	for other := cur.Next(); other != nil; other = cur.Next() {
		if other.Type == t {
			return other
		}
	}
	return nil
}
