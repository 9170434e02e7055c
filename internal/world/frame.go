package world

import "go.uber.org/zap"

// ProcessFrame runs one frame: every visited entity gets its OnFrame hook
// and motion applied, then every visited entity is drawn. All updates finish
// before the first draw. Entities marked for destruction are swept instead
// of updated.
//
// With caching enabled the frame visits the in-range cache; otherwise it
// walks the grid cells under the camera viewport expanded by the proc
// distance.
func (w *World) ProcessFrame() {
	if w.freed {
		return
	}
	if w.caching {
		w.processCached()
		return
	}
	w.processDirect()
}

func (w *World) processCached() {
	w.cachedPass()
	w.applyDeferred()
}

func (w *World) cachedPass() {
	w.cacheMu.RLock()
	w.framing = true
	defer func() {
		w.framing = false
		w.cacheMu.RUnlock()
	}()

	cache := w.cache
	if cache == nil {
		return
	}
	for i := 0; i < cache.Size(); i++ {
		if e := cache.At(i); e != nil {
			e.proc = false
			e.draw = false
		}
	}

	// Size is re-read every step: hooks may append spawned entities.
	for i := 0; i < cache.Size(); i++ {
		if w.pendingFree {
			return
		}
		e := cache.At(i)
		switch {
		case e == nil:
		case !e.alive():
			// Released after the worker scanned it.
			cache.RemoveAt(i, e)
			e.inCache = false
		case e.Destroyed():
			cache.RemoveAt(i, e)
			e.inCache = false
			w.sweep(e)
		default:
			w.update(e)
		}
	}

	for i := 0; i < cache.Size(); i++ {
		if w.pendingFree {
			return
		}
		if e := cache.At(i); e != nil {
			w.drawEntity(e)
		}
	}
	w.dropSpawned()
}

// dropSpawned forgets the entities added to the cache since the last
// build once no build could still need them.
func (w *World) dropSpawned() {
	if w.RefreshInFlight() {
		return
	}
	w.addMu.Lock()
	clear(w.spawned)
	w.spawned = w.spawned[:0]
	w.addMu.Unlock()
}

// applyDeferred runs the Free or EnableCaching call a hook made while the
// cache was held for the frame.
func (w *World) applyDeferred() {
	if w.pendingFree {
		w.pendingFree = false
		w.pendingCaching = nil
		w.Free()
		return
	}
	if on := w.pendingCaching; on != nil {
		w.pendingCaching = nil
		w.EnableCaching(*on)
	}
}

func (w *World) processDirect() {
	vp := w.viewport()

	// Sweep first so a camera move cannot revisit a freed entity.
	w.grid.eachEntity(vp, func(e *Entity) {
		if e.Destroyed() {
			w.sweep(e)
		}
	})
	w.grid.eachEntity(vp, func(e *Entity) {
		e.proc = false
		e.draw = false
	})
	w.grid.eachEntity(vp, func(e *Entity) {
		if e.Destroyed() || !e.alive() {
			return
		}
		w.update(e)
	})
	w.grid.eachEntity(vp, w.drawEntity)
}

func (w *World) update(e *Entity) {
	if e.proc {
		return
	}
	e.proc = true
	e.XPrev = e.X
	e.YPrev = e.Y

	if b := e.Behavior; b != nil && b.OnFrame != nil {
		b.OnFrame(w, e)
	}
	if !e.alive() {
		// Free was called from the hook.
		return
	}
	e.X += e.HSpeed
	e.Y += e.VSpeed

	if e.membershipStale() {
		w.addMu.Lock()
		err := w.grid.updateMembership(e)
		w.addMu.Unlock()
		if err != nil {
			w.fail(err, "update membership", zap.Int("id", e.ID()))
		}
	}
}

func (w *World) drawEntity(e *Entity) {
	if e.draw || !e.alive() || e.Destroyed() {
		return
	}
	e.draw = true
	if b := e.Behavior; b != nil && b.OnDraw != nil {
		b.OnDraw(w, e)
		return
	}
	if w.opts.Drawer != nil {
		w.opts.Drawer.DrawEntity(e)
	}
}

// sweep removes a tombstoned entity from the grid and the master list and
// releases it. Safe to call on an entity that was already swept.
func (w *World) sweep(e *Entity) {
	if !e.alive() {
		return
	}
	if b := e.Behavior; b != nil && b.OnDestruction != nil {
		b.OnDestruction(w, e)
	}
	if w.opts.Events != nil {
		w.opts.Events.EntityDestroyed(e)
	}

	w.addMu.Lock()
	w.grid.unlink(e)
	w.entities.RemoveAt(e.ID(), e)
	w.live--
	w.addMu.Unlock()

	if e.inCache && w.cache != nil {
		w.cache.Pop(e)
	}
	e.release()
}

// Sweep releases every tombstoned entity in the world, including those
// outside the processed range that no frame visits. It returns the number
// of entities released.
func (w *World) Sweep() int {
	if w.freed {
		return 0
	}
	n := w.sweepAll()
	w.applyDeferred()
	return n
}

func (w *World) sweepAll() int {
	if w.caching {
		w.cacheMu.RLock()
		w.framing = true
		defer func() {
			w.framing = false
			w.cacheMu.RUnlock()
		}()
	}

	var dead []*Entity
	w.addMu.Lock()
	for i := 0; i < w.entities.Size(); i++ {
		if e := w.entities.At(i); e != nil && e.Destroyed() {
			dead = append(dead, e)
		}
	}
	w.addMu.Unlock()

	for _, e := range dead {
		if w.pendingFree {
			break
		}
		if e.inCache && w.cache != nil {
			w.cache.Pop(e)
			e.inCache = false
		}
		w.sweep(e)
	}
	return len(dead)
}

// viewport returns the cells under the camera, grown by the proc distance on
// every side. Without a camera the whole grid is processed.
func (w *World) viewport() viewport {
	cam := w.opts.Camera
	if cam == nil {
		return w.grid.all()
	}
	d := w.opts.ProcDistance
	x := cam.CameraX()
	y := cam.CameraY()
	return w.grid.rect(
		x-d,
		y-d,
		x+float64(cam.BufferWidth())+d,
		y+float64(cam.BufferHeight())+d,
	)
}
