package world

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// refresher is the single worker that rebuilds the in-range cache. At most
// one build is in flight; overlapping requests are refused.
type refresher struct {
	requests chan viewport
	wg       sync.WaitGroup

	mu       sync.Mutex
	inFlight bool
	done     chan struct{}
}

func (w *World) startRefresher() {
	r := &refresher{requests: make(chan viewport, 1)}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for vp := range r.requests {
			w.buildCache(vp)
			r.finish()
		}
	}()
	w.refresh = r
}

// stopRefresher waits for an in-flight build and stops the worker.
func (w *World) stopRefresher() {
	r := w.refresh
	if r == nil {
		return
	}
	close(r.requests)
	r.wg.Wait()
	w.refresh = nil
}

func (r *refresher) submit(vp viewport) error {
	r.mu.Lock()
	if r.inFlight {
		r.mu.Unlock()
		return ErrRefreshInFlight
	}
	r.inFlight = true
	r.done = make(chan struct{})
	r.mu.Unlock()

	r.requests <- vp
	return nil
}

func (r *refresher) finish() {
	r.mu.Lock()
	r.inFlight = false
	close(r.done)
	r.mu.Unlock()
}

func (r *refresher) busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight
}

func (r *refresher) wait(ctx context.Context) error {
	r.mu.Lock()
	if !r.inFlight {
		r.mu.Unlock()
		return nil
	}
	done := r.done
	r.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// EnableCaching switches between cached and direct frame processing.
// Enabling builds the first cache synchronously and starts the refresh
// worker; disabling waits for an in-flight build and drops the cache.
// Called from a hook during a cached frame, the switch happens once the
// frame returns.
func (w *World) EnableCaching(on bool) {
	if w.freed {
		return
	}
	if w.framing {
		w.pendingCaching = &on
		return
	}
	if on == w.caching {
		return
	}
	if on {
		w.buildCache(w.viewport())
		w.startRefresher()
		w.caching = true
		w.log.Debug("entity caching enabled")
		return
	}

	w.stopRefresher()
	w.cacheMu.Lock()
	if w.cache != nil {
		for i := 0; i < w.cache.Size(); i++ {
			if e := w.cache.At(i); e != nil {
				e.inCache = false
			}
		}
		w.cache.Empty(false)
		w.cache = nil
	}
	w.caching = false
	w.cacheMu.Unlock()
	w.log.Debug("entity caching disabled")
}

// Caching reports whether frames use the in-range cache.
func (w *World) Caching() bool {
	return w.caching
}

// RefreshCache asks the worker to rebuild the cache around the current
// viewport and returns without waiting. A request made while a build is in
// flight is refused with ErrRefreshInFlight.
func (w *World) RefreshCache() error {
	if w.freed {
		return ErrFreed
	}
	if !w.caching || w.refresh == nil {
		return w.fail(ErrCachingDisabled, "refresh cache")
	}
	if err := w.refresh.submit(w.viewport()); err != nil {
		return w.fail(err, "refresh cache")
	}
	return nil
}

// RefreshInFlight reports whether a cache build is running.
func (w *World) RefreshInFlight() bool {
	if w.refresh == nil {
		return false
	}
	return w.refresh.busy()
}

// AwaitRefresh blocks until no cache build is in flight or ctx is done.
func (w *World) AwaitRefresh(ctx context.Context) error {
	if w.refresh == nil {
		return nil
	}
	return w.refresh.wait(ctx)
}

// CacheLen returns the number of entities in the current cache.
func (w *World) CacheLen() int {
	return len(w.CachedEntities())
}

// CachedEntities returns a snapshot of the current cache.
func (w *World) CachedEntities() []*Entity {
	if !w.framing {
		w.cacheMu.RLock()
		defer w.cacheMu.RUnlock()
	}
	if w.cache == nil {
		return nil
	}
	return snapshot(w.cache)
}

// buildCache collects every entity with membership in a cell of vp, without
// duplicates, and installs the result as the current cache.
//
// The grid scan holds addMu. The swap holds cacheMu exclusively, so it never
// lands in the middle of a cached frame. Entities spawned into the old cache
// after the scan started are carried over to the new one.
func (w *World) buildCache(vp viewport) {
	fresh := NewEntityList(w.opts.ListBlock)
	seen := make(map[*Entity]struct{})
	add := func(e *Entity) {
		if _, dup := seen[e]; dup {
			return
		}
		seen[e] = struct{}{}
		fresh.Add(e)
	}

	w.addMu.Lock()
	w.spawned = w.spawned[:0]
	w.grid.eachEntity(vp, add)
	w.addMu.Unlock()

	w.cacheMu.Lock()
	w.addMu.Lock()
	for _, e := range w.spawned {
		if e.alive() {
			add(e)
		}
	}
	w.spawned = w.spawned[:0]
	w.addMu.Unlock()

	fresh.Shrink()
	old := w.cache
	if old != nil {
		for i := 0; i < old.Size(); i++ {
			if e := old.At(i); e != nil {
				e.inCache = false
			}
		}
	}
	n := fresh.Size()
	for i := 0; i < n; i++ {
		fresh.At(i).inCache = true
	}
	w.cache = fresh
	w.cacheMu.Unlock()

	if old != nil {
		old.Empty(false)
	}
	w.log.Debug("entity cache rebuilt", zap.Int("entities", n))
}
