package world

import "errors"

var (
	// ErrNullReference is returned when a required entity, list or world is nil.
	ErrNullReference = errors.New("world: null reference")
	// ErrAllocation is returned when a list cannot grow past its configured limit.
	// The attempted insertion has not happened.
	ErrAllocation = errors.New("world: allocation failure")
	// ErrOutOfBounds is returned for entity ids outside the master list.
	ErrOutOfBounds = errors.New("world: entity id out of bounds")
	// ErrRefreshInFlight is returned when a cache refresh is requested while
	// the previous one has not completed.
	ErrRefreshInFlight = errors.New("world: cache refresh already in flight")
	// ErrCachingDisabled is returned by RefreshCache when caching is off.
	ErrCachingDisabled = errors.New("world: caching disabled")
	// ErrTooManyTileMaps is returned when more than MaxTileMaps are attached.
	ErrTooManyTileMaps = errors.New("world: tile map limit reached")
	// ErrForeignEntity is returned when an entity that belongs to another
	// world is added to or re-bucketed in this one.
	ErrForeignEntity = errors.New("world: entity belongs to another world")
	// ErrFreed is returned by operations on a world after Free.
	ErrFreed = errors.New("world: world has been freed")
)
