package raikou

import (
	"reflect"
	"unsafe"
)

// Filter provides a fast, cache-friendly iterator over all entities that have a
// specific set of components. It is the primary mechanism for implementing
// game logic (systems). The filter iterates directly over the component arrays
// within matching archetype chunks, providing maximum performance.
//
// This is the filter for entities with one component. Filters for multiple
// components (Filter2, Filter3, Filter4) follow the same pattern.
type Filter[T any] struct {
	queryCache
	compID uint8
}

// NewFilter creates a new `Filter` that iterates over all entities possessing
// at least the component of type `T`. The filter automatically discovers and
// caches the archetypes that match this component signature.
//
// Parameters:
//   - w: The World to query.
//
// Returns:
//   - A pointer to the newly created `Filter[T]`.
func NewFilter[T any](w *World) *Filter[T] {
	id := w.getCompTypeID(reflect.TypeFor[T]())
	var m bitmask256
	m.set(id)
	return &Filter[T]{
		queryCache: newQueryCache(w, m),
		compID:     id,
	}
}

// Without excludes every entity that carries one of the given components and
// returns the filter for chaining.
//
// Example:
//
//	missing := raikou.NewFilter[Position](w).Without(raikou.ComponentIDFor[Velocity](w))
func (f *Filter[T]) Without(ids ...ComponentID) *Filter[T] {
	f.without(ids)
	return f
}

// Reset rewinds the filter's iterator to the beginning. It should be called if
// you need to iterate over the same set of entities multiple times. The filter
// will also automatically detect if new archetypes have been created since the
// last iteration and update its internal list accordingly.
func (f *Filter[T]) Reset() {
	f.rewind()
}

// Next advances the filter to the next matching entity. It returns true if an
// entity was found, and false if the iteration is complete. This method must
// be called before accessing the entity or its components.
//
// Example:
//
//	query := raikou.NewFilter[Position](world)
//	for query.Next() {
//	    // ... process entity
//	}
//
// Returns:
//   - true if another matching entity was found, false otherwise.
func (f *Filter[T]) Next() bool {
	return f.advance()
}

// Entity returns the current `Entity` in the iteration. This should only be
// called after `Next()` has returned true.
//
// Returns:
//   - The current Entity.
func (f *Filter[T]) Entity() Entity {
	return f.entity()
}

// Get returns a pointer to the component of type `T` for the current entity
// in the iteration. This should only be called after `Next()` has returned true.
//
// Returns:
//   - A pointer to the component data (*T).
func (f *Filter[T]) Get() *T {
	return (*T)(f.component(f.compID))
}

// ParallelEach calls fn for every matching entity, spreading the matching
// chunks over at most workers goroutines (see Workers). The world is locked
// while it runs: fn may mutate the component it is handed but must record
// structural changes on a Commands buffer. The iteration cursor is not used
// and is left untouched.
func (f *Filter[T]) ParallelEach(workers int, fn func(e Entity, c *T)) {
	id := f.compID
	f.parallel(workers, func(a *archetype, c *chunk) {
		base, size := c.compPointers[id], a.compSizes[id]
		for i := 0; i < c.size; i++ {
			fn(c.entityIDs[i], (*T)(unsafe.Add(base, uintptr(i)*size)))
		}
	})
}
