package raikou

import (
	"reflect"
	"unsafe"
)

// maskOf builds an include mask and panics if a component type is repeated.
func maskOf(name string, ids ...uint8) bitmask256 {
	var m bitmask256
	for _, id := range ids {
		if m.containsBit(id) {
			panic("ecs: duplicate component types in " + name)
		}
		m.set(id)
	}
	return m
}

// Filter2 provides a fast, cache-friendly iterator over all entities that
// have the 2 components: T1, T2.
type Filter2[T1 any, T2 any] struct {
	queryCache
	ids [2]uint8
}

// NewFilter2 creates a new `Filter` that iterates over all entities
// possessing at least the 2 components: T1, T2.
//
// Parameters:
//   - w: The World to query.
//
// Returns:
//   - A pointer to the newly created `Filter2`.
func NewFilter2[T1 any, T2 any](w *World) *Filter2[T1, T2] {
	id1 := w.getCompTypeID(reflect.TypeFor[T1]())
	id2 := w.getCompTypeID(reflect.TypeFor[T2]())
	return &Filter2[T1, T2]{
		queryCache: newQueryCache(w, maskOf("Filter2", id1, id2)),
		ids:        [2]uint8{id1, id2},
	}
}

// Without excludes every entity that carries one of the given components.
func (f *Filter2[T1, T2]) Without(ids ...ComponentID) *Filter2[T1, T2] {
	f.without(ids)
	return f
}

// Reset rewinds the filter's iterator to the beginning.
func (f *Filter2[T1, T2]) Reset() { f.rewind() }

// Next advances the filter to the next matching entity.
func (f *Filter2[T1, T2]) Next() bool { return f.advance() }

// Entity returns the current `Entity` in the iteration.
func (f *Filter2[T1, T2]) Entity() Entity { return f.entity() }

// Get returns pointers to the components of the current entity.
func (f *Filter2[T1, T2]) Get() (*T1, *T2) {
	return (*T1)(f.component(f.ids[0])), (*T2)(f.component(f.ids[1]))
}

// ParallelEach calls fn for every matching entity on at most workers
// goroutines. See Filter.ParallelEach.
func (f *Filter2[T1, T2]) ParallelEach(workers int, fn func(e Entity, c1 *T1, c2 *T2)) {
	id1, id2 := f.ids[0], f.ids[1]
	f.parallel(workers, func(a *archetype, c *chunk) {
		b1, s1 := c.compPointers[id1], a.compSizes[id1]
		b2, s2 := c.compPointers[id2], a.compSizes[id2]
		for i := 0; i < c.size; i++ {
			fn(c.entityIDs[i],
				(*T1)(unsafe.Add(b1, uintptr(i)*s1)),
				(*T2)(unsafe.Add(b2, uintptr(i)*s2)))
		}
	})
}

// Filter3 provides a fast, cache-friendly iterator over all entities that
// have the 3 components: T1, T2, T3.
type Filter3[T1 any, T2 any, T3 any] struct {
	queryCache
	ids [3]uint8
}

// NewFilter3 creates a new `Filter` that iterates over all entities
// possessing at least the 3 components: T1, T2, T3.
//
// Parameters:
//   - w: The World to query.
//
// Returns:
//   - A pointer to the newly created `Filter3`.
func NewFilter3[T1 any, T2 any, T3 any](w *World) *Filter3[T1, T2, T3] {
	id1 := w.getCompTypeID(reflect.TypeFor[T1]())
	id2 := w.getCompTypeID(reflect.TypeFor[T2]())
	id3 := w.getCompTypeID(reflect.TypeFor[T3]())
	return &Filter3[T1, T2, T3]{
		queryCache: newQueryCache(w, maskOf("Filter3", id1, id2, id3)),
		ids:        [3]uint8{id1, id2, id3},
	}
}

// Without excludes every entity that carries one of the given components.
func (f *Filter3[T1, T2, T3]) Without(ids ...ComponentID) *Filter3[T1, T2, T3] {
	f.without(ids)
	return f
}

// Reset rewinds the filter's iterator to the beginning.
func (f *Filter3[T1, T2, T3]) Reset() { f.rewind() }

// Next advances the filter to the next matching entity.
func (f *Filter3[T1, T2, T3]) Next() bool { return f.advance() }

// Entity returns the current `Entity` in the iteration.
func (f *Filter3[T1, T2, T3]) Entity() Entity { return f.entity() }

// Get returns pointers to the components of the current entity.
func (f *Filter3[T1, T2, T3]) Get() (*T1, *T2, *T3) {
	return (*T1)(f.component(f.ids[0])),
		(*T2)(f.component(f.ids[1])),
		(*T3)(f.component(f.ids[2]))
}

// ParallelEach calls fn for every matching entity on at most workers
// goroutines. See Filter.ParallelEach.
func (f *Filter3[T1, T2, T3]) ParallelEach(workers int, fn func(e Entity, c1 *T1, c2 *T2, c3 *T3)) {
	id1, id2, id3 := f.ids[0], f.ids[1], f.ids[2]
	f.parallel(workers, func(a *archetype, c *chunk) {
		b1, s1 := c.compPointers[id1], a.compSizes[id1]
		b2, s2 := c.compPointers[id2], a.compSizes[id2]
		b3, s3 := c.compPointers[id3], a.compSizes[id3]
		for i := 0; i < c.size; i++ {
			fn(c.entityIDs[i],
				(*T1)(unsafe.Add(b1, uintptr(i)*s1)),
				(*T2)(unsafe.Add(b2, uintptr(i)*s2)),
				(*T3)(unsafe.Add(b3, uintptr(i)*s3)))
		}
	})
}

// Filter4 provides a fast, cache-friendly iterator over all entities that
// have the 4 components: T1, T2, T3, T4.
type Filter4[T1 any, T2 any, T3 any, T4 any] struct {
	queryCache
	ids [4]uint8
}

// NewFilter4 creates a new `Filter` that iterates over all entities
// possessing at least the 4 components: T1, T2, T3, T4.
//
// Parameters:
//   - w: The World to query.
//
// Returns:
//   - A pointer to the newly created `Filter4`.
func NewFilter4[T1 any, T2 any, T3 any, T4 any](w *World) *Filter4[T1, T2, T3, T4] {
	id1 := w.getCompTypeID(reflect.TypeFor[T1]())
	id2 := w.getCompTypeID(reflect.TypeFor[T2]())
	id3 := w.getCompTypeID(reflect.TypeFor[T3]())
	id4 := w.getCompTypeID(reflect.TypeFor[T4]())
	return &Filter4[T1, T2, T3, T4]{
		queryCache: newQueryCache(w, maskOf("Filter4", id1, id2, id3, id4)),
		ids:        [4]uint8{id1, id2, id3, id4},
	}
}

// Without excludes every entity that carries one of the given components.
func (f *Filter4[T1, T2, T3, T4]) Without(ids ...ComponentID) *Filter4[T1, T2, T3, T4] {
	f.without(ids)
	return f
}

// Reset rewinds the filter's iterator to the beginning.
func (f *Filter4[T1, T2, T3, T4]) Reset() { f.rewind() }

// Next advances the filter to the next matching entity.
func (f *Filter4[T1, T2, T3, T4]) Next() bool { return f.advance() }

// Entity returns the current `Entity` in the iteration.
func (f *Filter4[T1, T2, T3, T4]) Entity() Entity { return f.entity() }

// Get returns pointers to the components of the current entity.
func (f *Filter4[T1, T2, T3, T4]) Get() (*T1, *T2, *T3, *T4) {
	return (*T1)(f.component(f.ids[0])),
		(*T2)(f.component(f.ids[1])),
		(*T3)(f.component(f.ids[2])),
		(*T4)(f.component(f.ids[3]))
}

// ParallelEach calls fn for every matching entity on at most workers
// goroutines. See Filter.ParallelEach.
func (f *Filter4[T1, T2, T3, T4]) ParallelEach(workers int, fn func(e Entity, c1 *T1, c2 *T2, c3 *T3, c4 *T4)) {
	id1, id2, id3, id4 := f.ids[0], f.ids[1], f.ids[2], f.ids[3]
	f.parallel(workers, func(a *archetype, c *chunk) {
		b1, s1 := c.compPointers[id1], a.compSizes[id1]
		b2, s2 := c.compPointers[id2], a.compSizes[id2]
		b3, s3 := c.compPointers[id3], a.compSizes[id3]
		b4, s4 := c.compPointers[id4], a.compSizes[id4]
		for i := 0; i < c.size; i++ {
			fn(c.entityIDs[i],
				(*T1)(unsafe.Add(b1, uintptr(i)*s1)),
				(*T2)(unsafe.Add(b2, uintptr(i)*s2)),
				(*T3)(unsafe.Add(b3, uintptr(i)*s3)),
				(*T4)(unsafe.Add(b4, uintptr(i)*s4)))
		}
	})
}
