package raikou

import (
	"reflect"
	"unsafe"
)

// Accessor is a typed handle to one component type of a World. It resolves
// the component ID once, so Get and Has skip the registry entirely; this makes
// it the preferred way to read and write components from parallel workers.
type Accessor[T any] struct {
	world *World
	id    uint8
}

// NewAccessor creates an Accessor for component type `T`, registering the
// type if needed.
func NewAccessor[T any](w *World) Accessor[T] {
	return Accessor[T]{world: w, id: w.getCompTypeID(reflect.TypeFor[T]())}
}

// ID returns the component ID the accessor is bound to.
func (a Accessor[T]) ID() ComponentID {
	return ComponentID(a.id)
}

// Get returns a pointer to the entity's component, or nil if the entity is
// invalid or lacks the component.
func (a Accessor[T]) Get(e Entity) *T {
	w := a.world
	if !w.IsValid(e) {
		return nil
	}
	return (*T)(w.pointer(w.entities.metas[e.ID], a.id))
}

// Has reports whether the entity is alive and carries the component.
func (a Accessor[T]) Has(e Entity) bool {
	w := a.world
	if !w.IsValid(e) {
		return false
	}
	return w.archetypes.archetypes[w.entities.metas[e.ID].archetypeIndex].mask.containsBit(a.id)
}

// Set writes the component value, adding the component if it is missing.
// Adding is a structural change and follows the rules of SetComponent.
func (a Accessor[T]) Set(e Entity, val T) {
	if ptr := a.Get(e); ptr != nil {
		*ptr = val
		return
	}
	w := a.world
	if !w.IsValid(e) {
		return
	}
	w.checkUnlocked()
	meta := &w.entities.metas[e.ID]
	arch := w.archetypes.archetypes[meta.archetypeIndex]
	target := w.archetypeWith(arch, a.id)
	c, idx := w.moveEntity(e, meta, arch, target)
	*(*T)(unsafe.Add(c.compPointers[a.id], uintptr(idx)*target.compSizes[a.id])) = val
	w.mutationVersion++
}
