package raikou

import (
	"reflect"
	"unsafe"
)

// ComponentID is the identifier a World assigns to a component type. IDs are
// per world and are only meaningful for the world that issued them.
type ComponentID uint8

// ComponentIDFor returns the ID of component type `T` in w, registering the
// type if needed. It is mostly used to build exclusion sets for filters.
//
// Example:
//
//	f := raikou.NewFilter[Position](w).Without(raikou.ComponentIDFor[Velocity](w))
func ComponentIDFor[T any](w *World) ComponentID {
	return ComponentID(w.getCompTypeID(reflect.TypeFor[T]()))
}

// pointer returns the address of component id for the entity described by
// meta, or nil if the entity's archetype lacks the component.
func (w *World) pointer(meta entityMeta, id uint8) unsafe.Pointer {
	a := w.archetypes.archetypes[meta.archetypeIndex]
	if !a.mask.containsBit(id) {
		return nil
	}
	c := a.chunks[meta.chunkIndex]
	return unsafe.Add(c.compPointers[id], uintptr(meta.index)*a.compSizes[id])
}

// GetComponent retrieves a pointer to the component of type `T` for the given
// entity. It provides a direct, type-safe way to access component data.
//
// If the entity is invalid, does not have the component, or if the entity ID is
// out of bounds, this function returns nil. The pointer stays valid until the
// entity's archetype changes.
//
// Parameters:
//   - w: The World containing the entity.
//   - e: The Entity from which to retrieve the component.
//
// Returns:
//   - A pointer to the component data (*T), or nil if not found.
func GetComponent[T any](w *World, e Entity) *T {
	if !w.IsValid(e) {
		return nil
	}
	id := w.getCompTypeID(reflect.TypeFor[T]())
	return (*T)(w.pointer(w.entities.metas[e.ID], id))
}

// HasComponent reports whether the entity is alive and carries a component of
// type `T`.
func HasComponent[T any](w *World, e Entity) bool {
	if !w.IsValid(e) {
		return false
	}
	id := w.getCompTypeID(reflect.TypeFor[T]())
	a := w.archetypes.archetypes[w.entities.metas[e.ID].archetypeIndex]
	return a.mask.containsBit(id)
}

// SetComponent adds a component of type `T` with the given value to an entity,
// or updates it if the component already exists.
//
// If the entity does not already have the component, adding it will cause the
// entity to move to a different archetype. This is a relatively expensive
// operation compared to updating an existing component, and it is a structural
// change: it panics with ErrWorldLocked while the world is locked. If the
// entity is invalid, this function does nothing.
//
// Parameters:
//   - w: The World where the entity resides.
//   - e: The Entity to modify.
//   - val: The component data of type `T` to set.
func SetComponent[T any](w *World, e Entity, val T) {
	if !w.IsValid(e) {
		return
	}
	id := w.getCompTypeID(reflect.TypeFor[T]())
	meta := &w.entities.metas[e.ID]
	if ptr := w.pointer(*meta, id); ptr != nil {
		*(*T)(ptr) = val
		return
	}
	w.checkUnlocked()
	a := w.archetypes.archetypes[meta.archetypeIndex]
	target := w.archetypeWith(a, id)
	c, idx := w.moveEntity(e, meta, a, target)
	*(*T)(unsafe.Add(c.compPointers[id], uintptr(idx)*target.compSizes[id])) = val
	w.mutationVersion++
}

// RemoveComponent removes the component of type `T` from the specified entity.
//
// This operation will cause the entity to move to a new archetype that does not
// include the removed component. If the entity is invalid or does not have the
// component, this function does nothing.
//
// Parameters:
//   - w: The World where the entity resides.
//   - e: The Entity to modify.
func RemoveComponent[T any](w *World, e Entity) {
	if !w.IsValid(e) {
		return
	}
	id := w.getCompTypeID(reflect.TypeFor[T]())
	meta := &w.entities.metas[e.ID]
	a := w.archetypes.archetypes[meta.archetypeIndex]
	if !a.mask.containsBit(id) {
		return
	}
	w.checkUnlocked()
	target := w.archetypeWithout(a, id)
	w.moveEntity(e, meta, a, target)
	w.mutationVersion++
}
