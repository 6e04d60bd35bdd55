package raikou

import (
	"reflect"
	"unsafe"
)

// Builder creates entities that start out in the archetype of a single
// component type `T`, skipping the archetype moves SetComponent would cost.
type Builder[T any] struct {
	world  *World
	arch   *archetype
	compID uint8
}

// NewBuilder creates a Builder for component type `T`.
//
// Parameters:
//   - w: The World the builder creates entities in.
//
// Returns:
//   - A pointer to the new Builder.
func NewBuilder[T any](w *World) *Builder[T] {
	id := w.getCompTypeID(reflect.TypeFor[T]())
	var mask bitmask256
	mask.set(id)
	arch := w.getOrCreateArchetype(mask, []compSpec{w.specFor(id)})
	return &Builder[T]{world: w, arch: arch, compID: id}
}

// NewEntity creates one entity holding the zero value of `T`.
func (b *Builder[T]) NewEntity() Entity {
	return b.world.createEntity(b.arch)
}

// NewEntityWith creates one entity holding comp.
func (b *Builder[T]) NewEntityWith(comp T) Entity {
	e := b.world.createEntity(b.arch)
	*b.Get(e) = comp
	return e
}

// NewEntities creates count entities holding the zero value of `T`.
func (b *Builder[T]) NewEntities(count int) []Entity {
	var zero T
	return b.NewEntitiesWithValueSet(count, zero)
}

// NewEntitiesWithValueSet creates count entities, each holding a copy of comp,
// and returns their handles.
func (b *Builder[T]) NewEntitiesWithValueSet(count int, comp T) []Entity {
	if count <= 0 {
		return nil
	}
	w := b.world
	w.checkUnlocked()
	a := b.arch
	ents := make([]Entity, 0, count)
	remaining := count
	for remaining > 0 {
		lastC := w.tailChunk(a)
		avail := ChunkSize - lastC.size
		batch := min(avail, remaining)
		if len(w.entities.freeIDs) < batch {
			w.expand(batch - len(w.entities.freeIDs) + 1)
		}
		startIdx := lastC.size
		popped := w.entities.freeIDs[len(w.entities.freeIDs)-batch:]
		w.entities.freeIDs = w.entities.freeIDs[:len(w.entities.freeIDs)-batch]
		for k := range batch {
			id := popped[batch-1-k]
			meta := &w.entities.metas[id]
			meta.archetypeIndex = a.index
			meta.chunkIndex = len(a.chunks) - 1
			meta.index = startIdx + k
			meta.version = w.entities.nextEntityVer
			ent := Entity{ID: id, Version: meta.version}
			lastC.entityIDs[startIdx+k] = ent
			ptr := unsafe.Add(lastC.compPointers[b.compID], uintptr(startIdx+k)*a.compSizes[b.compID])
			*(*T)(ptr) = comp
			ents = append(ents, ent)
			w.entities.nextEntityVer++
		}
		lastC.size += batch
		a.size += batch
		remaining -= batch
	}
	w.entities.alive += count
	w.mutationVersion++
	return ents
}

// Get returns the entity's `T` component, or nil if it has none.
func (b *Builder[T]) Get(e Entity) *T {
	w := b.world
	if !w.IsValid(e) {
		return nil
	}
	return (*T)(w.pointer(w.entities.metas[e.ID], b.compID))
}
