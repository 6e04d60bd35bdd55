// Package raikou implements an archetype-based entity component store and the
// scene-graph transform propagation built on top of it.
//
// The root package is the store: entities, chunked archetypes, typed
// component access, filters, parallel iteration and a deferred command
// buffer. The hierarchy and transform sub-packages build the parent/child
// relation and the per-frame world transform computation on this store.
package raikou

import (
	"reflect"
	"sync"
	"sync/atomic"
	"unsafe"
)

// MaxComponentTypes defines the maximum number of unique component types that can be
// registered in a World. This value is fixed at 256.
const MaxComponentTypes = 256

// ChunkSize is the number of entities stored in a single archetype chunk.
// Chunks are the unit of work handed to workers by the parallel iterators.
const ChunkSize = 1024

// Entity represents a unique identifier for an object in the World. It combines
// a 32-bit ID with a 32-bit version to ensure that recycled IDs are not confused
// with new entities.
//
// The zero Entity is never valid and is used as the null handle.
type Entity struct {
	// ID is the unique, recyclable identifier for the entity.
	ID uint32
	// Version is a generation counter to protect against stale entity references.
	// It is incremented each time an entity ID is reused.
	Version uint32
}

// IsZero reports whether e is the null handle.
func (e Entity) IsZero() bool {
	return e.Version == 0
}

// entityMeta holds the internal location and state of an entity.
type entityMeta struct {
	archetypeIndex int    // index in World.archetypes
	chunkIndex     int    // index in archetype.chunks
	index          int    // position inside the chunk's component array
	version        uint32 // current version, 0 if the entity is dead
}

// compSpec bundles a component type’s ID and reflect.Type.
type compSpec struct {
	typ  reflect.Type
	size uintptr
	id   uint8
}

// chunk holds fixed-size storage for ChunkSize entities.
type chunk struct {
	entityIDs    [ChunkSize]Entity
	compPointers [MaxComponentTypes]unsafe.Pointer
	size         int // number of entities in this chunk, 0 to ChunkSize
}

// archetype holds storage for one unique component-set mask.
type archetype struct {
	chunks    []*chunk
	compOrder []uint8 // list of component IDs in this arch
	compSizes [MaxComponentTypes]uintptr
	mask      bitmask256 // which component bits this arch uses
	index     int        // position in world.archetypes
	size      int        // total entity count across chunks
}

// componentRegistry maps Go types to component IDs. It is the only part of the
// world that may change while the world is locked, so it carries its own lock.
type componentRegistry struct {
	mu             sync.RWMutex
	compIDToType   [MaxComponentTypes]reflect.Type
	compTypeMap    map[reflect.Type]uint8
	compIDToSize   [MaxComponentTypes]uintptr
	nextCompTypeID uint16 // counter for assigning new component type IDs
}

type entityRegistry struct {
	freeIDs         []uint32     // stack of recycled entity IDs
	metas           []entityMeta // stores metadata for each entity, indexed by entity ID
	capacity        int          // current maximum number of entities
	initialCapacity int          // initial capacity, used for expansion
	nextEntityVer   uint32       // version for the next created entity
	alive           int          // number of live entities
}

type archetypeRegistry struct {
	maskToArcIndex   map[bitmask256]int // lookup mask→archetype index
	archetypes       []*archetype       // list of all archetypes in the world
	archetypeVersion uint32             // incremented when a new archetype is created
}

// World owns every entity and component. Structural changes (creating and
// removing entities, adding and removing components) must happen on one
// goroutine while the world is unlocked. While a parallel pass holds the
// world locked, workers may read and write component values of distinct
// entities concurrently; structural changes must be recorded on a
// Commands buffer instead.
type World struct {
	resources       *Resources
	archetypes      archetypeRegistry
	entities        entityRegistry
	components      componentRegistry
	locks           atomic.Int32
	mutationVersion uint32 // incremented on entity mutations
}

// NewWorld creates and initializes a new World with a specified initial
// capacity for entities. It pre-allocates memory for the entity metadata and
// free ID list to optimize performance.
//
// Parameters:
//   - initialCapacity: The number of entities to pre-allocate memory for.
//     Choosing a suitable capacity can prevent re-allocations during runtime.
//
// Returns:
//   - A pointer to the newly created World.
func NewWorld(initialCapacity int) *World {
	if initialCapacity < 0 {
		initialCapacity = 0
	}
	w := &World{
		resources: &Resources{},
		components: componentRegistry{
			compTypeMap: make(map[reflect.Type]uint8, 16),
		},
		entities: entityRegistry{
			capacity:        initialCapacity,
			initialCapacity: initialCapacity,
			freeIDs:         make([]uint32, initialCapacity),
			metas:           make([]entityMeta, initialCapacity),
			nextEntityVer:   1,
		},
		archetypes: archetypeRegistry{
			maskToArcIndex: make(map[bitmask256]int),
			archetypes:     make([]*archetype, 0, 16),
		},
	}
	for i := range w.entities.freeIDs {
		w.entities.freeIDs[i] = uint32(initialCapacity - 1 - i)
	}
	for i := range w.entities.metas {
		w.entities.metas[i].reset()
	}
	// Pre-create the empty archetype
	var emptyMask bitmask256
	w.getOrCreateArchetype(emptyMask, []compSpec{})
	return w
}

func (m *entityMeta) reset() {
	m.archetypeIndex = -1
	m.chunkIndex = -1
	m.index = -1
	m.version = 0
}

// ClearEntities removes all entities from the world, recycling their IDs and
// resetting archetypes. This is an efficient way to reset the world state
// without deallocating memory.
func (w *World) ClearEntities() {
	w.checkUnlocked()
	for i := range w.entities.metas {
		w.entities.metas[i].reset()
	}
	w.entities.freeIDs = w.entities.freeIDs[:0]
	for i := w.entities.capacity - 1; i >= 0; i-- {
		w.entities.freeIDs = append(w.entities.freeIDs, uint32(i))
	}
	for _, a := range w.archetypes.archetypes {
		a.chunks = a.chunks[:0]
		a.size = 0
	}
	w.entities.alive = 0
	w.mutationVersion++
}

// IsValid checks if the entity is currently alive in the world. An entity is
// valid if its ID is within bounds and its version matches the world's current
// version for that ID. This prevents "stale" entity references from accessing
// incorrect data after an entity has been deleted and its ID recycled.
//
// Parameters:
//   - e: The Entity to validate.
//
// Returns:
//   - true if the entity is valid, false otherwise.
func (w *World) IsValid(e Entity) bool {
	if int(e.ID) >= len(w.entities.metas) {
		return false
	}
	meta := w.entities.metas[e.ID]
	return meta.version != 0 && meta.version == e.Version
}

// Len returns the number of live entities.
func (w *World) Len() int {
	return w.entities.alive
}

// Resources returns the world's resource manager. It provides a thread-safe,
// generic store for global data that needs to be accessible from anywhere in
// the application, such as configuration objects or the frame clock.
//
// Returns:
//   - A pointer to the Resources object.
func (w *World) Resources() *Resources {
	return w.resources
}

// Lock marks the world as being iterated by a parallel pass. Locks nest; the
// world is unlocked once every Lock has been matched by an Unlock.
func (w *World) Lock() {
	w.locks.Add(1)
}

// Unlock releases one Lock.
func (w *World) Unlock() {
	if w.locks.Add(-1) < 0 {
		panic("ecs: unlock of unlocked world")
	}
}

// Locked reports whether a parallel pass currently holds the world.
func (w *World) Locked() bool {
	return w.locks.Load() > 0
}

// checkUnlocked panics with ErrWorldLocked if a structural change is attempted
// while the world is locked.
func (w *World) checkUnlocked() {
	if w.locks.Load() > 0 {
		panic(ErrWorldLocked)
	}
}

// getCompTypeID registers or fetches a component type ID for t.
func (w *World) getCompTypeID(t reflect.Type) uint8 {
	w.components.mu.RLock()
	id, ok := w.components.compTypeMap[t]
	w.components.mu.RUnlock()
	if ok {
		return id
	}
	w.components.mu.Lock()
	defer w.components.mu.Unlock()
	if id, ok := w.components.compTypeMap[t]; ok {
		return id
	}
	if w.components.nextCompTypeID >= MaxComponentTypes {
		panic("ecs: too many component types")
	}
	id = uint8(w.components.nextCompTypeID)
	w.components.compTypeMap[t] = id
	w.components.compIDToType[id] = t
	w.components.compIDToSize[id] = t.Size()
	w.components.nextCompTypeID++
	return id
}

// specFor returns the storage spec of a registered component ID.
func (w *World) specFor(id uint8) compSpec {
	w.components.mu.RLock()
	defer w.components.mu.RUnlock()
	return compSpec{id: id, typ: w.components.compIDToType[id], size: w.components.compIDToSize[id]}
}

// getOrCreateArchetype returns an archetype for the given mask;
// if missing, it records the component layout for new chunks.
func (w *World) getOrCreateArchetype(mask bitmask256, specs []compSpec) *archetype {
	if idx, ok := w.archetypes.maskToArcIndex[mask]; ok {
		return w.archetypes.archetypes[idx]
	}
	a := &archetype{
		index:     len(w.archetypes.archetypes),
		mask:      mask,
		size:      0,
		chunks:    make([]*chunk, 0, 4),
		compOrder: make([]uint8, len(specs)),
	}
	for i, sp := range specs {
		a.compOrder[i] = sp.id
		a.compSizes[sp.id] = sp.size
	}
	w.archetypes.archetypes = append(w.archetypes.archetypes, a)
	w.archetypes.maskToArcIndex[mask] = a.index
	w.archetypes.archetypeVersion++
	return a
}

// archetypeWith returns the archetype for a's mask plus id.
func (w *World) archetypeWith(a *archetype, id uint8) *archetype {
	newMask := a.mask
	newMask.set(id)
	if idx, ok := w.archetypes.maskToArcIndex[newMask]; ok {
		return w.archetypes.archetypes[idx]
	}
	specs := make([]compSpec, 0, len(a.compOrder)+1)
	for _, cid := range a.compOrder {
		specs = append(specs, w.specFor(cid))
	}
	specs = append(specs, w.specFor(id))
	return w.getOrCreateArchetype(newMask, specs)
}

// archetypeWithout returns the archetype for a's mask minus id.
func (w *World) archetypeWithout(a *archetype, id uint8) *archetype {
	newMask := a.mask
	newMask.unset(id)
	if idx, ok := w.archetypes.maskToArcIndex[newMask]; ok {
		return w.archetypes.archetypes[idx]
	}
	specs := make([]compSpec, 0, len(a.compOrder))
	for _, cid := range a.compOrder {
		if cid == id {
			continue
		}
		specs = append(specs, w.specFor(cid))
	}
	return w.getOrCreateArchetype(newMask, specs)
}

// newChunk creates a new chunk for the archetype.
func (w *World) newChunk(a *archetype) *chunk {
	c := &chunk{}
	for _, cid := range a.compOrder {
		typ := w.specFor(cid).typ
		slice := reflect.MakeSlice(reflect.SliceOf(typ), ChunkSize, ChunkSize)
		c.compPointers[cid] = slice.UnsafePointer()
	}
	return c
}

// tailChunk returns the last chunk of a with a free slot, allocating one if needed.
func (w *World) tailChunk(a *archetype) *chunk {
	if len(a.chunks) == 0 || a.chunks[len(a.chunks)-1].size == ChunkSize {
		a.chunks = append(a.chunks, w.newChunk(a))
	}
	return a.chunks[len(a.chunks)-1]
}

// expand automatically increases capacity when full.
func (w *World) expand(additional int) {
	oldCap := w.entities.capacity
	newCap := oldCap * 2
	if newCap == 0 {
		newCap = 1
	}
	if newCap < oldCap+additional {
		newCap = oldCap + additional
	}
	delta := newCap - oldCap
	newMetas := make([]entityMeta, delta)
	for i := range newMetas {
		newMetas[i].reset()
	}
	w.entities.metas = append(w.entities.metas, newMetas...)
	newFree := make([]uint32, delta)
	for i := range delta {
		newFree[i] = uint32(newCap - 1 - i)
	}
	w.entities.freeIDs = append(newFree, w.entities.freeIDs...)
	w.entities.capacity = newCap
}

// createEntity bumps an entity into the given archetype.
// Zero allocations on hot path.
func (w *World) createEntity(a *archetype) Entity {
	w.checkUnlocked()
	if len(w.entities.freeIDs) == 0 {
		w.expand(1)
	}
	// pop an ID
	last := len(w.entities.freeIDs) - 1
	id := w.entities.freeIDs[last]
	w.entities.freeIDs = w.entities.freeIDs[:last]
	lastC := w.tailChunk(a)
	idx := lastC.size
	meta := &w.entities.metas[id]
	meta.archetypeIndex = a.index
	meta.chunkIndex = len(a.chunks) - 1
	meta.index = idx
	meta.version = w.entities.nextEntityVer
	ent := Entity{ID: id, Version: meta.version}
	lastC.entityIDs[idx] = ent
	lastC.size++
	a.size++
	w.entities.nextEntityVer++
	w.entities.alive++
	w.mutationVersion++
	return ent
}

// CreateEntity creates a new entity with no components.
func (w *World) CreateEntity() Entity {
	return w.createEntity(w.archetypes.archetypes[0])
}

// CreateEntities creates a batch of entities with no components and returns their IDs.
func (w *World) CreateEntities(count int) []Entity {
	if count <= 0 {
		return nil
	}
	w.checkUnlocked()
	a := w.archetypes.archetypes[0]
	ents := make([]Entity, count)
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
			ents[count-remaining+k] = ent
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

// RemoveEntity removes a single entity. Removing an invalid or stale entity
// is a no-op.
func (w *World) RemoveEntity(e Entity) {
	w.checkUnlocked()
	if !w.IsValid(e) {
		return
	}
	meta := &w.entities.metas[e.ID]
	a := w.archetypes.archetypes[meta.archetypeIndex]
	w.removeFromArchetype(a, meta)
	meta.reset()
	w.entities.freeIDs = append(w.entities.freeIDs, e.ID)
	w.entities.alive--
	w.mutationVersion++
}

// RemoveEntities removes a batch of entities.
func (w *World) RemoveEntities(ents []Entity) {
	for _, e := range ents {
		w.RemoveEntity(e)
	}
}

// removeFromArchetype removes the entity from the archetype without freeing the ID or invalidating version.
func (w *World) removeFromArchetype(a *archetype, meta *entityMeta) {
	chunkIdx := meta.chunkIndex
	c := a.chunks[chunkIdx]
	idx := meta.index
	lastIdx := c.size - 1
	if idx < lastIdx {
		lastEnt := c.entityIDs[lastIdx]
		c.entityIDs[idx] = lastEnt
		for _, cid := range a.compOrder {
			size := a.compSizes[cid]
			src := unsafe.Add(c.compPointers[cid], uintptr(lastIdx)*size)
			dst := unsafe.Add(c.compPointers[cid], uintptr(idx)*size)
			memCopy(dst, src, size)
		}
		w.entities.metas[lastEnt.ID].index = idx
	}
	c.entityIDs[lastIdx] = Entity{}
	c.size--
	a.size--
	if c.size == 0 {
		lastChunkIdx := len(a.chunks) - 1
		if chunkIdx < lastChunkIdx {
			a.chunks[chunkIdx] = a.chunks[lastChunkIdx]
			swapped := a.chunks[chunkIdx]
			for j := 0; j < swapped.size; j++ {
				ent := swapped.entityIDs[j]
				w.entities.metas[ent.ID].chunkIndex = chunkIdx
			}
		}
		a.chunks = a.chunks[:lastChunkIdx]
	}
	w.mutationVersion++
}

// moveEntity relocates the entity described by meta from archetype a into
// target, copying every component both archetypes share. It returns the new
// slot of the entity.
func (w *World) moveEntity(e Entity, meta *entityMeta, a, target *archetype) (*chunk, int) {
	dstChunk := w.tailChunk(target)
	newIdx := dstChunk.size
	dstChunk.entityIDs[newIdx] = e
	dstChunk.size++
	target.size++
	srcChunk := a.chunks[meta.chunkIndex]
	for _, cid := range a.compOrder {
		if !target.mask.containsBit(cid) {
			continue
		}
		src := unsafe.Add(srcChunk.compPointers[cid], uintptr(meta.index)*a.compSizes[cid])
		dst := unsafe.Add(dstChunk.compPointers[cid], uintptr(newIdx)*target.compSizes[cid])
		memCopy(dst, src, a.compSizes[cid])
	}
	w.removeFromArchetype(a, meta)
	meta.archetypeIndex = target.index
	meta.chunkIndex = len(target.chunks) - 1
	meta.index = newIdx
	return dstChunk, newIdx
}

// memCopy copies size bytes from src to dst using built-in copy for performance.
func memCopy(dst, src unsafe.Pointer, size uintptr) {
	if size == 0 {
		return
	}
	dstBytes := unsafe.Slice((*byte)(dst), size)
	srcBytes := unsafe.Slice((*byte)(src), size)
	copy(dstBytes, srcBytes)
}
