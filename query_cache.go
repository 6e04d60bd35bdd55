package raikou

import "unsafe"

// queryCache is the part shared by every filter: the include and exclude
// masks, the cached list of matching archetypes and the iteration cursor.
// The archetype list is refreshed lazily when the world has created new
// archetypes since the last match.
type queryCache struct {
	world           *World
	matchingArches  []*archetype
	cachedEntities  []Entity
	curArch         *archetype
	curChunk        *chunk
	include         bitmask256
	exclude         bitmask256
	curMatchIdx     int
	curChunkIdx     int
	curIdx          int
	archVersion     uint32
	entitiesVersion uint32
	entitiesValid   bool
}

func newQueryCache(w *World, include bitmask256) queryCache {
	q := queryCache{world: w, include: include}
	q.updateMatching()
	q.rewind()
	return q
}

// IsStale reports whether archetypes were created since the filter last
// matched against the world.
func (q *queryCache) IsStale() bool {
	return q.archVersion != q.world.archetypes.archetypeVersion
}

func (q *queryCache) updateMatching() {
	q.matchingArches = q.matchingArches[:0]
	for _, a := range q.world.archetypes.archetypes {
		if a.mask.contains(q.include) && !a.mask.intersects(q.exclude) {
			q.matchingArches = append(q.matchingArches, a)
		}
	}
	q.archVersion = q.world.archetypes.archetypeVersion
	q.entitiesValid = false
}

// without adds ids to the exclusion set.
func (q *queryCache) without(ids []ComponentID) {
	for _, id := range ids {
		if q.include.containsBit(uint8(id)) {
			panic("ecs: component is both required and excluded")
		}
		q.exclude.set(uint8(id))
	}
	q.updateMatching()
	q.rewind()
}

// rewind resets the cursor to just before the first matching entity.
func (q *queryCache) rewind() {
	if q.IsStale() {
		q.updateMatching()
	}
	q.curArch = nil
	q.curChunk = nil
	q.curMatchIdx = -1
	q.curChunkIdx = -1
	q.curIdx = -1
}

// advance moves the cursor to the next matching entity.
func (q *queryCache) advance() bool {
	q.curIdx++
	if q.curChunk != nil && q.curIdx < q.curChunk.size {
		return true
	}
	for {
		q.curChunkIdx++
		for q.curArch == nil || q.curChunkIdx >= len(q.curArch.chunks) {
			q.curMatchIdx++
			if q.curMatchIdx >= len(q.matchingArches) {
				q.curChunk = nil
				return false
			}
			q.curArch = q.matchingArches[q.curMatchIdx]
			q.curChunkIdx = 0
		}
		c := q.curArch.chunks[q.curChunkIdx]
		if c.size == 0 {
			continue
		}
		q.curChunk = c
		q.curIdx = 0
		return true
	}
}

func (q *queryCache) entity() Entity {
	return q.curChunk.entityIDs[q.curIdx]
}

func (q *queryCache) component(id uint8) unsafe.Pointer {
	return unsafe.Add(q.curChunk.compPointers[id], uintptr(q.curIdx)*q.curArch.compSizes[id])
}

// Len returns the number of entities currently matching the filter.
func (q *queryCache) Len() int {
	if q.IsStale() {
		q.updateMatching()
	}
	n := 0
	for _, a := range q.matchingArches {
		n += a.size
	}
	return n
}

// Entities returns all entities that match the filter.
// Note: The returned slice is owned by the filter and may be invalidated on the
// next Entities call or world mutation. Copy if needed for long-term use.
func (q *queryCache) Entities() []Entity {
	if q.IsStale() {
		q.updateMatching()
	}
	if q.entitiesValid && q.entitiesVersion == q.world.mutationVersion {
		return q.cachedEntities
	}
	q.cachedEntities = q.cachedEntities[:0]
	for _, a := range q.matchingArches {
		for _, c := range a.chunks {
			q.cachedEntities = append(q.cachedEntities, c.entityIDs[:c.size]...)
		}
	}
	q.entitiesVersion = q.world.mutationVersion
	q.entitiesValid = true
	return q.cachedEntities
}
