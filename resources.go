package raikou

import (
	"reflect"
	"sync"
)

// Resources manages a collection of world-global values, ensuring no duplicate
// types are present at the same time. It uses a slice for storage, a map for
// quick type to ID mapping, and a free list for ID reuse. All methods are safe
// for concurrent use.
type Resources struct {
	mu      sync.RWMutex
	items   []any
	types   map[reflect.Type]int
	freeIds []int
}

// Add adds a resource and returns its ID. Panics if res is nil or if a
// resource of the same type already exists. Reuses free IDs if available to
// avoid growing the slice unnecessarily.
func (r *Resources) Add(res any) int {
	if res == nil {
		panic("cannot add nil resource")
	}
	t := reflect.TypeOf(res)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.types == nil {
		r.types = make(map[reflect.Type]int)
	}
	if _, ok := r.types[t]; ok {
		panic("resource of the same type already exists")
	}
	var id int
	if len(r.freeIds) > 0 {
		id = r.freeIds[len(r.freeIds)-1]
		r.freeIds = r.freeIds[:len(r.freeIds)-1]
		r.items[id] = res
	} else {
		r.items = append(r.items, res)
		id = len(r.items) - 1
	}
	r.types[t] = id
	return id
}

// Has checks if a resource with the given ID exists.
func (r *Resources) Has(id int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.has(id)
}

func (r *Resources) has(id int) bool {
	return id >= 0 && id < len(r.items) && r.items[id] != nil
}

// Get retrieves the resource by ID, or nil if it doesn't exist.
func (r *Resources) Get(id int) any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.has(id) {
		return nil
	}
	return r.items[id]
}

// Remove removes the resource by ID if it exists, marking the ID as free for reuse.
func (r *Resources) Remove(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.has(id) {
		return
	}
	delete(r.types, reflect.TypeOf(r.items[id]))
	r.items[id] = nil
	r.freeIds = append(r.freeIds, id)
}

// Clear removes all resources, resetting the free list.
func (r *Resources) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.items)
	r.items = r.items[:0]
	clear(r.types)
	r.freeIds = r.freeIds[:0]
}

// HasResource checks if a resource of type *T exists, returning true and its ID, or false and -1.
func HasResource[T any](r *Resources) (bool, int) {
	t := reflect.TypeFor[*T]()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.types[t]; ok {
		return true, id
	}
	return false, -1
}

// GetResource retrieves the resource of type *T if it exists, returning it and its ID, or nil and -1.
func GetResource[T any](r *Resources) (*T, int) {
	t := reflect.TypeFor[*T]()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.types[t]; ok {
		return r.items[id].(*T), id
	}
	return nil, -1
}
