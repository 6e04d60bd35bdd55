package raikou

import (
	"errors"
	"fmt"
	"sync"
)

// Command is one deferred operation recorded on a Commands buffer.
type Command func(w *World) error

// Commands records structural changes (spawning, despawning, inserting and
// removing components) so they can be applied at a single synchronization
// point instead of while filters are iterating. Recording is safe from many
// goroutines; Apply must run on the goroutine that owns the world, while the
// world is unlocked.
type Commands struct {
	mu  sync.Mutex
	ops []Command
}

// NewCommands returns an empty command buffer.
func NewCommands() *Commands {
	return &Commands{ops: make([]Command, 0, 64)}
}

// Defer records an arbitrary operation.
func (c *Commands) Defer(op Command) {
	c.mu.Lock()
	c.ops = append(c.ops, op)
	c.mu.Unlock()
}

// Len returns the number of pending operations.
func (c *Commands) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ops)
}

// Clear drops every pending operation and returns how many were dropped.
func (c *Commands) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.ops)
	clear(c.ops)
	c.ops = c.ops[:0]
	return n
}

// Spawn records the creation of an entity. init, if not nil, runs right after
// the entity is created and may attach components to it.
func (c *Commands) Spawn(init func(w *World, e Entity)) {
	c.Defer(func(w *World) error {
		e := w.CreateEntity()
		if init != nil {
			init(w, e)
		}
		return nil
	})
}

// Despawn records the removal of an entity.
func (c *Commands) Despawn(e Entity) {
	c.Defer(func(w *World) error {
		w.RemoveEntity(e)
		return nil
	})
}

// Insert records SetComponent(w, e, val).
func Insert[T any](c *Commands, e Entity, val T) {
	c.Defer(func(w *World) error {
		if !w.IsValid(e) {
			return fmt.Errorf("insert %T on %v: %w", val, e, ErrInvalidEntity)
		}
		SetComponent(w, e, val)
		return nil
	})
}

// InsertIfMissing records the insertion of val unless the entity already has
// a `T` component when the buffer is applied. Recording it several times for
// the same entity is harmless. Entities removed before the buffer is applied
// are skipped silently.
func InsertIfMissing[T any](c *Commands, e Entity, val T) {
	c.Defer(func(w *World) error {
		if w.IsValid(e) && !HasComponent[T](w, e) {
			SetComponent(w, e, val)
		}
		return nil
	})
}

// Remove records RemoveComponent[T](w, e).
func Remove[T any](c *Commands, e Entity) {
	c.Defer(func(w *World) error {
		RemoveComponent[T](w, e)
		return nil
	})
}

// Apply runs every pending operation in recording order and empties the
// buffer. Operations that fail do not stop the others; their errors are
// joined into the returned error.
//
// Parameters:
//   - w: The World to apply the operations to. It must be unlocked.
//
// Returns:
//   - nil, or the joined errors of the failed operations.
func (c *Commands) Apply(w *World) error {
	if w.Locked() {
		return ErrWorldLocked
	}
	c.mu.Lock()
	ops := c.ops
	c.ops = make([]Command, 0, cap(ops))
	c.mu.Unlock()
	var errs []error
	for _, op := range ops {
		if err := op(w); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
