// Package hierarchy implements tagged parent/child relations on top of a
// raikou World.
//
// A relation is identified by a tag type T. Parents carry a Parent[T]
// component holding their last child and child count; children carry a
// Child[T] component holding their parent and their previous and next
// siblings. Walking Prev links from a parent's LastChild visits every child
// exactly once and ends at the null handle. Several tags can coexist over
// the same entities without interfering.
//
// Attach is the only way to create an edge and it refuses cycles, so the
// relation is always a forest.
package hierarchy

import (
	"fmt"

	"github.com/edwinsyarief/raikou"
)

// Tree is the default relation tag, used by the transform package.
type Tree struct{}

// Parent is carried by every entity that has at least one child under tag T.
type Parent[T any] struct {
	lastChild   raikou.Entity
	numChildren int
}

// LastChild returns the most recently attached child.
func (p Parent[T]) LastChild() raikou.Entity { return p.lastChild }

// NumChildren returns the number of attached children.
func (p Parent[T]) NumChildren() int { return p.numChildren }

// Child is carried by every entity attached to a parent under tag T.
type Child[T any] struct {
	parent raikou.Entity
	prev   raikou.Entity
	next   raikou.Entity
}

// Parent returns the entity this child is attached to.
func (c Child[T]) Parent() raikou.Entity { return c.parent }

// Prev returns the previous sibling, or the null handle for the first child.
func (c Child[T]) Prev() raikou.Entity { return c.prev }

// Next returns the next sibling, or the null handle for the last child.
func (c Child[T]) Next() raikou.Entity { return c.next }

// Attach makes child the new last child of parent under tag T.
//
// Attaching is a structural change: it must not be called while the world is
// locked (record it with AttachCmd instead). The child's own subtree moves
// with it.
//
// Parameters:
//   - w: The World holding both entities.
//   - child: The entity to attach. It must not already have a parent under T.
//   - parent: The new parent.
//
// Returns:
//   - nil on success; otherwise an error wrapping ErrInvalidEntity,
//     ErrSelfAttach, ErrAlreadyAttached or ErrCycle. The world is unchanged
//     on error.
func Attach[T any](w *raikou.World, child, parent raikou.Entity) error {
	switch {
	case !w.IsValid(child):
		return fmt.Errorf("attach child %v: %w", child, ErrInvalidEntity)
	case !w.IsValid(parent):
		return fmt.Errorf("attach to parent %v: %w", parent, ErrInvalidEntity)
	case child == parent:
		return fmt.Errorf("attach %v: %w", child, ErrSelfAttach)
	}
	if c := raikou.GetComponent[Child[T]](w, child); c != nil {
		return fmt.Errorf("attach %v to %v: already child of %v: %w", child, parent, c.parent, ErrAlreadyAttached)
	}
	// Walk the ancestors of parent; finding child there means a cycle. The
	// walk is bounded so that a corrupted chain cannot spin forever.
	for a, steps := parent, 0; ; steps++ {
		c := raikou.GetComponent[Child[T]](w, a)
		if c == nil {
			break
		}
		if c.parent == child || steps > w.Len() {
			return fmt.Errorf("attach %v to %v: %w", child, parent, ErrCycle)
		}
		a = c.parent
	}

	var prev raikou.Entity
	if p := raikou.GetComponent[Parent[T]](w, parent); p != nil {
		prev = p.lastChild
	}
	raikou.SetComponent(w, child, Child[T]{parent: parent, prev: prev})
	// Pointers are fetched again: the move above may have relocated parent.
	if p := raikou.GetComponent[Parent[T]](w, parent); p != nil {
		p.lastChild = child
		p.numChildren++
	} else {
		raikou.SetComponent(w, parent, Parent[T]{lastChild: child, numChildren: 1})
	}
	if !prev.IsZero() {
		if s := raikou.GetComponent[Child[T]](w, prev); s != nil {
			s.next = child
		}
	}
	return nil
}

// Detach removes e from its parent's child chain under tag T. e keeps its
// own children. A parent whose last child is detached loses its Parent[T]
// component and stops being a root.
//
// Returns an error wrapping ErrInvalidEntity or ErrNotAttached.
func Detach[T any](w *raikou.World, e raikou.Entity) error {
	if !w.IsValid(e) {
		return fmt.Errorf("detach %v: %w", e, ErrInvalidEntity)
	}
	c := raikou.GetComponent[Child[T]](w, e)
	if c == nil {
		return fmt.Errorf("detach %v: %w", e, ErrNotAttached)
	}
	link := *c
	if s := raikou.GetComponent[Child[T]](w, link.prev); s != nil {
		s.next = link.next
	}
	if s := raikou.GetComponent[Child[T]](w, link.next); s != nil {
		s.prev = link.prev
	}
	if p := raikou.GetComponent[Parent[T]](w, link.parent); p != nil {
		if p.lastChild == e {
			p.lastChild = link.prev
		}
		p.numChildren--
		if p.numChildren <= 0 {
			raikou.RemoveComponent[Parent[T]](w, link.parent)
		}
	}
	raikou.RemoveComponent[Child[T]](w, e)
	return nil
}

// DetachChildren detaches every child of parent under tag T and returns how
// many were detached. Each former child becomes the root of its own subtree.
func DetachChildren[T any](w *raikou.World, parent raikou.Entity) int {
	var kids []raikou.Entity
	for c := range Children[T](w, parent) {
		kids = append(kids, c)
	}
	n := 0
	for _, c := range kids {
		if Detach[T](w, c) == nil {
			n++
		}
	}
	return n
}

// DespawnRecursive detaches e from its parent, then removes e and every
// descendant under tag T from the world. It returns the number of entities
// removed.
func DespawnRecursive[T any](w *raikou.World, e raikou.Entity) int {
	if !w.IsValid(e) {
		return 0
	}
	if HasParent[T](w, e) {
		_ = Detach[T](w, e)
	}
	doomed := []raikou.Entity{e}
	for i := 0; i < len(doomed); i++ {
		for c := range Children[T](w, doomed[i]) {
			doomed = append(doomed, c)
		}
	}
	w.RemoveEntities(doomed)
	return len(doomed)
}

// AttachCmd records Attach on cmds. The error, if any, is returned by
// Commands.Apply.
func AttachCmd[T any](cmds *raikou.Commands, child, parent raikou.Entity) {
	cmds.Defer(func(w *raikou.World) error {
		return Attach[T](w, child, parent)
	})
}

// DetachCmd records Detach on cmds.
func DetachCmd[T any](cmds *raikou.Commands, e raikou.Entity) {
	cmds.Defer(func(w *raikou.World) error {
		return Detach[T](w, e)
	})
}

// DespawnRecursiveCmd records DespawnRecursive on cmds.
func DespawnRecursiveCmd[T any](cmds *raikou.Commands, e raikou.Entity) {
	cmds.Defer(func(w *raikou.World) error {
		DespawnRecursive[T](w, e)
		return nil
	})
}
