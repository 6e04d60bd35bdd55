package hierarchy

import (
	"errors"
	"fmt"
	"iter"

	"github.com/edwinsyarief/raikou"
)

// ParentOf returns the parent of e under tag T and whether e has one.
func ParentOf[T any](w *raikou.World, e raikou.Entity) (raikou.Entity, bool) {
	if c := raikou.GetComponent[Child[T]](w, e); c != nil {
		return c.parent, true
	}
	return raikou.Entity{}, false
}

// LastChild returns the last child of e, or the null handle if e has none.
func LastChild[T any](w *raikou.World, e raikou.Entity) raikou.Entity {
	if p := raikou.GetComponent[Parent[T]](w, e); p != nil {
		return p.lastChild
	}
	return raikou.Entity{}
}

// PrevSibling returns the sibling attached before e, or the null handle.
func PrevSibling[T any](w *raikou.World, e raikou.Entity) raikou.Entity {
	if c := raikou.GetComponent[Child[T]](w, e); c != nil {
		return c.prev
	}
	return raikou.Entity{}
}

// NextSibling returns the sibling attached after e, or the null handle.
func NextSibling[T any](w *raikou.World, e raikou.Entity) raikou.Entity {
	if c := raikou.GetComponent[Child[T]](w, e); c != nil {
		return c.next
	}
	return raikou.Entity{}
}

// HasChildren reports whether e is a parent under tag T.
func HasChildren[T any](w *raikou.World, e raikou.Entity) bool {
	return raikou.HasComponent[Parent[T]](w, e)
}

// HasParent reports whether e is a child under tag T.
func HasParent[T any](w *raikou.World, e raikou.Entity) bool {
	return raikou.HasComponent[Child[T]](w, e)
}

// NumChildren returns the recorded child count of e.
func NumChildren[T any](w *raikou.World, e raikou.Entity) int {
	if p := raikou.GetComponent[Parent[T]](w, e); p != nil {
		return p.numChildren
	}
	return 0
}

// Children iterates the direct children of parent, from the last attached to
// the first. The walk stops early at a link that does not resolve, and never
// yields more entities than the recorded child count. The hierarchy must not
// change structurally while the sequence is consumed.
//
// Example:
//
//	for c := range hierarchy.Children[hierarchy.Tree](w, root) {
//	    // ...
//	}
func Children[T any](w *raikou.World, parent raikou.Entity) iter.Seq[raikou.Entity] {
	return func(yield func(raikou.Entity) bool) {
		p := raikou.GetComponent[Parent[T]](w, parent)
		if p == nil {
			return
		}
		n := p.numChildren
		for c := p.lastChild; !c.IsZero() && n > 0; n-- {
			link := raikou.GetComponent[Child[T]](w, c)
			if link == nil {
				return
			}
			prev := link.prev
			if !yield(c) {
				return
			}
			c = prev
		}
	}
}

// Roots returns every entity that has children under tag T and no parent.
// The returned slice is freshly allocated.
func Roots[T any](w *raikou.World) []raikou.Entity {
	f := raikou.NewFilter[Parent[T]](w).Without(raikou.ComponentIDFor[Child[T]](w))
	return append([]raikou.Entity(nil), f.Entities()...)
}

// Validate checks every edge under tag T and returns all problems joined
// into a single error, each wrapping ErrBrokenLink. It returns nil for a
// healthy hierarchy. Validate is meant for tests and debugging; it is not
// run on the propagation path.
func Validate[T any](w *raikou.World) error {
	var errs []error
	broken := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrBrokenLink}, args...)...))
	}

	parents := raikou.NewFilter[Parent[T]](w)
	for parents.Next() {
		pe, p := parents.Entity(), parents.Get()
		if p.numChildren <= 0 {
			broken("parent %v records %d children", pe, p.numChildren)
			continue
		}
		var next raikou.Entity
		seen, cut := 0, false
		for c := p.lastChild; !c.IsZero(); seen++ {
			if seen >= p.numChildren {
				broken("parent %v: chain longer than %d children", pe, p.numChildren)
				cut = true
				break
			}
			link := raikou.GetComponent[Child[T]](w, c)
			if link == nil {
				broken("parent %v: dangling child %v", pe, c)
				cut = true
				break
			}
			if link.parent != pe {
				broken("child %v of %v names parent %v", c, pe, link.parent)
			}
			if link.next != next {
				broken("child %v: next is %v, want %v", c, link.next, next)
			}
			next, c = c, link.prev
		}
		if !cut && seen < p.numChildren {
			broken("parent %v: chain has %d of %d children", pe, seen, p.numChildren)
		}
	}

	children := raikou.NewFilter[Child[T]](w)
	for children.Next() {
		ce, c := children.Entity(), children.Get()
		if !raikou.HasComponent[Parent[T]](w, c.parent) {
			broken("child %v: parent %v is not a parent", ce, c.parent)
			continue
		}
		for a, steps := c.parent, 0; ; steps++ {
			if a == ce || steps > w.Len() {
				broken("child %v is its own ancestor", ce)
				break
			}
			up := raikou.GetComponent[Child[T]](w, a)
			if up == nil {
				break
			}
			a = up.parent
		}
	}
	return errors.Join(errs...)
}
