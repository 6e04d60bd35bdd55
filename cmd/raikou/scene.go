package main

import (
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/edwinsyarief/raikou"
	"github.com/edwinsyarief/raikou/hierarchy"
	"github.com/edwinsyarief/raikou/transform"
)

// scene is the demo hierarchy: the root carries the hand through the arm.
type scene struct {
	root, arm, hand raikou.Entity
}

var sceneNames = [...]string{"root", "arm", "hand"}

func spawnScene(w *raikou.World) (scene, error) {
	var s scene
	s.root = spawnLocal(w, transform.NewPosition(0, 5, 0), transform.IdentityRotation(), transform.NewScale(1, 2.5, 3.9))
	s.arm = spawnLocal(w, transform.NewPosition(3, 1, 0), transform.IdentityRotation(), transform.UnitScale())
	s.hand = spawnLocal(w, transform.NewPosition(0, -1, 3), transform.IdentityRotation(), transform.UnitScale())
	if err := hierarchy.Attach[hierarchy.Tree](w, s.arm, s.root); err != nil {
		return s, err
	}
	return s, hierarchy.Attach[hierarchy.Tree](w, s.hand, s.arm)
}

// spawnLocal creates an entity with a local transform only. The
// GlobalTransform is filled in by the transform plugin.
func spawnLocal(w *raikou.World, p transform.Position, r transform.Rotation, s transform.Scale) raikou.Entity {
	e := w.CreateEntity()
	raikou.SetComponent(w, e, p)
	raikou.SetComponent(w, e, r)
	raikou.SetComponent(w, e, s)
	return e
}

// buildForest spawns roots trees, each a spine of depth levels with an
// extra leaf on every spine node, and returns the number of entities made.
func buildForest(w *raikou.World, rng *rand.Rand, roots, depth int) (int, error) {
	n := 0
	node := func() raikou.Entity {
		f := func(lo, hi float32) float32 { return lo + rng.Float32()*(hi-lo) }
		e := spawnLocal(w,
			transform.NewPosition(f(-10, 10), f(-10, 10), f(-10, 10)),
			transform.RotationAxis(f(-3, 3), mgl32.Vec3{f(-1, 1), f(-1, 1), f(0.1, 1)}),
			transform.NewScale(f(0.5, 1.5), f(0.5, 1.5), f(0.5, 1.5)))
		raikou.SetComponent(w, e, transform.IdentityGlobalTransform())
		n++
		return e
	}
	for range roots {
		parent := node()
		for range depth {
			if err := hierarchy.Attach[hierarchy.Tree](w, node(), parent); err != nil {
				return n, err
			}
			next := node()
			if err := hierarchy.Attach[hierarchy.Tree](w, next, parent); err != nil {
				return n, err
			}
			parent = next
		}
	}
	return n, nil
}

// snapshot copies every GlobalTransform of w.
func snapshot(w *raikou.World) map[raikou.Entity]mgl32.Mat4 {
	out := make(map[raikou.Entity]mgl32.Mat4, w.Len())
	f := raikou.NewFilter[transform.GlobalTransform](w)
	for f.Next() {
		out[f.Entity()] = f.Get().Mat4
	}
	return out
}

// diff returns the number of entities whose matrices differ between a and b.
func diff(a, b map[raikou.Entity]mgl32.Mat4) int {
	n := 0
	for e, m := range a {
		if other, ok := b[e]; !ok || other != m {
			n++
		}
	}
	return n + max(0, len(b)-len(a))
}
