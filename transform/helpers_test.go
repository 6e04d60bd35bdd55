package transform_test

import (
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"github.com/edwinsyarief/raikou"
	"github.com/edwinsyarief/raikou/hierarchy"
	"github.com/edwinsyarief/raikou/transform"
)

type tree = hierarchy.Tree

// spawn creates a complete spatial entity.
func spawn(w *raikou.World, p transform.Position, r transform.Rotation, s transform.Scale) raikou.Entity {
	e := w.CreateEntity()
	raikou.SetComponent(w, e, p)
	raikou.SetComponent(w, e, r)
	raikou.SetComponent(w, e, s)
	raikou.SetComponent(w, e, transform.IdentityGlobalTransform())
	return e
}

func spawnAt(w *raikou.World, x, y, z float32) raikou.Entity {
	return spawn(w, transform.NewPosition(x, y, z), transform.IdentityRotation(), transform.UnitScale())
}

func attach(t testing.TB, w *raikou.World, child, parent raikou.Entity) {
	t.Helper()
	require.NoError(t, hierarchy.Attach[tree](w, child, parent))
}

func global(w *raikou.World, e raikou.Entity) mgl32.Mat4 {
	g := raikou.GetComponent[transform.GlobalTransform](w, e)
	if g == nil {
		return mgl32.Mat4{}
	}
	return g.Mat4
}

func local(w *raikou.World, e raikou.Entity) mgl32.Mat4 {
	return transform.Compose(
		*raikou.GetComponent[transform.Position](w, e),
		*raikou.GetComponent[transform.Rotation](w, e),
		*raikou.GetComponent[transform.Scale](w, e))
}

func randomLocal(rng *rand.Rand) (transform.Position, transform.Rotation, transform.Scale) {
	f := func(lo, hi float32) float32 { return lo + rng.Float32()*(hi-lo) }
	p := transform.NewPosition(f(-10, 10), f(-10, 10), f(-10, 10))
	r := transform.RotationAxis(f(-3, 3), mgl32.Vec3{f(-1, 1), f(-1, 1), f(0.1, 1)})
	s := transform.NewScale(f(0.5, 1.5), f(0.5, 1.5), f(0.5, 1.5))
	return p, r, s
}

// reference computes the expected GlobalTransform of every complete spatial
// entity with a plain serial depth-first walk from each root.
func reference(w *raikou.World) map[raikou.Entity]mgl32.Mat4 {
	want := make(map[raikou.Entity]mgl32.Mat4)
	all := raikou.NewFilter4[transform.Position, transform.Rotation, transform.Scale, transform.GlobalTransform](w)
	for all.Next() {
		want[all.Entity()] = local(w, all.Entity())
	}
	var visit func(parent raikou.Entity, basis mgl32.Mat4)
	visit = func(parent raikou.Entity, basis mgl32.Mat4) {
		for c := range hierarchy.Children[tree](w, parent) {
			m := basis.Mul4(local(w, c))
			want[c] = m
			visit(c, m)
		}
	}
	for _, r := range hierarchy.Roots[tree](w) {
		basis, ok := want[r]
		if !ok {
			basis = mgl32.Ident4()
		}
		visit(r, basis)
	}
	return want
}

// forest builds roots independent trees. Every tree is a spine of depth
// levels, with one extra leaf hanging off every spine node.
func forest(t testing.TB, w *raikou.World, rng *rand.Rand, roots, depth int) {
	t.Helper()
	node := func() raikou.Entity {
		p, r, s := randomLocal(rng)
		return spawn(w, p, r, s)
	}
	for range roots {
		parent := node()
		for range depth {
			attach(t, w, node(), parent)
			next := node()
			attach(t, w, next, parent)
			parent = next
		}
	}
}
