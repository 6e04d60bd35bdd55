// Profiling:
// go build ./profile/propagate
// go tool pprof -http=":8000" -nodefraction=0.001 ./propagate cpu.pprof

package main

import (
	"context"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/profile"

	"github.com/edwinsyarief/raikou"
	"github.com/edwinsyarief/raikou/hierarchy"
	"github.com/edwinsyarief/raikou/transform"
)

func main() {
	rounds := 200
	roots := 1000
	depth := 10
	p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	run(rounds, roots, depth)
	p.Stop()
}

func run(rounds, roots, depth int) {
	w := raikou.NewWorld(roots * (1 + 2*depth))
	rng := rand.New(rand.NewPCG(1, 2))
	node := func() raikou.Entity {
		e := w.CreateEntity()
		raikou.SetComponent(w, e, transform.NewPosition(rng.Float32(), rng.Float32(), rng.Float32()))
		raikou.SetComponent(w, e, transform.RotationAxis(rng.Float32(), mgl32.Vec3{0, 1, 0}))
		raikou.SetComponent(w, e, transform.UnitScale())
		raikou.SetComponent(w, e, transform.IdentityGlobalTransform())
		return e
	}
	for range roots {
		parent := node()
		for range depth {
			_ = hierarchy.Attach[hierarchy.Tree](w, node(), parent)
			next := node()
			_ = hierarchy.Attach[hierarchy.Tree](w, next, parent)
			parent = next
		}
	}

	prop := transform.NewPropagator[hierarchy.Tree](w)
	ctx := context.Background()
	for range rounds {
		if err := prop.Run(ctx); err != nil {
			panic(err)
		}
	}
}
