// Profiling:
// go build ./profile/hierarchy
// go tool pprof -http=":8000" -nodefraction=0.001 ./hierarchy mem.pprof

package main

import (
	"github.com/pkg/profile"

	"github.com/edwinsyarief/raikou"
	"github.com/edwinsyarief/raikou/hierarchy"
	"github.com/edwinsyarief/raikou/transform"
)

func main() {
	count := 50
	iters := 100
	children := 1000
	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(count, iters, children)
	p.Stop()
}

func run(rounds, iters, numChildren int) {
	for range rounds {
		w := raikou.NewWorld(numChildren + 1)
		builder := raikou.NewBuilder[transform.Position](w)

		for range iters {
			parent := builder.NewEntity()
			for _, e := range builder.NewEntities(numChildren) {
				_ = hierarchy.Attach[hierarchy.Tree](w, e, parent)
			}
			hierarchy.DespawnRecursive[hierarchy.Tree](w, parent)
		}
	}
}
