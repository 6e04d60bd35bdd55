package transform

import (
	"context"

	"github.com/edwinsyarief/raikou"
	"github.com/edwinsyarief/raikou/app"
	"github.com/edwinsyarief/raikou/hierarchy"
)

// Plugin keeps the GlobalTransforms of an App up to date for the
// hierarchy.Tree tag. InsertMissing is added to Update and its insertions
// are applied with the rest of the Update commands; propagation is added to
// PostUpdate. Entities that become spatial through Update commands are
// completed, and first propagated, on the next frame.
type Plugin struct {
	// Metrics, if set, receives the propagation metrics.
	Metrics *Metrics
}

// Build implements app.Plugin.
func (p Plugin) Build(a *app.App) error {
	opts := []Option{WithWorkers(a.Config.Workers), WithLogger(a.Logger)}
	if p.Metrics != nil {
		opts = append(opts, WithMetrics(p.Metrics))
	}
	prop := NewPropagator[hierarchy.Tree](a.World, opts...)
	a.AddSystem(app.Update, "transform.insert_missing", func(_ context.Context, w *raikou.World, cmds *raikou.Commands) error {
		InsertMissing(w, cmds)
		return nil
	})
	a.AddSystem(app.PostUpdate, "transform.propagate", func(ctx context.Context, _ *raikou.World, _ *raikou.Commands) error {
		return prop.Run(ctx)
	})
	return nil
}
