package main

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"github.com/yohamta/donburi"

	"github.com/edwinsyarief/raikou"
	"github.com/edwinsyarief/raikou/app"
	"github.com/edwinsyarief/raikou/donburisync"
	"github.com/edwinsyarief/raikou/transform"
)

const (
	demoFrames    = 120
	demoFrameRate = 60
)

func newDemoCmd(f *rootFlags) *cobra.Command {
	var (
		bob    float32
		period float32
		mirror bool
		every  uint64
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Animate a three-level hierarchy and log world positions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.MaxFrames == 0 {
				cfg.MaxFrames = demoFrames
			}
			if cfg.FrameRate == 0 {
				cfg.FrameRate = demoFrameRate
			}
			return runDemo(cmd.Context(), cfg, demoOptions{bob: bob, period: period, mirror: mirror, every: max(every, 1)})
		},
	}
	fl := cmd.Flags()
	fl.Float32Var(&bob, "bob", 2, "height the root bobs up and down")
	fl.Float32Var(&period, "period", 1, "seconds per bob")
	fl.BoolVar(&mirror, "mirror", false, "mirror world transforms into a donburi world")
	fl.Uint64Var(&every, "every", 30, "log positions every n frames")
	return cmd
}

type demoOptions struct {
	bob, period float32
	mirror      bool
	every       uint64
}

func runDemo(ctx context.Context, cfg app.Config, o demoOptions) error {
	a := app.New(cfg)
	if err := a.AddPlugin(app.LogPlugin{}); err != nil {
		return err
	}
	reg := prometheus.NewRegistry()
	stop, err := serveMetrics(ctx, cfg.MetricsAddr, reg, a.Logger)
	if err != nil {
		return err
	}
	defer stop()
	if err := a.AddPlugin(transform.Plugin{Metrics: transform.NewMetrics(reg)}); err != nil {
		return err
	}

	var s scene
	a.AddSystem(app.Startup, "demo.spawn", func(_ context.Context, w *raikou.World, _ *raikou.Commands) error {
		var err error
		s, err = spawnScene(w)
		return err
	})
	a.AddSystem(app.Update, "demo.bob", bobSystem(&s, o.bob, o.period))
	a.AddSystem(app.PostUpdate, "demo.report", func(_ context.Context, w *raikou.World, _ *raikou.Commands) error {
		t, _ := raikou.GetResource[app.Time](w.Resources())
		if t.Frame()%o.every != 0 && t.Frame() != cfg.MaxFrames {
			return nil
		}
		for i, e := range []raikou.Entity{s.root, s.arm, s.hand} {
			if g := raikou.GetComponent[transform.GlobalTransform](w, e); g != nil {
				p := g.Translation()
				a.Logger.Info("world position", slog.Uint64("frame", t.Frame()), slog.String("entity", sceneNames[i]),
					slog.Any("x", p.X()), slog.Any("y", p.Y()), slog.Any("z", p.Z()))
			}
		}
		return nil
	})

	if o.mirror {
		m := donburisync.NewMirror(a.World, donburi.NewWorld())
		donburisync.SyncedEvent.Subscribe(m.World(), func(_ donburi.World, e donburisync.Synced) {
			if e.Frame%o.every == 0 {
				a.Logger.Debug("mirrored", slog.Uint64("frame", e.Frame), slog.Int("entities", e.Mirrored), slog.Int("removed", e.Removed))
			}
		})
		if err := a.AddPlugin(m.Plugin()); err != nil {
			return err
		}
	}

	if err := a.Startup(ctx); err != nil {
		return err
	}
	return a.Run(ctx)
}

// bobSystem moves the root up and back down forever, easing both ways.
func bobSystem(s *scene, height, period float32) app.System {
	up := gween.New(0, height, period/2, ease.InOutQuad)
	down := gween.New(height, 0, period/2, ease.InOutQuad)
	cur := up
	return func(_ context.Context, w *raikou.World, _ *raikou.Commands) error {
		t, _ := raikou.GetResource[app.Time](w.Resources())
		y, done := cur.Update(t.DeltaSeconds())
		if done {
			cur.Reset()
			if cur == up {
				cur = down
			} else {
				cur = up
			}
		}
		if p := raikou.GetComponent[transform.Position](w, s.root); p != nil {
			p.Vec3[1] = 5 + y
		}
		return nil
	}
}
