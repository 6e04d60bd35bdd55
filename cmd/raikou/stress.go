package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/edwinsyarief/raikou"
	"github.com/edwinsyarief/raikou/app"
	"github.com/edwinsyarief/raikou/hierarchy"
	"github.com/edwinsyarief/raikou/transform"
)

type stressOptions struct {
	roots, depth int
	seed         uint64
	iterations   int
}

func newStressCmd(f *rootFlags) *cobra.Command {
	var o stressOptions
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Propagate a large forest in parallel and check it against a serial run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.MaxFrames > 0 {
				o.iterations = int(cfg.MaxFrames)
			}
			return runStress(cmd.Context(), cfg, o)
		},
	}
	fl := cmd.Flags()
	fl.IntVar(&o.roots, "roots", 1000, "number of independent trees")
	fl.IntVar(&o.depth, "depth", 10, "levels below each root")
	fl.Uint64Var(&o.seed, "seed", 1, "random seed for the local transforms")
	fl.IntVar(&o.iterations, "iterations", 10, "timed parallel runs")
	return cmd
}

var errMismatch = errors.New("stress: parallel and serial results differ")

func runStress(ctx context.Context, cfg app.Config, o stressOptions) error {
	log, err := app.NewLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	reg := prometheus.NewRegistry()
	stop, err := serveMetrics(ctx, cfg.MetricsAddr, reg, log)
	if err != nil {
		return err
	}
	defer stop()

	w := raikou.NewWorld(cfg.InitialCapacity)
	start := time.Now()
	n, err := buildForest(w, rand.New(rand.NewPCG(o.seed, o.seed^0x9e3779b97f4a7c15)), o.roots, o.depth)
	if err != nil {
		return err
	}
	if err := hierarchy.Validate[hierarchy.Tree](w); err != nil {
		return err
	}
	log.Info("built forest", slog.Int("roots", o.roots), slog.Int("depth", o.depth),
		slog.Int("entities", n), slog.Duration("took", time.Since(start)))

	serial := transform.NewPropagator[hierarchy.Tree](w, transform.WithWorkers(1), transform.WithLogger(log))
	start = time.Now()
	if err := serial.Run(ctx); err != nil {
		return err
	}
	serialTook := time.Since(start)
	want := snapshot(w)

	parallel := transform.NewPropagator[hierarchy.Tree](w,
		transform.WithWorkers(cfg.Workers),
		transform.WithLogger(log),
		transform.WithMetrics(transform.NewMetrics(reg)))
	var total time.Duration
	for i := range max(o.iterations, 1) {
		if err := ctx.Err(); err != nil {
			return nil
		}
		resetGlobals(w)
		start = time.Now()
		if err := parallel.Run(ctx); err != nil {
			return err
		}
		total += time.Since(start)
		if d := diff(want, snapshot(w)); d > 0 {
			log.Error("parallel run diverged", slog.Int("iteration", i), slog.Int("entities", d))
			return fmt.Errorf("%w: %d entities on iteration %d", errMismatch, d, i)
		}
	}
	avg := total / time.Duration(max(o.iterations, 1))
	log.Info("propagation", slog.Duration("serial", serialTook), slog.Duration("parallel_avg", avg),
		slog.Float64("speedup", float64(serialTook)/float64(max(avg, 1))))
	return nil
}

// resetGlobals clears every GlobalTransform so a run cannot pass by
// leaving the previous results in place.
func resetGlobals(w *raikou.World) {
	f := raikou.NewFilter[transform.GlobalTransform](w)
	for f.Next() {
		*f.Get() = transform.GlobalTransform{}
	}
}
