package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/edwinsyarief/raikou/app"
)

type rootFlags struct {
	config      string
	workers     int
	frames      uint64
	metricsAddr string
	logLevel    string
}

func newRootCmd() *cobra.Command {
	var f rootFlags
	cmd := &cobra.Command{
		Use:          "raikou",
		Short:        "Scene graph transform propagation scenarios",
		SilenceUsage: true,
	}
	f.register(cmd.PersistentFlags())
	cmd.AddCommand(newDemoCmd(&f), newStressCmd(&f))
	return cmd
}

func (f *rootFlags) register(pf *pflag.FlagSet) {
	pf.StringVarP(&f.config, "config", "c", "", "TOML or YAML config file")
	pf.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = one per CPU)")
	pf.Uint64Var(&f.frames, "frames", 0, "number of frames to run (0 = command default)")
	pf.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	pf.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
}

// loadConfig reads the config file, if any, and applies the flags the user
// set explicitly on top of it.
func (f *rootFlags) loadConfig(cmd *cobra.Command) (app.Config, error) {
	cfg := app.DefaultConfig()
	if f.config != "" {
		var err error
		if cfg, err = app.LoadConfig(f.config); err != nil {
			return cfg, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = f.workers
	}
	if flags.Changed("frames") {
		cfg.MaxFrames = f.frames
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = f.metricsAddr
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	return cfg, cfg.Validate()
}

// serveMetrics exposes reg on addr/metrics until ctx is done. An empty addr
// disables the endpoint.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log *slog.Logger) (stop func(), err error) {
	if addr == "" {
		return func() {}, nil
	}
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", slog.Any("err", err))
		}
	}()
	log.Info("serving metrics", slog.String("addr", ln.Addr().String()))
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}
