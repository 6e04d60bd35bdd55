package app

import (
	"context"
	"log/slog"
	"time"
)

// Runner schedules the frames of an App. It is called once, after Startup,
// and returns when the App should stop.
type Runner func(ctx context.Context, a *App) error

// OnceRunner steps a single frame.
func OnceRunner(ctx context.Context, a *App) error {
	return a.Step(ctx)
}

// LoopRunner steps frames until ctx is done or Config.MaxFrames frames have
// run (zero means no limit). A positive Config.FrameRate paces the loop.
//
// A failed frame is handled by Config.OnFrameError: Halt returns the error,
// Drop logs it and carries on with the next frame. Cancellation of ctx ends
// the loop without error.
func LoopRunner(ctx context.Context, a *App) error {
	cfg := a.Config
	var tick <-chan time.Time
	if cfg.FrameRate > 0 {
		t := time.NewTicker(time.Duration(float64(time.Second) / cfg.FrameRate))
		defer t.Stop()
		tick = t.C
	}
	for n := uint64(0); cfg.MaxFrames == 0 || n < cfg.MaxFrames; n++ {
		if ctx.Err() != nil {
			return nil
		}
		if tick != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		}
		if err := a.Step(ctx); err != nil {
			if cfg.OnFrameError != Drop {
				a.Logger.Error("frame failed, halting", slog.Uint64("frame", a.Frame()), slog.Any("err", err))
				return err
			}
			a.Logger.Warn("frame dropped", slog.Uint64("frame", a.Frame()), slog.Any("err", err))
		}
	}
	return nil
}
