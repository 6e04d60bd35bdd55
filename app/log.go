package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/edwinsyarief/raikou"
)

// LogEnv overrides Config.LogLevel when set.
const LogEnv = "RAIKOU_LOG"

// NewLogger builds a slog logger writing to w in the configured format. The
// level comes from the RAIKOU_LOG environment variable if set, otherwise
// from cfg.LogLevel.
func NewLogger(cfg Config, w io.Writer) (*slog.Logger, error) {
	level := cfg.LogLevel
	if env, ok := os.LookupEnv(LogEnv); ok && env != "" {
		level = env
	}
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(cfg.LogFormat) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("app: log_format %q: want text or json", cfg.LogFormat)
	}
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return lvl, fmt.Errorf("app: log level %q: %w", s, err)
	}
	return lvl, nil
}

// LogPlugin replaces the App logger with one built by NewLogger and makes it
// the slog default. Completed frames are logged at debug level from the
// event bus.
type LogPlugin struct {
	// Output defaults to os.Stderr.
	Output io.Writer
}

// Build implements Plugin.
func (p LogPlugin) Build(a *App) error {
	out := p.Output
	if out == nil {
		out = os.Stderr
	}
	l, err := NewLogger(a.Config, out)
	if err != nil {
		return err
	}
	a.Logger = l
	slog.SetDefault(l)
	raikou.Subscribe(a.Events, func(e FrameCompleted) {
		l.Debug("frame", slog.Uint64("frame", e.Frame), slog.Duration("took", e.Duration))
	})
	return nil
}
