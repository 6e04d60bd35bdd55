package app_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edwinsyarief/raikou/app"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigTOML(t *testing.T) {
	path := writeFile(t, "raikou.toml", `
workers = 6
log_level = "debug"
log_format = "json"
max_frames = 120
frame_rate = 60.0
on_frame_error = "drop"
metrics_addr = ":9464"
initial_capacity = 4096
`)
	cfg, err := app.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, app.Config{
		Workers:         6,
		LogLevel:        "debug",
		LogFormat:       "json",
		MaxFrames:       120,
		FrameRate:       60,
		OnFrameError:    app.Drop,
		MetricsAddr:     ":9464",
		InitialCapacity: 4096,
	}, cfg)
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeFile(t, "raikou.yaml", "workers: 2\nmax_frames: 10\n")
	cfg, err := app.LoadConfig(path)
	require.NoError(t, err)
	want := app.DefaultConfig()
	want.Workers = 2
	want.MaxFrames = 10
	assert.Equal(t, want, cfg)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := app.LoadConfig(writeFile(t, "raikou.json", "{}"))
	assert.ErrorIs(t, err, app.ErrUnknownConfigFormat)

	_, err = app.LoadConfig(writeFile(t, "bad.toml", "workers = 'many'"))
	assert.Error(t, err)

	_, err = app.LoadConfig(writeFile(t, "extra.yml", "frames_per_minute: 3\n"))
	assert.Error(t, err, "unknown keys are rejected")

	_, err = app.LoadConfig(writeFile(t, "policy.toml", `on_frame_error = "retry"`))
	assert.ErrorContains(t, err, "on_frame_error")

	_, err = app.LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	require.NoError(t, app.DefaultConfig().Validate())
	for name, mutate := range map[string]func(*app.Config){
		"format":   func(c *app.Config) { c.LogFormat = "xml" },
		"level":    func(c *app.Config) { c.LogLevel = "loud" },
		"rate":     func(c *app.Config) { c.FrameRate = -1 },
		"capacity": func(c *app.Config) { c.InitialCapacity = -5 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := app.DefaultConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := app.DefaultConfig()
	cfg.LogFormat = "json"
	t.Setenv(app.LogEnv, "")
	l, err := app.NewLogger(cfg, &buf)
	require.NoError(t, err)
	l.Debug("hidden")
	l.Info("shown", "k", 1)
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)

	t.Setenv(app.LogEnv, "debug")
	buf.Reset()
	l, err = app.NewLogger(cfg, &buf)
	require.NoError(t, err)
	l.Debug("visible now")
	assert.Contains(t, buf.String(), "visible now")

	t.Setenv(app.LogEnv, "chatty")
	_, err = app.NewLogger(cfg, &buf)
	assert.Error(t, err)
}

func TestLogPlugin(t *testing.T) {
	t.Setenv(app.LogEnv, "debug")
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	var buf bytes.Buffer
	a := app.New(app.DefaultConfig())
	require.NoError(t, a.AddPlugin(app.LogPlugin{Output: &buf}))
	require.NoError(t, a.Step(context.Background()))
	assert.True(t, strings.Contains(buf.String(), "frame=1"), buf.String())
}
