package main

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edwinsyarief/raikou"
	"github.com/edwinsyarief/raikou/app"
	"github.com/edwinsyarief/raikou/hierarchy"
	"github.com/edwinsyarief/raikou/transform"
)

func TestFlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raikou.toml")
	require.NoError(t, os.WriteFile(path, []byte("workers = 3\nmax_frames = 7\nlog_level = \"warn\"\n"), 0o644))

	var f rootFlags
	cmd := &cobra.Command{Use: "probe"}
	f.register(cmd.Flags())
	require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--workers", "5"}))

	cfg, err := f.loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Workers, "flag wins over the file")
	assert.Equal(t, uint64(7), cfg.MaxFrames, "file value kept when the flag is unset")
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadConfigRejectsBadFlag(t *testing.T) {
	var f rootFlags
	cmd := &cobra.Command{Use: "probe"}
	f.register(cmd.Flags())
	require.NoError(t, cmd.ParseFlags([]string{"--log-level", "loud"}))
	_, err := f.loadConfig(cmd)
	assert.Error(t, err)
}

func TestScene(t *testing.T) {
	a := app.New(app.DefaultConfig())
	require.NoError(t, a.AddPlugin(transform.Plugin{}))
	s, err := spawnScene(a.World)
	require.NoError(t, err)

	// Update inserts the missing GlobalTransforms and PostUpdate fills them.
	require.NoError(t, a.Step(context.Background()))

	g := raikou.GetComponent[transform.GlobalTransform](a.World, s.hand)
	require.NotNil(t, g)
	p := g.Translation()
	assert.InDelta(t, 3, p.X(), 1e-5)
	assert.InDelta(t, 5, p.Y(), 1e-5)
	assert.InDelta(t, 11.7, p.Z(), 1e-5)
}

func TestBobSystemMovesRoot(t *testing.T) {
	w := raikou.NewWorld(4)
	s, err := spawnScene(w)
	require.NoError(t, err)
	a := app.New(app.DefaultConfig())
	sys := bobSystem(&s, 2, 1)

	// bobSystem reads the frame clock from the world resources.
	w.Resources().Add(a.Time())
	require.NoError(t, sys(context.Background(), w, raikou.NewCommands()))
	assert.InDelta(t, 5, raikou.GetComponent[transform.Position](w, s.root).Y(), 1e-6)
}

func TestForestSnapshotDiff(t *testing.T) {
	w := raikou.NewWorld(64)
	n, err := buildForest(w, rand.New(rand.NewPCG(1, 2)), 3, 4)
	require.NoError(t, err)
	assert.Equal(t, 3*(1+2*4), n)
	require.NoError(t, hierarchy.Validate[hierarchy.Tree](w))
	assert.Len(t, hierarchy.Roots[hierarchy.Tree](w), 3)

	before := snapshot(w)
	assert.Zero(t, diff(before, snapshot(w)))
	resetGlobals(w)
	assert.Equal(t, n, diff(before, snapshot(w)))
}

func TestRunStress(t *testing.T) {
	cfg := app.DefaultConfig()
	cfg.Workers = 4
	cfg.LogLevel = "error"
	require.NoError(t, runStress(context.Background(), cfg, stressOptions{roots: 50, depth: 6, seed: 9, iterations: 3}))
}
