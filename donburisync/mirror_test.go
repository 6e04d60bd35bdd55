package donburisync_test

import (
	"context"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"

	"github.com/edwinsyarief/raikou"
	"github.com/edwinsyarief/raikou/app"
	"github.com/edwinsyarief/raikou/donburisync"
	"github.com/edwinsyarief/raikou/hierarchy"
	"github.com/edwinsyarief/raikou/transform"
)

func TestSync(t *testing.T) {
	src := raikou.NewWorld(8)
	dst := donburi.NewWorld()
	m := donburisync.NewMirror(src, dst)

	a := src.CreateEntity()
	raikou.SetComponent(src, a, transform.FromPosition(transform.NewPosition(1, 2, 3)))
	b := src.CreateEntity()
	raikou.SetComponent(src, b, transform.IdentityGlobalTransform())
	src.CreateEntity() // no transform, not mirrored

	var got []donburisync.Synced
	donburisync.SyncedEvent.Subscribe(dst, func(_ donburi.World, e donburisync.Synced) {
		got = append(got, e)
	})

	assert.Equal(t, 2, m.Sync(1))
	assert.Equal(t, 2, m.Len())
	da, ok := m.Lookup(a)
	require.True(t, ok)
	entry := dst.Entry(da)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, donburisync.PoseComponent.Get(entry).Position())
	assert.Equal(t, a, donburisync.SourceComponent.Get(entry).Entity)

	// Updates land on the same mirror entity; removed sources lose theirs.
	raikou.GetComponent[transform.GlobalTransform](src, a).Mat4 = mgl32.Translate3D(7, 0, 0)
	src.RemoveEntity(b)
	db, _ := m.Lookup(b)
	assert.Equal(t, 1, m.Sync(2))
	da2, _ := m.Lookup(a)
	assert.Equal(t, da, da2)
	assert.Equal(t, float32(7), donburisync.PoseComponent.Get(dst.Entry(da)).Position().X())
	assert.False(t, dst.Valid(db))
	_, ok = m.Lookup(b)
	assert.False(t, ok)

	events.ProcessAllEvents(dst)
	assert.Equal(t, []donburisync.Synced{
		{Frame: 1, Mirrored: 2},
		{Frame: 2, Mirrored: 1, Removed: 1},
	}, got)
}

func TestPluginMirrorsPropagatedFrame(t *testing.T) {
	a := app.New(app.DefaultConfig())
	m := donburisync.NewMirror(a.World, donburi.NewWorld())
	var frames []uint64
	donburisync.SyncedEvent.Subscribe(m.World(), func(_ donburi.World, e donburisync.Synced) {
		frames = append(frames, e.Frame)
	})

	w := a.World
	root := w.CreateEntity()
	raikou.SetComponent(w, root, transform.NewPosition(0, 10, 0))
	child := w.CreateEntity()
	raikou.SetComponent(w, child, transform.NewPosition(1, 0, 0))
	require.NoError(t, hierarchy.Attach[hierarchy.Tree](w, child, root))

	require.NoError(t, a.AddPlugin(transform.Plugin{}))
	require.NoError(t, a.AddPlugin(m.Plugin()))
	require.NoError(t, a.Step(context.Background()))

	dc, ok := m.Lookup(child)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{1, 10, 0}, donburisync.PoseComponent.Get(m.World().Entry(dc)).Position())
	assert.Equal(t, []uint64{1}, frames)
}
