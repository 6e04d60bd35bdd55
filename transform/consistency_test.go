package transform_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edwinsyarief/raikou"
	"github.com/edwinsyarief/raikou/transform"
)

type name struct{ S string }

func TestInsertMissing(t *testing.T) {
	w := raikou.NewWorld(16)
	onlyPos := w.CreateEntity()
	raikou.SetComponent(w, onlyPos, transform.NewPosition(1, 2, 3))
	onlyScale := w.CreateEntity()
	raikou.SetComponent(w, onlyScale, transform.NewScale(2, 2, 2))
	rotAndScale := w.CreateEntity()
	raikou.SetComponent(w, rotAndScale, transform.RotationAxis(1, mgl32.Vec3{0, 0, 1}))
	raikou.SetComponent(w, rotAndScale, transform.NewScale(3, 3, 3))
	complete := spawnAt(w, 0, 0, 0)
	plain := w.CreateEntity()
	raikou.SetComponent(w, plain, name{S: "not spatial"})
	empty := w.CreateEntity()

	cmds := raikou.NewCommands()
	assert.Equal(t, 3, transform.InsertMissing(w, cmds))
	assert.False(t, raikou.HasComponent[transform.GlobalTransform](w, onlyPos), "insertions are deferred")
	require.NoError(t, cmds.Apply(w))

	for _, e := range []raikou.Entity{onlyPos, onlyScale, rotAndScale, complete} {
		assert.True(t, raikou.HasComponent[transform.Position](w, e))
		assert.True(t, raikou.HasComponent[transform.Rotation](w, e))
		assert.True(t, raikou.HasComponent[transform.Scale](w, e))
		assert.True(t, raikou.HasComponent[transform.GlobalTransform](w, e))
	}
	assert.Equal(t, transform.NewPosition(1, 2, 3), *raikou.GetComponent[transform.Position](w, onlyPos))
	assert.Equal(t, transform.IdentityRotation(), *raikou.GetComponent[transform.Rotation](w, onlyPos))
	assert.Equal(t, transform.UnitScale(), *raikou.GetComponent[transform.Scale](w, onlyPos))
	assert.Equal(t, transform.IdentityGlobalTransform(), *raikou.GetComponent[transform.GlobalTransform](w, onlyPos))
	assert.Equal(t, transform.NewScale(2, 2, 2), *raikou.GetComponent[transform.Scale](w, onlyScale))
	assert.Equal(t, transform.Position{}, *raikou.GetComponent[transform.Position](w, onlyScale))
	assert.Equal(t, transform.NewScale(3, 3, 3), *raikou.GetComponent[transform.Scale](w, rotAndScale))

	for _, e := range []raikou.Entity{plain, empty} {
		assert.False(t, raikou.HasComponent[transform.Position](w, e))
		assert.False(t, raikou.HasComponent[transform.Rotation](w, e))
		assert.False(t, raikou.HasComponent[transform.Scale](w, e))
		assert.False(t, raikou.HasComponent[transform.GlobalTransform](w, e))
	}
	assert.Equal(t, "not spatial", raikou.GetComponent[name](w, plain).S)

	assert.Equal(t, 0, transform.InsertMissing(w, cmds), "second pass finds nothing")
	assert.Equal(t, 0, cmds.Len())
}

func TestInsertMissingKeepsLaterWrites(t *testing.T) {
	w := raikou.NewWorld(4)
	e := w.CreateEntity()
	raikou.SetComponent(w, e, transform.NewPosition(1, 1, 1))
	cmds := raikou.NewCommands()
	require.Equal(t, 1, transform.InsertMissing(w, cmds))

	// A value written before the buffer is applied wins over the default.
	rot := transform.RotationAxis(2, mgl32.Vec3{1, 0, 0})
	raikou.SetComponent(w, e, rot)
	require.NoError(t, cmds.Apply(w))
	assert.Equal(t, rot, *raikou.GetComponent[transform.Rotation](w, e))
}

func TestInsertMissingSkipsDespawned(t *testing.T) {
	w := raikou.NewWorld(4)
	e := w.CreateEntity()
	raikou.SetComponent(w, e, transform.UnitScale())
	cmds := raikou.NewCommands()
	transform.InsertMissing(w, cmds)
	w.RemoveEntity(e)
	assert.NoError(t, cmds.Apply(w))
	assert.Equal(t, 0, w.Len())
}

func TestInsertMissingMany(t *testing.T) {
	w := raikou.NewWorld(64)
	ents := raikou.NewBuilder[transform.Position](w).NewEntities(3 * raikou.ChunkSize)
	cmds := raikou.NewCommands()
	assert.Equal(t, len(ents), transform.InsertMissing(w, cmds))
	require.NoError(t, cmds.Apply(w))
	f := raikou.NewFilter4[transform.Position, transform.Rotation, transform.Scale, transform.GlobalTransform](w)
	assert.Equal(t, len(ents), f.Len())
}
