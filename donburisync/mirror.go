// Package donburisync mirrors finalized raikou GlobalTransforms into a
// donburi world, for renderers and tools built on donburi.
//
// Every Sync copies the GlobalTransform of each raikou entity into a donburi
// entity carrying Pose and Source, creates mirror entities for new sources,
// removes the mirrors of sources that disappeared, and publishes a Synced
// event on the donburi world.
package donburisync

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"

	"github.com/edwinsyarief/raikou"
	"github.com/edwinsyarief/raikou/app"
	"github.com/edwinsyarief/raikou/transform"
)

// Pose is the mirrored world matrix.
type Pose struct {
	Matrix mgl32.Mat4
}

// Position returns the world-space translation of the pose.
func (p Pose) Position() mgl32.Vec3 {
	return mgl32.Vec3{p.Matrix[12], p.Matrix[13], p.Matrix[14]}
}

// Source records which raikou entity a mirror entity follows.
type Source struct {
	Entity raikou.Entity
}

// Synced is published on the donburi world after every Sync.
type Synced struct {
	Frame    uint64
	Mirrored int
	Removed  int
}

var (
	// PoseComponent holds the mirrored GlobalTransform.
	PoseComponent = donburi.NewComponentType[Pose]()
	// SourceComponent holds the raikou handle.
	SourceComponent = donburi.NewComponentType[Source]()
	// SyncedEvent is published after every Sync. Subscribe with
	// SyncedEvent.Subscribe and drain with events.ProcessAllEvents.
	SyncedEvent = events.NewEventType[Synced]()
)

type mirrored struct {
	entity donburi.Entity
	gen    uint64
}

// Mirror keeps a donburi world in step with the GlobalTransforms of a raikou
// world. It is not safe for concurrent use and must not run while the raikou
// world is being propagated.
type Mirror struct {
	src     *raikou.World
	dst     donburi.World
	globals *raikou.Filter[transform.GlobalTransform]
	byEnt   map[raikou.Entity]mirrored
	gen     uint64
}

// NewMirror creates a Mirror from src into dst.
func NewMirror(src *raikou.World, dst donburi.World) *Mirror {
	return &Mirror{
		src:     src,
		dst:     dst,
		globals: raikou.NewFilter[transform.GlobalTransform](src),
		byEnt:   make(map[raikou.Entity]mirrored),
	}
}

// World returns the donburi world being written.
func (m *Mirror) World() donburi.World {
	return m.dst
}

// Lookup returns the mirror entity of e.
func (m *Mirror) Lookup(e raikou.Entity) (donburi.Entity, bool) {
	mr, ok := m.byEnt[e]
	return mr.entity, ok
}

// Len returns the number of mirrored entities.
func (m *Mirror) Len() int {
	return len(m.byEnt)
}

// Sync copies every GlobalTransform and publishes Synced tagged with frame.
// It returns the number of entities mirrored.
func (m *Mirror) Sync(frame uint64) int {
	m.gen++
	n := 0
	for m.globals.Reset(); m.globals.Next(); n++ {
		e, g := m.globals.Entity(), m.globals.Get()
		mr, ok := m.byEnt[e]
		if !ok || !m.dst.Valid(mr.entity) {
			mr.entity = m.dst.Create(PoseComponent, SourceComponent)
			SourceComponent.SetValue(m.dst.Entry(mr.entity), Source{Entity: e})
		}
		mr.gen = m.gen
		m.byEnt[e] = mr
		PoseComponent.SetValue(m.dst.Entry(mr.entity), Pose{Matrix: g.Mat4})
	}
	removed := 0
	for e, mr := range m.byEnt {
		if mr.gen == m.gen {
			continue
		}
		if m.dst.Valid(mr.entity) {
			m.dst.Remove(mr.entity)
		}
		delete(m.byEnt, e)
		removed++
	}
	SyncedEvent.Publish(m.dst, Synced{Frame: frame, Mirrored: n, Removed: removed})
	return n
}

// Plugin syncs the mirror after every completed frame of an App and then
// delivers the pending donburi events.
func (m *Mirror) Plugin() app.Plugin {
	return app.PluginFunc(func(a *app.App) error {
		raikou.Subscribe(a.Events, func(e app.FrameCompleted) {
			m.Sync(e.Frame)
			events.ProcessAllEvents(m.dst)
		})
		return nil
	})
}
