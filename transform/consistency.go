package transform

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/edwinsyarief/raikou"
)

// InsertMissing queues, on cmds, every component a spatial entity lacks:
// Position (zero), Rotation (identity), Scale (one) and GlobalTransform
// (identity). An entity is spatial when it has at least one of Position,
// Rotation or Scale; nothing else is touched. The world is only read; the
// insertions land when cmds is applied, and they never overwrite a value
// that exists by then.
//
// Parameters:
//   - w: The World to scan.
//   - cmds: The buffer receiving the insertions.
//
// Returns:
//   - The number of entities that were missing at least one component.
func InsertMissing(w *raikou.World, cmds *raikou.Commands) int {
	s := newSpatial(w)
	positionID, rotationID := s.pos.ID(), s.rot.ID()
	// The three filters partition the spatial entities: each entity is
	// visited once, by the first of Position, Rotation, Scale it carries.
	withPosition := raikou.NewFilter[Position](w)
	withRotation := raikou.NewFilter[Rotation](w).Without(positionID)
	withScale := raikou.NewFilter[Scale](w).Without(positionID, rotationID)

	repaired := 0
	for _, e := range withPosition.Entities() {
		repaired += s.repair(cmds, e)
	}
	for _, e := range withRotation.Entities() {
		repaired += s.repair(cmds, e)
	}
	for _, e := range withScale.Entities() {
		repaired += s.repair(cmds, e)
	}
	return repaired
}

// spatial bundles the accessors of the four spatial components.
type spatial struct {
	pos    raikou.Accessor[Position]
	rot    raikou.Accessor[Rotation]
	scl    raikou.Accessor[Scale]
	global raikou.Accessor[GlobalTransform]
}

func newSpatial(w *raikou.World) spatial {
	return spatial{
		pos:    raikou.NewAccessor[Position](w),
		rot:    raikou.NewAccessor[Rotation](w),
		scl:    raikou.NewAccessor[Scale](w),
		global: raikou.NewAccessor[GlobalTransform](w),
	}
}

// repair queues the missing components of e and reports 1 if any were
// missing.
func (s spatial) repair(cmds *raikou.Commands, e raikou.Entity) int {
	missing := 0
	if !s.pos.Has(e) {
		raikou.InsertIfMissing(cmds, e, Position{})
		missing++
	}
	if !s.rot.Has(e) {
		raikou.InsertIfMissing(cmds, e, IdentityRotation())
		missing++
	}
	if !s.scl.Has(e) {
		raikou.InsertIfMissing(cmds, e, UnitScale())
		missing++
	}
	if !s.global.Has(e) {
		raikou.InsertIfMissing(cmds, e, IdentityGlobalTransform())
		missing++
	}
	if missing > 0 {
		return 1
	}
	return 0
}

// local returns the local matrix of e. Missing components count as their
// defaults; ok is false when e has none of the three, in which case the
// entity contributes nothing to its descendants.
func (s spatial) local(e raikou.Entity) (m mgl32.Mat4, ok bool) {
	p, r, sc := s.pos.Get(e), s.rot.Get(e), s.scl.Get(e)
	if p == nil && r == nil && sc == nil {
		return m, false
	}
	pos, rot, scl := Position{}, IdentityRotation(), UnitScale()
	if p != nil {
		pos = *p
	}
	if r != nil {
		rot = *r
	}
	if sc != nil {
		scl = *sc
	}
	return Compose(pos, rot, scl), true
}
