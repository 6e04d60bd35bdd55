// Package transform holds the spatial components of raikou entities and the
// engine that turns parent-relative Position, Rotation and Scale into
// world-space GlobalTransform matrices every frame.
//
// A frame runs three steps, in order:
//
//  1. InsertMissing gives every entity that has one of Position, Rotation or
//     Scale the full set plus a GlobalTransform, through a command buffer.
//  2. Phase 1 composes each entity's own local transform in parallel,
//     ignoring the hierarchy. The result is final for roots.
//  3. Phase 2 walks every hierarchy root and rewrites each descendant as
//     parent GlobalTransform times local transform, fanning out across
//     subtrees.
//
// Both phases use Compose, so an entity without a parent ends up with the
// same bits whichever phase wrote it last.
package transform

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Position is the translation of an entity relative to its parent, or to the
// world for roots.
type Position struct {
	mgl32.Vec3
}

// NewPosition returns the position (x, y, z).
func NewPosition(x, y, z float32) Position {
	return Position{mgl32.Vec3{x, y, z}}
}

// Rotation is the orientation of an entity relative to its parent. It is
// expected to be a unit quaternion.
type Rotation struct {
	mgl32.Quat
}

// NewRotation normalizes q and wraps it.
func NewRotation(q mgl32.Quat) Rotation {
	return Rotation{q.Normalize()}
}

// IdentityRotation is the default rotation. The zero Rotation is not a valid
// orientation.
func IdentityRotation() Rotation {
	return Rotation{mgl32.QuatIdent()}
}

// RotationAxis returns a rotation of angle radians around axis.
func RotationAxis(angle float32, axis mgl32.Vec3) Rotation {
	return Rotation{mgl32.QuatRotate(angle, axis.Normalize())}
}

// Scale is the per-axis scale of an entity relative to its parent.
type Scale struct {
	mgl32.Vec3
}

// NewScale returns the scale (x, y, z).
func NewScale(x, y, z float32) Scale {
	return Scale{mgl32.Vec3{x, y, z}}
}

// UnitScale is the default scale. The zero Scale collapses everything to a
// point.
func UnitScale() Scale {
	return Scale{mgl32.Vec3{1, 1, 1}}
}

// GlobalTransform is the world-space matrix of an entity, column-major. It is
// written only by the propagation engine; everything else should treat it as
// read-only and look at it after the post-update stage.
type GlobalTransform struct {
	mgl32.Mat4
}

// IdentityGlobalTransform is the placeholder inserted by InsertMissing.
func IdentityGlobalTransform() GlobalTransform {
	return GlobalTransform{mgl32.Ident4()}
}

// Translation returns the world-space position encoded in g.
func (g GlobalTransform) Translation() mgl32.Vec3 {
	return mgl32.Vec3{g.Mat4[12], g.Mat4[13], g.Mat4[14]}
}

// Decompose splits g back into translation, rotation and scale. It assumes g
// has no shear, which holds for any product of Compose results with uniform
// or axis-aligned scale. A negative determinant is folded into the X scale.
func (g GlobalTransform) Decompose() (Position, Rotation, Scale) {
	m := g.Mat4
	s := mgl32.Vec3{m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len()}
	if m.Det() < 0 {
		s[0] = -s[0]
	}
	var r mgl32.Mat4
	for c := range 3 {
		if s[c] == 0 {
			return Position{g.Translation()}, IdentityRotation(), Scale{s}
		}
		for row := range 3 {
			r[c*4+row] = m[c*4+row] / s[c]
		}
	}
	r[15] = 1
	return Position{g.Translation()}, Rotation{mgl32.Mat4ToQuat(r).Normalize()}, Scale{s}
}

// Compose builds the local matrix of p, r and s: scale first, then rotate,
// then translate (T * R * S). Phase 1 and phase 2 both go through this
// function so their results agree bit for bit.
func Compose(p Position, r Rotation, s Scale) mgl32.Mat4 {
	m := r.Quat.Mat4()
	for c := range 3 {
		k := s.Vec3[c]
		m[c*4] *= k
		m[c*4+1] *= k
		m[c*4+2] *= k
	}
	m[12], m[13], m[14] = p.Vec3[0], p.Vec3[1], p.Vec3[2]
	return m
}

// FromPosition returns a GlobalTransform translated by p.
func FromPosition(p Position) GlobalTransform {
	return GlobalTransform{Compose(p, IdentityRotation(), UnitScale())}
}

// FromRotation returns a GlobalTransform rotated by r.
func FromRotation(r Rotation) GlobalTransform {
	return GlobalTransform{Compose(Position{}, r, UnitScale())}
}

// FromScale returns a GlobalTransform scaled by s.
func FromScale(s Scale) GlobalTransform {
	return GlobalTransform{Compose(Position{}, IdentityRotation(), s)}
}

// FromPositionRotation returns a GlobalTransform rotated by r then
// translated by p.
func FromPositionRotation(p Position, r Rotation) GlobalTransform {
	return GlobalTransform{Compose(p, r, UnitScale())}
}

// FromPositionScale returns a GlobalTransform scaled by s then translated by p.
func FromPositionScale(p Position, s Scale) GlobalTransform {
	return GlobalTransform{Compose(p, IdentityRotation(), s)}
}

// FromRotationScale returns a GlobalTransform scaled by s then rotated by r.
func FromRotationScale(r Rotation, s Scale) GlobalTransform {
	return GlobalTransform{Compose(Position{}, r, s)}
}

// FromPositionRotationScale returns the GlobalTransform an unparented entity
// with this local transform ends up with.
func FromPositionRotationScale(p Position, r Rotation, s Scale) GlobalTransform {
	return GlobalTransform{Compose(p, r, s)}
}
