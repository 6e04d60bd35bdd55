package raikou

import "errors"

// ErrWorldLocked is raised when a structural change is attempted while a
// parallel pass holds the world. Structural changes made during such a pass
// must be recorded on a Commands buffer.
var ErrWorldLocked = errors.New("ecs: structural change while world is locked")

// ErrInvalidEntity is returned by deferred commands that target an entity
// which is no longer alive when the buffer is applied.
var ErrInvalidEntity = errors.New("ecs: invalid entity")
