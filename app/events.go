package app

import (
	"errors"
	"time"
)

// ErrStagePanic wraps a panic recovered from a system or from applying the
// command buffer, such as a structural change on a locked world.
var ErrStagePanic = errors.New("app: panic in stage")

// FrameCompleted is published on App.Events after every successful frame.
type FrameCompleted struct {
	Frame    uint64
	Duration time.Duration
}

// FrameDropped is published on App.Events when a frame fails.
type FrameDropped struct {
	Frame uint64
	Err   error
}
