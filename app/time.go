package app

import (
	"fmt"
	"time"
)

// Time is the frame clock. The App stores it as a world resource and
// advances it at the start of every frame, before PreUpdate.
type Time struct {
	startup time.Time
	last    time.Time
	delta   time.Duration
	frame   uint64
}

func newTime(now time.Time) *Time {
	return &Time{startup: now, last: now}
}

func (t *Time) advance(now time.Time, frame uint64) {
	t.delta = now.Sub(t.last)
	t.last = now
	t.frame = frame
}

// Delta returns the time between the start of the previous frame and the
// start of this one. It is zero before the first frame.
func (t *Time) Delta() time.Duration { return t.delta }

// DeltaSeconds returns Delta in seconds.
func (t *Time) DeltaSeconds() float32 { return float32(t.delta.Seconds()) }

// SinceStartup returns the time between App creation and the start of the
// current frame.
func (t *Time) SinceStartup() time.Duration { return t.last.Sub(t.startup) }

// SecondsSinceStartup returns SinceStartup in seconds.
func (t *Time) SecondsSinceStartup() float64 { return t.SinceStartup().Seconds() }

// Frame returns the number of the current frame, starting at 1.
func (t *Time) Frame() uint64 { return t.frame }

func (t *Time) String() string {
	return fmt.Sprintf("Time: %.3fs, frame %d", t.SecondsSinceStartup(), t.frame)
}
