// Package app drives raikou worlds frame by frame.
//
// An App owns a World, a command buffer and an event bus, and runs
// systems in four stages: Startup once, then PreUpdate, Update and
// PostUpdate every frame. The command buffer is applied after each stage,
// which makes stage boundaries the synchronization points for structural
// changes. Plugins bundle systems and resources; a Runner decides how
// frames are scheduled.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/edwinsyarief/raikou"
)

// Stage identifies when a system runs.
type Stage int

const (
	// Startup systems run once, before the first frame.
	Startup Stage = iota
	// PreUpdate systems run first in every frame.
	PreUpdate
	// Update holds the application logic.
	Update
	// PostUpdate systems see the result of Update; transform propagation
	// runs here.
	PostUpdate

	numStages
)

var stageNames = [numStages]string{"startup", "pre_update", "update", "post_update"}

func (s Stage) String() string {
	if s < 0 || s >= numStages {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// System is one unit of frame logic. Structural changes must go through cmds;
// they are applied when the stage ends. A returned error fails the frame.
type System func(ctx context.Context, w *raikou.World, cmds *raikou.Commands) error

// Plugin adds systems, resources or subscriptions to an App.
type Plugin interface {
	Build(a *App) error
}

// PluginFunc adapts a function to Plugin.
type PluginFunc func(a *App) error

// Build calls f(a).
func (f PluginFunc) Build(a *App) error { return f(a) }

type namedSystem struct {
	name string
	run  System
}

// App is a world plus the schedule that updates it. It is not safe for
// concurrent use: one goroutine drives it, systems fan out internally.
type App struct {
	World    *raikou.World
	Commands *raikou.Commands
	Events   *raikou.EventBus
	Logger   *slog.Logger
	Config   Config

	stages  [numStages][]namedSystem
	runner  Runner
	clock   func() time.Time
	time    *Time
	started bool
	frame   uint64
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the App logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.Logger = l }
}

// WithClock replaces time.Now, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.clock = now }
}

// WithRunner sets the frame scheduler. The default is LoopRunner.
func WithRunner(r Runner) Option {
	return func(a *App) { a.runner = r }
}

// New creates an App with an empty world sized by cfg.InitialCapacity. The
// Time resource is added to the world.
func New(cfg Config, opts ...Option) *App {
	a := &App{
		World:    raikou.NewWorld(cfg.InitialCapacity),
		Commands: raikou.NewCommands(),
		Events:   &raikou.EventBus{},
		Logger:   slog.Default(),
		Config:   cfg,
		runner:   LoopRunner,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.time = newTime(a.clock())
	a.World.Resources().Add(a.time)
	return a
}

// AddSystem appends sys to stage. Systems of a stage run in the order they
// were added.
func (a *App) AddSystem(stage Stage, name string, sys System) *App {
	if stage < 0 || stage >= numStages {
		panic("app: unknown stage " + stage.String())
	}
	a.stages[stage] = append(a.stages[stage], namedSystem{name: name, run: sys})
	return a
}

// AddPlugin builds p into the App immediately.
func (a *App) AddPlugin(p Plugin) error {
	if err := p.Build(a); err != nil {
		return fmt.Errorf("app: build plugin %T: %w", p, err)
	}
	return nil
}

// Frame returns the number of frames stepped so far, dropped ones included.
func (a *App) Frame() uint64 {
	return a.frame
}

// Time returns the frame clock.
func (a *App) Time() *Time {
	return a.time
}

// Startup runs the Startup stage. It runs at most once; later calls return
// nil without doing anything.
func (a *App) Startup(ctx context.Context) error {
	if a.started {
		return nil
	}
	a.started = true
	if err := a.runStage(ctx, Startup); err != nil {
		return fmt.Errorf("app: startup: %w", err)
	}
	a.Logger.Debug("startup complete", slog.Int("entities", a.World.Len()))
	return nil
}

// Step runs one frame: PreUpdate, Update and PostUpdate, applying the
// command buffer after each. The first failing stage ends the frame; its
// error is returned wrapped with the stage and system name, and pending
// commands of the failed stage are discarded. Step publishes FrameCompleted
// or FrameDropped on the event bus.
func (a *App) Step(ctx context.Context) error {
	if !a.started {
		if err := a.Startup(ctx); err != nil {
			return err
		}
	}
	a.frame++
	a.time.advance(a.clock(), a.frame)
	start := time.Now()
	for s := PreUpdate; s < numStages; s++ {
		if err := a.runStage(ctx, s); err != nil {
			err = fmt.Errorf("app: frame %d: %w", a.frame, err)
			raikou.Publish(a.Events, FrameDropped{Frame: a.frame, Err: err})
			return err
		}
	}
	raikou.Publish(a.Events, FrameCompleted{Frame: a.frame, Duration: time.Since(start)})
	return nil
}

// Run starts the App with its Runner and blocks until the runner returns.
// Startup failures are fatal and returned as is.
func (a *App) Run(ctx context.Context) error {
	if err := a.Startup(ctx); err != nil {
		return err
	}
	return a.runner(ctx, a)
}

func (a *App) runStage(ctx context.Context, s Stage) error {
	for _, sys := range a.stages[s] {
		if err := a.runSystem(ctx, sys); err != nil {
			a.Commands.Clear()
			return fmt.Errorf("%s/%s: %w", s, sys.name, err)
		}
	}
	if err := a.applyCommands(); err != nil {
		return fmt.Errorf("%s: apply commands: %w", s, err)
	}
	return nil
}

// runSystem turns a panic in a system into an ErrStagePanic error so that
// the frame policy decides what happens.
func (a *App) runSystem(ctx context.Context, sys namedSystem) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrStagePanic, r)
		}
	}()
	return sys.run(ctx, a.World, a.Commands)
}

func (a *App) applyCommands() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrStagePanic, r)
		}
	}()
	return a.Commands.Apply(a.World)
}
