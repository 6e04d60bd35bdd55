package transform

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/edwinsyarief/raikou"
	"github.com/edwinsyarief/raikou/hierarchy"
)

// TracerName is the instrumentation name of the propagation spans.
const TracerName = "github.com/edwinsyarief/raikou/transform"

// Option configures a Propagator.
type Option func(*options)

type options struct {
	workers int
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// WithWorkers bounds the number of goroutines used by both phases. Values
// below one use one worker per CPU; one runs everything on the caller.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records every step on m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracer replaces the tracer obtained from the global otel provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// Propagator computes GlobalTransforms for one world and one relation tag T.
// It keeps its filters between frames, so it should be created once and run
// every frame. Run must not be called concurrently with itself or with
// structural changes to the world.
type Propagator[T any] struct {
	world   *raikou.World
	opts    options
	flat    *raikou.Filter4[Position, Rotation, Scale, GlobalTransform]
	roots   *raikou.Filter[hierarchy.Parent[T]]
	sp      spatial
	parents raikou.Accessor[hierarchy.Parent[T]]
	links   raikou.Accessor[hierarchy.Child[T]]
}

// NewPropagator creates a Propagator for w.
//
// Parameters:
//   - w: The World whose GlobalTransforms are computed.
//   - opts: Worker count, logger, metrics and tracer.
//
// Returns:
//   - A pointer to the newly created Propagator.
func NewPropagator[T any](w *raikou.World, opts ...Option) *Propagator[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(TracerName)
	}
	return &Propagator[T]{
		world:   w,
		opts:    o,
		flat:    raikou.NewFilter4[Position, Rotation, Scale, GlobalTransform](w),
		roots:   raikou.NewFilter[hierarchy.Parent[T]](w).Without(raikou.ComponentIDFor[hierarchy.Child[T]](w)),
		sp:      newSpatial(w),
		parents: raikou.NewAccessor[hierarchy.Parent[T]](w),
		links:   raikou.NewAccessor[hierarchy.Child[T]](w),
	}
}

// Run performs one propagation step: the flat pass over every complete
// spatial entity, then, once it has fully finished, the descent from every
// root of tag T.
//
// The step is not cancellable; ctx only carries tracing. On a broken
// hierarchy Run returns an *IntegrityError (which wraps ErrIntegrity) and the
// frame must be considered failed: some descendants may still hold their
// provisional values.
func (p *Propagator[T]) Run(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	ctx, span := p.opts.tracer.Start(ctx, "transform.Propagate")
	defer span.End()
	if m := p.opts.metrics; m != nil {
		m.Frames.Inc()
	}

	flat := p.runFlat(ctx)
	updated, roots, err := p.runHierarchical(ctx)
	span.SetAttributes(
		attribute.Int("entities.flat", flat),
		attribute.Int64("entities.hierarchical", updated),
		attribute.Int("roots", roots),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "hierarchy integrity violation")
		if m := p.opts.metrics; m != nil {
			m.IntegrityFailures.Inc()
		}
		var ie *IntegrityError
		if errors.As(err, &ie) {
			p.opts.logger.Error("transform propagation failed",
				slog.Any("entity", ie.Entity),
				slog.Any("parent", ie.Parent),
				slog.String("reason", ie.Reason))
		}
		return err
	}
	span.SetStatus(codes.Ok, "")
	p.opts.logger.Debug("transform propagation",
		slog.Int("flat", flat),
		slog.Int64("hierarchical", updated),
		slog.Int("roots", roots))
	return nil
}

// runFlat is phase 1. It returns the number of entities written.
func (p *Propagator[T]) runFlat(ctx context.Context) int {
	_, span := p.opts.tracer.Start(ctx, "transform.Flat")
	defer span.End()
	start := time.Now()

	n := p.flat.Len()
	p.flat.ParallelEach(p.opts.workers, func(_ raikou.Entity, pos *Position, rot *Rotation, scl *Scale, g *GlobalTransform) {
		g.Mat4 = Compose(*pos, *rot, *scl)
	})

	span.SetAttributes(attribute.Int("entities", n))
	p.observe(PhaseFlat, start, n)
	return n
}

// runHierarchical is phase 2. It returns the number of descendants written
// and the number of roots walked.
func (p *Propagator[T]) runHierarchical(ctx context.Context) (int64, int, error) {
	ctx, span := p.opts.tracer.Start(ctx, "transform.Hierarchical")
	defer span.End()
	start := time.Now()

	w := p.world
	roots := p.roots.Entities()
	if m := p.opts.metrics; m != nil {
		m.Roots.Set(float64(len(roots)))
	}
	w.Lock()
	defer w.Unlock()

	var updated atomic.Int64
	d := &descent[T]{p: p, updated: &updated, maxDepth: w.Len()}
	workers := raikou.Workers(p.opts.workers)
	var err error
	if workers == 1 {
		for _, r := range roots {
			if err = d.walk(ctx, r, p.basis(r), 0); err != nil {
				break
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		d.group, d.ctx = g, gctx
		for _, r := range roots {
			basis := p.basis(r)
			g.Go(func() error { return d.walk(gctx, r, basis, 0) })
		}
		err = g.Wait()
	}

	n := updated.Load()
	span.SetAttributes(attribute.Int("roots", len(roots)), attribute.Int64("entities", n))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	p.observe(PhaseHierarchical, start, int(n))
	return n, len(roots), err
}

// basis returns the matrix a root hands to its children: its own
// GlobalTransform, or the identity for a root without one.
func (p *Propagator[T]) basis(root raikou.Entity) mgl32.Mat4 {
	if g := p.sp.global.Get(root); g != nil {
		return g.Mat4
	}
	return mgl32.Ident4()
}

func (p *Propagator[T]) observe(phase string, start time.Time, n int) {
	m := p.opts.metrics
	if m == nil {
		return
	}
	m.PhaseDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
	m.Entities.WithLabelValues(phase).Add(float64(n))
}

// descent is the shared state of one phase 2 walk. group is nil when the
// walk runs on a single goroutine.
type descent[T any] struct {
	p        *Propagator[T]
	group    *errgroup.Group
	ctx      context.Context
	updated  *atomic.Int64
	maxDepth int
}

type branch struct {
	e     raikou.Entity
	basis mgl32.Mat4
}

// walk writes the GlobalTransform of every child of parent from basis, the
// parent's finalized matrix, then descends into the children that are
// parents themselves. Each child is written by exactly one walk, the one of
// its parent, and only after that parent was written.
func (d *descent[T]) walk(ctx context.Context, parent raikou.Entity, basis mgl32.Mat4, depth int) error {
	if ctx.Err() != nil {
		// A sibling branch failed; its error is the one reported.
		return nil
	}
	if depth > d.maxDepth {
		return &IntegrityError{Entity: parent, Reason: reasonTooDeep}
	}
	p := d.p
	rec := p.parents.Get(parent)
	if rec == nil {
		return &IntegrityError{Entity: parent, Reason: reasonDangling}
	}

	var next []branch
	visited := 0
	for c := rec.LastChild(); !c.IsZero(); visited++ {
		if visited >= rec.NumChildren() {
			return &IntegrityError{Entity: c, Parent: parent, Reason: reasonChainTooLong}
		}
		link := p.links.Get(c)
		if link == nil {
			return &IntegrityError{Entity: c, Parent: parent, Reason: reasonDangling}
		}
		if link.Parent() != parent {
			return &IntegrityError{Entity: c, Parent: parent, Reason: reasonWrongParent}
		}

		m := basis
		if local, ok := p.sp.local(c); ok {
			m = basis.Mul4(local)
		}
		if g := p.sp.global.Get(c); g != nil {
			g.Mat4 = m
		}
		if p.parents.Has(c) {
			next = append(next, branch{e: c, basis: m})
		}
		c = link.Prev()
	}
	if visited != rec.NumChildren() {
		return &IntegrityError{Entity: parent, Parent: parent, Reason: reasonChainShort}
	}
	d.updated.Add(int64(visited))

	for _, b := range next {
		if d.group != nil && d.group.TryGo(func() error { return d.walk(d.ctx, b.e, b.basis, depth+1) }) {
			continue
		}
		// Pool saturated (or serial walk): descend on this goroutine.
		if err := d.walk(ctx, b.e, b.basis, depth+1); err != nil {
			return err
		}
	}
	return nil
}
