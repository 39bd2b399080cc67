// Package analytics implements set comparison, aggregation, hotspot detection,
// component partitioning and distance matching over cached cellsets.
//
// Every operation follows the same flow: resolve the referenced cellsets,
// compute, optionally store derived sets in the cache, then sample lists for
// presentation. Spatial math is delegated to a mapper.Engine.
package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/mohammed-shakir/h3-cellset-analytics/internal/cache/keys"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/cellset"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/apperr"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/observability"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/mapper"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/output"
)

type Engine struct {
	cellsets *cellset.Resolver
	geom     mapper.Engine
	coverer  mapper.Interface
	sampler  output.Sampler
	logger   *slog.Logger

	handleLogRate float64
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithSampler(s output.Sampler) Option {
	return func(e *Engine) { e.sampler = s }
}

// WithCoverer enables Cover. Without it Cover fails with a configuration error.
func WithCoverer(c mapper.Interface) Option {
	return func(e *Engine) { e.coverer = c }
}

// WithHandleLogRate sets the fraction of stored handles that get a debug line.
func WithHandleLogRate(rate float64) Option {
	return func(e *Engine) { e.handleLogRate = rate }
}

func New(resolver *cellset.Resolver, geom mapper.Engine, opts ...Option) *Engine {
	e := &Engine{
		cellsets: resolver,
		geom:     geom,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// observe records the outcome of op. Call as defer e.observe(ctx, op, time.Now(), &err).
func (e *Engine) observe(ctx context.Context, op string, start time.Time, errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	took := time.Since(start)
	observability.ObserveOp(op, err, took.Seconds())
	if err != nil {
		e.logger.DebugContext(ctx, "analytics op failed",
			"operation", op,
			"kind", apperr.Kind(err),
			"err", err,
		)
		return
	}
	e.logger.DebugContext(ctx, "analytics op",
		"operation", op,
		"duration_ms", took.Milliseconds(),
	)
}

// store saves s unless it is empty and returns its handle ("" when empty).
func (e *Engine) store(ctx context.Context, op string, s cellset.Cellset) string {
	h := e.cellsets.SaveNonEmpty(s)
	if h != "" && keys.ShouldSample(e.handleLogRate, h) {
		e.logger.DebugContext(ctx, "cellset stored",
			"operation", op,
			"handle", h,
			"fp", keys.Fingerprint(h),
			"cells", s.Len(),
		)
	}
	return h
}

// uniformResolution returns the one resolution shared by every cell.
// It returns -1 for an empty input.
func (e *Engine) uniformResolution(cells []string) (int, error) {
	res := -1
	for _, c := range cells {
		r, err := e.geom.Resolution(c)
		if err != nil {
			return 0, geomErr(err)
		}
		switch {
		case res == -1:
			res = r
		case r != res:
			return 0, apperr.Mismatch("all input cells must share the same resolution (found %d and %d)", res, r)
		}
	}
	return res, nil
}

func geomErr(err error) error {
	return apperr.Invalid("%v", err)
}
