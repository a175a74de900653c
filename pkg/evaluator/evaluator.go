// Package evaluator maps every row of an input table through a row
// transform and collects the results into an output table.
//
// # Overview
//
// A batch runs in two phases. The map phase calls the transform once per
// row, either on the calling goroutine or on a worker pool scoped to the
// call, and keeps each outcome in a RowResult slot owned by that row. The
// merge phase then walks the slots in index order on a single goroutine,
// recording failures and writing fields through a drop-set aware row
// writer. Output row i therefore always corresponds to input row i, and
// output columns appear in first-write order across rows.
//
// A transform error or panic fails only its row. The batch as a whole
// fails only for structural problems found before any row is dispatched,
// or when the context is cancelled.
//
// # Basic Usage
//
//	ev, err := evaluator.New(evaluator.Config{
//	    Name:        "scorer",
//	    Parallelism: evaluator.Bounded(8),
//	    DropColumns: []string{"debug"},
//	}, transform, logger)
//
//	out, err := ev.EvaluateAll(ctx, in)
package evaluator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/tabeval/pkg/errors"
	"github.com/ajitpratap0/tabeval/pkg/logger"
	"github.com/ajitpratap0/tabeval/pkg/metrics"
	"github.com/ajitpratap0/tabeval/pkg/observability"
	"github.com/ajitpratap0/tabeval/pkg/table"
)

// RowResult is the outcome of one row: either Fields or Err is set.
type RowResult struct {
	Index  int
	Fields *table.Values
	Err    error
}

// Evaluator runs batches through one transform.
type Evaluator struct {
	cfg       Config
	transform Transform
	drop      table.DropSet
	logger    *zap.Logger
	metrics   *metrics.BatchMetrics
	tracer    trace.Tracer
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithMetrics records batch metrics on m.
func WithMetrics(m *metrics.BatchMetrics) Option {
	return func(e *Evaluator) { e.metrics = m }
}

// WithTracer records one span per batch on tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Evaluator) { e.tracer = tracer }
}

// New creates an evaluator. A nil logger disables logging.
func New(cfg Config, transform Transform, log *zap.Logger, opts ...Option) (*Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if transform == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "row transform is required")
	}

	e := &Evaluator{
		cfg:       cfg,
		transform: transform,
		drop:      table.NewDropSet(cfg.DropColumns...),
		logger:    logger.OrNop(log),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the evaluator configuration.
func (e *Evaluator) Config() Config { return e.cfg }

// DropSet returns the columns suppressed from every output.
func (e *Evaluator) DropSet() table.DropSet { return e.drop }

// EvaluateAll evaluates every row of in and returns a canonical table with
// the same row count. Rows whose transform failed have no output values
// and a failure at their index; a batch in which no row failed carries no
// failures at all.
func (e *Evaluator) EvaluateAll(ctx context.Context, in *table.Table) (out *table.Table, err error) {
	if in == nil {
		return nil, errors.NewSchemaError("input table is nil")
	}

	batchID := uuid.NewString()
	ctx = logger.WithEvaluator(logger.WithBatchID(ctx, batchID), e.cfg.Name)
	log := logger.WithContext(ctx, e.logger)

	ctx, span := observability.StartSpan(ctx, e.tracer, "evaluator.EvaluateAll")
	timer := e.metrics.BatchStarted(e.cfg.Name)

	rows := in.RowCount()
	failed := 0
	defer func() {
		elapsed := e.metrics.BatchFinished(timer, e.cfg.Parallelism.label(), rows, failed, err)

		span.SetAttribute("batch.id", batchID)
		span.SetAttribute("batch.rows", rows)
		span.SetAttribute("batch.failed", failed)
		span.SetAttribute("batch.parallelism", e.cfg.Parallelism.String())
		span.End(err)

		if err != nil {
			log.Error("batch aborted", zap.Error(err), zap.Duration("duration", elapsed))
			return
		}
		log.Info("batch evaluated",
			zap.Int("rows", rows),
			zap.Int("failed", failed),
			zap.Int("columns", out.ColumnCount()),
			zap.String("parallelism", e.cfg.Parallelism.String()),
			zap.Duration("duration", elapsed))
	}()

	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "batch cancelled before dispatch")
	}

	results, err := e.mapRows(ctx, in, rows)
	if err != nil {
		return nil, err
	}

	out, failed, err = e.merge(results, rows)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if r.Err != nil {
			log.Debug("row failed", zap.Int("row", r.Index), zap.Error(r.Err))
		}
	}
	return out, nil
}

// Evaluate runs the transform on a single row of arguments and returns its
// fields without the dropped columns. Unlike EvaluateAll, a transform
// error is returned to the caller.
func (e *Evaluator) Evaluate(ctx context.Context, arguments map[string]any) (*table.Values, error) {
	fields, err := e.call(ctx, argumentsRow(arguments))
	if err != nil {
		return nil, err
	}
	if fields == nil {
		return table.NewValues(0), nil
	}
	for _, column := range e.drop.Names() {
		fields.Delete(column)
	}
	return fields, nil
}

// mapRows fills one RowResult per row. Workers only write their own slot,
// so no locking is needed here.
func (e *Evaluator) mapRows(ctx context.Context, in *table.Table, rows int) ([]RowResult, error) {
	results := make([]RowResult, rows)

	workers := e.cfg.Parallelism.workers(rows)
	if workers == 0 {
		for i := 0; i < rows; i++ {
			if err := ctx.Err(); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeInternal, "batch cancelled")
			}
			results[i] = e.evaluateRow(ctx, in, i)
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan int)

	g.Go(func() error {
		defer close(jobs)
		for i := 0; i < rows; i++ {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range jobs {
				results[i] = e.evaluateRow(gctx, in, i)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "batch cancelled")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "batch cancelled")
	}
	return results, nil
}

func (e *Evaluator) evaluateRow(ctx context.Context, in *table.Table, i int) RowResult {
	fields, err := e.call(ctx, in.Row(i))
	return RowResult{Index: i, Fields: fields, Err: err}
}

// call invokes the transform with the row deadline applied and converts a
// panic into an error.
func (e *Evaluator) call(ctx context.Context, row table.Row) (fields *table.Values, err error) {
	if e.cfg.RowTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.RowTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			fields = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return e.transform(ctx, row)
}

// merge writes results into a new table in index order.
func (e *Evaluator) merge(results []RowResult, rows int) (*table.Table, int, error) {
	out := table.New(nil, rows)
	failed := 0

	for _, r := range results {
		if r.Err != nil {
			failed++
			f := &table.Failure{
				Row:     r.Index,
				Message: r.Err.Error(),
				Cause:   errors.NewRowEvaluationError(r.Index, r.Err),
			}
			if err := out.SetFailure(f); err != nil {
				return nil, failed, err
			}
			continue
		}
		if _, err := out.Writer(r.Index, e.drop).PutAll(r.Fields); err != nil {
			return nil, failed, err
		}
	}

	if err := out.SetRowCount(rows); err != nil {
		return nil, failed, err
	}
	if err := out.Canonicalize(); err != nil {
		return nil, failed, err
	}
	return out, failed, nil
}
