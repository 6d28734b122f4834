package batch

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/batchkit/internal/diagnostics"
	"github.com/rshade/batchkit/internal/logging"
	"github.com/rshade/batchkit/internal/metrics"
	"github.com/rshade/batchkit/internal/progress"
)

// Transform converts one input item. A returned error or a panic marks only
// that item as failed.
type Transform[T, R any] func(ctx context.Context, in T) (R, error)

// Run applies transform to every item of inputs and returns an outcome with
// one slot per input position.
//
// Item failures never cause an error return. The only errors are
// configuration faults, which wrap ErrInvalidConfiguration and come with a
// nil outcome. Cancellation of ctx returns a partial outcome with Canceled
// set and a nil error. An item whose transform returns the run context's
// error after cancellation is left Unprocessed rather than failed.
//
// Without WithSink or WithReporter, progress goes to stderr only when stderr
// is a terminal. Piped or redirected runs show no progress.
func Run[T, R any](ctx context.Context, inputs []T, transform Transform[T, R], opts ...Option) (*Outcome[T, R], error) {
	if transform == nil {
		return nil, configError(ErrNilTransform, "")
	}

	o := buildOptions(opts)
	if err := o.validate(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	collector, err := collectorFor[T](o.Collector)
	if err != nil {
		return nil, err
	}

	runID := o.RunID
	if runID == "" {
		runID = logging.NewRunID()
	}

	outcome := &Outcome[T, R]{
		RunID:   runID,
		Mode:    o.Mode,
		Results: make([]Slot[T, R], len(inputs)),
	}
	if len(inputs) == 0 {
		return outcome, nil
	}

	reporter := o.Reporter
	if reporter == nil {
		reporter = progress.NewReporter(progress.WithSink(o.Sink))
	}
	handle, err := reporter.Attach(len(inputs))
	if err != nil {
		return nil, configError(err, "")
	}
	defer handle.Close()

	log := runLogger(ctx, o.Logger, runID)
	workers := workerCount(o.Concurrency, len(inputs))
	log.Info().
		Int("items", len(inputs)).
		Int("workers", workers).
		Str("mode", o.Mode.String()).
		Msg("batch run started")

	r := &run[T, R]{
		inputs:      inputs,
		results:     outcome.Results,
		transform:   transform,
		mode:        o.Mode,
		itemTimeout: o.ItemTimeout,
		collector:   collector,
		handle:      handle,
		metrics:     o.Metrics,
		onFailure:   o.OnFailure,
		log:         log,
	}

	collectorMark := r.collector.Len()
	start := time.Now()
	if workers <= 1 {
		r.sequential(ctx)
	} else {
		r.parallel(ctx, workers, o.ChunkSize)
	}
	outcome.Elapsed = time.Since(start)

	handle.Close()
	outcome.Progress = handle.Snapshot()
	outcome.Diagnostics = r.collector.RecordsSince(collectorMark)
	outcome.Canceled = handle.Completed() < len(inputs)

	o.Metrics.RunFinished(o.Mode.String(), outcome.Canceled, outcome.Elapsed)
	log.Info().
		Int("completed", handle.Completed()).
		Int("failed", len(outcome.Diagnostics)).
		Bool("canceled", outcome.Canceled).
		Dur("elapsed", outcome.Elapsed).
		Msg("batch run finished")

	return outcome, nil
}

// run holds the per-invocation state shared by workers.
type run[T, R any] struct {
	inputs      []T
	results     []Slot[T, R]
	transform   Transform[T, R]
	mode        Mode
	itemTimeout time.Duration
	collector   *diagnostics.Collector[T]
	handle      *progress.Handle
	metrics     *metrics.Recorder
	onFailure   FailureHook
	log         zerolog.Logger
}

func (r *run[T, R]) sequential(ctx context.Context) {
	for i := range r.inputs {
		if ctx.Err() != nil {
			return
		}
		r.process(ctx, i)
	}
}

// parallel runs a fixed pool of workers. Each worker claims the next chunk of
// positions from a shared cursor and writes only the slots it claimed.
func (r *run[T, R]) parallel(ctx context.Context, workers, chunk int) {
	n := int64(len(r.inputs))
	var cursor atomic.Int64

	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			for {
				if ctx.Err() != nil {
					return nil
				}
				start := cursor.Add(int64(chunk)) - int64(chunk)
				if start >= n {
					return nil
				}
				end := min(start+int64(chunk), n)
				for i := start; i < end; i++ {
					if ctx.Err() != nil {
						return nil
					}
					r.process(ctx, int(i))
				}
			}
		})
	}
	_ = g.Wait()
}

// process transforms the item at index i and fills its slot.
func (r *run[T, R]) process(ctx context.Context, i int) {
	in := r.inputs[i]

	r.metrics.ItemStarted()
	start := time.Now()
	value, err := r.apply(ctx, in)
	if interrupted(ctx, err) {
		r.metrics.ItemAbandoned()
		r.log.Debug().Int("index", i).Msg("item interrupted by cancellation")
		return
	}
	r.metrics.ItemFinished(err != nil, time.Since(start))

	if err != nil {
		r.fail(i, in, err)
	} else {
		r.results[i] = Slot[T, R]{State: Succeeded, Value: value}
	}
	r.handle.Advance(1)
}

func (r *run[T, R]) fail(i int, in T, err error) {
	msg := err.Error()
	r.collector.Record(i, in, msg)

	event := r.log.Debug().Int("index", i).Str("error", msg)
	var pe *PanicError
	if errors.As(err, &pe) {
		event = event.Bytes("stack", pe.Stack)
	}
	event.Msg("item failed")

	if r.mode == ModeSkip {
		r.results[i] = Slot[T, R]{State: Skipped}
	} else {
		r.results[i] = Slot[T, R]{
			State:   Failed,
			Failure: &diagnostics.Record[T]{Index: i, Input: in, Message: msg},
		}
	}

	if r.onFailure != nil {
		r.onFailure(i, msg)
	}
}

// apply calls the transform, converting a panic into a *PanicError and an
// expired per-item deadline into ErrItemTimeout.
func (r *run[T, R]) apply(ctx context.Context, in T) (out R, err error) {
	itemCtx := ctx
	if r.itemTimeout > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(ctx, r.itemTimeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			var zero R
			out, err = zero, &PanicError{Value: p, Stack: debug.Stack()}
		}
	}()

	out, err = r.transform(itemCtx, in)
	if r.itemTimeout > 0 && ctx.Err() == nil && itemCtx.Err() != nil {
		var zero R
		return zero, fmt.Errorf("%w after %s", ErrItemTimeout, r.itemTimeout)
	}
	return out, err
}

// interrupted reports whether err is the run context's own cancellation
// surfacing through the transform. Such an item has no result of its own.
func interrupted(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	cause := ctx.Err()
	return cause != nil && errors.Is(err, cause)
}

func collectorFor[T any](c any) (*diagnostics.Collector[T], error) {
	if c == nil {
		return diagnostics.NewCollector[T](0), nil
	}
	typed, ok := c.(*diagnostics.Collector[T])
	if !ok {
		return nil, configError(ErrInvalidCollector, "want *diagnostics.Collector[%v], got %T", reflect.TypeFor[T](), c)
	}
	return typed, nil
}

func runLogger(ctx context.Context, override *zerolog.Logger, runID string) zerolog.Logger {
	base := logging.FromContext(ctx)
	if override != nil {
		base = override
	}
	l := logging.ComponentLogger(*base, "batch").With().Str("run_id", runID)
	if traceID := logging.TraceIDFromContext(ctx); traceID != "" {
		l = l.Str("trace_id", traceID)
	}
	return l.Logger()
}

func workerCount(concurrency, items int) int {
	if concurrency <= 1 {
		return 1
	}
	return min(concurrency, items)
}
