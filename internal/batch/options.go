package batch

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/batchkit/internal/diagnostics"
	"github.com/rshade/batchkit/internal/metrics"
	"github.com/rshade/batchkit/internal/progress"
)

// Chunk size limits for parallel claiming.
const (
	MinChunkSize = 1
	MaxChunkSize = 1000
)

// Mode selects how failed positions appear in Outcome.Results.
type Mode int

const (
	// ModeDiagnose keeps the full failure record in each failed slot.
	ModeDiagnose Mode = iota
	// ModeSkip marks failed slots Skipped; details live only in
	// Outcome.Diagnostics.
	ModeSkip
)

func (m Mode) String() string {
	switch m {
	case ModeDiagnose:
		return "diagnose"
	case ModeSkip:
		return "skip"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "skip" or "diagnose" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "diagnose", "":
		return ModeDiagnose, nil
	case "skip":
		return ModeSkip, nil
	default:
		return 0, configError(ErrInvalidMode, "got %q", s)
	}
}

// FailureHook is called once per failed item with its position and message.
// In parallel runs it is called from worker goroutines.
type FailureHook func(index int, message string)

// Options controls a run. The zero value runs sequentially in diagnose mode
// with the default progress sink.
type Options struct {
	Mode Mode

	// Concurrency is the number of workers; 0 or 1 runs sequentially.
	Concurrency int

	// ChunkSize is how many consecutive positions a worker claims at a time
	// in parallel runs. Defaults to 1.
	ChunkSize int

	// Reporter creates the run's progress handle. When nil, a reporter is
	// built around Sink.
	Reporter *progress.Reporter

	// Sink receives progress renders when Reporter is nil. When both are nil
	// the default terminal sink is used.
	Sink progress.Sink

	// Collector receives failure records as they happen. It is typed any so
	// Options stays non-generic; Run rejects a collector whose element type
	// does not match the inputs.
	Collector any

	// ItemTimeout bounds each transform call; zero means no limit.
	ItemTimeout time.Duration

	Metrics   *metrics.Recorder
	Logger    *zerolog.Logger
	OnFailure FailureHook

	// RunID tags log events; generated when empty.
	RunID string
}

// Option mutates Options.
type Option func(*Options)

// WithMode sets the failure representation mode.
func WithMode(m Mode) Option {
	return func(o *Options) { o.Mode = m }
}

// WithConcurrency sets the worker count; 0 or 1 means sequential.
func WithConcurrency(n int) Option {
	return func(o *Options) { o.Concurrency = n }
}

// WithChunkSize sets how many positions a parallel worker claims at once.
func WithChunkSize(n int) Option {
	return func(o *Options) { o.ChunkSize = n }
}

// WithReporter sets the progress reporter.
func WithReporter(r *progress.Reporter) Option {
	return func(o *Options) { o.Reporter = r }
}

// WithSink sets the progress sink used when no reporter is given.
func WithSink(s progress.Sink) Option {
	return func(o *Options) { o.Sink = s }
}

// WithCollector records failures into c instead of a private collector, so
// a caller can watch diagnostics while the run is in flight.
func WithCollector[T any](c *diagnostics.Collector[T]) Option {
	return func(o *Options) {
		if c != nil {
			o.Collector = c
		}
	}
}

// WithItemTimeout bounds each transform call.
func WithItemTimeout(d time.Duration) Option {
	return func(o *Options) { o.ItemTimeout = d }
}

// WithMetrics records run and item metrics.
func WithMetrics(m *metrics.Recorder) Option {
	return func(o *Options) { o.Metrics = m }
}

// WithLogger overrides the logger taken from the context.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) { o.Logger = &l }
}

// WithFailureHook observes failures as they happen.
func WithFailureHook(h FailureHook) Option {
	return func(o *Options) { o.OnFailure = h }
}

// WithRunID sets the run identifier used in logs.
func WithRunID(id string) Option {
	return func(o *Options) { o.RunID = id }
}

func buildOptions(opts []Option) Options {
	o := Options{ChunkSize: MinChunkSize}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

func (o *Options) validate() error {
	if o.Concurrency < 0 {
		return configError(ErrInvalidConcurrency, "got %d", o.Concurrency)
	}
	if o.ChunkSize < MinChunkSize || o.ChunkSize > MaxChunkSize {
		return configError(ErrInvalidChunkSize, "got %d", o.ChunkSize)
	}
	if o.Mode != ModeDiagnose && o.Mode != ModeSkip {
		return configError(ErrInvalidMode, "got %s", o.Mode)
	}
	if o.ItemTimeout < 0 {
		return fmt.Errorf("%w: item timeout must be >= 0, got %s", ErrInvalidConfiguration, o.ItemTimeout)
	}
	return nil
}
