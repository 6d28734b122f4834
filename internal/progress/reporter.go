package progress

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultWidth is the number of bar cells used for render throttling when
// no width is configured.
const DefaultWidth = 40

// ErrInvalidTotal is returned by Attach when total is not positive.
var ErrInvalidTotal = errors.New("progress total must be positive")

// Reporter creates progress handles bound to a sink.
type Reporter struct {
	sink  Sink
	width int
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithSink sets the sink that receives render notifications.
func WithSink(s Sink) Option {
	return func(r *Reporter) {
		if s != nil {
			r.sink = s
		}
	}
}

// WithWidth sets the bar width used to decide when a render is visible.
func WithWidth(width int) Option {
	return func(r *Reporter) {
		if width > 0 {
			r.width = width
		}
	}
}

// NewReporter creates a reporter. Without WithSink it renders to DefaultSink.
func NewReporter(opts ...Option) *Reporter {
	r := &Reporter{width: DefaultWidth}
	for _, opt := range opts {
		opt(r)
	}
	if r.sink == nil {
		r.sink = DefaultSink()
	}
	return r
}

// Attach starts tracking a run of total items and renders the empty bar.
func (r *Reporter) Attach(total int) (*Handle, error) {
	if total <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTotal, total)
	}

	h := &Handle{
		total:     int64(total),
		width:     int64(r.width),
		sink:      r.sink,
		startTime: time.Now(),
		lastCells: -1,
	}
	h.Render()
	return h, nil
}

// Handle is the progress state of one run.
type Handle struct {
	total     int64
	width     int64
	sink      Sink
	startTime time.Time

	completed atomic.Int64
	closed    atomic.Bool

	// renderMu serializes sink calls and guards the last rendered state.
	renderMu     sync.Mutex
	lastCells    int64
	lastRendered int64
}

// Advance adds delta completed items, clamped to the total, and triggers a
// throttled render. Non-positive deltas are ignored. It returns the new
// completed count.
func (h *Handle) Advance(delta int) int {
	if delta <= 0 {
		return int(h.completed.Load())
	}

	for {
		cur := h.completed.Load()
		next := min(cur+int64(delta), h.total)
		if h.completed.CompareAndSwap(cur, next) {
			h.render(false)
			return int(next)
		}
	}
}

// Render notifies the sink of the current state even if the bar is unchanged.
func (h *Handle) Render() {
	h.render(true)
}

// Close finalizes the display. Calling Close more than once is a no-op.
func (h *Handle) Close() {
	if !h.closed.CompareAndSwap(false, true) {
		return
	}

	h.renderMu.Lock()
	defer h.renderMu.Unlock()

	completed := int(h.completed.Load())
	if f, ok := h.sink.(Finisher); ok {
		f.Finish(completed, int(h.total))
		return
	}
	if int64(completed) != h.lastRendered {
		h.sink.Render(completed, int(h.total))
	}
}

// Closed reports whether Close has been called.
func (h *Handle) Closed() bool {
	return h.closed.Load()
}

// Completed returns the number of completed items.
func (h *Handle) Completed() int {
	return int(h.completed.Load())
}

// Total returns the number of items being tracked.
func (h *Handle) Total() int {
	return int(h.total)
}

func (h *Handle) render(force bool) {
	if h.closed.Load() {
		return
	}

	h.renderMu.Lock()
	defer h.renderMu.Unlock()
	if h.closed.Load() {
		return
	}

	// Load under the lock so successive sink calls never go backwards.
	completed := h.completed.Load()
	cells := h.cells(completed)
	if !force && cells == h.lastCells {
		return
	}
	h.lastCells = cells
	h.lastRendered = completed
	h.sink.Render(int(completed), int(h.total))
}

func (h *Handle) cells(completed int64) int64 {
	return completed * h.width / h.total
}
