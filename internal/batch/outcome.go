package batch

import (
	"time"

	"github.com/rshade/batchkit/internal/diagnostics"
	"github.com/rshade/batchkit/internal/progress"
)

// State is the status of one result slot.
type State int

const (
	// Unprocessed means the position was never reached, because the run was
	// canceled first. It is the zero value of State.
	Unprocessed State = iota
	// Succeeded means Value holds the transform's result.
	Succeeded
	// Failed means Failure holds the failure record (diagnose mode).
	Failed
	// Skipped means the item failed and the slot holds no detail (skip mode).
	Skipped
)

func (s State) String() string {
	switch s {
	case Unprocessed:
		return "unprocessed"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Slot is the result for one input position.
type Slot[T, R any] struct {
	State   State
	Value   R
	Failure *diagnostics.Record[T]
}

// OK reports whether the slot holds a successful value.
func (s Slot[T, R]) OK() bool {
	return s.State == Succeeded
}

// Counts tallies slots by state.
type Counts struct {
	Succeeded   int
	Failed      int
	Skipped     int
	Unprocessed int
}

// Failures returns the number of failed items in either mode.
func (c Counts) Failures() int {
	return c.Failed + c.Skipped
}

// Outcome is the complete, order-aligned result of one run.
type Outcome[T, R any] struct {
	RunID string
	Mode  Mode

	// Results has one slot per input position.
	Results []Slot[T, R]

	// Diagnostics lists every failure in ascending index order.
	Diagnostics []diagnostics.Record[T]

	// Canceled is true when the context ended before every position was
	// processed.
	Canceled bool

	Elapsed  time.Duration
	Progress progress.Snapshot
}

// Counts tallies the outcome's slots by state.
func (o *Outcome[T, R]) Counts() Counts {
	var c Counts
	for _, s := range o.Results {
		switch s.State {
		case Succeeded:
			c.Succeeded++
		case Failed:
			c.Failed++
		case Skipped:
			c.Skipped++
		default:
			c.Unprocessed++
		}
	}
	return c
}

// Value returns the successful value at index i.
func (o *Outcome[T, R]) Value(i int) (R, bool) {
	var zero R
	if i < 0 || i >= len(o.Results) || o.Results[i].State != Succeeded {
		return zero, false
	}
	return o.Results[i].Value, true
}

// FailedIndices returns the failing positions in ascending order.
func (o *Outcome[T, R]) FailedIndices() []int {
	out := make([]int, len(o.Diagnostics))
	for i, r := range o.Diagnostics {
		out[i] = r.Index
	}
	return out
}

// FailedInputs returns the original inputs of every failed position, in
// ascending index order, ready to be fed to a second pass.
func (o *Outcome[T, R]) FailedInputs() []T {
	out := make([]T, len(o.Diagnostics))
	for i, r := range o.Diagnostics {
		out[i] = r.Input
	}
	return out
}

// UnprocessedIndices returns the positions a canceled run never reached.
func (o *Outcome[T, R]) UnprocessedIndices() []int {
	var out []int
	for i, s := range o.Results {
		if s.State == Unprocessed {
			out = append(out, i)
		}
	}
	return out
}

// Summary groups the outcome's failures by normalized message.
func (o *Outcome[T, R]) Summary() []diagnostics.Cluster {
	return diagnostics.Summarize(o.Diagnostics)
}
