package batch

import (
	"context"
	"fmt"
	"sort"

	"github.com/rshade/batchkit/internal/diagnostics"
)

// Redrive runs transform again over only the failed positions of prev and
// returns a new outcome in which those positions hold the fresh results.
// prev is not modified. Positions that fail again keep their original index
// in the new diagnostics; positions the second pass never reached (because
// ctx was canceled) keep their previous failure.
//
// The second pass uses prev's mode unless opts override it. WithCollector is
// ignored.
func Redrive[T, R any](
	ctx context.Context,
	prev *Outcome[T, R],
	transform Transform[T, R],
	opts ...Option,
) (*Outcome[T, R], error) {
	if prev == nil {
		return nil, fmt.Errorf("%w: nil previous outcome", ErrInvalidConfiguration)
	}

	positions := prev.FailedIndices()
	base := buildOptions(append([]Option{WithMode(prev.Mode)}, opts...))
	hook := base.OnFailure

	// The pass sees sub-indices, so failures are remapped before they reach
	// the caller's hook, and a shared collector is not handed to it.
	passOpts := append([]Option{WithMode(prev.Mode)}, opts...)
	passOpts = append(passOpts,
		WithFailureHook(func(j int, msg string) {
			if hook != nil {
				hook(positions[j], msg)
			}
		}),
		func(o *Options) { o.Collector = nil },
	)

	pass, err := Run(ctx, prev.FailedInputs(), transform, passOpts...)
	if err != nil {
		return nil, err
	}

	merged := &Outcome[T, R]{
		RunID:    pass.RunID,
		Mode:     pass.Mode,
		Results:  make([]Slot[T, R], len(prev.Results)),
		Canceled: pass.Canceled,
		Elapsed:  pass.Elapsed,
		Progress: pass.Progress,
	}
	copy(merged.Results, prev.Results)

	collector := diagnostics.NewCollector[T](len(prev.Diagnostics))
	for j, slot := range pass.Results {
		pos := positions[j]
		rec := prev.Diagnostics[j]

		switch slot.State {
		case Unprocessed:
			collector.Record(pos, rec.Input, rec.Message)
			continue
		case Failed, Skipped:
			msg := rec.Message
			if slot.Failure != nil {
				msg = slot.Failure.Message
			} else if m, ok := messageAt(pass.Diagnostics, j); ok {
				msg = m
			}
			collector.Record(pos, rec.Input, msg)
			if slot.State == Failed {
				slot.Failure = &diagnostics.Record[T]{Index: pos, Input: rec.Input, Message: msg}
			}
		}
		merged.Results[pos] = slot
	}
	merged.Diagnostics = collector.Records()

	return merged, nil
}

// messageAt finds the message recorded for position j. records must be in
// ascending index order.
func messageAt[T any](records []diagnostics.Record[T], j int) (string, bool) {
	i := sort.Search(len(records), func(k int) bool { return records[k].Index >= j })
	if i < len(records) && records[i].Index == j {
		return records[i].Message, true
	}
	return "", false
}
