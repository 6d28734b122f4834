package progress

import "time"

const percentMultiplier = 100

// Snapshot is an immutable copy of a handle's state.
type Snapshot struct {
	Total              int
	Completed          int
	Fraction           float64
	StartTime          time.Time
	Elapsed            time.Duration
	ItemsPerSecond     float64
	EstimatedRemaining time.Duration
	Closed             bool
}

// Percent returns the completion percentage (0-100).
func (s Snapshot) Percent() float64 {
	return s.Fraction * percentMultiplier
}

// IsComplete reports whether every item has completed.
func (s Snapshot) IsComplete() bool {
	return s.Completed >= s.Total
}

// Snapshot returns the current state of the handle.
func (h *Handle) Snapshot() Snapshot {
	completed := h.completed.Load()
	elapsed := time.Since(h.startTime)

	snap := Snapshot{
		Total:     int(h.total),
		Completed: int(completed),
		Fraction:  float64(completed) / float64(h.total),
		StartTime: h.startTime,
		Elapsed:   elapsed,
		Closed:    h.closed.Load(),
	}

	if secs := elapsed.Seconds(); secs > 0 {
		snap.ItemsPerSecond = float64(completed) / secs
	}
	if completed > 0 {
		perItem := elapsed / time.Duration(completed)
		snap.EstimatedRemaining = perItem * time.Duration(h.total-completed)
	}
	return snap
}
