package progress_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/batchkit/internal/progress"
)

// recordingSink captures every render and finish call.
type recordingSink struct {
	mu       sync.Mutex
	renders  [][2]int
	finishes [][2]int
}

func (s *recordingSink) Render(completed, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renders = append(s.renders, [2]int{completed, total})
}

func (s *recordingSink) Finish(completed, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishes = append(s.finishes, [2]int{completed, total})
}

func (s *recordingSink) renderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.renders)
}

func TestAttach_InvalidTotal(t *testing.T) {
	r := progress.NewReporter(progress.WithSink(progress.NopSink{}))
	for _, total := range []int{0, -1} {
		h, err := r.Attach(total)
		require.ErrorIs(t, err, progress.ErrInvalidTotal)
		assert.Nil(t, h)
	}
}

func TestAttach_RendersEmptyBar(t *testing.T) {
	sink := &recordingSink{}
	h, err := progress.NewReporter(progress.WithSink(sink)).Attach(10)
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{0, 10}}, sink.renders)
	assert.Equal(t, 10, h.Total())
	assert.Equal(t, 0, h.Completed())
}

func TestAdvance_ClampsAndIsMonotonic(t *testing.T) {
	h, err := progress.NewReporter(progress.WithSink(progress.NopSink{})).Attach(5)
	require.NoError(t, err)

	assert.Equal(t, 1, h.Advance(1))
	assert.Equal(t, 3, h.Advance(2))
	assert.Equal(t, 3, h.Advance(0))
	assert.Equal(t, 3, h.Advance(-4))
	assert.Equal(t, 5, h.Advance(10))
	assert.Equal(t, 5, h.Advance(1))
}

func TestAdvance_NCallsEqualN(t *testing.T) {
	const n = 1000
	h, err := progress.NewReporter(progress.WithSink(progress.NopSink{})).Attach(n)
	require.NoError(t, err)

	for range n {
		h.Advance(1)
	}
	assert.Equal(t, n, h.Completed())
	assert.True(t, h.Snapshot().IsComplete())
}

func TestAdvance_ConcurrentIsAtomic(t *testing.T) {
	const workers, perWorker = 8, 1000
	h, err := progress.NewReporter(progress.WithSink(progress.NopSink{})).Attach(workers * perWorker)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				h.Advance(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, workers*perWorker, h.Completed())
}

func TestRender_ThrottledToVisibleChanges(t *testing.T) {
	sink := &recordingSink{}
	r := progress.NewReporter(progress.WithSink(sink), progress.WithWidth(10))
	h, err := r.Attach(100_000)
	require.NoError(t, err)

	for range 100_000 {
		h.Advance(1)
	}

	// One initial render plus one per cell.
	assert.Equal(t, 11, sink.renderCount())
	assert.Equal(t, [2]int{100_000, 100_000}, sink.renders[len(sink.renders)-1])

	for i := 1; i < len(sink.renders); i++ {
		assert.GreaterOrEqual(t, sink.renders[i][0], sink.renders[i-1][0])
	}
}

func TestRender_ForcedRenderBypassesThrottle(t *testing.T) {
	sink := &recordingSink{}
	h, err := progress.NewReporter(progress.WithSink(sink), progress.WithWidth(10)).Attach(1000)
	require.NoError(t, err)

	h.Advance(1)
	require.Equal(t, 1, sink.renderCount())

	h.Render()
	assert.Equal(t, 2, sink.renderCount())
	assert.Equal(t, [2]int{1, 1000}, sink.renders[1])
}

func TestClose(t *testing.T) {
	t.Run("finisher called once", func(t *testing.T) {
		sink := &recordingSink{}
		h, err := progress.NewReporter(progress.WithSink(sink)).Attach(4)
		require.NoError(t, err)
		h.Advance(3)

		h.Close()
		h.Close()

		assert.True(t, h.Closed())
		assert.Equal(t, [][2]int{{3, 4}}, sink.finishes)
	})

	t.Run("no renders after close", func(t *testing.T) {
		sink := &recordingSink{}
		h, err := progress.NewReporter(progress.WithSink(sink)).Attach(4)
		require.NoError(t, err)
		h.Close()
		before := sink.renderCount()

		h.Advance(4)
		h.Render()
		assert.Equal(t, before, sink.renderCount())
	})

	t.Run("plain sink gets final count", func(t *testing.T) {
		var got [][2]int
		sink := progress.SinkFunc(func(completed, total int) {
			got = append(got, [2]int{completed, total})
		})
		h, err := progress.NewReporter(progress.WithSink(sink), progress.WithWidth(2)).Attach(100)
		require.NoError(t, err)
		h.Advance(10)

		h.Close()
		assert.Equal(t, [][2]int{{0, 100}, {10, 100}}, got)
	})
}

// gatedSink blocks the first gated Render until release is closed and keeps
// the order of render and finish calls.
type gatedSink struct {
	mu      sync.Mutex
	gate    bool
	entered chan struct{}
	release chan struct{}
	events  []string
}

func (s *gatedSink) Render(int, int) {
	s.mu.Lock()
	gated := s.gate
	s.gate = false
	s.events = append(s.events, "render")
	s.mu.Unlock()
	if gated {
		close(s.entered)
		<-s.release
	}
}

func (s *gatedSink) Finish(int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "finish")
}

func TestClose_PendingRenderDroppedAfterFinish(t *testing.T) {
	sink := &gatedSink{entered: make(chan struct{}), release: make(chan struct{})}
	h, err := progress.NewReporter(progress.WithSink(sink)).Attach(10)
	require.NoError(t, err)

	sink.mu.Lock()
	sink.gate = true
	sink.mu.Unlock()

	go h.Render()
	<-sink.entered

	pending := make(chan struct{})
	go func() {
		defer close(pending)
		h.Render()
	}()
	// Give the second render time to pass the open check and queue on the lock.
	time.Sleep(20 * time.Millisecond)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		h.Close()
	}()
	require.Eventually(t, h.Closed, time.Second, time.Millisecond)

	close(sink.release)
	<-pending
	<-closed

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, "finish", sink.events[len(sink.events)-1])
	assert.Equal(t, []string{"render", "render", "finish"}, sink.events)
}

func TestSnapshot(t *testing.T) {
	h, err := progress.NewReporter(progress.WithSink(progress.NopSink{})).Attach(4)
	require.NoError(t, err)

	snap := h.Snapshot()
	assert.Equal(t, 4, snap.Total)
	assert.Equal(t, 0, snap.Completed)
	assert.InDelta(t, 0.0, snap.Percent(), 0)
	assert.False(t, snap.IsComplete())

	h.Advance(1)
	snap = h.Snapshot()
	assert.InDelta(t, 0.25, snap.Fraction, 1e-9)
	assert.InDelta(t, 25.0, snap.Percent(), 1e-9)
	assert.False(t, snap.Closed)
}
