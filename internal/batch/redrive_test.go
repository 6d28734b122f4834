package batch_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/batchkit/internal/batch"
)

func TestRedrive_RetriesOnlyFailedSubset(t *testing.T) {
	var attempts atomic.Int32
	flaky := func(_ context.Context, in int) (int, error) {
		if in%3 == 0 && attempts.Add(1) <= 4 {
			return 0, fmt.Errorf("transient failure on %d", in)
		}
		return in * 10, nil
	}

	first, err := batch.Run(context.Background(), sequence(10), flaky, nop())
	require.NoError(t, err)
	require.Equal(t, []int{0, 3, 6, 9}, first.FailedIndices())

	var seen []int
	retry := func(ctx context.Context, in int) (int, error) {
		seen = append(seen, in)
		if in == 9 {
			return 0, errors.New("still broken")
		}
		return flaky(ctx, in)
	}

	second, err := batch.Redrive(context.Background(), first, retry, nop())
	require.NoError(t, err)

	assert.Equal(t, []int{0, 3, 6, 9}, seen)
	require.Len(t, second.Results, 10)
	assert.Equal(t, []int{9}, second.FailedIndices())
	assert.Equal(t, "still broken", second.Diagnostics[0].Message)
	assert.Equal(t, 9, second.Diagnostics[0].Input)

	for _, i := range []int{0, 3, 6} {
		v, ok := second.Value(i)
		require.True(t, ok, "position %d", i)
		assert.Equal(t, i*10, v)
	}
	require.NotNil(t, second.Results[9].Failure)
	assert.Equal(t, 9, second.Results[9].Failure.Index)

	// The first outcome is left untouched.
	assert.Equal(t, []int{0, 3, 6, 9}, first.FailedIndices())
	assert.Equal(t, batch.Failed, first.Results[3].State)
}

func TestRedrive_SkipModePreserved(t *testing.T) {
	failing := func(_ context.Context, in int) (int, error) {
		if in == 2 {
			return 0, errors.New("nope")
		}
		return in, nil
	}

	first, err := batch.Run(context.Background(), sequence(4), failing, batch.WithMode(batch.ModeSkip), nop())
	require.NoError(t, err)

	var hooked []int
	second, err := batch.Redrive(context.Background(), first, failing, nop(),
		batch.WithFailureHook(func(index int, _ string) { hooked = append(hooked, index) }))
	require.NoError(t, err)

	assert.Equal(t, batch.ModeSkip, second.Mode)
	assert.Equal(t, batch.Skipped, second.Results[2].State)
	assert.Equal(t, []int{2}, second.FailedIndices())
	assert.Equal(t, "nope", second.Diagnostics[0].Message)
	assert.Equal(t, []int{2}, hooked, "hook receives original positions")
}

func TestRedrive_CanceledKeepsPreviousFailures(t *testing.T) {
	failing := func(_ context.Context, in int) (int, error) {
		if in%2 == 1 {
			return 0, errors.New("odd")
		}
		return in, nil
	}
	first, err := batch.Run(context.Background(), sequence(6), failing, nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	second, err := batch.Redrive(ctx, first, failing, nop())
	require.NoError(t, err)
	assert.True(t, second.Canceled)
	assert.Equal(t, first.FailedIndices(), second.FailedIndices())
	assert.Equal(t, batch.Failed, second.Results[1].State)
}

func TestRedrive_NothingToRetry(t *testing.T) {
	first, err := batch.Run(context.Background(), sequence(3), func(_ context.Context, in int) (int, error) {
		return in, nil
	}, nop())
	require.NoError(t, err)

	second, err := batch.Redrive(context.Background(), first, func(_ context.Context, in int) (int, error) {
		return in, nil
	}, nop())
	require.NoError(t, err)
	assert.Equal(t, first.Results, second.Results)
	assert.Empty(t, second.Diagnostics)
}

func TestRedrive_NilPrevious(t *testing.T) {
	_, err := batch.Redrive[int, int](context.Background(), nil, func(_ context.Context, in int) (int, error) {
		return in, nil
	})
	assert.ErrorIs(t, err, batch.ErrInvalidConfiguration)
}
