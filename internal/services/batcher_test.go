package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBatchedPreservesOrder(t *testing.T) {
	items := []int{5, 3, 8, 1, 9, 2, 7}

	results := RunBatched(context.Background(), items, 3, 0,
		func(ctx context.Context, item int) (int, error) {
			return item * 10, nil
		})

	require.Len(t, results, len(items))
	for i, r := range results {
		assert.Equal(t, items[i], r.Item)
		assert.Equal(t, items[i]*10, r.Value)
		assert.NoError(t, r.Err)
	}
}

func TestRunBatchedCapturesPanics(t *testing.T) {
	items := []string{"ok", "boom", "ok"}

	results := RunBatched(context.Background(), items, 2, 0,
		func(ctx context.Context, item string) (string, error) {
			if item == "boom" {
				panic("exploded")
			}
			return item, nil
		})

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	require.Error(t, results[1].Err)
	assert.Contains(t, results[1].Err.Error(), "exploded")
	assert.NoError(t, results[2].Err)
}

func TestRunBatchedWaveConcurrency(t *testing.T) {
	var current, peak int32
	items := make([]int, 20)

	RunBatched(context.Background(), items, 4, 0,
		func(ctx context.Context, item int) (struct{}, error) {
			n := atomic.AddInt32(&current, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			atomic.AddInt32(&current, -1)
			return struct{}{}, nil
		})

	assert.LessOrEqual(t, peak, int32(4))
}

func TestRunBatchedCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := []int{1, 2, 3, 4}
	results := RunBatched(ctx, items, 1, time.Minute,
		func(ctx context.Context, item int) (int, error) {
			return item, nil
		})

	// The first wave runs; everything after the cancelled delay fails fast
	require.Len(t, results, 4)
	assert.NoError(t, results[0].Err)
	for _, r := range results[1:] {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestRunBatchedEmptyAndBadConcurrency(t *testing.T) {
	results := RunBatched(context.Background(), nil, 0, 0,
		func(ctx context.Context, item int) (int, error) {
			return 0, fmt.Errorf("must not run")
		})
	assert.Empty(t, results)
}
