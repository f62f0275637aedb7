package services

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// BatchResult pairs one input item with its outcome. Results keep the order
// of the input slice regardless of goroutine scheduling.
type BatchResult[T, R any] struct {
	Item  T
	Value R
	Err   error
}

// RunBatched processes items in waves of at most concurrency goroutines,
// sleeping delay between waves to stay under upstream rate limits. A panic in
// fn is captured as that item's error; the remaining items still run.
func RunBatched[T, R any](
	ctx context.Context,
	items []T,
	concurrency int,
	delay time.Duration,
	fn func(ctx context.Context, item T) (R, error),
) []BatchResult[T, R] {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]BatchResult[T, R], len(items))

	for start := 0; start < len(items); start += concurrency {
		end := start + concurrency
		if end > len(items) {
			end = len(items)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						results[idx] = BatchResult[T, R]{
							Item: items[idx],
							Err:  fmt.Errorf("panic while processing item: %v", r),
						}
					}
				}()

				value, err := fn(ctx, items[idx])
				results[idx] = BatchResult[T, R]{Item: items[idx], Value: value, Err: err}
			}(i)
		}
		wg.Wait()

		if end < len(items) && delay > 0 {
			select {
			case <-ctx.Done():
				for i := end; i < len(items); i++ {
					results[i] = BatchResult[T, R]{Item: items[i], Err: ctx.Err()}
				}
				return results
			case <-time.After(delay):
			}
		}
	}

	return results
}
