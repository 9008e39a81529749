package guardrails

import (
	"context"
	"sync"
)

// Chunks splits xs into consecutive slices of at most size elements
func Chunks[T any](xs []T, size int) [][]T {
	size = max(size, 1)
	out := make([][]T, 0, (len(xs)+size-1)/size)
	for i := 0; i < len(xs); i += size {
		out = append(out, xs[i:min(i+size, len(xs))])
	}
	return out
}

// Pool runs fn over every job with at most workers in flight.
// Dispatch stops once ctx is done; jobs already started run to completion.
// It returns the number of jobs that were never dispatched
func Pool[T any](ctx context.Context, workers int, jobs []T, fn func(context.Context, T)) int {
	w := max(workers, 1)
	var wg sync.WaitGroup
	sem := make(chan struct{}, w)

	for i, job := range jobs {
		if ctx.Err() != nil {
			wg.Wait()
			return len(jobs) - i
		}
		select {
		case <-ctx.Done():
			wg.Wait()
			return len(jobs) - i
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(j T) {
			defer func() { <-sem; wg.Done() }()
			fn(ctx, j)
		}(job)
	}
	wg.Wait()
	return 0
}
