package guardrails

import (
	"context"
	"math/rand"
	"time"

	perr "ycintel/internal/platform/errors"
)

// Backoff configures Retry. Zero values fall back to one attempt and a 250ms base
type Backoff struct {
	Attempts int
	Base     time.Duration
	Max      time.Duration
}

// Retry runs fn until it succeeds, fails with a non retryable error or runs
// out of attempts. Waits grow exponentially with jitter and stop on ctx
func Retry(ctx context.Context, b Backoff, fn func(context.Context) error) error {
	attempts := max(b.Attempts, 1)
	base := b.Base
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	ceil := b.Max
	if ceil <= 0 {
		ceil = 30 * time.Second
	}

	var last error
	for i := range attempts {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		last = err

		if !perr.Retryable(err) && perr.CodeOf(err) != perr.ErrorCodeUnavailable {
			return last
		}
		if i == attempts-1 {
			break
		}

		d := min(base<<i, ceil)
		j := d/2 + time.Duration(rand.Int63n(int64(d/2)+1))
		if se := SleepCtx(ctx, j); se != nil {
			return last
		}
	}
	return last
}

// SleepCtx waits for d or until ctx is done
func SleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
