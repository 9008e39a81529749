package guardrails

import (
	"context"
	"errors"
	"hash/fnv"

	perr "ycintel/internal/platform/errors"
	"ycintel/internal/platform/store"
)

// ErrLeaseHeld signals another process owns the lease already
var ErrLeaseHeld = errors.New("guardrails: lease already held")

// LeaseKey maps a lease name onto a stable advisory lock key
func LeaseKey(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64() >> 1)
}

// Lease runs do while holding the session advisory lock for name.
// When another session holds it, do is not run and the result is a conflict
// wrapping ErrLeaseHeld. A nil leaser runs do unguarded
func Lease(ctx context.Context, l store.Leaser, name string, do func(context.Context) error) error {
	if l == nil {
		return do(ctx)
	}
	release, ok, err := l.TryLease(ctx, LeaseKey(name))
	if err != nil {
		return perr.FromPostgresf(err, "acquire lease %q", name)
	}
	if !ok {
		return perr.Wrapf(ErrLeaseHeld, perr.ErrorCodeConflict, "lease %q held by another process", name)
	}
	defer func() {
		rctx, cancel := Detached(ctx, 0)
		defer cancel()
		_ = release(rctx)
	}()
	return do(ctx)
}
