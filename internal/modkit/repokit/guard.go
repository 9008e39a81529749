package repokit

import (
	"context"
	"fmt"
	"time"
)

// DefaultGuardTimeout bounds a startup check when ctx carries no deadline
const DefaultGuardTimeout = 5 * time.Second

// Guarder is satisfied by *store.Store
type Guarder interface {
	Guard(context.Context) error
}

// CheckGuard checks every configured backend once. A nil g is an error
func CheckGuard(ctx context.Context, g Guarder) error {
	if g == nil {
		return fmt.Errorf("dependency guard: nil store")
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultGuardTimeout)
		defer cancel()
	}
	if err := g.Guard(ctx); err != nil {
		return fmt.Errorf("dependency guard failed: %w", err)
	}
	return nil
}

// MustGuard is CheckGuard for long-lived binaries that should not start degraded
func MustGuard(ctx context.Context, g Guarder) {
	if err := CheckGuard(ctx, g); err != nil {
		panic(err)
	}
}
