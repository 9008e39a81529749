package guardrails

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	perr "ycintel/internal/platform/errors"
)

func TestChildTimeout_NeverExtendsParent(t *testing.T) {
	t.Parallel()
	parent, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ctx, c2 := ForFetch(parent, Timeouts{Fetch: time.Hour})
	defer c2()
	if rem := Remaining(ctx); rem <= 0 || rem > 50*time.Millisecond {
		t.Fatalf("child remaining = %v", rem)
	}
}

func TestChildTimeout_ZeroInherits(t *testing.T) {
	t.Parallel()
	ctx, cancel := ForDB(context.Background(), Timeouts{})
	defer cancel()
	if _, ok := ctx.Deadline(); ok {
		t.Fatalf("zero budget should not set a deadline")
	}
}

func TestDetached_SurvivesParentCancel(t *testing.T) {
	t.Parallel()
	parent, cancel := context.WithCancel(context.Background())
	cancel()

	ctx, c2 := Detached(parent, time.Second)
	defer c2()
	if ctx.Err() != nil {
		t.Fatalf("detached ctx should be live: %v", ctx.Err())
	}
	if Remaining(ctx) <= 0 {
		t.Fatalf("detached ctx should be bounded")
	}
}

func TestChunks(t *testing.T) {
	t.Parallel()
	got := Chunks([]int{1, 2, 3, 4, 5}, 2)
	if len(got) != 3 || !slices.Equal(got[2], []int{5}) {
		t.Fatalf("chunks = %v", got)
	}
	if len(Chunks([]int(nil), 3)) != 0 {
		t.Fatalf("empty input should give no chunks")
	}
	if len(Chunks([]int{1, 2}, 0)) != 2 {
		t.Fatalf("size below one should act as one")
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	t.Parallel()
	var inflight, peak, done int64
	var mu sync.Mutex
	jobs := make([]int, 20)

	left := Pool(context.Background(), 3, jobs, func(context.Context, int) {
		n := atomic.AddInt64(&inflight, 1)
		mu.Lock()
		peak = max(peak, n)
		mu.Unlock()
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt64(&inflight, -1)
		atomic.AddInt64(&done, 1)
	})
	if left != 0 || done != 20 {
		t.Fatalf("left=%d done=%d", left, done)
	}
	if peak > 3 {
		t.Fatalf("peak concurrency %d exceeds 3", peak)
	}
}

func TestPool_StopsDispatchOnCancel(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	left := Pool(ctx, 1, []int{1, 2, 3}, func(context.Context, int) {})
	if left == 0 {
		t.Fatalf("cancelled pool should leave jobs undispatched")
	}
}

func TestRetry_RetriesOnlyRetryable(t *testing.T) {
	t.Parallel()
	calls := 0
	err := Retry(context.Background(), Backoff{Attempts: 3, Base: time.Millisecond}, func(context.Context) error {
		calls++
		return perr.New(perr.ErrorCodeUnavailable, "down")
	})
	if err == nil || calls != 3 {
		t.Fatalf("calls=%d err=%v", calls, err)
	}

	calls = 0
	err = Retry(context.Background(), Backoff{Attempts: 3, Base: time.Millisecond}, func(context.Context) error {
		calls++
		return errors.New("bad input")
	})
	if err == nil || calls != 1 {
		t.Fatalf("non retryable should stop early: calls=%d", calls)
	}
}

func TestRetry_SucceedsAfterTransient(t *testing.T) {
	t.Parallel()
	calls := 0
	err := Retry(context.Background(), Backoff{Attempts: 4, Base: time.Millisecond}, func(context.Context) error {
		calls++
		if calls < 2 {
			return perr.New(perr.ErrorCodeUnavailable, "blip")
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Fatalf("calls=%d err=%v", calls, err)
	}
}

type fakeLeaser struct {
	held     bool
	released bool
}

func (f *fakeLeaser) TryLease(context.Context, int64) (func(context.Context) error, bool, error) {
	if f.held {
		return nil, false, nil
	}
	f.held = true
	return func(context.Context) error { f.released = true; f.held = false; return nil }, true, nil
}

func TestLease_RunsAndReleases(t *testing.T) {
	t.Parallel()
	l := &fakeLeaser{}
	ran := false
	if err := Lease(context.Background(), l, "run", func(context.Context) error { ran = true; return nil }); err != nil {
		t.Fatalf("lease: %v", err)
	}
	if !ran || !l.released {
		t.Fatalf("ran=%v released=%v", ran, l.released)
	}
}

func TestLease_HeldIsConflict(t *testing.T) {
	t.Parallel()
	l := &fakeLeaser{held: true}
	err := Lease(context.Background(), l, "run", func(context.Context) error {
		t.Fatal("do must not run while held")
		return nil
	})
	if !errors.Is(err, ErrLeaseHeld) || !perr.IsCode(err, perr.ErrorCodeConflict) {
		t.Fatalf("want conflict wrapping ErrLeaseHeld, got %v", err)
	}
}

func TestLeaseKey_Stable(t *testing.T) {
	t.Parallel()
	if LeaseKey("a") != LeaseKey("a") || LeaseKey("a") == LeaseKey("b") {
		t.Fatalf("lease keys should be stable and distinct")
	}
	if LeaseKey("tracker-run") < 0 {
		t.Fatalf("lease key should be non negative")
	}
}
