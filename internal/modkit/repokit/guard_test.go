package repokit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ycintel/internal/platform/testkit"
)

// stubStore records the deadline its Guard saw
type stubStore struct {
	err      error
	deadline time.Time
	hadDL    bool
}

func (s *stubStore) Guard(ctx context.Context) error {
	s.deadline, s.hadDL = ctx.Deadline()
	return s.err
}

func TestCheckGuard_AddsDefaultDeadline(t *testing.T) {
	t.Parallel()

	st := &stubStore{}
	start := time.Now()
	if err := CheckGuard(context.Background(), st); err != nil {
		t.Fatalf("CheckGuard: %v", err)
	}
	if !st.hadDL {
		t.Fatalf("guard ran without a deadline")
	}
	if d := st.deadline.Sub(start); d < DefaultGuardTimeout-time.Second || d > DefaultGuardTimeout+time.Second {
		t.Fatalf("deadline %v from start, want about %v", d, DefaultGuardTimeout)
	}
}

func TestCheckGuard_KeepsCallerDeadline(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	want, _ := ctx.Deadline()

	st := &stubStore{}
	if err := CheckGuard(ctx, st); err != nil {
		t.Fatalf("CheckGuard: %v", err)
	}
	if !st.deadline.Equal(want) {
		t.Fatalf("deadline = %v, want %v", st.deadline, want)
	}
}

func TestCheckGuard_WrapsStoreError(t *testing.T) {
	t.Parallel()

	chDown := errors.New("ch: connection refused")
	err := CheckGuard(context.Background(), &stubStore{err: chDown})
	if !errors.Is(err, chDown) {
		t.Fatalf("err = %v", err)
	}
	testkit.MustContain(t, err.Error(), "dependency guard failed")
}

func TestCheckGuard_NilStore(t *testing.T) {
	t.Parallel()

	if err := CheckGuard(context.Background(), nil); err == nil {
		t.Fatalf("nil store should fail")
	}
}

func TestMustGuard(t *testing.T) {
	t.Parallel()

	testkit.MustNotPanic(t, func() { MustGuard(context.Background(), &stubStore{}) })

	defer func() {
		testkit.MustContain(t, fmt.Sprint(recover()), "pg: too many clients")
	}()
	MustGuard(context.Background(), &stubStore{err: errors.New("pg: too many clients")})
}
