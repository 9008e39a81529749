package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ycintel/internal/core/record"
	"ycintel/internal/modkit/repokit"
	perr "ycintel/internal/platform/errors"
	"ycintel/internal/platform/testkit"
	ptime "ycintel/internal/platform/time"
	changedom "ycintel/internal/services/changes/domain"
	changesvc "ycintel/internal/services/changes/service"
	"ycintel/internal/services/pipeline/domain"
	rundom "ycintel/internal/services/runs/domain"
	scoresvc "ycintel/internal/services/scoring/service"
	snapdom "ycintel/internal/services/snapshots/domain"
	snapsvc "ycintel/internal/services/snapshots/service"
)

var t0 = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

type rig struct {
	w      *world
	q      *txQ
	sup    *supplier
	runs   *tracker
	lease  *leaser
	mirror *mirror
	clock  *ptime.Fixed
	svc    *Service
}

func newRig(cfg Config, recs ...record.Raw) *rig {
	r := &rig{
		w:      newWorld(),
		q:      &txQ{},
		sup:    newSupplier(recs...),
		runs:   &tracker{},
		lease:  &leaser{},
		mirror: &mirror{},
		clock:  ptime.NewFixed(t0),
	}
	snaps := snapsvc.NewBinder(snapRepos{r.w}, r.clock)
	reader := repokit.BindFunc[changedom.SnapshotReader](func(q repokit.Queryer) changedom.SnapshotReader {
		return snaps.Bind(q)
	})
	changes := changesvc.NewBinder(reader, changeRepos{r.w}, r.clock)
	scores := scoresvc.New(r.q, scoreRepos{r.w}, scoresvc.Config{})
	if cfg.RetryBase == 0 {
		cfg.RetryBase = time.Millisecond
	}
	r.svc = New(r.q, r.lease, r.sup, repokit.Binder[snapdom.StorePort](snaps), changes, r.mirror, scores, r.runs, r.clock, cfg)
	return r
}

func (r *rig) lastTotals(t *testing.T) rundom.Totals {
	t.Helper()
	if len(r.runs.finished) != 1 {
		t.Fatalf("finish calls = %d, want exactly one per run", len(r.runs.finished))
	}
	return r.runs.finished[0]
}

func rec(key, stage string) record.Raw {
	return record.Raw{Key: key, Name: strings.ToUpper(key), Active: true, Stage: stage, Batch: "W21"}
}

func TestRun_StageChangeRaisesMomentum(t *testing.T) {
	t.Parallel()
	r := newRig(Config{}, rec("acme", "Active"))
	ctx := context.Background()

	if _, err := r.svc.Run(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	before := r.w.scoreOf("acme")

	r.clock.Advance(24 * time.Hour)
	r.sup.set(rec("acme", "Acquired"))
	r.runs.finished = nil
	sum, err := r.svc.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	tot := r.lastTotals(t)
	if tot.Status != rundom.StatusCompleted || tot.Updated != 1 || tot.Scored != 1 {
		t.Fatalf("totals = %+v", tot)
	}
	if len(r.w.changes) != 1 || r.w.changes[0].Type != "STAGE_CHANGE" {
		t.Fatalf("changes = %+v", r.w.changes)
	}
	after := r.w.scoreOf("acme")
	if after.Momentum <= before.Momentum || after.Momentum > 100 {
		t.Fatalf("momentum before=%d after=%d", before.Momentum, after.Momentum)
	}
	if sum.Totals.Updated != 1 {
		t.Fatalf("summary should carry totals: %+v", sum)
	}
	if len(r.mirror.got) != 1 {
		t.Fatalf("mirror got %d changes", len(r.mirror.got))
	}
}

func TestRun_RerunIsNoop(t *testing.T) {
	t.Parallel()
	r := newRig(Config{Workers: 2, CommitEvery: 1}, rec("a", "Active"), rec("b", "Active"), rec("c", "Public"))
	ctx := context.Background()

	if _, err := r.svc.Run(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if tot := r.lastTotals(t); tot.New != 3 || tot.Total != 3 {
		t.Fatalf("first totals = %+v", tot)
	}
	first := r.w.scoreOf("c")

	r.runs.finished = nil
	if _, err := r.svc.Run(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}
	tot := r.lastTotals(t)
	if tot.Unchanged != 3 || tot.New != 0 || tot.Updated != 0 {
		t.Fatalf("rerun totals = %+v", tot)
	}
	if len(r.w.snaps) != 3 || len(r.w.changes) != 0 {
		t.Fatalf("rerun wrote snaps=%d changes=%d", len(r.w.snaps), len(r.w.changes))
	}
	if r.w.scoreOf("c") != first {
		t.Fatalf("identical history should score identically")
	}
}

func TestRun_PartialFailure(t *testing.T) {
	t.Parallel()
	r := newRig(Config{}, rec("a", "Active"), rec("b", "Active"), rec("c", "Active"))
	r.sup.fetchErr["b"] = errors.New("connection refused")

	if _, err := r.svc.Run(context.Background()); err != nil {
		t.Fatalf("entity failures must not fail the call: %v", err)
	}
	tot := r.lastTotals(t)
	if tot.Status != rundom.StatusCompleted || tot.Total != 3 || tot.New != 2 || tot.Failed != 1 {
		t.Fatalf("totals = %+v", tot)
	}
}

func TestRun_InvalidRecordCountsFailed(t *testing.T) {
	t.Parallel()
	bad := rec("bad", "Active")
	bad.Name = "   "
	r := newRig(Config{}, rec("good", "Active"), bad)

	if _, err := r.svc.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if tot := r.lastTotals(t); tot.Failed != 1 || tot.New != 1 {
		t.Fatalf("totals = %+v", tot)
	}
	if _, ok := r.w.companies["bad"]; ok {
		t.Fatalf("invalid record must not be persisted")
	}
}

func TestRun_DedupesKeys(t *testing.T) {
	t.Parallel()
	r := newRig(Config{}, rec("a", "Active"))
	r.sup.keys = []string{"a", " a", "", "a"}

	if _, err := r.svc.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if tot := r.lastTotals(t); tot.Total != 1 || tot.New != 1 {
		t.Fatalf("totals = %+v", tot)
	}
}

func TestRun_EmptyListingCompletes(t *testing.T) {
	t.Parallel()
	r := newRig(Config{DeactivateMissing: true})

	if _, err := r.svc.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	tot := r.lastTotals(t)
	if tot.Status != rundom.StatusCompleted || tot.Total != 0 || tot.Error != "" {
		t.Fatalf("totals = %+v", tot)
	}
}

func TestRun_ListingFailureIsFailedRun(t *testing.T) {
	t.Parallel()
	r := newRig(Config{})
	r.sup.listErr = errors.New("503 from upstream")

	if _, err := r.svc.Run(context.Background()); err != nil {
		t.Fatalf("listing failure is recorded, not returned: %v", err)
	}
	tot := r.lastTotals(t)
	if tot.Status != rundom.StatusFailed {
		t.Fatalf("status = %s", tot.Status)
	}
	testkit.MustContain(t, tot.Error, "503 from upstream")
}

func TestRun_LeaseHeldWritesNoRun(t *testing.T) {
	t.Parallel()
	r := newRig(Config{Lease: true}, rec("a", "Active"))
	r.lease.held = true

	_, err := r.svc.Run(context.Background())
	if !perr.IsCode(err, perr.ErrorCodeConflict) {
		t.Fatalf("want conflict, got %v", err)
	}
	if r.runs.started != 0 || len(r.runs.finished) != 0 {
		t.Fatalf("no run row should exist: started=%d", r.runs.started)
	}
}

func TestRun_StartFailureReturned(t *testing.T) {
	t.Parallel()
	r := newRig(Config{}, rec("a", "Active"))
	r.runs.startErr = perr.DBf("pool closed")

	if _, err := r.svc.Run(context.Background()); !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("want db error, got %v", err)
	}
	if len(r.runs.finished) != 0 {
		t.Fatalf("finish without start")
	}
}

func TestRun_CancelledStillFinishes(t *testing.T) {
	t.Parallel()
	r := newRig(Config{}, rec("a", "Active"), rec("b", "Active"))
	ctx, cancel := context.WithCancel(context.Background())
	r.sup.listHook = cancel

	if _, err := r.svc.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	tot := r.lastTotals(t)
	if tot.Status != rundom.StatusCancelled || tot.Failed != 2 {
		t.Fatalf("totals = %+v", tot)
	}
}

func TestRun_PanicRecordedAsFailed(t *testing.T) {
	t.Parallel()
	r := newRig(Config{})
	r.sup.listHook = func() { panic("boom") }

	testkit.MustNotPanic(t, func() {
		if _, err := r.svc.Run(context.Background()); err != nil {
			t.Errorf("run: %v", err)
		}
	})
	tot := r.lastTotals(t)
	if tot.Status != rundom.StatusFailed {
		t.Fatalf("status = %s", tot.Status)
	}
	testkit.MustContain(t, tot.Error, "panic: boom")
}

func TestRun_CommitFailureFailsWholeChunk(t *testing.T) {
	t.Parallel()
	r := newRig(Config{CommitEvery: 2, MaxRetries: 1}, rec("a", "Active"), rec("b", "Active"), rec("c", "Active"))
	r.q.commitErrs = []error{errors.New("commit: connection lost")}

	if _, err := r.svc.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	tot := r.lastTotals(t)
	if tot.Failed != 2 || tot.New != 1 {
		t.Fatalf("totals = %+v", tot)
	}
}

func TestRun_DeactivatesMissing(t *testing.T) {
	t.Parallel()
	r := newRig(Config{DeactivateMissing: true}, rec("a", "Active"), rec("b", "Active"))
	ctx := context.Background()
	if _, err := r.svc.Run(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}

	r.sup.set(rec("a", "Active"))
	sum, err := r.svc.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if sum.Deactivated != 1 || r.w.activeKey("b") || !r.w.activeKey("a") {
		t.Fatalf("deactivated=%d", sum.Deactivated)
	}
}

func TestScoreOnly(t *testing.T) {
	t.Parallel()
	r := newRig(Config{}, rec("a", "Active"))
	ctx := context.Background()
	if _, err := r.svc.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	r.runs.finished = nil

	sum, err := r.svc.ScoreOnly(ctx)
	if err != nil {
		t.Fatalf("score only: %v", err)
	}
	tot := r.lastTotals(t)
	if tot.Status != rundom.StatusCompleted || tot.Scored != 1 || tot.Total != 0 {
		t.Fatalf("totals = %+v", tot)
	}
	if sum.RunID.String() == "" {
		t.Fatalf("summary missing run id")
	}
}

func TestFetchAll(t *testing.T) {
	t.Parallel()
	sup := newSupplier(rec("a", "Active"), rec("b", "Public"))
	got, err := domain.FetchAll(context.Background(), sup)
	if err != nil || len(got) != 2 || got[1].Stage != "Public" {
		t.Fatalf("got=%+v err=%v", got, err)
	}

	sup.fetchErr["b"] = errors.New("gone")
	if _, err := domain.FetchAll(context.Background(), sup); err == nil {
		t.Fatalf("fetch failure should surface")
	}
}

func TestDedupe(t *testing.T) {
	t.Parallel()
	got := dedupe([]string{"b", "a", "b", " ", "a "})
	if strings.Join(got, ",") != "b,a" {
		t.Fatalf("dedupe = %v", got)
	}
}

func TestNew_RequiresPorts(t *testing.T) {
	t.Parallel()
	testkit.MustPanic(t, func() { New(nil, nil, nil, nil, nil, nil, nil, nil, nil, Config{}) })
}
