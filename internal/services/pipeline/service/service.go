// Package service implements the pipeline orchestrator: one run lists the
// supplier, snapshots and diffs every company in chunked transactions, then
// rescores and records the run
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"ycintel/internal/core/record"
	"ycintel/internal/modkit/repokit"
	perr "ycintel/internal/platform/errors"
	"ycintel/internal/platform/guardrails"
	"ycintel/internal/platform/logger"
	"ycintel/internal/platform/store"
	ptime "ycintel/internal/platform/time"
	changedom "ycintel/internal/services/changes/domain"
	"ycintel/internal/services/pipeline/domain"
	rundom "ycintel/internal/services/runs/domain"
	scoredom "ycintel/internal/services/scoring/domain"
	snapdom "ycintel/internal/services/snapshots/domain"
)

// Config holds configuration options for the orchestrator
type Config struct {
	Workers     int // parallel chunks; <=0 -> 1
	CommitEvery int // companies per transaction; <=0 -> 50

	FetchTimeout time.Duration // one supplier fetch
	RunTimeout   time.Duration // whole execution, 0 = unbounded
	ChunkTimeout time.Duration // one chunk transaction

	// SET LOCAL limits applied at the start of every chunk tx
	StatementTimeout time.Duration
	LockTimeout      time.Duration

	// chunk commit retry
	MaxRetries int
	RetryBase  time.Duration

	// FinishTimeout bounds the deferred run bookkeeping
	FinishTimeout time.Duration

	DeactivateMissing bool

	// Lease guards against two executions at once; LeaseName keys the advisory lock
	Lease     bool
	LeaseName string
}

// Service implements domain.RunnerPort
type Service struct {
	DB       repokit.TxRunner
	Leaser   store.Leaser // optional
	Supplier domain.Supplier
	Snaps    repokit.Binder[snapdom.StorePort]
	Changes  repokit.Binder[changedom.DetectorPort]
	Mirror   changedom.Mirror // optional
	Scores   scoredom.ScorePort
	Runs     rundom.TrackerPort
	Clock    ptime.Clock
	Cfg      Config

	tx repokit.TxRunner
}

var _ domain.RunnerPort = (*Service)(nil)

// New constructs the orchestrator. Leaser and Mirror may be nil
func New(
	db repokit.TxRunner,
	leaser store.Leaser,
	sup domain.Supplier,
	snaps repokit.Binder[snapdom.StorePort],
	changes repokit.Binder[changedom.DetectorPort],
	mirror changedom.Mirror,
	scores scoredom.ScorePort,
	runs rundom.TrackerPort,
	clock ptime.Clock,
	cfg Config,
) *Service {
	switch {
	case db == nil:
		panic("pipeline.Service requires a non nil TxRunner")
	case sup == nil:
		panic("pipeline.Service requires a supplier")
	case snaps == nil || changes == nil:
		panic("pipeline.Service requires snapshot and change binders")
	case scores == nil || runs == nil:
		panic("pipeline.Service requires score engine and run tracker")
	}
	if cfg.LeaseName == "" {
		cfg.LeaseName = "tracker-run"
	}
	return &Service{
		DB: db, Leaser: leaser, Supplier: sup,
		Snaps: snaps, Changes: changes, Mirror: mirror,
		Scores: scores, Runs: runs,
		Clock: ptime.OrSystem(clock),
		Cfg:   cfg,
		tx:    repokit.WithBeginHooks(db, repokit.LocalTimeouts(cfg.StatementTimeout, cfg.LockTimeout)),
	}
}

// Run performs one execution under the run lease. Only lease, Start and
// Finish failures are returned; everything else lands in the run row
func (s *Service) Run(ctx context.Context) (domain.Summary, error) {
	var sum domain.Summary
	err := s.leased(ctx, func(ctx context.Context) error {
		var err error
		sum, err = s.execute(ctx, s.ingest)
		return err
	})
	return sum, err
}

// ScoreOnly rescores every snapshotted company under its own run row
func (s *Service) ScoreOnly(ctx context.Context) (domain.Summary, error) {
	var sum domain.Summary
	err := s.leased(ctx, func(ctx context.Context) error {
		var err error
		sum, err = s.execute(ctx, func(ctx context.Context, acc *accumulator, sum *domain.Summary) (rundom.Status, string) {
			return s.score(ctx, acc)
		})
		return err
	})
	return sum, err
}

func (s *Service) leased(ctx context.Context, do func(context.Context) error) error {
	var l store.Leaser
	if s.Cfg.Lease {
		l = s.Leaser
	}
	return guardrails.Lease(ctx, l, s.Cfg.LeaseName, do)
}

type phase func(ctx context.Context, acc *accumulator, sum *domain.Summary) (rundom.Status, string)

// execute brackets body with Start and a deferred Finish that runs exactly
// once, on a detached context, even when body panics or ctx is cancelled
func (s *Service) execute(ctx context.Context, body phase) (sum domain.Summary, retErr error) {
	id, err := s.Runs.Start(ctx)
	if err != nil {
		return sum, err
	}
	sum.RunID = id
	ctx = logger.WithRun(ctx, id.String())
	log := logger.C(ctx)

	acc := &accumulator{}
	status, errText := rundom.StatusFailed, "run aborted"
	started := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("panic", fmt.Sprint(rec)).Bytes("stack", debug.Stack()).Msg("pipeline: run panicked")
			status, errText = rundom.StatusFailed, fmt.Sprintf("panic: %v", rec)
		}
		sum.Totals = acc.totals(status, errText)

		fctx, cancel := guardrails.Detached(ctx, s.Cfg.FinishTimeout)
		defer cancel()
		if err := s.Runs.Finish(fctx, id, sum.Totals); err != nil {
			log.Error().Err(err).Msg("pipeline: finish run failed")
			if retErr == nil {
				retErr = err
			}
		}

		t := sum.Totals
		log.Info().
			Str("status", string(t.Status)).
			Int("total", t.Total).
			Int("new", t.New).
			Int("updated", t.Updated).
			Int("unchanged", t.Unchanged).
			Int("failed", t.Failed).
			Int("scored", t.Scored).
			Float64("avg_ms", t.AvgMS).
			Dur("elapsed", time.Since(started)).
			Msg("run finished")
	}()

	runCtx, cancel := guardrails.WithRun(ctx, guardrails.Timeouts{Run: s.Cfg.RunTimeout})
	defer cancel()

	status, errText = body(runCtx, acc, &sum)
	return sum, nil
}

// ingest is the full FETCH, SNAPSHOT, DETECT loop followed by the scoring batch
func (s *Service) ingest(ctx context.Context, acc *accumulator, sum *domain.Summary) (rundom.Status, string) {
	log := logger.C(ctx)

	keys, err := s.Supplier.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("pipeline: supplier listing failed")
		return rundom.StatusFailed, "list: " + err.Error()
	}
	keys = dedupe(keys)
	acc.setTotal(len(keys))
	log.Info().Int("companies", len(keys)).Msg("pipeline: listing received")

	size := s.Cfg.CommitEvery
	if size <= 0 {
		size = 50
	}
	chunks := guardrails.Chunks(keys, size)
	skipped := guardrails.Pool(ctx, s.Cfg.Workers, chunks, func(ctx context.Context, chunk []string) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Str("panic", fmt.Sprint(rec)).Bytes("stack", debug.Stack()).Msg("pipeline: chunk panicked")
				acc.fail(len(chunk))
			}
		}()
		s.processChunk(ctx, chunk, acc)
	})
	if skipped > 0 {
		for _, c := range chunks[len(chunks)-skipped:] {
			acc.fail(len(c))
		}
	}
	if st, text, stop := interrupted(ctx); stop {
		return st, text
	}

	if s.Cfg.DeactivateMissing && len(keys) > 0 {
		n, err := s.Snaps.Bind(s.DB).DeactivateMissing(ctx, keys)
		if err != nil {
			log.Error().Err(err).Msg("pipeline: deactivate missing failed")
		} else {
			sum.Deactivated = n
			log.Info().Int64("deactivated", n).Msg("pipeline: absent companies deactivated")
		}
	}

	return s.score(ctx, acc)
}

// score runs the batch pass with one now for the whole population
func (s *Service) score(ctx context.Context, acc *accumulator) (rundom.Status, string) {
	res, err := s.Scores.RecomputeScorable(ctx, s.Clock.Now())
	acc.setScored(res.Scored)
	if st, text, stop := interrupted(ctx); stop {
		return st, text
	}
	if err != nil {
		logger.C(ctx).Error().Err(err).Msg("pipeline: scoring batch failed")
		return rundom.StatusFailed, "score: " + err.Error()
	}
	if res.Failed > 0 {
		logger.C(ctx).Warn().Int("failed", res.Failed).Msg("pipeline: some companies kept their prior score")
	}
	return rundom.StatusCompleted, ""
}

// processChunk runs one chunk as a single transaction with commit retries.
// When the chunk cannot commit every entity in it is counted failed
func (s *Service) processChunk(ctx context.Context, chunk []string, acc *accumulator) {
	type result struct {
		key     string
		outcome outcome
		elapsed time.Duration
		changes []changedom.Change
	}
	var results []result

	err := guardrails.Retry(ctx, guardrails.Backoff{Attempts: s.Cfg.MaxRetries, Base: s.Cfg.RetryBase}, func(ctx context.Context) error {
		results = results[:0]
		dbCtx, cancel := guardrails.ForDB(ctx, guardrails.Timeouts{DB: s.Cfg.ChunkTimeout})
		defer cancel()
		return s.tx.Tx(dbCtx, func(q repokit.Queryer) error {
			for _, key := range chunk {
				if err := dbCtx.Err(); err != nil {
					return err
				}
				t0 := time.Now()
				o, cs := s.processEntity(dbCtx, q, key)
				results = append(results, result{key: key, outcome: o, elapsed: time.Since(t0), changes: cs})
			}
			return nil
		})
	})
	if err != nil {
		logger.C(ctx).Error().Err(err).Int("companies", len(chunk)).Str("first_key", chunk[0]).Msg("pipeline: chunk rolled back")
		acc.fail(len(chunk))
		return
	}

	var committed []changedom.Change
	for _, r := range results {
		acc.add(r.outcome, r.elapsed)
		committed = append(committed, r.changes...)
	}
	if s.Mirror != nil && len(committed) > 0 {
		// best effort; the mirror logs its own failures
		_ = s.Mirror.Mirror(ctx, committed)
	}
}

// processEntity is FETCH, SNAPSHOT, DETECT for one key inside its own savepoint.
// Any failure rolls back only this entity's work
func (s *Service) processEntity(ctx context.Context, q repokit.Queryer, key string) (outcome, []changedom.Change) {
	log := logger.C(ctx).With().Str("key", key).Logger()

	rec, err := s.fetch(ctx, key)
	if err != nil {
		log.Warn().Err(err).Msg("pipeline: fetch failed")
		return outcomeFailed, nil
	}

	var (
		o  outcome
		cs []changedom.Change
	)
	err = repokit.Savepoint(ctx, q, func(q repokit.Queryer) error {
		st := s.Snaps.Bind(q)
		id, err := st.UpsertCompany(ctx, rec)
		if err != nil {
			return err
		}
		res, err := st.WriteIfChanged(ctx, id, rec.Fields())
		if err != nil {
			return err
		}
		switch {
		case !res.Written:
			o = outcomeUnchanged
			return nil
		case res.First:
			o = outcomeNew
			return nil
		}
		o = outcomeUpdated
		cs, err = s.Changes.Bind(q).Detect(ctx, id)
		return err
	})
	if err != nil {
		log.Warn().Err(err).Msg("pipeline: persist failed")
		return outcomeFailed, nil
	}
	log.Debug().Stringer("outcome", o).Int("changes", len(cs)).Msg("pipeline: company processed")
	return o, cs
}

// fetch pulls and validates one raw record under the fetch budget
func (s *Service) fetch(ctx context.Context, key string) (record.Raw, error) {
	fctx, cancel := guardrails.ForFetch(ctx, guardrails.Timeouts{Fetch: s.Cfg.FetchTimeout})
	defer cancel()

	rec, err := s.Supplier.Fetch(fctx, key)
	if err != nil {
		if perr.CodeOf(err) == perr.ErrorCodeUnknown {
			err = perr.Wrapf(err, perr.ErrorCodeSupply, "fetch %q", key)
		}
		return record.Raw{}, err
	}
	if rec.Key == "" {
		rec.Key = key
	}
	if err := rec.Validate(); err != nil {
		return record.Raw{}, perr.Wrapf(err, perr.ErrorCodeSupply, "record %q invalid", key)
	}
	return rec, nil
}

// interrupted maps a dead run context onto the run status
func interrupted(ctx context.Context) (rundom.Status, string, bool) {
	switch err := ctx.Err(); {
	case err == nil:
		return "", "", false
	case errors.Is(err, context.DeadlineExceeded):
		return rundom.StatusFailed, "run timeout exceeded", true
	default:
		return rundom.StatusCancelled, err.Error(), true
	}
}

// dedupe drops blank and repeated keys, keeping first-seen order
func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return slices.Clip(out)
}
