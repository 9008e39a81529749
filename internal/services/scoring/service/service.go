// Package service implements the score engine over persisted change history
package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"ycintel/internal/core/score"
	"ycintel/internal/modkit/repokit"
	perr "ycintel/internal/platform/errors"
	"ycintel/internal/platform/guardrails"
	"ycintel/internal/platform/logger"
	"ycintel/internal/services/scoring/domain"
)

// Config holds batch tuning for the score engine
type Config struct {
	Workers     int // parallel chunks; <=0 -> 1
	CommitEvery int // companies per transaction; <=0 -> 100

	// chunk commit retry
	MaxRetries int
	RetryBase  time.Duration

	// DB bounds one chunk transaction; zero means no extra bound
	DB time.Duration
}

// Service implements domain.ScorePort
type Service struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[domain.StorageRepo]
	Cfg    Config
}

var _ domain.ScorePort = (*Service)(nil)

// New constructs the score engine
func New(db repokit.TxRunner, binder repokit.Binder[domain.StorageRepo], cfg Config) *Service {
	if db == nil {
		panic("scoring.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("scoring.Service requires a non nil Repo binder")
	}
	return &Service{DB: db, Binder: binder, Cfg: cfg}
}

// Recompute scores one company. A scoring error leaves the stored score untouched
func (s *Service) Recompute(ctx context.Context, companyID int64, now time.Time) (score.Result, error) {
	var out score.Result
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		r := s.Binder.Bind(q)
		rows, err := r.Histories(ctx, []int64{companyID})
		if err != nil {
			return err
		}
		res, err := compute(rows, now)
		if err != nil {
			return err
		}
		if err := r.Upsert(ctx, companyID, res, now); err != nil {
			return err
		}
		out = res
		return nil
	})
	return out, err
}

// RecomputeScorable scores every company that has at least one snapshot
func (s *Service) RecomputeScorable(ctx context.Context, now time.Time) (domain.BatchResult, error) {
	ids, err := s.Binder.Bind(s.DB).ScorableIDs(ctx)
	if err != nil {
		return domain.BatchResult{}, err
	}
	return s.RecomputeAll(ctx, ids, now)
}

// RecomputeAll scores ids in chunks of CommitEvery, one transaction per chunk,
// with up to Workers chunks in flight. now is shared by every chunk so equal
// histories give equal scores within one pass
func (s *Service) RecomputeAll(ctx context.Context, ids []int64, now time.Time) (domain.BatchResult, error) {
	if len(ids) == 0 {
		return domain.BatchResult{}, nil
	}
	size := s.Cfg.CommitEvery
	if size <= 0 {
		size = 100
	}
	chunks := guardrails.Chunks(ids, size)

	var (
		mu  sync.Mutex
		tot domain.BatchResult
	)
	skipped := guardrails.Pool(ctx, s.Cfg.Workers, chunks, func(ctx context.Context, chunk []int64) {
		res, err := s.guardedChunk(ctx, chunk, now)
		if err != nil {
			logger.C(ctx).Error().Err(err).Int("companies", len(chunk)).Msg("scoring: chunk failed")
			res = domain.BatchResult{Failed: len(chunk)}
		}
		mu.Lock()
		tot.Add(res)
		mu.Unlock()
	})

	if skipped > 0 {
		for _, c := range chunks[len(chunks)-skipped:] {
			tot.Failed += len(c)
		}
		return tot, ctx.Err()
	}
	return tot, nil
}

// guardedChunk turns a panic inside one chunk into an error so the whole chunk
// counts as failed and the run bookkeeping still finishes
func (s *Service) guardedChunk(ctx context.Context, chunk []int64, now time.Time) (res domain.BatchResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.C(ctx).Error().Str("panic", fmt.Sprint(rec)).Bytes("stack", debug.Stack()).
				Int64("first_id", chunk[0]).Msg("scoring: chunk panicked")
			res, err = domain.BatchResult{}, perr.PanicErrf("scoring chunk: %v", rec)
		}
	}()
	return s.chunkWithRetry(ctx, chunk, now)
}

func (s *Service) chunkWithRetry(ctx context.Context, chunk []int64, now time.Time) (domain.BatchResult, error) {
	var res domain.BatchResult
	err := guardrails.Retry(ctx, guardrails.Backoff{Attempts: s.Cfg.MaxRetries, Base: s.Cfg.RetryBase}, func(ctx context.Context) error {
		r, err := s.scoreChunk(ctx, chunk, now)
		res = r
		return err
	})
	return res, err
}

// scoreChunk scores one chunk in a single transaction. Scoring errors skip
// the company; an upsert failure rolls back only that company's savepoint
func (s *Service) scoreChunk(ctx context.Context, chunk []int64, now time.Time) (domain.BatchResult, error) {
	dbCtx, cancel := guardrails.ForDB(ctx, guardrails.Timeouts{DB: s.Cfg.DB})
	defer cancel()

	var res domain.BatchResult
	err := s.DB.Tx(dbCtx, func(q repokit.Queryer) error {
		res = domain.BatchResult{}
		r := s.Binder.Bind(q)
		rows, err := r.Histories(dbCtx, chunk)
		if err != nil {
			return err
		}
		byID := make(map[int64][]domain.HistoryRow, len(chunk))
		for _, h := range rows {
			byID[h.CompanyID] = append(byID[h.CompanyID], h)
		}

		for _, id := range chunk {
			sc, err := compute(byID[id], now)
			if err != nil {
				logger.C(ctx).Warn().Err(err).Int64("company_id", id).Msg("scoring: history rejected, prior score kept")
				res.Failed++
				continue
			}
			err = repokit.Savepoint(dbCtx, q, func(q repokit.Queryer) error {
				return s.Binder.Bind(q).Upsert(dbCtx, id, sc, now)
			})
			if err != nil {
				if perr.Retryable(err) {
					return err
				}
				logger.C(ctx).Error().Err(err).Int64("company_id", id).Msg("scoring: upsert failed")
				res.Failed++
				continue
			}
			res.Scored++
		}
		return nil
	})
	return res, err
}

// compute converts persisted rows to events and runs the pure scorer
func compute(rows []domain.HistoryRow, now time.Time) (score.Result, error) {
	events := make([]score.Event, 0, len(rows))
	for _, h := range rows {
		k, err := score.ParseKind(h.ChangeType)
		if err != nil {
			return score.Result{}, err
		}
		events = append(events, score.Event{Kind: k, At: h.DetectedAt})
	}
	return score.Compute(events, now)
}
