package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"ycintel/internal/adapters/supplier"
	"ycintel/internal/modkit"
	"ycintel/internal/modkit/repokit"
	"ycintel/internal/platform/config"
	"ycintel/internal/platform/logger"
	"ycintel/internal/platform/store"
	rundom "ycintel/internal/services/runs/domain"

	pipelinedom "ycintel/internal/services/pipeline/domain"
	pipelinemod "ycintel/internal/services/pipeline/module"
)

func main() { os.Exit(run()) }

func run() int {
	var (
		fScoreOnly = flag.Bool("score-only", false, "recompute every score under a new run row and exit")
		fMigrate   = flag.Bool("migrate", false, "apply pending migrations before the run")
	)
	flag.Parse()

	root := config.New()
	l := logger.Get()

	// SIGINT/SIGTERM cancel the run, the tracker still records partial totals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// pool must cover every worker plus the run bookkeeping
	workers := pipelinemod.FromConfig(root).Workers
	cfg := store.ConfigFromEnv(root, "run", max(workers, 1)+1)

	if *fMigrate {
		v, err := store.Migrate(ctx, cfg.PG.URL, *l)
		if err != nil {
			l.Error().Err(err).Msg("migrate failed")
			return 1
		}
		l.Info().Uint("version", v).Msg("schema up to date")
	}

	st, err := store.Open(ctx, cfg, store.WithLogger(*l))
	if err != nil {
		l.Error().Err(err).Msg("store.Open failed")
		return 1
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	if err := repokit.CheckGuard(ctx, st); err != nil {
		l.Error().Err(err).Msg("backends not ready")
		return 1
	}

	sup, err := supplier.FromConfig(root)
	if err != nil {
		l.Error().Err(err).Msg("supplier config invalid")
		return 1
	}

	deps := modkit.FromStore(st, root)
	runner := pipelinemod.New(deps, sup).Ports().Runner

	var sum pipelinedom.Summary
	if *fScoreOnly {
		sum, err = runner.ScoreOnly(ctx)
	} else {
		sum, err = runner.Run(ctx)
	}
	if err != nil {
		l.Error().Err(err).Msg("run failed")
		return 1
	}

	if sum.Totals.Status != rundom.StatusCompleted {
		l.Warn().
			Str("run_id", sum.RunID.String()).
			Str("status", string(sum.Totals.Status)).
			Str("error", sum.Totals.Error).
			Msg("run did not complete")
		return 2
	}
	return 0
}
