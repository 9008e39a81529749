package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ycintel/internal/platform/config"
	"ycintel/internal/platform/logger"
	"ycintel/internal/platform/store"
)

func main() {
	l := logger.Get()
	pgCfg := config.New().Prefix("SERVICE_PGSQL_")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	v, err := store.Migrate(ctx, pgCfg.MustString("DBURL"), *l)
	if err != nil {
		stop()
		l.Fatal().Err(err).Msg("migrate failed")
	}
	l.Info().Uint("version", v).Msg("schema up to date")
}
