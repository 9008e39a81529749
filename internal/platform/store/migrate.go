package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ycintel/internal/platform/logger"
	"ycintel/internal/platform/store/migrations"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // pgx5:// driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Migrate applies every pending embedded migration and returns the schema version.
// Cancelling ctx stops after the migration in flight
func Migrate(ctx context.Context, url string, log logger.Logger) (uint, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return 0, fmt.Errorf("migrate: source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(url))
	if err != nil {
		return 0, fmt.Errorf("migrate: init: %w", err)
	}
	defer func() { _, _ = m.Close() }()
	m.Log = migrateLog{log: log}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-done:
		}
	}()
	err = m.Up()
	close(done)
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("migrate: up: %w", err)
	}

	v, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("migrate: version: %w", err)
	case dirty:
		return v, fmt.Errorf("migrate: schema version %d is dirty", v)
	}
	return v, nil
}

// migrateURL rewrites a libpq style url onto the pgx5 driver scheme
func migrateURL(url string) string {
	for _, p := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(url, p) {
			return "pgx5://" + strings.TrimPrefix(url, p)
		}
	}
	return url
}

type migrateLog struct{ log logger.Logger }

func (l migrateLog) Printf(format string, v ...any) {
	l.log.Info().Str("component", "migrate").Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLog) Verbose() bool { return false }
