//go:build integration_pg

// Package pgtest starts a disposable, migrated Postgres for integration tests
package pgtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ycintel/internal/platform/store"

	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Start launches postgres:16-alpine, applies the embedded migrations and returns an open Store.
// Everything is torn down on test cleanup
func Start(t *testing.T) (*store.Store, string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	t.Cleanup(cancel)

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "tracker",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithDeadline(2 * time.Minute),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	mp, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get mapped port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://postgres:postgres@%s:%s/tracker?sslmode=disable", host, mp.Port())

	if _, err := store.Migrate(ctx, dsn, zerolog.Nop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	st, err := store.Open(ctx, store.Config{
		AppName: "ycintel-it",
		PG:      store.PGConfig{Enabled: true, URL: dsn, MaxConns: 8, SlowQueryMs: -1},
	}, store.WithLogger(zerolog.Nop()))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	return st, dsn
}
