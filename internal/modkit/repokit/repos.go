// Package repokit provides common types and helpers for repository implementations
package repokit

import (
	"context"

	"ycintel/internal/platform/store"
)

// Queryer is the minimal read and write surface for SQL repos
type Queryer = store.RowQuerier

// TxRunner can execute a function inside a transaction
type TxRunner = store.TxRunner

type (
	// Rows are the result set of a query
	Rows = store.Rows

	// Row is a single row result from a query
	Row = store.Row

	// CommandTag is the result of a command that modifies data
	CommandTag = store.CommandTag
)

// Savepoint runs fn in a nested transaction when q is tx bound.
// A failing fn only rolls back its own work
func Savepoint(ctx context.Context, q Queryer, fn func(q Queryer) error) error {
	return store.Savepoint(ctx, q, fn)
}
