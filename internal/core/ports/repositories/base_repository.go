package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TransactionManager defines methods for transaction management
type TransactionManager interface {
	// Begin starts a new database transaction
	Begin(ctx context.Context) (pgx.Tx, error)

	// Commit commits a transaction
	Commit(ctx context.Context, tx pgx.Tx) error

	// Rollback rolls back a transaction
	Rollback(ctx context.Context, tx pgx.Tx) error

	// WithTransaction runs fn inside a transaction: rollback on any error,
	// commit on normal return. Every logical ledger action runs through
	// this so a failure mid-sequence leaves no partial split.
	WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error
}
