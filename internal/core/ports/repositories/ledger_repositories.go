package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shikunim/building_mgmt_app/internal/core/domain"
)

// LedgerReader defines read operations for ledger entries
type LedgerReader interface {
	// FindEntryPeriodID looks up the occupancy period tagged on the
	// original entry for the given reference. Reversals use it so the
	// offsetting entry lands in the period the original charge belonged
	// to, not the apartment's current period. Returns
	// apperrors.ErrNotFound when no matching entry exists.
	FindEntryPeriodID(ctx context.Context, tx pgx.Tx, apartmentID string, refType domain.ReferenceType, refID string) (*string, error)

	// SumEntries aggregates an apartment's full ledger within a
	// transaction: credit total, debit total and the payment-credit
	// subtotal.
	SumEntries(ctx context.Context, tx pgx.Tx, apartmentID string) (domain.LedgerTotals, error)

	// ListEntriesByApartment retrieves a paginated ledger statement using
	// token-based pagination, optionally scoped to one occupancy period.
	ListEntriesByApartment(ctx context.Context, apartmentID string, periodID *string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error)
}

// LedgerWriter defines write operations for ledger entries
type LedgerWriter interface {
	// AppendEntry inserts one immutable ledger entry within a transaction.
	// There is no update or delete counterpart anywhere in this interface;
	// corrections are new offsetting entries.
	AppendEntry(ctx context.Context, tx pgx.Tx, entry domain.LedgerEntry) error
}

// LedgerRepositoryFacade combines all ledger-related repository interfaces
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
}
