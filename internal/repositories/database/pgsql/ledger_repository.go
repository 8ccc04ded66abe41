package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shikunim/building_mgmt_app/internal/apperrors"
	"github.com/shikunim/building_mgmt_app/internal/core/domain"
	portsrepo "github.com/shikunim/building_mgmt_app/internal/core/ports/repositories"
	"github.com/shikunim/building_mgmt_app/internal/utils/pagination"
)

// PgxLedgerRepository persists the append-only ledger. It deliberately has
// no UPDATE or DELETE statement for ledger_entries anywhere.
type PgxLedgerRepository struct {
	pool *pgxpool.Pool
}

// newPgxLedgerRepository creates a new repository for ledger entries.
func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{pool: pool}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

const ledgerColumns = `entry_id, apartment_id, entry_type, amount, description, reference_type, reference_id, period_id,
		created_at, created_by, last_updated_at, last_updated_by`

func scanLedgerEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	err := row.Scan(
		&e.EntryID,
		&e.ApartmentID,
		&e.EntryType,
		&e.Amount,
		&e.Description,
		&e.ReferenceType,
		&e.ReferenceID,
		&e.PeriodID,
		&e.CreatedAt,
		&e.CreatedBy,
		&e.LastUpdatedAt,
		&e.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// AppendEntry inserts one immutable ledger entry within a transaction.
func (r *PgxLedgerRepository) AppendEntry(ctx context.Context, tx pgx.Tx, entry domain.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (entry_id, apartment_id, entry_type, amount, description, reference_type, reference_id, period_id,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := tx.Exec(ctx, query,
		entry.EntryID,
		entry.ApartmentID,
		entry.EntryType,
		entry.Amount,
		entry.Description,
		entry.ReferenceType,
		entry.ReferenceID,
		entry.PeriodID,
		entry.CreatedAt,
		entry.CreatedBy,
		entry.LastUpdatedAt,
		entry.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry %s: %w", entry.EntryID, err)
	}
	return nil
}

// FindEntryPeriodID looks up the period tagged on the earliest entry for
// the given reference.
func (r *PgxLedgerRepository) FindEntryPeriodID(ctx context.Context, tx pgx.Tx, apartmentID string, refType domain.ReferenceType, refID string) (*string, error) {
	query := `
		SELECT period_id
		FROM ledger_entries
		WHERE apartment_id = $1 AND reference_type = $2 AND reference_id = $3
		ORDER BY created_at, entry_id
		LIMIT 1;
	`
	var periodID *string
	err := tx.QueryRow(ctx, query, apartmentID, refType, refID).Scan(&periodID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find entry period for %s %s: %w", refType, refID, err)
	}
	return periodID, nil
}

// SumEntries aggregates an apartment's full ledger within a transaction.
func (r *PgxLedgerRepository) SumEntries(ctx context.Context, tx pgx.Tx, apartmentID string) (domain.LedgerTotals, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE entry_type = $2), 0),
			COALESCE(SUM(amount) FILTER (WHERE entry_type = $3), 0),
			COALESCE(SUM(amount) FILTER (WHERE entry_type = $2 AND reference_type = $4), 0),
			COALESCE(SUM(amount) FILTER (WHERE entry_type = $3 AND reference_type = $5), 0)
		FROM ledger_entries
		WHERE apartment_id = $1;
	`
	var totals domain.LedgerTotals
	err := tx.QueryRow(ctx, query, apartmentID, domain.Credit, domain.Debit, domain.RefPayment, domain.RefReversal).Scan(
		&totals.Credits,
		&totals.Debits,
		&totals.Payments,
		&totals.PaymentReversals,
	)
	if err != nil {
		return domain.LedgerTotals{}, fmt.Errorf("failed to sum ledger entries for apartment %s: %w", apartmentID, err)
	}
	return totals, nil
}

// ListEntriesByApartment retrieves a paginated statement, newest first,
// optionally scoped to one occupancy period.
func (r *PgxLedgerRepository) ListEntriesByApartment(ctx context.Context, apartmentID string, periodID *string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE apartment_id = $1`
	args := []interface{}{apartmentID}
	if periodID != nil {
		args = append(args, *periodID)
		query += fmt.Sprintf(` AND period_id = $%d`, len(args))
	}
	if nextToken != nil {
		cursorAt, cursorID, err := pagination.DecodeCursor(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		args = append(args, cursorAt, cursorID)
		query += fmt.Sprintf(` AND (created_at, entry_id) < ($%d, $%d)`, len(args)-1, len(args))
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, entry_id DESC LIMIT %d;`, limit+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query ledger entries for apartment %s: %w", apartmentID, err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan ledger entry row: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating ledger entry rows: %w", err)
	}

	var newToken *string
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[limit-1]
		token := pagination.EncodeCursor(last.CreatedAt, last.EntryID)
		newToken = &token
	}
	return entries, newToken, nil
}
