package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/shikunim/building_mgmt_app/internal/apperrors"
	"github.com/shikunim/building_mgmt_app/internal/core/domain"
	portsrepo "github.com/shikunim/building_mgmt_app/internal/core/ports/repositories"
)

type PgxOccupancyRepository struct {
	pool *pgxpool.Pool
}

// newPgxOccupancyRepository creates a new repository for occupancy periods.
func newPgxOccupancyRepository(pool *pgxpool.Pool) portsrepo.OccupancyRepositoryFacade {
	return &PgxOccupancyRepository{pool: pool}
}

var _ portsrepo.OccupancyRepositoryFacade = (*PgxOccupancyRepository)(nil)

const periodColumns = `period_id, apartment_id, tenant_name, start_date, end_date, status, closing_balance,
		created_at, created_by, last_updated_at, last_updated_by`

func scanPeriod(row pgx.Row) (*domain.OccupancyPeriod, error) {
	var p domain.OccupancyPeriod
	err := row.Scan(
		&p.PeriodID,
		&p.ApartmentID,
		&p.TenantName,
		&p.StartDate,
		&p.EndDate,
		&p.Status,
		&p.ClosingBalance,
		&p.CreatedAt,
		&p.CreatedBy,
		&p.LastUpdatedAt,
		&p.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// OpenPeriod inserts a new open occupancy period. A partial unique index
// on (apartment_id) WHERE status = 'OPEN' guarantees at most one open
// period per apartment.
func (r *PgxOccupancyRepository) OpenPeriod(ctx context.Context, tx pgx.Tx, period domain.OccupancyPeriod) error {
	query := `
		INSERT INTO occupancy_periods (period_id, apartment_id, tenant_name, start_date, end_date, status, closing_balance,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := tx.Exec(ctx, query,
		period.PeriodID,
		period.ApartmentID,
		period.TenantName,
		period.StartDate,
		period.EndDate,
		period.Status,
		period.ClosingBalance,
		period.CreatedAt,
		period.CreatedBy,
		period.LastUpdatedAt,
		period.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: apartment %s already has an open period", apperrors.ErrConflict, period.ApartmentID)
		}
		return fmt.Errorf("failed to open occupancy period %s: %w", period.PeriodID, err)
	}
	return nil
}

// ClosePeriod stamps the end date and closing balance snapshot.
func (r *PgxOccupancyRepository) ClosePeriod(ctx context.Context, tx pgx.Tx, periodID string, endDate time.Time, closingBalance decimal.Decimal, userID string, now time.Time) error {
	query := `
		UPDATE occupancy_periods
		SET end_date = $2, status = $3, closing_balance = $4, last_updated_at = $5, last_updated_by = $6
		WHERE period_id = $1 AND status = $7;
	`
	tag, err := tx.Exec(ctx, query, periodID, endDate, domain.PeriodClosed, closingBalance, now, userID, domain.PeriodOpen)
	if err != nil {
		return fmt.Errorf("failed to close occupancy period %s: %w", periodID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: open occupancy period %s", apperrors.ErrNotFound, periodID)
	}
	return nil
}

// FindActivePeriod retrieves the open period of an apartment within the
// transaction. ErrNotFound means the apartment is vacant.
func (r *PgxOccupancyRepository) FindActivePeriod(ctx context.Context, tx pgx.Tx, apartmentID string) (*domain.OccupancyPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM occupancy_periods WHERE apartment_id = $1 AND status = $2;`
	period, err := scanPeriod(tx.QueryRow(ctx, query, apartmentID, domain.PeriodOpen))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find active period for apartment %s: %w", apartmentID, err)
	}
	return period, nil
}

// FindPeriodByID retrieves a specific occupancy period.
func (r *PgxOccupancyRepository) FindPeriodByID(ctx context.Context, periodID string) (*domain.OccupancyPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM occupancy_periods WHERE period_id = $1;`
	period, err := scanPeriod(r.pool.QueryRow(ctx, query, periodID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find occupancy period %s: %w", periodID, err)
	}
	return period, nil
}

// ListPeriodsByApartment retrieves all periods of an apartment, newest first.
func (r *PgxOccupancyRepository) ListPeriodsByApartment(ctx context.Context, apartmentID string) ([]domain.OccupancyPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM occupancy_periods WHERE apartment_id = $1 ORDER BY start_date DESC, period_id;`
	rows, err := r.pool.Query(ctx, query, apartmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query occupancy periods for apartment %s: %w", apartmentID, err)
	}
	defer rows.Close()

	var periods []domain.OccupancyPeriod
	for rows.Next() {
		period, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan occupancy period row: %w", err)
		}
		periods = append(periods, *period)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating occupancy period rows: %w", err)
	}
	return periods, nil
}
