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

type PgxApartmentRepository struct {
	pool *pgxpool.Pool
}

// newPgxApartmentRepository creates a new repository for apartment data.
func newPgxApartmentRepository(pool *pgxpool.Pool) portsrepo.ApartmentRepositoryFacade {
	return &PgxApartmentRepository{pool: pool}
}

var _ portsrepo.ApartmentRepositoryFacade = (*PgxApartmentRepository)(nil)

const apartmentColumns = `apartment_id, building_id, number, apartment_type, parent_apartment_id,
		occupancy_status, occupancy_start_date, subscription_amount, subscription_status, cached_balance,
		created_at, created_by, last_updated_at, last_updated_by`

func scanApartment(row pgx.Row) (*domain.Apartment, error) {
	var a domain.Apartment
	err := row.Scan(
		&a.ApartmentID,
		&a.BuildingID,
		&a.Number,
		&a.ApartmentType,
		&a.ParentApartmentID,
		&a.OccupancyStatus,
		&a.OccupancyStartDate,
		&a.SubscriptionAmount,
		&a.SubscriptionStatus,
		&a.CachedBalance,
		&a.CreatedAt,
		&a.CreatedBy,
		&a.LastUpdatedAt,
		&a.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveApartment inserts a new apartment.
func (r *PgxApartmentRepository) SaveApartment(ctx context.Context, apartment domain.Apartment) error {
	query := `
		INSERT INTO apartments (apartment_id, building_id, number, apartment_type, parent_apartment_id,
			occupancy_status, occupancy_start_date, subscription_amount, subscription_status, cached_balance,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := r.pool.Exec(ctx, query,
		apartment.ApartmentID,
		apartment.BuildingID,
		apartment.Number,
		apartment.ApartmentType,
		apartment.ParentApartmentID,
		apartment.OccupancyStatus,
		apartment.OccupancyStartDate,
		apartment.SubscriptionAmount,
		apartment.SubscriptionStatus,
		apartment.CachedBalance,
		apartment.CreatedAt,
		apartment.CreatedBy,
		apartment.LastUpdatedAt,
		apartment.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: apartment number %s already exists in building %s", apperrors.ErrDuplicate, apartment.Number, apartment.BuildingID)
		}
		return fmt.Errorf("failed to save apartment %s: %w", apartment.ApartmentID, err)
	}
	return nil
}

// FindApartmentByID retrieves an apartment without locking.
func (r *PgxApartmentRepository) FindApartmentByID(ctx context.Context, apartmentID string) (*domain.Apartment, error) {
	query := `SELECT ` + apartmentColumns + ` FROM apartments WHERE apartment_id = $1;`
	apartment, err := scanApartment(r.pool.QueryRow(ctx, query, apartmentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find apartment by ID %s: %w", apartmentID, err)
	}
	return apartment, nil
}

// ListApartmentsByBuilding retrieves all apartments of a building in
// number order.
func (r *PgxApartmentRepository) ListApartmentsByBuilding(ctx context.Context, buildingID string) ([]domain.Apartment, error) {
	query := `SELECT ` + apartmentColumns + ` FROM apartments WHERE building_id = $1 ORDER BY number, apartment_id;`
	rows, err := r.pool.Query(ctx, query, buildingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query apartments for building %s: %w", buildingID, err)
	}
	defer rows.Close()
	return collectApartments(rows)
}

// UpdateSubscriptionAmount changes the monthly subscription amount.
func (r *PgxApartmentRepository) UpdateSubscriptionAmount(ctx context.Context, apartmentID string, amount decimal.Decimal, userID string, now time.Time) error {
	query := `
		UPDATE apartments
		SET subscription_amount = $2, last_updated_at = $3, last_updated_by = $4
		WHERE apartment_id = $1;
	`
	tag, err := r.pool.Exec(ctx, query, apartmentID, amount, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update subscription amount for apartment %s: %w", apartmentID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindApartmentByIDForUpdate selects an apartment and locks its row within
// the transaction. Ledger-mutating flows take this lock first.
func (r *PgxApartmentRepository) FindApartmentByIDForUpdate(ctx context.Context, tx pgx.Tx, apartmentID string) (*domain.Apartment, error) {
	query := `SELECT ` + apartmentColumns + ` FROM apartments WHERE apartment_id = $1 FOR UPDATE;`
	apartment, err := scanApartment(tx.QueryRow(ctx, query, apartmentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find apartment by ID %s for update: %w", apartmentID, err)
	}
	return apartment, nil
}

// FindEligibleApartmentsForUpdate selects the building's occupied regular
// apartments in stable (number, ID) order and locks their rows. The order
// fixes which apartments absorb the penny remainder of a split.
func (r *PgxApartmentRepository) FindEligibleApartmentsForUpdate(ctx context.Context, tx pgx.Tx, buildingID string) ([]domain.Apartment, error) {
	query := `
		SELECT ` + apartmentColumns + `
		FROM apartments
		WHERE building_id = $1 AND occupancy_status = $2 AND apartment_type = $3
		ORDER BY number, apartment_id
		FOR UPDATE;
	`
	rows, err := tx.Query(ctx, query, buildingID, domain.Occupied, domain.Regular)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible apartments for building %s: %w", buildingID, err)
	}
	defer rows.Close()
	return collectApartments(rows)
}

// UpdateCachedBalanceInTx writes the recomputed cached balance and derived
// subscription status.
func (r *PgxApartmentRepository) UpdateCachedBalanceInTx(ctx context.Context, tx pgx.Tx, apartmentID string, balance decimal.Decimal, status domain.SubscriptionStatus, userID string, now time.Time) error {
	query := `
		UPDATE apartments
		SET cached_balance = $2, subscription_status = $3, last_updated_at = $4, last_updated_by = $5
		WHERE apartment_id = $1;
	`
	tag, err := tx.Exec(ctx, query, apartmentID, balance, status, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update cached balance for apartment %s: %w", apartmentID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateOccupancyInTx flips occupancy status and start date.
func (r *PgxApartmentRepository) UpdateOccupancyInTx(ctx context.Context, tx pgx.Tx, apartmentID string, status domain.OccupancyStatus, startDate *time.Time, userID string, now time.Time) error {
	query := `
		UPDATE apartments
		SET occupancy_status = $2, occupancy_start_date = $3, last_updated_at = $4, last_updated_by = $5
		WHERE apartment_id = $1;
	`
	tag, err := tx.Exec(ctx, query, apartmentID, status, startDate, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update occupancy for apartment %s: %w", apartmentID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func collectApartments(rows pgx.Rows) ([]domain.Apartment, error) {
	var apartments []domain.Apartment
	for rows.Next() {
		apartment, err := scanApartment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan apartment row: %w", err)
		}
		apartments = append(apartments, *apartment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating apartment rows: %w", err)
	}
	return apartments, nil
}
