package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shikunim/building_mgmt_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ApartmentReader defines read operations for apartment data
type ApartmentReader interface {
	// FindApartmentByID retrieves a specific apartment by its unique identifier.
	FindApartmentByID(ctx context.Context, apartmentID string) (*domain.Apartment, error)

	// ListApartmentsByBuilding retrieves all apartments of a building.
	ListApartmentsByBuilding(ctx context.Context, buildingID string) ([]domain.Apartment, error)
}

// ApartmentWriter defines write operations for apartment data
type ApartmentWriter interface {
	// SaveApartment persists a new apartment.
	SaveApartment(ctx context.Context, apartment domain.Apartment) error

	// UpdateSubscriptionAmount changes an apartment's monthly subscription amount.
	UpdateSubscriptionAmount(ctx context.Context, apartmentID string, amount decimal.Decimal, userID string, now time.Time) error
}

// ApartmentTransactionSupport defines operations that participate in
// ledger-mutating transactions.
type ApartmentTransactionSupport interface {
	// FindApartmentByIDForUpdate selects an apartment and locks its row for
	// update within a transaction. Every ledger-mutating transaction takes
	// this lock first, serializing concurrent balance recomputations on the
	// same apartment.
	FindApartmentByIDForUpdate(ctx context.Context, tx pgx.Tx, apartmentID string) (*domain.Apartment, error)

	// FindEligibleApartmentsForUpdate selects the building's occupied regular
	// apartments in stable order (by apartment number, then ID) and locks
	// their rows. The stable order fixes which apartments absorb the penny
	// remainder of a split.
	FindEligibleApartmentsForUpdate(ctx context.Context, tx pgx.Tx, buildingID string) ([]domain.Apartment, error)

	// UpdateCachedBalanceInTx writes the recomputed cached balance and
	// derived subscription status. Only the balance accumulator calls this.
	UpdateCachedBalanceInTx(ctx context.Context, tx pgx.Tx, apartmentID string, balance decimal.Decimal, status domain.SubscriptionStatus, userID string, now time.Time) error

	// UpdateOccupancyInTx flips occupancy status and start date within a transaction.
	UpdateOccupancyInTx(ctx context.Context, tx pgx.Tx, apartmentID string, status domain.OccupancyStatus, startDate *time.Time, userID string, now time.Time) error
}

// ApartmentRepositoryFacade combines all apartment-related repository interfaces
type ApartmentRepositoryFacade interface {
	ApartmentReader
	ApartmentWriter
	ApartmentTransactionSupport
}
