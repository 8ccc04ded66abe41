package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shikunim/building_mgmt_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// OccupancyReader defines read operations for occupancy period data
type OccupancyReader interface {
	// FindActivePeriod retrieves the open occupancy period of an apartment.
	// Returns apperrors.ErrNotFound when the apartment is vacant.
	FindActivePeriod(ctx context.Context, tx pgx.Tx, apartmentID string) (*domain.OccupancyPeriod, error)

	// FindPeriodByID retrieves a specific occupancy period.
	FindPeriodByID(ctx context.Context, periodID string) (*domain.OccupancyPeriod, error)

	// ListPeriodsByApartment retrieves all periods of an apartment, newest first.
	ListPeriodsByApartment(ctx context.Context, apartmentID string) ([]domain.OccupancyPeriod, error)
}

// OccupancyWriter defines write operations for occupancy period data
type OccupancyWriter interface {
	// OpenPeriod persists a new open occupancy period within a transaction.
	OpenPeriod(ctx context.Context, tx pgx.Tx, period domain.OccupancyPeriod) error

	// ClosePeriod stamps the end date and closing balance snapshot on an
	// open period within a transaction.
	ClosePeriod(ctx context.Context, tx pgx.Tx, periodID string, endDate time.Time, closingBalance decimal.Decimal, userID string, now time.Time) error
}

// OccupancyRepositoryFacade combines all occupancy-related repository interfaces
type OccupancyRepositoryFacade interface {
	OccupancyReader
	OccupancyWriter
}
