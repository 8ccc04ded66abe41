package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/shikunim/building_mgmt_app/internal/core/ports/repositories"
)

// NewRepositoryProvider wires the pgx-backed repositories into the
// provider the service container consumes.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		Tx:            &BaseRepository{Pool: dbPool},
		BuildingRepo:  newPgxBuildingRepository(dbPool),
		ApartmentRepo: newPgxApartmentRepository(dbPool),
		OccupancyRepo: newPgxOccupancyRepository(dbPool),
		ExpenseRepo:   newPgxExpenseRepository(dbPool),
		PaymentRepo:   newPgxPaymentRepository(dbPool),
		LedgerRepo:    newPgxLedgerRepository(dbPool),
		UserRepo:      newPgxUserRepository(dbPool),
	}
}
