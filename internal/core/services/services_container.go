package services

import (
	portsrepo "github.com/shikunim/building_mgmt_app/internal/core/ports/repositories"
	portssvc "github.com/shikunim/building_mgmt_app/internal/core/ports/services"
	"github.com/shikunim/building_mgmt_app/pkg/config"
)

// NewServiceContainer creates a new service container with properly
// initialized dependencies. The balance accumulator is built first since
// every ledger-mutating service finishes its transactions through it.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	balance := NewBalanceService(repos.ApartmentRepo, repos.LedgerRepo)

	expense := NewExpenseService(
		repos.Tx,
		repos.BuildingRepo,
		repos.ApartmentRepo,
		repos.OccupancyRepo,
		repos.ExpenseRepo,
		repos.LedgerRepo,
		balance,
	)

	container.Building = NewBuildingService(repos.BuildingRepo)
	container.Apartment = NewApartmentService(repos.BuildingRepo, repos.ApartmentRepo)
	container.Expense = expense
	container.Occupancy = NewOccupancyService(
		repos.Tx,
		repos.ApartmentRepo,
		repos.OccupancyRepo,
		repos.LedgerRepo,
		expense,
		balance,
	)
	container.Payment = NewPaymentService(
		repos.Tx,
		repos.ApartmentRepo,
		repos.OccupancyRepo,
		repos.ExpenseRepo,
		repos.PaymentRepo,
		repos.LedgerRepo,
		balance,
	)
	container.Reversal = NewReversalService(
		repos.Tx,
		repos.ApartmentRepo,
		repos.OccupancyRepo,
		repos.ExpenseRepo,
		repos.PaymentRepo,
		repos.LedgerRepo,
		balance,
	)
	container.Subscription = NewSubscriptionService(
		repos.Tx,
		repos.BuildingRepo,
		repos.ApartmentRepo,
		repos.OccupancyRepo,
		repos.LedgerRepo,
		balance,
	)
	container.Ledger = NewLedgerService(repos.ApartmentRepo, repos.OccupancyRepo, repos.LedgerRepo)
	container.User = NewUserService(repos.UserRepo)
	container.Auth = NewAuthService(cfg, repos.UserRepo)

	return container
}
