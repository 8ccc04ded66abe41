package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shikunim/building_mgmt_app/internal/core/domain"
	"github.com/shikunim/building_mgmt_app/internal/dto"
)

// ExpenseSvcFacade exposes expense creation and the splitting engine.
type ExpenseSvcFacade interface {
	// CreateExpense records an expense and, unless it targets a single
	// apartment or is a recurring parent, splits it across the building's
	// eligible apartments with cent-exact shares.
	CreateExpense(ctx context.Context, buildingID string, req dto.CreateExpenseRequest, creatorUserID string) (*domain.Expense, error)

	GetExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error)
	ListExpensesByBuilding(ctx context.Context, buildingID string, params dto.ListExpensesParams) (*dto.ListExpensesResponse, error)
	ListApartmentCharges(ctx context.Context, apartmentID string, includeCanceled bool) ([]domain.ApartmentExpense, error)

	// GenerateRecurringExpenses materializes child expenses for every
	// recurring parent up to asOf, splitting each child independently.
	// Idempotent per (parent, month).
	GenerateRecurringExpenses(ctx context.Context, asOf time.Time, userID string) (int, error)
}

// ExpenseBackfiller charges a newly occupied apartment its day-prorated
// share of building expenses that predate the occupancy, without touching
// the existing shares of already-settled apartments. Runs inside the
// occupancy-start transaction.
type ExpenseBackfiller interface {
	BackfillExpensesForApartment(ctx context.Context, tx pgx.Tx, apartment domain.Apartment, periodID string, userID string) error
}
