package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shikunim/building_mgmt_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ExpenseReader defines read operations for expense data
type ExpenseReader interface {
	// FindExpenseByID retrieves a specific expense by its unique identifier.
	FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error)

	// ListExpensesByBuilding retrieves expenses of a building, newest first.
	ListExpensesByBuilding(ctx context.Context, buildingID string, limit int, nextToken *string) ([]domain.Expense, *string, error)

	// ListExpensesSince retrieves a building's non-recurring-parent expenses
	// dated on or after from, within a transaction. Used by the backfill.
	ListExpensesSince(ctx context.Context, tx pgx.Tx, buildingID string, from time.Time) ([]domain.Expense, error)

	// ListRecurringParents retrieves all recurring parent expenses whose
	// recurrence range overlaps asOf.
	ListRecurringParents(ctx context.Context, asOf time.Time) ([]domain.Expense, error)

	// HasChildForMonth reports whether a recurring parent already has a
	// generated child expense for the given YYYY-MM month.
	HasChildForMonth(ctx context.Context, tx pgx.Tx, parentExpenseID string, month string) (bool, error)
}

// ExpenseWriter defines write operations for expense data
type ExpenseWriter interface {
	// SaveExpense persists a new expense within a transaction.
	SaveExpense(ctx context.Context, tx pgx.Tx, expense domain.Expense) error
}

// ApartmentExpenseReader defines read operations for split lines
type ApartmentExpenseReader interface {
	// FindApartmentExpenseByID retrieves a split line by its identifier.
	FindApartmentExpenseByID(ctx context.Context, tx pgx.Tx, apartmentExpenseID string) (*domain.ApartmentExpense, error)

	// ListApartmentExpensesByApartment retrieves an apartment's split lines, newest first.
	ListApartmentExpensesByApartment(ctx context.Context, apartmentID string, includeCanceled bool) ([]domain.ApartmentExpense, error)

	// CountSplits returns the number of non-canceled split lines of an expense.
	CountSplits(ctx context.Context, tx pgx.Tx, expenseID string) (int, error)

	// HasSplitForApartment reports whether the apartment already has a
	// split line for the expense (canceled or not). Keeps the backfill
	// idempotent.
	HasSplitForApartment(ctx context.Context, tx pgx.Tx, expenseID, apartmentID string) (bool, error)
}

// ApartmentExpenseWriter defines write operations for split lines
type ApartmentExpenseWriter interface {
	// SaveApartmentExpense persists a new split line within a transaction.
	SaveApartmentExpense(ctx context.Context, tx pgx.Tx, ae domain.ApartmentExpense) error
	// SaveApartmentExpenses persists a building split's lines in one batch
	// within a transaction.
	SaveApartmentExpenses(ctx context.Context, tx pgx.Tx, aes []domain.ApartmentExpense) error

	// MarkApartmentExpenseCanceled flips the canceled flag. The row itself
	// is never deleted.
	MarkApartmentExpenseCanceled(ctx context.Context, tx pgx.Tx, apartmentExpenseID string, userID string, now time.Time) error

	// AddToAmountPaid adjusts the paid tracking field by delta (negative to
	// reverse an allocation).
	AddToAmountPaid(ctx context.Context, tx pgx.Tx, apartmentExpenseID string, delta decimal.Decimal, userID string, now time.Time) error

	// SetAmountPaid overwrites the paid tracking field; used when waiving a
	// charge to mark it fully settled.
	SetAmountPaid(ctx context.Context, tx pgx.Tx, apartmentExpenseID string, amount decimal.Decimal, userID string, now time.Time) error
}

// ExpenseRepositoryFacade combines all expense-related repository interfaces
type ExpenseRepositoryFacade interface {
	ExpenseReader
	ExpenseWriter
	ApartmentExpenseReader
	ApartmentExpenseWriter
}
