package services_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/shikunim/building_mgmt_app/internal/core/domain"
	portsrepo "github.com/shikunim/building_mgmt_app/internal/core/ports/repositories"
	portssvc "github.com/shikunim/building_mgmt_app/internal/core/ports/services"
)

// passthroughTxManager runs the transactional closure directly with a nil
// pgx.Tx. The repository mocks never dereference the transaction, so the
// services under test exercise their full in-transaction sequence.
type passthroughTxManager struct{}

var _ portsrepo.TransactionManager = (*passthroughTxManager)(nil)

func (passthroughTxManager) Begin(ctx context.Context) (pgx.Tx, error)     { return nil, nil }
func (passthroughTxManager) Commit(ctx context.Context, tx pgx.Tx) error   { return nil }
func (passthroughTxManager) Rollback(ctx context.Context, tx pgx.Tx) error { return nil }
func (passthroughTxManager) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

// --- Mock BuildingRepository ---

type MockBuildingRepository struct {
	mock.Mock
}

var _ portsrepo.BuildingRepositoryFacade = (*MockBuildingRepository)(nil)

func (m *MockBuildingRepository) FindBuildingByID(ctx context.Context, buildingID string) (*domain.Building, error) {
	args := m.Called(ctx, buildingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Building), args.Error(1)
}

func (m *MockBuildingRepository) ListBuildings(ctx context.Context) ([]domain.Building, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Building), args.Error(1)
}

func (m *MockBuildingRepository) SaveBuilding(ctx context.Context, building domain.Building) error {
	args := m.Called(ctx, building)
	return args.Error(0)
}

// --- Mock ApartmentRepository ---

type MockApartmentRepository struct {
	mock.Mock
}

var _ portsrepo.ApartmentRepositoryFacade = (*MockApartmentRepository)(nil)

func (m *MockApartmentRepository) FindApartmentByID(ctx context.Context, apartmentID string) (*domain.Apartment, error) {
	args := m.Called(ctx, apartmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Apartment), args.Error(1)
}

func (m *MockApartmentRepository) ListApartmentsByBuilding(ctx context.Context, buildingID string) ([]domain.Apartment, error) {
	args := m.Called(ctx, buildingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Apartment), args.Error(1)
}

func (m *MockApartmentRepository) SaveApartment(ctx context.Context, apartment domain.Apartment) error {
	args := m.Called(ctx, apartment)
	return args.Error(0)
}

func (m *MockApartmentRepository) UpdateSubscriptionAmount(ctx context.Context, apartmentID string, amount decimal.Decimal, userID string, now time.Time) error {
	args := m.Called(ctx, apartmentID, amount, userID, now)
	return args.Error(0)
}

func (m *MockApartmentRepository) FindApartmentByIDForUpdate(ctx context.Context, tx pgx.Tx, apartmentID string) (*domain.Apartment, error) {
	args := m.Called(ctx, tx, apartmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Apartment), args.Error(1)
}

func (m *MockApartmentRepository) FindEligibleApartmentsForUpdate(ctx context.Context, tx pgx.Tx, buildingID string) ([]domain.Apartment, error) {
	args := m.Called(ctx, tx, buildingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Apartment), args.Error(1)
}

func (m *MockApartmentRepository) UpdateCachedBalanceInTx(ctx context.Context, tx pgx.Tx, apartmentID string, balance decimal.Decimal, status domain.SubscriptionStatus, userID string, now time.Time) error {
	args := m.Called(ctx, tx, apartmentID, balance, status, userID, now)
	return args.Error(0)
}

func (m *MockApartmentRepository) UpdateOccupancyInTx(ctx context.Context, tx pgx.Tx, apartmentID string, status domain.OccupancyStatus, startDate *time.Time, userID string, now time.Time) error {
	args := m.Called(ctx, tx, apartmentID, status, startDate, userID, now)
	return args.Error(0)
}

// --- Mock OccupancyRepository ---

type MockOccupancyRepository struct {
	mock.Mock
}

var _ portsrepo.OccupancyRepositoryFacade = (*MockOccupancyRepository)(nil)

func (m *MockOccupancyRepository) FindActivePeriod(ctx context.Context, tx pgx.Tx, apartmentID string) (*domain.OccupancyPeriod, error) {
	args := m.Called(ctx, tx, apartmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OccupancyPeriod), args.Error(1)
}

func (m *MockOccupancyRepository) FindPeriodByID(ctx context.Context, periodID string) (*domain.OccupancyPeriod, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OccupancyPeriod), args.Error(1)
}

func (m *MockOccupancyRepository) ListPeriodsByApartment(ctx context.Context, apartmentID string) ([]domain.OccupancyPeriod, error) {
	args := m.Called(ctx, apartmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OccupancyPeriod), args.Error(1)
}

func (m *MockOccupancyRepository) OpenPeriod(ctx context.Context, tx pgx.Tx, period domain.OccupancyPeriod) error {
	args := m.Called(ctx, tx, period)
	return args.Error(0)
}

func (m *MockOccupancyRepository) ClosePeriod(ctx context.Context, tx pgx.Tx, periodID string, endDate time.Time, closingBalance decimal.Decimal, userID string, now time.Time) error {
	args := m.Called(ctx, tx, periodID, endDate, closingBalance, userID, now)
	return args.Error(0)
}

// --- Mock ExpenseRepository ---

type MockExpenseRepository struct {
	mock.Mock
}

var _ portsrepo.ExpenseRepositoryFacade = (*MockExpenseRepository)(nil)

func (m *MockExpenseRepository) FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error) {
	args := m.Called(ctx, expenseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}

func (m *MockExpenseRepository) ListExpensesByBuilding(ctx context.Context, buildingID string, limit int, nextToken *string) ([]domain.Expense, *string, error) {
	args := m.Called(ctx, buildingID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedToken = &tokenVal
	}
	return args.Get(0).([]domain.Expense), returnedToken, args.Error(2)
}

func (m *MockExpenseRepository) ListExpensesSince(ctx context.Context, tx pgx.Tx, buildingID string, from time.Time) ([]domain.Expense, error) {
	args := m.Called(ctx, tx, buildingID, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Expense), args.Error(1)
}

func (m *MockExpenseRepository) ListRecurringParents(ctx context.Context, asOf time.Time) ([]domain.Expense, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Expense), args.Error(1)
}

func (m *MockExpenseRepository) HasChildForMonth(ctx context.Context, tx pgx.Tx, parentExpenseID string, month string) (bool, error) {
	args := m.Called(ctx, tx, parentExpenseID, month)
	return args.Bool(0), args.Error(1)
}

func (m *MockExpenseRepository) SaveExpense(ctx context.Context, tx pgx.Tx, expense domain.Expense) error {
	args := m.Called(ctx, tx, expense)
	return args.Error(0)
}

func (m *MockExpenseRepository) FindApartmentExpenseByID(ctx context.Context, tx pgx.Tx, apartmentExpenseID string) (*domain.ApartmentExpense, error) {
	args := m.Called(ctx, tx, apartmentExpenseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ApartmentExpense), args.Error(1)
}

func (m *MockExpenseRepository) ListApartmentExpensesByApartment(ctx context.Context, apartmentID string, includeCanceled bool) ([]domain.ApartmentExpense, error) {
	args := m.Called(ctx, apartmentID, includeCanceled)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ApartmentExpense), args.Error(1)
}

func (m *MockExpenseRepository) CountSplits(ctx context.Context, tx pgx.Tx, expenseID string) (int, error) {
	args := m.Called(ctx, tx, expenseID)
	return args.Int(0), args.Error(1)
}

func (m *MockExpenseRepository) HasSplitForApartment(ctx context.Context, tx pgx.Tx, expenseID, apartmentID string) (bool, error) {
	args := m.Called(ctx, tx, expenseID, apartmentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockExpenseRepository) SaveApartmentExpense(ctx context.Context, tx pgx.Tx, ae domain.ApartmentExpense) error {
	args := m.Called(ctx, tx, ae)
	return args.Error(0)
}

func (m *MockExpenseRepository) SaveApartmentExpenses(ctx context.Context, tx pgx.Tx, aes []domain.ApartmentExpense) error {
	args := m.Called(ctx, tx, aes)
	return args.Error(0)
}

func (m *MockExpenseRepository) MarkApartmentExpenseCanceled(ctx context.Context, tx pgx.Tx, apartmentExpenseID string, userID string, now time.Time) error {
	args := m.Called(ctx, tx, apartmentExpenseID, userID, now)
	return args.Error(0)
}

func (m *MockExpenseRepository) AddToAmountPaid(ctx context.Context, tx pgx.Tx, apartmentExpenseID string, delta decimal.Decimal, userID string, now time.Time) error {
	args := m.Called(ctx, tx, apartmentExpenseID, delta, userID, now)
	return args.Error(0)
}

func (m *MockExpenseRepository) SetAmountPaid(ctx context.Context, tx pgx.Tx, apartmentExpenseID string, amount decimal.Decimal, userID string, now time.Time) error {
	args := m.Called(ctx, tx, apartmentExpenseID, amount, userID, now)
	return args.Error(0)
}

// --- Mock PaymentRepository ---

type MockPaymentRepository struct {
	mock.Mock
}

var _ portsrepo.PaymentRepositoryFacade = (*MockPaymentRepository)(nil)

func (m *MockPaymentRepository) FindPaymentByID(ctx context.Context, tx pgx.Tx, paymentID string) (*domain.Payment, error) {
	args := m.Called(ctx, tx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListPaymentsByApartment(ctx context.Context, apartmentID string, includeCanceled bool) ([]domain.Payment, error) {
	args := m.Called(ctx, apartmentID, includeCanceled)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListAllocationsByPayment(ctx context.Context, tx pgx.Tx, paymentID string) ([]domain.PaymentAllocation, error) {
	args := m.Called(ctx, tx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PaymentAllocation), args.Error(1)
}

func (m *MockPaymentRepository) SavePayment(ctx context.Context, tx pgx.Tx, payment domain.Payment) error {
	args := m.Called(ctx, tx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) SaveAllocation(ctx context.Context, tx pgx.Tx, allocation domain.PaymentAllocation) error {
	args := m.Called(ctx, tx, allocation)
	return args.Error(0)
}

func (m *MockPaymentRepository) MarkPaymentCanceled(ctx context.Context, tx pgx.Tx, paymentID string, userID string, now time.Time) error {
	args := m.Called(ctx, tx, paymentID, userID, now)
	return args.Error(0)
}

// --- Mock LedgerRepository ---

type MockLedgerRepository struct {
	mock.Mock
}

var _ portsrepo.LedgerRepositoryFacade = (*MockLedgerRepository)(nil)

func (m *MockLedgerRepository) FindEntryPeriodID(ctx context.Context, tx pgx.Tx, apartmentID string, refType domain.ReferenceType, refID string) (*string, error) {
	args := m.Called(ctx, tx, apartmentID, refType, refID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	periodVal := args.Get(0).(string)
	return &periodVal, args.Error(1)
}

func (m *MockLedgerRepository) SumEntries(ctx context.Context, tx pgx.Tx, apartmentID string) (domain.LedgerTotals, error) {
	args := m.Called(ctx, tx, apartmentID)
	if args.Get(0) == nil {
		return domain.LedgerTotals{}, args.Error(1)
	}
	return args.Get(0).(domain.LedgerTotals), args.Error(1)
}

func (m *MockLedgerRepository) ListEntriesByApartment(ctx context.Context, apartmentID string, periodID *string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	args := m.Called(ctx, apartmentID, periodID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedToken = &tokenVal
	}
	return args.Get(0).([]domain.LedgerEntry), returnedToken, args.Error(2)
}

func (m *MockLedgerRepository) AppendEntry(ctx context.Context, tx pgx.Tx, entry domain.LedgerEntry) error {
	args := m.Called(ctx, tx, entry)
	return args.Error(0)
}

// --- Mock UserRepository ---

type MockUserRepository struct {
	mock.Mock
}

var _ portsrepo.UserRepositoryFacade = (*MockUserRepository)(nil)

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// --- Mock BalanceRefresher ---

type MockBalanceRefresher struct {
	mock.Mock
}

var _ portssvc.BalanceRefresher = (*MockBalanceRefresher)(nil)

func (m *MockBalanceRefresher) RefreshCachedBalance(ctx context.Context, tx pgx.Tx, apartment *domain.Apartment, userID string) (decimal.Decimal, error) {
	args := m.Called(ctx, tx, apartment, userID)
	if args.Get(0) == nil {
		return decimal.Zero, args.Error(1)
	}
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// --- Mock ExpenseBackfiller ---

type MockExpenseBackfiller struct {
	mock.Mock
}

var _ portssvc.ExpenseBackfiller = (*MockExpenseBackfiller)(nil)

func (m *MockExpenseBackfiller) BackfillExpensesForApartment(ctx context.Context, tx pgx.Tx, apartment domain.Apartment, periodID string, userID string) error {
	args := m.Called(ctx, tx, apartment, periodID, userID)
	return args.Error(0)
}
