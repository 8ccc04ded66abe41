package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/shikunim/building_mgmt_app/internal/apperrors"
	"github.com/shikunim/building_mgmt_app/internal/core/domain"
	portssvc "github.com/shikunim/building_mgmt_app/internal/core/ports/services"
	"github.com/shikunim/building_mgmt_app/internal/core/services"
	"github.com/shikunim/building_mgmt_app/internal/dto"
)

type ExpenseServiceTestSuite struct {
	suite.Suite
	mockBuildingRepo  *MockBuildingRepository
	mockApartmentRepo *MockApartmentRepository
	mockOccupancyRepo *MockOccupancyRepository
	mockExpenseRepo   *MockExpenseRepository
	mockLedgerRepo    *MockLedgerRepository
	mockBalanceSvc    *MockBalanceRefresher
	service           portssvc.ExpenseSvcFacade
	backfiller        portssvc.ExpenseBackfiller
	buildingID        string
	userID            string
	building          domain.Building
}

func (suite *ExpenseServiceTestSuite) SetupTest() {
	suite.mockBuildingRepo = new(MockBuildingRepository)
	suite.mockApartmentRepo = new(MockApartmentRepository)
	suite.mockOccupancyRepo = new(MockOccupancyRepository)
	suite.mockExpenseRepo = new(MockExpenseRepository)
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.mockBalanceSvc = new(MockBalanceRefresher)
	svc := services.NewExpenseService(
		passthroughTxManager{},
		suite.mockBuildingRepo,
		suite.mockApartmentRepo,
		suite.mockOccupancyRepo,
		suite.mockExpenseRepo,
		suite.mockLedgerRepo,
		suite.mockBalanceSvc,
	)
	suite.service = svc
	suite.backfiller = svc

	suite.buildingID = uuid.NewString()
	suite.userID = uuid.NewString()
	suite.building = domain.Building{BuildingID: suite.buildingID, Name: "Herzl 12"}
}

// occupiedApartment builds an occupied regular apartment in the suite's building.
func (suite *ExpenseServiceTestSuite) occupiedApartment(number string) domain.Apartment {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	return domain.Apartment{
		ApartmentID:        uuid.NewString(),
		BuildingID:         suite.buildingID,
		Number:             number,
		ApartmentType:      domain.Regular,
		OccupancyStatus:    domain.Occupied,
		OccupancyStartDate: &start,
	}
}

func (suite *ExpenseServiceTestSuite) TestCreateExpense_SplitIsCentExact() {
	ctx := context.Background()
	apartments := []domain.Apartment{
		suite.occupiedApartment("1"),
		suite.occupiedApartment("2"),
		suite.occupiedApartment("3"),
	}
	req := dto.CreateExpenseRequest{
		Description: "Roof repair",
		Amount:      decimal.NewFromInt(100),
		ExpenseDate: time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
		Category:    "MAINTENANCE",
	}

	suite.mockBuildingRepo.On("FindBuildingByID", ctx, suite.buildingID).Return(&suite.building, nil).Once()
	suite.mockApartmentRepo.On("FindEligibleApartmentsForUpdate", ctx, mock.Anything, suite.buildingID).Return(apartments, nil).Once()
	suite.mockExpenseRepo.On("SaveExpense", ctx, mock.Anything, mock.AnythingOfType("domain.Expense")).Return(nil).Once()

	var savedSplits []domain.ApartmentExpense
	suite.mockExpenseRepo.On("SaveApartmentExpenses", ctx, mock.Anything, mock.AnythingOfType("[]domain.ApartmentExpense")).
		Run(func(args mock.Arguments) {
			savedSplits = args.Get(2).([]domain.ApartmentExpense)
		}).Return(nil).Once()
	for _, a := range apartments {
		suite.mockOccupancyRepo.On("FindActivePeriod", ctx, mock.Anything, a.ApartmentID).
			Return(&domain.OccupancyPeriod{PeriodID: uuid.NewString(), ApartmentID: a.ApartmentID}, nil).Once()
	}
	suite.mockLedgerRepo.On("AppendEntry", ctx, mock.Anything, mock.AnythingOfType("domain.LedgerEntry")).Return(nil).Times(3)
	suite.mockBalanceSvc.On("RefreshCachedBalance", ctx, mock.Anything, mock.AnythingOfType("*domain.Apartment"), suite.userID).Return(decimal.Zero, nil).Times(3)

	expense, err := suite.service.CreateExpense(ctx, suite.buildingID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(expense)
	suite.Require().Len(savedSplits, 3)

	// First apartment in stable order absorbs the penny remainder.
	suite.True(savedSplits[0].Amount.Equal(decimal.RequireFromString("33.34")), "got %s", savedSplits[0].Amount)
	suite.True(savedSplits[1].Amount.Equal(decimal.RequireFromString("33.33")))
	suite.True(savedSplits[2].Amount.Equal(decimal.RequireFromString("33.33")))

	for i, a := range apartments {
		suite.Equal(a.ApartmentID, savedSplits[i].ApartmentID, "one split line per apartment in stable order")
	}

	sum := decimal.Zero
	for _, s := range savedSplits {
		sum = sum.Add(s.Amount)
	}
	suite.True(sum.Equal(req.Amount), "shares must sum to the expense amount, got %s", sum)

	suite.mockExpenseRepo.AssertExpectations(suite.T())
	suite.mockBalanceSvc.AssertExpectations(suite.T())
}

func (suite *ExpenseServiceTestSuite) TestCreateExpense_NoEligibleApartments() {
	ctx := context.Background()
	req := dto.CreateExpenseRequest{
		Description: "Gardening",
		Amount:      decimal.NewFromInt(50),
		ExpenseDate: time.Now().UTC(),
	}

	suite.mockBuildingRepo.On("FindBuildingByID", ctx, suite.buildingID).Return(&suite.building, nil).Once()
	suite.mockApartmentRepo.On("FindEligibleApartmentsForUpdate", ctx, mock.Anything, suite.buildingID).Return([]domain.Apartment{}, nil).Once()

	_, err := suite.service.CreateExpense(ctx, suite.buildingID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.ErrorIs(err, services.ErrNoEligibleApartments)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "SaveExpense", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ExpenseServiceTestSuite) TestCreateExpense_SingleApartment() {
	ctx := context.Background()
	apartment := suite.occupiedApartment("4")
	req := dto.CreateExpenseRequest{
		Description: "Broken window",
		Amount:      decimal.RequireFromString("75.50"),
		ExpenseDate: time.Now().UTC(),
		ApartmentID: &apartment.ApartmentID,
	}

	suite.mockBuildingRepo.On("FindBuildingByID", ctx, suite.buildingID).Return(&suite.building, nil).Once()
	suite.mockApartmentRepo.On("FindApartmentByIDForUpdate", ctx, mock.Anything, apartment.ApartmentID).Return(&apartment, nil).Once()
	suite.mockExpenseRepo.On("SaveExpense", ctx, mock.Anything, mock.AnythingOfType("domain.Expense")).Return(nil).Once()

	var savedSplit domain.ApartmentExpense
	suite.mockExpenseRepo.On("SaveApartmentExpense", ctx, mock.Anything, mock.AnythingOfType("domain.ApartmentExpense")).
		Run(func(args mock.Arguments) {
			savedSplit = args.Get(2).(domain.ApartmentExpense)
		}).Return(nil).Once()
	suite.mockOccupancyRepo.On("FindActivePeriod", ctx, mock.Anything, apartment.ApartmentID).
		Return(&domain.OccupancyPeriod{PeriodID: uuid.NewString()}, nil).Once()
	suite.mockLedgerRepo.On("AppendEntry", ctx, mock.Anything, mock.AnythingOfType("domain.LedgerEntry")).Return(nil).Once()
	suite.mockBalanceSvc.On("RefreshCachedBalance", ctx, mock.Anything, mock.AnythingOfType("*domain.Apartment"), suite.userID).Return(decimal.Zero, nil).Once()

	_, err := suite.service.CreateExpense(ctx, suite.buildingID, req, suite.userID)

	suite.Require().NoError(err)
	// No division on a single-apartment expense.
	suite.True(savedSplit.Amount.Equal(req.Amount))
	suite.Equal(apartment.ApartmentID, savedSplit.ApartmentID)
	suite.mockApartmentRepo.AssertNotCalled(suite.T(), "FindEligibleApartmentsForUpdate", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ExpenseServiceTestSuite) TestCreateExpense_SingleApartmentWrongBuilding() {
	ctx := context.Background()
	apartment := suite.occupiedApartment("5")
	apartment.BuildingID = uuid.NewString() // different building
	req := dto.CreateExpenseRequest{
		Description: "Broken window",
		Amount:      decimal.NewFromInt(10),
		ExpenseDate: time.Now().UTC(),
		ApartmentID: &apartment.ApartmentID,
	}

	suite.mockBuildingRepo.On("FindBuildingByID", ctx, suite.buildingID).Return(&suite.building, nil).Once()
	suite.mockApartmentRepo.On("FindApartmentByIDForUpdate", ctx, mock.Anything, apartment.ApartmentID).Return(&apartment, nil).Once()

	_, err := suite.service.CreateExpense(ctx, suite.buildingID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrWrongBuilding)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "SaveExpense", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ExpenseServiceTestSuite) TestCreateExpense_RecurringParentIsNotSplit() {
	ctx := context.Background()
	req := dto.CreateExpenseRequest{
		Description:    "Elevator maintenance contract",
		Amount:         decimal.NewFromInt(500),
		ExpenseDate:    time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
		IsRecurring:    true,
		RecurrenceType: "MONTHLY",
	}

	suite.mockBuildingRepo.On("FindBuildingByID", ctx, suite.buildingID).Return(&suite.building, nil).Once()

	var savedExpense domain.Expense
	suite.mockExpenseRepo.On("SaveExpense", ctx, mock.Anything, mock.AnythingOfType("domain.Expense")).
		Run(func(args mock.Arguments) {
			savedExpense = args.Get(2).(domain.Expense)
		}).Return(nil).Once()

	expense, err := suite.service.CreateExpense(ctx, suite.buildingID, req, suite.userID)

	suite.Require().NoError(err)
	suite.True(expense.IsRecurring)
	suite.Equal(domain.RecurrenceMonthly, savedExpense.RecurrenceType)
	suite.Require().NotNil(savedExpense.RecurrenceStart)
	suite.True(savedExpense.RecurrenceStart.Equal(req.ExpenseDate), "recurrence start defaults to the expense date")
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "SaveApartmentExpenses", mock.Anything, mock.Anything, mock.Anything)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "AppendEntry", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ExpenseServiceTestSuite) TestCreateExpense_ValidationErrors() {
	ctx := context.Background()

	// Non-positive amount
	_, err := suite.service.CreateExpense(ctx, suite.buildingID, dto.CreateExpenseRequest{
		Description: "x",
		Amount:      decimal.Zero,
		ExpenseDate: time.Now().UTC(),
	}, suite.userID)
	suite.ErrorIs(err, apperrors.ErrValidation)

	// Missing description
	_, err = suite.service.CreateExpense(ctx, suite.buildingID, dto.CreateExpenseRequest{
		Amount:      decimal.NewFromInt(10),
		ExpenseDate: time.Now().UTC(),
	}, suite.userID)
	suite.ErrorIs(err, apperrors.ErrValidation)

	// Recurring expense cannot target a single apartment
	apartmentID := uuid.NewString()
	_, err = suite.service.CreateExpense(ctx, suite.buildingID, dto.CreateExpenseRequest{
		Description: "x",
		Amount:      decimal.NewFromInt(10),
		ExpenseDate: time.Now().UTC(),
		IsRecurring: true,
		ApartmentID: &apartmentID,
	}, suite.userID)
	suite.ErrorIs(err, apperrors.ErrValidation)

	suite.mockBuildingRepo.AssertNotCalled(suite.T(), "FindBuildingByID", mock.Anything, mock.Anything)
}

func (suite *ExpenseServiceTestSuite) TestBackfill_ProratesAndSkipsSettled() {
	ctx := context.Background()
	periodID := uuid.NewString()
	start := time.Date(2025, time.March, 16, 0, 0, 0, 0, time.UTC)
	apartment := suite.occupiedApartment("7")
	apartment.OccupancyStartDate = &start

	splitExpense := domain.Expense{
		ExpenseID:   uuid.NewString(),
		BuildingID:  suite.buildingID,
		Description: "Facade cleaning",
		Amount:      decimal.NewFromInt(300),
		ExpenseDate: time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
	}
	alreadyMine := domain.Expense{
		ExpenseID:   uuid.NewString(),
		BuildingID:  suite.buildingID,
		Amount:      decimal.NewFromInt(100),
		ExpenseDate: time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC),
	}
	otherUnitOnly := domain.Expense{
		ExpenseID:   uuid.NewString(),
		BuildingID:  suite.buildingID,
		Amount:      decimal.NewFromInt(80),
		ExpenseDate: time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC),
	}

	monthStart := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	suite.mockExpenseRepo.On("ListExpensesSince", ctx, mock.Anything, suite.buildingID, monthStart).
		Return([]domain.Expense{splitExpense, alreadyMine, otherUnitOnly}, nil).Once()

	suite.mockExpenseRepo.On("HasSplitForApartment", ctx, mock.Anything, splitExpense.ExpenseID, apartment.ApartmentID).Return(false, nil).Once()
	suite.mockExpenseRepo.On("HasSplitForApartment", ctx, mock.Anything, alreadyMine.ExpenseID, apartment.ApartmentID).Return(true, nil).Once()
	suite.mockExpenseRepo.On("HasSplitForApartment", ctx, mock.Anything, otherUnitOnly.ExpenseID, apartment.ApartmentID).Return(false, nil).Once()

	suite.mockExpenseRepo.On("CountSplits", ctx, mock.Anything, splitExpense.ExpenseID).Return(2, nil).Once()
	// A single-apartment charge of another unit has no shareable splits.
	suite.mockExpenseRepo.On("CountSplits", ctx, mock.Anything, otherUnitOnly.ExpenseID).Return(0, nil).Once()

	var savedSplit domain.ApartmentExpense
	suite.mockExpenseRepo.On("SaveApartmentExpense", ctx, mock.Anything, mock.AnythingOfType("domain.ApartmentExpense")).
		Run(func(args mock.Arguments) {
			savedSplit = args.Get(2).(domain.ApartmentExpense)
		}).Return(nil).Once()

	var savedEntry domain.LedgerEntry
	suite.mockLedgerRepo.On("AppendEntry", ctx, mock.Anything, mock.AnythingOfType("domain.LedgerEntry")).
		Run(func(args mock.Arguments) {
			savedEntry = args.Get(2).(domain.LedgerEntry)
		}).Return(nil).Once()

	err := suite.backfiller.BackfillExpensesForApartment(ctx, nil, apartment, periodID, suite.userID)

	suite.Require().NoError(err)
	// 300 across 3 tenants (2 existing + newcomer) for 16 of 31 days:
	// 100 * 16/31 = 51.61
	suite.True(savedSplit.Amount.Equal(decimal.RequireFromString("51.61")), "got %s", savedSplit.Amount)
	suite.Equal(splitExpense.ExpenseID, savedSplit.ExpenseID)
	suite.Require().NotNil(savedEntry.PeriodID)
	suite.Equal(periodID, *savedEntry.PeriodID)
	suite.Equal(domain.Debit, savedEntry.EntryType)

	suite.mockExpenseRepo.AssertExpectations(suite.T())
}

func (suite *ExpenseServiceTestSuite) TestBackfill_IsIdempotent() {
	ctx := context.Background()
	start := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	apartment := suite.occupiedApartment("8")
	apartment.OccupancyStartDate = &start

	expense := domain.Expense{
		ExpenseID:   uuid.NewString(),
		BuildingID:  suite.buildingID,
		Amount:      decimal.NewFromInt(90),
		ExpenseDate: time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
	}

	suite.mockExpenseRepo.On("ListExpensesSince", ctx, mock.Anything, suite.buildingID, mock.AnythingOfType("time.Time")).
		Return([]domain.Expense{expense}, nil).Once()
	// Second run: the split line from the first run already exists.
	suite.mockExpenseRepo.On("HasSplitForApartment", ctx, mock.Anything, expense.ExpenseID, apartment.ApartmentID).Return(true, nil).Once()

	err := suite.backfiller.BackfillExpensesForApartment(ctx, nil, apartment, uuid.NewString(), suite.userID)

	suite.Require().NoError(err)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "SaveApartmentExpense", mock.Anything, mock.Anything, mock.Anything)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "AppendEntry", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ExpenseServiceTestSuite) TestGenerateRecurringExpenses() {
	ctx := context.Background()
	asOf := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	recurrenceStart := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
	parent := domain.Expense{
		ExpenseID:       uuid.NewString(),
		BuildingID:      suite.buildingID,
		Description:     "Elevator maintenance contract",
		Amount:          decimal.NewFromInt(500),
		ExpenseDate:     recurrenceStart,
		IsRecurring:     true,
		RecurrenceType:  domain.RecurrenceMonthly,
		RecurrenceStart: &recurrenceStart,
	}
	apartment := suite.occupiedApartment("9")

	suite.mockExpenseRepo.On("ListRecurringParents", ctx, asOf).Return([]domain.Expense{parent}, nil).Once()

	// February's child already exists; March's gets generated.
	suite.mockExpenseRepo.On("HasChildForMonth", ctx, mock.Anything, parent.ExpenseID, "2025-02").Return(true, nil).Once()
	suite.mockExpenseRepo.On("HasChildForMonth", ctx, mock.Anything, parent.ExpenseID, "2025-03").Return(false, nil).Once()

	suite.mockApartmentRepo.On("FindEligibleApartmentsForUpdate", ctx, mock.Anything, suite.buildingID).
		Return([]domain.Apartment{apartment}, nil).Once()

	var savedChild domain.Expense
	suite.mockExpenseRepo.On("SaveExpense", ctx, mock.Anything, mock.AnythingOfType("domain.Expense")).
		Run(func(args mock.Arguments) {
			savedChild = args.Get(2).(domain.Expense)
		}).Return(nil).Once()
	suite.mockExpenseRepo.On("SaveApartmentExpenses", ctx, mock.Anything, mock.AnythingOfType("[]domain.ApartmentExpense")).Return(nil).Once()
	suite.mockOccupancyRepo.On("FindActivePeriod", ctx, mock.Anything, apartment.ApartmentID).
		Return(&domain.OccupancyPeriod{PeriodID: uuid.NewString()}, nil).Once()
	suite.mockLedgerRepo.On("AppendEntry", ctx, mock.Anything, mock.AnythingOfType("domain.LedgerEntry")).Return(nil).Once()
	suite.mockBalanceSvc.On("RefreshCachedBalance", ctx, mock.Anything, mock.AnythingOfType("*domain.Apartment"), suite.userID).Return(decimal.Zero, nil).Once()

	generated, err := suite.service.GenerateRecurringExpenses(ctx, asOf, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(1, generated)
	suite.Require().NotNil(savedChild.ParentExpenseID)
	suite.Equal(parent.ExpenseID, *savedChild.ParentExpenseID)
	suite.Contains(savedChild.Description, "2025-03")
	suite.True(savedChild.Amount.Equal(parent.Amount))
	suite.False(savedChild.IsRecurring, "generated children are concrete expenses")

	suite.mockExpenseRepo.AssertExpectations(suite.T())
}

func TestExpenseServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ExpenseServiceTestSuite))
}
