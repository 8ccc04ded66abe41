package services_test

import (
	"context"
	"testing"

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

type PaymentServiceTestSuite struct {
	suite.Suite
	mockApartmentRepo *MockApartmentRepository
	mockOccupancyRepo *MockOccupancyRepository
	mockExpenseRepo   *MockExpenseRepository
	mockPaymentRepo   *MockPaymentRepository
	mockLedgerRepo    *MockLedgerRepository
	mockBalanceSvc    *MockBalanceRefresher
	service           portssvc.PaymentSvcFacade
	apartment         domain.Apartment
	userID            string
}

func (suite *PaymentServiceTestSuite) SetupTest() {
	suite.mockApartmentRepo = new(MockApartmentRepository)
	suite.mockOccupancyRepo = new(MockOccupancyRepository)
	suite.mockExpenseRepo = new(MockExpenseRepository)
	suite.mockPaymentRepo = new(MockPaymentRepository)
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.mockBalanceSvc = new(MockBalanceRefresher)
	suite.service = services.NewPaymentService(
		passthroughTxManager{},
		suite.mockApartmentRepo,
		suite.mockOccupancyRepo,
		suite.mockExpenseRepo,
		suite.mockPaymentRepo,
		suite.mockLedgerRepo,
		suite.mockBalanceSvc,
	)

	suite.userID = uuid.NewString()
	suite.apartment = domain.Apartment{
		ApartmentID:     uuid.NewString(),
		BuildingID:      uuid.NewString(),
		Number:          "3",
		ApartmentType:   domain.Regular,
		OccupancyStatus: domain.Occupied,
	}
}

func (suite *PaymentServiceTestSuite) expectLockAndRefresh(ctx context.Context) {
	suite.mockApartmentRepo.On("FindApartmentByIDForUpdate", ctx, mock.Anything, suite.apartment.ApartmentID).Return(&suite.apartment, nil).Once()
	suite.mockBalanceSvc.On("RefreshCachedBalance", ctx, mock.Anything, mock.AnythingOfType("*domain.Apartment"), suite.userID).Return(decimal.Zero, nil).Once()
}

func (suite *PaymentServiceTestSuite) TestRecordPayment_FullAmountIsOneCredit() {
	ctx := context.Background()
	req := dto.RecordPaymentRequest{
		Amount:     decimal.NewFromInt(400),
		MonthLabel: "2025-03",
	}
	periodID := uuid.NewString()

	suite.expectLockAndRefresh(ctx)
	suite.mockPaymentRepo.On("SavePayment", ctx, mock.Anything, mock.AnythingOfType("domain.Payment")).Return(nil).Once()
	suite.mockOccupancyRepo.On("FindActivePeriod", ctx, mock.Anything, suite.apartment.ApartmentID).
		Return(&domain.OccupancyPeriod{PeriodID: periodID}, nil).Once()

	var savedEntry domain.LedgerEntry
	suite.mockLedgerRepo.On("AppendEntry", ctx, mock.Anything, mock.AnythingOfType("domain.LedgerEntry")).
		Run(func(args mock.Arguments) {
			savedEntry = args.Get(2).(domain.LedgerEntry)
		}).Return(nil).Once()

	payment, err := suite.service.RecordPayment(ctx, suite.apartment.ApartmentID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(payment)
	suite.NotEmpty(payment.PaymentID)
	suite.Equal(domain.Credit, savedEntry.EntryType)
	suite.True(savedEntry.Amount.Equal(req.Amount))
	suite.Equal(domain.RefPayment, savedEntry.ReferenceType)
	suite.Equal(payment.PaymentID, savedEntry.ReferenceID)
	suite.Require().NotNil(savedEntry.PeriodID)
	suite.Equal(periodID, *savedEntry.PeriodID)

	suite.mockPaymentRepo.AssertExpectations(suite.T())
	suite.mockBalanceSvc.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestRecordPayment_AllocationAdvancesPaidTracking() {
	ctx := context.Background()
	ae := domain.ApartmentExpense{
		ApartmentExpenseID: uuid.NewString(),
		ApartmentID:        suite.apartment.ApartmentID,
		ExpenseID:          uuid.NewString(),
		Amount:             decimal.NewFromInt(100),
		AmountPaid:         decimal.NewFromInt(40),
	}
	req := dto.RecordPaymentRequest{
		Amount:     decimal.NewFromInt(200),
		MonthLabel: "2025-03",
		Allocations: []dto.AllocationRequest{
			{ApartmentExpenseID: &ae.ApartmentExpenseID, Amount: decimal.NewFromInt(60)},
		},
	}

	suite.expectLockAndRefresh(ctx)
	suite.mockPaymentRepo.On("SavePayment", ctx, mock.Anything, mock.AnythingOfType("domain.Payment")).Return(nil).Once()
	suite.mockExpenseRepo.On("FindApartmentExpenseByID", ctx, mock.Anything, ae.ApartmentExpenseID).Return(&ae, nil).Once()
	suite.mockExpenseRepo.On("AddToAmountPaid", ctx, mock.Anything, ae.ApartmentExpenseID, decimal.NewFromInt(60), suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	var savedAllocation domain.PaymentAllocation
	suite.mockPaymentRepo.On("SaveAllocation", ctx, mock.Anything, mock.AnythingOfType("domain.PaymentAllocation")).
		Run(func(args mock.Arguments) {
			savedAllocation = args.Get(2).(domain.PaymentAllocation)
		}).Return(nil).Once()
	suite.mockOccupancyRepo.On("FindActivePeriod", ctx, mock.Anything, suite.apartment.ApartmentID).
		Return(&domain.OccupancyPeriod{PeriodID: uuid.NewString()}, nil).Once()
	suite.mockLedgerRepo.On("AppendEntry", ctx, mock.Anything, mock.AnythingOfType("domain.LedgerEntry")).Return(nil).Once()

	_, err := suite.service.RecordPayment(ctx, suite.apartment.ApartmentID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.ExpenseChargeKind, savedAllocation.Charge.Kind)
	suite.Equal(ae.ApartmentExpenseID, savedAllocation.Charge.ApartmentExpenseID)
	suite.True(savedAllocation.Amount.Equal(decimal.NewFromInt(60)))

	suite.mockExpenseRepo.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestRecordPayment_OverAllocationRejected() {
	ctx := context.Background()
	aeID := uuid.NewString()
	req := dto.RecordPaymentRequest{
		Amount:     decimal.NewFromInt(50),
		MonthLabel: "2025-03",
		Allocations: []dto.AllocationRequest{
			{ApartmentExpenseID: &aeID, Amount: decimal.NewFromInt(60)},
		},
	}

	suite.mockApartmentRepo.On("FindApartmentByIDForUpdate", ctx, mock.Anything, suite.apartment.ApartmentID).Return(&suite.apartment, nil).Once()
	suite.mockPaymentRepo.On("SavePayment", ctx, mock.Anything, mock.AnythingOfType("domain.Payment")).Return(nil).Once()

	_, err := suite.service.RecordPayment(ctx, suite.apartment.ApartmentID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.ErrorIs(err, services.ErrOverAllocation)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "AppendEntry", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PaymentServiceTestSuite) TestRecordPayment_ChargeOverpayRejected() {
	ctx := context.Background()
	ae := domain.ApartmentExpense{
		ApartmentExpenseID: uuid.NewString(),
		ApartmentID:        suite.apartment.ApartmentID,
		Amount:             decimal.NewFromInt(100),
		AmountPaid:         decimal.NewFromInt(80),
	}
	req := dto.RecordPaymentRequest{
		Amount:     decimal.NewFromInt(200),
		MonthLabel: "2025-03",
		Allocations: []dto.AllocationRequest{
			// Outstanding is only 20.
			{ApartmentExpenseID: &ae.ApartmentExpenseID, Amount: decimal.NewFromInt(30)},
		},
	}

	suite.mockApartmentRepo.On("FindApartmentByIDForUpdate", ctx, mock.Anything, suite.apartment.ApartmentID).Return(&suite.apartment, nil).Once()
	suite.mockPaymentRepo.On("SavePayment", ctx, mock.Anything, mock.AnythingOfType("domain.Payment")).Return(nil).Once()
	suite.mockExpenseRepo.On("FindApartmentExpenseByID", ctx, mock.Anything, ae.ApartmentExpenseID).Return(&ae, nil).Once()

	_, err := suite.service.RecordPayment(ctx, suite.apartment.ApartmentID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrChargeOverpaid)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "AddToAmountPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PaymentServiceTestSuite) TestRecordPayment_CanceledChargeRejected() {
	ctx := context.Background()
	ae := domain.ApartmentExpense{
		ApartmentExpenseID: uuid.NewString(),
		ApartmentID:        suite.apartment.ApartmentID,
		Amount:             decimal.NewFromInt(100),
		IsCanceled:         true,
	}
	req := dto.RecordPaymentRequest{
		Amount:     decimal.NewFromInt(100),
		MonthLabel: "2025-03",
		Allocations: []dto.AllocationRequest{
			{ApartmentExpenseID: &ae.ApartmentExpenseID, Amount: decimal.NewFromInt(10)},
		},
	}

	suite.mockApartmentRepo.On("FindApartmentByIDForUpdate", ctx, mock.Anything, suite.apartment.ApartmentID).Return(&suite.apartment, nil).Once()
	suite.mockPaymentRepo.On("SavePayment", ctx, mock.Anything, mock.AnythingOfType("domain.Payment")).Return(nil).Once()
	suite.mockExpenseRepo.On("FindApartmentExpenseByID", ctx, mock.Anything, ae.ApartmentExpenseID).Return(&ae, nil).Once()

	_, err := suite.service.RecordPayment(ctx, suite.apartment.ApartmentID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.ErrorIs(err, services.ErrChargeCanceled)
}

func (suite *PaymentServiceTestSuite) TestRecordPayment_AmbiguousAllocationRejected() {
	ctx := context.Background()
	aeID := uuid.NewString()
	month := "2025-03"
	req := dto.RecordPaymentRequest{
		Amount:     decimal.NewFromInt(100),
		MonthLabel: "2025-03",
		Allocations: []dto.AllocationRequest{
			// Both targets set.
			{ApartmentExpenseID: &aeID, SubscriptionMonth: &month, Amount: decimal.NewFromInt(10)},
		},
	}

	suite.mockApartmentRepo.On("FindApartmentByIDForUpdate", ctx, mock.Anything, suite.apartment.ApartmentID).Return(&suite.apartment, nil).Once()
	suite.mockPaymentRepo.On("SavePayment", ctx, mock.Anything, mock.AnythingOfType("domain.Payment")).Return(nil).Once()

	_, err := suite.service.RecordPayment(ctx, suite.apartment.ApartmentID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrAmbiguousCharge)
}

func (suite *PaymentServiceTestSuite) TestRecordPayment_InvalidMonthLabel() {
	ctx := context.Background()
	req := dto.RecordPaymentRequest{
		Amount:     decimal.NewFromInt(100),
		MonthLabel: "March 2025",
	}

	_, err := suite.service.RecordPayment(ctx, suite.apartment.ApartmentID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockApartmentRepo.AssertNotCalled(suite.T(), "FindApartmentByIDForUpdate", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PaymentServiceTestSuite) TestRecordPayment_VacantApartmentGetsNoPeriod() {
	ctx := context.Background()
	req := dto.RecordPaymentRequest{
		Amount:     decimal.NewFromInt(100),
		MonthLabel: "2025-03",
	}

	suite.expectLockAndRefresh(ctx)
	suite.mockPaymentRepo.On("SavePayment", ctx, mock.Anything, mock.AnythingOfType("domain.Payment")).Return(nil).Once()
	suite.mockOccupancyRepo.On("FindActivePeriod", ctx, mock.Anything, suite.apartment.ApartmentID).
		Return(nil, apperrors.ErrNotFound).Once()

	var savedEntry domain.LedgerEntry
	suite.mockLedgerRepo.On("AppendEntry", ctx, mock.Anything, mock.AnythingOfType("domain.LedgerEntry")).
		Run(func(args mock.Arguments) {
			savedEntry = args.Get(2).(domain.LedgerEntry)
		}).Return(nil).Once()

	_, err := suite.service.RecordPayment(ctx, suite.apartment.ApartmentID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Nil(savedEntry.PeriodID, "a payment on a vacant apartment carries no period")
}

func TestPaymentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}
