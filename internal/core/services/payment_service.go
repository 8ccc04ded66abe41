package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/shikunim/building_mgmt_app/internal/apperrors"
	"github.com/shikunim/building_mgmt_app/internal/core/domain"
	portsrepo "github.com/shikunim/building_mgmt_app/internal/core/ports/repositories"
	portssvc "github.com/shikunim/building_mgmt_app/internal/core/ports/services"
	"github.com/shikunim/building_mgmt_app/internal/dto"
	"github.com/shikunim/building_mgmt_app/internal/middleware"
	"github.com/shikunim/building_mgmt_app/internal/utils/money"
)

var (
	ErrOverAllocation  = errors.New("allocations exceed the payment amount")
	ErrChargeOverpaid  = errors.New("allocation exceeds the charge's outstanding amount")
	ErrChargeCanceled  = errors.New("cannot allocate against a canceled charge")
	ErrWrongApartment  = errors.New("charge belongs to a different apartment")
	ErrAmbiguousCharge = errors.New("allocation must target exactly one charge")
	ErrBadMonthLabel   = errors.New("month label must be YYYY-MM")
)

// paymentService implements the payment allocation engine. A payment is
// recorded in full as one ledger credit; allocations are bookkeeping that
// tracks which charges the money was meant for. Unallocated remainder
// simply stays in the balance as credit.
type paymentService struct {
	tx            portsrepo.TransactionManager
	apartmentRepo portsrepo.ApartmentRepositoryFacade
	occupancyRepo portsrepo.OccupancyRepositoryFacade
	expenseRepo   portsrepo.ExpenseRepositoryFacade
	paymentRepo   portsrepo.PaymentRepositoryFacade
	ledgerRepo    portsrepo.LedgerRepositoryFacade
	balanceSvc    portssvc.BalanceRefresher
}

// NewPaymentService creates the payment allocation engine.
func NewPaymentService(
	tx portsrepo.TransactionManager,
	apartmentRepo portsrepo.ApartmentRepositoryFacade,
	occupancyRepo portsrepo.OccupancyRepositoryFacade,
	expenseRepo portsrepo.ExpenseRepositoryFacade,
	paymentRepo portsrepo.PaymentRepositoryFacade,
	ledgerRepo portsrepo.LedgerRepositoryFacade,
	balanceSvc portssvc.BalanceRefresher,
) *paymentService {
	return &paymentService{
		tx:            tx,
		apartmentRepo: apartmentRepo,
		occupancyRepo: occupancyRepo,
		expenseRepo:   expenseRepo,
		paymentRepo:   paymentRepo,
		ledgerRepo:    ledgerRepo,
		balanceSvc:    balanceSvc,
	}
}

var _ portssvc.PaymentSvcFacade = (*paymentService)(nil)

// RecordPayment persists a payment, applies its allocations against
// outstanding charges and refreshes the cached balance, all in one
// transaction holding the apartment row lock.
func (s *paymentService) RecordPayment(ctx context.Context, apartmentID string, req dto.RecordPaymentRequest, creatorUserID string) (*domain.Payment, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := money.ValidateAmount(req.Amount); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
	}
	if _, err := time.Parse("2006-01", req.MonthLabel); err != nil {
		return nil, fmt.Errorf("%w: %w: %q", apperrors.ErrValidation, ErrBadMonthLabel, req.MonthLabel)
	}

	now := time.Now().UTC()
	payment := domain.Payment{
		PaymentID:   uuid.NewString(),
		ApartmentID: apartmentID,
		Amount:      req.Amount,
		MonthLabel:  req.MonthLabel,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	err := s.tx.WithTransaction(ctx, func(tx pgx.Tx) error {
		apartment, err := s.apartmentRepo.FindApartmentByIDForUpdate(ctx, tx, apartmentID)
		if err != nil {
			return fmt.Errorf("failed to lock apartment %s: %w", apartmentID, err)
		}

		if err := s.paymentRepo.SavePayment(ctx, tx, payment); err != nil {
			return err
		}

		if err := s.applyAllocations(ctx, tx, payment, req.Allocations, creatorUserID); err != nil {
			return err
		}

		period, err := s.occupancyRepo.FindActivePeriod(ctx, tx, apartmentID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		var periodID *string
		if period != nil {
			periodID = &period.PeriodID
		}

		entry := domain.LedgerEntry{
			EntryID:       uuid.NewString(),
			ApartmentID:   apartmentID,
			EntryType:     domain.Credit,
			Amount:        payment.Amount,
			Description:   fmt.Sprintf("Payment for %s", payment.MonthLabel),
			ReferenceType: domain.RefPayment,
			ReferenceID:   payment.PaymentID,
			PeriodID:      periodID,
			AuditFields:   payment.AuditFields,
		}
		if err := s.ledgerRepo.AppendEntry(ctx, tx, entry); err != nil {
			return fmt.Errorf("failed to append payment entry: %w", err)
		}

		_, err = s.balanceSvc.RefreshCachedBalance(ctx, tx, apartment, creatorUserID)
		return err
	})
	if err != nil {
		logger.Error("Failed to record payment", slog.String("error", err.Error()), slog.String("apartment_id", apartmentID))
		return nil, err
	}

	logger.Info("Payment recorded",
		slog.String("payment_id", payment.PaymentID),
		slog.String("apartment_id", apartmentID),
		slog.String("amount", payment.Amount.String()),
	)
	return &payment, nil
}

// applyAllocations validates and persists the allocation lines. The sum of
// allocations may not exceed the payment amount, an expense allocation may
// not exceed the charge's outstanding amount and canceled charges reject
// allocations outright.
func (s *paymentService) applyAllocations(ctx context.Context, tx pgx.Tx, payment domain.Payment, reqs []dto.AllocationRequest, userID string) error {
	allocated := decimal.Zero
	now := time.Now().UTC()

	for _, a := range reqs {
		if err := money.ValidateAmount(a.Amount); err != nil {
			return fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
		}
		allocated = allocated.Add(a.Amount)
		if allocated.GreaterThan(payment.Amount) {
			return fmt.Errorf("%w: %w", apperrors.ErrValidation, ErrOverAllocation)
		}

		charge, err := s.resolveCharge(ctx, tx, payment.ApartmentID, a, userID, now)
		if err != nil {
			return err
		}

		allocation := domain.PaymentAllocation{
			AllocationID: uuid.NewString(),
			PaymentID:    payment.PaymentID,
			Charge:       charge,
			Amount:       a.Amount,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		if err := s.paymentRepo.SaveAllocation(ctx, tx, allocation); err != nil {
			return fmt.Errorf("failed to save allocation: %w", err)
		}
	}
	return nil
}

// resolveCharge validates the allocation target and, for expense charges,
// advances the split line's paid tracking.
func (s *paymentService) resolveCharge(ctx context.Context, tx pgx.Tx, apartmentID string, a dto.AllocationRequest, userID string, now time.Time) (domain.ChargeRef, error) {
	switch {
	case a.ApartmentExpenseID != nil && a.SubscriptionMonth == nil:
		ae, err := s.expenseRepo.FindApartmentExpenseByID(ctx, tx, *a.ApartmentExpenseID)
		if err != nil {
			return domain.ChargeRef{}, fmt.Errorf("failed to find charge %s: %w", *a.ApartmentExpenseID, err)
		}
		if ae.ApartmentID != apartmentID {
			return domain.ChargeRef{}, fmt.Errorf("%w: %w", apperrors.ErrValidation, ErrWrongApartment)
		}
		if ae.IsCanceled {
			return domain.ChargeRef{}, fmt.Errorf("%w: %w", apperrors.ErrConflict, ErrChargeCanceled)
		}
		if a.Amount.GreaterThan(ae.Outstanding()) {
			return domain.ChargeRef{}, fmt.Errorf("%w: %w", apperrors.ErrValidation, ErrChargeOverpaid)
		}
		if err := s.expenseRepo.AddToAmountPaid(ctx, tx, ae.ApartmentExpenseID, a.Amount, userID, now); err != nil {
			return domain.ChargeRef{}, err
		}
		return domain.ExpenseCharge(ae.ApartmentExpenseID), nil

	case a.SubscriptionMonth != nil && a.ApartmentExpenseID == nil:
		if _, err := time.Parse("2006-01", *a.SubscriptionMonth); err != nil {
			return domain.ChargeRef{}, fmt.Errorf("%w: %w: %q", apperrors.ErrValidation, ErrBadMonthLabel, *a.SubscriptionMonth)
		}
		return domain.SubscriptionCharge(apartmentID, *a.SubscriptionMonth), nil

	default:
		return domain.ChargeRef{}, fmt.Errorf("%w: %w", apperrors.ErrValidation, ErrAmbiguousCharge)
	}
}

// ListPaymentsByApartment retrieves an apartment's payment history.
func (s *paymentService) ListPaymentsByApartment(ctx context.Context, apartmentID string, includeCanceled bool) ([]domain.Payment, error) {
	if _, err := s.apartmentRepo.FindApartmentByID(ctx, apartmentID); err != nil {
		return nil, fmt.Errorf("failed to find apartment %s: %w", apartmentID, err)
	}
	return s.paymentRepo.ListPaymentsByApartment(ctx, apartmentID, includeCanceled)
}
