package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/shikunim/building_mgmt_app/internal/apperrors"
	"github.com/shikunim/building_mgmt_app/internal/core/domain"
	portsrepo "github.com/shikunim/building_mgmt_app/internal/core/ports/repositories"
	portssvc "github.com/shikunim/building_mgmt_app/internal/core/ports/services"
	"github.com/shikunim/building_mgmt_app/internal/middleware"
)

var (
	ErrAlreadyCanceled = errors.New("charge or payment is already canceled")
	ErrNothingToWaive  = errors.New("charge has no outstanding amount to waive")
	ErrZeroBalance     = errors.New("apartment balance is already zero")
)

// reversalService implements the reversal engine. Nothing here deletes or
// mutates history: every operation appends an offsetting ledger entry and
// flips a soft-cancel flag, then lets the accumulator recompute. The
// offsetting entry is tagged with the occupancy period of the ORIGINAL
// entry, so a past tenant's statement stays correct even when the reversal
// happens after turnover.
type reversalService struct {
	tx            portsrepo.TransactionManager
	apartmentRepo portsrepo.ApartmentRepositoryFacade
	occupancyRepo portsrepo.OccupancyRepositoryFacade
	expenseRepo   portsrepo.ExpenseRepositoryFacade
	paymentRepo   portsrepo.PaymentRepositoryFacade
	ledgerRepo    portsrepo.LedgerRepositoryFacade
	balanceSvc    portssvc.BalanceRefresher
}

// NewReversalService creates the reversal engine.
func NewReversalService(
	tx portsrepo.TransactionManager,
	apartmentRepo portsrepo.ApartmentRepositoryFacade,
	occupancyRepo portsrepo.OccupancyRepositoryFacade,
	expenseRepo portsrepo.ExpenseRepositoryFacade,
	paymentRepo portsrepo.PaymentRepositoryFacade,
	ledgerRepo portsrepo.LedgerRepositoryFacade,
	balanceSvc portssvc.BalanceRefresher,
) *reversalService {
	return &reversalService{
		tx:            tx,
		apartmentRepo: apartmentRepo,
		occupancyRepo: occupancyRepo,
		expenseRepo:   expenseRepo,
		paymentRepo:   paymentRepo,
		ledgerRepo:    ledgerRepo,
		balanceSvc:    balanceSvc,
	}
}

var _ portssvc.ReversalSvcFacade = (*reversalService)(nil)

// CancelExpenseCharge voids a split line: appends a credit for its full
// amount into the original entry's period and flips the canceled flag.
// Canceling twice is a conflict.
func (s *reversalService) CancelExpenseCharge(ctx context.Context, apartmentExpenseID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	err := s.tx.WithTransaction(ctx, func(tx pgx.Tx) error {
		ae, err := s.expenseRepo.FindApartmentExpenseByID(ctx, tx, apartmentExpenseID)
		if err != nil {
			return fmt.Errorf("failed to find charge %s: %w", apartmentExpenseID, err)
		}
		if ae.IsCanceled {
			return fmt.Errorf("%w: %w", apperrors.ErrConflict, ErrAlreadyCanceled)
		}

		apartment, err := s.apartmentRepo.FindApartmentByIDForUpdate(ctx, tx, ae.ApartmentID)
		if err != nil {
			return fmt.Errorf("failed to lock apartment %s: %w", ae.ApartmentID, err)
		}

		now := time.Now().UTC()
		periodID, found, err := s.originalPeriod(ctx, tx, ae.ApartmentID, domain.RefExpense, ae.ApartmentExpenseID)
		if err != nil {
			return err
		}
		if found {
			entry := domain.LedgerEntry{
				EntryID:       uuid.NewString(),
				ApartmentID:   ae.ApartmentID,
				EntryType:     domain.Credit,
				Amount:        ae.Amount,
				Description:   "Expense charge canceled",
				ReferenceType: domain.RefReversal,
				ReferenceID:   ae.ApartmentExpenseID,
				PeriodID:      periodID,
				AuditFields: domain.AuditFields{
					CreatedAt:     now,
					CreatedBy:     userID,
					LastUpdatedAt: now,
					LastUpdatedBy: userID,
				},
			}
			if err := s.ledgerRepo.AppendEntry(ctx, tx, entry); err != nil {
				return fmt.Errorf("failed to append reversal entry: %w", err)
			}
		}

		if err := s.expenseRepo.MarkApartmentExpenseCanceled(ctx, tx, ae.ApartmentExpenseID, userID, now); err != nil {
			return err
		}

		_, err = s.balanceSvc.RefreshCachedBalance(ctx, tx, apartment, userID)
		return err
	})
	if err != nil {
		return err
	}

	logger.Info("Expense charge canceled", slog.String("apartment_expense_id", apartmentExpenseID))
	return nil
}

// WaiveExpenseCharge forgives the unpaid remainder of a split line:
// appends a credit for the outstanding amount and marks the charge fully
// settled. Already-paid money is untouched.
func (s *reversalService) WaiveExpenseCharge(ctx context.Context, apartmentExpenseID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	err := s.tx.WithTransaction(ctx, func(tx pgx.Tx) error {
		ae, err := s.expenseRepo.FindApartmentExpenseByID(ctx, tx, apartmentExpenseID)
		if err != nil {
			return fmt.Errorf("failed to find charge %s: %w", apartmentExpenseID, err)
		}
		if ae.IsCanceled {
			return fmt.Errorf("%w: %w", apperrors.ErrConflict, ErrAlreadyCanceled)
		}
		outstanding := ae.Outstanding()
		if !outstanding.IsPositive() {
			return fmt.Errorf("%w: %w", apperrors.ErrConflict, ErrNothingToWaive)
		}

		apartment, err := s.apartmentRepo.FindApartmentByIDForUpdate(ctx, tx, ae.ApartmentID)
		if err != nil {
			return fmt.Errorf("failed to lock apartment %s: %w", ae.ApartmentID, err)
		}

		now := time.Now().UTC()
		periodID, found, err := s.originalPeriod(ctx, tx, ae.ApartmentID, domain.RefExpense, ae.ApartmentExpenseID)
		if err != nil {
			return err
		}
		if found {
			entry := domain.LedgerEntry{
				EntryID:       uuid.NewString(),
				ApartmentID:   ae.ApartmentID,
				EntryType:     domain.Credit,
				Amount:        outstanding,
				Description:   "Expense charge waived",
				ReferenceType: domain.RefWaiver,
				ReferenceID:   ae.ApartmentExpenseID,
				PeriodID:      periodID,
				AuditFields: domain.AuditFields{
					CreatedAt:     now,
					CreatedBy:     userID,
					LastUpdatedAt: now,
					LastUpdatedBy: userID,
				},
			}
			if err := s.ledgerRepo.AppendEntry(ctx, tx, entry); err != nil {
				return fmt.Errorf("failed to append waiver entry: %w", err)
			}
		}

		if err := s.expenseRepo.SetAmountPaid(ctx, tx, ae.ApartmentExpenseID, ae.Amount, userID, now); err != nil {
			return err
		}

		_, err = s.balanceSvc.RefreshCachedBalance(ctx, tx, apartment, userID)
		return err
	})
	if err != nil {
		return err
	}

	logger.Info("Expense charge waived", slog.String("apartment_expense_id", apartmentExpenseID))
	return nil
}

// CancelPayment voids a payment: rolls back the paid tracking of every
// expense allocation it produced, appends an offsetting debit into the
// original payment entry's period and flips the canceled flag.
func (s *reversalService) CancelPayment(ctx context.Context, paymentID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	err := s.tx.WithTransaction(ctx, func(tx pgx.Tx) error {
		payment, err := s.paymentRepo.FindPaymentByID(ctx, tx, paymentID)
		if err != nil {
			return fmt.Errorf("failed to find payment %s: %w", paymentID, err)
		}
		if payment.IsCanceled {
			return fmt.Errorf("%w: %w", apperrors.ErrConflict, ErrAlreadyCanceled)
		}

		apartment, err := s.apartmentRepo.FindApartmentByIDForUpdate(ctx, tx, payment.ApartmentID)
		if err != nil {
			return fmt.Errorf("failed to lock apartment %s: %w", payment.ApartmentID, err)
		}

		now := time.Now().UTC()
		allocations, err := s.paymentRepo.ListAllocationsByPayment(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		for _, alloc := range allocations {
			if alloc.Charge.Kind != domain.ExpenseChargeKind {
				continue
			}
			if err := s.expenseRepo.AddToAmountPaid(ctx, tx, alloc.Charge.ApartmentExpenseID, alloc.Amount.Neg(), userID, now); err != nil {
				return fmt.Errorf("failed to roll back allocation %s: %w", alloc.AllocationID, err)
			}
		}

		periodID, found, err := s.originalPeriod(ctx, tx, payment.ApartmentID, domain.RefPayment, paymentID)
		if err != nil {
			return err
		}
		if found {
			entry := domain.LedgerEntry{
				EntryID:       uuid.NewString(),
				ApartmentID:   payment.ApartmentID,
				EntryType:     domain.Debit,
				Amount:        payment.Amount,
				Description:   fmt.Sprintf("Payment for %s canceled", payment.MonthLabel),
				ReferenceType: domain.RefReversal,
				ReferenceID:   payment.PaymentID,
				PeriodID:      periodID,
				AuditFields: domain.AuditFields{
					CreatedAt:     now,
					CreatedBy:     userID,
					LastUpdatedAt: now,
					LastUpdatedBy: userID,
				},
			}
			if err := s.ledgerRepo.AppendEntry(ctx, tx, entry); err != nil {
				return fmt.Errorf("failed to append payment reversal entry: %w", err)
			}
		}

		if err := s.paymentRepo.MarkPaymentCanceled(ctx, tx, paymentID, userID, now); err != nil {
			return err
		}

		_, err = s.balanceSvc.RefreshCachedBalance(ctx, tx, apartment, userID)
		return err
	})
	if err != nil {
		return err
	}

	logger.Info("Payment canceled", slog.String("payment_id", paymentID))
	return nil
}

// WriteOffBalance zeroes an apartment's balance with a single adjusting
// entry in the current period: a credit when the apartment owes money, a
// debit when it holds leftover credit. A zero balance is a conflict.
func (s *reversalService) WriteOffBalance(ctx context.Context, apartmentID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	err := s.tx.WithTransaction(ctx, func(tx pgx.Tx) error {
		apartment, err := s.apartmentRepo.FindApartmentByIDForUpdate(ctx, tx, apartmentID)
		if err != nil {
			return fmt.Errorf("failed to lock apartment %s: %w", apartmentID, err)
		}

		totals, err := s.ledgerRepo.SumEntries(ctx, tx, apartmentID)
		if err != nil {
			return err
		}
		balance := totals.Balance()
		if balance.IsZero() {
			return fmt.Errorf("%w: %w", apperrors.ErrConflict, ErrZeroBalance)
		}

		entryType := domain.Credit
		amount := balance.Neg()
		description := "Outstanding balance written off"
		if balance.IsPositive() {
			entryType = domain.Debit
			amount = balance
			description = "Remaining credit written off"
		}

		var periodID *string
		period, err := s.occupancyRepo.FindActivePeriod(ctx, tx, apartmentID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		if period != nil {
			periodID = &period.PeriodID
		}

		now := time.Now().UTC()
		entry := domain.LedgerEntry{
			EntryID:       uuid.NewString(),
			ApartmentID:   apartmentID,
			EntryType:     entryType,
			Amount:        amount,
			Description:   description,
			ReferenceType: domain.RefWriteOff,
			ReferenceID:   apartmentID,
			PeriodID:      periodID,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		if err := s.ledgerRepo.AppendEntry(ctx, tx, entry); err != nil {
			return fmt.Errorf("failed to append write-off entry: %w", err)
		}

		_, err = s.balanceSvc.RefreshCachedBalance(ctx, tx, apartment, userID)
		return err
	})
	if err != nil {
		return err
	}

	logger.Info("Balance written off", slog.String("apartment_id", apartmentID))
	return nil
}

// originalPeriod resolves the period of the original ledger entry for a
// reference. A missing original entry is tolerated: the reversal then
// skips the offsetting entry and only flips flags, which keeps the
// operation usable on records that predate the ledger.
func (s *reversalService) originalPeriod(ctx context.Context, tx pgx.Tx, apartmentID string, refType domain.ReferenceType, refID string) (*string, bool, error) {
	periodID, err := s.ledgerRepo.FindEntryPeriodID(ctx, tx, apartmentID, refType, refID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to resolve original entry period: %w", err)
	}
	return periodID, true, nil
}
