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
	"github.com/shikunim/building_mgmt_app/internal/dto"
	"github.com/shikunim/building_mgmt_app/internal/middleware"
	"github.com/shikunim/building_mgmt_app/internal/utils/money"
)

var (
	ErrAlreadyOccupied = errors.New("apartment already has an open occupancy period")
	ErrNotOccupied     = errors.New("apartment has no open occupancy period")
	ErrEndBeforeStart  = errors.New("end date precedes the period start date")
)

// occupancyService implements the occupancy lifecycle. Starting a tenancy
// opens a period, flips the apartment to occupied and backfills the
// newcomer's prorated share of expenses from their occupancy month;
// terminating prorates back the unused subscription days, snapshots the
// closing balance onto the period and flips the apartment to vacant.
type occupancyService struct {
	tx            portsrepo.TransactionManager
	apartmentRepo portsrepo.ApartmentRepositoryFacade
	occupancyRepo portsrepo.OccupancyRepositoryFacade
	ledgerRepo    portsrepo.LedgerRepositoryFacade
	backfiller    portssvc.ExpenseBackfiller
	balanceSvc    portssvc.BalanceRefresher
}

// NewOccupancyService creates the occupancy lifecycle service.
func NewOccupancyService(
	tx portsrepo.TransactionManager,
	apartmentRepo portsrepo.ApartmentRepositoryFacade,
	occupancyRepo portsrepo.OccupancyRepositoryFacade,
	ledgerRepo portsrepo.LedgerRepositoryFacade,
	backfiller portssvc.ExpenseBackfiller,
	balanceSvc portssvc.BalanceRefresher,
) *occupancyService {
	return &occupancyService{
		tx:            tx,
		apartmentRepo: apartmentRepo,
		occupancyRepo: occupancyRepo,
		ledgerRepo:    ledgerRepo,
		backfiller:    backfiller,
		balanceSvc:    balanceSvc,
	}
}

var _ portssvc.OccupancySvcFacade = (*occupancyService)(nil)

// StartOccupancy opens a new occupancy period on a vacant apartment and
// charges the new tenant their day-prorated share of expenses dated within
// or after the occupancy month.
func (s *occupancyService) StartOccupancy(ctx context.Context, apartmentID string, req dto.StartOccupancyRequest, userID string) (*domain.OccupancyPeriod, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	now := time.Now().UTC()
	startDate := req.StartDate.UTC().Truncate(24 * time.Hour)
	period := domain.OccupancyPeriod{
		PeriodID:    uuid.NewString(),
		ApartmentID: apartmentID,
		TenantName:  req.TenantName,
		StartDate:   startDate,
		Status:      domain.PeriodOpen,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	err := s.tx.WithTransaction(ctx, func(tx pgx.Tx) error {
		apartment, err := s.apartmentRepo.FindApartmentByIDForUpdate(ctx, tx, apartmentID)
		if err != nil {
			return fmt.Errorf("failed to lock apartment %s: %w", apartmentID, err)
		}
		if apartment.OccupancyStatus == domain.Occupied {
			return fmt.Errorf("%w: %w", apperrors.ErrConflict, ErrAlreadyOccupied)
		}

		if err := s.occupancyRepo.OpenPeriod(ctx, tx, period); err != nil {
			return fmt.Errorf("failed to open occupancy period: %w", err)
		}
		if err := s.apartmentRepo.UpdateOccupancyInTx(ctx, tx, apartmentID, domain.Occupied, &startDate, userID, now); err != nil {
			return err
		}
		apartment.OccupancyStatus = domain.Occupied
		apartment.OccupancyStartDate = &startDate

		if err := s.backfiller.BackfillExpensesForApartment(ctx, tx, *apartment, period.PeriodID, userID); err != nil {
			return err
		}

		_, err = s.balanceSvc.RefreshCachedBalance(ctx, tx, apartment, userID)
		return err
	})
	if err != nil {
		logger.Error("Failed to start occupancy", slog.String("error", err.Error()), slog.String("apartment_id", apartmentID))
		return nil, err
	}

	logger.Info("Occupancy started", slog.String("apartment_id", apartmentID), slog.String("period_id", period.PeriodID))
	return &period, nil
}

// TerminateOccupancy closes the apartment's open period: credits back the
// unused days of an already-charged subscription month, snapshots the
// final balance onto the period and flips the apartment to vacant. The
// ledger itself is untouched; any remaining debt or credit stays on the
// apartment.
func (s *occupancyService) TerminateOccupancy(ctx context.Context, apartmentID string, req dto.TerminateOccupancyRequest, userID string) (*domain.OccupancyPeriod, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	var closed *domain.OccupancyPeriod
	err := s.tx.WithTransaction(ctx, func(tx pgx.Tx) error {
		apartment, err := s.apartmentRepo.FindApartmentByIDForUpdate(ctx, tx, apartmentID)
		if err != nil {
			return fmt.Errorf("failed to lock apartment %s: %w", apartmentID, err)
		}

		period, err := s.occupancyRepo.FindActivePeriod(ctx, tx, apartmentID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("%w: %w", apperrors.ErrConflict, ErrNotOccupied)
			}
			return err
		}

		endDate := req.EndDate.UTC().Truncate(24 * time.Hour)
		if endDate.Before(period.StartDate) {
			return fmt.Errorf("%w: %w", apperrors.ErrValidation, ErrEndBeforeStart)
		}

		now := time.Now().UTC()
		if err := s.creditUnusedSubscriptionDays(ctx, tx, apartment, period.PeriodID, endDate, userID, now); err != nil {
			return err
		}

		if err := s.apartmentRepo.UpdateOccupancyInTx(ctx, tx, apartmentID, domain.Vacant, nil, userID, now); err != nil {
			return err
		}
		apartment.OccupancyStatus = domain.Vacant
		apartment.OccupancyStartDate = nil

		balance, err := s.balanceSvc.RefreshCachedBalance(ctx, tx, apartment, userID)
		if err != nil {
			return err
		}

		if err := s.occupancyRepo.ClosePeriod(ctx, tx, period.PeriodID, endDate, balance, userID, now); err != nil {
			return fmt.Errorf("failed to close occupancy period: %w", err)
		}

		period.EndDate = &endDate
		period.Status = domain.PeriodClosed
		period.ClosingBalance = &balance
		closed = period
		return nil
	})
	if err != nil {
		logger.Error("Failed to terminate occupancy", slog.String("error", err.Error()), slog.String("apartment_id", apartmentID))
		return nil, err
	}

	logger.Info("Occupancy terminated",
		slog.String("apartment_id", apartmentID),
		slog.String("period_id", closed.PeriodID),
		slog.String("closing_balance", closed.ClosingBalance.String()),
	)
	return closed, nil
}

// creditUnusedSubscriptionDays refunds the tail of the move-out month when
// that month's subscription was already charged: subscription * unusedDays
// / daysInMonth, tagged with the closing period. A month that was never
// charged gets no credit.
func (s *occupancyService) creditUnusedSubscriptionDays(ctx context.Context, tx pgx.Tx, apartment *domain.Apartment, periodID string, endDate time.Time, userID string, now time.Time) error {
	if !apartment.SubscriptionAmount.IsPositive() {
		return nil
	}
	dim := money.DaysInMonth(endDate)
	unusedDays := dim - endDate.Day()
	if unusedDays <= 0 {
		return nil
	}

	month := money.MonthLabel(endDate)
	if _, err := s.ledgerRepo.FindEntryPeriodID(ctx, tx, apartment.ApartmentID, domain.RefSubscription, month); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}

	credit, err := money.ProratedShare(apartment.SubscriptionAmount, 1, unusedDays, dim)
	if err != nil {
		return err
	}
	if credit.IsZero() {
		return nil
	}

	entry := domain.LedgerEntry{
		EntryID:       uuid.NewString(),
		ApartmentID:   apartment.ApartmentID,
		EntryType:     domain.Credit,
		Amount:        credit,
		Description:   fmt.Sprintf("Subscription proration for %s on move-out", month),
		ReferenceType: domain.RefSubscription,
		ReferenceID:   month,
		PeriodID:      &periodID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.ledgerRepo.AppendEntry(ctx, tx, entry); err != nil {
		return fmt.Errorf("failed to append subscription proration entry: %w", err)
	}
	return nil
}

// ListPeriodsByApartment retrieves an apartment's occupancy history.
func (s *occupancyService) ListPeriodsByApartment(ctx context.Context, apartmentID string) ([]domain.OccupancyPeriod, error) {
	if _, err := s.apartmentRepo.FindApartmentByID(ctx, apartmentID); err != nil {
		return nil, fmt.Errorf("failed to find apartment %s: %w", apartmentID, err)
	}
	return s.occupancyRepo.ListPeriodsByApartment(ctx, apartmentID)
}
