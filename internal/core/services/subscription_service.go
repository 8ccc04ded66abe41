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
	"github.com/shikunim/building_mgmt_app/internal/utils/money"
)

// subscriptionService charges the monthly maintenance subscription.
// Designed to be driven by a scheduler; safe to run any number of times
// per month because each (apartment, month) is charged at most once.
type subscriptionService struct {
	tx            portsrepo.TransactionManager
	buildingRepo  portsrepo.BuildingRepositoryFacade
	apartmentRepo portsrepo.ApartmentRepositoryFacade
	occupancyRepo portsrepo.OccupancyRepositoryFacade
	ledgerRepo    portsrepo.LedgerRepositoryFacade
	balanceSvc    portssvc.BalanceRefresher
}

// NewSubscriptionService creates the subscription charging service.
func NewSubscriptionService(
	tx portsrepo.TransactionManager,
	buildingRepo portsrepo.BuildingRepositoryFacade,
	apartmentRepo portsrepo.ApartmentRepositoryFacade,
	occupancyRepo portsrepo.OccupancyRepositoryFacade,
	ledgerRepo portsrepo.LedgerRepositoryFacade,
	balanceSvc portssvc.BalanceRefresher,
) *subscriptionService {
	return &subscriptionService{
		tx:            tx,
		buildingRepo:  buildingRepo,
		apartmentRepo: apartmentRepo,
		occupancyRepo: occupancyRepo,
		ledgerRepo:    ledgerRepo,
		balanceSvc:    balanceSvc,
	}
}

var _ portssvc.SubscriptionSvcFacade = (*subscriptionService)(nil)

// ChargeSubscriptions debits every occupied regular apartment its monthly
// subscription for the month containing asOf. An apartment that moved in
// mid-month is charged only its occupied days. Each apartment commits in
// its own transaction so one failure does not abort the run; the returned
// count is the number of apartments actually charged.
func (s *subscriptionService) ChargeSubscriptions(ctx context.Context, asOf time.Time, userID string) (int, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	month := money.MonthLabel(asOf)

	buildings, err := s.buildingRepo.ListBuildings(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list buildings: %w", err)
	}

	charged := 0
	for _, building := range buildings {
		apartments, err := s.apartmentRepo.ListApartmentsByBuilding(ctx, building.BuildingID)
		if err != nil {
			logger.Error("Failed to list apartments for subscription run",
				slog.String("building_id", building.BuildingID),
				slog.String("error", err.Error()),
			)
			continue
		}
		for _, apartment := range apartments {
			if !apartment.IsEligibleForSplit() || !apartment.SubscriptionAmount.IsPositive() {
				continue
			}
			ok, err := s.chargeApartmentSubscription(ctx, apartment.ApartmentID, asOf, month, userID)
			if err != nil {
				logger.Error("Failed to charge subscription",
					slog.String("apartment_id", apartment.ApartmentID),
					slog.String("month", month),
					slog.String("error", err.Error()),
				)
				continue
			}
			if ok {
				charged++
			}
		}
	}

	logger.Info("Subscription run finished", slog.String("month", month), slog.Int("charged", charged))
	return charged, nil
}

// chargeApartmentSubscription debits one apartment for one month, unless
// it was already charged.
func (s *subscriptionService) chargeApartmentSubscription(ctx context.Context, apartmentID string, asOf time.Time, month string, userID string) (bool, error) {
	charged := false
	err := s.tx.WithTransaction(ctx, func(tx pgx.Tx) error {
		apartment, err := s.apartmentRepo.FindApartmentByIDForUpdate(ctx, tx, apartmentID)
		if err != nil {
			return fmt.Errorf("failed to lock apartment %s: %w", apartmentID, err)
		}
		// Re-check under the lock; the unlocked listing may be stale.
		if !apartment.IsEligibleForSplit() || !apartment.SubscriptionAmount.IsPositive() {
			return nil
		}

		if _, err := s.ledgerRepo.FindEntryPeriodID(ctx, tx, apartmentID, domain.RefSubscription, month); err == nil {
			return nil // already charged this month
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		period, err := s.occupancyRepo.FindActivePeriod(ctx, tx, apartmentID)
		if err != nil {
			return fmt.Errorf("failed to resolve active period for apartment %s: %w", apartmentID, err)
		}

		amount := apartment.SubscriptionAmount
		occupiedDays := money.OccupiedDaysInMonth(period.StartDate, asOf)
		dim := money.DaysInMonth(asOf)
		if occupiedDays < dim {
			amount, err = money.ProratedShare(apartment.SubscriptionAmount, 1, occupiedDays, dim)
			if err != nil {
				return err
			}
		}
		if amount.IsZero() {
			return nil
		}

		now := time.Now().UTC()
		entry := domain.LedgerEntry{
			EntryID:       uuid.NewString(),
			ApartmentID:   apartmentID,
			EntryType:     domain.Debit,
			Amount:        amount,
			Description:   fmt.Sprintf("Monthly subscription for %s", month),
			ReferenceType: domain.RefSubscription,
			ReferenceID:   month,
			PeriodID:      &period.PeriodID,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		if err := s.ledgerRepo.AppendEntry(ctx, tx, entry); err != nil {
			return fmt.Errorf("failed to append subscription entry: %w", err)
		}

		if _, err := s.balanceSvc.RefreshCachedBalance(ctx, tx, apartment, userID); err != nil {
			return err
		}
		charged = true
		return nil
	})
	return charged, err
}
