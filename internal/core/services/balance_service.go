package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/shikunim/building_mgmt_app/internal/core/domain"
	portsrepo "github.com/shikunim/building_mgmt_app/internal/core/ports/repositories"
	portssvc "github.com/shikunim/building_mgmt_app/internal/core/ports/services"
	"github.com/shikunim/building_mgmt_app/internal/middleware"
)

// balanceService is the balance accumulator: the single writer of
// Apartment.CachedBalance. It always recomputes from the full ledger
// instead of adjusting a counter incrementally, so a call site that
// forgets an update cannot introduce drift; calling it twice in a row is
// a no-op.
type balanceService struct {
	apartmentRepo portsrepo.ApartmentRepositoryFacade
	ledgerRepo    portsrepo.LedgerRepositoryFacade
}

// NewBalanceService creates the balance accumulator.
func NewBalanceService(apartmentRepo portsrepo.ApartmentRepositoryFacade, ledgerRepo portsrepo.LedgerRepositoryFacade) portssvc.BalanceRefresher {
	return &balanceService{
		apartmentRepo: apartmentRepo,
		ledgerRepo:    ledgerRepo,
	}
}

var _ portssvc.BalanceRefresher = (*balanceService)(nil)

// RefreshCachedBalance recomputes cachedBalance = credits - debits over the
// apartment's entire ledger and persists it together with the derived
// subscription status. The caller must already hold the apartment's row
// lock within tx; this must be the last ledger-related step of the
// transaction so the cache reflects every entry written in it.
func (s *balanceService) RefreshCachedBalance(ctx context.Context, tx pgx.Tx, apartment *domain.Apartment, userID string) (decimal.Decimal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	totals, err := s.ledgerRepo.SumEntries(ctx, tx, apartment.ApartmentID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum ledger entries for apartment %s: %w", apartment.ApartmentID, err)
	}

	balance := totals.Balance()
	status := deriveSubscriptionStatus(apartment, balance, totals.LivePayments())

	now := time.Now().UTC()
	if err := s.apartmentRepo.UpdateCachedBalanceInTx(ctx, tx, apartment.ApartmentID, balance, status, userID, now); err != nil {
		return decimal.Zero, fmt.Errorf("failed to write cached balance for apartment %s: %w", apartment.ApartmentID, err)
	}

	apartment.CachedBalance = balance
	apartment.SubscriptionStatus = status

	logger.Debug("Cached balance refreshed",
		slog.String("apartment_id", apartment.ApartmentID),
		slog.String("balance", balance.String()),
		slog.String("subscription_status", string(status)),
	)
	return balance, nil
}

// deriveSubscriptionStatus maps the recomputed balance to the summary
// status shown on the apartment: PAID when nothing is owed, PARTIAL when
// in debt but some non-canceled payments exist, DUE when in debt with no
// live payments.
// Vacant apartments carry no active subscription.
func deriveSubscriptionStatus(apartment *domain.Apartment, balance, payments decimal.Decimal) domain.SubscriptionStatus {
	if apartment.OccupancyStatus == domain.Vacant {
		return domain.SubscriptionInactive
	}
	if balance.GreaterThanOrEqual(decimal.Zero) {
		return domain.SubscriptionPaid
	}
	if payments.GreaterThan(decimal.Zero) {
		return domain.SubscriptionPartial
	}
	return domain.SubscriptionDue
}
