package services

import (
	"context"
	"time"

	"github.com/shikunim/building_mgmt_app/internal/core/domain"
	"github.com/shikunim/building_mgmt_app/internal/dto"
)

// OccupancySvcFacade exposes the occupancy lifecycle. Starting a tenancy
// opens a period and backfills the apartment's share of pre-existing
// expenses; terminating closes the period with a closing balance snapshot.
type OccupancySvcFacade interface {
	StartOccupancy(ctx context.Context, apartmentID string, req dto.StartOccupancyRequest, userID string) (*domain.OccupancyPeriod, error)
	TerminateOccupancy(ctx context.Context, apartmentID string, req dto.TerminateOccupancyRequest, userID string) (*domain.OccupancyPeriod, error)
	ListPeriodsByApartment(ctx context.Context, apartmentID string) ([]domain.OccupancyPeriod, error)
}

// SubscriptionSvcFacade charges monthly subscriptions.
type SubscriptionSvcFacade interface {
	// ChargeSubscriptions debits every occupied regular apartment its
	// monthly subscription for the month containing asOf. Idempotent per
	// (apartment, month); failures on one apartment do not abort the rest.
	ChargeSubscriptions(ctx context.Context, asOf time.Time, userID string) (int, error)
}
