package services

import (
	"context"
	"fmt"

	"github.com/shikunim/building_mgmt_app/internal/apperrors"
	"github.com/shikunim/building_mgmt_app/internal/core/domain"
	portsrepo "github.com/shikunim/building_mgmt_app/internal/core/ports/repositories"
	portssvc "github.com/shikunim/building_mgmt_app/internal/core/ports/services"
	"github.com/shikunim/building_mgmt_app/internal/dto"
)

// ledgerService serves read-only statement views. Period-scoped statements
// stay stable across tenant turnover because every entry carries the
// period it was written under.
type ledgerService struct {
	apartmentRepo portsrepo.ApartmentRepositoryFacade
	occupancyRepo portsrepo.OccupancyRepositoryFacade
	ledgerRepo    portsrepo.LedgerRepositoryFacade
}

// NewLedgerService creates the statement view service.
func NewLedgerService(
	apartmentRepo portsrepo.ApartmentRepositoryFacade,
	occupancyRepo portsrepo.OccupancyRepositoryFacade,
	ledgerRepo portsrepo.LedgerRepositoryFacade,
) *ledgerService {
	return &ledgerService{
		apartmentRepo: apartmentRepo,
		occupancyRepo: occupancyRepo,
		ledgerRepo:    ledgerRepo,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// GetStatement returns a paginated ledger statement for an apartment,
// optionally scoped to one occupancy period.
func (s *ledgerService) GetStatement(ctx context.Context, apartmentID string, params dto.ListLedgerEntriesParams) (*dto.ListLedgerEntriesResponse, error) {
	if _, err := s.apartmentRepo.FindApartmentByID(ctx, apartmentID); err != nil {
		return nil, fmt.Errorf("failed to find apartment %s: %w", apartmentID, err)
	}
	if params.PeriodID != nil {
		period, err := s.occupancyRepo.FindPeriodByID(ctx, *params.PeriodID)
		if err != nil {
			return nil, fmt.Errorf("failed to find period %s: %w", *params.PeriodID, err)
		}
		if period.ApartmentID != apartmentID {
			return nil, fmt.Errorf("%w: period %s does not belong to apartment %s", apperrors.ErrNotFound, *params.PeriodID, apartmentID)
		}
	}

	entries, nextToken, err := s.ledgerRepo.ListEntriesByApartment(ctx, apartmentID, params.PeriodID, params.Limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries for apartment %s: %w", apartmentID, err)
	}
	return &dto.ListLedgerEntriesResponse{
		Entries:   dto.ToLedgerEntryResponses(entries),
		NextToken: nextToken,
	}, nil
}

// ListPeriods returns the occupancy periods a statement can be scoped to.
func (s *ledgerService) ListPeriods(ctx context.Context, apartmentID string) ([]domain.OccupancyPeriod, error) {
	if _, err := s.apartmentRepo.FindApartmentByID(ctx, apartmentID); err != nil {
		return nil, fmt.Errorf("failed to find apartment %s: %w", apartmentID, err)
	}
	return s.occupancyRepo.ListPeriodsByApartment(ctx, apartmentID)
}
