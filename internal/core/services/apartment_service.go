package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shikunim/building_mgmt_app/internal/apperrors"
	"github.com/shikunim/building_mgmt_app/internal/core/domain"
	portsrepo "github.com/shikunim/building_mgmt_app/internal/core/ports/repositories"
	portssvc "github.com/shikunim/building_mgmt_app/internal/core/ports/services"
	"github.com/shikunim/building_mgmt_app/internal/dto"
)

type apartmentService struct {
	buildingRepo  portsrepo.BuildingRepositoryFacade
	apartmentRepo portsrepo.ApartmentRepositoryFacade
}

// NewApartmentService creates the apartment CRUD service.
func NewApartmentService(buildingRepo portsrepo.BuildingRepositoryFacade, apartmentRepo portsrepo.ApartmentRepositoryFacade) *apartmentService {
	return &apartmentService{buildingRepo: buildingRepo, apartmentRepo: apartmentRepo}
}

var _ portssvc.ApartmentSvcFacade = (*apartmentService)(nil)

func (s *apartmentService) CreateApartment(ctx context.Context, buildingID string, req dto.CreateApartmentRequest, creatorUserID string) (*domain.Apartment, error) {
	if _, err := s.buildingRepo.FindBuildingByID(ctx, buildingID); err != nil {
		return nil, fmt.Errorf("failed to find building %s: %w", buildingID, err)
	}

	apartmentType := domain.ApartmentType(req.ApartmentType)
	if apartmentType == "" {
		apartmentType = domain.Regular
	}
	if req.SubscriptionAmount.IsNegative() {
		return nil, fmt.Errorf("%w: subscription amount cannot be negative", apperrors.ErrValidation)
	}

	// Storage and parking sub-units hang off a regular apartment and never
	// participate in splits or subscriptions.
	if apartmentType != domain.Regular {
		if req.ParentApartmentID == nil {
			return nil, fmt.Errorf("%w: %s apartment requires a parent apartment", apperrors.ErrValidation, apartmentType)
		}
		parent, err := s.apartmentRepo.FindApartmentByID(ctx, *req.ParentApartmentID)
		if err != nil {
			return nil, fmt.Errorf("failed to find parent apartment %s: %w", *req.ParentApartmentID, err)
		}
		if parent.BuildingID != buildingID {
			return nil, fmt.Errorf("%w: parent apartment belongs to a different building", apperrors.ErrValidation)
		}
		if parent.ApartmentType != domain.Regular {
			return nil, fmt.Errorf("%w: parent apartment must be a regular unit", apperrors.ErrValidation)
		}
	} else if req.ParentApartmentID != nil {
		return nil, fmt.Errorf("%w: a regular apartment cannot have a parent", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	apartment := domain.Apartment{
		ApartmentID:        uuid.NewString(),
		BuildingID:         buildingID,
		Number:             req.Number,
		ApartmentType:      apartmentType,
		ParentApartmentID:  req.ParentApartmentID,
		OccupancyStatus:    domain.Vacant,
		SubscriptionAmount: req.SubscriptionAmount,
		SubscriptionStatus: domain.SubscriptionInactive,
		CachedBalance:      decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}
	if err := s.apartmentRepo.SaveApartment(ctx, apartment); err != nil {
		return nil, fmt.Errorf("failed to create apartment: %w", err)
	}
	return &apartment, nil
}

func (s *apartmentService) GetApartmentByID(ctx context.Context, apartmentID string) (*domain.Apartment, error) {
	apartment, err := s.apartmentRepo.FindApartmentByID(ctx, apartmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find apartment %s: %w", apartmentID, err)
	}
	return apartment, nil
}

func (s *apartmentService) ListApartmentsByBuilding(ctx context.Context, buildingID string) ([]domain.Apartment, error) {
	if _, err := s.buildingRepo.FindBuildingByID(ctx, buildingID); err != nil {
		return nil, fmt.Errorf("failed to find building %s: %w", buildingID, err)
	}
	return s.apartmentRepo.ListApartmentsByBuilding(ctx, buildingID)
}

func (s *apartmentService) UpdateSubscriptionAmount(ctx context.Context, apartmentID string, req dto.UpdateSubscriptionRequest, userID string) error {
	if req.SubscriptionAmount.IsNegative() {
		return fmt.Errorf("%w: subscription amount cannot be negative", apperrors.ErrValidation)
	}
	if req.SubscriptionAmount.Exponent() < -2 {
		return fmt.Errorf("%w: subscription amount has more than two fractional digits", apperrors.ErrValidation)
	}
	if _, err := s.apartmentRepo.FindApartmentByID(ctx, apartmentID); err != nil {
		return fmt.Errorf("failed to find apartment %s: %w", apartmentID, err)
	}
	return s.apartmentRepo.UpdateSubscriptionAmount(ctx, apartmentID, req.SubscriptionAmount, userID, time.Now().UTC())
}
