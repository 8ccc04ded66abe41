package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shikunim/building_mgmt_app/internal/core/domain"
	portsrepo "github.com/shikunim/building_mgmt_app/internal/core/ports/repositories"
	portssvc "github.com/shikunim/building_mgmt_app/internal/core/ports/services"
	"github.com/shikunim/building_mgmt_app/internal/dto"
)

type buildingService struct {
	buildingRepo portsrepo.BuildingRepositoryFacade
}

// NewBuildingService creates the building CRUD service.
func NewBuildingService(buildingRepo portsrepo.BuildingRepositoryFacade) *buildingService {
	return &buildingService{buildingRepo: buildingRepo}
}

var _ portssvc.BuildingSvcFacade = (*buildingService)(nil)

func (s *buildingService) CreateBuilding(ctx context.Context, req dto.CreateBuildingRequest, creatorUserID string) (*domain.Building, error) {
	now := time.Now().UTC()
	building := domain.Building{
		BuildingID: uuid.NewString(),
		Name:       req.Name,
		Address:    req.Address,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}
	if err := s.buildingRepo.SaveBuilding(ctx, building); err != nil {
		return nil, fmt.Errorf("failed to create building: %w", err)
	}
	return &building, nil
}

func (s *buildingService) GetBuildingByID(ctx context.Context, buildingID string) (*domain.Building, error) {
	building, err := s.buildingRepo.FindBuildingByID(ctx, buildingID)
	if err != nil {
		return nil, fmt.Errorf("failed to find building %s: %w", buildingID, err)
	}
	return building, nil
}

func (s *buildingService) ListBuildings(ctx context.Context) ([]domain.Building, error) {
	return s.buildingRepo.ListBuildings(ctx)
}
