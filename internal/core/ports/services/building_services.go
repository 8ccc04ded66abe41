package services

import (
	"context"

	"github.com/shikunim/building_mgmt_app/internal/core/domain"
	"github.com/shikunim/building_mgmt_app/internal/dto"
)

// BuildingSvcFacade exposes building CRUD. Thin by design: buildings are
// metadata the ledger core only references.
type BuildingSvcFacade interface {
	CreateBuilding(ctx context.Context, req dto.CreateBuildingRequest, creatorUserID string) (*domain.Building, error)
	GetBuildingByID(ctx context.Context, buildingID string) (*domain.Building, error)
	ListBuildings(ctx context.Context) ([]domain.Building, error)
}

// ApartmentSvcFacade exposes apartment CRUD and subscription settings.
type ApartmentSvcFacade interface {
	CreateApartment(ctx context.Context, buildingID string, req dto.CreateApartmentRequest, creatorUserID string) (*domain.Apartment, error)
	GetApartmentByID(ctx context.Context, apartmentID string) (*domain.Apartment, error)
	ListApartmentsByBuilding(ctx context.Context, buildingID string) ([]domain.Apartment, error)
	UpdateSubscriptionAmount(ctx context.Context, apartmentID string, req dto.UpdateSubscriptionRequest, userID string) error
}
