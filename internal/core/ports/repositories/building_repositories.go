package repositories

import (
	"context"

	"github.com/shikunim/building_mgmt_app/internal/core/domain"
)

// BuildingReader defines read operations for building data
type BuildingReader interface {
	// FindBuildingByID retrieves a specific building by its unique identifier.
	FindBuildingByID(ctx context.Context, buildingID string) (*domain.Building, error)

	// ListBuildings retrieves all buildings.
	ListBuildings(ctx context.Context) ([]domain.Building, error)
}

// BuildingWriter defines write operations for building data
type BuildingWriter interface {
	// SaveBuilding persists a new building.
	SaveBuilding(ctx context.Context, building domain.Building) error
}

// BuildingRepositoryFacade combines all building-related repository interfaces
type BuildingRepositoryFacade interface {
	BuildingReader
	BuildingWriter
}
