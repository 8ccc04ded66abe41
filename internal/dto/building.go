package dto

import "github.com/shikunim/building_mgmt_app/internal/core/domain"

// CreateBuildingRequest defines the payload for creating a building.
type CreateBuildingRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
}

// BuildingResponse defines the data returned for a building.
type BuildingResponse struct {
	BuildingID string `json:"buildingID"`
	Name       string `json:"name"`
	Address    string `json:"address"`
}

// ToBuildingResponse converts a domain.Building to BuildingResponse DTO.
func ToBuildingResponse(b *domain.Building) BuildingResponse {
	return BuildingResponse{
		BuildingID: b.BuildingID,
		Name:       b.Name,
		Address:    b.Address,
	}
}

// ListBuildingsResponse wraps the building list payload.
type ListBuildingsResponse struct {
	Buildings []BuildingResponse `json:"buildings"`
}
