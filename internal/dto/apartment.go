package dto

import (
	"time"

	"github.com/shikunim/building_mgmt_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateApartmentRequest defines the payload for creating an apartment.
// Monetary amounts cross the boundary as decimal strings with two
// fractional digits; shopspring/decimal parses them without drift.
type CreateApartmentRequest struct {
	Number             string          `json:"number" binding:"required"`
	ApartmentType      string          `json:"apartmentType" binding:"omitempty,oneof=REGULAR STORAGE PARKING"`
	ParentApartmentID  *string         `json:"parentApartmentID,omitempty"`
	SubscriptionAmount decimal.Decimal `json:"subscriptionAmount"`
}

// UpdateSubscriptionRequest changes an apartment's monthly subscription amount.
type UpdateSubscriptionRequest struct {
	SubscriptionAmount decimal.Decimal `json:"subscriptionAmount" binding:"required"`
}

// ApartmentResponse defines the data returned for an apartment.
type ApartmentResponse struct {
	ApartmentID        string          `json:"apartmentID"`
	BuildingID         string          `json:"buildingID"`
	Number             string          `json:"number"`
	ApartmentType      string          `json:"apartmentType"`
	ParentApartmentID  *string         `json:"parentApartmentID,omitempty"`
	OccupancyStatus    string          `json:"occupancyStatus"`
	OccupancyStartDate *time.Time      `json:"occupancyStartDate,omitempty"`
	SubscriptionAmount decimal.Decimal `json:"subscriptionAmount"`
	SubscriptionStatus string          `json:"subscriptionStatus"`
	CachedBalance      decimal.Decimal `json:"cachedBalance"`
}

// ToApartmentResponse converts a domain.Apartment to ApartmentResponse DTO.
func ToApartmentResponse(a *domain.Apartment) ApartmentResponse {
	return ApartmentResponse{
		ApartmentID:        a.ApartmentID,
		BuildingID:         a.BuildingID,
		Number:             a.Number,
		ApartmentType:      string(a.ApartmentType),
		ParentApartmentID:  a.ParentApartmentID,
		OccupancyStatus:    string(a.OccupancyStatus),
		OccupancyStartDate: a.OccupancyStartDate,
		SubscriptionAmount: a.SubscriptionAmount,
		SubscriptionStatus: string(a.SubscriptionStatus),
		CachedBalance:      a.CachedBalance,
	}
}

// ListApartmentsResponse wraps the apartment list payload.
type ListApartmentsResponse struct {
	Apartments []ApartmentResponse `json:"apartments"`
}
