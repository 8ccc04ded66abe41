package dto

import (
	"time"

	"github.com/shikunim/building_mgmt_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// StartOccupancyRequest defines the payload for starting a tenancy.
type StartOccupancyRequest struct {
	TenantName string    `json:"tenantName" binding:"required"`
	StartDate  time.Time `json:"startDate" binding:"required"`
}

// TerminateOccupancyRequest defines the payload for ending a tenancy.
type TerminateOccupancyRequest struct {
	EndDate time.Time `json:"endDate" binding:"required"`
}

// OccupancyPeriodResponse defines the data returned for an occupancy period.
type OccupancyPeriodResponse struct {
	PeriodID       string           `json:"periodID"`
	ApartmentID    string           `json:"apartmentID"`
	TenantName     string           `json:"tenantName"`
	StartDate      time.Time        `json:"startDate"`
	EndDate        *time.Time       `json:"endDate,omitempty"`
	Status         string           `json:"status"`
	ClosingBalance *decimal.Decimal `json:"closingBalance,omitempty"`
}

// ToOccupancyPeriodResponse converts a domain.OccupancyPeriod to its DTO.
func ToOccupancyPeriodResponse(p *domain.OccupancyPeriod) OccupancyPeriodResponse {
	return OccupancyPeriodResponse{
		PeriodID:       p.PeriodID,
		ApartmentID:    p.ApartmentID,
		TenantName:     p.TenantName,
		StartDate:      p.StartDate,
		EndDate:        p.EndDate,
		Status:         string(p.Status),
		ClosingBalance: p.ClosingBalance,
	}
}

// ListOccupancyPeriodsResponse wraps the period list payload.
type ListOccupancyPeriodsResponse struct {
	Periods []OccupancyPeriodResponse `json:"periods"`
}
