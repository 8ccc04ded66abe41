package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodStatus indicates whether an occupancy period is still running.
type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "OPEN"
	PeriodClosed PeriodStatus = "CLOSED"
)

// OccupancyPeriod is one contiguous tenancy interval. Every ledger entry
// written while the period is open carries its ID, so historical
// period-scoped views survive tenant turnover. ClosingBalance is stamped
// when the period is closed.
type OccupancyPeriod struct {
	PeriodID       string           `json:"periodID"`
	ApartmentID    string           `json:"apartmentID"`
	TenantName     string           `json:"tenantName"`
	StartDate      time.Time        `json:"startDate"`
	EndDate        *time.Time       `json:"endDate,omitempty"` // nil while open
	Status         PeriodStatus     `json:"status"`
	ClosingBalance *decimal.Decimal `json:"closingBalance,omitempty"`
	AuditFields
}
