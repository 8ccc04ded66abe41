package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApartmentType distinguishes billable units from sub-units attached to them.
type ApartmentType string

const (
	Regular ApartmentType = "REGULAR"
	Storage ApartmentType = "STORAGE"
	Parking ApartmentType = "PARKING"
)

// OccupancyStatus indicates whether an apartment currently has a tenant.
type OccupancyStatus string

const (
	Vacant   OccupancyStatus = "VACANT"
	Occupied OccupancyStatus = "OCCUPIED"
)

// SubscriptionStatus is derived by the balance accumulator from the ledger;
// it is never set directly by any other code path.
type SubscriptionStatus string

const (
	SubscriptionInactive SubscriptionStatus = "INACTIVE"
	SubscriptionDue      SubscriptionStatus = "DUE"
	SubscriptionPartial  SubscriptionStatus = "PARTIAL"
	SubscriptionPaid     SubscriptionStatus = "PAID"
)

// Apartment is the unit all charges and payments attach to.
// CachedBalance is a materialized summary of the apartment's ledger
// (negative = debt, positive = credit); the balance accumulator is its
// only writer.
type Apartment struct {
	ApartmentID        string             `json:"apartmentID"`
	BuildingID         string             `json:"buildingID"`
	Number             string             `json:"number"`
	ApartmentType      ApartmentType      `json:"apartmentType"`
	ParentApartmentID  *string            `json:"parentApartmentID,omitempty"` // set for storage/parking sub-units
	OccupancyStatus    OccupancyStatus    `json:"occupancyStatus"`
	OccupancyStartDate *time.Time         `json:"occupancyStartDate,omitempty"`
	SubscriptionAmount decimal.Decimal    `json:"subscriptionAmount"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus"`
	CachedBalance      decimal.Decimal    `json:"cachedBalance"`
	AuditFields
}

// IsEligibleForSplit reports whether the apartment participates in
// building-wide expense splits: occupied regular units only.
func (a Apartment) IsEligibleForSplit() bool {
	return a.OccupancyStatus == Occupied && a.ApartmentType == Regular
}
