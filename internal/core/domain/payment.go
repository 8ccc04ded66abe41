package domain

import "github.com/shopspring/decimal"

// Payment is money received from an apartment's tenant. MonthLabel is a
// YYYY-MM label for display grouping. Canceled payments are kept and
// offset by reversal entries.
type Payment struct {
	PaymentID   string          `json:"paymentID"`
	ApartmentID string          `json:"apartmentID"`
	Amount      decimal.Decimal `json:"amount"`
	MonthLabel  string          `json:"monthLabel"`
	IsCanceled  bool            `json:"isCanceled"`
	AuditFields
}

// PaymentAllocation records how part of a payment was applied against a
// specific charge. Allocations are bookkeeping metadata: the accumulator
// counts payments in full regardless of how they were allocated.
type PaymentAllocation struct {
	AllocationID string          `json:"allocationID"`
	PaymentID    string          `json:"paymentID"`
	Charge       ChargeRef       `json:"charge"`
	Amount       decimal.Decimal `json:"amount"`
	AuditFields
}
