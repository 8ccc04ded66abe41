package dto

import (
	"time"

	"github.com/shikunim/building_mgmt_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AllocationRequest applies part of a payment against one charge: either a
// concrete apartment-expense split line or a subscription month. Exactly
// one target must be given.
type AllocationRequest struct {
	ApartmentExpenseID *string         `json:"apartmentExpenseID,omitempty"`
	SubscriptionMonth  *string         `json:"subscriptionMonth,omitempty"` // YYYY-MM
	Amount             decimal.Decimal `json:"amount" binding:"required"`
}

// RecordPaymentRequest defines the payload for recording a payment.
// Allocations are optional; any unallocated remainder becomes general
// credit once the balance accumulator runs.
type RecordPaymentRequest struct {
	Amount      decimal.Decimal     `json:"amount" binding:"required"`
	MonthLabel  string              `json:"monthLabel" binding:"required"`
	Allocations []AllocationRequest `json:"allocations"`
}

// PaymentResponse defines the data returned for a payment.
type PaymentResponse struct {
	PaymentID   string          `json:"paymentID"`
	ApartmentID string          `json:"apartmentID"`
	Amount      decimal.Decimal `json:"amount"`
	MonthLabel  string          `json:"monthLabel"`
	IsCanceled  bool            `json:"isCanceled"`
	CreatedAt   time.Time       `json:"createdAt"`
	CreatedBy   string          `json:"createdBy"`
}

// ToPaymentResponse converts a domain.Payment to PaymentResponse DTO.
func ToPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		PaymentID:   p.PaymentID,
		ApartmentID: p.ApartmentID,
		Amount:      p.Amount,
		MonthLabel:  p.MonthLabel,
		IsCanceled:  p.IsCanceled,
		CreatedAt:   p.CreatedAt,
		CreatedBy:   p.CreatedBy,
	}
}

// ListPaymentsResponse wraps the payment list payload.
type ListPaymentsResponse struct {
	Payments []PaymentResponse `json:"payments"`
}
