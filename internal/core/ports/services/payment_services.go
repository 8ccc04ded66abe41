package services

import (
	"context"

	"github.com/shikunim/building_mgmt_app/internal/core/domain"
	"github.com/shikunim/building_mgmt_app/internal/dto"
)

// PaymentSvcFacade exposes the payment allocation engine.
type PaymentSvcFacade interface {
	// RecordPayment persists a payment, applies its allocations against
	// outstanding charges and refreshes the cached balance. Allocations
	// never exceed the payment amount; the remainder becomes credit.
	RecordPayment(ctx context.Context, apartmentID string, req dto.RecordPaymentRequest, creatorUserID string) (*domain.Payment, error)

	ListPaymentsByApartment(ctx context.Context, apartmentID string, includeCanceled bool) ([]domain.Payment, error)
}

// ReversalSvcFacade exposes the reversal/cancellation engine. Nothing here
// deletes rows: every operation appends offsetting ledger entries tagged
// with the period of the original charge.
type ReversalSvcFacade interface {
	CancelExpenseCharge(ctx context.Context, apartmentExpenseID string, userID string) error
	WaiveExpenseCharge(ctx context.Context, apartmentExpenseID string, userID string) error
	CancelPayment(ctx context.Context, paymentID string, userID string) error
	WriteOffBalance(ctx context.Context, apartmentID string, userID string) error
}
