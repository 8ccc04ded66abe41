package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shikunim/building_mgmt_app/internal/core/domain"
)

// PaymentReader defines read operations for payment data
type PaymentReader interface {
	// FindPaymentByID retrieves a specific payment by its unique identifier.
	FindPaymentByID(ctx context.Context, tx pgx.Tx, paymentID string) (*domain.Payment, error)

	// ListPaymentsByApartment retrieves an apartment's payments, newest first.
	ListPaymentsByApartment(ctx context.Context, apartmentID string, includeCanceled bool) ([]domain.Payment, error)

	// ListAllocationsByPayment retrieves the allocations a payment produced.
	ListAllocationsByPayment(ctx context.Context, tx pgx.Tx, paymentID string) ([]domain.PaymentAllocation, error)
}

// PaymentWriter defines write operations for payment data
type PaymentWriter interface {
	// SavePayment persists a new payment within a transaction.
	SavePayment(ctx context.Context, tx pgx.Tx, payment domain.Payment) error

	// SaveAllocation persists a new payment allocation within a transaction.
	SaveAllocation(ctx context.Context, tx pgx.Tx, allocation domain.PaymentAllocation) error

	// MarkPaymentCanceled flips the canceled flag. The row itself is never
	// deleted.
	MarkPaymentCanceled(ctx context.Context, tx pgx.Tx, paymentID string, userID string, now time.Time) error
}

// PaymentRepositoryFacade combines all payment-related repository interfaces
type PaymentRepositoryFacade interface {
	PaymentReader
	PaymentWriter
}
