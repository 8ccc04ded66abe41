package domain

import (
	"fmt"

	"github.com/shikunim/building_mgmt_app/internal/apperrors"
)

// ChargeKind discriminates the targets a payment can be allocated against.
type ChargeKind string

const (
	ExpenseChargeKind      ChargeKind = "EXPENSE_CHARGE"
	SubscriptionChargeKind ChargeKind = "SUBSCRIPTION"
)

// ChargeRef is a tagged reference to an allocatable charge: either a
// concrete ApartmentExpense row or an apartment's subscription charge for
// a given month. Exactly one variant's fields are set, per Kind.
type ChargeRef struct {
	Kind ChargeKind `json:"kind"`

	// ExpenseChargeKind
	ApartmentExpenseID string `json:"apartmentExpenseID,omitempty"`

	// SubscriptionChargeKind
	ApartmentID string `json:"apartmentID,omitempty"`
	Month       string `json:"month,omitempty"` // YYYY-MM
}

// ExpenseCharge builds a reference to an apartment-expense split line.
func ExpenseCharge(apartmentExpenseID string) ChargeRef {
	return ChargeRef{Kind: ExpenseChargeKind, ApartmentExpenseID: apartmentExpenseID}
}

// SubscriptionCharge builds a reference to an apartment's monthly
// subscription charge.
func SubscriptionCharge(apartmentID, month string) ChargeRef {
	return ChargeRef{Kind: SubscriptionChargeKind, ApartmentID: apartmentID, Month: month}
}

// Validate checks the variant's required fields are present.
func (c ChargeRef) Validate() error {
	switch c.Kind {
	case ExpenseChargeKind:
		if c.ApartmentExpenseID == "" {
			return fmt.Errorf("%w: expense charge reference requires an apartment expense ID", apperrors.ErrValidation)
		}
	case SubscriptionChargeKind:
		if c.ApartmentID == "" || c.Month == "" {
			return fmt.Errorf("%w: subscription charge reference requires apartment ID and month", apperrors.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown charge kind %q", apperrors.ErrValidation, c.Kind)
	}
	return nil
}
