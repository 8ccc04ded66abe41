package domain

import (
	"github.com/shopspring/decimal"
)

// EntryType indicates whether a ledger entry is a Debit or a Credit.
// Amounts are stored unsigned; the sign is implied by the type.
type EntryType string

const (
	Debit  EntryType = "DEBIT"
	Credit EntryType = "CREDIT"
)

// ReferenceType tags a ledger entry with the kind of record it originated
// from.
type ReferenceType string

const (
	RefExpense      ReferenceType = "EXPENSE"
	RefSubscription ReferenceType = "SUBSCRIPTION"
	RefPayment      ReferenceType = "PAYMENT"
	RefReversal     ReferenceType = "REVERSAL"
	RefWaiver       ReferenceType = "WAIVER"
	RefWriteOff     ReferenceType = "WRITE_OFF"
)

// LedgerEntry is one immutable signed monetary movement for an apartment.
// Rows are append-only: corrections are new offsetting entries, never
// updates or deletes. PeriodID scopes the entry to the occupancy period it
// belongs to; a reversal carries the ORIGINAL entry's period, not the
// apartment's current one.
type LedgerEntry struct {
	EntryID       string          `json:"entryID"`
	ApartmentID   string          `json:"apartmentID"`
	EntryType     EntryType       `json:"entryType"`
	Amount        decimal.Decimal `json:"amount"` // always positive
	Description   string          `json:"description"`
	ReferenceType ReferenceType   `json:"referenceType"`
	ReferenceID   string          `json:"referenceID"`
	PeriodID      *string         `json:"periodID,omitempty"`
	AuditFields
}

// SignedAmount returns the entry amount with its sign applied:
// credits positive, debits negative.
func (e LedgerEntry) SignedAmount() decimal.Decimal {
	if e.EntryType == Debit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// LedgerTotals aggregates an apartment's ledger for the balance
// accumulator. Payments is the credit subtotal with reference type
// PAYMENT and PaymentReversals is the debit subtotal with reference
// type REVERSAL, which offsets canceled payments.
type LedgerTotals struct {
	Credits          decimal.Decimal
	Debits           decimal.Decimal
	Payments         decimal.Decimal
	PaymentReversals decimal.Decimal
}

// Balance returns credits minus debits.
func (t LedgerTotals) Balance() decimal.Decimal {
	return t.Credits.Sub(t.Debits)
}

// LivePayments returns the payment subtotal net of canceled payments,
// used to derive the partial subscription status.
func (t LedgerTotals) LivePayments() decimal.Decimal {
	return t.Payments.Sub(t.PaymentReversals)
}
