package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecurrenceType is how often a recurring parent expense generates children.
type RecurrenceType string

const (
	RecurrenceMonthly RecurrenceType = "MONTHLY"
	RecurrenceYearly  RecurrenceType = "YEARLY"
)

// Expense is a cost incurred by a building. A building-wide expense is
// split into one ApartmentExpense per eligible apartment; a
// single-apartment expense produces exactly one. The amount is immutable
// once any split line exists.
//
// A recurring parent (IsRecurring) is never split itself; the recurring
// generator materializes one concrete child expense per elapsed month,
// each of which is split independently.
type Expense struct {
	ExpenseID       string          `json:"expenseID"`
	BuildingID      string          `json:"buildingID"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	ExpenseDate     time.Time       `json:"expenseDate"`
	Category        string          `json:"category"`
	IsRecurring     bool            `json:"isRecurring"`
	RecurrenceType  RecurrenceType  `json:"recurrenceType,omitempty"`
	RecurrenceStart *time.Time      `json:"recurrenceStart,omitempty"`
	RecurrenceEnd   *time.Time      `json:"recurrenceEnd,omitempty"`
	ParentExpenseID *string         `json:"parentExpenseID,omitempty"` // set on generated children
	AuditFields
}

// ApartmentExpense is one split line: a single apartment's share of an
// expense. AmountPaid is display/tracking metadata maintained by payment
// allocations; the ledger is the source of truth for balances.
// Canceled lines are never deleted.
type ApartmentExpense struct {
	ApartmentExpenseID string          `json:"apartmentExpenseID"`
	ApartmentID        string          `json:"apartmentID"`
	ExpenseID          string          `json:"expenseID"`
	Amount             decimal.Decimal `json:"amount"`
	AmountPaid         decimal.Decimal `json:"amountPaid"`
	IsCanceled         bool            `json:"isCanceled"`
	AuditFields
}

// Outstanding returns the unpaid remainder of the charge.
func (ae ApartmentExpense) Outstanding() decimal.Decimal {
	return ae.Amount.Sub(ae.AmountPaid)
}
