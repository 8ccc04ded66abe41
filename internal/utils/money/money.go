package money

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// centsFactor converts between decimal amounts and integer cents.
var centsFactor = decimal.NewFromInt(100)

// ToCents converts a 2-fractional-digit amount to integer cents.
// All split arithmetic runs on integer cents so shares sum back to the
// original amount exactly, with no floating-point drift.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Mul(centsFactor).Round(0).IntPart()
}

// FromCents converts integer cents back to a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// SplitEvenly divides total across n shares: every share gets the floor of
// total/n in cents, and the first (total mod n) shares absorb one extra
// cent each, so the shares always sum to total exactly.
func SplitEvenly(total decimal.Decimal, n int) ([]decimal.Decimal, error) {
	if n <= 0 {
		return nil, fmt.Errorf("cannot split across %d shares", n)
	}
	totalCents := ToCents(total)
	if totalCents < 0 {
		return nil, fmt.Errorf("cannot split negative amount %s", total.String())
	}

	baseCents := totalCents / int64(n)
	remainder := totalCents - baseCents*int64(n)

	shares := make([]decimal.Decimal, n)
	for i := 0; i < n; i++ {
		cents := baseCents
		if int64(i) < remainder {
			cents++
		}
		shares[i] = FromCents(cents)
	}
	return shares, nil
}

// ProratedShare computes one tenant's day-prorated equal share of total:
// (total / tenantCount) * occupiedDays / daysInMonth, rounded to the cent.
// A tenant occupying 10 of 30 days owes a third of their equal share.
func ProratedShare(total decimal.Decimal, tenantCount, occupiedDays, daysInMonth int) (decimal.Decimal, error) {
	if tenantCount <= 0 {
		return decimal.Zero, fmt.Errorf("cannot prorate across %d tenants", tenantCount)
	}
	if daysInMonth <= 0 {
		return decimal.Zero, fmt.Errorf("invalid days in month %d", daysInMonth)
	}
	if occupiedDays <= 0 {
		return decimal.Zero, nil
	}
	if occupiedDays > daysInMonth {
		occupiedDays = daysInMonth
	}
	share := total.
		Div(decimal.NewFromInt(int64(tenantCount))).
		Mul(decimal.NewFromInt(int64(occupiedDays))).
		Div(decimal.NewFromInt(int64(daysInMonth)))
	return share.Round(2), nil
}

// DaysInMonth returns the number of days in the month containing t.
func DaysInMonth(t time.Time) int {
	firstOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return firstOfMonth.AddDate(0, 1, -1).Day()
}

// OccupiedDaysInMonth returns how many days of the month containing
// monthOf fall on or after occupancyStart, inclusive of the start day.
// A start before the month yields the full month; a start after it yields
// zero.
func OccupiedDaysInMonth(occupancyStart, monthOf time.Time) int {
	dim := DaysInMonth(monthOf)
	firstOfMonth := time.Date(monthOf.Year(), monthOf.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastOfMonth := firstOfMonth.AddDate(0, 1, -1)

	start := time.Date(occupancyStart.Year(), occupancyStart.Month(), occupancyStart.Day(), 0, 0, 0, 0, time.UTC)
	if !start.After(firstOfMonth) {
		return dim
	}
	if start.After(lastOfMonth) {
		return 0
	}
	return dim - start.Day() + 1
}

// ValidateAmount checks that amount is positive with at most two
// fractional digits, the only form monetary values may take at the
// system boundary.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("amount must be positive, got %s", amount.String())
	}
	if amount.Exponent() < -2 {
		return fmt.Errorf("amount %s has more than two fractional digits", amount.String())
	}
	return nil
}

// MonthLabel formats t as the YYYY-MM label used to group subscription
// charges and payments.
func MonthLabel(t time.Time) string {
	return t.Format("2006-01")
}
