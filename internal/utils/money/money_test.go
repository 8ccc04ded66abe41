package money_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikunim/building_mgmt_app/internal/utils/money"
)

func TestSplitEvenly_ExactDivision(t *testing.T) {
	shares, err := money.SplitEvenly(decimal.NewFromInt(90), 3)
	require.NoError(t, err)
	require.Len(t, shares, 3)
	for _, s := range shares {
		assert.True(t, s.Equal(decimal.NewFromInt(30)), "expected 30, got %s", s)
	}
}

func TestSplitEvenly_RemainderGoesToFirstShares(t *testing.T) {
	shares, err := money.SplitEvenly(decimal.NewFromInt(100), 3)
	require.NoError(t, err)
	require.Len(t, shares, 3)

	assert.True(t, shares[0].Equal(decimal.RequireFromString("33.34")))
	assert.True(t, shares[1].Equal(decimal.RequireFromString("33.33")))
	assert.True(t, shares[2].Equal(decimal.RequireFromString("33.33")))
}

func TestSplitEvenly_SharesAlwaysSumToTotal(t *testing.T) {
	totals := []string{"100", "0.01", "0.05", "7.77", "1234.56", "99999.99"}
	for _, totalStr := range totals {
		total := decimal.RequireFromString(totalStr)
		for n := 1; n <= 12; n++ {
			shares, err := money.SplitEvenly(total, n)
			require.NoError(t, err)

			sum := decimal.Zero
			for _, s := range shares {
				sum = sum.Add(s)
			}
			assert.True(t, sum.Equal(total), "split of %s across %d: shares sum to %s", totalStr, n, sum)
		}
	}
}

func TestSplitEvenly_SubCentTotal(t *testing.T) {
	// One cent across seven shares: first share gets the cent, the rest zero.
	shares, err := money.SplitEvenly(decimal.RequireFromString("0.01"), 7)
	require.NoError(t, err)
	assert.True(t, shares[0].Equal(decimal.RequireFromString("0.01")))
	for _, s := range shares[1:] {
		assert.True(t, s.IsZero())
	}
}

func TestSplitEvenly_InvalidInput(t *testing.T) {
	_, err := money.SplitEvenly(decimal.NewFromInt(10), 0)
	assert.Error(t, err)

	_, err = money.SplitEvenly(decimal.NewFromInt(10), -1)
	assert.Error(t, err)

	_, err = money.SplitEvenly(decimal.NewFromInt(-10), 3)
	assert.Error(t, err)
}

func TestProratedShare(t *testing.T) {
	// 300 across 3 tenants, occupying 10 of 30 days: 100 * 10/30 = 33.33.
	share, err := money.ProratedShare(decimal.NewFromInt(300), 3, 10, 30)
	require.NoError(t, err)
	assert.True(t, share.Equal(decimal.RequireFromString("33.33")), "got %s", share)

	// Full month occupancy yields the full equal share.
	share, err = money.ProratedShare(decimal.NewFromInt(300), 3, 30, 30)
	require.NoError(t, err)
	assert.True(t, share.Equal(decimal.NewFromInt(100)))

	// Zero occupied days yields zero.
	share, err = money.ProratedShare(decimal.NewFromInt(300), 3, 0, 30)
	require.NoError(t, err)
	assert.True(t, share.IsZero())

	// Occupied days are clamped to the month length.
	share, err = money.ProratedShare(decimal.NewFromInt(300), 3, 45, 30)
	require.NoError(t, err)
	assert.True(t, share.Equal(decimal.NewFromInt(100)))
}

func TestProratedShare_InvalidInput(t *testing.T) {
	_, err := money.ProratedShare(decimal.NewFromInt(100), 0, 10, 30)
	assert.Error(t, err)

	_, err = money.ProratedShare(decimal.NewFromInt(100), 3, 10, 0)
	assert.Error(t, err)
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 31, money.DaysInMonth(time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 28, money.DaysInMonth(time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 29, money.DaysInMonth(time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 30, money.DaysInMonth(time.Date(2025, time.April, 30, 23, 59, 59, 0, time.UTC)))
}

func TestOccupiedDaysInMonth(t *testing.T) {
	march := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)

	// Start before the month: full month.
	start := time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 31, money.OccupiedDaysInMonth(start, march))

	// Start on the first: full month.
	start = time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 31, money.OccupiedDaysInMonth(start, march))

	// Start mid-month, inclusive of the start day.
	start = time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 12, money.OccupiedDaysInMonth(start, march))

	// Start on the last day.
	start = time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, money.OccupiedDaysInMonth(start, march))

	// Start after the month: zero.
	start = time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, money.OccupiedDaysInMonth(start, march))
}

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, money.ValidateAmount(decimal.RequireFromString("10.50")))
	assert.NoError(t, money.ValidateAmount(decimal.RequireFromString("0.01")))
	assert.NoError(t, money.ValidateAmount(decimal.NewFromInt(100)))

	assert.Error(t, money.ValidateAmount(decimal.Zero))
	assert.Error(t, money.ValidateAmount(decimal.RequireFromString("-5")))
	assert.Error(t, money.ValidateAmount(decimal.RequireFromString("1.005")))
}

func TestCentsRoundTrip(t *testing.T) {
	amounts := []string{"0.01", "1.00", "33.33", "1234.56"}
	for _, s := range amounts {
		amount := decimal.RequireFromString(s)
		assert.True(t, money.FromCents(money.ToCents(amount)).Equal(amount))
	}
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "2025-03", money.MonthLabel(time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-12", money.MonthLabel(time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC)))
}
