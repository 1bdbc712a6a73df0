package insight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdejong/fininsight/internal/domain"
)

func TestDetectRecurringCostsFixedSubscription(t *testing.T) {
	// 10 EUR to the same merchant in four consecutive months.
	txs := monthlyBill(day(2025, time.January, 15), 4, -10, "Entertainment", "Netflix")
	costs := DetectRecurringCosts(Normalize(txs), 0)

	require.Len(t, costs, 1)
	assert.Equal(t, "Netflix", costs[0].Merchant)
	assert.Equal(t, 4, costs[0].MonthsPresent)
	assert.InDelta(t, 10.0, costs[0].AvgMonthly, 1e-9)
	assert.InDelta(t, 0.0, costs[0].Stability, 1e-9)
}

func TestDetectRecurringCostsMinMonths(t *testing.T) {
	t.Run("three months required when dataset spans four", func(t *testing.T) {
		txs := monthlyBill(day(2025, time.January, 1), 4, -25, "Utilities", "Vattenfall")
		// Present in only two of the four months.
		txs = append(txs, monthlyBill(day(2025, time.January, 10), 2, -40, "Entertainment", "Basic-Fit")...)
		costs := DetectRecurringCosts(Normalize(txs), 0)

		require.Len(t, costs, 1)
		assert.Equal(t, "Vattenfall", costs[0].Merchant)
	})

	t.Run("two months suffice for a short dataset", func(t *testing.T) {
		txs := monthlyBill(day(2025, time.January, 10), 2, -40, "Entertainment", "Basic-Fit")
		costs := DetectRecurringCosts(Normalize(txs), 0)

		require.Len(t, costs, 1)
		assert.Equal(t, "Basic-Fit", costs[0].Merchant)
		assert.Equal(t, 2, costs[0].MonthsPresent)
	})
}

func TestDetectRecurringCostsNoiseFloor(t *testing.T) {
	// Average monthly spend below 7.50 EUR never qualifies.
	txs := monthlyBill(day(2025, time.January, 3), 5, -5, "Other", "AppStore")
	assert.Empty(t, DetectRecurringCosts(Normalize(txs), 0))
}

func TestDetectRecurringCostsSkipsUnknownAndInternal(t *testing.T) {
	var txs []domain.Transaction
	for i := 0; i < 4; i++ {
		anon := tx(day(2025, time.January, 5).AddDate(0, i, 0), -50, "Other", "")
		internal := tx(day(2025, time.January, 6).AddDate(0, i, 0), -200, "Other", "Own savings")
		internal.InternalTransfer = true
		txs = append(txs, anon, internal)
	}
	assert.Empty(t, DetectRecurringCosts(Normalize(txs), 0))
}

func TestDetectRecurringCostsVariableSpend(t *testing.T) {
	// Groceries every month with varying totals: detected, but unstable.
	txs := []domain.Transaction{
		tx(day(2025, time.January, 8), -180, "Groceries", "Jumbo"),
		tx(day(2025, time.February, 8), -220, "Groceries", "Jumbo"),
		tx(day(2025, time.March, 8), -140, "Groceries", "Jumbo"),
		tx(day(2025, time.April, 8), -260, "Groceries", "Jumbo"),
	}
	costs := DetectRecurringCosts(Normalize(txs), 0)
	require.Len(t, costs, 1)
	assert.InDelta(t, 200.0, costs[0].AvgMonthly, 1e-9)
	assert.Greater(t, costs[0].Stability, 0.1)
}

func TestDetectRecurringCostsSortedAndCapped(t *testing.T) {
	var txs []domain.Transaction
	txs = append(txs, monthlyBill(day(2025, time.January, 1), 3, -10, "Other", "Spotify")...)
	txs = append(txs, monthlyBill(day(2025, time.January, 2), 3, -900, "Housing", "Landlord")...)
	txs = append(txs, monthlyBill(day(2025, time.January, 3), 3, -55, "Insurance", "Zilveren Kruis")...)

	costs := DetectRecurringCosts(Normalize(txs), 0)
	require.Len(t, costs, 3)
	assert.Equal(t, "Landlord", costs[0].Merchant)
	assert.Equal(t, "Zilveren Kruis", costs[1].Merchant)
	assert.Equal(t, "Spotify", costs[2].Merchant)

	capped := DetectRecurringCosts(Normalize(txs), 2)
	require.Len(t, capped, 2)
	assert.Equal(t, "Landlord", capped[0].Merchant)
}
