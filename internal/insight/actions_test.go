package insight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdejong/fininsight/internal/domain"
)

// dailySpend produces one expense per day for n consecutive days ending at end.
func dailySpend(end time.Time, n int, amount float64, category, merchant string) []domain.Transaction {
	txs := make([]domain.Transaction, 0, n)
	for i := 0; i < n; i++ {
		txs = append(txs, tx(end.AddDate(0, 0, -i), amount, category, merchant))
	}
	return txs
}

func TestBuildActionPlanLowRunway(t *testing.T) {
	// 1000 EUR liquid against a 50 EUR/day burn: 20 days of runway.
	txs := dailySpend(day(2025, time.June, 30), 30, -50, "Groceries", "Jumbo")
	recs := Normalize(txs)
	balances := ReconcileBalances([]domain.Account{
		{ID: "acc-1", DeclaredType: "checking", Balance: domain.Balance{Value: 1000, Currency: "EUR"}},
	}, recs, nil)

	items := BuildActionPlan(recs, nil, nil, balances, Options{})
	require.NotEmpty(t, items)

	first := items[0]
	assert.Equal(t, 1, first.Priority)
	assert.Equal(t, "Rebuild your cash buffer", first.Title)
	assert.Equal(t, ReasonRunway, first.Reason)
	assert.InDelta(t, 1500.0, first.Impact, 1e-9) // one month of burn
	assert.InDelta(t, 0.9, first.Confidence, 1e-9)
}

func TestBuildActionPlanComfortableRunway(t *testing.T) {
	txs := dailySpend(day(2025, time.June, 30), 30, -10, "Groceries", "Jumbo")
	recs := Normalize(txs)
	balances := ReconcileBalances([]domain.Account{
		{ID: "acc-1", DeclaredType: "checking", Balance: domain.Balance{Value: 2000, Currency: "EUR"}},
		{ID: "acc-2", DeclaredType: "savings", Balance: domain.Balance{Value: 8000, Currency: "EUR"}},
	}, recs, nil)

	items := BuildActionPlan(recs, nil, nil, balances, Options{})
	for _, it := range items {
		assert.NotEqual(t, ReasonRunway, it.Reason)
	}
}

func TestBuildActionPlanBudgetOverrun(t *testing.T) {
	// Essentials at 70% of income for three straight months.
	var txs []domain.Transaction
	for i := 0; i < 3; i++ {
		m := day(2025, time.April, 1).AddDate(0, i, 0)
		txs = append(txs,
			tx(m, 3000, "Salary", "Employer"),
			tx(m.AddDate(0, 0, 3), -2100, "Housing", "Landlord"),
			tx(m.AddDate(0, 0, 8), -300, "Entertainment", "Pathe"),
		)
	}
	recs := Normalize(txs)
	snapshots := BuildMonthlySnapshots(recs)

	items := BuildActionPlan(recs, snapshots, nil, BalanceMetrics{}, Options{})
	require.NotEmpty(t, items)

	var essentials *ActionItem
	for i := range items {
		if items[i].Reason == ReasonBudget && items[i].Title == "Bring essential costs back under half of income" {
			essentials = &items[i]
		}
	}
	require.NotNil(t, essentials, "items: %+v", items)
	assert.Equal(t, 1, essentials.Priority) // 70% is more than 10 points over target
	assert.InDelta(t, 600.0, essentials.Impact, 1.0)
}

func TestBuildActionPlanRecurringReview(t *testing.T) {
	txs := dailySpend(day(2025, time.June, 30), 60, -10, "Groceries", "Jumbo")
	recs := Normalize(txs)
	recurring := []RecurringCost{
		{Merchant: "Netflix", MonthsPresent: 4, AvgMonthly: 30, Stability: 0},
		{Merchant: "Gym", MonthsPresent: 4, AvgMonthly: 45, Stability: 0.05},
		{Merchant: "AppStore", MonthsPresent: 4, AvgMonthly: 4, Stability: 0.1}, // below cost floor
	}

	items := BuildActionPlan(recs, nil, recurring, BalanceMetrics{}, Options{})
	var review *ActionItem
	for i := range items {
		if items[i].Reason == ReasonRecurring {
			review = &items[i]
		}
	}
	require.NotNil(t, review)
	assert.Equal(t, 3, review.Priority)
	assert.Contains(t, review.Summary, "2 merchant(s)")
	assert.NotContains(t, review.Summary, "AppStore")
}

func TestBuildActionPlanSpikySpending(t *testing.T) {
	// Mostly quiet days with two heavy outliers: high daily variation.
	var txs []domain.Transaction
	for i := 1; i <= 30; i++ {
		amount := -10.0
		if i == 10 || i == 20 {
			amount = -600
		}
		txs = append(txs, tx(day(2025, time.June, i), amount, "Shopping", "Various"))
	}
	recs := Normalize(txs)

	items := BuildActionPlan(recs, nil, nil, BalanceMetrics{}, Options{})
	var spiky *ActionItem
	for i := range items {
		if items[i].Reason == ReasonVolatility {
			spiky = &items[i]
		}
	}
	require.NotNil(t, spiky)
	assert.Equal(t, 3, spiky.Priority)
	assert.Equal(t, "Smooth out spiky spending", spiky.Title)
	assert.Positive(t, spiky.Impact)
}

func TestBuildActionPlanSteadyStateFallback(t *testing.T) {
	// Two balanced months, spending spread evenly across categories and
	// merchants, plus a healthy buffer: nothing should trigger.
	var txs []domain.Transaction
	for i := 0; i < 2; i++ {
		m := day(2025, time.May, 1).AddDate(0, i, 0)
		txs = append(txs,
			tx(m, 3500, "Salary", "Employer"),
			tx(m.AddDate(0, 0, 4), -525, "Housing", "Landlord"),
			tx(m.AddDate(0, 0, 9), -525, "Groceries", "Jumbo"),
			tx(m.AddDate(0, 0, 14), -525, "Entertainment", "Pathe"),
			tx(m.AddDate(0, 0, 19), -525, "Transport", "NS"),
		)
	}
	recs := Normalize(txs)
	balances := ReconcileBalances([]domain.Account{
		{ID: "acc-1", DeclaredType: "savings", Balance: domain.Balance{Value: 50000, Currency: "EUR"}},
	}, recs, nil)

	items := BuildActionPlan(recs, BuildMonthlySnapshots(recs), nil, balances, Options{})
	require.Len(t, items, 1)
	assert.Equal(t, "Keep it up", items[0].Title)
	assert.Equal(t, 3, items[0].Priority)
	assert.Equal(t, ReasonSteady, items[0].Reason)
	assert.Equal(t, 0.5, items[0].Confidence)
}

func TestBuildActionPlanOrderingInvariant(t *testing.T) {
	// A stressed dataset firing several distinct rules at once.
	var txs []domain.Transaction
	for i := 0; i < 4; i++ {
		m := day(2025, time.March, 1).AddDate(0, i, 0)
		txs = append(txs,
			tx(m, 2500, "Salary", "Employer"),
			tx(m.AddDate(0, 0, 2), -1900, "Housing", "Landlord"),
			tx(m.AddDate(0, 0, 6), -500, "Entertainment", "Pathe"),
		)
	}
	// Recent window spends noticeably more than the prior one.
	txs = append(txs, dailySpend(day(2025, time.June, 28), 10, -80, "Dining", "Cafe")...)
	recs := Normalize(txs)
	balances := ReconcileBalances([]domain.Account{
		{ID: "acc-1", DeclaredType: "checking", Balance: domain.Balance{Value: 1500, Currency: "EUR"}},
	}, recs, nil)
	recurring := DetectRecurringCosts(recs, 0)

	items := BuildActionPlan(recs, BuildMonthlySnapshots(recs), recurring, balances, Options{})
	require.NotEmpty(t, items)
	assert.LessOrEqual(t, len(items), DefaultMaxActions)

	for i, it := range items {
		assert.GreaterOrEqual(t, it.Priority, 1)
		assert.LessOrEqual(t, it.Priority, 3)
		assert.GreaterOrEqual(t, it.Confidence, 0.40)
		assert.LessOrEqual(t, it.Confidence, 0.98)
		assert.GreaterOrEqual(t, it.Impact, 0.0)
		if i == 0 {
			continue
		}
		prev := items[i-1]
		assert.GreaterOrEqual(t, it.Priority, prev.Priority, "priority must be non-decreasing")
		if it.Priority == prev.Priority {
			assert.LessOrEqual(t, it.Confidence, prev.Confidence, "confidence must be non-increasing within a priority")
		}
	}
}

func TestDedupeByTitle(t *testing.T) {
	items := []ActionItem{
		{Title: "Same", Priority: 2, Confidence: 0.6, Impact: 100},
		{Title: "Same", Priority: 1, Confidence: 0.5, Impact: 50},
		{Title: "Other", Priority: 3, Confidence: 0.5, Impact: 10},
		{Title: "Same", Priority: 1, Confidence: 0.7, Impact: 20},
	}
	out := dedupeByTitle(items)
	require.Len(t, out, 2)
	assert.Equal(t, "Same", out[0].Title)
	assert.Equal(t, 1, out[0].Priority)
	assert.Equal(t, 0.7, out[0].Confidence)
	assert.Equal(t, "Other", out[1].Title)
}

func TestClamps(t *testing.T) {
	assert.Equal(t, 1, clampPriority(0))
	assert.Equal(t, 3, clampPriority(7))
	assert.Equal(t, 2, clampPriority(2))
	assert.Equal(t, 0.40, clampConfidence(0.1))
	assert.Equal(t, 0.98, clampConfidence(1.2))
	assert.Equal(t, 0.75, clampConfidence(0.75))
}
