package insight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdejong/fininsight/internal/domain"
)

func TestClassifyAccount(t *testing.T) {
	tests := []struct {
		name string
		acc  domain.Account
		want domain.AccountType
	}{
		{"declared savings", domain.Account{DeclaredType: "SavingsAccount"}, domain.AccountSavings},
		{"declared investment", domain.Account{DeclaredType: "brokerage"}, domain.AccountInvestment},
		{"declared current", domain.Account{DeclaredType: "current account"}, domain.AccountChecking},
		{"declared wins over description", domain.Account{DeclaredType: "checking", Description: "My savings"}, domain.AccountChecking},
		{"structural class", domain.Account{StructuralClass: "retail.savings.flexible"}, domain.AccountSavings},
		{"structural portfolio", domain.Account{StructuralClass: "portfolio"}, domain.AccountInvestment},
		{"description keyword", domain.Account{Description: "Emergency buffer"}, domain.AccountSavings},
		{"dutch savings keyword", domain.Account{Description: "Spaarrekening"}, domain.AccountSavings},
		{"dutch investment keyword", domain.Account{Description: "Beleggen bij DeGiro"}, domain.AccountInvestment},
		{"etf keyword", domain.Account{Description: "ETF portfolio"}, domain.AccountInvestment},
		{"default checking", domain.Account{Description: "Main account"}, domain.AccountChecking},
		{"empty account", domain.Account{}, domain.AccountChecking},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyAccount(tt.acc))
		})
	}
}

func TestReconcileBalancesGroupsAndMissingFx(t *testing.T) {
	accounts := []domain.Account{
		{ID: "acc-1", Description: "Main account", DeclaredType: "checking", Balance: domain.Balance{Value: 1000, Currency: "EUR"}},
		{ID: "acc-2", Description: "Spaarrekening", DeclaredType: "savings", Balance: domain.Balance{Value: 5000, Currency: "EUR"}},
		{ID: "acc-3", Description: "US brokerage", DeclaredType: "investment", Balance: domain.Balance{Value: 2000, Currency: "USD"}},
	}
	m := ReconcileBalances(accounts, nil, nil)

	assert.Equal(t, 1000.0, m.Totals[domain.AccountChecking])
	assert.Equal(t, 5000.0, m.Totals[domain.AccountSavings])
	assert.Equal(t, 0.0, m.Totals[domain.AccountInvestment])
	assert.Equal(t, 1, m.MissingFxCount)

	require.Len(t, m.Groups[domain.AccountChecking], 1)
	assert.Equal(t, "acc-1", m.Groups[domain.AccountChecking][0].ID)
	assert.Empty(t, m.Groups[domain.AccountInvestment])
}

func TestReconcileBalancesConvertedForeign(t *testing.T) {
	accounts := []domain.Account{
		{ID: "acc-1", DeclaredType: "investment", Balance: domain.Balance{Value: 2000, Currency: "USD"}, BalanceEUR: eur(1845.20)},
	}
	m := ReconcileBalances(accounts, nil, nil)
	assert.Equal(t, 1845.20, m.Totals[domain.AccountInvestment])
	assert.Zero(t, m.MissingFxCount)
}

func TestReconcileBalancesGroupsSumToTotals(t *testing.T) {
	accounts := []domain.Account{
		{ID: "b", DeclaredType: "checking", Balance: domain.Balance{Value: 300.25, Currency: "EUR"}},
		{ID: "a", DeclaredType: "checking", Balance: domain.Balance{Value: 120.50, Currency: "EUR"}},
		{ID: "c", DeclaredType: "savings", Balance: domain.Balance{Value: 4000, Currency: "EUR"}},
	}
	m := ReconcileBalances(accounts, nil, nil)

	for accType, group := range m.Groups {
		var sum float64
		for _, g := range group {
			sum += g.TotalEUR
		}
		assert.InDelta(t, m.Totals[accType], sum, 1e-9, "type %s", accType)
	}

	// Groups are sorted by account ID.
	checking := m.Groups[domain.AccountChecking]
	require.Len(t, checking, 2)
	assert.Equal(t, "a", checking[0].ID)
	assert.Equal(t, "b", checking[1].ID)
}

func TestReconcileBalancesPrefersSuppliedHistory(t *testing.T) {
	accounts := []domain.Account{
		{ID: "acc-1", DeclaredType: "checking", Balance: domain.Balance{Value: 1000, Currency: "EUR"}},
	}
	history := &domain.BalanceHistory{
		Series: map[domain.AccountType][]domain.SeriesPoint{
			domain.AccountChecking: {{Date: "2025-06-01", Total: 950}, {Date: "2025-06-02", Total: 1000}},
		},
		MissingFxCount: 3,
	}
	recs := Normalize([]domain.Transaction{tx(day(2025, time.June, 2), 50, "Salary", "Employer")})

	m := ReconcileBalances(accounts, recs, history)
	assert.Equal(t, history.Series, m.Series)
	assert.Equal(t, 3, m.MissingFxCount)
}

func TestReconcileBalancesHistoryLatestTotalsOnly(t *testing.T) {
	accounts := []domain.Account{
		{ID: "acc-1", DeclaredType: "checking", Balance: domain.Balance{Value: 1000, Currency: "EUR"}},
	}
	history := &domain.BalanceHistory{
		LatestTotals: map[domain.AccountType]float64{
			domain.AccountChecking: 950,
			domain.AccountSavings:  4000,
		},
		MissingFxCount: 1,
	}
	recs := Normalize([]domain.Transaction{tx(day(2025, time.June, 2), 50, "Salary", "Employer")})

	m := ReconcileBalances(accounts, recs, history)
	assert.Equal(t, []domain.SeriesPoint{{Date: "2025-06-02", Total: 950}}, m.Series[domain.AccountChecking])
	assert.Equal(t, []domain.SeriesPoint{{Date: "2025-06-02", Total: 4000}}, m.Series[domain.AccountSavings])
	assert.Equal(t, 1, m.MissingFxCount)
	// Local account totals are untouched; the history only feeds the series.
	assert.Equal(t, 1000.0, m.Totals[domain.AccountChecking])
}

func TestReconcileBalancesReconstructsSeries(t *testing.T) {
	accounts := []domain.Account{
		{ID: "acc-1", DeclaredType: "checking", Balance: domain.Balance{Value: 1000, Currency: "EUR"}},
	}
	t1 := tx(day(2025, time.June, 1), 500, "Salary", "Employer")
	t1.AccountID = "acc-1"
	t2 := tx(day(2025, time.June, 3), -200, "Groceries", "Jumbo")
	t2.AccountID = "acc-1"
	recs := Normalize([]domain.Transaction{t1, t2})

	m := ReconcileBalances(accounts, recs, nil)
	series := m.Series[domain.AccountChecking]
	require.Len(t, series, 2)

	// June 3 closes at the current total; June 1 closes before the
	// June 3 expense was spent.
	assert.Equal(t, domain.SeriesPoint{Date: "2025-06-01", Total: 1200}, series[0])
	assert.Equal(t, domain.SeriesPoint{Date: "2025-06-03", Total: 1000}, series[1])
}

func TestReconstructSeriesUnknownAccountDefaultsToChecking(t *testing.T) {
	accounts := []domain.Account{
		{ID: "acc-1", DeclaredType: "checking", Balance: domain.Balance{Value: 100, Currency: "EUR"}},
	}
	stray := tx(day(2025, time.June, 5), -40, "Groceries", "Jumbo")
	stray.AccountID = "ghost"
	m := ReconcileBalances(accounts, Normalize([]domain.Transaction{stray}), nil)

	series := m.Series[domain.AccountChecking]
	require.Len(t, series, 1)
	assert.Equal(t, 100.0, series[0].Total)
}
