package insight

import (
	"sort"
	"strings"
	"time"

	"github.com/mdejong/fininsight/internal/domain"
)

// AccountBalance is one account's contribution to a type group.
type AccountBalance struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	TotalEUR    float64 `json:"total_eur"`
}

// BalanceMetrics is the reconciled multi-currency balance view: per-type
// totals, the per-account breakdown behind each total, a per-type daily
// series, and the count of accounts that could not be converted to EUR.
// Invariant: each type's group sums to its totals entry.
type BalanceMetrics struct {
	Totals         map[domain.AccountType]float64              `json:"totals"`
	Groups         map[domain.AccountType][]AccountBalance     `json:"groups"`
	Series         map[domain.AccountType][]domain.SeriesPoint `json:"series"`
	MissingFxCount int                                         `json:"missing_fx_count"`
}

// accountTypeRule is one step of the account classification cascade.
// Rules are evaluated in order; the first match wins.
type accountTypeRule struct {
	name    string
	matches func(domain.Account) bool
	result  domain.AccountType
}

var accountTypeRules = []accountTypeRule{
	{
		name:    "declared savings",
		matches: declaredContains("saving"),
		result:  domain.AccountSavings,
	},
	{
		name:    "declared investment",
		matches: declaredContainsAny("invest", "brokerage", "securities", "depot"),
		result:  domain.AccountInvestment,
	},
	{
		name:    "declared checking",
		matches: declaredContainsAny("checking", "current", "payment"),
		result:  domain.AccountChecking,
	},
	{
		name:    "structural savings class",
		matches: classContains("saving"),
		result:  domain.AccountSavings,
	},
	{
		name:    "structural investment class",
		matches: classContainsAny("invest", "portfolio"),
		result:  domain.AccountInvestment,
	},
	{
		name:    "savings keywords in description",
		matches: descriptionContainsAny("saving", "spaar", "reserve", "buffer", "emergency"),
		result:  domain.AccountSavings,
	},
	{
		name:    "investment keywords in description",
		matches: descriptionContainsAny("invest", "beleg", "stock", "etf", "pension", "crypto"),
		result:  domain.AccountInvestment,
	},
}

// ClassifyAccount derives the account type via the ordered rule cascade:
// declared type, then structural class name, then description keywords,
// defaulting to checking.
func ClassifyAccount(a domain.Account) domain.AccountType {
	for _, rule := range accountTypeRules {
		if rule.matches(a) {
			return rule.result
		}
	}
	return domain.AccountChecking
}

func declaredContains(kw string) func(domain.Account) bool {
	return declaredContainsAny(kw)
}

func declaredContainsAny(kws ...string) func(domain.Account) bool {
	return func(a domain.Account) bool {
		return containsAny(a.DeclaredType, kws)
	}
}

func classContains(kw string) func(domain.Account) bool {
	return classContainsAny(kw)
}

func classContainsAny(kws ...string) func(domain.Account) bool {
	return func(a domain.Account) bool {
		return containsAny(a.StructuralClass, kws)
	}
}

func descriptionContainsAny(kws ...string) func(domain.Account) bool {
	return func(a domain.Account) bool {
		return containsAny(a.Description, kws)
	}
}

func containsAny(s string, kws []string) bool {
	s = strings.ToLower(s)
	for _, kw := range kws {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// eurBalance returns an account's EUR-equivalent balance. Non-EUR balances
// without a conversion yield ok=false and must be excluded, never coerced.
func eurBalance(a domain.Account) (value float64, ok bool) {
	if a.BalanceEUR != nil && isFinite(*a.BalanceEUR) {
		return *a.BalanceEUR, true
	}
	cur := strings.ToUpper(strings.TrimSpace(a.Balance.Currency))
	if cur == "" || cur == "EUR" {
		return a.Balance.Value, true
	}
	return 0, false
}

// ReconcileBalances classifies accounts, groups their EUR-equivalent balances
// by type and attaches a per-type daily series: the supplied history when
// present (its closing totals become a single-point series when the payload
// carries no series), otherwise a series reconstructed by walking
// transactions backward from the current totals.
func ReconcileBalances(accounts []domain.Account, recs []Record, history *domain.BalanceHistory) BalanceMetrics {
	m := BalanceMetrics{
		Totals: make(map[domain.AccountType]float64),
		Groups: make(map[domain.AccountType][]AccountBalance),
		Series: make(map[domain.AccountType][]domain.SeriesPoint),
	}
	for _, t := range []domain.AccountType{domain.AccountChecking, domain.AccountSavings, domain.AccountInvestment} {
		m.Totals[t] = 0
	}

	typeByAccountID := make(map[string]domain.AccountType, len(accounts))
	for _, a := range accounts {
		t := ClassifyAccount(a)
		typeByAccountID[a.ID] = t

		value, ok := eurBalance(a)
		if !ok {
			m.MissingFxCount++
			continue
		}
		m.Totals[t] += value
		m.Groups[t] = append(m.Groups[t], AccountBalance{
			ID:          a.ID,
			Description: a.Description,
			TotalEUR:    value,
		})
	}
	for t := range m.Groups {
		group := m.Groups[t]
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
	}

	if history != nil {
		switch {
		case len(history.Series) > 0:
			m.Series = history.Series
		case len(history.LatestTotals) > 0:
			// Degraded history payloads carry only closing totals. Surface
			// them as a single-point series anchored at the latest day so
			// charts still render a known-good data point.
			if anchor, ok := latestDay(recs); ok {
				key := anchor.Format(dayFormat)
				for t, total := range history.LatestTotals {
					m.Series[t] = []domain.SeriesPoint{{Date: key, Total: total}}
				}
			}
		}
		m.MissingFxCount = history.MissingFxCount
		return m
	}

	m.Series = reconstructSeries(m.Totals, recs, typeByAccountID)
	return m
}

// reconstructSeries walks backward from the current per-type totals,
// subtracting each transaction day's net delta, and emits an ascending
// day-by-day series ending at the known present-day totals.
func reconstructSeries(current map[domain.AccountType]float64, recs []Record, typeByAccountID map[string]domain.AccountType) map[domain.AccountType][]domain.SeriesPoint {
	deltas := make(map[string]map[domain.AccountType]float64)
	var days []time.Time
	seen := make(map[string]bool)

	for _, r := range recs {
		if !r.HasDate {
			continue
		}
		day := r.Day()
		key := day.Format(dayFormat)
		if !seen[key] {
			seen[key] = true
			days = append(days, day)
			deltas[key] = make(map[domain.AccountType]float64)
		}
		t, ok := typeByAccountID[r.AccountID]
		if !ok {
			t = domain.AccountChecking
		}
		deltas[key][t] += r.Amount
	}

	series := make(map[domain.AccountType][]domain.SeriesPoint)
	if len(days) == 0 {
		return series
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	running := make(map[domain.AccountType]float64, len(current))
	for t, v := range current {
		running[t] = v
	}

	// Newest first: record the day's closing totals, then remove the day's
	// delta to obtain the previous day's close.
	reversed := make(map[domain.AccountType][]domain.SeriesPoint)
	for _, day := range days {
		key := day.Format(dayFormat)
		for t := range running {
			reversed[t] = append(reversed[t], domain.SeriesPoint{Date: key, Total: running[t]})
		}
		for t, d := range deltas[key] {
			running[t] -= d
		}
	}

	for t, points := range reversed {
		for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
			points[i], points[j] = points[j], points[i]
		}
		series[t] = points
	}
	return series
}
