package insight

import (
	"sort"
)

// KPIReport holds the headline dataset-wide figures plus 30-day-vs-prior
// trend percentages. Trend percentages are zero when the prior window has no
// data to compare against.
type KPIReport struct {
	Income      float64 `json:"income"`
	Expenses    float64 `json:"expenses"`
	NetSavings  float64 `json:"net_savings"`
	SavingsRate float64 `json:"savings_rate"` // percent of income

	IncomeTrendPct   float64 `json:"income_trend_pct"`
	ExpensesTrendPct float64 `json:"expenses_trend_pct"`
	SavingsTrendPct  float64 `json:"savings_trend_pct"`
}

// MonthlyFlow is one calendar month's income/expense/net totals.
type MonthlyFlow struct {
	Month    string  `json:"month"` // YYYY-MM
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Net      float64 `json:"net"`
}

// MerchantTotal is one entry of the top-merchant expense ranking.
type MerchantTotal struct {
	Merchant string  `json:"merchant"`
	Total    float64 `json:"total"`
}

// Highlights are the single-value insights shown alongside the KPIs.
type Highlights struct {
	BiggestCategory       string  `json:"biggest_category"`
	BiggestCategoryTotal  float64 `json:"biggest_category_total"`
	AvgDailyExpense       float64 `json:"avg_daily_expense"`
	MostExpensiveDay      string  `json:"most_expensive_day"` // YYYY-MM-DD
	MostExpensiveDayTotal float64 `json:"most_expensive_day_total"`
	TrendLabel            string  `json:"trend_label"` // Improving, Declining or Stable
}

// ComputeKPIs computes dataset-wide totals and window-over-window trends.
// Internal transfers are excluded throughout.
func ComputeKPIs(recs []Record, windowDays int) KPIReport {
	var income, expenses float64
	for _, r := range recs {
		if r.Internal {
			continue
		}
		if r.Amount > 0 {
			income += r.Amount
		} else {
			expenses += -r.Amount
		}
	}

	k := KPIReport{
		Income:     income,
		Expenses:   expenses,
		NetSavings: income - expenses,
	}
	if income > 0 {
		k.SavingsRate = k.NetSavings / income * 100
	}

	pair := SplitWindows(recs, windowDays)
	recentIncome, priorIncome := pair.Recent.Income(), pair.Prior.Income()
	recentExpenses, priorExpenses := pair.Recent.Expenses(), pair.Prior.Expenses()

	if priorIncome > 0 {
		k.IncomeTrendPct = (recentIncome - priorIncome) / priorIncome * 100
	}
	if priorExpenses > 0 {
		k.ExpensesTrendPct = (recentExpenses - priorExpenses) / priorExpenses * 100
	}
	recentSavings := recentIncome - recentExpenses
	priorSavings := priorIncome - priorExpenses
	if priorSavings != 0 {
		k.SavingsTrendPct = (recentSavings - priorSavings) / abs(priorSavings) * 100
	}
	return k
}

// MonthlyFlows returns per-month income/expense/net totals sorted by month.
func MonthlyFlows(recs []Record) []MonthlyFlow {
	byMonth := make(map[string]*MonthlyFlow)
	for _, r := range recs {
		if !r.HasDate || r.Internal {
			continue
		}
		key := r.Date.Format(monthFormat)
		f := byMonth[key]
		if f == nil {
			f = &MonthlyFlow{Month: key}
			byMonth[key] = f
		}
		if r.Amount > 0 {
			f.Income += r.Amount
		} else {
			f.Expenses += -r.Amount
		}
		f.Net += r.Amount
	}

	out := make([]MonthlyFlow, 0, len(byMonth))
	for _, f := range byMonth {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// TopMerchants ranks merchants by expense total, descending, capped to limit.
func TopMerchants(recs []Record, limit int) []MerchantTotal {
	totals := MerchantExpenseTotals(recs)
	out := make([]MerchantTotal, 0, len(totals))
	for m, t := range totals {
		out = append(out, MerchantTotal{Merchant: m, Total: t})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Merchant < out[j].Merchant
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ComputeHighlights derives the single-value insights. Returns nil when the
// dataset has no dated expenses.
func ComputeHighlights(recs []Record, kpis KPIReport) *Highlights {
	daily := DailyFlows(recs)
	if len(daily) == 0 {
		return nil
	}

	h := &Highlights{TrendLabel: trendLabel(kpis.SavingsTrendPct)}

	var topCat string
	var topCatTotal float64
	for cat, total := range CategoryExpenseTotals(recs) {
		if total > topCatTotal || (total == topCatTotal && cat < topCat) {
			topCat, topCatTotal = cat, total
		}
	}
	h.BiggestCategory = topCat
	h.BiggestCategoryTotal = topCatTotal

	var expenseTotal float64
	for _, d := range daily {
		expenseTotal += d.Expense
		if d.Expense > h.MostExpensiveDayTotal {
			h.MostExpensiveDay = d.Date
			h.MostExpensiveDayTotal = d.Expense
		}
	}
	h.AvgDailyExpense = expenseTotal / float64(datasetSpanDays(daily))
	return h
}

func trendLabel(savingsTrendPct float64) string {
	switch {
	case savingsTrendPct > 0:
		return "Improving"
	case savingsTrendPct < 0:
		return "Declining"
	default:
		return "Stable"
	}
}

// datasetSpanDays is the inclusive day count between the first and last day
// of the daily series.
func datasetSpanDays(daily []DailyFlow) int {
	if len(daily) == 0 {
		return 1
	}
	first, errF := parseDay(daily[0].Date)
	last, errL := parseDay(daily[len(daily)-1].Date)
	if errF != nil || errL != nil {
		return len(daily)
	}
	days := int(last.Sub(first).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}

// WeekdayLoad is one category's expense totals per weekday, Monday first.
// This backs the weekday heatmap in the rendering layer.
type WeekdayLoad struct {
	Category string     `json:"category"`
	Totals   [7]float64 `json:"totals"`
}

// WeekdayLoads returns per-weekday expense totals for the top `limit`
// categories by overall spend.
func WeekdayLoads(recs []Record, limit int) []WeekdayLoad {
	totals := CategoryExpenseTotals(recs)
	cats := make([]string, 0, len(totals))
	for c := range totals {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		if totals[cats[i]] != totals[cats[j]] {
			return totals[cats[i]] > totals[cats[j]]
		}
		return cats[i] < cats[j]
	})
	if limit > 0 && len(cats) > limit {
		cats = cats[:limit]
	}

	index := make(map[string]int, len(cats))
	out := make([]WeekdayLoad, len(cats))
	for i, c := range cats {
		index[c] = i
		out[i].Category = c
	}

	for _, r := range recs {
		if !r.HasDate || r.Internal || !r.IsExpense() {
			continue
		}
		i, ok := index[r.Category]
		if !ok {
			continue
		}
		// time.Weekday is Sunday-based; shift to Monday-first.
		day := (int(r.Date.Weekday()) + 6) % 7
		out[i].Totals[day] += -r.Amount
	}
	return out
}

const monthFormat = "2006-01"

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
