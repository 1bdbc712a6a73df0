package insight

import (
	"sort"
)

// essentialCategories is the fixed needs-vs-wants taxonomy. Expense
// transactions in these categories count as essential; everything else is
// discretionary. Not user-editable at runtime.
var essentialCategories = map[string]bool{
	"Groceries":  true,
	"Housing":    true,
	"Utilities":  true,
	"Insurance":  true,
	"Taxes":      true,
	"Transport":  true,
	"Healthcare": true,
}

// IsEssentialCategory reports whether a category belongs to the essential set.
func IsEssentialCategory(category string) bool {
	return essentialCategories[category]
}

// MonthlySnapshot is one month's budget discipline figures. Essentials and
// Discretionary are positive magnitudes; NetSavings = Income - Essentials -
// Discretionary and may be negative. Percentage fields are only populated
// when the month has income above the floor.
type MonthlySnapshot struct {
	Month string `json:"month"` // YYYY-MM

	Income        float64 `json:"income"`
	Essentials    float64 `json:"essentials"`
	Discretionary float64 `json:"discretionary"`
	NetSavings    float64 `json:"net_savings"`

	EssentialsPct    float64 `json:"essentials_pct"`
	DiscretionaryPct float64 `json:"discretionary_pct"`
	NetSavingsPct    float64 `json:"net_savings_pct"`
	HasPercentages   bool    `json:"has_percentages"`
}

// BudgetBaseline is the recent-months average used by the action planner.
type BudgetBaseline struct {
	Months           int     `json:"months"`
	AvgIncome        float64 `json:"avg_income"`
	EssentialsPct    float64 `json:"essentials_pct"`
	DiscretionaryPct float64 `json:"discretionary_pct"`
	NetSavingsPct    float64 `json:"net_savings_pct"`
}

// BudgetTargets are the fixed policy reference values.
type BudgetTargets struct {
	EssentialsPct    float64 `json:"essentials_pct"`
	DiscretionaryPct float64 `json:"discretionary_pct"`
	SavingsPct       float64 `json:"savings_pct"`
}

// incomeFloor is the minimum monthly income for percentage-based figures.
const incomeFloor = 0.01

// BuildMonthlySnapshots groups dated records by calendar month and splits
// expenses into essential and discretionary buckets. Internal transfers are
// excluded from both income and expenses. Result is sorted by month.
func BuildMonthlySnapshots(recs []Record) []MonthlySnapshot {
	byMonth := make(map[string]*MonthlySnapshot)
	for _, r := range recs {
		if !r.HasDate || r.Internal {
			continue
		}
		key := r.Date.Format(monthFormat)
		s := byMonth[key]
		if s == nil {
			s = &MonthlySnapshot{Month: key}
			byMonth[key] = s
		}
		switch {
		case r.Amount > 0:
			s.Income += r.Amount
		case IsEssentialCategory(r.Category):
			s.Essentials += -r.Amount
		default:
			s.Discretionary += -r.Amount
		}
	}

	out := make([]MonthlySnapshot, 0, len(byMonth))
	for _, s := range byMonth {
		s.NetSavings = s.Income - s.Essentials - s.Discretionary
		if s.Income > incomeFloor {
			s.EssentialsPct = s.Essentials / s.Income * 100
			s.DiscretionaryPct = s.Discretionary / s.Income * 100
			s.NetSavingsPct = s.NetSavings / s.Income * 100
			s.HasPercentages = true
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// ComputeBaseline averages the last up-to-three snapshots that have income.
// Returns nil when no snapshot qualifies (insufficient window).
func ComputeBaseline(snapshots []MonthlySnapshot) *BudgetBaseline {
	var eligible []MonthlySnapshot
	for _, s := range snapshots {
		if s.HasPercentages {
			eligible = append(eligible, s)
		}
	}
	if len(eligible) == 0 {
		return nil
	}
	if len(eligible) > 3 {
		eligible = eligible[len(eligible)-3:]
	}

	b := &BudgetBaseline{Months: len(eligible)}
	for _, s := range eligible {
		b.AvgIncome += s.Income
		b.EssentialsPct += s.EssentialsPct
		b.DiscretionaryPct += s.DiscretionaryPct
		b.NetSavingsPct += s.NetSavingsPct
	}
	n := float64(len(eligible))
	b.AvgIncome /= n
	b.EssentialsPct /= n
	b.DiscretionaryPct /= n
	b.NetSavingsPct /= n
	return b
}

// PolicyTargets returns the fixed 50/30/20 reference values.
func PolicyTargets() BudgetTargets {
	return BudgetTargets{
		EssentialsPct:    TargetEssentialsPct,
		DiscretionaryPct: TargetDiscretionaryPct,
		SavingsPct:       TargetSavingsPct,
	}
}
