package insight

import (
	"fmt"
	"math"
	"sort"

	"github.com/mdejong/fininsight/internal/domain"
	"github.com/montanaflynn/stats"
)

// ActionItem is one recommended action. Priority 1 is most urgent; Impact is
// the estimated EUR/month effect; Confidence is clamped to [0.40, 0.98].
type ActionItem struct {
	Priority   int     `json:"priority"` // 1..3
	Title      string  `json:"title"`
	Summary    string  `json:"summary"`
	Impact     float64 `json:"impact"` // EUR per month, >= 0
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
	Playbook   string  `json:"playbook,omitempty"`
}

// Reason tags for action items.
const (
	ReasonBudget        = "budget_discipline"
	ReasonTrend         = "spending_trend"
	ReasonConcentration = "concentration"
	ReasonRecurring     = "recurring_costs"
	ReasonVolatility    = "volatility"
	ReasonRunway        = "cash_runway"
	ReasonSteady        = "steady_state"
)

// Volatility and concentration thresholds.
const (
	highDailyCV           = 0.9
	categoryConcentration = 0.38
	merchantConcentration = 0.25
	runwayUrgentDays      = 60
	runwayImportantDays   = 90
	minConfidence         = 0.40
	maxConfidence         = 0.98
)

// actionInput bundles the upstream component outputs the planner consumes.
type actionInput struct {
	records   []Record
	snapshots []MonthlySnapshot
	recurring []RecurringCost
	balances  BalanceMetrics
	windows   WindowPair
}

// BuildActionPlan combines budget discipline, rolling-window trends,
// concentration, recurring costs, volatility and cash runway into a
// deduplicated, priority-ranked action list. The output is never empty: a
// low-priority steady-state item is emitted when nothing clears a threshold.
func BuildActionPlan(recs []Record, snapshots []MonthlySnapshot, recurring []RecurringCost, balances BalanceMetrics, opts Options) []ActionItem {
	opts = opts.withDefaults()

	in := actionInput{
		records:   recs,
		snapshots: snapshots,
		recurring: recurring,
		balances:  balances,
		windows:   SplitWindows(recs, opts.WindowDays),
	}
	floor := noiseFloor(recs)

	var items []ActionItem
	items = append(items, budgetActions(in, floor)...)
	items = append(items, trendActions(in, floor)...)
	items = append(items, concentrationActions(in, floor)...)
	items = append(items, recurringActions(in, floor)...)
	items = append(items, volatilityActions(in, floor)...)
	items = append(items, runwayActions(in, opts.WindowDays)...)

	items = dedupeByTitle(items)
	sortActions(items)
	if len(items) > opts.MaxActions {
		items = items[:opts.MaxActions]
	}

	if len(items) == 0 {
		items = []ActionItem{{
			Priority:   3,
			Title:      "Keep it up",
			Summary:    "Spending, savings and recurring costs all look steady. No action needed right now.",
			Impact:     0,
			Confidence: 0.5,
			Reason:     ReasonSteady,
		}}
	}
	return items
}

// noiseFloor is the minimum EUR/month impact an action must promise. It
// scales with observed expense volume so trivial deltas never make the plan.
func noiseFloor(recs []Record) float64 {
	months := make(map[string]bool)
	var expenses float64
	for _, r := range recs {
		if r.HasDate {
			months[r.Date.Format(monthFormat)] = true
		}
		if !r.Internal && r.IsExpense() {
			expenses += -r.Amount
		}
	}
	n := len(months)
	if n == 0 {
		n = 1
	}
	avgMonthly := expenses / float64(n)
	return math.Max(10, 0.02*avgMonthly)
}

func budgetActions(in actionInput, floor float64) []ActionItem {
	baseline := ComputeBaseline(in.snapshots)
	if baseline == nil {
		return nil
	}

	// Few observed months means a shakier baseline.
	conf := clampConfidence(0.55 + 0.1*float64(baseline.Months))
	var items []ActionItem

	if gap := baseline.EssentialsPct - TargetEssentialsPct; gap > 0 {
		impact := gap / 100 * baseline.AvgIncome
		if impact > floor {
			priority := 2
			if baseline.EssentialsPct > TargetEssentialsPct+10 {
				priority = 1
			}
			items = append(items, ActionItem{
				Priority: priority,
				Title:    "Bring essential costs back under half of income",
				Summary: fmt.Sprintf("Essentials take %.0f%% of income against a %.0f%% target across the last %d month(s).",
					baseline.EssentialsPct, TargetEssentialsPct, baseline.Months),
				Impact:     impact,
				Confidence: conf,
				Reason:     ReasonBudget,
				Playbook:   "Review housing, utilities and insurance contracts for cheaper alternatives",
			})
		}
	}

	if gap := baseline.DiscretionaryPct - TargetDiscretionaryPct; gap > 0 {
		impact := gap / 100 * baseline.AvgIncome
		if impact > floor {
			priority := 2
			if baseline.DiscretionaryPct > TargetDiscretionaryPct+15 {
				priority = 1
			}
			items = append(items, ActionItem{
				Priority: priority,
				Title:    "Cut discretionary spending toward the 30% target",
				Summary: fmt.Sprintf("Discretionary spend is %.0f%% of income against a %.0f%% target.",
					baseline.DiscretionaryPct, TargetDiscretionaryPct),
				Impact:     impact,
				Confidence: conf,
				Reason:     ReasonBudget,
				Playbook:   "Pick the two biggest discretionary categories and set a monthly cap",
			})
		}
	}

	if gap := TargetSavingsPct - baseline.NetSavingsPct; gap > 0 {
		impact := gap / 100 * baseline.AvgIncome
		if impact > floor {
			items = append(items, ActionItem{
				Priority: 2,
				Title:    "Raise the savings rate to 20%",
				Summary: fmt.Sprintf("Net savings average %.0f%% of income against a %.0f%% target.",
					baseline.NetSavingsPct, TargetSavingsPct),
				Impact:     impact,
				Confidence: clampConfidence(conf - 0.05),
				Reason:     ReasonBudget,
				Playbook:   "Automate a transfer to savings on payday",
			})
		}
	}
	return items
}

func trendActions(in actionInput, floor float64) []ActionItem {
	recentExp, priorExp := in.windows.Recent.Expenses(), in.windows.Prior.Expenses()
	recentInc, priorInc := in.windows.Recent.Income(), in.windows.Prior.Income()

	var items []ActionItem
	if priorExp > 0 {
		delta := recentExp - priorExp
		if delta > floor && delta/priorExp > 0.15 {
			items = append(items, ActionItem{
				Priority: 2,
				Title:    "Spending is trending up",
				Summary: fmt.Sprintf("The last 30 days cost %.0f EUR, %.0f%% more than the 30 days before.",
					recentExp, delta/priorExp*100),
				Impact:     delta,
				Confidence: 0.7,
				Reason:     ReasonTrend,
				Playbook:   "Compare the two windows per category to find the driver",
			})
		}
	}
	if priorInc > 0 {
		drop := priorInc - recentInc
		if drop > floor && drop/priorInc > 0.15 {
			priority := 2
			if drop/priorInc > 0.30 {
				priority = 1
			}
			items = append(items, ActionItem{
				Priority: priority,
				Title:    "Income dipped versus the previous period",
				Summary: fmt.Sprintf("Income fell %.0f%% over the last 30 days compared with the 30 days before.",
					drop/priorInc*100),
				Impact:     drop,
				Confidence: 0.65,
				Reason:     ReasonTrend,
			})
		}
	}
	return items
}

func concentrationActions(in actionInput, floor float64) []ActionItem {
	catTotals := CategoryExpenseTotals(in.records)
	merchTotals := MerchantExpenseTotals(in.records)

	var total float64
	for _, t := range catTotals {
		total += t
	}
	if total <= 0 {
		return nil
	}

	var items []ActionItem
	if cat, share := topShare(catTotals, total); share > categoryConcentration {
		impact := (share - categoryConcentration) * total / float64(monthsSpanned(in.records))
		if impact > floor {
			items = append(items, ActionItem{
				Priority: 2,
				Title:    fmt.Sprintf("Spending is concentrated in %s", cat),
				Summary: fmt.Sprintf("%s alone accounts for %.0f%% of all expenses.",
					cat, share*100),
				Impact:     impact,
				Confidence: 0.65,
				Reason:     ReasonConcentration,
			})
		}
	}
	if merch, share := topShare(merchTotals, total); merch != UnknownMerchant && share > merchantConcentration {
		impact := (share - merchantConcentration) * total / float64(monthsSpanned(in.records))
		if impact > floor {
			items = append(items, ActionItem{
				Priority: 2,
				Title:    fmt.Sprintf("A single merchant takes a large share: %s", merch),
				Summary: fmt.Sprintf("%s accounts for %.0f%% of all expenses.",
					merch, share*100),
				Impact:     impact,
				Confidence: 0.6,
				Reason:     ReasonConcentration,
			})
		}
	}
	return items
}

func recurringActions(in actionInput, floor float64) []ActionItem {
	costFloor := math.Max(15, floor)
	var qualifying []RecurringCost
	var sum, stabilitySum float64
	for _, rc := range in.recurring {
		if rc.AvgMonthly >= costFloor {
			qualifying = append(qualifying, rc)
			sum += rc.AvgMonthly
			stabilitySum += rc.Stability
		}
	}
	if len(qualifying) == 0 {
		return nil
	}

	names := make([]string, 0, 3)
	for i, rc := range qualifying {
		if i == 3 {
			break
		}
		names = append(names, rc.Merchant)
	}
	avgStability := stabilitySum / float64(len(qualifying))

	// Assume roughly 15% of stable recurring spend is recoverable.
	impact := 0.15 * sum
	if impact <= floor {
		return nil
	}
	return []ActionItem{{
		Priority: 3,
		Title:    "Review recurring charges",
		Summary: fmt.Sprintf("%d merchant(s) bill you every month for about %.0f EUR in total, led by %s.",
			len(qualifying), sum, joinNames(names)),
		Impact:     impact,
		Confidence: clampConfidence(0.8 - avgStability/2),
		Reason:     ReasonRecurring,
		Playbook:   "Cancel or renegotiate the subscriptions you no longer use",
	}}
}

func volatilityActions(in actionInput, floor float64) []ActionItem {
	daily := DailyFlows(in.records)
	values := make([]float64, 0, len(daily))
	for _, d := range daily {
		values = append(values, d.Expense)
	}
	if len(values) < 2 {
		return nil
	}

	mean, err := stats.Mean(values)
	if err != nil || mean <= 0 {
		return nil
	}
	stddev, err := stats.StandardDeviationPopulation(values)
	if err != nil {
		return nil
	}
	cv := stddev / mean
	monthly := mean * 30
	if cv < highDailyCV || 0.1*monthly <= floor {
		return nil
	}
	return []ActionItem{{
		Priority: 3,
		Title:    "Smooth out spiky spending",
		Summary: fmt.Sprintf("Daily expenses vary strongly (CV %.1f); a few heavy days drive the total.",
			cv),
		Impact:     0.1 * monthly,
		Confidence: 0.55,
		Reason:     ReasonVolatility,
		Playbook:   "Spread large purchases across the month or plan them ahead",
	}}
}

func runwayActions(in actionInput, windowDays int) []ActionItem {
	liquid := in.balances.Totals[domain.AccountChecking] + in.balances.Totals[domain.AccountSavings]
	burn := in.windows.Recent.Expenses() / float64(windowDays)
	if burn <= 0 || liquid < 0 {
		return nil
	}
	runway := liquid / burn

	switch {
	case runway < runwayUrgentDays:
		return []ActionItem{{
			Priority: 1,
			Title:    "Rebuild your cash buffer",
			Summary: fmt.Sprintf("Liquid balances cover about %.0f days of spending, below the %d-day safety line.",
				runway, runwayUrgentDays),
			Impact:     burn * 30,
			Confidence: 0.9,
			Reason:     ReasonRunway,
			Playbook:   "Pause non-essential spending until the buffer covers two months",
		}}
	case runway < runwayImportantDays:
		return []ActionItem{{
			Priority: 2,
			Title:    "Extend your cash runway",
			Summary: fmt.Sprintf("Liquid balances cover about %.0f days of spending; aim for %d+.",
				runway, runwayImportantDays),
			Impact:     burn * 15,
			Confidence: 0.75,
			Reason:     ReasonRunway,
		}}
	default:
		return nil
	}
}

// dedupeByTitle keeps, per title, the variant with the best priority, then
// confidence, then impact.
func dedupeByTitle(items []ActionItem) []ActionItem {
	best := make(map[string]ActionItem)
	var order []string
	for _, it := range items {
		it.Priority = clampPriority(it.Priority)
		it.Confidence = clampConfidence(it.Confidence)
		if it.Impact < 0 {
			it.Impact = 0
		}
		cur, ok := best[it.Title]
		if !ok {
			best[it.Title] = it
			order = append(order, it.Title)
			continue
		}
		if betterAction(it, cur) {
			best[it.Title] = it
		}
	}
	out := make([]ActionItem, 0, len(order))
	for _, title := range order {
		out = append(out, best[title])
	}
	return out
}

func betterAction(a, b ActionItem) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return a.Impact > b.Impact
}

func sortActions(items []ActionItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Priority != items[j].Priority {
			return items[i].Priority < items[j].Priority
		}
		if items[i].Confidence != items[j].Confidence {
			return items[i].Confidence > items[j].Confidence
		}
		return items[i].Impact > items[j].Impact
	})
}

func clampPriority(p int) int {
	if p < 1 {
		return 1
	}
	if p > 3 {
		return 3
	}
	return p
}

func clampConfidence(c float64) float64 {
	return math.Min(maxConfidence, math.Max(minConfidence, c))
}

func topShare(totals map[string]float64, total float64) (string, float64) {
	var top string
	var topVal float64
	for k, v := range totals {
		if v > topVal || (v == topVal && k < top) {
			top, topVal = k, v
		}
	}
	return top, topVal / total
}

func monthsSpanned(recs []Record) int {
	months := make(map[string]bool)
	for _, r := range recs {
		if r.HasDate {
			months[r.Date.Format(monthFormat)] = true
		}
	}
	if len(months) == 0 {
		return 1
	}
	return len(months)
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return names[0] + ", " + names[1] + " and " + names[2]
	}
}
