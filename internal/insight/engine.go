// Package insight implements the financial insight engine: a set of pure,
// deterministic functions that turn normalized transaction and account
// collections into KPIs, budget discipline metrics, recurring costs,
// reconciled balances, a data-quality score and a ranked action plan.
//
// Every function is anchored to the dataset's own latest transaction date,
// never wall-clock time, so identical inputs always produce identical output.
package insight

import (
	"github.com/mdejong/fininsight/internal/domain"
)

// Input is everything one analysis run consumes. Transactions and Accounts
// come from the acquisition layer; History and ServerQuality are optional
// pre-computed server-side results merged into the locally computed ones.
type Input struct {
	Transactions  []domain.Transaction
	Accounts      []domain.Account
	History       *domain.BalanceHistory
	ServerQuality *QualitySummary
}

// BudgetReport bundles the budget classifier's outputs.
type BudgetReport struct {
	Snapshots []MonthlySnapshot `json:"snapshots"`
	Baseline  *BudgetBaseline   `json:"baseline,omitempty"`
	Targets   BudgetTargets     `json:"targets"`
}

// Report is the full engine output for one refresh cycle, shaped as plain
// records with no formatting or localization baked in.
type Report struct {
	KPIs         KPIReport       `json:"kpis"`
	Highlights   *Highlights     `json:"highlights,omitempty"`
	Budget       BudgetReport    `json:"budget"`
	Recurring    []RecurringCost `json:"recurring"`
	Balances     BalanceMetrics  `json:"balances"`
	Quality      *QualitySummary `json:"quality,omitempty"`
	Actions      []ActionItem    `json:"actions"`
	MonthlyFlows []MonthlyFlow   `json:"monthly_flows"`
	DailyFlows   []DailyFlow     `json:"daily_flows"`
	TopMerchants []MerchantTotal `json:"top_merchants"`
	WeekdayLoads []WeekdayLoad   `json:"weekday_loads"`
}

// Analyze runs the full pipeline over one immutable input set. It is pure:
// no I/O, no shared state, and re-running it on the same input yields an
// identical Report.
func Analyze(in Input, opts Options) *Report {
	opts = opts.withDefaults()

	recs := Normalize(in.Transactions)
	snapshots := BuildMonthlySnapshots(recs)
	recurring := DetectRecurringCosts(recs, opts.RecurringLimit)
	balances := ReconcileBalances(in.Accounts, recs, in.History)
	quality := MergeQuality(ScoreQuality(recs, in.Accounts), in.ServerQuality)
	kpis := ComputeKPIs(recs, opts.WindowDays)

	return &Report{
		KPIs:         kpis,
		Highlights:   ComputeHighlights(recs, kpis),
		Budget:       BudgetReport{Snapshots: snapshots, Baseline: ComputeBaseline(snapshots), Targets: PolicyTargets()},
		Recurring:    recurring,
		Balances:     balances,
		Quality:      quality,
		Actions:      BuildActionPlan(recs, snapshots, recurring, balances, opts),
		MonthlyFlows: MonthlyFlows(recs),
		DailyFlows:   DailyFlows(recs),
		TopMerchants: TopMerchants(recs, 10),
		WeekdayLoads: WeekdayLoads(recs, 8),
	}
}
