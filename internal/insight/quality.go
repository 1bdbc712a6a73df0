package insight

import (
	"fmt"
	"math"
	"strings"

	"github.com/mdejong/fininsight/internal/domain"
)

// QualityCoverage holds the independent coverage ratios, each in [0,1].
type QualityCoverage struct {
	CategoryCount  float64 `json:"category_count"`
	MerchantCount  float64 `json:"merchant_count"`
	CategoryAmount float64 `json:"category_amount"`
	MerchantAmount float64 `json:"merchant_amount"`
	EURAmount      float64 `json:"eur_amount"`
	FX             float64 `json:"fx"`
	InternalShare  float64 `json:"internal_share"`
}

// QualityMetrics holds the raw counts behind the ratios.
type QualityMetrics struct {
	Transactions      int `json:"transactions"`
	Expenses          int `json:"expenses"`
	Accounts          int `json:"accounts"`
	NonEURAccounts    int `json:"non_eur_accounts"`
	ConvertedAccounts int `json:"converted_accounts"`
}

// QualitySummary is the dataset confidence report. It is recomputed in full
// on every refresh cycle, never partially updated.
type QualitySummary struct {
	Score           int             `json:"score"` // 0-100
	Label           string          `json:"label"`
	Coverage        QualityCoverage `json:"coverage"`
	Metrics         QualityMetrics  `json:"metrics"`
	Warnings        []string        `json:"warnings,omitempty"`
	Recommendations []string        `json:"recommendations,omitempty"`
}

// Quality labels and their score thresholds.
const (
	qualityGood           = "Good"
	qualityFair           = "Fair"
	qualityNeedsAttention = "Needs attention"
)

// Fixed score weights. They sum to 1.
const (
	weightCategoryCount  = 0.25
	weightMerchantCount  = 0.20
	weightCategoryAmount = 0.20
	weightMerchantAmount = 0.15
	weightEURAmount      = 0.10
	weightFX             = 0.10
)

// Warning thresholds.
const (
	warnCategoryCoverage = 0.78
	warnFXCoverage       = 0.95
	warnInternalShare    = 0.50
	warnMinTransactions  = 120
)

// ScoreQuality computes the 0-100 confidence score over the dataset. It never
// fails: with zero transactions it returns nil, a valid "unavailable" result.
func ScoreQuality(recs []Record, accounts []domain.Account) *QualitySummary {
	if len(recs) == 0 {
		return nil
	}

	var (
		expenses, catResolved, merchResolved  int
		expenseWeight, catWeight, merchWeight float64
		eurCovered, internal                  int
	)
	for _, r := range recs {
		if r.HasEURAmount {
			eurCovered++
		}
		if r.Internal {
			internal++
		}
		if !r.IsExpense() {
			continue
		}
		expenses++
		w := -r.Amount
		expenseWeight += w
		if !r.CategoryDefaulted {
			catResolved++
			catWeight += w
		}
		if !r.MerchantUnknown {
			merchResolved++
			merchWeight += w
		}
	}

	var nonEUR, converted int
	for _, a := range accounts {
		cur := strings.ToUpper(strings.TrimSpace(a.Balance.Currency))
		if cur == "" || cur == "EUR" {
			continue
		}
		nonEUR++
		if a.BalanceEUR != nil && isFinite(*a.BalanceEUR) {
			converted++
		}
	}

	cov := QualityCoverage{
		CategoryCount:  ratio(catResolved, expenses),
		MerchantCount:  ratio(merchResolved, expenses),
		CategoryAmount: weightRatio(catWeight, expenseWeight),
		MerchantAmount: weightRatio(merchWeight, expenseWeight),
		EURAmount:      ratio(eurCovered, len(recs)),
		FX:             ratio(converted, nonEUR),
		InternalShare:  float64(internal) / float64(len(recs)),
	}

	raw := weightCategoryCount*cov.CategoryCount +
		weightMerchantCount*cov.MerchantCount +
		weightCategoryAmount*cov.CategoryAmount +
		weightMerchantAmount*cov.MerchantAmount +
		weightEURAmount*cov.EURAmount +
		weightFX*cov.FX
	score := int(math.Round(raw * 100))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	s := &QualitySummary{
		Score:    score,
		Label:    qualityLabel(score),
		Coverage: cov,
		Metrics: QualityMetrics{
			Transactions:      len(recs),
			Expenses:          expenses,
			Accounts:          len(accounts),
			NonEURAccounts:    nonEUR,
			ConvertedAccounts: converted,
		},
	}
	s.addWarnings()
	return s
}

func (s *QualitySummary) addWarnings() {
	if s.Coverage.CategoryCount < warnCategoryCoverage {
		s.warn(
			fmt.Sprintf("Category coverage is low (%.0f%% of expenses categorized)", s.Coverage.CategoryCount*100),
			"Enrich transaction categories at the source to improve budget accuracy",
		)
	}
	if s.Coverage.FX < warnFXCoverage {
		s.warn(
			fmt.Sprintf("FX coverage is incomplete (%.0f%% of non-EUR accounts converted)", s.Coverage.FX*100),
			"Provide EUR conversions for foreign-currency accounts so totals include them",
		)
	}
	if s.Coverage.InternalShare > warnInternalShare {
		s.warn(
			fmt.Sprintf("Internal transfers dominate the dataset (%.0f%% of transactions)", s.Coverage.InternalShare*100),
			"Check the transfer flagging rules; most records are excluded from spending analysis",
		)
	}
	if s.Metrics.Transactions < warnMinTransactions {
		s.warn(
			fmt.Sprintf("Small dataset (%d transactions)", s.Metrics.Transactions),
			"Trend and recurring-cost detection improve with a longer history",
		)
	}
}

func (s *QualitySummary) warn(warning, recommendation string) {
	s.Warnings = append(s.Warnings, warning)
	s.Recommendations = append(s.Recommendations, recommendation)
}

func qualityLabel(score int) string {
	switch {
	case score >= 85:
		return qualityGood
	case score >= 70:
		return qualityFair
	default:
		return qualityNeedsAttention
	}
}

// MergeQuality combines a locally computed summary with a server-supplied
// one. Server metrics win when both are present; local warnings the server
// did not raise are appended as a supplement.
func MergeQuality(local, server *QualitySummary) *QualitySummary {
	if server == nil {
		return local
	}
	if local == nil {
		return server
	}

	merged := *server
	merged.Warnings = append([]string(nil), server.Warnings...)
	merged.Recommendations = append([]string(nil), server.Recommendations...)

	known := make(map[string]bool, len(merged.Warnings))
	for _, w := range merged.Warnings {
		known[w] = true
	}
	for i, w := range local.Warnings {
		if known[w] {
			continue
		}
		merged.Warnings = append(merged.Warnings, w)
		if i < len(local.Recommendations) {
			merged.Recommendations = append(merged.Recommendations, local.Recommendations[i])
		}
	}
	return &merged
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 1
	}
	return float64(n) / float64(total)
}

func weightRatio(n, total float64) float64 {
	if total <= 0 {
		return 1
	}
	return n / total
}
