package insight

import (
	"sort"

	"github.com/montanaflynn/stats"
)

// RecurringCost is a merchant with materially consistent monthly spend.
// Stability is the population coefficient of variation of the monthly totals:
// near zero means a fixed fee (rent, subscriptions), higher means variable
// recurring spend.
type RecurringCost struct {
	Merchant      string  `json:"merchant"`
	MonthsPresent int     `json:"months_present"`
	AvgMonthly    float64 `json:"avg_monthly"`
	Stability     float64 `json:"stability"`
}

// DetectRecurringCosts finds merchants appearing in enough distinct months
// with an average monthly spend above the noise floor. The minimum month
// count is 3 when the dataset spans at least 4 distinct months, else 2.
// Results are sorted by average monthly cost descending, capped to limit.
func DetectRecurringCosts(recs []Record, limit int) []RecurringCost {
	if limit <= 0 {
		limit = DefaultRecurringLimit
	}

	datasetMonths := make(map[string]bool)
	byMerchant := make(map[string]map[string]float64)
	for _, r := range recs {
		if !r.HasDate {
			continue
		}
		month := r.Date.Format(monthFormat)
		datasetMonths[month] = true

		if r.Internal || !r.IsExpense() || r.MerchantUnknown {
			continue
		}
		m := byMerchant[r.Merchant]
		if m == nil {
			m = make(map[string]float64)
			byMerchant[r.Merchant] = m
		}
		m[month] += -r.Amount
	}

	minMonths := 2
	if len(datasetMonths) >= 4 {
		minMonths = 3
	}

	var out []RecurringCost
	for merchant, months := range byMerchant {
		if len(months) < minMonths {
			continue
		}
		totals := make([]float64, 0, len(months))
		for _, t := range months {
			totals = append(totals, t)
		}

		mean, err := stats.Mean(totals)
		if err != nil || mean < recurringNoiseFloorEUR {
			continue
		}
		stddev, err := stats.StandardDeviationPopulation(totals)
		if err != nil {
			continue
		}

		out = append(out, RecurringCost{
			Merchant:      merchant,
			MonthsPresent: len(months),
			AvgMonthly:    mean,
			Stability:     stddev / mean,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgMonthly != out[j].AvgMonthly {
			return out[i].AvgMonthly > out[j].AvgMonthly
		}
		return out[i].Merchant < out[j].Merchant
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
