package insight

import (
	"sort"
	"time"
)

// Window is a contiguous span of calendar days and the records falling in it.
type Window struct {
	Start   time.Time
	End     time.Time
	Records []Record
}

// WindowPair holds the recent N-day window and the N days immediately before
// it. Both are anchored to the latest transaction date in the dataset, not
// wall-clock now, so results are reproducible for historical fixtures.
type WindowPair struct {
	Recent Window
	Prior  Window
}

// DailyFlow is one day's income/expense/net breakdown.
type DailyFlow struct {
	Date    string  `json:"date"` // YYYY-MM-DD
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Net     float64 `json:"net"`
}

// SplitWindows partitions records into a recent window of `days` calendar days
// ending at the latest valid transaction date, and the immediately preceding
// `days`-day span. Records without a valid date belong to neither window.
func SplitWindows(recs []Record, days int) WindowPair {
	if days <= 0 {
		days = DefaultWindowDays
	}

	anchor, ok := latestDay(recs)
	if !ok {
		return WindowPair{}
	}

	recentStart := anchor.AddDate(0, 0, -(days - 1))
	priorStart := recentStart.AddDate(0, 0, -days)
	priorEnd := recentStart.AddDate(0, 0, -1)

	pair := WindowPair{
		Recent: Window{Start: recentStart, End: anchor},
		Prior:  Window{Start: priorStart, End: priorEnd},
	}

	for _, r := range recs {
		if !r.HasDate {
			continue
		}
		d := r.Day()
		switch {
		case !d.Before(recentStart) && !d.After(anchor):
			pair.Recent.Records = append(pair.Recent.Records, r)
		case !d.Before(priorStart) && !d.After(priorEnd):
			pair.Prior.Records = append(pair.Prior.Records, r)
		}
	}
	return pair
}

// Income sums the window's positive amounts, internal transfers excluded.
func (w Window) Income() float64 {
	var sum float64
	for _, r := range w.Records {
		if r.Internal || r.Amount <= 0 {
			continue
		}
		sum += r.Amount
	}
	return sum
}

// Expenses sums the window's expense magnitudes, internal transfers excluded.
func (w Window) Expenses() float64 {
	var sum float64
	for _, r := range w.Records {
		if r.Internal || r.Amount >= 0 {
			continue
		}
		sum += -r.Amount
	}
	return sum
}

// CategoryExpenseTotals returns per-category expense magnitudes over the
// given records, internal transfers excluded.
func CategoryExpenseTotals(recs []Record) map[string]float64 {
	totals := make(map[string]float64)
	for _, r := range recs {
		if r.Internal || !r.IsExpense() {
			continue
		}
		totals[r.Category] += -r.Amount
	}
	return totals
}

// MerchantExpenseTotals returns per-merchant expense magnitudes over the
// given records, internal transfers excluded.
func MerchantExpenseTotals(recs []Record) map[string]float64 {
	totals := make(map[string]float64)
	for _, r := range recs {
		if r.Internal || !r.IsExpense() {
			continue
		}
		totals[r.Merchant] += -r.Amount
	}
	return totals
}

// DailyFlows returns the per-day income/expense/net series over all dated
// records, sorted by date ascending. Internal transfers are excluded.
func DailyFlows(recs []Record) []DailyFlow {
	byDay := make(map[string]*DailyFlow)
	for _, r := range recs {
		if !r.HasDate || r.Internal {
			continue
		}
		key := r.Day().Format(dayFormat)
		f := byDay[key]
		if f == nil {
			f = &DailyFlow{Date: key}
			byDay[key] = f
		}
		if r.Amount > 0 {
			f.Income += r.Amount
		} else {
			f.Expense += -r.Amount
		}
		f.Net += r.Amount
	}

	out := make([]DailyFlow, 0, len(byDay))
	for _, f := range byDay {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

const dayFormat = "2006-01-02"

func parseDay(s string) (time.Time, error) {
	return time.Parse(dayFormat, s)
}

// latestDay returns the latest valid transaction day in the dataset.
func latestDay(recs []Record) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, r := range recs {
		if !r.HasDate {
			continue
		}
		d := r.Day()
		if !found || d.After(latest) {
			latest = d
			found = true
		}
	}
	return latest, found
}
