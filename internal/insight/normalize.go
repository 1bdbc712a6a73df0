package insight

import (
	"math"
	"strings"
	"time"

	"github.com/mdejong/fininsight/internal/domain"
)

// Record is a normalized transaction in EUR-equivalent terms, the unit every
// engine component works on. Amount is always finite; records whose foreign
// amount has no conversion carry a zero amount rather than mixed units.
type Record struct {
	ID        string
	Date      time.Time
	HasDate   bool
	Amount    float64 // signed EUR-equivalent, negative = expense
	Category  string
	Merchant  string
	AccountID string
	Internal  bool

	// Degradation flags, consumed by the quality scorer.
	HasEURAmount      bool
	CategoryDefaulted bool
	MerchantUnknown   bool
}

// IsExpense reports whether the record is an expense.
func (r Record) IsExpense() bool {
	return r.Amount < 0
}

// Day returns the record's date truncated to a calendar day.
func (r Record) Day() time.Time {
	y, m, d := r.Date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Normalize sanitizes raw transactions into canonical Records. It never fails:
// unparsable dates and missing conversions degrade per record instead of
// dropping it, so downstream aggregates stay total-complete.
func Normalize(txs []domain.Transaction) []Record {
	out := make([]Record, 0, len(txs))
	for _, t := range txs {
		amount, hasEUR := eurSafeAmount(t)

		category := ResolveCategory(t)
		merchant := ResolveMerchant(t)

		out = append(out, Record{
			ID:                t.ID,
			Date:              t.Date,
			HasDate:           t.HasDate(),
			Amount:            amount,
			Category:          category,
			Merchant:          merchant,
			AccountID:         t.AccountID,
			Internal:          t.InternalTransfer,
			HasEURAmount:      hasEUR,
			CategoryDefaulted: category == DefaultCategory && strings.TrimSpace(t.Category) == "",
			MerchantUnknown:   merchant == UnknownMerchant,
		})
	}
	return out
}

// eurSafeAmount returns the EUR-equivalent amount for a transaction. A
// foreign-currency amount without a conversion yields zero: excluded from
// totals rather than silently mixed into EUR sums.
func eurSafeAmount(t domain.Transaction) (amount float64, ok bool) {
	cur := strings.ToUpper(strings.TrimSpace(t.Currency))
	eur := cur == "" || cur == "EUR"

	switch {
	case t.AmountEUR != nil && isFinite(*t.AmountEUR):
		return *t.AmountEUR, true
	case eur && isFinite(t.Amount):
		return t.Amount, true
	default:
		return 0, false
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
