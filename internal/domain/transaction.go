package domain

import (
	"time"
)

// Transaction is one normalized bank transaction as delivered by the data
// acquisition layer. Amounts are signed: negative = expense, positive = income.
// Fields that sources deliver inconsistently are pointers; the insight engine
// applies the documented fallback rules instead of guessing here.
type Transaction struct {
	ID   string    `json:"id"`
	Date time.Time `json:"date"` // zero value = date was missing or unparsable

	Amount    float64  `json:"amount"`
	AmountEUR *float64 `json:"amount_eur,omitempty"` // EUR-normalized amount, when the source converted it
	Currency  string   `json:"currency"`

	Category     string `json:"category"`     // may be blank; engine defaults to "Other"
	Merchant     string `json:"merchant"`     // preferred label candidate
	Counterparty string `json:"counterparty"` // second label candidate
	Description  string `json:"description"`  // last label candidate

	AccountID        string `json:"account_id"`
	InternalTransfer bool   `json:"is_internal_transfer"`
}

// IsExpense reports whether the transaction takes money out of the account.
func (t Transaction) IsExpense() bool {
	return t.Amount < 0
}

// HasDate reports whether the transaction carries a usable calendar date.
func (t Transaction) HasDate() bool {
	return !t.Date.IsZero()
}
