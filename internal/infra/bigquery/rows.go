// Package infra maps the warehouse transaction/account tables onto domain
// records for the pull command.
package infra

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/mdejong/fininsight/internal/domain"
)

// TransactionRow mirrors the finance.transactions table schema.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	AccountID string `bigquery:"account_id"` // NULLABLE

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED

	Amount    *big.Rat            `bigquery:"amount"`     // REQUIRED NUMERIC
	AmountEUR *big.Rat            `bigquery:"amount_eur"` // NULLABLE NUMERIC
	Currency  string              `bigquery:"currency"`   // REQUIRED STRING
	Category  bigquery.NullString `bigquery:"category_name"`

	Merchant       bigquery.NullString `bigquery:"merchant_name"`
	Counterparty   bigquery.NullString `bigquery:"counterparty_name"`
	RawDescription string              `bigquery:"raw_description"` // REQUIRED STRING

	IsInternalTransfer bigquery.NullBool `bigquery:"is_internal_transfer"`
}

// AccountRow mirrors the finance.accounts table schema.
type AccountRow struct {
	AccountID   string `bigquery:"account_id"` // REQUIRED
	AccountName string `bigquery:"account_name"`
	AccountType string `bigquery:"account_type"`
	Currency    string `bigquery:"currency"`

	Balance    *big.Rat `bigquery:"balance"`     // NULLABLE NUMERIC
	BalanceEUR *big.Rat `bigquery:"balance_eur"` // NULLABLE NUMERIC
}

// ToDomain converts a warehouse row to a domain transaction.
func (r *TransactionRow) ToDomain() domain.Transaction {
	t := domain.Transaction{
		ID:          r.TransactionID,
		AccountID:   r.AccountID,
		Currency:    r.Currency,
		Description: r.RawDescription,
	}
	d := r.TransactionDate
	if d.IsValid() {
		t.Date = time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	}
	if r.Amount != nil {
		t.Amount = ratToFloat(r.Amount)
	}
	if r.AmountEUR != nil {
		eur := ratToFloat(r.AmountEUR)
		t.AmountEUR = &eur
	}
	if r.Category.Valid {
		t.Category = r.Category.StringVal
	}
	if r.Merchant.Valid {
		t.Merchant = r.Merchant.StringVal
	}
	if r.Counterparty.Valid {
		t.Counterparty = r.Counterparty.StringVal
	}
	if r.IsInternalTransfer.Valid {
		t.InternalTransfer = r.IsInternalTransfer.Bool
	}
	return t
}

// ToDomain converts a warehouse row to a domain account.
func (r *AccountRow) ToDomain() domain.Account {
	a := domain.Account{
		ID:           r.AccountID,
		Description:  r.AccountName,
		DeclaredType: r.AccountType,
	}
	a.Balance.Currency = r.Currency
	if r.Balance != nil {
		a.Balance.Value = ratToFloat(r.Balance)
	}
	if r.BalanceEUR != nil {
		eur := ratToFloat(r.BalanceEUR)
		a.BalanceEUR = &eur
	}
	return a
}

func ratToFloat(r *big.Rat) float64 {
	f, _ := r.Float64()
	return f
}
