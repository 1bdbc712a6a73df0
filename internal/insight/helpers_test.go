package insight

import (
	"time"

	"github.com/mdejong/fininsight/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func tx(date time.Time, amount float64, category, merchant string) domain.Transaction {
	return domain.Transaction{
		Date:     date,
		Amount:   amount,
		Currency: "EUR",
		Category: category,
		Merchant: merchant,
	}
}

func eur(v float64) *float64 {
	return &v
}

// monthlyBill spreads one fixed expense across n consecutive months.
func monthlyBill(start time.Time, n int, amount float64, category, merchant string) []domain.Transaction {
	txs := make([]domain.Transaction, 0, n)
	for i := 0; i < n; i++ {
		txs = append(txs, tx(start.AddDate(0, i, 0), amount, category, merchant))
	}
	return txs
}
