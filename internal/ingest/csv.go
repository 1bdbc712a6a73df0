package ingest

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mdejong/fininsight/internal/domain"
)

// ParseCSV parses transactions from CSV content with a header row. Amounts
// are parsed exactly via decimal and rounded to cents before converting to
// float. Invalid rows are reported in the second return value and skipped;
// the parse itself only fails when the CSV is structurally unreadable.
func ParseCSV(content string) ([]domain.Transaction, []string) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, []string{fmt.Sprintf("read CSV: %v", err)}
	}
	if len(records) < 2 {
		return []domain.Transaction{}, nil
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var txs []domain.Transaction
	var problems []string
	for i, record := range records[1:] {
		rowNum := i + 2

		row := make(map[string]string, len(headers))
		for j, h := range headers {
			if j < len(record) {
				row[h] = strings.TrimSpace(record[j])
			}
		}

		t, err := mapToTransaction(row)
		if err != nil {
			problems = append(problems, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		txs = append(txs, t)
	}
	return txs, problems
}

func mapToTransaction(row map[string]string) (domain.Transaction, error) {
	amountStr := row["amount"]
	if amountStr == "" {
		return domain.Transaction{}, fmt.Errorf("missing amount")
	}
	amount, err := parseMoney(amountStr)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("invalid amount %q: %w", amountStr, err)
	}

	t := domain.Transaction{
		ID:               row["id"],
		Date:             parseDate(row["date"]),
		Amount:           amount,
		Currency:         row["currency"],
		Category:         row["category"],
		Merchant:         row["merchant"],
		Counterparty:     row["counterparty"],
		Description:      row["description"],
		AccountID:        row["account_id"],
		InternalTransfer: parseBool(row["is_internal_transfer"]),
	}

	if s := row["amount_eur"]; s != "" {
		eur, err := parseMoney(s)
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("invalid amount_eur %q: %w", s, err)
		}
		t.AmountEUR = &eur
	}
	return t, nil
}

// parseMoney parses a money string exactly and rounds to cents. Comma
// decimal separators from European exports are accepted.
func parseMoney(s string) (float64, error) {
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.Round(2).InexactFloat64(), nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "y":
		return true
	default:
		return false
	}
}
