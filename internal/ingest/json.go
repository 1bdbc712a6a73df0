// Package ingest decodes dataset files delivered by the acquisition layer
// into domain records. Decoding is lenient at row level: malformed rows
// degrade or are reported, they never abort the whole file.
package ingest

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mdejong/fininsight/internal/domain"
	"github.com/mdejong/fininsight/internal/insight"
)

// Dataset is one decoded input file: everything a single analysis consumes.
type Dataset struct {
	Transactions  []domain.Transaction
	Accounts      []domain.Account
	History       *domain.BalanceHistory
	ServerQuality *insight.QualitySummary
}

// rawTransaction mirrors the JSON wire shape; dates arrive as strings in a
// handful of layouts depending on the exporter.
type rawTransaction struct {
	ID               string   `json:"id"`
	Date             string   `json:"date"`
	Amount           float64  `json:"amount"`
	AmountEUR        *float64 `json:"amount_eur"`
	Currency         string   `json:"currency"`
	Category         string   `json:"category"`
	Merchant         string   `json:"merchant"`
	Counterparty     string   `json:"counterparty"`
	Description      string   `json:"description"`
	AccountID        string   `json:"account_id"`
	InternalTransfer bool     `json:"is_internal_transfer"`
}

type rawDataset struct {
	Transactions  []rawTransaction        `json:"transactions"`
	Accounts      []domain.Account        `json:"accounts"`
	History       *domain.BalanceHistory  `json:"history"`
	ServerQuality *insight.QualitySummary `json:"server_quality"`
}

// dateLayouts are tried in order when parsing transaction dates.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-01-2006",
}

// ParseJSON decodes a dataset file. Transaction rows with unparsable dates
// are kept with a zero date; the engine excludes them from date-dependent
// aggregates only.
func ParseJSON(data []byte) (*Dataset, error) {
	var raw rawDataset
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("ingest: decode dataset: %w", err)
	}

	ds := &Dataset{
		Accounts:      raw.Accounts,
		History:       raw.History,
		ServerQuality: raw.ServerQuality,
	}
	ds.Transactions = make([]domain.Transaction, 0, len(raw.Transactions))
	for _, rt := range raw.Transactions {
		ds.Transactions = append(ds.Transactions, domain.Transaction{
			ID:               rt.ID,
			Date:             parseDate(rt.Date),
			Amount:           rt.Amount,
			AmountEUR:        rt.AmountEUR,
			Currency:         rt.Currency,
			Category:         rt.Category,
			Merchant:         rt.Merchant,
			Counterparty:     rt.Counterparty,
			Description:      rt.Description,
			AccountID:        rt.AccountID,
			InternalTransfer: rt.InternalTransfer,
		})
	}
	return ds, nil
}

// parseDate tries the known layouts and returns the zero time when none fits.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
