package domain

// SeriesPoint is one day of a running balance series.
type SeriesPoint struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Total float64 `json:"total"`
}

// BalanceHistory is an authoritative per-account-type balance series supplied
// by the acquisition layer. When present it is used verbatim instead of the
// locally reconstructed series.
type BalanceHistory struct {
	Series         map[AccountType][]SeriesPoint `json:"series"`
	LatestTotals   map[AccountType]float64       `json:"latest_totals"`
	MissingFxCount int                           `json:"missing_fx_count"`
}
