package insight

import (
	"regexp"
	"strings"

	"github.com/mdejong/fininsight/internal/domain"
)

// Sentinel labels used when no usable candidate exists. Downstream coverage
// metrics treat these as "unresolved", so they must stay stable.
const (
	UnknownMerchant = "Unknown"
	DefaultCategory = "Other"
)

// labelCandidate is one step of the ordered merchant resolution cascade.
type labelCandidate struct {
	name  string
	value func(domain.Transaction) string
}

// merchantCandidates is the resolution order: explicit merchant first, then
// counterparty, then free-text description. There is exactly one definition
// of "readable merchant name" in the system; every component goes through it.
var merchantCandidates = []labelCandidate{
	{name: "merchant", value: func(t domain.Transaction) string { return t.Merchant }},
	{name: "counterparty", value: func(t domain.Transaction) string { return t.Counterparty }},
	{name: "description", value: func(t domain.Transaction) string { return t.Description }},
}

var (
	// ibanPattern matches account-number style strings after spaces are
	// stripped, e.g. "NL91 ABNA 0417 1643 00".
	ibanPattern = regexp.MustCompile(`^[A-Za-z]{2}\d{2}[A-Za-z0-9]{6,30}$`)

	// opaqueTokenPattern matches long machine codes such as payment
	// references. The digit requirement keeps long legitimate names from
	// being rejected.
	opaqueTokenPattern = regexp.MustCompile(`^[A-Z0-9*_-]{12,}$`)
)

// ResolveMerchant returns a human-readable merchant label for the transaction,
// preferring merchant, then counterparty, then description. Candidates that
// look like account numbers or opaque payment codes are skipped in favor of
// the next one. Returns UnknownMerchant when every candidate is opaque or empty.
func ResolveMerchant(t domain.Transaction) string {
	for _, c := range merchantCandidates {
		v := strings.TrimSpace(c.value(t))
		if v == "" || looksOpaque(v) {
			continue
		}
		return v
	}
	return UnknownMerchant
}

// ResolveCategory returns the trimmed category or DefaultCategory when blank.
func ResolveCategory(t domain.Transaction) string {
	if c := strings.TrimSpace(t.Category); c != "" {
		return c
	}
	return DefaultCategory
}

// looksOpaque reports whether a label candidate is an account-number or
// machine-token string rather than a readable name.
func looksOpaque(s string) bool {
	compact := strings.ReplaceAll(s, " ", "")
	if ibanPattern.MatchString(compact) {
		return true
	}
	// Opaque tokens are single runs without spaces; compacting a multi-word
	// name must not turn it into a "token".
	if strings.ContainsAny(s, " \t") {
		return false
	}
	return opaqueTokenPattern.MatchString(s) && strings.ContainsAny(s, "0123456789")
}
