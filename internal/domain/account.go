package domain

// AccountType is the derived classification of a bank account.
type AccountType string

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountInvestment AccountType = "investment"
)

// Balance is a monetary value in a named currency.
type Balance struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

// Account is one bank account snapshot as delivered by the data acquisition
// layer. DeclaredType and StructuralClass are classification inputs; the
// derived account type is computed by the insight engine's rule cascade.
type Account struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Balance     Balance  `json:"balance"`
	BalanceEUR  *float64 `json:"balance_eur,omitempty"` // EUR equivalent, when the source converted it

	DeclaredType    string `json:"account_type"` // source-declared type, free form
	StructuralClass string `json:"class"`        // source record class name, free form
}
