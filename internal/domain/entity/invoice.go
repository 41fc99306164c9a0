package entity

import "github.com/shopspring/decimal"

// Invoice states this client is allowed to target. The ERP knows more
// states (paid, cancel); everything past open belongs to other tooling.
const (
	StateDraft = "draft"
	StateOpen  = "open"
)

// ValidInvoiceState reports whether s is a state the client may request.
func ValidInvoiceState(s string) bool {
	return s == StateDraft || s == StateOpen
}

// TaxLine is a snapshot of one account.invoice.tax record produced by
// the remote tax recomputation. Amount corrections are written back
// through the gateway, never into the snapshot.
type TaxLine struct {
	ID        int64
	Name      string
	TaxCodeID int64
	Amount    decimal.Decimal
}
