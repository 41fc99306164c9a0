package invoicing

import (
	"context"

	"github.com/alkivi-sas/go-odoo-client/internal/domain/entity"
)

// Gateway is the outbound port to the remote ERP. The concrete
// implementations speak XML-RPC or JSON-RPC; tests inject a mock.
//
// Every method requires an authenticated session and acquires one
// lazily on first use. Calls are blocking, are never retried, and
// enforce no local timeout beyond what the supplied context carries.
type Gateway interface {
	// Search returns the ids of model records matching every condition.
	Search(ctx context.Context, model string, conds []entity.Condition) ([]int64, error)

	// Read returns field snapshots for the given ids. A nil fields slice
	// reads every field. Unknown ids are silently absent from the result.
	Read(ctx context.Context, model string, ids []int64, fields []string) ([]entity.FieldMap, error)

	// Create inserts one record and returns its id.
	Create(ctx context.Context, model string, fields entity.FieldMap) (int64, error)

	// Write updates the given fields on every id.
	Write(ctx context.Context, model string, ids []int64, fields entity.FieldMap) error

	// Execute invokes an arbitrary method on the model, used for the
	// default-value lookup and the tax recomputation trigger.
	Execute(ctx context.Context, model, method string, args ...any) (any, error)

	// ExecWorkflow sends a workflow signal to one record.
	ExecWorkflow(ctx context.Context, model, signal string, id int64) error
}

// Remote model names touched by the client.
const (
	modelInvoice     = "account.invoice"
	modelInvoiceLine = "account.invoice.line"
	modelInvoiceTax  = "account.invoice.tax"
	modelTax         = "account.tax"
	modelProduct     = "product.product"
	modelPartner     = "res.partner"
	modelAccount     = "account.account"
	modelAttachment  = "ir.attachment"
	modelValues      = "ir.values"
)
