package invoicing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/alkivi-sas/go-odoo-client/internal/domain"
	"github.com/alkivi-sas/go-odoo-client/internal/domain/entity"
	"github.com/alkivi-sas/go-odoo-client/pkg/logger"
)

// Orchestrator drives the multi-step invoice creation workflow against
// the remote ERP: header, lines, tax recomputation, optional tax
// reconciliation, optional posting, optional attachment.
//
// There is no compensating rollback: a failure after the header exists
// leaves a draft invoice (and possibly a partial set of lines) behind
// on the remote side. Cleaning those up is an operator task.
type Orchestrator struct {
	gw  Gateway
	log *logger.Logger
}

// NewOrchestrator builds the orchestrator.
func NewOrchestrator(gw Gateway, log *logger.Logger) *Orchestrator {
	return &Orchestrator{gw: gw, log: log}
}

// CreateInvoiceInput is everything one invoice creation needs. Invoice
// and Lines are passed to the ERP as-is (validity is enforced
// remotely); Lines may carry vat_amount and invoice_line_tax_id, which
// the reconciliation engine reads when ExpectedTax is set.
type CreateInvoiceInput struct {
	Invoice     entity.FieldMap
	Lines       []entity.FieldMap
	Attachment  entity.FieldMap   // optional source document, created as ir.attachment
	State       string            // draft (default) or open
	ExpectedTax *decimal.Decimal  // expected total tax, enables reconciliation
}

// CreateInvoice creates the invoice and returns its remote id.
//
// When ExpectedTax is set the computed tax lines are reconciled against
// it (see reconcile.go); reconciliation may downgrade a requested open
// state back to draft when it cannot vouch for the amounts.
func (o *Orchestrator) CreateInvoice(ctx context.Context, in CreateInvoiceInput) (int64, error) {
	state := in.State
	if state == "" {
		state = entity.StateDraft
	}
	if len(in.Invoice) == 0 {
		return 0, fmt.Errorf("empty invoice fields: %w", domain.ErrInvalidInput)
	}
	if len(in.Lines) == 0 {
		return 0, fmt.Errorf("no invoice lines: %w", domain.ErrInvalidInput)
	}
	if !entity.ValidInvoiceState(state) {
		return 0, fmt.Errorf("state %q is not draft or open: %w", state, domain.ErrInvalidInput)
	}

	invoiceID, err := o.gw.Create(ctx, modelInvoice, in.Invoice)
	if err != nil {
		return 0, fmt.Errorf("create invoice: %w", err)
	}
	o.log.Debug().Int64("invoice_id", invoiceID).Msg("invoice header created")

	for i, line := range in.Lines {
		fields := line.Clone()
		fields["invoice_id"] = invoiceID
		lineID, err := o.gw.Create(ctx, modelInvoiceLine, fields)
		if err != nil {
			return 0, fmt.Errorf("create invoice line %d: %w", i, err)
		}
		o.log.Debug().Int64("invoice_id", invoiceID).Int64("line_id", lineID).
			Msg("invoice line created")
	}

	res, err := o.gw.Execute(ctx, modelInvoice, "button_reset_taxes", []int64{invoiceID})
	if err != nil {
		return 0, fmt.Errorf("recompute taxes: %w", err)
	}
	if !truthy(res) {
		return 0, fmt.Errorf("tax recomputation reported failure on invoice %d: %w",
			invoiceID, domain.ErrRemoteInvariant)
	}

	if in.ExpectedTax != nil {
		state, err = o.reconcileTaxes(ctx, invoiceID, in.Lines, *in.ExpectedTax, state)
		if err != nil {
			return 0, err
		}
	}

	if state == entity.StateOpen {
		o.log.Debug().Int64("invoice_id", invoiceID).Msg("opening invoice")
		if err := o.gw.ExecWorkflow(ctx, modelInvoice, "invoice_open", invoiceID); err != nil {
			return 0, fmt.Errorf("open invoice %d: %w", invoiceID, err)
		}
	}

	if len(in.Attachment) > 0 {
		if err := o.attach(ctx, invoiceID, in.Attachment); err != nil {
			return 0, err
		}
	}

	return invoiceID, nil
}

// attach re-reads the invoice for its canonical id and assigned number,
// then creates the ir.attachment pointing at it. res_name is only set
// once the ERP has numbered the invoice.
func (o *Orchestrator) attach(ctx context.Context, invoiceID int64, attachment entity.FieldMap) error {
	recs, err := o.gw.Read(ctx, modelInvoice, []int64{invoiceID}, []string{"number"})
	if err != nil {
		return fmt.Errorf("read invoice %d for attachment: %w", invoiceID, err)
	}
	if len(recs) == 0 {
		return fmt.Errorf("invoice %d vanished before attachment: %w",
			invoiceID, domain.ErrRemoteInvariant)
	}
	inv := entity.RecordRef{Model: modelInvoice, ID: invoiceID, Fields: recs[0]}

	fields := attachment.Clone()
	fields["res_id"] = invoiceID
	if number := inv.Str("number"); number != "" {
		fields["res_name"] = number
	}

	attachmentID, err := o.gw.Create(ctx, modelAttachment, fields)
	if err != nil {
		return fmt.Errorf("create attachment on invoice %d: %w", invoiceID, err)
	}
	o.log.Debug().Int64("invoice_id", invoiceID).Int64("attachment_id", attachmentID).
		Msg("document attached")
	return nil
}

// truthy mirrors the remote convention that an action confirms success
// with any non-empty, non-zero result.
func truthy(v any) bool {
	switch r := v.(type) {
	case nil:
		return false
	case bool:
		return r
	case string:
		return r != ""
	case int64:
		return r != 0
	case int:
		return r != 0
	case float64:
		return r != 0
	case []any:
		return len(r) > 0
	}
	return true
}
