package invoicing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/alkivi-sas/go-odoo-client/internal/domain"
	"github.com/alkivi-sas/go-odoo-client/internal/domain/entity"
)

// discrepancyThreshold separates a rounding artifact from a probable
// miscalculation. Both get corrected; only the logged severity differs,
// so monitoring can pick up systematic drift.
var discrepancyThreshold = decimal.RequireFromString("0.80")

// reconcileTaxes compares the tax lines the ERP computed with what the
// caller expects and corrects discrepancies in place.
//
// With a single tax line the expected total is authoritative. With
// several, a per-tax-code expectation is rebuilt from the line specs;
// when the specs do not carry enough data for that, the integrity check
// is skipped and a requested open state is forced back to draft —
// money correctness wins over the caller's workflow wish. The returned
// state is the possibly-downgraded one.
func (o *Orchestrator) reconcileTaxes(ctx context.Context, invoiceID int64,
	lines []entity.FieldMap, expectedTotal decimal.Decimal, state string) (string, error) {

	taxLines, err := o.readTaxLines(ctx, invoiceID)
	if err != nil {
		return state, err
	}
	if len(taxLines) == 0 {
		return state, fmt.Errorf("no tax lines on invoice %d after recomputation: %w",
			invoiceID, domain.ErrRemoteInvariant)
	}

	if len(taxLines) == 1 {
		return state, o.correctTaxLine(ctx, invoiceID, taxLines[0], expectedTotal)
	}

	expectedByCode, complete, err := o.expectedTaxByCode(ctx, lines)
	if err != nil {
		return state, err
	}
	if !complete {
		o.log.Info().Int64("invoice_id", invoiceID).
			Msg("multiple tax lines without complete vat data, skipping integrity check")
		if state != entity.StateDraft {
			o.log.Warn().Int64("invoice_id", invoiceID).Msg("forcing state draft")
			state = entity.StateDraft
		}
		return state, nil
	}

	for _, tl := range taxLines {
		if _, known := expectedByCode[tl.TaxCodeID]; !known {
			o.log.Warn().Int64("invoice_id", invoiceID).
				Int64("tax_code_id", tl.TaxCodeID).
				Msg("computed tax line carries an unexpected tax code, leaving all amounts untouched")
			return state, nil
		}
	}

	for _, tl := range taxLines {
		if err := o.correctTaxLine(ctx, invoiceID, tl, expectedByCode[tl.TaxCodeID]); err != nil {
			return state, err
		}
	}
	return state, nil
}

// expectedTaxByCode maps tax-code id to the vat_amount the caller put
// on each line. complete is false whenever any line lacks vat_amount,
// does not reference exactly one tax, or references a tax without a
// tax-code grouping — in all of those cases no per-code expectation can
// be trusted and reconciliation is abandoned wholesale.
//
// The map is keyed by tax code, so when two lines share a code the last
// one wins.
func (o *Orchestrator) expectedTaxByCode(ctx context.Context,
	lines []entity.FieldMap) (map[int64]decimal.Decimal, bool, error) {

	expected := make(map[int64]decimal.Decimal, len(lines))
	for i, line := range lines {
		raw, has := line["vat_amount"]
		if !has {
			return nil, false, nil
		}
		amount, ok := toDecimal(raw)
		if !ok {
			o.log.Debug().Int("line", i).Msg("vat_amount is not numeric")
			return nil, false, nil
		}

		taxIDs, ok := entity.CommandIDs(line["invoice_line_tax_id"])
		if !ok || len(taxIDs) != 1 {
			o.log.Debug().Int("line", i).
				Msg("line tax association is not a single tax")
			return nil, false, nil
		}

		recs, err := o.gw.Read(ctx, modelTax, []int64{taxIDs[0]}, []string{"tax_code_id"})
		if err != nil {
			return nil, false, err
		}
		if len(recs) == 0 {
			o.log.Warn().Int64("tax_id", taxIDs[0]).Msg("unable to read tax record")
			return nil, false, nil
		}
		tax := entity.RecordRef{Model: modelTax, ID: taxIDs[0], Fields: recs[0]}
		codeID, _, ok := tax.Many2One("tax_code_id")
		if !ok {
			o.log.Warn().Int64("tax_id", taxIDs[0]).Msg("tax has no tax code grouping")
			return nil, false, nil
		}
		expected[codeID] = amount
	}
	return expected, true, nil
}

// correctTaxLine overwrites the computed amount with the expected one
// when they differ. Discrepancies above the threshold log at warning
// level, routine rounding noise at info; neither blocks the correction.
func (o *Orchestrator) correctTaxLine(ctx context.Context, invoiceID int64,
	tl entity.TaxLine, expected decimal.Decimal) error {

	if tl.Amount.Equal(expected) {
		return nil
	}

	evt := o.log.Info()
	if tl.Amount.Sub(expected).Abs().GreaterThan(discrepancyThreshold) {
		evt = o.log.Warn()
	}
	evt.Int64("invoice_id", invoiceID).
		Int64("tax_line_id", tl.ID).
		Str("computed", tl.Amount.String()).
		Str("expected", expected.String()).
		Msg("correcting tax line amount")

	amount, _ := expected.Float64()
	if err := o.gw.Write(ctx, modelInvoiceTax, []int64{tl.ID},
		entity.FieldMap{"amount": amount}); err != nil {
		return fmt.Errorf("correct tax line %d: %w", tl.ID, err)
	}
	return nil
}

// readTaxLines follows the invoice's tax_line relation and snapshots
// each account.invoice.tax record.
func (o *Orchestrator) readTaxLines(ctx context.Context, invoiceID int64) ([]entity.TaxLine, error) {
	recs, err := o.gw.Read(ctx, modelInvoice, []int64{invoiceID}, []string{"tax_line"})
	if err != nil {
		return nil, fmt.Errorf("read invoice %d: %w", invoiceID, err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("invoice %d vanished after creation: %w",
			invoiceID, domain.ErrRemoteInvariant)
	}
	inv := entity.RecordRef{Model: modelInvoice, ID: invoiceID, Fields: recs[0]}

	ids := inv.RelIDs("tax_line")
	if len(ids) == 0 {
		return nil, nil
	}

	recs, err = o.gw.Read(ctx, modelInvoiceTax, ids, []string{"name", "amount", "tax_code_id"})
	if err != nil {
		return nil, fmt.Errorf("read tax lines of invoice %d: %w", invoiceID, err)
	}

	out := make([]entity.TaxLine, 0, len(recs))
	for _, fields := range recs {
		id, _ := entity.AsID(fields["id"])
		ref := entity.RecordRef{Model: modelInvoiceTax, ID: id, Fields: fields}
		codeID, _, _ := ref.Many2One("tax_code_id")
		out = append(out, entity.TaxLine{
			ID:        id,
			Name:      ref.Str("name"),
			TaxCodeID: codeID,
			Amount:    decimal.NewFromFloat(ref.Float("amount")),
		})
	}
	return out, nil
}

// toDecimal accepts the numeric shapes a caller-supplied vat_amount can
// arrive in, including decimal.Decimal itself.
func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case float64:
		return decimal.NewFromFloat(n), true
	case float32:
		return decimal.NewFromFloat32(n), true
	case int64:
		return decimal.NewFromInt(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case string:
		d, err := decimal.NewFromString(n)
		return d, err == nil
	}
	return decimal.Decimal{}, false
}
