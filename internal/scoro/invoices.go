package scoro

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// CrossRefField is the custom field on Scoro invoices that stores the
// ClearBooks invoice number once the invoice has been transferred.
const CrossRefField = "c_clearbooksref"

// ListUnprocessedInvoices fetches the invoices that still need to be
// transferred: empty cross-reference field and issue date on or after from.
// Pages through the result set until a short or empty page is returned.
func (c *Client) ListUnprocessedInvoices(ctx context.Context, from string) ([]Invoice, error) {
	c.logger.Info("Fetching unprocessed invoices", zap.String("from", from))

	var invoices []Invoice
	for page := 1; ; page++ {
		options := map[string]interface{}{
			"filter": map[string]interface{}{
				"custom_fields": map[string]string{CrossRefField: ""},
				"date":          map[string]string{"from": from},
			},
			"page": page,
		}

		data, err := c.fetch(ctx, "invoices", "", 0, options)
		if err != nil {
			return nil, fmt.Errorf("failed to list invoices: %w", err)
		}

		var batch []Invoice
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, fmt.Errorf("failed to decode invoice list: %w", err)
		}

		invoices = append(invoices, batch...)
		if len(batch) < c.cfg.PerPage {
			break
		}
	}

	c.logger.Info("Found invoices", zap.Int("count", len(invoices)))
	return invoices, nil
}

// GetInvoice fetches a single invoice with its lines. The returned invoice
// keeps the raw payload for lossless write-back via MarkInvoiceProcessed.
func (c *Client) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	data, err := c.fetch(ctx, "invoices", "view", id, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch invoice %d: %w", id, err)
	}

	var inv Invoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("failed to decode invoice %d: %w", id, err)
	}
	if err := json.Unmarshal(data, &inv.Raw); err != nil {
		return nil, fmt.Errorf("failed to decode invoice %d payload: %w", id, err)
	}
	return &inv, nil
}

// MarkInvoiceProcessed writes the ClearBooks invoice number into the
// cross-reference custom field and submits a modify request. The deprecated
// finance_account_id attribute is stripped from every line so it is not
// round-tripped back into Scoro.
func (c *Client) MarkInvoiceProcessed(ctx context.Context, inv *Invoice, clearBooksNo string) error {
	if inv.Raw == nil {
		return fmt.Errorf("invoice %s has no raw payload to modify", inv.No)
	}

	if lines, ok := inv.Raw["lines"].([]interface{}); ok {
		for _, l := range lines {
			if line, ok := l.(map[string]interface{}); ok {
				delete(line, "finance_account_id")
			}
		}
	}

	fields, ok := inv.Raw["custom_fields"].(map[string]interface{})
	if !ok {
		fields = make(map[string]interface{})
		inv.Raw["custom_fields"] = fields
	}
	fields[CrossRefField] = clearBooksNo

	options := map[string]interface{}{"request": inv.Raw}
	if _, err := c.fetch(ctx, "invoices", "modify", inv.ID.Int64(), options); err != nil {
		return fmt.Errorf("failed to mark invoice %s processed: %w", inv.No, err)
	}

	c.logger.Info("Marked invoice processed",
		zap.String("invoice", inv.No),
		zap.String("clearbooks_no", clearBooksNo))
	return nil
}
