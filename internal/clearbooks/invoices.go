package clearbooks

import (
	"context"
	"fmt"

	"github.com/beevik/etree"
	"go.uber.org/zap"
)

// CreateInvoice creates a sales invoice with its line items inlined and
// returns the acknowledgment. A reply without the createInvoiceReturn element
// is an error; invoice creation must never be assumed on silence.
func (c *Client) CreateInvoice(ctx context.Context, invoice Invoice) (*CreatedInvoice, error) {
	inv := etree.NewElement("invoice")
	inv.CreateAttr("entityId", invoice.EntityID)
	inv.CreateAttr("invoiceNumber", invoice.InvoiceNumber)
	inv.CreateAttr("dateCreated", invoice.DateCreated)
	inv.CreateAttr("dateDue", invoice.DateDue)
	inv.CreateAttr("creditTerms", invoice.CreditTerms)
	inv.CreateAttr("reference", invoice.Reference)
	inv.CreateElement("type").SetText("sales")
	inv.CreateElement("description").SetText(invoice.Description)

	items := inv.CreateElement("items")
	for _, item := range invoice.Items {
		el := items.CreateElement("cb:Item")
		el.CreateElement("unitPrice").SetText(item.UnitPrice.String())
		el.CreateElement("quantity").SetText(item.Quantity.String())
		el.CreateElement("type").SetText(item.AccountCode)
		el.CreateElement("vatRate").SetText(item.VATRate.String())
		el.CreateElement("description").SetText(item.Description)
	}

	wrap := etree.NewElement("cb:createInvoice")
	wrap.AddChild(inv)

	body, err := fragment(wrap)
	if err != nil {
		return nil, err
	}

	doc, err := c.post(ctx, "createInvoice", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice %s: %w", invoice.InvoiceNumber, err)
	}

	el := doc.FindElement("//createInvoiceReturn")
	if el == nil {
		return nil, fmt.Errorf("createInvoice reply for %s has no createInvoiceReturn element", invoice.InvoiceNumber)
	}

	created := &CreatedInvoice{
		InvoiceID:     el.SelectAttrValue("invoice_id", ""),
		InvoicePrefix: el.SelectAttrValue("invoice_prefix", ""),
		InvoiceNumber: el.SelectAttrValue("invoice_number", ""),
	}

	c.logger.Info("Created ClearBooks invoice",
		zap.String("invoice", invoice.InvoiceNumber),
		zap.String("clearbooks_id", created.InvoiceID),
		zap.String("clearbooks_no", created.InvoiceNumber))
	return created, nil
}

// ListInvoices returns the existing sales invoices from a date. Diagnostic
// only; the reconciliation path does not depend on it.
func (c *Client) ListInvoices(ctx context.Context, from string) ([]InvoiceSummary, error) {
	query := etree.NewElement("cb:listInvoices")
	q := query.CreateElement("query")
	q.CreateAttr("ledger", "sales")
	if from != "" {
		q.CreateAttr("from", from)
	}

	body, err := fragment(query)
	if err != nil {
		return nil, err
	}

	doc, err := c.post(ctx, "listInvoices", body)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	var invoices []InvoiceSummary
	for _, el := range doc.FindElements("//Invoice") {
		invoices = append(invoices, InvoiceSummary{
			EntityID:      el.SelectAttrValue("entityId", ""),
			InvoiceID:     el.SelectAttrValue("invoice_id", ""),
			InvoicePrefix: el.SelectAttrValue("invoice_prefix", ""),
			InvoiceNumber: el.SelectAttrValue("invoiceNumber", ""),
			DateCreated:   el.SelectAttrValue("dateCreated", ""),
			Reference:     el.SelectAttrValue("reference", ""),
			Status:        el.SelectAttrValue("status", ""),
			Gross:         el.SelectAttrValue("gross", ""),
			Net:           el.SelectAttrValue("net", ""),
			VAT:           el.SelectAttrValue("vat", ""),
		})
	}

	c.logger.Debug("Fetched ClearBooks invoices", zap.Int("count", len(invoices)))
	return invoices, nil
}
