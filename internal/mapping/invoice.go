package mapping

import (
	"context"
	"fmt"
	"html"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"scoro2clearbooks/internal/clearbooks"
	"scoro2clearbooks/internal/scoro"
)

// DefaultAccountCode is the "Other Income" ledger code used when an
// accounting-object name has no explicit mapping.
const DefaultAccountCode = "3001001"

// CreditTerms is the fixed credit terms value applied to every invoice
const CreditTerms = "30"

// maxReferenceLen is the ClearBooks limit on the reference field
const maxReferenceLen = 255

var hundred = decimal.NewFromInt(100)

// ProductLookup resolves product and accounting-object names from Scoro. The
// scoro.Client satisfies it with memoized remote lookups.
type ProductLookup interface {
	GetProduct(ctx context.Context, id int64) (scoro.Product, error)
	GetAccountingObject(ctx context.Context, id int64) (string, error)
}

// InvoiceMapper converts Scoro invoices to ClearBooks invoices
type InvoiceMapper struct {
	lookup ProductLookup
	logger *zap.Logger
}

// NewInvoiceMapper creates a new invoice mapper
func NewInvoiceMapper(lookup ProductLookup, logger *zap.Logger) *InvoiceMapper {
	return &InvoiceMapper{
		lookup: lookup,
		logger: logger,
	}
}

// Invoice converts a Scoro invoice to a ClearBooks invoice for the given
// customer. Account codes are resolved against the accountCodes snapshot taken
// at the start of the run; unresolved names fall back to DefaultAccountCode.
func (m *InvoiceMapper) Invoice(ctx context.Context, customerID string, inv *scoro.Invoice, accountCodes map[string]string) (clearbooks.Invoice, error) {
	out := clearbooks.Invoice{
		EntityID:      customerID,
		InvoiceNumber: inv.No,
		DateCreated:   inv.Date,
		DateDue:       inv.Deadline,
		Description:   CleanText(inv.Description),
		Reference:     html.EscapeString(truncate(CleanText(inv.ProjectCode), maxReferenceLen)),
		CreditTerms:   CreditTerms,
	}

	// An invoice with no lines is degenerate but valid
	itemTotal := decimal.Zero
	for _, line := range inv.Lines {
		if line.IsPlaceholder() {
			continue
		}

		product, err := m.lookup.GetProduct(ctx, line.ProductID.Int64())
		if err != nil {
			return clearbooks.Invoice{}, err
		}

		acctName := ""
		if line.FinanceObjectID == 0 {
			m.logger.Warn("Accounting object is not set",
				zap.String("invoice", inv.No),
				zap.String("comment", line.Comment))
		} else {
			acctName, err = m.lookup.GetAccountingObject(ctx, line.FinanceObjectID.Int64())
			if err != nil {
				return clearbooks.Invoice{}, err
			}
		}

		code, ok := accountCodes[acctName]
		if !ok {
			m.logger.Warn("No account code mapping, using default",
				zap.String("invoice", inv.No),
				zap.String("accounting_object", acctName),
				zap.String("default", DefaultAccountCode))
			code = DefaultAccountCode
		}

		out.Items = append(out.Items, clearbooks.LineItem{
			UnitPrice:   line.Price,
			Quantity:    line.Amount,
			Description: CleanText(product.Name),
			AccountCode: code,
			VATRate:     line.VAT.Div(hundred),
		})
		itemTotal = itemTotal.Add(line.Sum)
	}

	if len(inv.Lines) > 0 && inv.Discount.GreaterThan(decimal.Zero) {
		out.Items = append(out.Items, discountItem(inv.Discount, inv.Sum.Sub(itemTotal)))
	}

	return out, nil
}

// discountItem builds the synthetic line carrying an invoice-level discount
func discountItem(percent, amount decimal.Decimal) clearbooks.LineItem {
	return clearbooks.LineItem{
		UnitPrice:   amount,
		Quantity:    decimal.NewFromInt(1),
		Description: fmt.Sprintf("Discount %s%%", percent.String()),
		AccountCode: DefaultAccountCode,
		VATRate:     decimal.Zero,
	}
}
