package clearbooks

import "github.com/shopspring/decimal"

// Customer is the entity payload sent to the createEntity call
type Customer struct {
	CompanyName string
	ContactName string
	Building    string
	Address1    string
	Address2    string
	Town        string
	County      string
	Country     string // two-letter ISO code
	Postcode    string
	Email       string
	Phone1      string
	Phone2      string
	Fax         string
	Website     string
	ExternalID  string
}

// LineItem is a single invoice line in a createInvoice call. AccountCode maps
// to the API's item "type" attribute.
type LineItem struct {
	UnitPrice   decimal.Decimal
	Quantity    decimal.Decimal
	Description string
	AccountCode string
	VATRate     decimal.Decimal
}

// Invoice is the payload sent to the createInvoice call
type Invoice struct {
	EntityID      string
	InvoiceNumber string
	DateCreated   string
	DateDue       string
	Description   string
	Reference     string
	CreditTerms   string
	Items         []LineItem
}

// CreatedInvoice is the acknowledgment returned by createInvoice
type CreatedInvoice struct {
	InvoiceID     string
	InvoicePrefix string
	InvoiceNumber string
}

// InvoiceSummary is one row of a listInvoices reply, used for diagnostics
type InvoiceSummary struct {
	EntityID      string
	InvoiceID     string
	InvoicePrefix string
	InvoiceNumber string
	DateCreated   string
	Reference     string
	Status        string
	Gross         string
	Net           string
	VAT           string
}
