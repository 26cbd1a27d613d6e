package sync

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"scoro2clearbooks/internal/clearbooks"
	"scoro2clearbooks/internal/mapping"
	"scoro2clearbooks/internal/scoro"
)

// SourceAPI is the slice of the Scoro client the runner depends on
type SourceAPI interface {
	ListUnprocessedInvoices(ctx context.Context, from string) ([]scoro.Invoice, error)
	GetInvoice(ctx context.Context, id int64) (*scoro.Invoice, error)
	GetContact(ctx context.Context, id int64) (*scoro.Contact, error)
	GetProject(ctx context.Context, id int64) (*scoro.Project, error)
	GetProduct(ctx context.Context, id int64) (scoro.Product, error)
	GetAccountingObject(ctx context.Context, id int64) (string, error)
	ListAccountingObjects(ctx context.Context) (map[int64]string, error)
	MarkInvoiceProcessed(ctx context.Context, inv *scoro.Invoice, clearBooksNo string) error
}

// LedgerAPI is the slice of the ClearBooks client the runner depends on
type LedgerAPI interface {
	ListCustomers(ctx context.Context) (map[string]string, error)
	ListAccountCodes(ctx context.Context) (map[string]string, error)
	CreateCustomer(ctx context.Context, customer clearbooks.Customer) (string, error)
	CreateInvoice(ctx context.Context, invoice clearbooks.Invoice) (*clearbooks.CreatedInvoice, error)
}

// InvoiceError records the failure of one invoice during a run
type InvoiceError struct {
	Invoice string
	Message string
}

// String formats the error the way the sync report displays it
func (e InvoiceError) String() string {
	return fmt.Sprintf("INV%s: %s", e.Invoice, e.Message)
}

// Runner drives one reconciliation pass from Scoro to ClearBooks. Runs are
// strictly sequential; the caches it builds are scoped to a single Run call
// and must not be shared across goroutines.
type Runner struct {
	source   SourceAPI
	ledger   LedgerAPI
	mapper   *mapping.InvoiceMapper
	fromDate string
	logger   *zap.Logger
}

// NewRunner creates a new reconciliation runner. fromDate is the floor issue
// date for invoices to pick up.
func NewRunner(source SourceAPI, ledger LedgerAPI, fromDate string, logger *zap.Logger) *Runner {
	return &Runner{
		source:   source,
		ledger:   ledger,
		mapper:   mapping.NewInvoiceMapper(source, logger),
		fromDate: fromDate,
		logger:   logger,
	}
}

// Run processes every unprocessed Scoro invoice. A failure while processing
// one invoice is recorded and the run continues; a failure during setup aborts
// the whole run, since without the lookup tables every invoice would fail.
func (r *Runner) Run(ctx context.Context) ([]InvoiceError, error) {
	customers, err := r.ledger.ListCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer table: %w", err)
	}

	accountCodes, err := r.ledger.ListAccountCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load account code table: %w", err)
	}

	if _, err := r.source.ListAccountingObjects(ctx); err != nil {
		return nil, fmt.Errorf("failed to warm accounting object cache: %w", err)
	}

	invoices, err := r.source.ListUnprocessedInvoices(ctx, r.fromDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list unprocessed invoices: %w", err)
	}

	var errs []InvoiceError
	for _, inv := range invoices {
		if err := r.processInvoice(ctx, inv, customers, accountCodes); err != nil {
			r.logger.Error("Failed to process invoice",
				zap.String("invoice", inv.No),
				zap.Error(err))
			errs = append(errs, InvoiceError{Invoice: inv.No, Message: err.Error()})
		}
	}

	r.logger.Info("Sync run finished",
		zap.Int("invoices", len(invoices)),
		zap.Int("errors", len(errs)))
	return errs, nil
}

// processInvoice pushes one invoice through the fetch, customer resolution,
// mapping, creation and write-back steps.
func (r *Runner) processInvoice(ctx context.Context, summary scoro.Invoice, customers, accountCodes map[string]string) error {
	invoice, err := r.source.GetInvoice(ctx, summary.ID.Int64())
	if err != nil {
		return err
	}

	contact, err := r.source.GetContact(ctx, invoice.CompanyID.Int64())
	if err != nil {
		return err
	}

	customerID, err := r.resolveCustomer(ctx, contact, customers)
	if err != nil {
		return err
	}

	// The project description is context only; absence or fetch failure leaves
	// it empty rather than failing the invoice
	if invoice.ProjectID != 0 {
		project, err := r.source.GetProject(ctx, invoice.ProjectID.Int64())
		if err != nil {
			r.logger.Warn("Failed to fetch project",
				zap.String("invoice", invoice.No),
				zap.Int64("project_id", invoice.ProjectID.Int64()),
				zap.Error(err))
		} else {
			invoice.ProjectName = project.Description
		}
	}

	cbInvoice, err := r.mapper.Invoice(ctx, customerID, invoice, accountCodes)
	if err != nil {
		return err
	}

	created, err := r.ledger.CreateInvoice(ctx, cbInvoice)
	if err != nil {
		return err
	}

	// Write-back is the durable processed marker; it must only happen after
	// ClearBooks has acknowledged the invoice
	return r.source.MarkInvoiceProcessed(ctx, invoice, created.InvoiceNumber)
}

// resolveCustomer looks the contact up by display name in the cached customer
// table, creating it in ClearBooks on a miss. New ids are inserted into the
// table so later invoices for the same customer reuse them.
func (r *Runner) resolveCustomer(ctx context.Context, contact *scoro.Contact, customers map[string]string) (string, error) {
	name := strings.ReplaceAll(contact.Name, "&amp;", "&")
	if id, ok := customers[name]; ok && id != "" {
		return id, nil
	}

	customer, err := mapping.Customer(contact)
	if err != nil {
		return "", err
	}

	id, err := r.ledger.CreateCustomer(ctx, customer)
	if err != nil {
		return "", err
	}

	customers[name] = id
	return id, nil
}
