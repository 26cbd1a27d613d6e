package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scoro2clearbooks/internal/clearbooks"
	"scoro2clearbooks/internal/scoro"
)

// MockSource mocks the SourceAPI interface
type MockSource struct {
	mock.Mock
}

func (m *MockSource) ListUnprocessedInvoices(ctx context.Context, from string) ([]scoro.Invoice, error) {
	args := m.Called(ctx, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]scoro.Invoice), args.Error(1)
}

func (m *MockSource) GetInvoice(ctx context.Context, id int64) (*scoro.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scoro.Invoice), args.Error(1)
}

func (m *MockSource) GetContact(ctx context.Context, id int64) (*scoro.Contact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scoro.Contact), args.Error(1)
}

func (m *MockSource) GetProject(ctx context.Context, id int64) (*scoro.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scoro.Project), args.Error(1)
}

func (m *MockSource) GetProduct(ctx context.Context, id int64) (scoro.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(scoro.Product), args.Error(1)
}

func (m *MockSource) GetAccountingObject(ctx context.Context, id int64) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockSource) ListAccountingObjects(ctx context.Context) (map[int64]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]string), args.Error(1)
}

func (m *MockSource) MarkInvoiceProcessed(ctx context.Context, inv *scoro.Invoice, clearBooksNo string) error {
	args := m.Called(ctx, inv, clearBooksNo)
	return args.Error(0)
}

// MockLedger mocks the LedgerAPI interface
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) ListCustomers(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockLedger) ListAccountCodes(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockLedger) CreateCustomer(ctx context.Context, customer clearbooks.Customer) (string, error) {
	args := m.Called(ctx, customer)
	return args.String(0), args.Error(1)
}

func (m *MockLedger) CreateInvoice(ctx context.Context, invoice clearbooks.Invoice) (*clearbooks.CreatedInvoice, error) {
	args := m.Called(ctx, invoice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clearbooks.CreatedInvoice), args.Error(1)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testInvoice(id int64, no string, companyID int64) *scoro.Invoice {
	return &scoro.Invoice{
		ID:        scoro.FlexInt(id),
		No:        no,
		CompanyID: scoro.FlexInt(companyID),
		Date:      "2020-01-15",
		Deadline:  "2020-02-14",
		Sum:       dec("100.00"),
		Lines: []scoro.Line{
			{ProductID: 10, FinanceObjectID: 5, Price: dec("100.00"), Amount: dec("1"), VAT: dec("20"), Sum: dec("100.00")},
		},
		Raw: map[string]interface{}{"id": float64(id)},
	}
}

func testContact(name string) *scoro.Contact {
	return &scoro.Contact{Name: name, ContactType: "company"}
}

func setupLookups(source *MockSource) {
	source.On("GetProduct", mock.Anything, int64(10)).Return(scoro.Product{Name: "Consulting"}, nil)
	source.On("GetAccountingObject", mock.Anything, int64(5)).Return("Professional Services", nil)
}

func TestRunner_SetupFailureAbortsRun(t *testing.T) {
	source := new(MockSource)
	ledger := new(MockLedger)

	ledger.On("ListCustomers", mock.Anything).Return(nil, errors.New("connection refused"))

	runner := NewRunner(source, ledger, "2016-09-01", zap.NewNop())
	errs, err := runner.Run(context.Background())

	require.Error(t, err)
	assert.Nil(t, errs)
	source.AssertNotCalled(t, "ListUnprocessedInvoices", mock.Anything, mock.Anything)
}

func TestRunner_ProcessesInvoiceEndToEnd(t *testing.T) {
	source := new(MockSource)
	ledger := new(MockLedger)

	ledger.On("ListCustomers", mock.Anything).Return(map[string]string{}, nil)
	ledger.On("ListAccountCodes", mock.Anything).Return(map[string]string{"Professional Services": "4001001"}, nil)
	source.On("ListAccountingObjects", mock.Anything).Return(map[int64]string{}, nil)

	inv := testInvoice(1, "4489", 100)
	source.On("ListUnprocessedInvoices", mock.Anything, "2016-09-01").Return([]scoro.Invoice{{ID: 1, No: "4489"}}, nil)
	source.On("GetInvoice", mock.Anything, int64(1)).Return(inv, nil)
	source.On("GetContact", mock.Anything, int64(100)).Return(testContact("Acme Widgets Ltd"), nil)
	setupLookups(source)

	ledger.On("CreateCustomer", mock.Anything, mock.Anything).Return("77", nil)
	ledger.On("CreateInvoice", mock.Anything, mock.MatchedBy(func(i clearbooks.Invoice) bool {
		return i.EntityID == "77" && i.InvoiceNumber == "4489" && len(i.Items) == 1
	})).Return(&clearbooks.CreatedInvoice{InvoiceID: "900", InvoiceNumber: "INV-900"}, nil)
	source.On("MarkInvoiceProcessed", mock.Anything, inv, "INV-900").Return(nil)

	runner := NewRunner(source, ledger, "2016-09-01", zap.NewNop())
	errs, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Empty(t, errs)
	source.AssertCalled(t, "MarkInvoiceProcessed", mock.Anything, inv, "INV-900")
}

func TestRunner_ErrorIsolation(t *testing.T) {
	source := new(MockSource)
	ledger := new(MockLedger)

	ledger.On("ListCustomers", mock.Anything).Return(map[string]string{"Acme Widgets Ltd": "77"}, nil)
	ledger.On("ListAccountCodes", mock.Anything).Return(map[string]string{}, nil)
	source.On("ListAccountingObjects", mock.Anything).Return(map[int64]string{}, nil)

	source.On("ListUnprocessedInvoices", mock.Anything, "2016-09-01").Return([]scoro.Invoice{
		{ID: 1, No: "4490"},
		{ID: 2, No: "4491"},
	}, nil)

	failing := testInvoice(1, "4490", 100)
	passing := testInvoice(2, "4491", 100)
	source.On("GetInvoice", mock.Anything, int64(1)).Return(failing, nil)
	source.On("GetInvoice", mock.Anything, int64(2)).Return(passing, nil)
	source.On("GetContact", mock.Anything, int64(100)).Return(testContact("Acme Widgets Ltd"), nil)
	setupLookups(source)

	ledger.On("CreateInvoice", mock.Anything, mock.MatchedBy(func(i clearbooks.Invoice) bool {
		return i.InvoiceNumber == "4490"
	})).Return(nil, errors.New("remote error: invoice rejected"))
	ledger.On("CreateInvoice", mock.Anything, mock.MatchedBy(func(i clearbooks.Invoice) bool {
		return i.InvoiceNumber == "4491"
	})).Return(&clearbooks.CreatedInvoice{InvoiceNumber: "INV-901"}, nil)
	source.On("MarkInvoiceProcessed", mock.Anything, passing, "INV-901").Return(nil)

	runner := NewRunner(source, ledger, "2016-09-01", zap.NewNop())
	errs, err := runner.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "4490", errs[0].Invoice)
	assert.Contains(t, errs[0].Message, "invoice rejected")

	// The failed invoice must not be marked processed
	source.AssertNotCalled(t, "MarkInvoiceProcessed", mock.Anything, failing, mock.Anything)
	source.AssertCalled(t, "MarkInvoiceProcessed", mock.Anything, passing, "INV-901")
}

func TestRunner_CustomerCreatedOnceAndReused(t *testing.T) {
	source := new(MockSource)
	ledger := new(MockLedger)

	ledger.On("ListCustomers", mock.Anything).Return(map[string]string{}, nil)
	ledger.On("ListAccountCodes", mock.Anything).Return(map[string]string{}, nil)
	source.On("ListAccountingObjects", mock.Anything).Return(map[int64]string{}, nil)

	source.On("ListUnprocessedInvoices", mock.Anything, "2016-09-01").Return([]scoro.Invoice{
		{ID: 1, No: "4489"},
		{ID: 2, No: "4490"},
	}, nil)

	first := testInvoice(1, "4489", 100)
	second := testInvoice(2, "4490", 100)
	source.On("GetInvoice", mock.Anything, int64(1)).Return(first, nil)
	source.On("GetInvoice", mock.Anything, int64(2)).Return(second, nil)
	source.On("GetContact", mock.Anything, int64(100)).Return(testContact("Acme Widgets Ltd"), nil)
	setupLookups(source)

	ledger.On("CreateCustomer", mock.Anything, mock.Anything).Return("77", nil).Once()
	ledger.On("CreateInvoice", mock.Anything, mock.Anything).Return(&clearbooks.CreatedInvoice{InvoiceNumber: "INV-1"}, nil)
	source.On("MarkInvoiceProcessed", mock.Anything, mock.Anything, "INV-1").Return(nil)

	runner := NewRunner(source, ledger, "2016-09-01", zap.NewNop())
	errs, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Empty(t, errs)
	ledger.AssertNumberOfCalls(t, "CreateCustomer", 1)
}

func TestRunner_UnescapesCustomerNameForLookup(t *testing.T) {
	source := new(MockSource)
	ledger := new(MockLedger)

	ledger.On("ListCustomers", mock.Anything).Return(map[string]string{"Smith & Sons": "88"}, nil)
	ledger.On("ListAccountCodes", mock.Anything).Return(map[string]string{}, nil)
	source.On("ListAccountingObjects", mock.Anything).Return(map[int64]string{}, nil)

	inv := testInvoice(1, "4489", 100)
	source.On("ListUnprocessedInvoices", mock.Anything, "2016-09-01").Return([]scoro.Invoice{{ID: 1, No: "4489"}}, nil)
	source.On("GetInvoice", mock.Anything, int64(1)).Return(inv, nil)
	source.On("GetContact", mock.Anything, int64(100)).Return(testContact("Smith &amp; Sons"), nil)
	setupLookups(source)

	ledger.On("CreateInvoice", mock.Anything, mock.MatchedBy(func(i clearbooks.Invoice) bool {
		return i.EntityID == "88"
	})).Return(&clearbooks.CreatedInvoice{InvoiceNumber: "INV-2"}, nil)
	source.On("MarkInvoiceProcessed", mock.Anything, inv, "INV-2").Return(nil)

	runner := NewRunner(source, ledger, "2016-09-01", zap.NewNop())
	errs, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Empty(t, errs)
	ledger.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
}

func TestRunner_ProjectFetchFailureIsNotFatal(t *testing.T) {
	source := new(MockSource)
	ledger := new(MockLedger)

	ledger.On("ListCustomers", mock.Anything).Return(map[string]string{"Acme Widgets Ltd": "77"}, nil)
	ledger.On("ListAccountCodes", mock.Anything).Return(map[string]string{}, nil)
	source.On("ListAccountingObjects", mock.Anything).Return(map[int64]string{}, nil)

	inv := testInvoice(1, "4489", 100)
	inv.ProjectID = 55
	source.On("ListUnprocessedInvoices", mock.Anything, "2016-09-01").Return([]scoro.Invoice{{ID: 1, No: "4489"}}, nil)
	source.On("GetInvoice", mock.Anything, int64(1)).Return(inv, nil)
	source.On("GetContact", mock.Anything, int64(100)).Return(testContact("Acme Widgets Ltd"), nil)
	source.On("GetProject", mock.Anything, int64(55)).Return(nil, errors.New("not found"))
	setupLookups(source)

	ledger.On("CreateInvoice", mock.Anything, mock.Anything).Return(&clearbooks.CreatedInvoice{InvoiceNumber: "INV-3"}, nil)
	source.On("MarkInvoiceProcessed", mock.Anything, inv, "INV-3").Return(nil)

	runner := NewRunner(source, ledger, "2016-09-01", zap.NewNop())
	errs, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Empty(t, inv.ProjectName)
}

func TestInvoiceError_String(t *testing.T) {
	e := InvoiceError{Invoice: "4490", Message: "remote error"}
	assert.Equal(t, "INV4490: remote error", e.String())
}
