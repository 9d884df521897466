package invoicing

import (
	"context"
	"testing"
	"time"

	"github.com/bizdesk/backend/internal/domain/invoicing"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testCreateRequest() CreateInvoiceRequest {
	issue := time.Now().UTC()
	return CreateInvoiceRequest{
		CustomerName: "Acme Corp",
		Items: []InvoiceItemInput{
			{Description: "Widget", Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
			{Description: "Gadget", Quantity: 1, UnitPrice: decimal.NewFromInt(5)},
		},
		TaxRate:   decimal.NewFromInt(10),
		Discount:  decimal.Zero,
		IssueDate: issue,
		DueDate:   issue.AddDate(0, 0, 30),
	}
}

func newDomainInvoice(t *testing.T, tenantID uuid.UUID) *invoicing.Invoice {
	t.Helper()
	req := testCreateRequest()
	inv, err := invoicing.NewInvoice(tenantID, "INV-202601-0001", req.CustomerName,
		toDomainItems(req.Items), req.TaxRate, req.Discount, req.IssueDate, req.DueDate)
	require.NoError(t, err)
	return inv
}

func TestInvoiceService_CreateInvoice(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	sequenceRepo := new(MockNumberSequenceRepository)
	svc := NewInvoiceService(invoiceRepo, newTestScope(invoiceRepo, nil, sequenceRepo))

	tenantID := uuid.New()
	userID := uuid.New()
	req := testCreateRequest()
	period := invoicing.PeriodOf(req.IssueDate)

	sequenceRepo.On("ReserveNextNumber", mock.Anything, tenantID, period).Return(int64(1), nil)
	invoiceRepo.On("Save", mock.Anything, mock.AnythingOfType("*invoicing.Invoice")).Return(nil)

	resp, err := svc.CreateInvoice(context.Background(), tenantID, userID, req)
	require.NoError(t, err)

	assert.Equal(t, invoicing.FormatInvoiceNumber(period, 1), resp.InvoiceNumber)
	assert.Equal(t, "draft", resp.Status)
	assert.Equal(t, "27.5", resp.Total.String())
	assert.Equal(t, "27.5", resp.Balance.String())

	sequenceRepo.AssertExpectations(t)
	invoiceRepo.AssertExpectations(t)
}

func TestInvoiceService_CreateInvoice_SequenceError(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	sequenceRepo := new(MockNumberSequenceRepository)
	svc := NewInvoiceService(invoiceRepo, newTestScope(invoiceRepo, nil, sequenceRepo))

	tenantID := uuid.New()
	sequenceRepo.On("ReserveNextNumber", mock.Anything, tenantID, mock.Anything).
		Return(int64(0), shared.NewDomainError("CONCURRENCY_CONFLICT", "contention"))

	_, err := svc.CreateInvoice(context.Background(), tenantID, uuid.New(), testCreateRequest())
	require.Error(t, err)
	invoiceRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestInvoiceService_CreateInvoice_InvalidItems(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	sequenceRepo := new(MockNumberSequenceRepository)
	svc := NewInvoiceService(invoiceRepo, newTestScope(invoiceRepo, nil, sequenceRepo))

	tenantID := uuid.New()
	sequenceRepo.On("ReserveNextNumber", mock.Anything, tenantID, mock.Anything).Return(int64(1), nil)

	req := testCreateRequest()
	req.Items = []InvoiceItemInput{{Description: "bad", Quantity: -1, UnitPrice: decimal.NewFromInt(1)}}

	_, err := svc.CreateInvoice(context.Background(), tenantID, uuid.New(), req)
	require.Error(t, err)
	invoiceRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestInvoiceService_GetInvoice(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	svc := NewInvoiceService(invoiceRepo, newTestScope(invoiceRepo, nil, nil))

	tenantID := uuid.New()
	inv := newDomainInvoice(t, tenantID)

	invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, inv.ID).Return(inv, nil)

	resp, err := svc.GetInvoice(context.Background(), tenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, resp.ID)
	assert.Equal(t, "Acme Corp", resp.CustomerName)
}

func TestInvoiceService_GetInvoice_NotFound(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	svc := NewInvoiceService(invoiceRepo, newTestScope(invoiceRepo, nil, nil))

	tenantID := uuid.New()
	id := uuid.New()
	invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, id).Return(nil, nil)

	_, err := svc.GetInvoice(context.Background(), tenantID, id)
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestInvoiceService_ListInvoices(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	svc := NewInvoiceService(invoiceRepo, newTestScope(invoiceRepo, nil, nil))

	tenantID := uuid.New()
	inv := newDomainInvoice(t, tenantID)

	invoiceRepo.On("FindAllForTenant", mock.Anything, tenantID, mock.Anything).Return([]invoicing.Invoice{*inv}, nil)
	invoiceRepo.On("CountForTenant", mock.Anything, tenantID, mock.Anything).Return(int64(1), nil)

	result, err := svc.ListInvoices(context.Background(), tenantID, InvoiceListFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
	assert.Equal(t, int64(1), result.Total)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 20, result.PageSize)
	assert.Equal(t, 1, result.TotalPages)
}

func TestInvoiceService_ListInvoices_DefaultPagination(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	svc := NewInvoiceService(invoiceRepo, newTestScope(invoiceRepo, nil, nil))

	tenantID := uuid.New()
	invoiceRepo.On("FindAllForTenant", mock.Anything, tenantID, mock.MatchedBy(func(f invoicing.InvoiceFilter) bool {
		return f.Page == 1 && f.PageSize == 20
	})).Return([]invoicing.Invoice{}, nil)
	invoiceRepo.On("CountForTenant", mock.Anything, tenantID, mock.Anything).Return(int64(0), nil)

	result, err := svc.ListInvoices(context.Background(), tenantID, InvoiceListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 20, result.PageSize)
	invoiceRepo.AssertExpectations(t)
}

func TestInvoiceService_ListInvoices_OverdueFilter(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	svc := NewInvoiceService(invoiceRepo, newTestScope(invoiceRepo, nil, nil))

	tenantID := uuid.New()
	invoiceRepo.On("FindAllForTenant", mock.Anything, tenantID, mock.MatchedBy(func(f invoicing.InvoiceFilter) bool {
		return f.Overdue != nil && *f.Overdue && f.Status == nil
	})).Return([]invoicing.Invoice{}, nil)
	invoiceRepo.On("CountForTenant", mock.Anything, tenantID, mock.Anything).Return(int64(0), nil)

	_, err := svc.ListInvoices(context.Background(), tenantID, InvoiceListFilter{Status: "overdue"})
	require.NoError(t, err)
	invoiceRepo.AssertExpectations(t)
}

func TestInvoiceService_ListInvoices_InvalidStatus(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	svc := NewInvoiceService(invoiceRepo, newTestScope(invoiceRepo, nil, nil))

	_, err := svc.ListInvoices(context.Background(), uuid.New(), InvoiceListFilter{Status: "bogus"})
	require.Error(t, err)
}

func TestInvoiceService_UpdateInvoice(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	svc := NewInvoiceService(invoiceRepo, newTestScope(invoiceRepo, nil, nil))

	tenantID := uuid.New()
	inv := newDomainInvoice(t, tenantID)

	invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, inv.ID).Return(inv, nil)
	invoiceRepo.On("SaveWithLock", mock.Anything, inv).Return(nil)

	req := UpdateInvoiceRequest{
		CustomerName: "New Name",
		Items: []InvoiceItemInput{
			{Description: "Service", Quantity: 4, UnitPrice: decimal.NewFromInt(25)},
		},
		TaxRate:   decimal.NewFromInt(5),
		Discount:  decimal.Zero,
		IssueDate: inv.IssueDate,
		DueDate:   inv.DueDate,
	}

	resp, err := svc.UpdateInvoice(context.Background(), tenantID, inv.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "New Name", resp.CustomerName)
	assert.Equal(t, "105", resp.Total.String())
}

func TestInvoiceService_UpdateInvoice_NotDraft(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	svc := NewInvoiceService(invoiceRepo, newTestScope(invoiceRepo, nil, nil))

	tenantID := uuid.New()
	inv := newDomainInvoice(t, tenantID)
	require.NoError(t, inv.Send())

	invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, inv.ID).Return(inv, nil)

	req := UpdateInvoiceRequest{
		CustomerName: "X",
		Items:        testCreateRequest().Items,
		IssueDate:    inv.IssueDate,
		DueDate:      inv.DueDate,
	}
	_, err := svc.UpdateInvoice(context.Background(), tenantID, inv.ID, req)
	require.Error(t, err)
	invoiceRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestInvoiceService_DeleteInvoice(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	svc := NewInvoiceService(invoiceRepo, newTestScope(invoiceRepo, nil, nil))

	tenantID := uuid.New()
	inv := newDomainInvoice(t, tenantID)

	invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, inv.ID).Return(inv, nil)
	invoiceRepo.On("DeleteForTenant", mock.Anything, tenantID, inv.ID).Return(nil)

	err := svc.DeleteInvoice(context.Background(), tenantID, inv.ID)
	require.NoError(t, err)
	invoiceRepo.AssertExpectations(t)
}

func TestInvoiceService_DeleteInvoice_NotDraft(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	svc := NewInvoiceService(invoiceRepo, newTestScope(invoiceRepo, nil, nil))

	tenantID := uuid.New()
	inv := newDomainInvoice(t, tenantID)
	require.NoError(t, inv.Send())

	invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, inv.ID).Return(inv, nil)

	err := svc.DeleteInvoice(context.Background(), tenantID, inv.ID)
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
	invoiceRepo.AssertNotCalled(t, "DeleteForTenant", mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoiceService_SendInvoice(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	svc := NewInvoiceService(invoiceRepo, newTestScope(invoiceRepo, nil, nil))

	tenantID := uuid.New()
	inv := newDomainInvoice(t, tenantID)

	invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, inv.ID).Return(inv, nil)
	invoiceRepo.On("SaveWithLock", mock.Anything, inv).Return(nil)

	resp, err := svc.SendInvoice(context.Background(), tenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "sent", resp.Status)
	assert.NotNil(t, resp.SentAt)
}

func TestInvoiceService_SendInvoice_AlreadySent(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	svc := NewInvoiceService(invoiceRepo, newTestScope(invoiceRepo, nil, nil))

	tenantID := uuid.New()
	inv := newDomainInvoice(t, tenantID)
	require.NoError(t, inv.Send())

	invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, inv.ID).Return(inv, nil)

	_, err := svc.SendInvoice(context.Background(), tenantID, inv.ID)
	require.Error(t, err)
	invoiceRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestInvoiceService_MarkInvoicePaid(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	svc := NewInvoiceService(invoiceRepo, newTestScope(invoiceRepo, nil, nil))

	tenantID := uuid.New()
	inv := newDomainInvoice(t, tenantID)
	require.NoError(t, inv.Send())

	invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, inv.ID).Return(inv, nil)
	invoiceRepo.On("SaveWithLock", mock.Anything, inv).Return(nil)

	resp, err := svc.MarkInvoicePaid(context.Background(), tenantID, inv.ID)
	require.NoError(t, err)

	assert.Equal(t, "paid", resp.Status)
	assert.True(t, resp.TotalPaid.Equal(resp.Total))
	assert.True(t, resp.Balance.IsZero())
}

func TestInvoiceService_MarkInvoiceViewed(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	svc := NewInvoiceService(invoiceRepo, newTestScope(invoiceRepo, nil, nil))

	tenantID := uuid.New()
	inv := newDomainInvoice(t, tenantID)
	require.NoError(t, inv.Send())

	invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, inv.ID).Return(inv, nil)
	invoiceRepo.On("SaveWithLock", mock.Anything, inv).Return(nil)

	resp, err := svc.MarkInvoiceViewed(context.Background(), tenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "viewed", resp.Status)
	assert.NotNil(t, resp.ViewedAt)
}
