package invoicing

import (
	"context"
	"testing"
	"time"

	"github.com/bizdesk/backend/internal/domain/invoicing"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/bizdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func mustMoney(amount float64) valueobject.Money {
	return valueobject.NewMoneyUSDFromFloat(amount)
}

func sentInvoice(t *testing.T, tenantID uuid.UUID) *invoicing.Invoice {
	t.Helper()
	inv := newDomainInvoice(t, tenantID)
	require.NoError(t, inv.Send())
	return inv
}

func paymentRequest(amount float64) RecordPaymentRequest {
	return RecordPaymentRequest{
		Amount:        decimal.NewFromFloat(amount),
		PaymentMethod: "bank_transfer",
		Reference:     "WIRE-1",
	}
}

func TestPaymentService_RecordPayment_Full(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	paymentRepo := new(MockPaymentRepository)
	svc := NewPaymentService(invoiceRepo, paymentRepo, newTestScope(invoiceRepo, paymentRepo, nil))

	tenantID := uuid.New()
	inv := sentInvoice(t, tenantID)

	invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, inv.ID).Return(inv, nil)
	invoiceRepo.On("SaveWithLock", mock.Anything, inv).Return(nil)
	paymentRepo.On("Save", mock.Anything, mock.AnythingOfType("*invoicing.Payment")).Return(nil)

	resp, err := svc.RecordPayment(context.Background(), tenantID, uuid.New(), inv.ID, paymentRequest(27.50))
	require.NoError(t, err)

	assert.Equal(t, inv.ID, resp.InvoiceID)
	assert.Equal(t, "27.5", resp.Amount.String())
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, invoicing.InvoiceStatusPaid, inv.Status)
	assert.True(t, inv.Balance.IsZero())
}

func TestPaymentService_RecordPayment_Partial(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	paymentRepo := new(MockPaymentRepository)
	svc := NewPaymentService(invoiceRepo, paymentRepo, newTestScope(invoiceRepo, paymentRepo, nil))

	tenantID := uuid.New()
	inv := sentInvoice(t, tenantID)

	invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, inv.ID).Return(inv, nil)
	invoiceRepo.On("SaveWithLock", mock.Anything, inv).Return(nil)
	paymentRepo.On("Save", mock.Anything, mock.AnythingOfType("*invoicing.Payment")).Return(nil)

	_, err := svc.RecordPayment(context.Background(), tenantID, uuid.New(), inv.ID, paymentRequest(10.00))
	require.NoError(t, err)

	assert.Equal(t, invoicing.InvoiceStatusPartiallyPaid, inv.Status)
	assert.Equal(t, "17.50", inv.Balance.StringFixed(2))
}

func TestPaymentService_RecordPayment_InvoiceNotFound(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	paymentRepo := new(MockPaymentRepository)
	svc := NewPaymentService(invoiceRepo, paymentRepo, newTestScope(invoiceRepo, paymentRepo, nil))

	tenantID := uuid.New()
	id := uuid.New()
	invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, id).Return(nil, nil)

	_, err := svc.RecordPayment(context.Background(), tenantID, uuid.New(), id, paymentRequest(10))
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestPaymentService_RecordPayment_InvalidMethod(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	paymentRepo := new(MockPaymentRepository)
	svc := NewPaymentService(invoiceRepo, paymentRepo, newTestScope(invoiceRepo, paymentRepo, nil))

	req := paymentRequest(10)
	req.PaymentMethod = "barter"

	_, err := svc.RecordPayment(context.Background(), uuid.New(), uuid.New(), uuid.New(), req)
	require.Error(t, err)
	invoiceRepo.AssertNotCalled(t, "FindByIDForTenant", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_RecordPayment_Overpayment(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	paymentRepo := new(MockPaymentRepository)
	svc := NewPaymentService(invoiceRepo, paymentRepo, newTestScope(invoiceRepo, paymentRepo, nil))

	tenantID := uuid.New()
	inv := sentInvoice(t, tenantID)

	invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, inv.ID).Return(inv, nil)

	_, err := svc.RecordPayment(context.Background(), tenantID, uuid.New(), inv.ID, paymentRequest(1000))
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "EXCEEDS_BALANCE", domainErr.Code)
	paymentRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPaymentService_RecordPayment_RetriesOnConflict(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	paymentRepo := new(MockPaymentRepository)
	svc := NewPaymentService(invoiceRepo, paymentRepo, newTestScope(invoiceRepo, paymentRepo, nil))

	tenantID := uuid.New()
	first := sentInvoice(t, tenantID)
	second := sentInvoice(t, tenantID)
	second.ID = first.ID

	// first attempt loses the version race, second succeeds with a fresh load
	invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, first.ID).Return(first, nil).Once()
	invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, first.ID).Return(second, nil).Once()
	invoiceRepo.On("SaveWithLock", mock.Anything, first).Return(shared.ErrConcurrencyConflict).Once()
	invoiceRepo.On("SaveWithLock", mock.Anything, second).Return(nil).Once()
	paymentRepo.On("Save", mock.Anything, mock.AnythingOfType("*invoicing.Payment")).Return(nil).Once()

	resp, err := svc.RecordPayment(context.Background(), tenantID, uuid.New(), first.ID, paymentRequest(10))
	require.NoError(t, err)
	assert.Equal(t, "10", resp.Amount.String())

	invoiceRepo.AssertExpectations(t)
	paymentRepo.AssertExpectations(t)
}

func TestPaymentService_RecordPayment_ConflictExhausted(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	paymentRepo := new(MockPaymentRepository)
	svc := NewPaymentService(invoiceRepo, paymentRepo, newTestScope(invoiceRepo, paymentRepo, nil))

	tenantID := uuid.New()

	invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, mock.Anything).
		Return(sentInvoice(t, tenantID), nil)
	invoiceRepo.On("SaveWithLock", mock.Anything, mock.Anything).Return(shared.ErrConcurrencyConflict)

	_, err := svc.RecordPayment(context.Background(), tenantID, uuid.New(), uuid.New(), paymentRequest(5))
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CONCURRENCY_CONFLICT", domainErr.Code)
	invoiceRepo.AssertNumberOfCalls(t, "SaveWithLock", 3)
}

func TestPaymentService_ListInvoicePayments(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	paymentRepo := new(MockPaymentRepository)
	svc := NewPaymentService(invoiceRepo, paymentRepo, newTestScope(invoiceRepo, paymentRepo, nil))

	tenantID := uuid.New()
	inv := sentInvoice(t, tenantID)
	require.NoError(t, inv.ApplyPayment(mustMoney(10)))

	payment, err := invoicing.NewPayment(tenantID, inv.ID, mustMoney(10), invoicing.PaymentMethodCash, inv.IssueDate, "", "")
	require.NoError(t, err)

	invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, inv.ID).Return(inv, nil)
	paymentRepo.On("FindByInvoice", mock.Anything, tenantID, inv.ID).Return([]invoicing.Payment{*payment}, nil)

	responses, err := svc.ListInvoicePayments(context.Background(), tenantID, inv.ID)
	require.NoError(t, err)
	assert.Len(t, responses, 1)
	assert.Equal(t, "cash", responses[0].PaymentMethod)
}

func TestPaymentService_ListInvoicePayments_InvoiceNotFound(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	paymentRepo := new(MockPaymentRepository)
	svc := NewPaymentService(invoiceRepo, paymentRepo, newTestScope(invoiceRepo, paymentRepo, nil))

	tenantID := uuid.New()
	id := uuid.New()
	invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, id).Return(nil, nil)

	_, err := svc.ListInvoicePayments(context.Background(), tenantID, id)
	require.Error(t, err)
}

func TestPaymentService_ListPayments(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	paymentRepo := new(MockPaymentRepository)
	svc := NewPaymentService(invoiceRepo, paymentRepo, newTestScope(invoiceRepo, paymentRepo, nil))

	tenantID := uuid.New()
	payment, err := invoicing.NewPayment(tenantID, uuid.New(), mustMoney(50), invoicing.PaymentMethodStripe, time.Now(), "", "")
	require.NoError(t, err)

	paymentRepo.On("FindAllForTenant", mock.Anything, tenantID, mock.Anything).Return([]invoicing.Payment{*payment}, nil)
	paymentRepo.On("CountForTenant", mock.Anything, tenantID, mock.Anything).Return(int64(1), nil)

	result, err := svc.ListPayments(context.Background(), tenantID, PaymentListFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
	assert.Equal(t, int64(1), result.Total)
	assert.Equal(t, 1, result.TotalPages)
}

func TestPaymentService_ListPayments_InvalidFilter(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	paymentRepo := new(MockPaymentRepository)
	svc := NewPaymentService(invoiceRepo, paymentRepo, newTestScope(invoiceRepo, paymentRepo, nil))

	_, err := svc.ListPayments(context.Background(), uuid.New(), PaymentListFilter{Method: "barter"})
	require.Error(t, err)

	_, err = svc.ListPayments(context.Background(), uuid.New(), PaymentListFilter{Status: "done"})
	require.Error(t, err)
}
