package invoicing

import (
	"context"
	"time"

	"github.com/bizdesk/backend/internal/domain/invoicing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockInvoiceRepository is a mock implementation of invoicing.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByInvoiceNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*invoicing.Invoice, error) {
	args := m.Called(ctx, tenantID, invoiceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter invoicing.InvoiceFilter) ([]invoicing.Invoice, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]invoicing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *invoicing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *invoicing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter invoicing.InvoiceFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) ExistsByInvoiceNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (bool, error) {
	args := m.Called(ctx, tenantID, invoiceNumber)
	return args.Bool(0), args.Error(1)
}

// MockPaymentRepository is a mock implementation of invoicing.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Payment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]invoicing.Payment, error) {
	args := m.Called(ctx, tenantID, invoiceID)
	return args.Get(0).([]invoicing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter invoicing.PaymentFilter) ([]invoicing.Payment, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]invoicing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Save(ctx context.Context, payment *invoicing.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter invoicing.PaymentFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockNumberSequenceRepository is a mock implementation of invoicing.NumberSequenceRepository
type MockNumberSequenceRepository struct {
	mock.Mock
}

func (m *MockNumberSequenceRepository) ReserveNextNumber(ctx context.Context, tenantID uuid.UUID, period invoicing.Period) (int64, error) {
	args := m.Called(ctx, tenantID, period)
	return args.Get(0).(int64), args.Error(1)
}

// MockDashboardRepository is a mock implementation of invoicing.DashboardRepository
type MockDashboardRepository struct {
	mock.Mock
}

func (m *MockDashboardRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID) ([]invoicing.StatusCount, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]invoicing.StatusCount), args.Error(1)
}

func (m *MockDashboardRepository) SumRevenue(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockDashboardRepository) SumOutstanding(ctx context.Context, tenantID uuid.UUID, now time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, now)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockDashboardRepository) SumOverdue(ctx context.Context, tenantID uuid.UUID, now time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, now)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockDashboardRepository) FindRecent(ctx context.Context, tenantID uuid.UUID, limit int) ([]invoicing.Invoice, error) {
	args := m.Called(ctx, tenantID, limit)
	return args.Get(0).([]invoicing.Invoice), args.Error(1)
}

func (m *MockDashboardRepository) FindMostOverdue(ctx context.Context, tenantID uuid.UUID, now time.Time, limit int) ([]invoicing.Invoice, error) {
	args := m.Called(ctx, tenantID, now, limit)
	return args.Get(0).([]invoicing.Invoice), args.Error(1)
}

func (m *MockDashboardRepository) TopCustomers(ctx context.Context, tenantID uuid.UUID, limit int) ([]invoicing.CustomerTotal, error) {
	args := m.Called(ctx, tenantID, limit)
	return args.Get(0).([]invoicing.CustomerTotal), args.Error(1)
}

func (m *MockDashboardRepository) RevenueByMonth(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]invoicing.MonthlyRevenue, error) {
	args := m.Called(ctx, tenantID, since)
	return args.Get(0).([]invoicing.MonthlyRevenue), args.Error(1)
}

// newTestScope wires the mocks into a no-op transaction scope
func newTestScope(
	invoiceRepo *MockInvoiceRepository,
	paymentRepo *MockPaymentRepository,
	sequenceRepo *MockNumberSequenceRepository,
) *NoOpTransactionScope {
	return NewNoOpTransactionScope(invoiceRepo, paymentRepo, sequenceRepo)
}
