package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	invoicingapp "github.com/bizdesk/backend/internal/application/invoicing"
	"github.com/bizdesk/backend/internal/domain/invoicing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockDashboardRepository struct {
	statusCounts []invoicing.StatusCount
	revenue      decimal.Decimal
	outstanding  decimal.Decimal
	overdue      decimal.Decimal
	recent       []invoicing.Invoice
	mostOverdue  []invoicing.Invoice
	topCustomers []invoicing.CustomerTotal
	monthly      []invoicing.MonthlyRevenue
	returnErr    error
}

func (m *mockDashboardRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID) ([]invoicing.StatusCount, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	return m.statusCounts, nil
}

func (m *mockDashboardRepository) SumRevenue(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	return m.revenue, m.returnErr
}

func (m *mockDashboardRepository) SumOutstanding(ctx context.Context, tenantID uuid.UUID, now time.Time) (decimal.Decimal, error) {
	return m.outstanding, m.returnErr
}

func (m *mockDashboardRepository) SumOverdue(ctx context.Context, tenantID uuid.UUID, now time.Time) (decimal.Decimal, error) {
	return m.overdue, m.returnErr
}

func (m *mockDashboardRepository) FindRecent(ctx context.Context, tenantID uuid.UUID, limit int) ([]invoicing.Invoice, error) {
	return m.recent, m.returnErr
}

func (m *mockDashboardRepository) FindMostOverdue(ctx context.Context, tenantID uuid.UUID, now time.Time, limit int) ([]invoicing.Invoice, error) {
	return m.mostOverdue, m.returnErr
}

func (m *mockDashboardRepository) TopCustomers(ctx context.Context, tenantID uuid.UUID, limit int) ([]invoicing.CustomerTotal, error) {
	return m.topCustomers, m.returnErr
}

func (m *mockDashboardRepository) RevenueByMonth(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]invoicing.MonthlyRevenue, error) {
	return m.monthly, m.returnErr
}

func setupDashboardTestHandler(repo *mockDashboardRepository) *DashboardHandler {
	gin.SetMode(gin.TestMode)
	return NewDashboardHandler(invoicingapp.NewDashboardService(repo))
}

func TestDashboardHandler_Overview_Success(t *testing.T) {
	tenantID := uuid.New()
	now := time.Now()

	repo := &mockDashboardRepository{
		statusCounts: []invoicing.StatusCount{
			{Status: invoicing.InvoiceStatusDraft, Count: 2},
			{Status: invoicing.InvoiceStatusSent, Count: 3},
			{Status: invoicing.InvoiceStatusPaid, Count: 5},
		},
		revenue:     decimal.NewFromInt(5500),
		outstanding: decimal.NewFromInt(3300),
		overdue:     decimal.NewFromInt(1100),
		recent:      []invoicing.Invoice{*createTestInvoice(t, tenantID)},
		topCustomers: []invoicing.CustomerTotal{
			{CustomerName: "Acme Corp", InvoiceCount: 10, TotalAmount: decimal.NewFromInt(5500)},
		},
		monthly: []invoicing.MonthlyRevenue{
			{Year: now.Year(), Month: now.Month(), Revenue: decimal.NewFromInt(5500)},
		},
	}
	handler := setupDashboardTestHandler(repo)

	c, w := newTestContext(t, http.MethodGet, "/dashboard/overview", nil, tenantID)
	handler.Overview(c)

	assert.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(10), data["total_invoices"])
	assert.Equal(t, "5500", data["total_revenue"])
	assert.Equal(t, "3300", data["outstanding_amount"])
	assert.Equal(t, "1100", data["overdue_amount"])

	counts, ok := data["status_counts"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(3), counts["sent"])

	months, ok := data["monthly_revenue"].([]any)
	require.True(t, ok)
	assert.Len(t, months, 6)

	last := months[len(months)-1].(map[string]any)
	assert.Equal(t, "5500", last["revenue"])
}

func TestDashboardHandler_Overview_Empty(t *testing.T) {
	repo := &mockDashboardRepository{}
	handler := setupDashboardTestHandler(repo)
	tenantID := uuid.New()

	c, w := newTestContext(t, http.MethodGet, "/dashboard/overview", nil, tenantID)
	handler.Overview(c)

	assert.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(0), data["total_invoices"])
	assert.Equal(t, "0", data["total_revenue"])

	months := data["monthly_revenue"].([]any)
	assert.Len(t, months, 6)
	for _, m := range months {
		assert.Equal(t, "0", m.(map[string]any)["revenue"])
	}
}

func TestDashboardHandler_Overview_MissingTenant(t *testing.T) {
	handler := setupDashboardTestHandler(&mockDashboardRepository{})

	c, w := newTestContext(t, http.MethodGet, "/dashboard/overview", nil, uuid.Nil)
	handler.Overview(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
