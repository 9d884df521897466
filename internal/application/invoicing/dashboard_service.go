package invoicing

import (
	"context"
	"fmt"
	"time"

	"github.com/bizdesk/backend/internal/domain/invoicing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	dashboardListLimit    = 5
	trailingRevenueMonths = 6
)

// DashboardService builds read-only rollups over the tenant's ledger.
// It never mutates ledger state.
type DashboardService struct {
	dashboardRepo invoicing.DashboardRepository
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(dashboardRepo invoicing.DashboardRepository) *DashboardService {
	return &DashboardService{dashboardRepo: dashboardRepo}
}

// GetOverview assembles the dashboard report: counts by status, revenue
// and outstanding sums, the most recent and most overdue invoices, top
// customers, and the trailing six-month revenue series.
func (s *DashboardService) GetOverview(ctx context.Context, tenantID uuid.UUID) (*DashboardOverviewResponse, error) {
	now := time.Now()

	statusCounts, err := s.dashboardRepo.CountByStatus(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(statusCounts))
	var totalInvoices int64
	for _, sc := range statusCounts {
		counts[sc.Status.String()] = sc.Count
		totalInvoices += sc.Count
	}

	totalRevenue, err := s.dashboardRepo.SumRevenue(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	outstanding, err := s.dashboardRepo.SumOutstanding(ctx, tenantID, now)
	if err != nil {
		return nil, err
	}

	overdue, err := s.dashboardRepo.SumOverdue(ctx, tenantID, now)
	if err != nil {
		return nil, err
	}

	recent, err := s.dashboardRepo.FindRecent(ctx, tenantID, dashboardListLimit)
	if err != nil {
		return nil, err
	}

	mostOverdue, err := s.dashboardRepo.FindMostOverdue(ctx, tenantID, now, dashboardListLimit)
	if err != nil {
		return nil, err
	}

	topCustomers, err := s.dashboardRepo.TopCustomers(ctx, tenantID, dashboardListLimit)
	if err != nil {
		return nil, err
	}

	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(trailingRevenueMonths - 1), 0)
	monthly, err := s.dashboardRepo.RevenueByMonth(ctx, tenantID, since)
	if err != nil {
		return nil, err
	}

	return &DashboardOverviewResponse{
		StatusCounts:      counts,
		TotalInvoices:     totalInvoices,
		TotalRevenue:      totalRevenue,
		OutstandingAmount: outstanding,
		OverdueAmount:     overdue,
		RecentInvoices:    toSummaries(recent, now),
		OverdueInvoices:   toSummaries(mostOverdue, now),
		TopCustomers:      toTopCustomers(topCustomers),
		MonthlyRevenue:    fillTrailingMonths(monthly, since, now),
	}, nil
}

func toSummaries(invoices []invoicing.Invoice, now time.Time) []InvoiceSummaryResponse {
	summaries := make([]InvoiceSummaryResponse, len(invoices))
	for i := range invoices {
		summaries[i] = toInvoiceSummary(&invoices[i], now)
	}
	return summaries
}

func toTopCustomers(totals []invoicing.CustomerTotal) []TopCustomerResponse {
	responses := make([]TopCustomerResponse, len(totals))
	for i, ct := range totals {
		responses[i] = TopCustomerResponse{
			CustomerName: ct.CustomerName,
			InvoiceCount: ct.InvoiceCount,
			TotalAmount:  ct.TotalAmount,
		}
	}
	return responses
}

// fillTrailingMonths produces one entry per calendar month from since up
// to now, zero-filling months with no revenue
func fillTrailingMonths(monthly []invoicing.MonthlyRevenue, since, now time.Time) []MonthlyRevenueResponse {
	byKey := make(map[string]decimal.Decimal, len(monthly))
	for _, m := range monthly {
		byKey[fmt.Sprintf("%d-%02d", m.Year, m.Month)] = m.Revenue
	}

	series := make([]MonthlyRevenueResponse, 0, trailingRevenueMonths)
	for cursor := since; !cursor.After(now); cursor = cursor.AddDate(0, 1, 0) {
		key := fmt.Sprintf("%d-%02d", cursor.Year(), cursor.Month())
		revenue, ok := byKey[key]
		if !ok {
			revenue = decimal.Zero
		}
		series = append(series, MonthlyRevenueResponse{Month: key, Revenue: revenue})
	}
	return series
}
