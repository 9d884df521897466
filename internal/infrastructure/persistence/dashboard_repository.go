package persistence

import (
	"context"
	"time"

	"github.com/bizdesk/backend/internal/domain/invoicing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormDashboardRepository implements the read-only dashboard queries.
// All methods tolerate read-committed snapshots; none mutates state.
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewGormDashboardRepository creates a new GormDashboardRepository
func NewGormDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

// CountByStatus returns invoice counts grouped by stored status
func (r *GormDashboardRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID) ([]invoicing.StatusCount, error) {
	var counts []invoicing.StatusCount
	if err := r.db.WithContext(ctx).
		Model(&invoicing.Invoice{}).
		Select("status, COUNT(*) as count").
		Where("tenant_id = ?", tenantID).
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	return counts, nil
}

// SumRevenue returns the sum of totals over paid invoices
func (r *GormDashboardRepository) SumRevenue(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	return r.sum(ctx, "COALESCE(SUM(total), 0)",
		"tenant_id = ? AND status = ?", tenantID, invoicing.InvoiceStatusPaid)
}

// SumOutstanding returns the sum of totals over sent and viewed invoices
// plus partially paid invoices that are past due
func (r *GormDashboardRepository) SumOutstanding(ctx context.Context, tenantID uuid.UUID, now time.Time) (decimal.Decimal, error) {
	return r.sum(ctx, "COALESCE(SUM(total), 0)",
		"tenant_id = ? AND (status IN ? OR (status = ? AND due_date < ?))",
		tenantID,
		[]invoicing.InvoiceStatus{invoicing.InvoiceStatusSent, invoicing.InvoiceStatusViewed},
		invoicing.InvoiceStatusPartiallyPaid, now)
}

// SumOverdue returns the sum of totals over unpaid invoices past due
func (r *GormDashboardRepository) SumOverdue(ctx context.Context, tenantID uuid.UUID, now time.Time) (decimal.Decimal, error) {
	return r.sum(ctx, "COALESCE(SUM(total), 0)",
		"tenant_id = ? AND due_date < ? AND status IN ?", tenantID, now, payableStatuses)
}

// FindRecent returns the most recently created invoices
func (r *GormDashboardRepository) FindRecent(ctx context.Context, tenantID uuid.UUID, limit int) ([]invoicing.Invoice, error) {
	var invoices []invoicing.Invoice
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Limit(limit).
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// FindMostOverdue returns unpaid past-due invoices ordered by due date ascending
func (r *GormDashboardRepository) FindMostOverdue(ctx context.Context, tenantID uuid.UUID, now time.Time, limit int) ([]invoicing.Invoice, error) {
	var invoices []invoicing.Invoice
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND due_date < ? AND status IN ?", tenantID, now, payableStatuses).
		Order("due_date ASC").
		Limit(limit).
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// TopCustomers returns customers ranked by summed invoice total
func (r *GormDashboardRepository) TopCustomers(ctx context.Context, tenantID uuid.UUID, limit int) ([]invoicing.CustomerTotal, error) {
	var totals []invoicing.CustomerTotal
	if err := r.db.WithContext(ctx).
		Model(&invoicing.Invoice{}).
		Select("customer_name, COUNT(*) as invoice_count, COALESCE(SUM(total), 0) as total_amount").
		Where("tenant_id = ?", tenantID).
		Group("customer_name").
		Order("total_amount DESC").
		Limit(limit).
		Scan(&totals).Error; err != nil {
		return nil, err
	}
	return totals, nil
}

// RevenueByMonth returns paid revenue grouped by calendar month of paid_at
func (r *GormDashboardRepository) RevenueByMonth(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]invoicing.MonthlyRevenue, error) {
	var revenues []invoicing.MonthlyRevenue
	if err := r.db.WithContext(ctx).
		Model(&invoicing.Invoice{}).
		Select("EXTRACT(YEAR FROM paid_at)::int as year, EXTRACT(MONTH FROM paid_at)::int as month, COALESCE(SUM(total), 0) as revenue").
		Where("tenant_id = ? AND status = ? AND paid_at >= ?", tenantID, invoicing.InvoiceStatusPaid, since).
		Group("year, month").
		Order("year ASC, month ASC").
		Scan(&revenues).Error; err != nil {
		return nil, err
	}
	return revenues, nil
}

func (r *GormDashboardRepository) sum(ctx context.Context, selectExpr string, where string, args ...interface{}) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&invoicing.Invoice{}).
		Select(selectExpr+" as total").
		Where(where, args...).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Ensure GormDashboardRepository implements DashboardRepository
var _ invoicing.DashboardRepository = (*GormDashboardRepository)(nil)
