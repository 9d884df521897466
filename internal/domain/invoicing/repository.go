package invoicing

import (
	"context"
	"time"

	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceFilter defines filtering options for invoice queries
type InvoiceFilter struct {
	shared.Filter
	Status     *InvoiceStatus   // Filter by stored status
	CustomerID *uuid.UUID       // Filter by customer
	DateFrom   *time.Time       // Filter by issue date range start
	DateTo     *time.Time       // Filter by issue date range end
	AmountFrom *decimal.Decimal // Filter by minimum total
	AmountTo   *decimal.Decimal // Filter by maximum total
	Overdue    *bool            // Filter only overdue invoices
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByIDForTenant finds an invoice by ID scoped to a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// FindByInvoiceNumber finds an invoice by its number for a tenant
	FindByInvoiceNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*Invoice, error)

	// FindAllForTenant finds all invoices for a tenant with filtering and pagination
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]Invoice, error)

	// Save creates or updates an invoice
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, invoice *Invoice) error

	// DeleteForTenant deletes an invoice for a tenant
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error

	// CountForTenant counts invoices for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) (int64, error)

	// ExistsByInvoiceNumber checks if an invoice number exists for a tenant
	ExistsByInvoiceNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (bool, error)
}

// PaymentFilter defines filtering options for payment queries
type PaymentFilter struct {
	shared.Filter
	InvoiceID *uuid.UUID     // Filter by invoice
	Method    *PaymentMethod // Filter by payment method
	Status    *PaymentStatus // Filter by payment status
	DateFrom  *time.Time     // Filter by payment date range start
	DateTo    *time.Time     // Filter by payment date range end
}

// PaymentRepository defines the interface for payment persistence.
// Payments are append-only: there is no update or delete.
type PaymentRepository interface {
	// FindByIDForTenant finds a payment by ID scoped to a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)

	// FindByInvoice finds all payments for an invoice in chronological order
	FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]Payment, error)

	// FindAllForTenant finds payments for a tenant with filtering and pagination
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter PaymentFilter) ([]Payment, error)

	// Save appends a payment entry
	Save(ctx context.Context, payment *Payment) error

	// CountForTenant counts payments for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter PaymentFilter) (int64, error)
}

// NumberSequenceRepository reserves invoice sequence numbers.
// ReserveNextNumber must be atomic: concurrent reservations for the same
// tenant and period always return distinct, monotonically increasing
// values. Gaps from rolled-back invoices are acceptable, duplicates are not.
type NumberSequenceRepository interface {
	ReserveNextNumber(ctx context.Context, tenantID uuid.UUID, period Period) (int64, error)
}

// StatusCount is a per-status invoice count
type StatusCount struct {
	Status InvoiceStatus `json:"status"`
	Count  int64         `json:"count"`
}

// CustomerTotal aggregates invoice totals per customer
type CustomerTotal struct {
	CustomerName string          `json:"customer_name"`
	InvoiceCount int64           `json:"invoice_count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// MonthlyRevenue is revenue recognized in one calendar month (by paid date)
type MonthlyRevenue struct {
	Year    int             `json:"year"`
	Month   time.Month      `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
}

// DashboardRepository defines the read-only aggregate queries backing the
// dashboard. No method mutates ledger state; reads tolerate slightly
// stale snapshots.
type DashboardRepository interface {
	// CountByStatus returns invoice counts grouped by stored status
	CountByStatus(ctx context.Context, tenantID uuid.UUID) ([]StatusCount, error)

	// SumRevenue returns the sum of totals over paid invoices
	SumRevenue(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error)

	// SumOutstanding returns the sum of totals over sent and viewed
	// invoices plus partially paid invoices that are past due
	SumOutstanding(ctx context.Context, tenantID uuid.UUID, now time.Time) (decimal.Decimal, error)

	// SumOverdue returns the sum of totals over unpaid invoices past due
	SumOverdue(ctx context.Context, tenantID uuid.UUID, now time.Time) (decimal.Decimal, error)

	// FindRecent returns the most recently created invoices
	FindRecent(ctx context.Context, tenantID uuid.UUID, limit int) ([]Invoice, error)

	// FindMostOverdue returns unpaid past-due invoices ordered by due date ascending
	FindMostOverdue(ctx context.Context, tenantID uuid.UUID, now time.Time, limit int) ([]Invoice, error)

	// TopCustomers returns customers ranked by summed invoice total
	TopCustomers(ctx context.Context, tenantID uuid.UUID, limit int) ([]CustomerTotal, error)

	// RevenueByMonth returns paid revenue grouped by calendar month of the
	// paid date, for months starting at since
	RevenueByMonth(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]MonthlyRevenue, error)
}
