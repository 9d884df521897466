package invoicing

import (
	"time"

	"github.com/bizdesk/backend/internal/domain/invoicing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Invoice DTOs ====================

// InvoiceItemInput represents a line item in create/update requests
type InvoiceItemInput struct {
	Description string          `json:"description" binding:"required,min=1,max=500"`
	Quantity    int64           `json:"quantity" binding:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
}

// CreateInvoiceRequest represents a request to create a draft invoice
type CreateInvoiceRequest struct {
	CustomerID      *uuid.UUID         `json:"customer_id"`
	CustomerName    string             `json:"customer_name" binding:"required,min=1,max=200"`
	CustomerEmail   string             `json:"customer_email" binding:"omitempty,email"`
	BillingAddress  string             `json:"billing_address"`
	ShippingAddress string             `json:"shipping_address"`
	Items           []InvoiceItemInput `json:"items" binding:"required,min=1,dive"`
	TaxRate         decimal.Decimal    `json:"tax_rate"`
	Discount        decimal.Decimal    `json:"discount"`
	IssueDate       time.Time          `json:"issue_date" binding:"required"`
	DueDate         time.Time          `json:"due_date" binding:"required"`
	PaymentTerms    string             `json:"payment_terms"`
	Currency        string             `json:"currency"`
	Notes           string             `json:"notes"`
	Terms           string             `json:"terms"`
	OpportunityID   *uuid.UUID         `json:"opportunity_id"`
	QuoteID         *uuid.UUID         `json:"quote_id"`
	ProjectID       *uuid.UUID         `json:"project_id"`
}

// UpdateInvoiceRequest represents a full update of a draft invoice
type UpdateInvoiceRequest struct {
	CustomerID      *uuid.UUID         `json:"customer_id"`
	CustomerName    string             `json:"customer_name" binding:"required,min=1,max=200"`
	CustomerEmail   string             `json:"customer_email" binding:"omitempty,email"`
	BillingAddress  string             `json:"billing_address"`
	ShippingAddress string             `json:"shipping_address"`
	Items           []InvoiceItemInput `json:"items" binding:"required,min=1,dive"`
	TaxRate         decimal.Decimal    `json:"tax_rate"`
	Discount        decimal.Decimal    `json:"discount"`
	IssueDate       time.Time          `json:"issue_date" binding:"required"`
	DueDate         time.Time          `json:"due_date" binding:"required"`
	PaymentTerms    string             `json:"payment_terms"`
	Notes           string             `json:"notes"`
	Terms           string             `json:"terms"`
}

// InvoiceItemResponse represents a line item in API responses
type InvoiceItemResponse struct {
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID              uuid.UUID             `json:"id"`
	InvoiceNumber   string                `json:"invoice_number"`
	CustomerID      *uuid.UUID            `json:"customer_id,omitempty"`
	CustomerName    string                `json:"customer_name"`
	CustomerEmail   string                `json:"customer_email,omitempty"`
	BillingAddress  string                `json:"billing_address,omitempty"`
	ShippingAddress string                `json:"shipping_address,omitempty"`
	IssueDate       time.Time             `json:"issue_date"`
	DueDate         time.Time             `json:"due_date"`
	PaymentTerms    string                `json:"payment_terms,omitempty"`
	Currency        string                `json:"currency"`
	Items           []InvoiceItemResponse `json:"items"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	TaxRate         decimal.Decimal       `json:"tax_rate"`
	TaxAmount       decimal.Decimal       `json:"tax_amount"`
	DiscountRate    decimal.Decimal       `json:"discount_rate"`
	DiscountAmount  decimal.Decimal       `json:"discount_amount"`
	Total           decimal.Decimal       `json:"total"`
	TotalPaid       decimal.Decimal       `json:"total_paid"`
	Balance         decimal.Decimal       `json:"balance"`
	Status          string                `json:"status"`
	Notes           string                `json:"notes,omitempty"`
	Terms           string                `json:"terms,omitempty"`
	OpportunityID   *uuid.UUID            `json:"opportunity_id,omitempty"`
	QuoteID         *uuid.UUID            `json:"quote_id,omitempty"`
	ProjectID       *uuid.UUID            `json:"project_id,omitempty"`
	SentAt          *time.Time            `json:"sent_at,omitempty"`
	ViewedAt        *time.Time            `json:"viewed_at,omitempty"`
	PaidAt          *time.Time            `json:"paid_at,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
	Version         int                   `json:"version"`
}

// InvoiceListFilter defines filtering options for invoice list queries
type InvoiceListFilter struct {
	Status     string           `form:"status"`
	CustomerID *uuid.UUID       `form:"customer_id"`
	DateFrom   *time.Time       `form:"date_from" time_format:"2006-01-02"`
	DateTo     *time.Time       `form:"date_to" time_format:"2006-01-02"`
	AmountFrom *decimal.Decimal `form:"amount_from"`
	AmountTo   *decimal.Decimal `form:"amount_to"`
	Search     string           `form:"search"`
	Page       int              `form:"page"`
	PageSize   int              `form:"limit"`
}

// ToInvoiceResponse converts a domain invoice to its API representation.
// The status shown is the display status, which reports overdue for
// unpaid invoices past their due date.
func ToInvoiceResponse(inv *invoicing.Invoice) *InvoiceResponse {
	items := make([]InvoiceItemResponse, len(inv.Items))
	for i, item := range inv.Items {
		items[i] = InvoiceItemResponse{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		}
	}

	return &InvoiceResponse{
		ID:              inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		CustomerID:      inv.CustomerID,
		CustomerName:    inv.CustomerName,
		CustomerEmail:   inv.CustomerEmail,
		BillingAddress:  inv.BillingAddress,
		ShippingAddress: inv.ShippingAddress,
		IssueDate:       inv.IssueDate,
		DueDate:         inv.DueDate,
		PaymentTerms:    inv.PaymentTerms,
		Currency:        inv.Currency,
		Items:           items,
		Subtotal:        inv.Subtotal,
		TaxRate:         inv.TaxRate,
		TaxAmount:       inv.TaxAmount,
		DiscountRate:    inv.DiscountRate,
		DiscountAmount:  inv.DiscountAmount,
		Total:           inv.Total,
		TotalPaid:       inv.TotalPaid,
		Balance:         inv.Balance,
		Status:          inv.DisplayStatus(time.Now()),
		Notes:           inv.Notes,
		Terms:           inv.Terms,
		OpportunityID:   inv.OpportunityID,
		QuoteID:         inv.QuoteID,
		ProjectID:       inv.ProjectID,
		SentAt:          inv.SentAt,
		ViewedAt:        inv.ViewedAt,
		PaidAt:          inv.PaidAt,
		CreatedAt:       inv.CreatedAt,
		UpdatedAt:       inv.UpdatedAt,
		Version:         inv.Version,
	}
}

func toDomainItems(inputs []InvoiceItemInput) invoicing.InvoiceItems {
	items := make(invoicing.InvoiceItems, len(inputs))
	for i, input := range inputs {
		items[i] = invoicing.InvoiceItem{
			Description: input.Description,
			Quantity:    input.Quantity,
			UnitPrice:   input.UnitPrice,
		}
	}
	return items
}

// ==================== Payment DTOs ====================

// RecordPaymentRequest represents a request to apply a payment to an invoice
type RecordPaymentRequest struct {
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod string          `json:"payment_method" binding:"required"`
	PaymentDate   time.Time       `json:"payment_date"`
	Reference     string          `json:"reference"`
	Notes         string          `json:"notes"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	PaymentDate   time.Time       `json:"payment_date"`
	Reference     string          `json:"reference,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	Status        string          `json:"status"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// PaymentListFilter defines filtering options for payment list queries
type PaymentListFilter struct {
	InvoiceID *uuid.UUID `form:"invoice_id"`
	Method    string     `form:"payment_method"`
	Status    string     `form:"status"`
	DateFrom  *time.Time `form:"date_from" time_format:"2006-01-02"`
	DateTo    *time.Time `form:"date_to" time_format:"2006-01-02"`
	Search    string     `form:"search"`
	Page      int        `form:"page"`
	PageSize  int        `form:"limit"`
}

// ToPaymentResponse converts a domain payment to its API representation
func ToPaymentResponse(p *invoicing.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:            p.ID,
		InvoiceID:     p.InvoiceID,
		Amount:        p.Amount,
		PaymentMethod: p.PaymentMethod.String(),
		PaymentDate:   p.PaymentDate,
		Reference:     p.Reference,
		Notes:         p.Notes,
		Status:        p.Status.String(),
		ProcessedAt:   p.ProcessedAt,
		CreatedAt:     p.CreatedAt,
	}
}

// ==================== Dashboard DTOs ====================

// InvoiceSummaryResponse is a compact invoice representation for dashboard lists
type InvoiceSummaryResponse struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	CustomerName  string          `json:"customer_name"`
	Total         decimal.Decimal `json:"total"`
	Balance       decimal.Decimal `json:"balance"`
	Status        string          `json:"status"`
	DueDate       time.Time       `json:"due_date"`
	DaysOverdue   int             `json:"days_overdue,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TopCustomerResponse is one entry in the top-customers ranking
type TopCustomerResponse struct {
	CustomerName string          `json:"customer_name"`
	InvoiceCount int64           `json:"invoice_count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// MonthlyRevenueResponse is one month of the trailing revenue series
type MonthlyRevenueResponse struct {
	Month   string          `json:"month"` // YYYY-MM
	Revenue decimal.Decimal `json:"revenue"`
}

// DashboardOverviewResponse is the aggregate dashboard report
type DashboardOverviewResponse struct {
	StatusCounts      map[string]int64         `json:"status_counts"`
	TotalInvoices     int64                    `json:"total_invoices"`
	TotalRevenue      decimal.Decimal          `json:"total_revenue"`
	OutstandingAmount decimal.Decimal          `json:"outstanding_amount"`
	OverdueAmount     decimal.Decimal          `json:"overdue_amount"`
	RecentInvoices    []InvoiceSummaryResponse `json:"recent_invoices"`
	OverdueInvoices   []InvoiceSummaryResponse `json:"overdue_invoices"`
	TopCustomers      []TopCustomerResponse    `json:"top_customers"`
	MonthlyRevenue    []MonthlyRevenueResponse `json:"monthly_revenue"`
}

func toInvoiceSummary(inv *invoicing.Invoice, now time.Time) InvoiceSummaryResponse {
	return InvoiceSummaryResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		CustomerName:  inv.CustomerName,
		Total:         inv.Total,
		Balance:       inv.Balance,
		Status:        inv.DisplayStatus(now),
		DueDate:       inv.DueDate,
		DaysOverdue:   inv.DaysOverdue(now),
		CreatedAt:     inv.CreatedAt,
	}
}
