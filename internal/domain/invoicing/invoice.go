package invoicing

import (
	"fmt"
	"time"

	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/bizdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the stored status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"          // Mutable, deletable, payments not yet allowed
	InvoiceStatusSent          InvoiceStatus = "sent"           // Issued to the customer, money fields frozen
	InvoiceStatusViewed        InvoiceStatus = "viewed"         // Customer has opened the invoice
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid" // 0 < totalPaid < total
	InvoiceStatusPaid          InvoiceStatus = "paid"           // Fully settled, terminal
)

// DisplayStatusOverdue is the derived display status for unpaid invoices
// past their due date. It is never stored.
const DisplayStatusOverdue = "overdue"

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusViewed,
		InvoiceStatusPartiallyPaid, InvoiceStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsDraft returns true if the invoice is still a draft
func (s InvoiceStatus) IsDraft() bool {
	return s == InvoiceStatusDraft
}

// IsTerminal returns true if the invoice is in a terminal state
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid
}

// CanApplyPayment returns true if payments can be applied in this status
func (s InvoiceStatus) CanApplyPayment() bool {
	switch s {
	case InvoiceStatusSent, InvoiceStatusViewed, InvoiceStatusPartiallyPaid:
		return true
	}
	return false
}

// Invoice is the aggregate root of the invoice ledger.
// Monetary fields are stored as decimals rounded to 2 places; Balance
// always equals Total minus TotalPaid after any committed operation.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber   string          `json:"invoice_number" gorm:"not null;uniqueIndex:idx_invoices_tenant_number,composite:tenant_id"`
	CustomerID      *uuid.UUID      `json:"customer_id"`
	CustomerName    string          `json:"customer_name" gorm:"not null"`
	CustomerEmail   string          `json:"customer_email"`
	BillingAddress  string          `json:"billing_address"`
	ShippingAddress string          `json:"shipping_address"`
	IssueDate       time.Time       `json:"issue_date" gorm:"not null"`
	DueDate         time.Time       `json:"due_date" gorm:"not null"`
	PaymentTerms    string          `json:"payment_terms"`
	Currency        string          `json:"currency" gorm:"not null;default:USD"`
	Items           InvoiceItems    `json:"items" gorm:"type:jsonb"`
	Subtotal        decimal.Decimal `json:"subtotal" gorm:"type:decimal(15,2)"`
	TaxRate         decimal.Decimal `json:"tax_rate" gorm:"type:decimal(5,2)"`
	TaxAmount       decimal.Decimal `json:"tax_amount" gorm:"type:decimal(15,2)"`
	DiscountRate    decimal.Decimal `json:"discount_rate" gorm:"type:decimal(5,2)"`
	DiscountAmount  decimal.Decimal `json:"discount_amount" gorm:"type:decimal(15,2)"`
	Total           decimal.Decimal `json:"total" gorm:"type:decimal(15,2)"`
	TotalPaid       decimal.Decimal `json:"total_paid" gorm:"type:decimal(15,2)"`
	Balance         decimal.Decimal `json:"balance" gorm:"type:decimal(15,2)"`
	Status          InvoiceStatus   `json:"status" gorm:"not null;default:draft;index"`
	Notes           string          `json:"notes"`
	Terms           string          `json:"terms"`
	OpportunityID   *uuid.UUID      `json:"opportunity_id"`
	QuoteID         *uuid.UUID      `json:"quote_id"`
	ProjectID       *uuid.UUID      `json:"project_id"`
	SentAt          *time.Time      `json:"sent_at"`
	ViewedAt        *time.Time      `json:"viewed_at"`
	PaidAt          *time.Time      `json:"paid_at"`
}

// TableName returns the database table name
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice creates a new draft invoice with totals computed from its items
func NewInvoice(
	tenantID uuid.UUID,
	invoiceNumber string,
	customerName string,
	items InvoiceItems,
	taxRate decimal.Decimal,
	discountRate decimal.Decimal,
	issueDate time.Time,
	dueDate time.Time,
) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if customerName == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	if dueDate.Before(issueDate) {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be before issue date")
	}

	totals, err := CalculateTotals(items, taxRate, discountRate)
	if err != nil {
		return nil, err
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       invoiceNumber,
		CustomerName:        customerName,
		IssueDate:           issueDate,
		DueDate:             dueDate,
		Currency:            string(valueobject.DefaultCurrency),
		Items:               WithItemAmounts(items),
		Subtotal:            totals.Subtotal,
		TaxRate:             taxRate,
		TaxAmount:           totals.TaxAmount,
		DiscountRate:        discountRate,
		DiscountAmount:      totals.DiscountAmount,
		Total:               totals.Total,
		TotalPaid:           decimal.Zero,
		Balance:             totals.Total,
		Status:              InvoiceStatusDraft,
	}

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))

	return inv, nil
}

// UpdateDraft replaces the mutable fields of a draft invoice and recomputes
// totals. Item edits require that no payments have been recorded, which
// holds by construction since payments are only accepted after sending.
func (inv *Invoice) UpdateDraft(
	customerName string,
	items InvoiceItems,
	taxRate decimal.Decimal,
	discountRate decimal.Decimal,
	issueDate time.Time,
	dueDate time.Time,
) error {
	if !inv.Status.IsDraft() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot update invoice in %s status", inv.Status))
	}
	if !inv.TotalPaid.IsZero() {
		return shared.NewDomainError("INVALID_STATE", "Cannot edit items on an invoice with recorded payments")
	}
	if customerName == "" {
		return shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	if dueDate.Before(issueDate) {
		return shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be before issue date")
	}

	totals, err := CalculateTotals(items, taxRate, discountRate)
	if err != nil {
		return err
	}

	inv.CustomerName = customerName
	inv.IssueDate = issueDate
	inv.DueDate = dueDate
	inv.Items = WithItemAmounts(items)
	inv.Subtotal = totals.Subtotal
	inv.TaxRate = taxRate
	inv.TaxAmount = totals.TaxAmount
	inv.DiscountRate = discountRate
	inv.DiscountAmount = totals.DiscountAmount
	inv.Total = totals.Total
	inv.Balance = totals.Total.Sub(inv.TotalPaid)
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	return nil
}

// Send issues the invoice to the customer.
// Money fields and items are frozen from this point on.
func (inv *Invoice) Send() error {
	if !inv.Status.IsDraft() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot send invoice in %s status", inv.Status))
	}

	now := time.Now()
	inv.Status = InvoiceStatusSent
	inv.SentAt = &now
	inv.UpdatedAt = now
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceSentEvent(inv))

	return nil
}

// MarkViewed records that the customer has opened the invoice.
// The viewed timestamp is set once; repeated calls are no-ops.
func (inv *Invoice) MarkViewed() error {
	if inv.Status == InvoiceStatusViewed {
		return nil
	}
	if inv.Status != InvoiceStatusSent {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark invoice as viewed in %s status", inv.Status))
	}

	now := time.Now()
	inv.Status = InvoiceStatusViewed
	inv.ViewedAt = &now
	inv.UpdatedAt = now
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceViewedEvent(inv))

	return nil
}

// ApplyPayment applies a completed payment amount to the invoice balance
// and recomputes status. Overpayment is rejected: a payment may never
// drive the balance negative.
func (inv *Invoice) ApplyPayment(amount valueobject.Money) error {
	if !inv.Status.CanApplyPayment() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot apply payment to invoice in %s status", inv.Status))
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if amount.Amount().GreaterThan(inv.Balance) {
		return shared.NewDomainError("EXCEEDS_BALANCE", fmt.Sprintf("Payment amount %s exceeds remaining balance %s", amount.StringFixed(2), inv.Balance.StringFixed(2)))
	}

	inv.TotalPaid = inv.TotalPaid.Add(amount.Amount()).Round(2)
	inv.Balance = inv.Total.Sub(inv.TotalPaid).Round(2)

	if inv.Balance.LessThanOrEqual(decimal.Zero) {
		now := time.Now()
		inv.Status = InvoiceStatusPaid
		if inv.PaidAt == nil {
			inv.PaidAt = &now
		}
		inv.AddDomainEvent(NewInvoicePaidEvent(inv))
	} else {
		inv.Status = InvoiceStatusPartiallyPaid
		inv.AddDomainEvent(NewInvoicePartiallyPaidEvent(inv, amount))
	}

	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	return nil
}

// MarkPaid is a manual override for out-of-band settlements.
// It settles the full balance so the ledger still reconciles: TotalPaid
// becomes Total and Balance becomes zero.
func (inv *Invoice) MarkPaid() error {
	if inv.Status == InvoiceStatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Invoice is already paid")
	}

	now := time.Now()
	inv.TotalPaid = inv.Total
	inv.Balance = decimal.Zero
	inv.Status = InvoiceStatusPaid
	if inv.PaidAt == nil {
		inv.PaidAt = &now
	}
	inv.UpdatedAt = now
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoicePaidEvent(inv))

	return nil
}

// EnsureDeletable returns an error unless the invoice may be deleted
func (inv *Invoice) EnsureDeletable() error {
	if !inv.Status.IsDraft() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot delete invoice in %s status", inv.Status))
	}
	return nil
}

// IsOverdue returns true if the invoice is unpaid and past its due date
func (inv *Invoice) IsOverdue(now time.Time) bool {
	if !inv.Status.CanApplyPayment() {
		return false
	}
	return now.After(inv.DueDate)
}

// DisplayStatus returns the status shown to clients: the stored status,
// or "overdue" when an unpaid invoice is past its due date
func (inv *Invoice) DisplayStatus(now time.Time) string {
	if inv.IsOverdue(now) {
		return DisplayStatusOverdue
	}
	return inv.Status.String()
}

// DaysOverdue returns the number of days past due (0 if not overdue)
func (inv *Invoice) DaysOverdue(now time.Time) int {
	if !inv.IsOverdue(now) {
		return 0
	}
	return int(now.Sub(inv.DueDate).Hours() / 24)
}

// GetTotalMoney returns the invoice total as Money
func (inv *Invoice) GetTotalMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(inv.Total)
}

// GetBalanceMoney returns the remaining balance as Money
func (inv *Invoice) GetBalanceMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(inv.Balance)
}

// IsPaid returns true if the invoice is fully settled
func (inv *Invoice) IsPaid() bool {
	return inv.Status == InvoiceStatusPaid
}
