package invoicing

import (
	"time"

	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/bizdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCheck        PaymentMethod = "check"
	PaymentMethodPayPal       PaymentMethod = "paypal"
	PaymentMethodStripe       PaymentMethod = "stripe"
	PaymentMethodOther        PaymentMethod = "other"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodBankTransfer, PaymentMethodCash,
		PaymentMethodCheck, PaymentMethodPayPal, PaymentMethodStripe, PaymentMethodOther:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// IsValid checks if the payment status is valid
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// Payment is an append-only ledger entry recording money received against
// an invoice. Payments are never edited or deleted; a refund is a new
// entry, not a mutation of an existing one.
type Payment struct {
	shared.TenantAggregateRoot
	InvoiceID     uuid.UUID       `json:"invoice_id" gorm:"not null;index"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(15,2);not null"`
	PaymentMethod PaymentMethod   `json:"payment_method" gorm:"not null"`
	PaymentDate   time.Time       `json:"payment_date" gorm:"not null"`
	Reference     string          `json:"reference"`
	Notes         string          `json:"notes"`
	Status        PaymentStatus   `json:"status" gorm:"not null;default:completed"`
	ProcessedAt   *time.Time      `json:"processed_at"`
}

// TableName returns the database table name
func (Payment) TableName() string {
	return "payments"
}

// NewPayment creates a completed payment entry for the given invoice
func NewPayment(
	tenantID uuid.UUID,
	invoiceID uuid.UUID,
	amount valueobject.Money,
	method PaymentMethod,
	paymentDate time.Time,
	reference string,
	notes string,
) (*Payment, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
	}
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	now := time.Now()
	p := &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceID:           invoiceID,
		Amount:              amount.Amount().Round(2),
		PaymentMethod:       method,
		PaymentDate:         paymentDate,
		Reference:           reference,
		Notes:               notes,
		Status:              PaymentStatusCompleted,
		ProcessedAt:         &now,
	}

	p.AddDomainEvent(NewPaymentRecordedEvent(p))

	return p, nil
}

// GetAmountMoney returns the payment amount as Money
func (p *Payment) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(p.Amount)
}

// IsCompleted returns true if the payment settled successfully
func (p *Payment) IsCompleted() bool {
	return p.Status == PaymentStatusCompleted
}
