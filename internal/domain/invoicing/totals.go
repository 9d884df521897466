package invoicing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceItem represents a single billable line on an invoice
// This is a value object within the Invoice aggregate, stored as JSONB
type InvoiceItem struct {
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"` // quantity * unit_price, rounded
}

// InvoiceItems is a slice of InvoiceItem that implements GORM Scanner/Valuer for JSONB storage
type InvoiceItems []InvoiceItem

// Value implements driver.Valuer interface for GORM to store as JSONB
func (items InvoiceItems) Value() (driver.Value, error) {
	if items == nil {
		return "[]", nil
	}
	return json.Marshal(items)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (items *InvoiceItems) Scan(value interface{}) error {
	if value == nil {
		*items = InvoiceItems{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan InvoiceItems: unsupported type")
	}

	if len(bytes) == 0 {
		*items = InvoiceItems{}
		return nil
	}

	return json.Unmarshal(bytes, items)
}

// Validate checks each item for a positive quantity and non-negative unit price
func (items InvoiceItems) Validate() error {
	if len(items) == 0 {
		return shared.NewDomainError("INVALID_ITEMS", "Invoice must have at least one item")
	}
	for _, item := range items {
		if item.Description == "" {
			return shared.NewDomainError("INVALID_ITEMS", "Item description cannot be empty")
		}
		if item.Quantity <= 0 {
			return shared.NewDomainError("INVALID_ITEMS", "Item quantity must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return shared.NewDomainError("INVALID_ITEMS", "Item unit price cannot be negative")
		}
	}
	return nil
}

// Totals holds the computed monetary breakdown of an invoice
type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

var oneHundred = decimal.NewFromInt(100)

// CalculateTotals computes the monetary breakdown for a set of line items.
// taxRate and discountRate are percentages in [0, 100]. The discount is
// applied before tax. All outputs are rounded to 2 decimal places using
// round-half-away-from-zero, consistently across every field.
//
// The function is pure: it never reads or mutates invoice state, and
// recomputing with identical inputs yields identical output.
func CalculateTotals(items InvoiceItems, taxRate, discountRate decimal.Decimal) (Totals, error) {
	if err := items.Validate(); err != nil {
		return Totals{}, err
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(oneHundred) {
		return Totals{}, shared.NewDomainError("INVALID_TAX_RATE", "Tax rate must be between 0 and 100")
	}
	if discountRate.IsNegative() || discountRate.GreaterThan(oneHundred) {
		return Totals{}, shared.NewDomainError("INVALID_DISCOUNT", "Discount must be between 0 and 100")
	}

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity)))
	}

	discountAmount := decimal.Zero
	if discountRate.IsPositive() {
		discountAmount = subtotal.Mul(discountRate).Div(oneHundred)
	}

	taxableAmount := subtotal.Sub(discountAmount)

	taxAmount := decimal.Zero
	if taxRate.IsPositive() {
		taxAmount = taxableAmount.Mul(taxRate).Div(oneHundred)
	}

	total := taxableAmount.Add(taxAmount)

	return Totals{
		Subtotal:       subtotal.Round(2),
		DiscountAmount: discountAmount.Round(2),
		TaxAmount:      taxAmount.Round(2),
		Total:          total.Round(2),
	}, nil
}

// WithItemAmounts returns a copy of the items with each Amount recomputed
// from quantity and unit price
func WithItemAmounts(items InvoiceItems) InvoiceItems {
	result := make(InvoiceItems, len(items))
	for i, item := range items {
		item.Amount = item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity)).Round(2)
		result[i] = item
	}
	return result
}
