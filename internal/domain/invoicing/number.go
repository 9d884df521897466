package invoicing

import (
	"fmt"
	"time"
)

// Period identifies a tenant's billing month for invoice numbering
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the billing period containing the given date
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// String returns the period as YYYYMM
func (p Period) String() string {
	return fmt.Sprintf("%d%02d", p.Year, p.Month)
}

// FormatInvoiceNumber builds the human-readable invoice number for a
// reserved sequence value, e.g. INV-202601-0042
func FormatInvoiceNumber(period Period, sequence int64) string {
	return fmt.Sprintf("INV-%s-%04d", period, sequence)
}
