package persistence

import (
	"context"

	"github.com/bizdesk/backend/internal/domain/invoicing"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// reserveNumberSQL increments the per-tenant per-period counter in a
// single statement. The upsert is guarded by the unique constraint on
// (tenant_id, period), so concurrent reservations serialize on the
// counter row and each caller sees a distinct value.
const reserveNumberSQL = `
INSERT INTO invoice_number_sequences (tenant_id, period, last_value, created_at, updated_at)
VALUES (?, ?, 1, NOW(), NOW())
ON CONFLICT (tenant_id, period)
DO UPDATE SET last_value = invoice_number_sequences.last_value + 1, updated_at = NOW()
RETURNING last_value`

// GormNumberSequenceRepository implements NumberSequenceRepository using a
// dedicated counter table. Counting existing invoices and inserting as two
// steps would race under concurrent creation; the atomic upsert never
// hands out the same value twice.
type GormNumberSequenceRepository struct {
	db *gorm.DB
}

// NewGormNumberSequenceRepository creates a new GormNumberSequenceRepository
func NewGormNumberSequenceRepository(db *gorm.DB) *GormNumberSequenceRepository {
	return &GormNumberSequenceRepository{db: db}
}

// ReserveNextNumber atomically reserves the next sequence value for the
// tenant and billing period
func (r *GormNumberSequenceRepository) ReserveNextNumber(ctx context.Context, tenantID uuid.UUID, period invoicing.Period) (int64, error) {
	var next int64
	if err := r.db.WithContext(ctx).
		Raw(reserveNumberSQL, tenantID, period.String()).
		Scan(&next).Error; err != nil {
		return 0, err
	}
	return next, nil
}

// Ensure GormNumberSequenceRepository implements NumberSequenceRepository
var _ invoicing.NumberSequenceRepository = (*GormNumberSequenceRepository)(nil)
