package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bizdesk/backend/internal/domain/invoicing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormNumberSequenceRepository_ReserveNextNumber(t *testing.T) {
	t.Run("reserves first number for new period", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormNumberSequenceRepository(gormDB)

		tenantID := uuid.New()
		period := invoicing.Period{Year: 2026, Month: time.January}

		mock.ExpectQuery(`INSERT INTO invoice_number_sequences .* ON CONFLICT \(tenant_id, period\) DO UPDATE SET last_value = invoice_number_sequences\.last_value \+ 1.* RETURNING last_value`).
			WithArgs(tenantID, "202601").
			WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(1))

		seq, err := repo.ReserveNextNumber(context.Background(), tenantID, period)
		require.NoError(t, err)
		assert.Equal(t, int64(1), seq)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("increments existing counter", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormNumberSequenceRepository(gormDB)

		tenantID := uuid.New()
		period := invoicing.Period{Year: 2026, Month: time.March}

		mock.ExpectQuery(`INSERT INTO invoice_number_sequences .* RETURNING last_value`).
			WithArgs(tenantID, "202603").
			WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(42))

		seq, err := repo.ReserveNextNumber(context.Background(), tenantID, period)
		require.NoError(t, err)
		assert.Equal(t, int64(42), seq)
		assert.Equal(t, "INV-202603-0042", invoicing.FormatInvoiceNumber(period, seq))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates database errors", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormNumberSequenceRepository(gormDB)

		mock.ExpectQuery(`INSERT INTO invoice_number_sequences .*`).
			WillReturnError(assert.AnError)

		_, err := repo.ReserveNextNumber(context.Background(), uuid.New(), invoicing.Period{Year: 2026, Month: time.May})
		assert.Error(t, err)
	})
}
