package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bizdesk/backend/internal/domain/invoicing"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDB creates a GORM DB backed by a mocked SQL connection
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func invoiceRows(invoiceID, tenantID uuid.UUID) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "tenant_id", "invoice_number", "customer_name", "issue_date", "due_date",
		"currency", "items", "subtotal", "tax_rate", "tax_amount", "discount_rate",
		"discount_amount", "total", "total_paid", "balance", "status", "version",
	}).AddRow(
		invoiceID, tenantID, "INV-202601-0001", "Acme Corp", now, now.AddDate(0, 0, 30),
		"USD", `[{"description":"Widget","quantity":2,"unit_price":"10","amount":"20"}]`,
		decimal.NewFromInt(25), decimal.NewFromInt(10), decimal.NewFromFloat(2.5), decimal.Zero,
		decimal.Zero, decimal.NewFromFloat(27.5), decimal.Zero, decimal.NewFromFloat(27.5), "sent", 2,
	)
}

func TestGormInvoiceRepository_FindByIDForTenant(t *testing.T) {
	t.Run("finds invoice within tenant", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormInvoiceRepository(gormDB)

		invoiceID := uuid.New()
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, invoiceID, 1).
			WillReturnRows(invoiceRows(invoiceID, tenantID))

		invoice, err := repo.FindByIDForTenant(context.Background(), tenantID, invoiceID)

		require.NoError(t, err)
		require.NotNil(t, invoice)
		assert.Equal(t, invoiceID, invoice.ID)
		assert.Equal(t, "INV-202601-0001", invoice.InvoiceNumber)
		assert.Equal(t, invoicing.InvoiceStatusSent, invoice.Status)
		assert.Len(t, invoice.Items, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns nil for missing invoice", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormInvoiceRepository(gormDB)

		invoiceID := uuid.New()
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, invoiceID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		invoice, err := repo.FindByIDForTenant(context.Background(), tenantID, invoiceID)

		require.NoError(t, err)
		assert.Nil(t, invoice)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInvoiceRepository_SaveWithLock(t *testing.T) {
	t.Run("succeeds when version matches", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormInvoiceRepository(gormDB)

		inv := newPersistedInvoice(t)

		mock.ExpectExec(`UPDATE "invoices" SET .*`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SaveWithLock(context.Background(), inv)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns conflict when version is stale", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormInvoiceRepository(gormDB)

		inv := newPersistedInvoice(t)

		// another transaction already bumped the version, no rows match
		mock.ExpectExec(`UPDATE "invoices" SET .*`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveWithLock(context.Background(), inv)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "CONCURRENCY_CONFLICT", domainErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInvoiceRepository_DeleteForTenant(t *testing.T) {
	t.Run("deletes existing invoice", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormInvoiceRepository(gormDB)

		invoiceID := uuid.New()
		tenantID := uuid.New()

		mock.ExpectExec(`DELETE FROM "invoices" WHERE tenant_id = \$1 AND id = \$2`).
			WithArgs(tenantID, invoiceID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.DeleteForTenant(context.Background(), tenantID, invoiceID)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing invoice", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormInvoiceRepository(gormDB)

		mock.ExpectExec(`DELETE FROM "invoices" WHERE tenant_id = \$1 AND id = \$2`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.DeleteForTenant(context.Background(), uuid.New(), uuid.New())
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInvoiceRepository_CountForTenant(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormInvoiceRepository(gormDB)

	tenantID := uuid.New()
	status := invoicing.InvoiceStatusSent

	mock.ExpectQuery(`SELECT count\(\*\) FROM "invoices" WHERE tenant_id = \$1 AND status = \$2`).
		WithArgs(tenantID, status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountForTenant(context.Background(), tenantID, invoicing.InvoiceFilter{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func newPersistedInvoice(t *testing.T) *invoicing.Invoice {
	t.Helper()
	inv, err := invoicing.NewInvoice(
		uuid.New(),
		"INV-202601-0001",
		"Acme Corp",
		invoicing.InvoiceItems{{Description: "Widget", Quantity: 2, UnitPrice: decimal.NewFromInt(10)}},
		decimal.NewFromInt(10),
		decimal.Zero,
		time.Now(),
		time.Now().AddDate(0, 0, 30),
	)
	require.NoError(t, err)
	require.NoError(t, inv.Send())
	return inv
}
