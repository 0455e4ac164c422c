package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/o4o-platform/inventory-engine/internal/domain/inventory"
	"github.com/o4o-platform/inventory-engine/internal/domain/shared"
)

// newMockDB opens a GORM handle over a mocked SQL connection
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

func TestGormItemRepositoryFindByID(t *testing.T) {
	t.Run("finds existing item", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormItemRepository(db)

		itemID := uuid.New()
		vendorID := uuid.New()
		productID := uuid.New()

		rows := sqlmock.NewRows([]string{
			"id", "vendor_id", "product_id", "sku", "product_name",
			"quantity", "available_quantity", "status", "version",
		}).AddRow(
			itemID, vendorID, productID, "SKU-001", "Widget",
			42, 42, "in_stock", 3,
		)

		mock.ExpectQuery(`SELECT \* FROM "inventory" WHERE id = \$1`).
			WithArgs(itemID, 1).
			WillReturnRows(rows)

		item, err := repo.FindByID(context.Background(), itemID)

		require.NoError(t, err)
		assert.Equal(t, itemID, item.ID)
		assert.Equal(t, vendorID, item.VendorID)
		assert.Equal(t, 42, item.Quantity)
		assert.Equal(t, 3, item.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing row to domain error", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormItemRepository(db)

		itemID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "inventory" WHERE id = \$1`).
			WithArgs(itemID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		item, err := repo.FindByID(context.Background(), itemID)

		assert.Nil(t, item)
		assert.ErrorIs(t, err, shared.ErrItemNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormItemRepositoryFindBySKU(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormItemRepository(db)

	itemID := uuid.New()
	rows := sqlmock.NewRows([]string{"id", "sku", "product_name", "quantity", "version"}).
		AddRow(itemID, "SKU-ABC", "Widget", 7, 1)

	mock.ExpectQuery(`SELECT \* FROM "inventory" WHERE sku = \$1`).
		WithArgs("SKU-ABC", 1).
		WillReturnRows(rows)

	item, err := repo.FindBySKU(context.Background(), "SKU-ABC")

	require.NoError(t, err)
	assert.Equal(t, "SKU-ABC", item.SKU)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormItemRepositorySaveWithLock(t *testing.T) {
	t.Run("bumps the version when the row matches", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormItemRepository(db)

		item, err := inventory.NewInventoryItem(uuid.New(), uuid.New(), "SKU-1", "Widget")
		require.NoError(t, err)
		require.Equal(t, 1, item.Version)

		mock.ExpectExec(`UPDATE "inventory" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.SaveWithLock(context.Background(), item))
		assert.Equal(t, 2, item.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows means a concurrent writer won", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormItemRepository(db)

		item, err := inventory.NewInventoryItem(uuid.New(), uuid.New(), "SKU-2", "Widget")
		require.NoError(t, err)

		mock.ExpectExec(`UPDATE "inventory" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = repo.SaveWithLock(context.Background(), item)
		assert.ErrorIs(t, err, shared.ErrStaleAggregate)
		assert.Equal(t, 1, item.Version, "version must not advance on a lost race")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormItemRepositorySaveAnalytics(t *testing.T) {
	t.Run("writes only the velocity columns", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormItemRepository(db)

		item, err := inventory.NewInventoryItem(uuid.New(), uuid.New(), "SKU-3", "Widget")
		require.NoError(t, err)

		// quantity, status and version must stay out of the SET clause so a
		// refresh pass can never overwrite a concurrent ledger append
		mock.ExpectExec(`UPDATE "inventory" SET "daily_avg_sales"=\$1,"days_of_stock"=\$2,"monthly_avg_sales"=\$3,"turnover_rate"=\$4,"updated_at"=\$5,"weekly_avg_sales"=\$6 WHERE id = \$7`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.SaveAnalytics(context.Background(), item))
		assert.Equal(t, 1, item.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row maps to domain error", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormItemRepository(db)

		item, err := inventory.NewInventoryItem(uuid.New(), uuid.New(), "SKU-4", "Widget")
		require.NoError(t, err)

		mock.ExpectExec(`UPDATE "inventory" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = repo.SaveAnalytics(context.Background(), item)
		assert.ErrorIs(t, err, shared.ErrItemNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormItemRepositoryDelete(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormItemRepository(db)

	itemID := uuid.New()
	mock.ExpectExec(`DELETE FROM "inventory" WHERE id = \$1`).
		WithArgs(itemID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), itemID)
	assert.ErrorIs(t, err, shared.ErrItemNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormMovementRepositorySumAbsoluteQuantitySince(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormMovementRepository(db)

	inventoryID := uuid.New()
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(ABS\(quantity\)\), 0\) as total FROM "stock_movements"`).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(64))

	total, err := repo.SumAbsoluteQuantitySince(
		context.Background(), inventoryID, inventory.MovementTypeSale,
		timeMustParse(t, "2026-08-01T00:00:00Z"),
	)

	require.NoError(t, err)
	assert.Equal(t, 64, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func timeMustParse(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}
