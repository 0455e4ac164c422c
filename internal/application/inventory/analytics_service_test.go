package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/o4o-platform/inventory-engine/internal/domain/inventory"
)

type analyticsFixture struct {
	itemRepo     *memoryItemRepo
	movementRepo *memoryMovementRepo
	service      *AnalyticsService
	now          time.Time
}

func newAnalyticsFixture(t *testing.T) *analyticsFixture {
	t.Helper()
	f := &analyticsFixture{
		itemRepo:     newMemoryItemRepo(),
		movementRepo: newMemoryMovementRepo(),
		now:          time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
	f.service = NewAnalyticsService(f.itemRepo, f.movementRepo, zap.NewNop()).
		WithClock(func() time.Time { return f.now })
	return f
}

func (f *analyticsFixture) seedItem(t *testing.T, quantity int) *inventory.InventoryItem {
	t.Helper()
	item, err := inventory.NewInventoryItem(uuid.New(), uuid.New(), "SKU-"+uuid.NewString()[:8], "Gizmo")
	require.NoError(t, err)
	item.Quantity = quantity
	item.AvailableQuantity = quantity
	require.NoError(t, f.itemRepo.Save(context.Background(), item))
	return item
}

// seedSale plants a completed sale movement at an offset before now
func (f *analyticsFixture) seedSale(t *testing.T, item *inventory.InventoryItem, qty int, ago time.Duration) {
	t.Helper()
	m, err := inventory.NewStockMovement(item.ID, inventory.MovementTypeSale, -qty, qty)
	require.NoError(t, err)
	m.CreatedAt = f.now.Add(-ago)
	require.NoError(t, f.movementRepo.Create(context.Background(), m))
}

func TestAnalyticsServiceRefreshItem(t *testing.T) {
	ctx := context.Background()

	t.Run("computes velocity from recent sales", func(t *testing.T) {
		f := newAnalyticsFixture(t)
		item := f.seedItem(t, 20)

		// 2 sold today, 14 over the week, 60 over the month
		f.seedSale(t, item, 2, 2*time.Hour)
		f.seedSale(t, item, 12, 3*24*time.Hour)
		f.seedSale(t, item, 46, 20*24*time.Hour)

		require.NoError(t, f.service.RefreshItem(ctx, item))

		assert.True(t, item.DailyAvgSales.Equal(decimal.NewFromInt(2)), "daily %s", item.DailyAvgSales)
		assert.True(t, item.WeeklyAvgSales.Equal(decimal.NewFromInt(2)), "weekly %s", item.WeeklyAvgSales)
		assert.True(t, item.MonthlyAvgSales.Equal(decimal.NewFromInt(2)), "monthly %s", item.MonthlyAvgSales)
		// turnover = monthly * 12 / quantity = 2*12/20
		assert.True(t, item.TurnoverRate.Equal(decimal.NewFromFloat(1.2)), "turnover %s", item.TurnoverRate)
		// daysOfStock = floor(20 / 2)
		assert.Equal(t, 10, item.DaysOfStock)

		stored, err := f.itemRepo.FindByID(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, stored.DaysOfStock)
	})

	t.Run("no sales leaves the unknown sentinel", func(t *testing.T) {
		f := newAnalyticsFixture(t)
		item := f.seedItem(t, 20)

		require.NoError(t, f.service.RefreshItem(ctx, item))

		assert.True(t, item.DailyAvgSales.IsZero())
		assert.Equal(t, inventory.DaysOfStockUnknown, item.DaysOfStock)
		assert.True(t, item.TurnoverRate.IsZero())
	})

	t.Run("stale snapshot cannot revert a concurrent append", func(t *testing.T) {
		f := newAnalyticsFixture(t)
		item := f.seedItem(t, 50)
		f.seedSale(t, item, 5, 2*time.Hour)

		// the refresh pass reads its snapshot first
		stale, err := f.itemRepo.FindByID(ctx, item.ID)
		require.NoError(t, err)

		// a ledger append commits in between
		fresh, err := f.itemRepo.FindByID(ctx, item.ID)
		require.NoError(t, err)
		m, err := inventory.NewStockMovement(item.ID, inventory.MovementTypeSale, -10, fresh.Quantity)
		require.NoError(t, err)
		require.NoError(t, fresh.ApplyMovement(m, f.now))
		require.NoError(t, f.movementRepo.Create(ctx, m))
		require.NoError(t, f.itemRepo.SaveWithLock(ctx, fresh))

		require.NoError(t, f.service.RefreshItem(ctx, stale))

		stored, err := f.itemRepo.FindByID(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, 40, stored.Quantity, "analytics refresh must not revert the appended sale")
		assert.Equal(t, fresh.Version, stored.Version)
		assert.False(t, stored.DailyAvgSales.IsZero(), "velocity columns still written")
	})

	t.Run("zero quantity yields zero turnover", func(t *testing.T) {
		f := newAnalyticsFixture(t)
		item := f.seedItem(t, 0)
		f.seedSale(t, item, 6, 12*time.Hour)

		require.NoError(t, f.service.RefreshItem(ctx, item))
		assert.True(t, item.TurnoverRate.IsZero())
		assert.Equal(t, 0, item.DaysOfStock)
	})
}

func TestAnalyticsServiceRefreshAll(t *testing.T) {
	ctx := context.Background()
	f := newAnalyticsFixture(t)
	for i := 0; i < 3; i++ {
		item := f.seedItem(t, 10)
		f.seedSale(t, item, 1, time.Hour)
	}

	processed, failed := f.service.RefreshAll(ctx)
	assert.Equal(t, 3, processed)
	assert.Equal(t, 0, failed)
}

func TestAnalyticsServiceItemForecast(t *testing.T) {
	ctx := context.Background()

	t.Run("projects depletion and reorder quantity", func(t *testing.T) {
		f := newAnalyticsFixture(t)
		item := f.seedItem(t, 20)
		item.LeadTimeDays = 3
		item.SetAnalytics(decimal.NewFromInt(2), decimal.NewFromInt(2), decimal.NewFromInt(2), decimal.NewFromFloat(1.2), 10, f.now)
		require.NoError(t, f.itemRepo.Save(ctx, item))
		f.seedSale(t, item, 2, 2*time.Hour)
		f.seedSale(t, item, 12, 3*24*time.Hour)

		actor := Actor{UserID: uuid.New(), Role: "admin"}
		forecast, err := f.service.ItemForecast(ctx, actor, item.ID, 14)
		require.NoError(t, err)

		assert.Equal(t, 20, forecast.AvailableStock)
		assert.True(t, forecast.DaysOfStockKnown)
		assert.Equal(t, 10, forecast.DaysOfStock)
		// recommended = ceil(2 * 14 * 1.2 - 20) = ceil(13.6)
		assert.Equal(t, 14, forecast.RecommendedReorderQuantity)
		require.NotNil(t, forecast.ProjectedStockout)
		assert.Equal(t, f.now.Add(10*24*time.Hour), *forecast.ProjectedStockout)
		require.NotNil(t, forecast.RecommendedReorderDate)
		assert.Equal(t, f.now.Add(7*24*time.Hour), *forecast.RecommendedReorderDate)
		assert.True(t, forecast.SafetyStock.Equal(decimal.NewFromInt(6)))
		assert.Equal(t, SalesHistory{SaleCount: 2, MinQuantity: 2, MaxQuantity: 12, TotalUnits: 14}, forecast.History)
	})

	t.Run("no velocity means no projection", func(t *testing.T) {
		f := newAnalyticsFixture(t)
		item := f.seedItem(t, 20)

		actor := Actor{UserID: uuid.New(), Role: "admin"}
		forecast, err := f.service.ItemForecast(ctx, actor, item.ID, 14)
		require.NoError(t, err)

		assert.False(t, forecast.DaysOfStockKnown)
		assert.Nil(t, forecast.ProjectedStockout)
		assert.Zero(t, forecast.RecommendedReorderQuantity)
	})

	t.Run("enforces vendor scope", func(t *testing.T) {
		f := newAnalyticsFixture(t)
		item := f.seedItem(t, 20)
		otherVendor := uuid.New()
		_, err := f.service.ItemForecast(ctx, Actor{UserID: uuid.New(), VendorID: &otherVendor, Role: "vendor"}, item.ID, 14)
		assert.Error(t, err)
	})
}
