package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/o4o-platform/inventory-engine/internal/domain/inventory"
)

// MockPurchaseRequester is a testify mock for the procurement hand-off port
type MockPurchaseRequester struct {
	mock.Mock
}

func (m *MockPurchaseRequester) RequestReplenishment(ctx context.Context, req ReplenishmentRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

type reorderFixture struct {
	itemRepo  *memoryItemRepo
	ruleRepo  *memoryRuleRepo
	alertRepo *memoryAlertRepo
	purchaser *MockPurchaseRequester
	service   *ReorderService
	now       time.Time
}

func newReorderFixture(t *testing.T) *reorderFixture {
	t.Helper()
	f := &reorderFixture{
		itemRepo:  newMemoryItemRepo(),
		ruleRepo:  newMemoryRuleRepo(),
		alertRepo: newMemoryAlertRepo(),
		purchaser: new(MockPurchaseRequester),
		now:       time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	alerts := NewAlertService(f.alertRepo, f.itemRepo, nil, nil, zap.NewNop()).WithClock(clock)
	f.service = NewReorderService(f.ruleRepo, f.itemRepo, alerts, f.purchaser, nil, zap.NewNop()).WithClock(clock)
	return f
}

func (f *reorderFixture) seedItem(t *testing.T, quantity int) *inventory.InventoryItem {
	t.Helper()
	item, err := inventory.NewInventoryItem(uuid.New(), uuid.New(), "SKU-"+uuid.NewString()[:8], "Part")
	require.NoError(t, err)
	item.Quantity = quantity
	item.AvailableQuantity = quantity
	require.NoError(t, f.itemRepo.Save(context.Background(), item))
	return item
}

func (f *reorderFixture) seedRule(t *testing.T, item *inventory.InventoryItem, triggerType inventory.TriggerType) *inventory.ReorderRule {
	t.Helper()
	rule, err := inventory.NewReorderRule(item.ID, triggerType)
	require.NoError(t, err)
	require.NoError(t, f.ruleRepo.Save(context.Background(), rule))
	return rule
}

func TestReorderServiceEvaluateAll(t *testing.T) {
	ctx := context.Background()

	t.Run("min quantity rule fires and raises reorder alert", func(t *testing.T) {
		f := newReorderFixture(t)
		item := f.seedItem(t, 8)
		rule := f.seedRule(t, item, inventory.TriggerTypeMinQuantity)
		rule.ReorderPoint = 10
		rule.ReorderQuantity = 40
		require.NoError(t, f.ruleRepo.Save(ctx, rule))

		fired, failed := f.service.EvaluateAll(ctx)
		assert.Equal(t, 1, fired)
		assert.Equal(t, 0, failed)

		stored, err := f.ruleRepo.FindByID(ctx, rule.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.TimesTriggered)
		assert.NotNil(t, stored.LastTriggeredAt)

		alert, err := f.alertRepo.FindActiveByItemAndType(ctx, item.ID, inventory.AlertTypeReorderPoint)
		require.NoError(t, err)
		assert.Contains(t, alert.Message, "reorder point")
	})

	t.Run("rule above threshold stays idle", func(t *testing.T) {
		f := newReorderFixture(t)
		item := f.seedItem(t, 50)
		rule := f.seedRule(t, item, inventory.TriggerTypeMinQuantity)
		rule.ReorderPoint = 10
		require.NoError(t, f.ruleRepo.Save(ctx, rule))

		fired, failed := f.service.EvaluateAll(ctx)
		assert.Zero(t, fired)
		assert.Zero(t, failed)
	})

	t.Run("forecast rule respects horizon", func(t *testing.T) {
		f := newReorderFixture(t)
		item := f.seedItem(t, 20)
		item.SetAnalytics(decimal.NewFromInt(2), decimal.NewFromInt(2), decimal.NewFromInt(2), decimal.Zero, 10, f.now)
		require.NoError(t, f.itemRepo.Save(ctx, item))

		inside := f.seedRule(t, item, inventory.TriggerTypeForecast)
		inside.ForecastDays = 14
		require.NoError(t, f.ruleRepo.Save(ctx, inside))

		fired, _ := f.service.EvaluateAll(ctx)
		assert.Equal(t, 1, fired)

		// tighten the horizon below days-of-stock and it stays idle
		inside.ForecastDays = 7
		inside.TimesTriggered = 0
		require.NoError(t, f.ruleRepo.Save(ctx, inside))
		fired, _ = f.service.EvaluateAll(ctx)
		assert.Zero(t, fired)
	})

	t.Run("rule with missing item counts as failure", func(t *testing.T) {
		f := newReorderFixture(t)
		rule, err := inventory.NewReorderRule(uuid.New(), inventory.TriggerTypeMinQuantity)
		require.NoError(t, err)
		require.NoError(t, f.ruleRepo.Save(ctx, rule))

		fired, failed := f.service.EvaluateAll(ctx)
		assert.Zero(t, fired)
		assert.Equal(t, 1, failed)
	})
}

func TestReorderServiceFixedSchedule(t *testing.T) {
	ctx := context.Background()
	f := newReorderFixture(t)
	item := f.seedItem(t, 100)
	rule := f.seedRule(t, item, inventory.TriggerTypeFixedSchedule)
	rule.ScheduleFrequency = inventory.ScheduleWeekly
	slot := f.now.Add(-time.Hour)
	rule.NextScheduledReorder = &slot
	require.NoError(t, f.ruleRepo.Save(ctx, rule))

	fired, failed := f.service.EvaluateAll(ctx)
	require.Equal(t, 1, fired)
	require.Zero(t, failed)

	stored, err := f.ruleRepo.FindByID(ctx, rule.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.NextScheduledReorder)
	assert.True(t, stored.NextScheduledReorder.After(f.now), "slot must advance past now")

	// the same period never fires twice
	fired, failed = f.service.EvaluateAll(ctx)
	assert.Zero(t, fired)
	assert.Zero(t, failed)
	stored2, err := f.ruleRepo.FindByID(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored2.TimesTriggered)
}

func TestReorderServiceAutoPurchase(t *testing.T) {
	ctx := context.Background()

	t.Run("hands off clamped quantity and records the order", func(t *testing.T) {
		f := newReorderFixture(t)
		item := f.seedItem(t, 5)
		item.UnitCost = decimal.NewFromInt(3)
		require.NoError(t, f.itemRepo.Save(ctx, item))

		rule := f.seedRule(t, item, inventory.TriggerTypeMinQuantity)
		rule.ReorderPoint = 10
		rule.ReorderQuantity = 37
		rule.OrderMultiple = 12
		rule.AutoCreatePurchaseOrder = true
		require.NoError(t, f.ruleRepo.Save(ctx, rule))

		f.purchaser.On("RequestReplenishment", mock.Anything, mock.MatchedBy(func(req ReplenishmentRequest) bool {
			return req.Quantity == 48 && req.InventoryID == item.ID
		})).Return(nil)

		fired, _ := f.service.EvaluateAll(ctx)
		require.Equal(t, 1, fired)
		f.purchaser.AssertExpectations(t)

		stored, err := f.ruleRepo.FindByID(ctx, rule.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.OrdersCreated)
		assert.Equal(t, 48, stored.TotalQuantityOrdered)
		assert.True(t, stored.TotalValueOrdered.Equal(decimal.NewFromInt(144)))
	})

	t.Run("no hand-off without the auto flag", func(t *testing.T) {
		f := newReorderFixture(t)
		item := f.seedItem(t, 5)
		rule := f.seedRule(t, item, inventory.TriggerTypeMinQuantity)
		rule.ReorderPoint = 10
		rule.ReorderQuantity = 40
		require.NoError(t, f.ruleRepo.Save(ctx, rule))

		fired, _ := f.service.EvaluateAll(ctx)
		require.Equal(t, 1, fired)
		f.purchaser.AssertNotCalled(t, "RequestReplenishment", mock.Anything, mock.Anything)
	})

	t.Run("order value cap blocks the hand-off", func(t *testing.T) {
		f := newReorderFixture(t)
		item := f.seedItem(t, 5)
		item.UnitCost = decimal.NewFromInt(100)
		require.NoError(t, f.itemRepo.Save(ctx, item))

		rule := f.seedRule(t, item, inventory.TriggerTypeMinQuantity)
		rule.ReorderPoint = 10
		rule.ReorderQuantity = 40
		rule.AutoCreatePurchaseOrder = true
		rule.MaxOrderValue = decimal.NewFromInt(1000)
		require.NoError(t, f.ruleRepo.Save(ctx, rule))

		fired, _ := f.service.EvaluateAll(ctx)
		require.Equal(t, 1, fired)
		f.purchaser.AssertNotCalled(t, "RequestReplenishment", mock.Anything, mock.Anything)
	})
}

func TestReorderServiceUpsertRule(t *testing.T) {
	ctx := context.Background()
	f := newReorderFixture(t)
	item := f.seedItem(t, 50)
	actor := Actor{UserID: uuid.New(), UserName: "admin", Role: "admin"}

	created, err := f.service.UpsertRule(ctx, actor, UpsertRuleCommand{
		InventoryID:  item.ID,
		TriggerType:  inventory.TriggerTypeMinQuantity,
		IsActive:     true,
		ReorderPoint: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, created.ReorderPoint)

	// a second upsert updates the same rule, never creates a sibling
	updated, err := f.service.UpsertRule(ctx, actor, UpsertRuleCommand{
		InventoryID:  item.ID,
		TriggerType:  inventory.TriggerTypeForecast,
		IsActive:     true,
		ForecastDays: 21,
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, inventory.TriggerTypeForecast, updated.TriggerType)

	count, err := f.ruleRepo.Count(ctx, inventory.RuleFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
