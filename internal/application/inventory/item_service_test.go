package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/o4o-platform/inventory-engine/internal/domain/inventory"
	"github.com/o4o-platform/inventory-engine/internal/domain/shared"
)

type itemFixture struct {
	itemRepo *memoryItemRepo
	service  *ItemService
	queries  *QueryService
}

func newItemFixture(t *testing.T) *itemFixture {
	t.Helper()
	itemRepo := newMemoryItemRepo()
	return &itemFixture{
		itemRepo: itemRepo,
		service:  NewItemService(itemRepo, zap.NewNop()),
		queries:  NewQueryService(itemRepo, zap.NewNop()),
	}
}

func (f *itemFixture) seedItem(t *testing.T, vendorID uuid.UUID, quantity int) *inventory.InventoryItem {
	t.Helper()
	item, err := inventory.NewInventoryItem(vendorID, uuid.New(), "SKU-"+uuid.NewString()[:8], "Widget")
	require.NoError(t, err)
	item.Quantity = quantity
	item.AvailableQuantity = quantity
	if quantity > 0 {
		item.Status = inventory.ItemStatusInStock
	}
	require.NoError(t, f.itemRepo.Save(context.Background(), item))
	return item
}

func TestItemServiceCreate(t *testing.T) {
	ctx := context.Background()
	vendorID := uuid.New()

	t.Run("registers a new item", func(t *testing.T) {
		f := newItemFixture(t)
		resp, err := f.service.Create(ctx, CreateItemCommand{
			VendorID:        vendorID,
			ProductID:       uuid.New(),
			SKU:             "WID-001",
			ProductName:     "Widget",
			ProductCategory: "hardware",
			MinQuantity:     5,
			MaxQuantity:     100,
			ReorderPoint:    10,
			ReorderQuantity: 50,
			LeadTimeDays:    3,
			Actor:           vendorActor(vendorID),
		})
		require.NoError(t, err)
		assert.Equal(t, "WID-001", resp.SKU)
		assert.Equal(t, 0, resp.Quantity)
		assert.Equal(t, inventory.ItemStatusOutOfStock, resp.Status)

		stored, err := f.itemRepo.FindBySKU(ctx, "WID-001")
		require.NoError(t, err)
		assert.Equal(t, 5, stored.MinQuantity)
		assert.Equal(t, 3, stored.LeadTimeDays)
	})

	t.Run("rejects duplicate vendor/product pair", func(t *testing.T) {
		f := newItemFixture(t)
		productID := uuid.New()
		cmd := CreateItemCommand{
			VendorID:    vendorID,
			ProductID:   productID,
			SKU:         "WID-002",
			ProductName: "Widget",
			Actor:       vendorActor(vendorID),
		}
		_, err := f.service.Create(ctx, cmd)
		require.NoError(t, err)

		cmd.SKU = "WID-002-B"
		_, err = f.service.Create(ctx, cmd)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("rejects cross-vendor registration", func(t *testing.T) {
		f := newItemFixture(t)
		_, err := f.service.Create(ctx, CreateItemCommand{
			VendorID:    uuid.New(),
			ProductID:   uuid.New(),
			SKU:         "WID-003",
			ProductName: "Widget",
			Actor:       vendorActor(vendorID),
		})
		assert.ErrorIs(t, err, shared.ErrPermissionDenied)
	})

	t.Run("rejects missing sku", func(t *testing.T) {
		f := newItemFixture(t)
		_, err := f.service.Create(ctx, CreateItemCommand{
			VendorID:    vendorID,
			ProductID:   uuid.New(),
			ProductName: "Widget",
			Actor:       vendorActor(vendorID),
		})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestItemServiceReservations(t *testing.T) {
	ctx := context.Background()
	vendorID := uuid.New()
	actor := vendorActor(vendorID)

	t.Run("reserve and release round trip", func(t *testing.T) {
		f := newItemFixture(t)
		item := f.seedItem(t, vendorID, 20)

		resp, err := f.service.Reserve(ctx, actor, item.ID, 8)
		require.NoError(t, err)
		assert.Equal(t, 20, resp.Quantity)
		assert.Equal(t, 8, resp.ReservedQuantity)
		assert.Equal(t, 12, resp.AvailableQuantity)

		resp, err = f.service.ReleaseReservation(ctx, actor, item.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, 5, resp.ReservedQuantity)
		assert.Equal(t, 15, resp.AvailableQuantity)
	})

	t.Run("cannot reserve past on-hand stock", func(t *testing.T) {
		f := newItemFixture(t)
		item := f.seedItem(t, vendorID, 10)

		_, err := f.service.Reserve(ctx, actor, item.ID, 11)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	})

	t.Run("cannot release more than reserved", func(t *testing.T) {
		f := newItemFixture(t)
		item := f.seedItem(t, vendorID, 10)
		_, err := f.service.Reserve(ctx, actor, item.ID, 4)
		require.NoError(t, err)

		_, err = f.service.ReleaseReservation(ctx, actor, item.ID, 5)
		assert.ErrorIs(t, err, shared.ErrInvalidQuantity)
	})
}

func TestItemServiceThresholds(t *testing.T) {
	ctx := context.Background()
	vendorID := uuid.New()
	actor := vendorActor(vendorID)

	t.Run("updates levels and re-derives status", func(t *testing.T) {
		f := newItemFixture(t)
		item := f.seedItem(t, vendorID, 10)

		resp, err := f.service.SetThresholds(ctx, actor, item.ID, 15, 100)
		require.NoError(t, err)
		assert.Equal(t, 15, resp.MinQuantity)
		assert.Equal(t, inventory.ItemStatusLowStock, resp.Status)
	})

	t.Run("rejects min above max", func(t *testing.T) {
		f := newItemFixture(t)
		item := f.seedItem(t, vendorID, 10)

		_, err := f.service.SetThresholds(ctx, actor, item.ID, 50, 20)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestItemServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	vendorID := uuid.New()
	actor := vendorActor(vendorID)

	t.Run("discontinue is idempotent-hostile", func(t *testing.T) {
		f := newItemFixture(t)
		item := f.seedItem(t, vendorID, 10)

		resp, err := f.service.Discontinue(ctx, actor, item.ID)
		require.NoError(t, err)
		assert.Equal(t, inventory.ItemStatusDiscontinued, resp.Status)

		_, err = f.service.Discontinue(ctx, actor, item.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
	})

	t.Run("delete refuses items holding stock", func(t *testing.T) {
		f := newItemFixture(t)
		item := f.seedItem(t, vendorID, 10)

		err := f.service.Delete(ctx, actor, item.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)

		empty := f.seedItem(t, vendorID, 0)
		require.NoError(t, f.service.Delete(ctx, actor, empty.ID))
		_, err = f.itemRepo.FindByID(ctx, empty.ID)
		assert.ErrorIs(t, err, shared.ErrItemNotFound)
	})
}

func TestQueryServiceScoping(t *testing.T) {
	ctx := context.Background()
	vendorA := uuid.New()
	vendorB := uuid.New()

	f := newItemFixture(t)
	f.seedItem(t, vendorA, 10)
	f.seedItem(t, vendorA, 20)
	other := f.seedItem(t, vendorB, 30)

	t.Run("vendor sees only its own items", func(t *testing.T) {
		page, err := f.queries.List(ctx, vendorActor(vendorA), inventory.ItemFilter{
			Filter: shared.Filter{Page: 1, PageSize: 20},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
		for _, item := range page.Items {
			assert.Equal(t, vendorA, item.VendorID)
		}
	})

	t.Run("vendor cannot widen the filter to another vendor", func(t *testing.T) {
		_, err := f.queries.List(ctx, vendorActor(vendorA), inventory.ItemFilter{
			VendorID: &vendorB,
		})
		assert.ErrorIs(t, err, shared.ErrPermissionDenied)
	})

	t.Run("admin crosses vendors", func(t *testing.T) {
		admin := Actor{UserID: uuid.New(), UserName: "admin", Role: "admin"}
		page, err := f.queries.List(ctx, admin, inventory.ItemFilter{
			Filter: shared.Filter{Page: 1, PageSize: 20},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.Total)

		got, err := f.queries.Get(ctx, admin, other.ID)
		require.NoError(t, err)
		assert.Equal(t, vendorB, got.VendorID)
	})

	t.Run("get enforces vendor scope", func(t *testing.T) {
		_, err := f.queries.Get(ctx, vendorActor(vendorA), other.ID)
		assert.ErrorIs(t, err, shared.ErrPermissionDenied)
	})

	t.Run("lookup by sku", func(t *testing.T) {
		got, err := f.queries.GetBySKU(ctx, vendorActor(vendorB), other.SKU)
		require.NoError(t, err)
		assert.Equal(t, other.ID, got.ID)
	})
}

func TestQueryServiceValue(t *testing.T) {
	ctx := context.Background()
	vendorID := uuid.New()
	f := newItemFixture(t)

	seed := func(qty int, value float64, category string) {
		item := f.seedItem(t, vendorID, qty)
		item.TotalValue = decimal.NewFromFloat(value)
		item.ProductCategory = category
		require.NoError(t, f.itemRepo.Save(ctx, item))
	}
	seed(10, 100, "hardware")
	seed(5, 250, "hardware")
	seed(2, 40, "")

	summary, err := f.queries.Value(ctx, vendorActor(vendorID), inventory.ItemFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.TotalItems)
	assert.Equal(t, 17, summary.TotalUnits)
	assert.True(t, summary.TotalValue.Equal(decimal.NewFromInt(390)))
	assert.True(t, summary.ByCategory["hardware"].Equal(decimal.NewFromInt(350)))
	assert.True(t, summary.ByCategory["uncategorized"].Equal(decimal.NewFromInt(40)))
	require.NotEmpty(t, summary.TopItems)
	assert.True(t, summary.TopItems[0].TotalValue.Equal(decimal.NewFromInt(250)),
		"most valuable item first")
}
