package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/o4o-platform/inventory-engine/internal/domain/inventory"
	"github.com/o4o-platform/inventory-engine/internal/domain/shared"
)

// GormItemRepository implements inventory.ItemRepository using GORM
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GormItemRepository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// FindByID finds an inventory item by its ID
func (r *GormItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryItem, error) {
	var item inventory.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindBySKU finds an inventory item by SKU
func (r *GormItemRepository) FindBySKU(ctx context.Context, sku string) (*inventory.InventoryItem, error) {
	var item inventory.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, "sku = ?", sku).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindByVendorAndProduct finds the single record for a vendor-product pair
func (r *GormItemRepository) FindByVendorAndProduct(ctx context.Context, vendorID, productID uuid.UUID) (*inventory.InventoryItem, error) {
	var item inventory.InventoryItem
	if err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND product_id = ?", vendorID, productID).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindAll finds inventory items matching the filter
func (r *GormItemRepository) FindAll(ctx context.Context, filter inventory.ItemFilter) ([]inventory.InventoryItem, error) {
	var items []inventory.InventoryItem
	query := r.applyConditions(r.db.WithContext(ctx).Model(&inventory.InventoryItem{}), filter)
	query = applyPagination(query, filter.Filter)

	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Count counts inventory items matching the filter
func (r *GormItemRepository) Count(ctx context.Context, filter inventory.ItemFilter) (int64, error) {
	var count int64
	query := r.applyConditions(r.db.WithContext(ctx).Model(&inventory.InventoryItem{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindDeadStock finds non-discontinued items holding stock whose last sale
// (or creation, if never sold) predates the cutoff
func (r *GormItemRepository) FindDeadStock(ctx context.Context, soldBefore time.Time, filter inventory.ItemFilter) ([]inventory.InventoryItem, error) {
	var items []inventory.InventoryItem
	query := r.applyConditions(r.db.WithContext(ctx).Model(&inventory.InventoryItem{}), filter).
		Where("quantity > 0 AND status <> ?", inventory.ItemStatusDiscontinued).
		Where("COALESCE(last_sold_at, created_at) < ?", soldBefore)
	query = applyPagination(query, filter.Filter)

	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Save creates or updates an inventory item
func (r *GormItemRepository) Save(ctx context.Context, item *inventory.InventoryItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// SaveWithLock persists the aggregate only if the stored version still
// matches the version the caller read; the row's version advances by one.
func (r *GormItemRepository) SaveWithLock(ctx context.Context, item *inventory.InventoryItem) error {
	result := r.db.WithContext(ctx).
		Model(&inventory.InventoryItem{}).
		Where("id = ? AND version = ?", item.ID, item.Version).
		Updates(map[string]interface{}{
			"quantity":           item.Quantity,
			"reserved_quantity":  item.ReservedQuantity,
			"available_quantity": item.AvailableQuantity,
			"min_quantity":       item.MinQuantity,
			"max_quantity":       item.MaxQuantity,
			"unit_cost":          item.UnitCost,
			"total_value":        item.TotalValue,
			"status":             item.Status,
			"batch_number":       item.BatchNumber,
			"expiry_date":        item.ExpiryDate,
			"daily_avg_sales":    item.DailyAvgSales,
			"weekly_avg_sales":   item.WeeklyAvgSales,
			"monthly_avg_sales":  item.MonthlyAvgSales,
			"turnover_rate":      item.TurnoverRate,
			"days_of_stock":      item.DaysOfStock,
			"reorder_point":      item.ReorderPoint,
			"reorder_quantity":   item.ReorderQuantity,
			"lead_time_days":     item.LeadTimeDays,
			"last_restocked_at":  item.LastRestockedAt,
			"last_sold_at":       item.LastSoldAt,
			"last_adjusted_at":   item.LastAdjustedAt,
			"version":            item.Version + 1,
			"updated_at":         item.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrStaleAggregate
	}
	item.IncrementVersion()
	return nil
}

// SaveAnalytics updates only the velocity snapshot columns, leaving
// quantities and the version untouched so a concurrent ledger append can
// never be reverted by a refresh pass.
func (r *GormItemRepository) SaveAnalytics(ctx context.Context, item *inventory.InventoryItem) error {
	result := r.db.WithContext(ctx).
		Model(&inventory.InventoryItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]interface{}{
			"daily_avg_sales":   item.DailyAvgSales,
			"weekly_avg_sales":  item.WeeklyAvgSales,
			"monthly_avg_sales": item.MonthlyAvgSales,
			"turnover_rate":     item.TurnoverRate,
			"days_of_stock":     item.DaysOfStock,
			"updated_at":        item.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrItemNotFound
	}
	return nil
}

// Delete deletes an inventory item
func (r *GormItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&inventory.InventoryItem{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrItemNotFound
	}
	return nil
}

// applyConditions applies the item filter conditions without pagination
func (r *GormItemRepository) applyConditions(query *gorm.DB, filter inventory.ItemFilter) *gorm.DB {
	if filter.VendorID != nil {
		query = query.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Warehouse != "" {
		query = query.Where("warehouse = ?", filter.Warehouse)
	}
	if filter.Category != "" {
		query = query.Where("product_category = ?", filter.Category)
	}
	if filter.LowStock {
		query = query.Where("min_quantity > 0 AND quantity <= min_quantity")
	}
	if filter.ExpiringSoon {
		query = query.Where("expiry_date IS NOT NULL AND expiry_date < NOW() + INTERVAL '30 days'")
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("product_name ILIKE ? OR sku ILIKE ?", like, like)
	}
	return query
}

// applyPagination applies paging and ordering shared by the repositories
func applyPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = query.Offset(filter.Offset()).Limit(filter.Limit())

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		return query.Order(filter.OrderBy + " " + orderDir)
	}
	return query.Order("created_at DESC")
}

var _ inventory.ItemRepository = (*GormItemRepository)(nil)
