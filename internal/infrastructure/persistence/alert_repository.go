package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/o4o-platform/inventory-engine/internal/domain/inventory"
	"github.com/o4o-platform/inventory-engine/internal/domain/shared"
)

// GormAlertRepository implements inventory.AlertRepository using GORM
type GormAlertRepository struct {
	db *gorm.DB
}

// NewGormAlertRepository creates a new GormAlertRepository
func NewGormAlertRepository(db *gorm.DB) *GormAlertRepository {
	return &GormAlertRepository{db: db}
}

// FindByID finds an alert by its ID
func (r *GormAlertRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryAlert, error) {
	var alert inventory.InventoryAlert
	if err := r.db.WithContext(ctx).First(&alert, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrAlertNotFound
		}
		return nil, err
	}
	return &alert, nil
}

// FindActiveByItemAndType returns the single active alert for the pair; this
// is the dedup lookup
func (r *GormAlertRepository) FindActiveByItemAndType(ctx context.Context, inventoryID uuid.UUID, alertType inventory.AlertType) (*inventory.InventoryAlert, error) {
	var alert inventory.InventoryAlert
	if err := r.db.WithContext(ctx).
		Where("inventory_id = ? AND alert_type = ? AND status = ?",
			inventoryID, alertType, inventory.AlertStatusActive).
		First(&alert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrAlertNotFound
		}
		return nil, err
	}
	return &alert, nil
}

// FindAll finds alerts matching the filter
func (r *GormAlertRepository) FindAll(ctx context.Context, filter inventory.AlertFilter) ([]inventory.InventoryAlert, error) {
	var alerts []inventory.InventoryAlert
	query := r.applyConditions(ctx, filter)
	query = applyPagination(query, filter.Filter)

	if err := query.Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// Count counts alerts matching the filter
func (r *GormAlertRepository) Count(ctx context.Context, filter inventory.AlertFilter) (int64, error) {
	var count int64
	if err := r.applyConditions(ctx, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindDueForAutoResolve returns active alerts whose scheduled resolve time
// has elapsed
func (r *GormAlertRepository) FindDueForAutoResolve(ctx context.Context, now time.Time) ([]inventory.InventoryAlert, error) {
	var alerts []inventory.InventoryAlert
	if err := r.db.WithContext(ctx).
		Where("status = ? AND auto_resolve = ? AND scheduled_resolve_at IS NOT NULL AND scheduled_resolve_at <= ?",
			inventory.AlertStatusActive, true, now).
		Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// Save creates or updates an alert
func (r *GormAlertRepository) Save(ctx context.Context, alert *inventory.InventoryAlert) error {
	return r.db.WithContext(ctx).Save(alert).Error
}

// Delete deletes an alert
func (r *GormAlertRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&inventory.InventoryAlert{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrAlertNotFound
	}
	return nil
}

// applyConditions applies the alert filter; vendor scope is resolved through
// the owning inventory record
func (r *GormAlertRepository) applyConditions(ctx context.Context, filter inventory.AlertFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&inventory.InventoryAlert{})
	if filter.VendorID != nil {
		query = query.Where(
			"inventory_id IN (?)",
			r.db.Model(&inventory.InventoryItem{}).Select("id").Where("vendor_id = ?", *filter.VendorID),
		)
	}
	if filter.InventoryID != nil {
		query = query.Where("inventory_id = ?", *filter.InventoryID)
	}
	if filter.AlertType != nil {
		query = query.Where("alert_type = ?", *filter.AlertType)
	}
	if filter.Severity != nil {
		query = query.Where("severity = ?", *filter.Severity)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}
	return query
}

var _ inventory.AlertRepository = (*GormAlertRepository)(nil)
