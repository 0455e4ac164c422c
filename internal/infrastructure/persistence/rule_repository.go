package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/o4o-platform/inventory-engine/internal/domain/inventory"
	"github.com/o4o-platform/inventory-engine/internal/domain/shared"
)

// GormRuleRepository implements inventory.RuleRepository using GORM
type GormRuleRepository struct {
	db *gorm.DB
}

// NewGormRuleRepository creates a new GormRuleRepository
func NewGormRuleRepository(db *gorm.DB) *GormRuleRepository {
	return &GormRuleRepository{db: db}
}

// FindByID finds a reorder rule by its ID
func (r *GormRuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.ReorderRule, error) {
	var rule inventory.ReorderRule
	if err := r.db.WithContext(ctx).First(&rule, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrRuleNotFound
		}
		return nil, err
	}
	return &rule, nil
}

// FindByInventory finds the single rule attached to an item
func (r *GormRuleRepository) FindByInventory(ctx context.Context, inventoryID uuid.UUID) (*inventory.ReorderRule, error) {
	var rule inventory.ReorderRule
	if err := r.db.WithContext(ctx).First(&rule, "inventory_id = ?", inventoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrRuleNotFound
		}
		return nil, err
	}
	return &rule, nil
}

// FindAll finds rules matching the filter
func (r *GormRuleRepository) FindAll(ctx context.Context, filter inventory.RuleFilter) ([]inventory.ReorderRule, error) {
	var rules []inventory.ReorderRule
	query := r.applyConditions(ctx, filter)
	query = applyPagination(query, filter.Filter)

	if err := query.Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// FindActive finds active rules matching the filter
func (r *GormRuleRepository) FindActive(ctx context.Context, filter inventory.RuleFilter) ([]inventory.ReorderRule, error) {
	active := true
	filter.IsActive = &active
	return r.FindAll(ctx, filter)
}

// Count counts rules matching the filter
func (r *GormRuleRepository) Count(ctx context.Context, filter inventory.RuleFilter) (int64, error) {
	var count int64
	if err := r.applyConditions(ctx, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a reorder rule
func (r *GormRuleRepository) Save(ctx context.Context, rule *inventory.ReorderRule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}

// Delete deletes a reorder rule
func (r *GormRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&inventory.ReorderRule{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrRuleNotFound
	}
	return nil
}

func (r *GormRuleRepository) applyConditions(ctx context.Context, filter inventory.RuleFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&inventory.ReorderRule{})
	if filter.VendorID != nil {
		query = query.Where(
			"inventory_id IN (?)",
			r.db.Model(&inventory.InventoryItem{}).Select("id").Where("vendor_id = ?", *filter.VendorID),
		)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.TriggerType != nil {
		query = query.Where("trigger_type = ?", *filter.TriggerType)
	}
	return query
}

var _ inventory.RuleRepository = (*GormRuleRepository)(nil)
