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

// GormMovementRepository implements inventory.MovementRepository using GORM.
// The ledger is append-only: the repository exposes no update or delete.
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Create appends a movement to the ledger
func (r *GormMovementRepository) Create(ctx context.Context, movement *inventory.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// FindByID finds a movement by its ID
func (r *GormMovementRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockMovement, error) {
	var movement inventory.StockMovement
	if err := r.db.WithContext(ctx).First(&movement, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrItemNotFound
		}
		return nil, err
	}
	return &movement, nil
}

// FindByInventory returns a page of an item's history, newest first
func (r *GormMovementRepository) FindByInventory(ctx context.Context, inventoryID uuid.UUID, filter inventory.MovementFilter) ([]inventory.StockMovement, error) {
	var movements []inventory.StockMovement
	query := r.applyConditions(ctx, inventoryID, filter).
		Offset(filter.Offset()).Limit(filter.Limit()).
		Order("created_at DESC")

	if err := query.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// CountByInventory counts an item's movements matching the filter
func (r *GormMovementRepository) CountByInventory(ctx context.Context, inventoryID uuid.UUID, filter inventory.MovementFilter) (int64, error) {
	var count int64
	if err := r.applyConditions(ctx, inventoryID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindSince streams movements for one item from a point in time, oldest first
func (r *GormMovementRepository) FindSince(ctx context.Context, inventoryID uuid.UUID, since time.Time, movementTypes ...inventory.MovementType) ([]inventory.StockMovement, error) {
	query := r.db.WithContext(ctx).
		Where("inventory_id = ? AND created_at >= ?", inventoryID, since)
	if len(movementTypes) > 0 {
		query = query.Where("movement_type IN ?", movementTypes)
	}

	var movements []inventory.StockMovement
	if err := query.Order("created_at ASC").Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// SumAbsoluteQuantitySince totals |quantity| for one item and movement type
// within a window
func (r *GormMovementRepository) SumAbsoluteQuantitySince(ctx context.Context, inventoryID uuid.UUID, movementType inventory.MovementType, since time.Time) (int, error) {
	var result struct {
		Total int
	}
	if err := r.db.WithContext(ctx).
		Model(&inventory.StockMovement{}).
		Select("COALESCE(SUM(ABS(quantity)), 0) as total").
		Where("inventory_id = ? AND movement_type = ? AND created_at >= ?", inventoryID, movementType, since).
		Scan(&result).Error; err != nil {
		return 0, err
	}
	return result.Total, nil
}

func (r *GormMovementRepository) applyConditions(ctx context.Context, inventoryID uuid.UUID, filter inventory.MovementFilter) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&inventory.StockMovement{}).
		Where("inventory_id = ?", inventoryID)
	if filter.MovementType != nil {
		query = query.Where("movement_type = ?", *filter.MovementType)
	}
	if filter.Start != nil {
		query = query.Where("created_at >= ?", *filter.Start)
	}
	if filter.End != nil {
		query = query.Where("created_at < ?", *filter.End)
	}
	return query
}

var _ inventory.MovementRepository = (*GormMovementRepository)(nil)
