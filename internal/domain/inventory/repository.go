package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/o4o-platform/inventory-engine/internal/domain/shared"
)

// ItemFilter narrows inventory item queries
type ItemFilter struct {
	shared.Filter
	VendorID     *uuid.UUID
	Status       *ItemStatus
	Warehouse    string
	Category     string
	LowStock     bool
	ExpiringSoon bool
}

// MovementFilter narrows movement history queries
type MovementFilter struct {
	shared.Filter
	MovementType *MovementType
	Start        *time.Time
	End          *time.Time
}

// RuleFilter narrows reorder rule queries
type RuleFilter struct {
	shared.Filter
	VendorID    *uuid.UUID
	IsActive    *bool
	TriggerType *TriggerType
}

// AlertFilter narrows alert queries. VendorID is resolved through the owning
// item since alerts carry only an inventory id.
type AlertFilter struct {
	shared.Filter
	VendorID    *uuid.UUID
	InventoryID *uuid.UUID
	AlertType   *AlertType
	Severity    *AlertSeverity
	Status      *AlertStatus
	UnreadOnly  bool
}

// ItemRepository is the aggregate store for inventory items
type ItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryItem, error)
	FindBySKU(ctx context.Context, sku string) (*InventoryItem, error)
	FindByVendorAndProduct(ctx context.Context, vendorID, productID uuid.UUID) (*InventoryItem, error)
	FindAll(ctx context.Context, filter ItemFilter) ([]InventoryItem, error)
	Count(ctx context.Context, filter ItemFilter) (int64, error)
	// FindDeadStock returns non-discontinued items holding stock whose last
	// sale (or creation, if never sold) predates the cutoff.
	FindDeadStock(ctx context.Context, soldBefore time.Time, filter ItemFilter) ([]InventoryItem, error)
	Save(ctx context.Context, item *InventoryItem) error
	// SaveWithLock persists the aggregate only if the stored version still
	// matches; returns ErrStaleAggregate when another writer won the race.
	SaveWithLock(ctx context.Context, item *InventoryItem) error
	// SaveAnalytics persists only the velocity snapshot columns. It never
	// touches quantities or the version, so it cannot revert a concurrent
	// ledger append.
	SaveAnalytics(ctx context.Context, item *InventoryItem) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// MovementRepository is the append-only ledger store. There is deliberately
// no update or delete: corrections are new adjustment movements.
type MovementRepository interface {
	Create(ctx context.Context, movement *StockMovement) error
	FindByID(ctx context.Context, id uuid.UUID) (*StockMovement, error)
	// FindByInventory returns a page of an item's history, newest first.
	FindByInventory(ctx context.Context, inventoryID uuid.UUID, filter MovementFilter) ([]StockMovement, error)
	CountByInventory(ctx context.Context, inventoryID uuid.UUID, filter MovementFilter) (int64, error)
	// FindSince streams movements for one item from a point in time, oldest
	// first, so interrupted readers can restart from the last seen timestamp.
	FindSince(ctx context.Context, inventoryID uuid.UUID, since time.Time, movementTypes ...MovementType) ([]StockMovement, error)
	// SumAbsoluteQuantitySince totals |quantity| for one item and movement
	// type within a window; feeds the velocity analytics.
	SumAbsoluteQuantitySince(ctx context.Context, inventoryID uuid.UUID, movementType MovementType, since time.Time) (int, error)
}

// RuleRepository stores reorder rules, at most one per item
type RuleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ReorderRule, error)
	FindByInventory(ctx context.Context, inventoryID uuid.UUID) (*ReorderRule, error)
	FindAll(ctx context.Context, filter RuleFilter) ([]ReorderRule, error)
	FindActive(ctx context.Context, filter RuleFilter) ([]ReorderRule, error)
	Count(ctx context.Context, filter RuleFilter) (int64, error)
	Save(ctx context.Context, rule *ReorderRule) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AlertRepository stores alert occurrences
type AlertRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryAlert, error)
	// FindActiveByItemAndType returns the single active alert for the pair,
	// or ErrAlertNotFound; this is the dedup lookup.
	FindActiveByItemAndType(ctx context.Context, inventoryID uuid.UUID, alertType AlertType) (*InventoryAlert, error)
	FindAll(ctx context.Context, filter AlertFilter) ([]InventoryAlert, error)
	Count(ctx context.Context, filter AlertFilter) (int64, error)
	// FindDueForAutoResolve returns active alerts whose scheduled resolve
	// time has elapsed.
	FindDueForAutoResolve(ctx context.Context, now time.Time) ([]InventoryAlert, error)
	Save(ctx context.Context, alert *InventoryAlert) error
	Delete(ctx context.Context, id uuid.UUID) error
}
