package inventory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/o4o-platform/inventory-engine/internal/domain/inventory"
	"github.com/o4o-platform/inventory-engine/internal/domain/shared"
)

// memoryItemRepo is an in-memory aggregate store with real optimistic
// locking, so concurrency behavior can be tested without a database.
type memoryItemRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]inventory.InventoryItem
}

func newMemoryItemRepo() *memoryItemRepo {
	return &memoryItemRepo{items: make(map[uuid.UUID]inventory.InventoryItem)}
}

func (r *memoryItemRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, shared.ErrItemNotFound
	}
	copied := item
	return &copied, nil
}

func (r *memoryItemRepo) FindBySKU(_ context.Context, sku string) (*inventory.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if item.SKU == sku {
			copied := item
			return &copied, nil
		}
	}
	return nil, shared.ErrItemNotFound
}

func (r *memoryItemRepo) FindByVendorAndProduct(_ context.Context, vendorID, productID uuid.UUID) (*inventory.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if item.VendorID == vendorID && item.ProductID == productID {
			copied := item
			return &copied, nil
		}
	}
	return nil, shared.ErrItemNotFound
}

func (r *memoryItemRepo) FindAll(_ context.Context, filter inventory.ItemFilter) ([]inventory.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.InventoryItem
	for _, item := range r.items {
		if filter.VendorID != nil && item.VendorID != *filter.VendorID {
			continue
		}
		if filter.Status != nil && item.Status != *filter.Status {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return paginate(out, filter.Filter), nil
}

func (r *memoryItemRepo) Count(_ context.Context, filter inventory.ItemFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, item := range r.items {
		if filter.VendorID != nil && item.VendorID != *filter.VendorID {
			continue
		}
		n++
	}
	return n, nil
}

func (r *memoryItemRepo) FindDeadStock(_ context.Context, soldBefore time.Time, filter inventory.ItemFilter) ([]inventory.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.InventoryItem
	for _, item := range r.items {
		if item.Quantity <= 0 || item.Status == inventory.ItemStatusDiscontinued {
			continue
		}
		last := item.CreatedAt
		if item.LastSoldAt != nil {
			last = *item.LastSoldAt
		}
		if last.Before(soldBefore) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return paginate(out, filter.Filter), nil
}

func (r *memoryItemRepo) Save(_ context.Context, item *inventory.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = *item
	return nil
}

func (r *memoryItemRepo) SaveWithLock(_ context.Context, item *inventory.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[item.ID]
	if !ok {
		return shared.ErrItemNotFound
	}
	if stored.Version != item.Version {
		return shared.ErrStaleAggregate
	}
	item.IncrementVersion()
	r.items[item.ID] = *item
	return nil
}

func (r *memoryItemRepo) SaveAnalytics(_ context.Context, item *inventory.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[item.ID]
	if !ok {
		return shared.ErrItemNotFound
	}
	stored.DailyAvgSales = item.DailyAvgSales
	stored.WeeklyAvgSales = item.WeeklyAvgSales
	stored.MonthlyAvgSales = item.MonthlyAvgSales
	stored.TurnoverRate = item.TurnoverRate
	stored.DaysOfStock = item.DaysOfStock
	stored.UpdatedAt = item.UpdatedAt
	r.items[item.ID] = stored
	return nil
}

func (r *memoryItemRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

// memoryMovementRepo is an in-memory append-only ledger
type memoryMovementRepo struct {
	mu        sync.Mutex
	movements []inventory.StockMovement
}

func newMemoryMovementRepo() *memoryMovementRepo {
	return &memoryMovementRepo{}
}

func (r *memoryMovementRepo) Create(_ context.Context, m *inventory.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *memoryMovementRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.movements {
		if r.movements[i].ID == id {
			copied := r.movements[i]
			return &copied, nil
		}
	}
	return nil, shared.ErrItemNotFound
}

func (r *memoryMovementRepo) FindByInventory(_ context.Context, inventoryID uuid.UUID, filter inventory.MovementFilter) ([]inventory.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.StockMovement
	for i := range r.movements {
		m := r.movements[i]
		if m.InventoryID != inventoryID {
			continue
		}
		if filter.MovementType != nil && m.MovementType != *filter.MovementType {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, filter.Filter), nil
}

func (r *memoryMovementRepo) CountByInventory(_ context.Context, inventoryID uuid.UUID, filter inventory.MovementFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.movements {
		if r.movements[i].InventoryID == inventoryID {
			n++
		}
	}
	return n, nil
}

func (r *memoryMovementRepo) FindSince(_ context.Context, inventoryID uuid.UUID, since time.Time, movementTypes ...inventory.MovementType) ([]inventory.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.StockMovement
	for i := range r.movements {
		m := r.movements[i]
		if m.InventoryID != inventoryID || m.CreatedAt.Before(since) {
			continue
		}
		if len(movementTypes) > 0 {
			match := false
			for _, mt := range movementTypes {
				if m.MovementType == mt {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryMovementRepo) SumAbsoluteQuantitySince(_ context.Context, inventoryID uuid.UUID, movementType inventory.MovementType, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := 0
	for i := range r.movements {
		m := r.movements[i]
		if m.InventoryID == inventoryID && m.MovementType == movementType && !m.CreatedAt.Before(since) {
			sum += m.AbsQuantity()
		}
	}
	return sum, nil
}

// memoryRuleRepo is an in-memory rule store, one rule per item
type memoryRuleRepo struct {
	mu    sync.Mutex
	rules map[uuid.UUID]inventory.ReorderRule
}

func newMemoryRuleRepo() *memoryRuleRepo {
	return &memoryRuleRepo{rules: make(map[uuid.UUID]inventory.ReorderRule)}
}

func (r *memoryRuleRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.ReorderRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[id]
	if !ok {
		return nil, shared.ErrRuleNotFound
	}
	copied := rule
	return &copied, nil
}

func (r *memoryRuleRepo) FindByInventory(_ context.Context, inventoryID uuid.UUID) (*inventory.ReorderRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rule := range r.rules {
		if rule.InventoryID == inventoryID {
			copied := rule
			return &copied, nil
		}
	}
	return nil, shared.ErrRuleNotFound
}

func (r *memoryRuleRepo) FindAll(_ context.Context, filter inventory.RuleFilter) ([]inventory.ReorderRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.ReorderRule
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return paginate(out, filter.Filter), nil
}

func (r *memoryRuleRepo) FindActive(_ context.Context, filter inventory.RuleFilter) ([]inventory.ReorderRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.ReorderRule
	for _, rule := range r.rules {
		if rule.IsActive {
			out = append(out, rule)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return paginate(out, filter.Filter), nil
}

func (r *memoryRuleRepo) Count(_ context.Context, _ inventory.RuleFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rules)), nil
}

func (r *memoryRuleRepo) Save(_ context.Context, rule *inventory.ReorderRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[rule.ID] = *rule
	return nil
}

func (r *memoryRuleRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rules, id)
	return nil
}

// memoryAlertRepo is an in-memory alert store
type memoryAlertRepo struct {
	mu     sync.Mutex
	alerts map[uuid.UUID]inventory.InventoryAlert
}

func newMemoryAlertRepo() *memoryAlertRepo {
	return &memoryAlertRepo{alerts: make(map[uuid.UUID]inventory.InventoryAlert)}
}

func (r *memoryAlertRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.InventoryAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	alert, ok := r.alerts[id]
	if !ok {
		return nil, shared.ErrAlertNotFound
	}
	copied := alert
	return &copied, nil
}

func (r *memoryAlertRepo) FindActiveByItemAndType(_ context.Context, inventoryID uuid.UUID, alertType inventory.AlertType) (*inventory.InventoryAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, alert := range r.alerts {
		if alert.InventoryID == inventoryID && alert.AlertType == alertType && alert.Status == inventory.AlertStatusActive {
			copied := alert
			return &copied, nil
		}
	}
	return nil, shared.ErrAlertNotFound
}

func (r *memoryAlertRepo) FindAll(_ context.Context, filter inventory.AlertFilter) ([]inventory.InventoryAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.InventoryAlert
	for _, alert := range r.alerts {
		if filter.InventoryID != nil && alert.InventoryID != *filter.InventoryID {
			continue
		}
		if filter.Status != nil && alert.Status != *filter.Status {
			continue
		}
		if filter.AlertType != nil && alert.AlertType != *filter.AlertType {
			continue
		}
		out = append(out, alert)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return paginate(out, filter.Filter), nil
}

func (r *memoryAlertRepo) Count(_ context.Context, filter inventory.AlertFilter) (int64, error) {
	all, _ := r.FindAll(context.Background(), inventory.AlertFilter{
		InventoryID: filter.InventoryID,
		Status:      filter.Status,
		AlertType:   filter.AlertType,
	})
	return int64(len(all)), nil
}

func (r *memoryAlertRepo) FindDueForAutoResolve(_ context.Context, now time.Time) ([]inventory.InventoryAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.InventoryAlert
	for _, alert := range r.alerts {
		if alert.Status == inventory.AlertStatusActive && alert.AutoResolve &&
			alert.ScheduledResolveAt != nil && !alert.ScheduledResolveAt.After(now) {
			out = append(out, alert)
		}
	}
	return out, nil
}

func (r *memoryAlertRepo) Save(_ context.Context, alert *inventory.InventoryAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts[alert.ID] = *alert
	return nil
}

func (r *memoryAlertRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.alerts, id)
	return nil
}

func paginate[T any](items []T, f shared.Filter) []T {
	if f.PageSize <= 0 {
		return items
	}
	start := f.Offset()
	if start >= len(items) {
		return nil
	}
	end := start + f.Limit()
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
