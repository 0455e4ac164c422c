package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/o4o-platform/inventory-engine/internal/domain/inventory"
	"github.com/o4o-platform/inventory-engine/internal/domain/shared"
)

// batchPageSize is the page size used when a job or summary walks the whole
// item set.
const batchPageSize = 200

// ValueSummary aggregates stock value across a vendor's items
type ValueSummary struct {
	TotalItems    int64                                    `json:"total_items"`
	TotalUnits    int                                      `json:"total_units"`
	TotalValue    decimal.Decimal                          `json:"total_value"`
	ByStatus      map[inventory.ItemStatus]int64           `json:"by_status"`
	ValueByStatus map[inventory.ItemStatus]decimal.Decimal `json:"value_by_status"`
	ByCategory    map[string]decimal.Decimal               `json:"by_category"`
	TopItems      []ItemResponse                           `json:"top_items"`
}

// QueryService serves read access over inventory items with vendor scoping
type QueryService struct {
	itemRepo inventory.ItemRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewQueryService creates a query service
func NewQueryService(itemRepo inventory.ItemRepository, logger *zap.Logger) *QueryService {
	return &QueryService{
		itemRepo: itemRepo,
		logger:   logger,
		now:      time.Now,
	}
}

// scopeFilter pins non-elevated actors to their own vendor
func scopeFilter(actor Actor, filter *inventory.ItemFilter) error {
	if actor.IsElevated() {
		return nil
	}
	if actor.VendorID == nil {
		return shared.ErrPermissionDenied
	}
	if filter.VendorID != nil && *filter.VendorID != *actor.VendorID {
		return shared.ErrPermissionDenied
	}
	filter.VendorID = actor.VendorID
	return nil
}

// List returns a filtered page of items the actor may see
func (s *QueryService) List(ctx context.Context, actor Actor, filter inventory.ItemFilter) (*shared.Paginated[ItemResponse], error) {
	if err := scopeFilter(actor, &filter); err != nil {
		return nil, err
	}
	items, err := s.itemRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.itemRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := ToItemPage(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Get returns one item by id
func (s *QueryService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*ItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessVendor(item.VendorID) {
		return nil, shared.ErrPermissionDenied
	}
	resp := ToItemResponse(item)
	return &resp, nil
}

// GetBySKU returns one item by its unique SKU
func (s *QueryService) GetBySKU(ctx context.Context, actor Actor, sku string) (*ItemResponse, error) {
	item, err := s.itemRepo.FindBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessVendor(item.VendorID) {
		return nil, shared.ErrPermissionDenied
	}
	resp := ToItemResponse(item)
	return &resp, nil
}

// DeadStock returns items holding stock with no sale inside the age window
func (s *QueryService) DeadStock(ctx context.Context, actor Actor, age time.Duration, filter inventory.ItemFilter) ([]ItemResponse, error) {
	if err := scopeFilter(actor, &filter); err != nil {
		return nil, err
	}
	cutoff := s.now().Add(-age)
	items, err := s.itemRepo.FindDeadStock(ctx, cutoff, filter)
	if err != nil {
		return nil, err
	}
	out := make([]ItemResponse, len(items))
	for i := range items {
		out[i] = ToItemResponse(&items[i])
	}
	return out, nil
}

// Value walks the actor's items and aggregates stock value by status and
// category, with the ten most valuable items on top.
func (s *QueryService) Value(ctx context.Context, actor Actor, filter inventory.ItemFilter) (*ValueSummary, error) {
	if err := scopeFilter(actor, &filter); err != nil {
		return nil, err
	}
	summary := &ValueSummary{
		TotalValue:    decimal.Zero,
		ByStatus:      make(map[inventory.ItemStatus]int64),
		ValueByStatus: make(map[inventory.ItemStatus]decimal.Decimal),
		ByCategory:    make(map[string]decimal.Decimal),
	}
	var all []inventory.InventoryItem

	filter.Page = 1
	filter.PageSize = batchPageSize
	for {
		items, err := s.itemRepo.FindAll(ctx, filter)
		if err != nil {
			return nil, err
		}
		for i := range items {
			item := &items[i]
			summary.TotalItems++
			summary.TotalUnits += item.Quantity
			summary.TotalValue = summary.TotalValue.Add(item.TotalValue)
			summary.ByStatus[item.Status]++
			summary.ValueByStatus[item.Status] = summary.ValueByStatus[item.Status].Add(item.TotalValue)
			category := item.ProductCategory
			if category == "" {
				category = "uncategorized"
			}
			summary.ByCategory[category] = summary.ByCategory[category].Add(item.TotalValue)
		}
		all = append(all, items...)
		if len(items) < batchPageSize {
			break
		}
		filter.Page++
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].TotalValue.GreaterThan(all[j].TotalValue)
	})
	top := len(all)
	if top > 10 {
		top = 10
	}
	summary.TopItems = make([]ItemResponse, top)
	for i := 0; i < top; i++ {
		summary.TopItems[i] = ToItemResponse(&all[i])
	}
	return summary, nil
}
