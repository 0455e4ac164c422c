package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/o4o-platform/inventory-engine/internal/domain/inventory"
	"github.com/o4o-platform/inventory-engine/internal/domain/shared"
)

// CreateItemCommand registers a new sellable item for a vendor
type CreateItemCommand struct {
	VendorID        uuid.UUID
	ProductID       uuid.UUID
	SKU             string
	ProductName     string
	ProductCategory string
	Warehouse       string
	Location        string
	MinQuantity     int
	MaxQuantity     int
	ReorderPoint    int
	ReorderQuantity int
	LeadTimeDays    int
	Actor           Actor
}

// ItemService owns the non-ledger mutations of the aggregate: registration,
// thresholds, reservations and lifecycle.
type ItemService struct {
	itemRepo inventory.ItemRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewItemService creates an item service
func NewItemService(itemRepo inventory.ItemRepository, logger *zap.Logger) *ItemService {
	return &ItemService{
		itemRepo: itemRepo,
		logger:   logger,
		now:      time.Now,
	}
}

// Create registers a vendor's product for stock tracking. The (vendor,
// product) pair and the SKU are unique.
func (s *ItemService) Create(ctx context.Context, cmd CreateItemCommand) (*ItemResponse, error) {
	if !cmd.Actor.CanAccessVendor(cmd.VendorID) {
		return nil, shared.ErrPermissionDenied
	}
	if existing, err := s.itemRepo.FindByVendorAndProduct(ctx, cmd.VendorID, cmd.ProductID); err == nil && existing != nil {
		return nil, shared.ErrAlreadyExists
	} else if err != nil && !errors.Is(err, shared.ErrItemNotFound) {
		return nil, err
	}

	item, err := inventory.NewInventoryItem(cmd.VendorID, cmd.ProductID, cmd.SKU, cmd.ProductName)
	if err != nil {
		return nil, err
	}
	now := s.now()
	item.ProductCategory = cmd.ProductCategory
	item.Warehouse = cmd.Warehouse
	item.Location = cmd.Location
	if err := item.SetThresholds(cmd.MinQuantity, cmd.MaxQuantity, now); err != nil {
		return nil, err
	}
	if err := item.SetReorderPolicy(cmd.ReorderPoint, cmd.ReorderQuantity, cmd.LeadTimeDays, now); err != nil {
		return nil, err
	}

	if err := s.itemRepo.Save(ctx, item); err != nil {
		return nil, err
	}
	s.logger.Info("inventory item registered",
		zap.String("inventory_id", item.ID.String()),
		zap.String("sku", item.SKU),
		zap.String("vendor_id", item.VendorID.String()))
	resp := ToItemResponse(item)
	return &resp, nil
}

// load fetches an item and enforces the vendor-scope rule
func (s *ItemService) load(ctx context.Context, actor Actor, id uuid.UUID) (*inventory.InventoryItem, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessVendor(item.VendorID) {
		return nil, shared.ErrPermissionDenied
	}
	return item, nil
}

// SetThresholds updates the min/max stock levels of an item
func (s *ItemService) SetThresholds(ctx context.Context, actor Actor, id uuid.UUID, minQuantity, maxQuantity int) (*ItemResponse, error) {
	item, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := item.SetThresholds(minQuantity, maxQuantity, s.now()); err != nil {
		return nil, err
	}
	if err := s.itemRepo.SaveWithLock(ctx, item); err != nil {
		return nil, err
	}
	resp := ToItemResponse(item)
	return &resp, nil
}

// Reserve holds stock for a pending order
func (s *ItemService) Reserve(ctx context.Context, actor Actor, id uuid.UUID, quantity int) (*ItemResponse, error) {
	item, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := item.Reserve(quantity, s.now()); err != nil {
		return nil, err
	}
	if err := s.itemRepo.SaveWithLock(ctx, item); err != nil {
		return nil, err
	}
	resp := ToItemResponse(item)
	return &resp, nil
}

// ReleaseReservation returns held stock to the available pool
func (s *ItemService) ReleaseReservation(ctx context.Context, actor Actor, id uuid.UUID, quantity int) (*ItemResponse, error) {
	item, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := item.ReleaseReservation(quantity, s.now()); err != nil {
		return nil, err
	}
	if err := s.itemRepo.SaveWithLock(ctx, item); err != nil {
		return nil, err
	}
	resp := ToItemResponse(item)
	return &resp, nil
}

// Discontinue soft-retires an item; its ledger and balances remain
func (s *ItemService) Discontinue(ctx context.Context, actor Actor, id uuid.UUID) (*ItemResponse, error) {
	item, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := item.Discontinue(s.now()); err != nil {
		return nil, err
	}
	if err := s.itemRepo.SaveWithLock(ctx, item); err != nil {
		return nil, err
	}
	resp := ToItemResponse(item)
	return &resp, nil
}

// Delete removes an item record entirely. Only allowed once the item holds
// no stock; otherwise discontinue it instead.
func (s *ItemService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	item, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if item.Quantity > 0 {
		return shared.ErrInvalidTransition
	}
	return s.itemRepo.Delete(ctx, id)
}
