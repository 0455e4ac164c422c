package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/o4o-platform/inventory-engine/internal/domain/inventory"
	"github.com/o4o-platform/inventory-engine/internal/domain/shared"
)

// AppendMovementCommand describes one ledger append
type AppendMovementCommand struct {
	InventoryID  uuid.UUID
	MovementType inventory.MovementType
	// Quantity is the signed delta: positive inbound, negative outbound
	Quantity int
	// ExpectedQuantity, when set, asserts the caller's view of the current
	// balance; a mismatch fails with STALE_AGGREGATE before anything is
	// written.
	ExpectedQuantity *int
	UnitCost         *decimal.Decimal
	ReferenceType    string
	ReferenceNumber  string
	ReferenceID      *uuid.UUID
	Reason           string
	Notes            string
	BatchNumber      string
	ExpiryDate       *time.Time
	Actor            Actor
}

// LedgerService owns ledger appends. Each append writes the immutable
// movement and the recomputed aggregate in a single transaction; the
// aggregate's version column is the optimistic guard against concurrent
// writers of the same item.
type LedgerService struct {
	scope     TransactionScope
	itemRepo  inventory.ItemRepository
	publisher shared.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewLedgerService creates a ledger service
func NewLedgerService(scope TransactionScope, itemRepo inventory.ItemRepository, publisher shared.EventPublisher, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		scope:     scope,
		itemRepo:  itemRepo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the time source, for tests
func (s *LedgerService) WithClock(now func() time.Time) *LedgerService {
	s.now = now
	return s
}

// Append validates and commits one movement. On STALE_AGGREGATE the caller
// must re-read and retry (or use AppendWithRetry).
func (s *LedgerService) Append(ctx context.Context, cmd AppendMovementCommand) (*MovementResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, cmd.InventoryID)
	if err != nil {
		return nil, err
	}
	if !cmd.Actor.CanAccessVendor(item.VendorID) {
		return nil, shared.ErrPermissionDenied
	}
	if cmd.ExpectedQuantity != nil && *cmd.ExpectedQuantity != item.Quantity {
		return nil, shared.ErrStaleAggregate
	}

	movement, err := inventory.NewStockMovement(item.ID, cmd.MovementType, cmd.Quantity, item.Quantity)
	if err != nil {
		return nil, err
	}
	if cmd.UnitCost != nil {
		movement.WithUnitCost(*cmd.UnitCost)
	} else if item.UnitCost.IsPositive() {
		movement.WithUnitCost(item.UnitCost)
	}
	movement.WithReference(cmd.ReferenceType, cmd.ReferenceNumber, cmd.ReferenceID).
		WithActor(&cmd.Actor.UserID, cmd.Actor.UserName).
		WithReason(cmd.Reason, cmd.Notes).
		WithBatch(cmd.BatchNumber, "", cmd.ExpiryDate)

	now := s.now()
	if err := item.ApplyMovement(movement, now); err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.MovementRepo().Create(ctx, movement); err != nil {
			return err
		}
		return repos.ItemRepo().SaveWithLock(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	events := item.GetDomainEvents()
	item.ClearDomainEvents()
	if s.publisher != nil && len(events) > 0 {
		if pubErr := s.publisher.Publish(ctx, events...); pubErr != nil {
			s.logger.Warn("failed to publish movement events",
				zap.String("inventory_id", item.ID.String()),
				zap.Error(pubErr))
		}
	}

	s.logger.Info("movement appended",
		zap.String("inventory_id", item.ID.String()),
		zap.String("sku", item.SKU),
		zap.String("movement_type", string(cmd.MovementType)),
		zap.Int("quantity", cmd.Quantity),
		zap.Int("quantity_after", movement.QuantityAfter))

	resp := ToMovementResponse(movement)
	return &resp, nil
}

// AppendWithRetry re-reads and retries an append that lost the optimistic
// race, up to maxRetries times. Any other failure is returned immediately.
func (s *LedgerService) AppendWithRetry(ctx context.Context, cmd AppendMovementCommand, maxRetries int) (*MovementResponse, error) {
	if maxRetries < 1 {
		maxRetries = 1
	}
	// the expected-balance assertion only makes sense for the first attempt
	firstCmd := cmd
	cmd.ExpectedQuantity = nil

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		c := cmd
		if attempt == 0 {
			c = firstCmd
		}
		resp, err := s.Append(ctx, c)
		if err == nil {
			return resp, nil
		}
		if !errors.Is(err, shared.ErrStaleAggregate) {
			return nil, err
		}
		lastErr = err
		s.logger.Debug("append lost optimistic race, retrying",
			zap.String("inventory_id", cmd.InventoryID.String()),
			zap.Int("attempt", attempt+1))
	}
	return nil, lastErr
}

// MovementsSince returns an item's ledger entries from a point in time,
// oldest first, optionally restricted to movement types. Readers resume by
// passing the timestamp of the last entry they processed.
func (s *LedgerService) MovementsSince(ctx context.Context, actor Actor, inventoryID uuid.UUID, since time.Time, movementTypes ...inventory.MovementType) ([]MovementResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, inventoryID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessVendor(item.VendorID) {
		return nil, shared.ErrPermissionDenied
	}

	var movements []inventory.StockMovement
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var e error
		movements, e = repos.MovementRepo().FindSince(ctx, inventoryID, since, movementTypes...)
		return e
	})
	if err != nil {
		return nil, err
	}
	out := make([]MovementResponse, len(movements))
	for i := range movements {
		out[i] = ToMovementResponse(&movements[i])
	}
	return out, nil
}

// MovementHistory returns a page of an item's history, newest first
func (s *LedgerService) MovementHistory(ctx context.Context, actor Actor, inventoryID uuid.UUID, filter inventory.MovementFilter) (*shared.Paginated[MovementResponse], error) {
	item, err := s.itemRepo.FindByID(ctx, inventoryID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessVendor(item.VendorID) {
		return nil, shared.ErrPermissionDenied
	}

	var (
		movements []inventory.StockMovement
		total     int64
	)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var e error
		if movements, e = repos.MovementRepo().FindByInventory(ctx, inventoryID, filter); e != nil {
			return e
		}
		total, e = repos.MovementRepo().CountByInventory(ctx, inventoryID, filter)
		return e
	})
	if err != nil {
		return nil, err
	}
	out := make([]MovementResponse, len(movements))
	for i := range movements {
		out[i] = ToMovementResponse(&movements[i])
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.PageSize)
	return &page, nil
}
