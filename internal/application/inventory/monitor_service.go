package inventory

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/o4o-platform/inventory-engine/internal/domain/inventory"
	"github.com/o4o-platform/inventory-engine/internal/domain/shared"
)

// MonitorConfig tunes the detection thresholds of the stock monitor
type MonitorConfig struct {
	// ExpiryWarningDays is the window before expiry that raises a warning
	ExpiryWarningDays int
	// DeadStockAge is how long an item may sit unsold before it counts as
	// dead stock
	DeadStockAge time.Duration
}

// DefaultMonitorConfig returns the standard thresholds
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		ExpiryWarningDays: 30,
		DeadStockAge:      90 * 24 * time.Hour,
	}
}

// MonitorService walks the aggregate store on a schedule and turns abnormal
// conditions into alerts. It never mutates quantities.
type MonitorService struct {
	itemRepo inventory.ItemRepository
	alerts   *AlertService
	cfg      MonitorConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewMonitorService creates a stock monitor
func NewMonitorService(itemRepo inventory.ItemRepository, alerts *AlertService, cfg MonitorConfig, logger *zap.Logger) *MonitorService {
	if cfg.ExpiryWarningDays <= 0 {
		cfg.ExpiryWarningDays = 30
	}
	if cfg.DeadStockAge <= 0 {
		cfg.DeadStockAge = 90 * 24 * time.Hour
	}
	return &MonitorService{
		itemRepo: itemRepo,
		alerts:   alerts,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the time source, for tests
func (s *MonitorService) WithClock(now func() time.Time) *MonitorService {
	s.now = now
	return s
}

// LevelCheck inspects every item for level and expiry conditions. Per-item
// failures are logged and counted, never abort the batch.
func (s *MonitorService) LevelCheck(ctx context.Context) (processed, failed int) {
	filter := inventory.ItemFilter{Filter: shared.Filter{Page: 1, PageSize: batchPageSize, OrderBy: "created_at", OrderDir: "asc"}}
	for {
		items, err := s.itemRepo.FindAll(ctx, filter)
		if err != nil {
			s.logger.Error("level check could not list items", zap.Error(err))
			return processed, failed + 1
		}
		for i := range items {
			if err := s.checkItem(ctx, &items[i]); err != nil {
				failed++
				s.logger.Warn("level check failed for item",
					zap.String("inventory_id", items[i].ID.String()),
					zap.Error(err))
				continue
			}
			processed++
		}
		if len(items) < batchPageSize {
			return processed, failed
		}
		filter.Page++
	}
}

// checkItem raises at most one level alert and one expiry alert per pass.
// The level conditions are mutually exclusive by quantity; the dedup rule in
// the alert service keeps repeated passes from flooding.
func (s *MonitorService) checkItem(ctx context.Context, item *inventory.InventoryItem) error {
	if item.Status == inventory.ItemStatusDiscontinued {
		return nil
	}
	now := s.now()

	switch {
	case item.Quantity == 0:
		if _, err := s.alerts.Raise(ctx, item, inventory.AlertTypeOutOfStock); err != nil {
			return err
		}
	case item.MinQuantity > 0 && item.Quantity <= item.MinQuantity:
		if _, err := s.alerts.Raise(ctx, item, inventory.AlertTypeLowStock); err != nil {
			return err
		}
	case item.IsOverstocked():
		if _, err := s.alerts.Raise(ctx, item, inventory.AlertTypeOverstock); err != nil {
			return err
		}
	}

	if item.Quantity > 0 {
		if days, ok := item.DaysUntilExpiry(now); ok {
			switch {
			case days <= 0:
				if _, err := s.alerts.Raise(ctx, item, inventory.AlertTypeExpired); err != nil {
					return err
				}
			case days <= s.cfg.ExpiryWarningDays:
				if _, err := s.alerts.Raise(ctx, item, inventory.AlertTypeExpiryWarning); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// DeadStockScan raises dead_stock alerts for items holding unsold stock
// beyond the configured age.
func (s *MonitorService) DeadStockScan(ctx context.Context) (flagged, failed int) {
	now := s.now()
	cutoff := now.Add(-s.cfg.DeadStockAge)
	filter := inventory.ItemFilter{Filter: shared.Filter{Page: 1, PageSize: batchPageSize, OrderBy: "created_at", OrderDir: "asc"}}
	for {
		items, err := s.itemRepo.FindDeadStock(ctx, cutoff, filter)
		if err != nil {
			s.logger.Error("dead-stock scan could not list items", zap.Error(err))
			return flagged, failed + 1
		}
		for i := range items {
			item := &items[i]
			if !item.IsDeadStock(now, s.cfg.DeadStockAge) {
				continue
			}
			if _, err := s.alerts.Raise(ctx, item, inventory.AlertTypeDeadStock); err != nil {
				failed++
				s.logger.Warn("dead-stock alert failed for item",
					zap.String("inventory_id", item.ID.String()),
					zap.Error(err))
				continue
			}
			flagged++
		}
		if len(items) < batchPageSize {
			return flagged, failed
		}
		filter.Page++
	}
}
