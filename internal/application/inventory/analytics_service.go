package inventory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/o4o-platform/inventory-engine/internal/domain/inventory"
	"github.com/o4o-platform/inventory-engine/internal/domain/shared"
)

// Forecast is the depletion projection read model. DaysOfStockKnown
// distinguishes "no depletion signal" from a literal day count: the stored
// column keeps the 999 sentinel for compatibility, readers get the flag.
type Forecast struct {
	InventoryID                uuid.UUID       `json:"inventory_id"`
	SKU                        string          `json:"sku"`
	CurrentStock               int             `json:"current_stock"`
	AvailableStock             int             `json:"available_stock"`
	DailyAvgSales              decimal.Decimal `json:"daily_avg_sales"`
	WeeklyAvgSales             decimal.Decimal `json:"weekly_avg_sales"`
	MonthlyAvgSales            decimal.Decimal `json:"monthly_avg_sales"`
	TurnoverRate               decimal.Decimal `json:"turnover_rate"`
	DaysOfStock                int             `json:"days_of_stock"`
	DaysOfStockKnown           bool            `json:"days_of_stock_known"`
	ProjectedStockout          *time.Time      `json:"projected_stockout,omitempty"`
	ForecastDays               int             `json:"forecast_days"`
	ProjectedDemand            decimal.Decimal `json:"projected_demand"`
	SafetyStock                decimal.Decimal `json:"safety_stock"`
	RecommendedReorderQuantity int             `json:"recommended_reorder_quantity"`
	RecommendedReorderDate     *time.Time      `json:"recommended_reorder_date,omitempty"`
	History                    SalesHistory    `json:"history"`
}

// SalesHistory summarizes the sale movements behind a forecast, over the
// trailing 30 days.
type SalesHistory struct {
	SaleCount   int `json:"sale_count"`
	MinQuantity int `json:"min_quantity"`
	MaxQuantity int `json:"max_quantity"`
	TotalUnits  int `json:"total_units"`
}

// demandBuffer pads projected demand by 20% when recommending a reorder
// quantity.
var demandBuffer = decimal.NewFromFloat(1.2)

// AnalyticsService recomputes per-item sale velocity from the ledger and
// projects depletion. It is the only writer of the aggregate's analytics
// fields.
type AnalyticsService struct {
	itemRepo     inventory.ItemRepository
	movementRepo inventory.MovementRepository
	logger       *zap.Logger
	now          func() time.Time
}

// NewAnalyticsService creates an analytics service
func NewAnalyticsService(itemRepo inventory.ItemRepository, movementRepo inventory.MovementRepository, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		itemRepo:     itemRepo,
		movementRepo: movementRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// WithClock overrides the time source, for tests
func (s *AnalyticsService) WithClock(now func() time.Time) *AnalyticsService {
	s.now = now
	return s
}

// RefreshItem recomputes the velocity snapshot for one item and writes it
// back to the aggregate.
func (s *AnalyticsService) RefreshItem(ctx context.Context, item *inventory.InventoryItem) error {
	now := s.now()

	sold1d, err := s.movementRepo.SumAbsoluteQuantitySince(ctx, item.ID, inventory.MovementTypeSale, now.Add(-24*time.Hour))
	if err != nil {
		return err
	}
	sold7d, err := s.movementRepo.SumAbsoluteQuantitySince(ctx, item.ID, inventory.MovementTypeSale, now.Add(-7*24*time.Hour))
	if err != nil {
		return err
	}
	sold30d, err := s.movementRepo.SumAbsoluteQuantitySince(ctx, item.ID, inventory.MovementTypeSale, now.Add(-30*24*time.Hour))
	if err != nil {
		return err
	}

	daily := decimal.NewFromInt(int64(sold1d))
	weekly := decimal.NewFromInt(int64(sold7d)).Div(decimal.NewFromInt(7)).Round(2)
	monthly := decimal.NewFromInt(int64(sold30d)).Div(decimal.NewFromInt(30)).Round(2)

	turnover := decimal.Zero
	if item.Quantity > 0 {
		turnover = monthly.Mul(decimal.NewFromInt(12)).Div(decimal.NewFromInt(int64(item.Quantity))).Round(2)
	}

	daysOfStock := inventory.DaysOfStockUnknown
	if daily.IsPositive() {
		daysOfStock = int(decimal.NewFromInt(int64(item.AvailableQuantity)).Div(daily).IntPart())
	}

	// the targeted write keeps a concurrently appended movement intact even
	// when this item snapshot is stale
	item.SetAnalytics(daily, weekly, monthly, turnover, daysOfStock, now)
	return s.itemRepo.SaveAnalytics(ctx, item)
}

// refreshWorkers bounds the per-item fan-out inside one refresh pass
const refreshWorkers = 8

// RefreshAll walks every item and refreshes its analytics, fanning out to a
// bounded set of workers per page. Per-item failures are logged and counted,
// never abort the batch.
func (s *AnalyticsService) RefreshAll(ctx context.Context) (processed, failed int) {
	filter := inventory.ItemFilter{Filter: shared.Filter{Page: 1, PageSize: batchPageSize, OrderBy: "created_at", OrderDir: "asc"}}
	var (
		okCount   atomic.Int64
		failCount atomic.Int64
	)
	for {
		items, err := s.itemRepo.FindAll(ctx, filter)
		if err != nil {
			s.logger.Error("analytics refresh could not list items", zap.Error(err))
			return int(okCount.Load()), int(failCount.Load()) + 1
		}

		var wg sync.WaitGroup
		sem := make(chan struct{}, refreshWorkers)
		for i := range items {
			wg.Add(1)
			sem <- struct{}{}
			go func(item *inventory.InventoryItem) {
				defer wg.Done()
				defer func() { <-sem }()
				if err := s.RefreshItem(ctx, item); err != nil {
					failCount.Add(1)
					s.logger.Warn("analytics refresh failed for item",
						zap.String("inventory_id", item.ID.String()),
						zap.Error(err))
					return
				}
				okCount.Add(1)
			}(&items[i])
		}
		wg.Wait()

		if len(items) < batchPageSize {
			return int(okCount.Load()), int(failCount.Load())
		}
		filter.Page++
	}
}

// ItemForecast projects depletion for one item over the given horizon.
// forecastDays defaults to 30 when not positive.
func (s *AnalyticsService) ItemForecast(ctx context.Context, actor Actor, inventoryID uuid.UUID, forecastDays int) (*Forecast, error) {
	item, err := s.itemRepo.FindByID(ctx, inventoryID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessVendor(item.VendorID) {
		return nil, shared.ErrPermissionDenied
	}
	if forecastDays <= 0 {
		forecastDays = 30
	}
	now := s.now()

	sales, err := s.movementRepo.FindSince(ctx, item.ID, now.Add(-30*24*time.Hour), inventory.MovementTypeSale)
	if err != nil {
		return nil, err
	}
	history := SalesHistory{SaleCount: len(sales)}
	for i := range sales {
		qty := sales[i].AbsQuantity()
		history.TotalUnits += qty
		if i == 0 || qty < history.MinQuantity {
			history.MinQuantity = qty
		}
		if qty > history.MaxQuantity {
			history.MaxQuantity = qty
		}
	}

	f := &Forecast{
		InventoryID:     item.ID,
		SKU:             item.SKU,
		CurrentStock:    item.Quantity,
		AvailableStock:  item.AvailableQuantity,
		DailyAvgSales:   item.DailyAvgSales,
		WeeklyAvgSales:  item.WeeklyAvgSales,
		MonthlyAvgSales: item.MonthlyAvgSales,
		TurnoverRate:    item.TurnoverRate,
		DaysOfStock:     item.DaysOfStock,
		ForecastDays:    forecastDays,
		ProjectedDemand: item.DailyAvgSales.Mul(decimal.NewFromInt(int64(forecastDays))).Round(2),
		SafetyStock:     decimal.Zero,
		History:         history,
	}

	if item.HasVelocity() {
		f.DaysOfStockKnown = true

		stockout := now.Add(time.Duration(float64(24*time.Hour) * float64(item.AvailableQuantity) / item.DailyAvgSales.InexactFloat64()))
		f.ProjectedStockout = &stockout

		// recommended = max(daily * horizon * 1.2 - available, 0)
		recommended := item.DailyAvgSales.
			Mul(decimal.NewFromInt(int64(forecastDays))).
			Mul(demandBuffer).
			Sub(decimal.NewFromInt(int64(item.AvailableQuantity)))
		if recommended.IsPositive() {
			f.RecommendedReorderQuantity = int(recommended.Ceil().IntPart())
		}

		f.SafetyStock = item.DailyAvgSales.Mul(decimal.NewFromInt(int64(item.LeadTimeDays))).Round(2)

		// reorder early enough to cover supplier lead time
		reorderAt := stockout.Add(-time.Duration(item.LeadTimeDays) * 24 * time.Hour)
		if reorderAt.Before(now) {
			reorderAt = now
		}
		f.RecommendedReorderDate = &reorderAt
	}
	return f, nil
}
