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

// ReplenishmentRequest is handed off to the external procurement
// collaborator when a rule with auto-ordering fires.
type ReplenishmentRequest struct {
	RuleID         uuid.UUID       `json:"rule_id"`
	InventoryID    uuid.UUID       `json:"inventory_id"`
	VendorID       uuid.UUID       `json:"vendor_id"`
	SKU            string          `json:"sku"`
	Quantity       int             `json:"quantity"`
	SupplierID     *uuid.UUID      `json:"supplier_id,omitempty"`
	EstimatedValue decimal.Decimal `json:"estimated_value"`
	Reason         string          `json:"reason"`
}

// PurchaseRequester receives replenishment hand-offs. Order placement itself
// is a collaborator concern.
type PurchaseRequester interface {
	RequestReplenishment(ctx context.Context, req ReplenishmentRequest) error
}

// ReorderService evaluates replenishment rules against current aggregate
// state. Rules are read-only policy to it; it writes only the counters.
type ReorderService struct {
	ruleRepo  inventory.RuleRepository
	itemRepo  inventory.ItemRepository
	alerts    *AlertService
	purchaser PurchaseRequester
	publisher shared.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewReorderService creates a reorder service. purchaser may be nil when no
// procurement collaborator is wired.
func NewReorderService(ruleRepo inventory.RuleRepository, itemRepo inventory.ItemRepository, alerts *AlertService, purchaser PurchaseRequester, publisher shared.EventPublisher, logger *zap.Logger) *ReorderService {
	return &ReorderService{
		ruleRepo:  ruleRepo,
		itemRepo:  itemRepo,
		alerts:    alerts,
		purchaser: purchaser,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the time source, for tests
func (s *ReorderService) WithClock(now func() time.Time) *ReorderService {
	s.now = now
	return s
}

// EvaluateAll walks every active rule and evaluates it. Per-rule failures
// are logged and counted, never abort the batch.
func (s *ReorderService) EvaluateAll(ctx context.Context) (fired, failed int) {
	filter := inventory.RuleFilter{Filter: shared.Filter{Page: 1, PageSize: batchPageSize, OrderBy: "created_at", OrderDir: "asc"}}
	for {
		rules, err := s.ruleRepo.FindActive(ctx, filter)
		if err != nil {
			s.logger.Error("rule evaluation could not list rules", zap.Error(err))
			return fired, failed + 1
		}
		for i := range rules {
			didFire, err := s.evaluateRule(ctx, &rules[i])
			if err != nil {
				failed++
				s.logger.Warn("rule evaluation failed",
					zap.String("rule_id", rules[i].ID.String()),
					zap.String("inventory_id", rules[i].InventoryID.String()),
					zap.Error(err))
				continue
			}
			if didFire {
				fired++
			}
		}
		if len(rules) < batchPageSize {
			return fired, failed
		}
		filter.Page++
	}
}

// evaluateRule runs one rule against its item's current state. For
// fixed-schedule rules the advanced slot is persisted before any dispatch so
// a slow or failed dispatch cannot double-fire the same period.
func (s *ReorderService) evaluateRule(ctx context.Context, rule *inventory.ReorderRule) (bool, error) {
	item, err := s.itemRepo.FindByID(ctx, rule.InventoryID)
	if err != nil {
		return false, err
	}
	now := s.now()

	decision := rule.Evaluate(item, now)
	if !decision.Fired {
		return false, nil
	}

	if rule.TriggerType == inventory.TriggerTypeFixedSchedule {
		rule.AdvanceSchedule(now)
		if err := s.ruleRepo.Save(ctx, rule); err != nil {
			return false, err
		}
	}

	rule.MarkTriggered(now)
	if err := s.ruleRepo.Save(ctx, rule); err != nil {
		return false, err
	}

	quantity := rule.ClampOrderQuantity(s.suggestedQuantity(item, rule))

	if _, err := s.alerts.Raise(ctx, item, inventory.AlertTypeReorderPoint, WithReason(decision.Reason)); err != nil {
		s.logger.Warn("reorder alert could not be raised",
			zap.String("rule_id", rule.ID.String()),
			zap.Error(err))
	}

	if s.publisher != nil {
		if pubErr := s.publisher.Publish(ctx, inventory.NewReorderTriggeredEvent(item, rule, decision.Reason, quantity)); pubErr != nil {
			s.logger.Warn("failed to publish reorder event", zap.Error(pubErr))
		}
	}

	if rule.AutoCreatePurchaseOrder && s.purchaser != nil && quantity > 0 {
		value := item.UnitCost.Mul(decimal.NewFromInt(int64(quantity)))
		if rule.MaxOrderValue.IsPositive() && value.GreaterThan(rule.MaxOrderValue) {
			s.logger.Warn("replenishment skipped: order value above rule cap",
				zap.String("rule_id", rule.ID.String()),
				zap.String("value", value.String()),
				zap.String("cap", rule.MaxOrderValue.String()))
		} else {
			req := ReplenishmentRequest{
				RuleID:         rule.ID,
				InventoryID:    item.ID,
				VendorID:       item.VendorID,
				SKU:            item.SKU,
				Quantity:       quantity,
				SupplierID:     rule.SupplierID,
				EstimatedValue: value,
				Reason:         decision.Reason,
			}
			if err := s.purchaser.RequestReplenishment(ctx, req); err != nil {
				s.logger.Warn("replenishment hand-off failed",
					zap.String("rule_id", rule.ID.String()),
					zap.Error(err))
			} else {
				rule.RecordOrder(quantity, value, now)
				if err := s.ruleRepo.Save(ctx, rule); err != nil {
					return true, err
				}
			}
		}
	}

	s.logger.Info("reorder rule fired",
		zap.String("rule_id", rule.ID.String()),
		zap.String("sku", item.SKU),
		zap.String("trigger", string(rule.TriggerType)),
		zap.String("reason", decision.Reason),
		zap.Int("suggested_quantity", quantity))
	return true, nil
}

// suggestedQuantity picks the raw order size before clamping: the rule's
// configured quantity, the item's fallback, or a velocity-based projection.
func (s *ReorderService) suggestedQuantity(item *inventory.InventoryItem, rule *inventory.ReorderRule) int {
	if rule.ReorderQuantity > 0 {
		return rule.ReorderQuantity
	}
	if item.ReorderQuantity > 0 {
		return item.ReorderQuantity
	}
	if item.HasVelocity() {
		horizon := rule.ForecastDays + rule.SafetyStockDays
		projected := item.DailyAvgSales.Mul(decimal.NewFromInt(int64(horizon))).Mul(demandBuffer).
			Sub(decimal.NewFromInt(int64(item.AvailableQuantity)))
		if projected.IsPositive() {
			return int(projected.Ceil().IntPart())
		}
	}
	return 0
}

// GetRule returns the rule for an item
func (s *ReorderService) GetRule(ctx context.Context, actor Actor, inventoryID uuid.UUID) (*RuleResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, inventoryID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessVendor(item.VendorID) {
		return nil, shared.ErrPermissionDenied
	}
	rule, err := s.ruleRepo.FindByInventory(ctx, inventoryID)
	if err != nil {
		return nil, err
	}
	resp := ToRuleResponse(rule)
	return &resp, nil
}

// UpsertRuleCommand carries the configurable policy fields of a rule
type UpsertRuleCommand struct {
	InventoryID             uuid.UUID
	TriggerType             inventory.TriggerType
	IsActive                bool
	ReorderPoint            int
	ReorderQuantity         int
	ForecastDays            int
	SafetyStockDays         int
	ScheduleFrequency       inventory.ScheduleFrequency
	ScheduleDayOfWeek       *int
	ScheduleDayOfMonth      *int
	ScheduleTime            string
	SupplierID              *uuid.UUID
	SupplierName            string
	MinOrderQuantity        int
	MaxOrderQuantity        int
	OrderMultiple           int
	AutoCreatePurchaseOrder bool
	NotificationEmails      string
}

// UpsertRule creates or updates the single rule for an item
func (s *ReorderService) UpsertRule(ctx context.Context, actor Actor, cmd UpsertRuleCommand) (*RuleResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, cmd.InventoryID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessVendor(item.VendorID) {
		return nil, shared.ErrPermissionDenied
	}
	if !cmd.TriggerType.IsValid() {
		return nil, shared.ErrInvalidInput
	}
	now := s.now()

	rule, err := s.ruleRepo.FindByInventory(ctx, cmd.InventoryID)
	if errors.Is(err, shared.ErrRuleNotFound) {
		rule, err = inventory.NewReorderRule(cmd.InventoryID, cmd.TriggerType)
		if err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	rule.TriggerType = cmd.TriggerType
	rule.IsActive = cmd.IsActive
	rule.ReorderPoint = cmd.ReorderPoint
	rule.ReorderQuantity = cmd.ReorderQuantity
	if cmd.ForecastDays > 0 {
		rule.ForecastDays = cmd.ForecastDays
	}
	if cmd.SafetyStockDays > 0 {
		rule.SafetyStockDays = cmd.SafetyStockDays
	}
	rule.ScheduleFrequency = cmd.ScheduleFrequency
	rule.ScheduleDayOfWeek = cmd.ScheduleDayOfWeek
	rule.ScheduleDayOfMonth = cmd.ScheduleDayOfMonth
	rule.ScheduleTime = cmd.ScheduleTime
	rule.SupplierID = cmd.SupplierID
	rule.SupplierName = cmd.SupplierName
	rule.MinOrderQuantity = cmd.MinOrderQuantity
	rule.MaxOrderQuantity = cmd.MaxOrderQuantity
	rule.OrderMultiple = cmd.OrderMultiple
	rule.AutoCreatePurchaseOrder = cmd.AutoCreatePurchaseOrder
	rule.NotificationEmails = cmd.NotificationEmails
	if cmd.TriggerType == inventory.TriggerTypeFixedSchedule && rule.NextScheduledReorder == nil {
		rule.AdvanceSchedule(now)
	}
	rule.Touch(now)

	if err := s.ruleRepo.Save(ctx, rule); err != nil {
		return nil, err
	}
	resp := ToRuleResponse(rule)
	return &resp, nil
}

// ListRules returns rules visible to the actor
func (s *ReorderService) ListRules(ctx context.Context, actor Actor, filter inventory.RuleFilter) (*shared.Paginated[RuleResponse], error) {
	if !actor.IsElevated() {
		if actor.VendorID == nil {
			return nil, shared.ErrPermissionDenied
		}
		filter.VendorID = actor.VendorID
	}
	rules, err := s.ruleRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.ruleRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]RuleResponse, len(rules))
	for i := range rules {
		out[i] = ToRuleResponse(&rules[i])
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.PageSize)
	return &page, nil
}
