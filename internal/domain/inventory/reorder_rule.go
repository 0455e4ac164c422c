package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/o4o-platform/inventory-engine/internal/domain/shared"
)

// TriggerType selects which single condition a reorder rule evaluates
type TriggerType string

const (
	TriggerTypeMinQuantity   TriggerType = "min_quantity"
	TriggerTypeForecast      TriggerType = "forecast"
	TriggerTypeFixedSchedule TriggerType = "fixed_schedule"
	TriggerTypeManual        TriggerType = "manual"
)

// IsValid checks if the trigger type is one of the closed set
func (t TriggerType) IsValid() bool {
	switch t {
	case TriggerTypeMinQuantity, TriggerTypeForecast, TriggerTypeFixedSchedule, TriggerTypeManual:
		return true
	}
	return false
}

// ScheduleFrequency is the period of a fixed_schedule rule
type ScheduleFrequency string

const (
	ScheduleDaily     ScheduleFrequency = "daily"
	ScheduleWeekly    ScheduleFrequency = "weekly"
	ScheduleBiweekly  ScheduleFrequency = "biweekly"
	ScheduleMonthly   ScheduleFrequency = "monthly"
	ScheduleQuarterly ScheduleFrequency = "quarterly"
)

// TriggerDecision is the outcome of evaluating one rule against one item
type TriggerDecision struct {
	Fired  bool
	Reason string
}

// ReorderRule is the replenishment policy for one inventory item. At most
// one rule exists per item; the evaluator reads it, only the configuring
// actor writes policy fields, and the engine writes the counters.
type ReorderRule struct {
	shared.BaseEntity
	InventoryID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex" json:"inventory_id"`
	IsActive    bool        `gorm:"not null;default:true" json:"is_active"`
	TriggerType TriggerType `gorm:"type:varchar(20);not null;default:'min_quantity'" json:"trigger_type"`

	MinQuantity     int `gorm:"not null;default:0" json:"min_quantity"`
	MaxQuantity     int `gorm:"not null;default:0" json:"max_quantity"`
	ReorderPoint    int `gorm:"not null;default:0" json:"reorder_point"`
	ReorderQuantity int `gorm:"not null;default:0" json:"reorder_quantity"`

	ForecastDays    int `gorm:"not null;default:30" json:"forecast_days"`
	SafetyStockDays int `gorm:"not null;default:7" json:"safety_stock_days"`

	ScheduleFrequency    ScheduleFrequency `gorm:"type:varchar(20)" json:"schedule_frequency,omitempty"`
	ScheduleDayOfWeek    *int              `json:"schedule_day_of_week,omitempty"`
	ScheduleDayOfMonth   *int              `json:"schedule_day_of_month,omitempty"`
	ScheduleTime         string            `gorm:"type:varchar(5)" json:"schedule_time,omitempty"`
	NextScheduledReorder *time.Time        `json:"next_scheduled_reorder,omitempty"`

	SupplierID    *uuid.UUID `gorm:"type:uuid" json:"supplier_id,omitempty"`
	SupplierName  string     `gorm:"type:varchar(255)" json:"supplier_name,omitempty"`
	SupplierEmail string     `gorm:"type:varchar(255)" json:"supplier_email,omitempty"`
	LeadTimeDays  int        `gorm:"not null;default:0" json:"lead_time_days"`

	MinOrderQuantity int             `gorm:"not null;default:0" json:"min_order_quantity"`
	MaxOrderQuantity int             `gorm:"not null;default:0" json:"max_order_quantity"`
	OrderMultiple    int             `gorm:"not null;default:0" json:"order_multiple"`
	MaxOrderValue    decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"max_order_value"`

	RequiresApproval  bool            `gorm:"not null;default:false" json:"requires_approval"`
	ApprovalThreshold decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"approval_threshold"`

	AutoCreatePurchaseOrder bool `gorm:"not null;default:false" json:"auto_create_purchase_order"`
	AutoSendToSupplier      bool `gorm:"not null;default:false" json:"auto_send_to_supplier"`

	NotifyOnTrigger    bool   `gorm:"not null;default:true" json:"notify_on_trigger"`
	NotifyOnOrder      bool   `gorm:"not null;default:true" json:"notify_on_order"`
	NotifyOnDelivery   bool   `gorm:"not null;default:false" json:"notify_on_delivery"`
	NotificationEmails string `gorm:"type:text" json:"notification_emails,omitempty"`

	TimesTriggered       int             `gorm:"not null;default:0" json:"times_triggered"`
	OrdersCreated        int             `gorm:"not null;default:0" json:"orders_created"`
	TotalQuantityOrdered int             `gorm:"not null;default:0" json:"total_quantity_ordered"`
	TotalValueOrdered    decimal.Decimal `gorm:"type:decimal(14,2);default:0" json:"total_value_ordered"`

	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty"`
	LastOrderedAt   *time.Time `json:"last_ordered_at,omitempty"`
	LastDeliveredAt *time.Time `json:"last_delivered_at,omitempty"`
}

// TableName returns the table name for GORM
func (ReorderRule) TableName() string {
	return "reorder_rules"
}

// NewReorderRule creates an active rule for an item
func NewReorderRule(inventoryID uuid.UUID, triggerType TriggerType) (*ReorderRule, error) {
	if !triggerType.IsValid() {
		return nil, shared.ErrInvalidInput
	}
	return &ReorderRule{
		BaseEntity:        shared.NewBaseEntity(),
		InventoryID:       inventoryID,
		IsActive:          true,
		TriggerType:       triggerType,
		ForecastDays:      30,
		SafetyStockDays:   7,
		MaxOrderValue:     decimal.Zero,
		ApprovalThreshold: decimal.Zero,
		NotifyOnTrigger:   true,
		NotifyOnOrder:     true,
		TotalValueOrdered: decimal.Zero,
	}, nil
}

// Evaluate checks exactly one condition selected by the trigger type and
// reports whether the rule fires, with a human-readable reason.
func (r *ReorderRule) Evaluate(item *InventoryItem, now time.Time) TriggerDecision {
	if !r.IsActive {
		return TriggerDecision{}
	}
	switch r.TriggerType {
	case TriggerTypeMinQuantity:
		if item.Quantity <= r.ReorderPoint {
			return TriggerDecision{
				Fired:  true,
				Reason: fmt.Sprintf("quantity %d at or below reorder point %d", item.Quantity, r.ReorderPoint),
			}
		}
	case TriggerTypeForecast:
		if item.HasVelocity() && item.DaysOfStock <= r.ForecastDays {
			return TriggerDecision{
				Fired:  true,
				Reason: fmt.Sprintf("%d days of stock remaining, forecast horizon %d days", item.DaysOfStock, r.ForecastDays),
			}
		}
	case TriggerTypeFixedSchedule:
		if r.NextScheduledReorder != nil && !now.Before(*r.NextScheduledReorder) {
			return TriggerDecision{
				Fired:  true,
				Reason: fmt.Sprintf("scheduled reorder slot %s reached", r.NextScheduledReorder.Format(time.RFC3339)),
			}
		}
	case TriggerTypeManual:
		// suppresses automatic evaluation for the item
	}
	return TriggerDecision{}
}

// AdvanceSchedule moves nextScheduledReorder one period forward from now,
// not from the missed slot, so a late evaluator cannot fire twice for the
// same period. Returns the new slot.
func (r *ReorderRule) AdvanceSchedule(now time.Time) time.Time {
	var next time.Time
	switch r.ScheduleFrequency {
	case ScheduleWeekly:
		next = now.AddDate(0, 0, 7)
		if r.ScheduleDayOfWeek != nil {
			next = nextWeekday(now, time.Weekday(*r.ScheduleDayOfWeek))
		}
	case ScheduleBiweekly:
		next = now.AddDate(0, 0, 14)
	case ScheduleMonthly:
		next = now.AddDate(0, 1, 0)
		if r.ScheduleDayOfMonth != nil {
			next = monthDay(now.Year(), now.Month()+1, *r.ScheduleDayOfMonth, now.Location())
		}
	case ScheduleQuarterly:
		next = now.AddDate(0, 3, 0)
	default: // daily
		next = now.AddDate(0, 0, 1)
	}
	if hh, mm, ok := parseScheduleTime(r.ScheduleTime); ok {
		next = time.Date(next.Year(), next.Month(), next.Day(), hh, mm, 0, 0, next.Location())
	}
	r.NextScheduledReorder = &next
	return next
}

// monthDay builds a date in the given month with the day clamped to the
// month's length, so day 31 lands on Feb 28 instead of normalizing into
// March.
func monthDay(year int, month time.Month, day int, loc *time.Location) time.Time {
	if last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day(); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func nextWeekday(from time.Time, day time.Weekday) time.Time {
	delta := (int(day) - int(from.Weekday()) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return from.AddDate(0, 0, delta)
}

func parseScheduleTime(s string) (hh, mm int, ok bool) {
	if len(s) != 5 || s[2] != ':' {
		return 0, 0, false
	}
	if _, err := fmt.Sscanf(s, "%02d:%02d", &hh, &mm); err != nil {
		return 0, 0, false
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, 0, false
	}
	return hh, mm, true
}

// MarkTriggered bumps the fire counters
func (r *ReorderRule) MarkTriggered(now time.Time) {
	r.TimesTriggered++
	t := now
	r.LastTriggeredAt = &t
	r.Touch(now)
}

// ClampOrderQuantity applies the rule's order constraints to a suggested
// quantity: raise to the minimum order size, cap at the maximum, then round
// up to the order multiple.
func (r *ReorderRule) ClampOrderQuantity(quantity int) int {
	if quantity < 0 {
		quantity = 0
	}
	if r.MinOrderQuantity > 0 && quantity < r.MinOrderQuantity {
		quantity = r.MinOrderQuantity
	}
	if r.MaxOrderQuantity > 0 && quantity > r.MaxOrderQuantity {
		quantity = r.MaxOrderQuantity
	}
	if r.OrderMultiple > 1 && quantity%r.OrderMultiple != 0 {
		quantity = ((quantity / r.OrderMultiple) + 1) * r.OrderMultiple
		if r.MaxOrderQuantity > 0 && quantity > r.MaxOrderQuantity {
			quantity -= r.OrderMultiple
		}
	}
	return quantity
}

// RecordOrder bumps the cumulative order counters after a replenishment
// request has been handed off.
func (r *ReorderRule) RecordOrder(quantity int, value decimal.Decimal, now time.Time) {
	r.OrdersCreated++
	r.TotalQuantityOrdered += quantity
	r.TotalValueOrdered = r.TotalValueOrdered.Add(value)
	t := now
	r.LastOrderedAt = &t
	r.Touch(now)
}

// Deactivate turns the rule off without deleting its history
func (r *ReorderRule) Deactivate(now time.Time) {
	r.IsActive = false
	r.Touch(now)
}

// Activate turns the rule back on
func (r *ReorderRule) Activate(now time.Time) {
	r.IsActive = true
	r.Touch(now)
}
