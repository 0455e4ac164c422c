package inventory

import (
	"github.com/google/uuid"

	"github.com/o4o-platform/inventory-engine/internal/domain/shared"
)

// Event type constants
const (
	EventTypeMovementRecorded  = "inventory.movement_recorded"
	EventTypeStockDepleted     = "inventory.stock_depleted"
	EventTypeStockBelowMinimum = "inventory.stock_below_minimum"
	EventTypeStockAboveMaximum = "inventory.stock_above_maximum"
	EventTypeReorderTriggered  = "inventory.reorder_triggered"
	EventTypeAlertRaised       = "inventory.alert_raised"
	EventTypeAlertResolved     = "inventory.alert_resolved"
)

const aggregateTypeInventoryItem = "InventoryItem"

// MovementRecordedEvent is emitted after every ledger append
type MovementRecordedEvent struct {
	shared.BaseDomainEvent
	MovementID     uuid.UUID    `json:"movement_id"`
	MovementType   MovementType `json:"movement_type"`
	Quantity       int          `json:"quantity"`
	QuantityBefore int          `json:"quantity_before"`
	QuantityAfter  int          `json:"quantity_after"`
	SKU            string       `json:"sku"`
}

// NewMovementRecordedEvent creates a movement recorded event
func NewMovementRecordedEvent(item *InventoryItem, m *StockMovement) *MovementRecordedEvent {
	return &MovementRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMovementRecorded, aggregateTypeInventoryItem, item.ID, item.VendorID),
		MovementID:      m.ID,
		MovementType:    m.MovementType,
		Quantity:        m.Quantity,
		QuantityBefore:  m.QuantityBefore,
		QuantityAfter:   m.QuantityAfter,
		SKU:             item.SKU,
	}
}

// StockDepletedEvent is emitted when an item's quantity reaches zero
type StockDepletedEvent struct {
	shared.BaseDomainEvent
	SKU         string `json:"sku"`
	ProductName string `json:"product_name"`
}

// NewStockDepletedEvent creates a stock depleted event
func NewStockDepletedEvent(item *InventoryItem) *StockDepletedEvent {
	return &StockDepletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockDepleted, aggregateTypeInventoryItem, item.ID, item.VendorID),
		SKU:             item.SKU,
		ProductName:     item.ProductName,
	}
}

// StockBelowMinimumEvent is emitted when stock crosses the minimum threshold
type StockBelowMinimumEvent struct {
	shared.BaseDomainEvent
	SKU         string `json:"sku"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	MinQuantity int    `json:"min_quantity"`
}

// NewStockBelowMinimumEvent creates a below-minimum event
func NewStockBelowMinimumEvent(item *InventoryItem) *StockBelowMinimumEvent {
	return &StockBelowMinimumEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowMinimum, aggregateTypeInventoryItem, item.ID, item.VendorID),
		SKU:             item.SKU,
		ProductName:     item.ProductName,
		Quantity:        item.Quantity,
		MinQuantity:     item.MinQuantity,
	}
}

// StockAboveMaximumEvent is emitted when stock exceeds the maximum threshold
type StockAboveMaximumEvent struct {
	shared.BaseDomainEvent
	SKU         string `json:"sku"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	MaxQuantity int    `json:"max_quantity"`
}

// NewStockAboveMaximumEvent creates an above-maximum event
func NewStockAboveMaximumEvent(item *InventoryItem) *StockAboveMaximumEvent {
	return &StockAboveMaximumEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAboveMaximum, aggregateTypeInventoryItem, item.ID, item.VendorID),
		SKU:             item.SKU,
		ProductName:     item.ProductName,
		Quantity:        item.Quantity,
		MaxQuantity:     item.MaxQuantity,
	}
}

// ReorderTriggeredEvent is emitted when a replenishment rule fires
type ReorderTriggeredEvent struct {
	shared.BaseDomainEvent
	RuleID          uuid.UUID   `json:"rule_id"`
	TriggerType     TriggerType `json:"trigger_type"`
	Reason          string      `json:"reason"`
	SKU             string      `json:"sku"`
	Quantity        int         `json:"quantity"`
	ReorderQuantity int         `json:"reorder_quantity"`
}

// NewReorderTriggeredEvent creates a reorder triggered event
func NewReorderTriggeredEvent(item *InventoryItem, rule *ReorderRule, reason string, reorderQuantity int) *ReorderTriggeredEvent {
	return &ReorderTriggeredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReorderTriggered, aggregateTypeInventoryItem, item.ID, item.VendorID),
		RuleID:          rule.ID,
		TriggerType:     rule.TriggerType,
		Reason:          reason,
		SKU:             item.SKU,
		Quantity:        item.Quantity,
		ReorderQuantity: reorderQuantity,
	}
}

// AlertRaisedEvent is emitted when a new alert record is created
type AlertRaisedEvent struct {
	shared.BaseDomainEvent
	AlertID   uuid.UUID     `json:"alert_id"`
	AlertType AlertType     `json:"alert_type"`
	Severity  AlertSeverity `json:"severity"`
	SKU       string        `json:"sku"`
}

// NewAlertRaisedEvent creates an alert raised event
func NewAlertRaisedEvent(item *InventoryItem, alert *InventoryAlert) *AlertRaisedEvent {
	return &AlertRaisedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAlertRaised, aggregateTypeInventoryItem, item.ID, item.VendorID),
		AlertID:         alert.ID,
		AlertType:       alert.AlertType,
		Severity:        alert.Severity,
		SKU:             item.SKU,
	}
}

// AlertResolvedEvent is emitted when an alert leaves the active set
type AlertResolvedEvent struct {
	shared.BaseDomainEvent
	AlertID    uuid.UUID `json:"alert_id"`
	AlertType  AlertType `json:"alert_type"`
	ResolvedBy string    `json:"resolved_by"`
}

// NewAlertResolvedEvent creates an alert resolved event
func NewAlertResolvedEvent(vendorID uuid.UUID, alert *InventoryAlert) *AlertResolvedEvent {
	return &AlertResolvedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAlertResolved, aggregateTypeInventoryItem, alert.InventoryID, vendorID),
		AlertID:         alert.ID,
		AlertType:       alert.AlertType,
		ResolvedBy:      alert.ResolvedBy,
	}
}
