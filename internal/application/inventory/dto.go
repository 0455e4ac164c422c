package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/o4o-platform/inventory-engine/internal/domain/inventory"
	"github.com/o4o-platform/inventory-engine/internal/domain/shared"
)

// Actor identifies who is performing an operation. It comes pre-authenticated
// from the surrounding gateway; vendor-scoped actors carry their own vendor id
// and may only touch matching records, elevated roles may pass any vendor.
type Actor struct {
	UserID   uuid.UUID
	UserName string
	VendorID *uuid.UUID
	Role     string
}

// IsElevated reports whether the actor may cross vendor boundaries
func (a Actor) IsElevated() bool {
	return a.Role == "admin" || a.Role == "manager"
}

// CanAccessVendor checks the vendor-scope permission rule
func (a Actor) CanAccessVendor(vendorID uuid.UUID) bool {
	if a.IsElevated() {
		return true
	}
	return a.VendorID != nil && *a.VendorID == vendorID
}

// ItemResponse is the read model for an inventory item
type ItemResponse struct {
	ID                uuid.UUID            `json:"id"`
	VendorID          uuid.UUID            `json:"vendor_id"`
	ProductID         uuid.UUID            `json:"product_id"`
	SKU               string               `json:"sku"`
	ProductName       string               `json:"product_name"`
	ProductCategory   string               `json:"product_category,omitempty"`
	Quantity          int                  `json:"quantity"`
	ReservedQuantity  int                  `json:"reserved_quantity"`
	AvailableQuantity int                  `json:"available_quantity"`
	MinQuantity       int                  `json:"min_quantity"`
	MaxQuantity       int                  `json:"max_quantity"`
	UnitCost          decimal.Decimal      `json:"unit_cost"`
	TotalValue        decimal.Decimal      `json:"total_value"`
	Warehouse         string               `json:"warehouse,omitempty"`
	Location          string               `json:"location,omitempty"`
	Status            inventory.ItemStatus `json:"status"`
	ExpiryDate        *time.Time           `json:"expiry_date,omitempty"`
	DailyAvgSales     decimal.Decimal      `json:"daily_avg_sales"`
	WeeklyAvgSales    decimal.Decimal      `json:"weekly_avg_sales"`
	MonthlyAvgSales   decimal.Decimal      `json:"monthly_avg_sales"`
	TurnoverRate      decimal.Decimal      `json:"turnover_rate"`
	DaysOfStock       int                  `json:"days_of_stock"`
	ReorderPoint      int                  `json:"reorder_point"`
	ReorderQuantity   int                  `json:"reorder_quantity"`
	LastRestockedAt   *time.Time           `json:"last_restocked_at,omitempty"`
	LastSoldAt        *time.Time           `json:"last_sold_at,omitempty"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// ToItemResponse converts a domain item to its read model
func ToItemResponse(i *inventory.InventoryItem) ItemResponse {
	return ItemResponse{
		ID:                i.ID,
		VendorID:          i.VendorID,
		ProductID:         i.ProductID,
		SKU:               i.SKU,
		ProductName:       i.ProductName,
		ProductCategory:   i.ProductCategory,
		Quantity:          i.Quantity,
		ReservedQuantity:  i.ReservedQuantity,
		AvailableQuantity: i.AvailableQuantity,
		MinQuantity:       i.MinQuantity,
		MaxQuantity:       i.MaxQuantity,
		UnitCost:          i.UnitCost,
		TotalValue:        i.TotalValue,
		Warehouse:         i.Warehouse,
		Location:          i.Location,
		Status:            i.Status,
		ExpiryDate:        i.ExpiryDate,
		DailyAvgSales:     i.DailyAvgSales,
		WeeklyAvgSales:    i.WeeklyAvgSales,
		MonthlyAvgSales:   i.MonthlyAvgSales,
		TurnoverRate:      i.TurnoverRate,
		DaysOfStock:       i.DaysOfStock,
		ReorderPoint:      i.ReorderPoint,
		ReorderQuantity:   i.ReorderQuantity,
		LastRestockedAt:   i.LastRestockedAt,
		LastSoldAt:        i.LastSoldAt,
		UpdatedAt:         i.UpdatedAt,
	}
}

// MovementResponse is the read model for a ledger entry
type MovementResponse struct {
	ID              uuid.UUID                `json:"id"`
	InventoryID     uuid.UUID                `json:"inventory_id"`
	MovementType    inventory.MovementType   `json:"movement_type"`
	Quantity        int                      `json:"quantity"`
	QuantityBefore  int                      `json:"quantity_before"`
	QuantityAfter   int                      `json:"quantity_after"`
	UnitCost        decimal.Decimal          `json:"unit_cost"`
	TotalValue      decimal.Decimal          `json:"total_value"`
	ReferenceType   string                   `json:"reference_type,omitempty"`
	ReferenceNumber string                   `json:"reference_number,omitempty"`
	UserName        string                   `json:"user_name,omitempty"`
	Reason          string                   `json:"reason,omitempty"`
	Status          inventory.MovementStatus `json:"status"`
	CreatedAt       time.Time                `json:"created_at"`
}

// ToMovementResponse converts a domain movement to its read model
func ToMovementResponse(m *inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:              m.ID,
		InventoryID:     m.InventoryID,
		MovementType:    m.MovementType,
		Quantity:        m.Quantity,
		QuantityBefore:  m.QuantityBefore,
		QuantityAfter:   m.QuantityAfter,
		UnitCost:        m.UnitCost,
		TotalValue:      m.TotalValue,
		ReferenceType:   m.ReferenceType,
		ReferenceNumber: m.ReferenceNumber,
		UserName:        m.UserName,
		Reason:          m.Reason,
		Status:          m.Status,
		CreatedAt:       m.CreatedAt,
	}
}

// AlertResponse is the read model for an alert
type AlertResponse struct {
	ID                uuid.UUID               `json:"id"`
	InventoryID       uuid.UUID               `json:"inventory_id"`
	AlertType         inventory.AlertType     `json:"alert_type"`
	Severity          inventory.AlertSeverity `json:"severity"`
	Title             string                  `json:"title"`
	Message           string                  `json:"message"`
	RecommendedAction string                  `json:"recommended_action,omitempty"`
	Status            inventory.AlertStatus   `json:"status"`
	OccurrenceCount   int                     `json:"occurrence_count"`
	FirstOccurredAt   *time.Time              `json:"first_occurred_at,omitempty"`
	LastOccurredAt    *time.Time              `json:"last_occurred_at,omitempty"`
	AcknowledgedBy    string                  `json:"acknowledged_by,omitempty"`
	AcknowledgedAt    *time.Time              `json:"acknowledged_at,omitempty"`
	ResolvedBy        string                  `json:"resolved_by,omitempty"`
	ResolvedAt        *time.Time              `json:"resolved_at,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`
}

// ToAlertResponse converts a domain alert to its read model
func ToAlertResponse(a *inventory.InventoryAlert) AlertResponse {
	return AlertResponse{
		ID:                a.ID,
		InventoryID:       a.InventoryID,
		AlertType:         a.AlertType,
		Severity:          a.Severity,
		Title:             a.Title,
		Message:           a.Message,
		RecommendedAction: a.RecommendedAction,
		Status:            a.Status,
		OccurrenceCount:   a.OccurrenceCount,
		FirstOccurredAt:   a.FirstOccurredAt,
		LastOccurredAt:    a.LastOccurredAt,
		AcknowledgedBy:    a.AcknowledgedBy,
		AcknowledgedAt:    a.AcknowledgedAt,
		ResolvedBy:        a.ResolvedBy,
		ResolvedAt:        a.ResolvedAt,
		CreatedAt:         a.CreatedAt,
	}
}

// RuleResponse is the read model for a reorder rule
type RuleResponse struct {
	ID                   uuid.UUID                   `json:"id"`
	InventoryID          uuid.UUID                   `json:"inventory_id"`
	IsActive             bool                        `json:"is_active"`
	TriggerType          inventory.TriggerType       `json:"trigger_type"`
	ReorderPoint         int                         `json:"reorder_point"`
	ReorderQuantity      int                         `json:"reorder_quantity"`
	ForecastDays         int                         `json:"forecast_days"`
	SafetyStockDays      int                         `json:"safety_stock_days"`
	ScheduleFrequency    inventory.ScheduleFrequency `json:"schedule_frequency,omitempty"`
	NextScheduledReorder *time.Time                  `json:"next_scheduled_reorder,omitempty"`
	SupplierName         string                      `json:"supplier_name,omitempty"`
	TimesTriggered       int                         `json:"times_triggered"`
	OrdersCreated        int                         `json:"orders_created"`
	LastTriggeredAt      *time.Time                  `json:"last_triggered_at,omitempty"`
}

// ToRuleResponse converts a domain rule to its read model
func ToRuleResponse(r *inventory.ReorderRule) RuleResponse {
	return RuleResponse{
		ID:                   r.ID,
		InventoryID:          r.InventoryID,
		IsActive:             r.IsActive,
		TriggerType:          r.TriggerType,
		ReorderPoint:         r.ReorderPoint,
		ReorderQuantity:      r.ReorderQuantity,
		ForecastDays:         r.ForecastDays,
		SafetyStockDays:      r.SafetyStockDays,
		ScheduleFrequency:    r.ScheduleFrequency,
		NextScheduledReorder: r.NextScheduledReorder,
		SupplierName:         r.SupplierName,
		TimesTriggered:       r.TimesTriggered,
		OrdersCreated:        r.OrdersCreated,
		LastTriggeredAt:      r.LastTriggeredAt,
	}
}

// ToItemPage converts a domain slice to a paginated read model
func ToItemPage(items []inventory.InventoryItem, total int64, page, pageSize int) shared.Paginated[ItemResponse] {
	out := make([]ItemResponse, len(items))
	for idx := range items {
		out[idx] = ToItemResponse(&items[idx])
	}
	return shared.NewPaginated(out, total, page, pageSize)
}
