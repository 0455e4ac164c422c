package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/o4o-platform/inventory-engine/internal/domain/shared"
)

// ItemStatus represents the derived stock status of an item
type ItemStatus string

const (
	ItemStatusInStock      ItemStatus = "in_stock"
	ItemStatusLowStock     ItemStatus = "low_stock"
	ItemStatusOutOfStock   ItemStatus = "out_of_stock"
	ItemStatusDiscontinued ItemStatus = "discontinued"
)

// DaysOfStockUnknown is stored in the days_of_stock column when the item
// has no sale velocity to project from.
const DaysOfStockUnknown = 999

// InventoryItem is the aggregate root for one vendor's stock of one product.
// Quantity is never mutated directly: every change flows through
// ApplyMovement so the ledger and the aggregate stay consistent.
type InventoryItem struct {
	shared.VendorAggregateRoot
	ProductID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_vendor_product" json:"product_id"`
	SKU             string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"sku"`
	ProductName     string    `gorm:"type:varchar(255);not null" json:"product_name"`
	ProductCategory string    `gorm:"type:varchar(100)" json:"product_category,omitempty"`

	Quantity          int `gorm:"not null;default:0" json:"quantity"`
	ReservedQuantity  int `gorm:"not null;default:0" json:"reserved_quantity"`
	AvailableQuantity int `gorm:"not null;default:0" json:"available_quantity"`
	MinQuantity       int `gorm:"not null;default:0" json:"min_quantity"`
	MaxQuantity       int `gorm:"not null;default:0" json:"max_quantity"`

	UnitCost   decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"unit_cost"`
	TotalValue decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"total_value"`

	Warehouse string `gorm:"type:varchar(100)" json:"warehouse,omitempty"`
	Location  string `gorm:"type:varchar(100)" json:"location,omitempty"`
	Bin       string `gorm:"type:varchar(50)" json:"bin,omitempty"`

	Status ItemStatus `gorm:"type:varchar(20);not null;default:'in_stock';index" json:"status"`

	BatchNumber  string     `gorm:"type:varchar(100)" json:"batch_number,omitempty"`
	SerialNumber string     `gorm:"type:varchar(100)" json:"serial_number,omitempty"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`

	DailyAvgSales   decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"daily_avg_sales"`
	WeeklyAvgSales  decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"weekly_avg_sales"`
	MonthlyAvgSales decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"monthly_avg_sales"`
	TurnoverRate    decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"turnover_rate"`
	DaysOfStock     int             `gorm:"not null;default:999" json:"days_of_stock"`

	ReorderPoint    int        `gorm:"not null;default:0" json:"reorder_point"`
	ReorderQuantity int        `gorm:"not null;default:0" json:"reorder_quantity"`
	LeadTimeDays    int        `gorm:"not null;default:0" json:"lead_time_days"`
	SupplierID      *uuid.UUID `gorm:"type:uuid" json:"supplier_id,omitempty"`
	SupplierName    string     `gorm:"type:varchar(255)" json:"supplier_name,omitempty"`

	LastRestockedAt *time.Time `json:"last_restocked_at,omitempty"`
	LastSoldAt      *time.Time `json:"last_sold_at,omitempty"`
	LastCountedAt   *time.Time `json:"last_counted_at,omitempty"`
	LastAdjustedAt  *time.Time `json:"last_adjusted_at,omitempty"`
}

// TableName returns the table name for GORM
func (InventoryItem) TableName() string {
	return "inventory"
}

// NewInventoryItem creates a new inventory record for a vendor's product
func NewInventoryItem(vendorID, productID uuid.UUID, sku, productName string) (*InventoryItem, error) {
	if sku == "" || productName == "" {
		return nil, shared.ErrInvalidInput
	}
	return &InventoryItem{
		VendorAggregateRoot: shared.NewVendorAggregateRoot(vendorID),
		ProductID:           productID,
		SKU:                 sku,
		ProductName:         productName,
		UnitCost:            decimal.Zero,
		TotalValue:          decimal.Zero,
		Status:              ItemStatusOutOfStock,
		DailyAvgSales:       decimal.Zero,
		WeeklyAvgSales:      decimal.Zero,
		MonthlyAvgSales:     decimal.Zero,
		TurnoverRate:        decimal.Zero,
		DaysOfStock:         DaysOfStockUnknown,
	}, nil
}

// ApplyMovement applies a ledger movement to the aggregate. The movement's
// recorded before-balance must match the current quantity; a mismatch means
// the caller read a stale aggregate and must re-read and rebuild the movement.
func (i *InventoryItem) ApplyMovement(m *StockMovement, now time.Time) error {
	if m.InventoryID != i.ID {
		return shared.ErrInvalidInput
	}
	if m.QuantityBefore != i.Quantity {
		return shared.ErrStaleAggregate
	}

	wasOut := i.Quantity == 0
	i.Quantity = m.QuantityAfter
	if i.ReservedQuantity > i.Quantity {
		i.ReservedQuantity = i.Quantity
	}
	i.stampMovement(m, now)
	i.recompute()
	i.Touch(now)

	i.AddDomainEvent(NewMovementRecordedEvent(i, m))
	if i.Quantity == 0 && !wasOut {
		i.AddDomainEvent(NewStockDepletedEvent(i))
	} else if i.isBelowMinimum() {
		i.AddDomainEvent(NewStockBelowMinimumEvent(i))
	} else if i.isAboveMaximum() {
		i.AddDomainEvent(NewStockAboveMaximumEvent(i))
	}
	return nil
}

func (i *InventoryItem) stampMovement(m *StockMovement, now time.Time) {
	switch m.MovementType {
	case MovementTypeSale:
		t := now
		i.LastSoldAt = &t
	case MovementTypePurchase, MovementTypeReturn, MovementTypeProduction:
		t := now
		i.LastRestockedAt = &t
	case MovementTypeAdjustment:
		t := now
		i.LastAdjustedAt = &t
	}
	if m.MovementType == MovementTypePurchase && m.UnitCost.IsPositive() {
		i.UnitCost = m.UnitCost
	}
	if m.BatchNumber != "" {
		i.BatchNumber = m.BatchNumber
	}
	if m.ExpiryDate != nil {
		i.ExpiryDate = m.ExpiryDate
	}
}

// recompute derives available quantity, total value and status. A
// discontinued item keeps its status until explicitly reactivated.
func (i *InventoryItem) recompute() {
	i.AvailableQuantity = i.Quantity - i.ReservedQuantity
	i.TotalValue = i.UnitCost.Mul(decimal.NewFromInt(int64(i.Quantity)))
	if i.Status == ItemStatusDiscontinued {
		return
	}
	switch {
	case i.Quantity == 0:
		i.Status = ItemStatusOutOfStock
	case i.MinQuantity > 0 && i.Quantity <= i.MinQuantity:
		i.Status = ItemStatusLowStock
	default:
		i.Status = ItemStatusInStock
	}
}

func (i *InventoryItem) isBelowMinimum() bool {
	return i.MinQuantity > 0 && i.Quantity > 0 && i.Quantity <= i.MinQuantity
}

func (i *InventoryItem) isAboveMaximum() bool {
	return i.MaxQuantity > 0 && i.Quantity > i.MaxQuantity
}

// Reserve holds part of the on-hand quantity for a pending order
func (i *InventoryItem) Reserve(quantity int, now time.Time) error {
	if quantity <= 0 {
		return shared.ErrInvalidQuantity
	}
	if i.ReservedQuantity+quantity > i.Quantity {
		return shared.ErrInsufficientStock
	}
	i.ReservedQuantity += quantity
	i.recompute()
	i.Touch(now)
	return nil
}

// ReleaseReservation returns previously reserved quantity to the pool
func (i *InventoryItem) ReleaseReservation(quantity int, now time.Time) error {
	if quantity <= 0 || quantity > i.ReservedQuantity {
		return shared.ErrInvalidQuantity
	}
	i.ReservedQuantity -= quantity
	i.recompute()
	i.Touch(now)
	return nil
}

// SetThresholds updates min/max stock levels and re-derives status
func (i *InventoryItem) SetThresholds(minQuantity, maxQuantity int, now time.Time) error {
	if minQuantity < 0 || maxQuantity < 0 {
		return shared.ErrInvalidInput
	}
	if maxQuantity > 0 && minQuantity > maxQuantity {
		return shared.ErrInvalidInput
	}
	i.MinQuantity = minQuantity
	i.MaxQuantity = maxQuantity
	i.recompute()
	i.Touch(now)
	return nil
}

// SetReorderPolicy updates the per-item reorder hints
func (i *InventoryItem) SetReorderPolicy(reorderPoint, reorderQuantity, leadTimeDays int, now time.Time) error {
	if reorderPoint < 0 || reorderQuantity < 0 || leadTimeDays < 0 {
		return shared.ErrInvalidInput
	}
	i.ReorderPoint = reorderPoint
	i.ReorderQuantity = reorderQuantity
	i.LeadTimeDays = leadTimeDays
	i.Touch(now)
	return nil
}

// SetAnalytics stores the refreshed velocity snapshot
func (i *InventoryItem) SetAnalytics(daily, weekly, monthly, turnover decimal.Decimal, daysOfStock int, now time.Time) {
	i.DailyAvgSales = daily
	i.WeeklyAvgSales = weekly
	i.MonthlyAvgSales = monthly
	i.TurnoverRate = turnover
	i.DaysOfStock = daysOfStock
	i.Touch(now)
}

// Discontinue soft-retires the item. Records are never hard-deleted while
// stock remains; a discontinued item keeps its ledger and balances.
func (i *InventoryItem) Discontinue(now time.Time) error {
	if i.Status == ItemStatusDiscontinued {
		return shared.ErrInvalidTransition
	}
	i.Status = ItemStatusDiscontinued
	i.Touch(now)
	return nil
}

// Reactivate returns a discontinued item to derived-status tracking
func (i *InventoryItem) Reactivate(now time.Time) error {
	if i.Status != ItemStatusDiscontinued {
		return shared.ErrInvalidTransition
	}
	i.Status = ItemStatusInStock
	i.recompute()
	i.Touch(now)
	return nil
}

// HasVelocity reports whether the item has a usable daily sales average
func (i *InventoryItem) HasVelocity() bool {
	return i.DailyAvgSales.IsPositive()
}

// DaysUntilExpiry returns the whole days until expiry; ok is false when the
// item has no expiry date.
func (i *InventoryItem) DaysUntilExpiry(now time.Time) (days int, ok bool) {
	if i.ExpiryDate == nil {
		return 0, false
	}
	return int(i.ExpiryDate.Sub(now).Hours() / 24), true
}

// IsDeadStock reports whether the item holds stock that has not sold within
// the given age. Items that never sold count from their creation time.
func (i *InventoryItem) IsDeadStock(now time.Time, age time.Duration) bool {
	if i.Quantity <= 0 || i.Status == ItemStatusDiscontinued {
		return false
	}
	last := i.CreatedAt
	if i.LastSoldAt != nil {
		last = *i.LastSoldAt
	}
	return now.Sub(last) >= age
}

// IsOverstocked reports whether on-hand stock exceeds the max threshold
func (i *InventoryItem) IsOverstocked() bool {
	return i.isAboveMaximum()
}
