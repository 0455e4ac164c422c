package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/o4o-platform/inventory-engine/internal/domain/shared"
)

// MovementType classifies a stock movement
type MovementType string

const (
	MovementTypePurchase    MovementType = "purchase"
	MovementTypeSale        MovementType = "sale"
	MovementTypeReturn      MovementType = "return"
	MovementTypeAdjustment  MovementType = "adjustment"
	MovementTypeTransfer    MovementType = "transfer"
	MovementTypeDamage      MovementType = "damage"
	MovementTypeTheft       MovementType = "theft"
	MovementTypeExpiry      MovementType = "expiry"
	MovementTypeProduction  MovementType = "production"
	MovementTypeConsumption MovementType = "consumption"
)

// IsValid checks if the movement type is one of the closed set
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypePurchase, MovementTypeSale, MovementTypeReturn,
		MovementTypeAdjustment, MovementTypeTransfer, MovementTypeDamage,
		MovementTypeTheft, MovementTypeExpiry, MovementTypeProduction,
		MovementTypeConsumption:
		return true
	}
	return false
}

// IsLoss reports whether the type records shrinkage rather than trade
func (t MovementType) IsLoss() bool {
	switch t {
	case MovementTypeDamage, MovementTypeTheft, MovementTypeExpiry:
		return true
	}
	return false
}

// MovementStatus represents the lifecycle state of a movement
type MovementStatus string

const (
	MovementStatusPending   MovementStatus = "pending"
	MovementStatusCompleted MovementStatus = "completed"
	MovementStatusCancelled MovementStatus = "cancelled"
)

// StockMovement is an immutable ledger fact: one signed quantity change
// against an inventory item. Once appended it is never updated or deleted;
// corrections are recorded as new adjustment movements.
type StockMovement struct {
	shared.BaseEntity
	InventoryID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"inventory_id"`
	MovementType   MovementType    `gorm:"type:varchar(20);not null;index" json:"movement_type"`
	Quantity       int             `gorm:"not null" json:"quantity"`
	QuantityBefore int             `gorm:"not null" json:"quantity_before"`
	QuantityAfter  int             `gorm:"not null" json:"quantity_after"`
	UnitCost       decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"unit_cost"`
	TotalValue     decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"total_value"`

	ReferenceType   string     `gorm:"type:varchar(50)" json:"reference_type,omitempty"`
	ReferenceNumber string     `gorm:"type:varchar(100)" json:"reference_number,omitempty"`
	ReferenceID     *uuid.UUID `gorm:"type:uuid" json:"reference_id,omitempty"`

	FromLocation  string `gorm:"type:varchar(100)" json:"from_location,omitempty"`
	ToLocation    string `gorm:"type:varchar(100)" json:"to_location,omitempty"`
	FromWarehouse string `gorm:"type:varchar(100)" json:"from_warehouse,omitempty"`
	ToWarehouse   string `gorm:"type:varchar(100)" json:"to_warehouse,omitempty"`

	UserID   *uuid.UUID `gorm:"type:uuid" json:"user_id,omitempty"`
	UserName string     `gorm:"type:varchar(100)" json:"user_name,omitempty"`
	Reason   string     `gorm:"type:varchar(255)" json:"reason,omitempty"`
	Notes    string     `gorm:"type:text" json:"notes,omitempty"`

	BatchNumber  string     `gorm:"type:varchar(100)" json:"batch_number,omitempty"`
	SerialNumber string     `gorm:"type:varchar(100)" json:"serial_number,omitempty"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`

	Status     MovementStatus `gorm:"type:varchar(20);not null;default:'completed'" json:"status"`
	ApprovedBy string         `gorm:"type:varchar(100)" json:"approved_by,omitempty"`
	ApprovedAt *time.Time     `json:"approved_at,omitempty"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement creates a completed movement for the given item.
// quantity is signed: positive for inbound, negative for outbound.
// The before/after balances are fixed at construction and must satisfy
// after == before + quantity with after >= 0.
func NewStockMovement(inventoryID uuid.UUID, movementType MovementType, quantity, quantityBefore int) (*StockMovement, error) {
	if !movementType.IsValid() {
		return nil, shared.ErrInvalidInput
	}
	if quantity == 0 {
		return nil, shared.ErrInvalidQuantity
	}
	after := quantityBefore + quantity
	if after < 0 {
		return nil, shared.ErrInvalidQuantity
	}
	return &StockMovement{
		BaseEntity:     shared.NewBaseEntity(),
		InventoryID:    inventoryID,
		MovementType:   movementType,
		Quantity:       quantity,
		QuantityBefore: quantityBefore,
		QuantityAfter:  after,
		UnitCost:       decimal.Zero,
		TotalValue:     decimal.Zero,
		Status:         MovementStatusCompleted,
	}, nil
}

// WithUnitCost sets the unit cost and derives the absolute total value
func (m *StockMovement) WithUnitCost(unitCost decimal.Decimal) *StockMovement {
	m.UnitCost = unitCost
	m.TotalValue = unitCost.Mul(decimal.NewFromInt(int64(m.AbsQuantity())))
	return m
}

// WithReference attaches the originating document
func (m *StockMovement) WithReference(refType, refNumber string, refID *uuid.UUID) *StockMovement {
	m.ReferenceType = refType
	m.ReferenceNumber = refNumber
	m.ReferenceID = refID
	return m
}

// WithActor records who performed the movement
func (m *StockMovement) WithActor(userID *uuid.UUID, userName string) *StockMovement {
	m.UserID = userID
	m.UserName = userName
	return m
}

// WithReason sets the free-text reason and notes
func (m *StockMovement) WithReason(reason, notes string) *StockMovement {
	m.Reason = reason
	m.Notes = notes
	return m
}

// WithLocations records source and destination for transfers
func (m *StockMovement) WithLocations(fromWarehouse, fromLocation, toWarehouse, toLocation string) *StockMovement {
	m.FromWarehouse = fromWarehouse
	m.FromLocation = fromLocation
	m.ToWarehouse = toWarehouse
	m.ToLocation = toLocation
	return m
}

// WithBatch records batch/serial tracking data
func (m *StockMovement) WithBatch(batchNumber, serialNumber string, expiryDate *time.Time) *StockMovement {
	m.BatchNumber = batchNumber
	m.SerialNumber = serialNumber
	m.ExpiryDate = expiryDate
	return m
}

// AbsQuantity returns the magnitude of the quantity change
func (m *StockMovement) AbsQuantity() int {
	if m.Quantity < 0 {
		return -m.Quantity
	}
	return m.Quantity
}

// IsInbound reports whether the movement increases stock
func (m *StockMovement) IsInbound() bool {
	return m.Quantity > 0
}
