package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/o4o-platform/inventory-engine/internal/domain/shared"
)

// AlertType classifies an abnormal stock condition
type AlertType string

const (
	AlertTypeLowStock         AlertType = "low_stock"
	AlertTypeOutOfStock       AlertType = "out_of_stock"
	AlertTypeOverstock        AlertType = "overstock"
	AlertTypeExpiryWarning    AlertType = "expiry_warning"
	AlertTypeExpired          AlertType = "expired"
	AlertTypeReorderPoint     AlertType = "reorder_point"
	AlertTypeDeadStock        AlertType = "dead_stock"
	AlertTypeSlowMoving       AlertType = "slow_moving"
	AlertTypeDamageReported   AlertType = "damage_reported"
	AlertTypeTheftReported    AlertType = "theft_reported"
	AlertTypeCountDiscrepancy AlertType = "count_discrepancy"
	AlertTypePriceChange      AlertType = "price_change"
	AlertTypeSupplierIssue    AlertType = "supplier_issue"
)

// IsValid checks if the alert type is one of the closed set
func (t AlertType) IsValid() bool {
	_, ok := alertTemplates[t]
	return ok
}

// AlertSeverity ranks how urgently an alert needs attention
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical"
	SeverityHigh     AlertSeverity = "high"
	SeverityMedium   AlertSeverity = "medium"
	SeverityLow      AlertSeverity = "low"
	SeverityInfo     AlertSeverity = "info"
)

// NeedsNotification reports whether the severity warrants outbound dispatch
func (s AlertSeverity) NeedsNotification() bool {
	return s == SeverityCritical || s == SeverityHigh
}

func (s AlertSeverity) escalated() AlertSeverity {
	switch s {
	case SeverityInfo:
		return SeverityLow
	case SeverityLow:
		return SeverityMedium
	case SeverityMedium:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}

// AlertStatus is the lifecycle state of an alert occurrence
type AlertStatus string

const (
	AlertStatusActive       AlertStatus = "active"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
	AlertStatusIgnored      AlertStatus = "ignored"
	AlertStatusEscalated    AlertStatus = "escalated"
)

// InventoryAlert is a deduplicated record of one abnormal condition on one
// item. For a given (inventoryId, alertType) at most one record is active;
// repeated detections bump the occurrence counter on the active record.
type InventoryAlert struct {
	shared.BaseEntity
	InventoryID uuid.UUID     `gorm:"type:uuid;not null;index:idx_alerts_inventory_status" json:"inventory_id"`
	AlertType   AlertType     `gorm:"type:varchar(30);not null" json:"alert_type"`
	Severity    AlertSeverity `gorm:"type:varchar(10);not null;default:'medium'" json:"severity"`

	Title             string `gorm:"type:varchar(255);not null" json:"title"`
	Message           string `gorm:"type:text;not null" json:"message"`
	RecommendedAction string `gorm:"type:text" json:"recommended_action,omitempty"`

	CurrentQuantity   *int `json:"current_quantity,omitempty"`
	ThresholdQuantity *int `json:"threshold_quantity,omitempty"`

	DaysUntilStockout *int       `json:"days_until_stockout,omitempty"`
	DaysOverstocked   *int       `json:"days_overstocked,omitempty"`
	DaysUntilExpiry   *int       `json:"days_until_expiry,omitempty"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty"`

	Status AlertStatus `gorm:"type:varchar(15);not null;default:'active';index:idx_alerts_inventory_status" json:"status"`
	IsRead bool        `gorm:"not null;default:false" json:"is_read"`

	AcknowledgedBy      string     `gorm:"type:varchar(100)" json:"acknowledged_by,omitempty"`
	AcknowledgedAt      *time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgmentNotes string     `gorm:"type:text" json:"acknowledgment_notes,omitempty"`

	ResolvedBy      string     `gorm:"type:varchar(100)" json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	ResolutionNotes string     `gorm:"type:text" json:"resolution_notes,omitempty"`

	IsNotified            bool       `gorm:"not null;default:false" json:"is_notified"`
	NotifiedAt            *time.Time `json:"notified_at,omitempty"`
	NotificationAttempts  int        `gorm:"not null;default:0" json:"notification_attempts"`
	LastNotificationError string     `gorm:"type:text" json:"last_notification_error,omitempty"`

	IsRecurring     bool       `gorm:"not null;default:false" json:"is_recurring"`
	OccurrenceCount int        `gorm:"not null;default:1" json:"occurrence_count"`
	FirstOccurredAt *time.Time `json:"first_occurred_at,omitempty"`
	LastOccurredAt  *time.Time `json:"last_occurred_at,omitempty"`

	AutoResolve           bool       `gorm:"not null;default:false" json:"auto_resolve"`
	AutoResolveAfterHours *int       `json:"auto_resolve_after_hours,omitempty"`
	ScheduledResolveAt    *time.Time `json:"scheduled_resolve_at,omitempty"`
}

// TableName returns the table name for GORM
func (InventoryAlert) TableName() string {
	return "inventory_alerts"
}

// alertTemplate renders the fixed title/message/action for one alert type
type alertTemplate struct {
	severity AlertSeverity
	render   func(item *InventoryItem) (title, message, action string)
}

var alertTemplates = map[AlertType]alertTemplate{
	AlertTypeOutOfStock: {
		severity: SeverityCritical,
		render: func(i *InventoryItem) (string, string, string) {
			return fmt.Sprintf("Out of stock: %s", i.ProductName),
				fmt.Sprintf("%s (SKU %s) has no stock remaining.", i.ProductName, i.SKU),
				"Restock immediately or mark the product unavailable."
		},
	},
	AlertTypeLowStock: {
		severity: SeverityHigh,
		render: func(i *InventoryItem) (string, string, string) {
			return fmt.Sprintf("Low stock: %s", i.ProductName),
				fmt.Sprintf("%s (SKU %s) is down to %d units, at or below the minimum of %d.", i.ProductName, i.SKU, i.Quantity, i.MinQuantity),
				fmt.Sprintf("Reorder soon; suggested quantity %d.", i.ReorderQuantity)
		},
	},
	AlertTypeOverstock: {
		severity: SeverityMedium,
		render: func(i *InventoryItem) (string, string, string) {
			return fmt.Sprintf("Overstock: %s", i.ProductName),
				fmt.Sprintf("%s (SKU %s) holds %d units, above the maximum of %d.", i.ProductName, i.SKU, i.Quantity, i.MaxQuantity),
				"Consider a promotion or pausing replenishment."
		},
	},
	AlertTypeExpiryWarning: {
		severity: SeverityHigh,
		render: func(i *InventoryItem) (string, string, string) {
			return fmt.Sprintf("Expiring soon: %s", i.ProductName),
				fmt.Sprintf("%s (SKU %s) has stock approaching its expiry date.", i.ProductName, i.SKU),
				"Discount to sell through, or plan a write-off."
		},
	},
	AlertTypeExpired: {
		severity: SeverityCritical,
		render: func(i *InventoryItem) (string, string, string) {
			return fmt.Sprintf("Expired stock: %s", i.ProductName),
				fmt.Sprintf("%s (SKU %s) holds stock past its expiry date.", i.ProductName, i.SKU),
				"Remove expired units from sellable stock and record an expiry movement."
		},
	},
	AlertTypeReorderPoint: {
		severity: SeverityHigh,
		render: func(i *InventoryItem) (string, string, string) {
			return fmt.Sprintf("Reorder triggered: %s", i.ProductName),
				fmt.Sprintf("A replenishment rule fired for %s (SKU %s) at %d units.", i.ProductName, i.SKU, i.Quantity),
				fmt.Sprintf("Review the suggested order of %d units.", i.ReorderQuantity)
		},
	},
	AlertTypeDeadStock: {
		severity: SeverityMedium,
		render: func(i *InventoryItem) (string, string, string) {
			return fmt.Sprintf("Dead stock: %s", i.ProductName),
				fmt.Sprintf("%s (SKU %s) has %d units with no sales in the monitored window.", i.ProductName, i.SKU, i.Quantity),
				"Consider clearance pricing or delisting the product."
		},
	},
	AlertTypeSlowMoving: {
		severity: SeverityLow,
		render: func(i *InventoryItem) (string, string, string) {
			return fmt.Sprintf("Slow moving: %s", i.ProductName),
				fmt.Sprintf("%s (SKU %s) is turning over well below category norms.", i.ProductName, i.SKU),
				"Review pricing and demand before the next replenishment."
		},
	},
	AlertTypeDamageReported: {
		severity: SeverityMedium,
		render: func(i *InventoryItem) (string, string, string) {
			return fmt.Sprintf("Damage reported: %s", i.ProductName),
				fmt.Sprintf("Damaged units were recorded against %s (SKU %s).", i.ProductName, i.SKU),
				"Inspect remaining stock and file a claim if applicable."
		},
	},
	AlertTypeTheftReported: {
		severity: SeverityHigh,
		render: func(i *InventoryItem) (string, string, string) {
			return fmt.Sprintf("Theft reported: %s", i.ProductName),
				fmt.Sprintf("Stock loss by theft was recorded against %s (SKU %s).", i.ProductName, i.SKU),
				"Review security and reconcile the physical count."
		},
	},
	AlertTypeCountDiscrepancy: {
		severity: SeverityMedium,
		render: func(i *InventoryItem) (string, string, string) {
			return fmt.Sprintf("Count discrepancy: %s", i.ProductName),
				fmt.Sprintf("The physical count for %s (SKU %s) differs from the ledger balance.", i.ProductName, i.SKU),
				"Recount and record an adjustment movement with a reason."
		},
	},
	AlertTypePriceChange: {
		severity: SeverityInfo,
		render: func(i *InventoryItem) (string, string, string) {
			return fmt.Sprintf("Cost change: %s", i.ProductName),
				fmt.Sprintf("The unit cost of %s (SKU %s) changed on the latest receipt.", i.ProductName, i.SKU),
				"Review sell price and margin."
		},
	},
	AlertTypeSupplierIssue: {
		severity: SeverityHigh,
		render: func(i *InventoryItem) (string, string, string) {
			return fmt.Sprintf("Supplier issue: %s", i.ProductName),
				fmt.Sprintf("A supplier problem affects replenishment of %s (SKU %s).", i.ProductName, i.SKU),
				"Contact the supplier or source an alternative."
		},
	},
}

// DefaultSeverity returns the configured severity for an alert type
func DefaultSeverity(t AlertType) AlertSeverity {
	if tpl, ok := alertTemplates[t]; ok {
		return tpl.severity
	}
	return SeverityMedium
}

// BuildAlert creates a new active alert for an item, filling title, message
// and recommended action from the per-type template with the item's current
// numbers.
func BuildAlert(item *InventoryItem, alertType AlertType, now time.Time) (*InventoryAlert, error) {
	tpl, ok := alertTemplates[alertType]
	if !ok {
		return nil, shared.ErrInvalidInput
	}
	title, message, action := tpl.render(item)
	qty := item.Quantity
	t := now
	a := &InventoryAlert{
		BaseEntity:        shared.NewBaseEntity(),
		InventoryID:       item.ID,
		AlertType:         alertType,
		Severity:          tpl.severity,
		Title:             title,
		Message:           message,
		RecommendedAction: action,
		CurrentQuantity:   &qty,
		Status:            AlertStatusActive,
		OccurrenceCount:   1,
		FirstOccurredAt:   &t,
		LastOccurredAt:    &t,
	}
	switch alertType {
	case AlertTypeLowStock:
		threshold := item.MinQuantity
		a.ThresholdQuantity = &threshold
	case AlertTypeOverstock:
		threshold := item.MaxQuantity
		a.ThresholdQuantity = &threshold
	case AlertTypeReorderPoint:
		threshold := item.ReorderPoint
		a.ThresholdQuantity = &threshold
	case AlertTypeExpiryWarning, AlertTypeExpired:
		a.ExpiryDate = item.ExpiryDate
		if days, ok := item.DaysUntilExpiry(now); ok {
			a.DaysUntilExpiry = &days
		}
	}
	if item.HasVelocity() && item.DaysOfStock != DaysOfStockUnknown {
		days := item.DaysOfStock
		a.DaysUntilStockout = &days
	}
	return a, nil
}

// RecordOccurrence folds a repeated detection into this active alert
func (a *InventoryAlert) RecordOccurrence(now time.Time) {
	a.OccurrenceCount++
	a.IsRecurring = true
	t := now
	a.LastOccurredAt = &t
	a.Touch(now)
}

// IsTerminal reports whether this occurrence can no longer transition
func (a *InventoryAlert) IsTerminal() bool {
	return a.Status == AlertStatusResolved || a.Status == AlertStatusIgnored
}

// Acknowledge transitions active -> acknowledged
func (a *InventoryAlert) Acknowledge(by, notes string, now time.Time) error {
	if a.Status != AlertStatusActive {
		return shared.ErrInvalidTransition
	}
	a.Status = AlertStatusAcknowledged
	a.AcknowledgedBy = by
	t := now
	a.AcknowledgedAt = &t
	a.AcknowledgmentNotes = notes
	a.IsRead = true
	a.Touch(now)
	return nil
}

// Resolve transitions active/acknowledged/escalated -> resolved
func (a *InventoryAlert) Resolve(by, notes string, now time.Time) error {
	switch a.Status {
	case AlertStatusActive, AlertStatusAcknowledged, AlertStatusEscalated:
	default:
		return shared.ErrInvalidTransition
	}
	a.Status = AlertStatusResolved
	a.ResolvedBy = by
	t := now
	a.ResolvedAt = &t
	a.ResolutionNotes = notes
	a.Touch(now)
	return nil
}

// Ignore transitions active -> ignored (terminal for this occurrence)
func (a *InventoryAlert) Ignore(by string, now time.Time) error {
	if a.Status != AlertStatusActive {
		return shared.ErrInvalidTransition
	}
	a.Status = AlertStatusIgnored
	a.AcknowledgedBy = by
	t := now
	a.AcknowledgedAt = &t
	a.IsRead = true
	a.Touch(now)
	return nil
}

// Escalate transitions active/acknowledged -> escalated and raises severity
// one step.
func (a *InventoryAlert) Escalate(now time.Time) error {
	switch a.Status {
	case AlertStatusActive, AlertStatusAcknowledged:
	default:
		return shared.ErrInvalidTransition
	}
	a.Status = AlertStatusEscalated
	a.Severity = a.Severity.escalated()
	a.Touch(now)
	return nil
}

// EnableAutoResolve schedules the alert to be swept into resolved after the
// given number of hours.
func (a *InventoryAlert) EnableAutoResolve(afterHours int, now time.Time) {
	a.AutoResolve = true
	a.AutoResolveAfterHours = &afterHours
	t := now.Add(time.Duration(afterHours) * time.Hour)
	a.ScheduledResolveAt = &t
	a.Touch(now)
}

// RecordNotification stores the outcome of a dispatch attempt. Dispatch is
// best-effort: a failure is bookkept here and never fails the alert itself.
func (a *InventoryAlert) RecordNotification(err error, now time.Time) {
	a.NotificationAttempts++
	if err != nil {
		a.LastNotificationError = err.Error()
		return
	}
	a.IsNotified = true
	t := now
	a.NotifiedAt = &t
	a.LastNotificationError = ""
}
