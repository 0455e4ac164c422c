package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appinventory "github.com/o4o-platform/inventory-engine/internal/application/inventory"
	"github.com/o4o-platform/inventory-engine/internal/domain/inventory"
)

// ReorderHandler handles the reorder rule endpoints
type ReorderHandler struct {
	BaseHandler
	reorders *appinventory.ReorderService
}

// NewReorderHandler creates a new ReorderHandler
func NewReorderHandler(reorders *appinventory.ReorderService) *ReorderHandler {
	return &ReorderHandler{reorders: reorders}
}

// ListRules returns a page of reorder rules
func (h *ReorderHandler) ListRules(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	base, ok := h.listFilter(c)
	if !ok {
		return
	}

	filter := inventory.RuleFilter{Filter: base}
	if activeValue := c.Query("is_active"); activeValue != "" {
		active := activeValue == "true"
		filter.IsActive = &active
	}
	if typeValue := c.Query("trigger_type"); typeValue != "" {
		triggerType := inventory.TriggerType(typeValue)
		filter.TriggerType = &triggerType
	}

	page, err := h.reorders.ListRules(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetRule returns the rule attached to an item; the :id is the inventory id
func (h *ReorderHandler) GetRule(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	rule, err := h.reorders.GetRule(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rule)
}

// UpsertRuleRequest is the request body for creating or replacing a rule
type UpsertRuleRequest struct {
	TriggerType             string `json:"trigger_type" binding:"required"`
	IsActive                bool   `json:"is_active"`
	ReorderPoint            int    `json:"reorder_point" binding:"min=0"`
	ReorderQuantity         int    `json:"reorder_quantity" binding:"min=0"`
	ForecastDays            int    `json:"forecast_days" binding:"min=0,max=365"`
	SafetyStockDays         int    `json:"safety_stock_days" binding:"min=0,max=365"`
	ScheduleFrequency       string `json:"schedule_frequency"`
	ScheduleDayOfWeek       *int   `json:"schedule_day_of_week" binding:"omitempty,min=0,max=6"`
	ScheduleDayOfMonth      *int   `json:"schedule_day_of_month" binding:"omitempty,min=1,max=28"`
	ScheduleTime            string `json:"schedule_time"`
	SupplierID              string `json:"supplier_id" binding:"omitempty,uuid"`
	SupplierName            string `json:"supplier_name" binding:"max=255"`
	MinOrderQuantity        int    `json:"min_order_quantity" binding:"min=0"`
	MaxOrderQuantity        int    `json:"max_order_quantity" binding:"min=0"`
	OrderMultiple           int    `json:"order_multiple" binding:"min=0"`
	AutoCreatePurchaseOrder bool   `json:"auto_create_purchase_order"`
	NotificationEmails      string `json:"notification_emails" binding:"max=1000"`
}

// UpsertRule creates or replaces the single rule for an item; the :id is the
// inventory id
func (h *ReorderHandler) UpsertRule(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req UpsertRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	cmd := appinventory.UpsertRuleCommand{
		InventoryID:             id,
		TriggerType:             inventory.TriggerType(req.TriggerType),
		IsActive:                req.IsActive,
		ReorderPoint:            req.ReorderPoint,
		ReorderQuantity:         req.ReorderQuantity,
		ForecastDays:            req.ForecastDays,
		SafetyStockDays:         req.SafetyStockDays,
		ScheduleFrequency:       inventory.ScheduleFrequency(req.ScheduleFrequency),
		ScheduleDayOfWeek:       req.ScheduleDayOfWeek,
		ScheduleDayOfMonth:      req.ScheduleDayOfMonth,
		ScheduleTime:            req.ScheduleTime,
		SupplierName:            req.SupplierName,
		MinOrderQuantity:        req.MinOrderQuantity,
		MaxOrderQuantity:        req.MaxOrderQuantity,
		OrderMultiple:           req.OrderMultiple,
		AutoCreatePurchaseOrder: req.AutoCreatePurchaseOrder,
		NotificationEmails:      req.NotificationEmails,
	}
	if req.SupplierID != "" {
		supplierID, err := uuid.Parse(req.SupplierID)
		if err != nil {
			h.BadRequest(c, "malformed supplier_id")
			return
		}
		cmd.SupplierID = &supplierID
	}

	rule, err := h.reorders.UpsertRule(c.Request.Context(), actor, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rule)
}

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(value)
}
