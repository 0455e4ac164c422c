package handler

import (
	"github.com/gin-gonic/gin"

	appinventory "github.com/o4o-platform/inventory-engine/internal/application/inventory"
	"github.com/o4o-platform/inventory-engine/internal/domain/inventory"
)

// AlertHandler handles the alert lifecycle endpoints
type AlertHandler struct {
	BaseHandler
	alerts *appinventory.AlertService
}

// NewAlertHandler creates a new AlertHandler
func NewAlertHandler(alerts *appinventory.AlertService) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// List returns a page of alerts
func (h *AlertHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	base, ok := h.listFilter(c)
	if !ok {
		return
	}

	filter := inventory.AlertFilter{Filter: base}
	if typeValue := c.Query("alert_type"); typeValue != "" {
		alertType := inventory.AlertType(typeValue)
		filter.AlertType = &alertType
	}
	if severityValue := c.Query("severity"); severityValue != "" {
		severity := inventory.AlertSeverity(severityValue)
		filter.Severity = &severity
	}
	if statusValue := c.Query("status"); statusValue != "" {
		status := inventory.AlertStatus(statusValue)
		filter.Status = &status
	}
	if inventoryValue := c.Query("inventory_id"); inventoryValue != "" {
		inventoryID, err := parseUUID(inventoryValue)
		if err != nil {
			h.BadRequest(c, "malformed inventory_id")
			return
		}
		filter.InventoryID = &inventoryID
	}
	filter.UnreadOnly = c.Query("unread_only") == "true"

	page, err := h.alerts.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// NotesRequest carries optional operator notes for a transition
type NotesRequest struct {
	Notes string `json:"notes" binding:"max=2000"`
}

// Acknowledge marks an active alert as seen
func (h *AlertHandler) Acknowledge(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		h.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	alert, err := h.alerts.Acknowledge(c.Request.Context(), actor, id, req.Notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, alert)
}

// Resolve closes an alert
func (h *AlertHandler) Resolve(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		h.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	alert, err := h.alerts.Resolve(c.Request.Context(), actor, id, req.Notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, alert)
}

// Ignore dismisses an active alert permanently
func (h *AlertHandler) Ignore(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	alert, err := h.alerts.Ignore(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, alert)
}

// Escalate bumps an alert's severity one step
func (h *AlertHandler) Escalate(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	alert, err := h.alerts.Escalate(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, alert)
}
