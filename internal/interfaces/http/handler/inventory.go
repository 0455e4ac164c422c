package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appinventory "github.com/o4o-platform/inventory-engine/internal/application/inventory"
	"github.com/o4o-platform/inventory-engine/internal/domain/inventory"
)

// InventoryHandler handles the inventory item and ledger endpoints
type InventoryHandler struct {
	BaseHandler
	items     *appinventory.ItemService
	ledger    *appinventory.LedgerService
	queries   *appinventory.QueryService
	analytics *appinventory.AnalyticsService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(
	items *appinventory.ItemService,
	ledger *appinventory.LedgerService,
	queries *appinventory.QueryService,
	analytics *appinventory.AnalyticsService,
) *InventoryHandler {
	return &InventoryHandler{
		items:     items,
		ledger:    ledger,
		queries:   queries,
		analytics: analytics,
	}
}

// CreateItemRequest is the request body for registering an inventory record
type CreateItemRequest struct {
	VendorID        string `json:"vendor_id"`
	ProductID       string `json:"product_id" binding:"required,uuid"`
	SKU             string `json:"sku" binding:"required,max=100"`
	ProductName     string `json:"product_name" binding:"required,max=255"`
	ProductCategory string `json:"product_category" binding:"max=100"`
	Warehouse       string `json:"warehouse" binding:"max=100"`
	Location        string `json:"location" binding:"max=100"`
	MinQuantity     int    `json:"min_quantity" binding:"min=0"`
	MaxQuantity     int    `json:"max_quantity" binding:"min=0"`
	ReorderPoint    int    `json:"reorder_point" binding:"min=0"`
	ReorderQuantity int    `json:"reorder_quantity" binding:"min=0"`
	LeadTimeDays    int    `json:"lead_time_days" binding:"min=0"`
}

// Create registers a new inventory record for a vendor's product
func (h *InventoryHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	// vendor-scoped actors always create within their own scope; elevated
	// actors must name the vendor explicitly
	vendorID := uuid.Nil
	if actor.VendorID != nil {
		vendorID = *actor.VendorID
	}
	if req.VendorID != "" {
		parsed, err := uuid.Parse(req.VendorID)
		if err != nil {
			h.BadRequest(c, "malformed vendor_id")
			return
		}
		vendorID = parsed
	}
	if vendorID == uuid.Nil {
		h.BadRequest(c, "vendor_id is required")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		h.BadRequest(c, "malformed product_id")
		return
	}

	item, err := h.items.Create(c.Request.Context(), appinventory.CreateItemCommand{
		VendorID:        vendorID,
		ProductID:       productID,
		SKU:             req.SKU,
		ProductName:     req.ProductName,
		ProductCategory: req.ProductCategory,
		Warehouse:       req.Warehouse,
		Location:        req.Location,
		MinQuantity:     req.MinQuantity,
		MaxQuantity:     req.MaxQuantity,
		ReorderPoint:    req.ReorderPoint,
		ReorderQuantity: req.ReorderQuantity,
		LeadTimeDays:    req.LeadTimeDays,
		Actor:           actor,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// List returns a page of inventory items
func (h *InventoryHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	base, ok := h.listFilter(c)
	if !ok {
		return
	}

	filter := inventory.ItemFilter{Filter: base}
	if statusValue := c.Query("status"); statusValue != "" {
		status := inventory.ItemStatus(statusValue)
		filter.Status = &status
	}
	filter.Warehouse = c.Query("warehouse")
	filter.Category = c.Query("category")
	filter.LowStock = c.Query("low_stock") == "true"
	filter.ExpiringSoon = c.Query("expiring_soon") == "true"

	page, err := h.queries.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get returns one inventory item by id
func (h *InventoryHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	item, err := h.queries.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// GetBySKU returns one inventory item by SKU
func (h *InventoryHandler) GetBySKU(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	item, err := h.queries.GetBySKU(c.Request.Context(), actor, c.Param("sku"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// AppendMovementRequest is the request body for a ledger append
type AppendMovementRequest struct {
	MovementType string `json:"movement_type" binding:"required"`
	// Quantity is the signed delta: positive inbound, negative outbound
	Quantity         int      `json:"quantity" binding:"required"`
	ExpectedQuantity *int     `json:"expected_quantity"`
	UnitCost         *float64 `json:"unit_cost" binding:"omitempty,gte=0"`
	ReferenceType    string   `json:"reference_type" binding:"max=50"`
	ReferenceNumber  string   `json:"reference_number" binding:"max=100"`
	ReferenceID      string   `json:"reference_id" binding:"omitempty,uuid"`
	Reason           string   `json:"reason" binding:"max=255"`
	Notes            string   `json:"notes"`
	BatchNumber      string   `json:"batch_number" binding:"max=100"`
	ExpiryDate       string   `json:"expiry_date"`
}

// AppendMovement records one stock movement against an item
func (h *InventoryHandler) AppendMovement(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req AppendMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	cmd := appinventory.AppendMovementCommand{
		InventoryID:      id,
		MovementType:     inventory.MovementType(req.MovementType),
		Quantity:         req.Quantity,
		ExpectedQuantity: req.ExpectedQuantity,
		ReferenceType:    req.ReferenceType,
		ReferenceNumber:  req.ReferenceNumber,
		Reason:           req.Reason,
		Notes:            req.Notes,
		BatchNumber:      req.BatchNumber,
		Actor:            actor,
	}
	if req.UnitCost != nil {
		cost := decimal.NewFromFloat(*req.UnitCost)
		cmd.UnitCost = &cost
	}
	if req.ReferenceID != "" {
		refID, err := uuid.Parse(req.ReferenceID)
		if err != nil {
			h.BadRequest(c, "malformed reference_id")
			return
		}
		cmd.ReferenceID = &refID
	}
	if req.ExpiryDate != "" {
		expiry, err := parseDateTime(req.ExpiryDate)
		if err != nil {
			h.BadRequest(c, "malformed expiry_date")
			return
		}
		cmd.ExpiryDate = &expiry
	}

	movement, err := h.ledger.Append(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, movement)
}

// MovementHistory returns a page of an item's ledger, newest first
func (h *InventoryHandler) MovementHistory(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	base, ok := h.listFilter(c)
	if !ok {
		return
	}

	filter := inventory.MovementFilter{Filter: base}
	if typeValue := c.Query("movement_type"); typeValue != "" {
		movementType := inventory.MovementType(typeValue)
		filter.MovementType = &movementType
	}
	if startValue := c.Query("start"); startValue != "" {
		start, err := parseDateTime(startValue)
		if err != nil {
			h.BadRequest(c, "malformed start")
			return
		}
		filter.Start = &start
	}
	if endValue := c.Query("end"); endValue != "" {
		end, err := parseDateTime(endValue)
		if err != nil {
			h.BadRequest(c, "malformed end")
			return
		}
		filter.End = &end
	}

	page, err := h.ledger.MovementHistory(c.Request.Context(), actor, id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Forecast returns the demand projection for one item
func (h *InventoryHandler) Forecast(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	forecastDays := 0
	if daysValue := c.Query("days"); daysValue != "" {
		parsed, err := parsePositiveInt(daysValue)
		if err != nil {
			h.BadRequest(c, "malformed days parameter")
			return
		}
		forecastDays = parsed
	}

	forecast, err := h.analytics.ItemForecast(c.Request.Context(), actor, id, forecastDays)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, forecast)
}

// QuantityRequest is the request body for reserve/release operations
type QuantityRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

// Reserve holds part of the on-hand quantity for a pending order
func (h *InventoryHandler) Reserve(c *gin.Context) {
	h.quantityOp(c, h.items.Reserve)
}

// ReleaseReservation returns previously reserved quantity to the pool
func (h *InventoryHandler) ReleaseReservation(c *gin.Context) {
	h.quantityOp(c, h.items.ReleaseReservation)
}

func (h *InventoryHandler) quantityOp(
	c *gin.Context,
	op func(ctx context.Context, actor appinventory.Actor, id uuid.UUID, quantity int) (*appinventory.ItemResponse, error),
) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req QuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	item, err := op(c.Request.Context(), actor, id, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// ThresholdsRequest is the request body for threshold updates
type ThresholdsRequest struct {
	MinQuantity int `json:"min_quantity" binding:"min=0"`
	MaxQuantity int `json:"max_quantity" binding:"min=0"`
}

// SetThresholds updates an item's min/max stock levels
func (h *InventoryHandler) SetThresholds(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req ThresholdsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	item, err := h.items.SetThresholds(c.Request.Context(), actor, id, req.MinQuantity, req.MaxQuantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Discontinue soft-retires an item
func (h *InventoryHandler) Discontinue(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	item, err := h.items.Discontinue(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Delete removes an empty inventory record
func (h *InventoryHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.items.Delete(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Value returns the stock valuation summary
func (h *InventoryHandler) Value(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	filter := inventory.ItemFilter{}
	filter.Warehouse = c.Query("warehouse")
	filter.Category = c.Query("category")

	summary, err := h.queries.Value(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// DeadStock returns items holding stock that has not sold recently
func (h *InventoryHandler) DeadStock(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	days := 90
	if daysValue := c.Query("days"); daysValue != "" {
		parsed, err := parsePositiveInt(daysValue)
		if err != nil {
			h.BadRequest(c, "malformed days parameter")
			return
		}
		days = parsed
	}

	items, err := h.queries.DeadStock(c.Request.Context(), actor,
		time.Duration(days)*24*time.Hour, inventory.ItemFilter{})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// parseDateTime parses a datetime in RFC3339 or plain date form
func parseDateTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

func parsePositiveInt(value string) (int, error) {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if parsed <= 0 {
		return 0, strconv.ErrRange
	}
	return parsed, nil
}
