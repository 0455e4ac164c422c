package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/o4o-platform/inventory-engine/internal/infrastructure/config"
	"github.com/o4o-platform/inventory-engine/internal/interfaces/http/handler"
	"github.com/o4o-platform/inventory-engine/internal/interfaces/http/middleware"
)

// Handlers bundles every handler the router mounts
type Handlers struct {
	Inventory *handler.InventoryHandler
	Alerts    *handler.AlertHandler
	Reorders  *handler.ReorderHandler
	System    *handler.SystemHandler
}

// New builds the gin engine with middleware and all routes mounted
func New(cfg *config.Config, logger *zap.Logger, h Handlers) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		_ = r.SetTrustedProxies(cfg.HTTP.TrustedProxies)
	} else {
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(middleware.Recovery(logger))
	if cfg.Telemetry.Enabled {
		r.Use(middleware.Tracing(cfg.App.Name))
	}
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))

	r.GET("/health", h.System.Health)

	api := r.Group("/api/v1")
	api.Use(middleware.Actor())
	if cfg.Telemetry.Enabled {
		api.Use(middleware.TraceActor())
	}
	{
		items := api.Group("/inventory")
		{
			items.POST("", h.Inventory.Create)
			items.GET("", h.Inventory.List)
			items.GET("/value", h.Inventory.Value)
			items.GET("/dead-stock", h.Inventory.DeadStock)
			items.GET("/sku/:sku", h.Inventory.GetBySKU)
			items.GET("/:id", h.Inventory.Get)
			items.DELETE("/:id", h.Inventory.Delete)
			items.POST("/:id/movements", h.Inventory.AppendMovement)
			items.GET("/:id/movements", h.Inventory.MovementHistory)
			items.GET("/:id/forecast", h.Inventory.Forecast)
			items.POST("/:id/reserve", h.Inventory.Reserve)
			items.POST("/:id/release", h.Inventory.ReleaseReservation)
			items.PUT("/:id/thresholds", h.Inventory.SetThresholds)
			items.POST("/:id/discontinue", h.Inventory.Discontinue)
			items.GET("/:id/reorder-rule", h.Reorders.GetRule)
			items.PUT("/:id/reorder-rule", h.Reorders.UpsertRule)
		}

		alerts := api.Group("/alerts")
		{
			alerts.GET("", h.Alerts.List)
			alerts.POST("/:id/acknowledge", h.Alerts.Acknowledge)
			alerts.POST("/:id/resolve", h.Alerts.Resolve)
			alerts.POST("/:id/ignore", h.Alerts.Ignore)
			alerts.POST("/:id/escalate", h.Alerts.Escalate)
		}

		api.GET("/reorder-rules", h.Reorders.ListRules)

		system := api.Group("/system")
		{
			system.GET("/jobs", h.System.Jobs)
			system.POST("/jobs/:name/trigger", h.System.TriggerJob)
		}
	}

	return r
}
