package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/o4o-platform/inventory-engine/internal/infrastructure/scheduler"
	"github.com/o4o-platform/inventory-engine/internal/interfaces/http/dto"
	"github.com/o4o-platform/inventory-engine/internal/interfaces/http/middleware"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping() error
}

// SystemHandler serves health and scheduler introspection endpoints
type SystemHandler struct {
	BaseHandler
	db     Pinger
	engine *scheduler.Engine
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db Pinger, engine *scheduler.Engine) *SystemHandler {
	return &SystemHandler{db: db, engine: engine}
}

// Health reports liveness of the service and its database
func (h *SystemHandler) Health(c *gin.Context) {
	status := gin.H{"status": "ok", "database": "ok"}
	code := http.StatusOK
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			status["status"] = "degraded"
			status["database"] = "unreachable"
			code = http.StatusServiceUnavailable
		}
	}
	c.JSON(code, dto.NewSuccessResponse(status))
}

// Jobs returns run statistics for every registered background job
func (h *SystemHandler) Jobs(c *gin.Context) {
	if h.engine == nil {
		h.Success(c, []scheduler.JobStats{})
		return
	}
	h.Success(c, h.engine.Stats())
}

// TriggerJob runs a registered job immediately, outside its cadence
func (h *SystemHandler) TriggerJob(c *gin.Context) {
	if h.engine == nil {
		h.BadRequest(c, "scheduler is not running")
		return
	}
	name := c.Param("name")
	if err := h.engine.TriggerNow(c.Request.Context(), name); err != nil {
		c.JSON(http.StatusNotFound,
			dto.NewErrorResponse(dto.ErrCodeNotFound, err.Error(), middleware.GetRequestID(c)))
		return
	}
	h.Success(c, gin.H{"triggered": name})
}
