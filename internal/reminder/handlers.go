package reminder

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/daybook-ai/daybook/internal/errors"
	"github.com/daybook-ai/daybook/internal/logger"
)

// Handler exposes read and cancel endpoints for reminders. Creation stays
// inside the assistant's tool layer.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new reminder handler.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log.WithComponent("reminder-handler"),
	}
}

// RegisterRoutes mounts the reminder endpoints on the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/reminders", h.List)
	rg.POST("/reminders/:id/cancel", h.Cancel)
}

// List handles GET /reminders?userId=N.
func (h *Handler) List(c *gin.Context) {
	var query struct {
		UserID int64 `form:"userId" binding:"required"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		apierrors.BadRequest(c, "invalid query parameters", map[string]interface{}{"error": err.Error()})
		return
	}

	reminders, err := h.service.ListByUser(c.Request.Context(), query.UserID)
	if err != nil {
		h.logger.LogError(c.Request.Context(), err, "failed to list reminders")
		apierrors.Internal(c, "failed to list reminders", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reminders": reminders})
}

type cancelRequest struct {
	UserID int64 `json:"userId" binding:"required"`
}

// Cancel handles POST /reminders/:id/cancel. Only pending reminders can be
// cancelled.
func (h *Handler) Cancel(c *gin.Context) {
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "invalid request body", map[string]interface{}{"error": err.Error()})
		return
	}

	if err := h.service.Cancel(c.Request.Context(), c.Param("id"), req.UserID); err != nil {
		apierrors.NotFound(c, "reminder not found or not pending", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}
