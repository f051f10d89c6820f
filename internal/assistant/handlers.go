package assistant

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apierrors "github.com/daybook-ai/daybook/internal/errors"
	"github.com/daybook-ai/daybook/internal/logger"
)

// Handler exposes the chat endpoints.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new assistant handler.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log.WithComponent("assistant-handler"),
	}
}

// RegisterRoutes mounts the chat endpoints on the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat", h.Chat)
	rg.GET("/conversation", h.Conversation)
}

type chatRequest struct {
	UserID          int64  `json:"userId" binding:"required"`
	Message         string `json:"message" binding:"required"`
	TZOffsetMinutes *int   `json:"tzOffsetMinutes"`
}

// Chat handles POST /chat: one user message in, one structured reply out.
func (h *Handler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "invalid request body", map[string]interface{}{"error": err.Error()})
		return
	}

	tzOffset := h.service.cfg.DefaultTZOffsetMinutes
	if req.TZOffsetMinutes != nil {
		tzOffset = *req.TZOffsetMinutes
	}

	ctx := c.Request.Context()
	requestID := uuid.New().String()
	ctx = logger.WithRequestID(ctx, requestID)

	reply, err := h.service.Chat(ctx, req.UserID, req.Message, tzOffset)
	if err != nil {
		apierrors.BadRequest(c, err.Error(), nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requestId": requestID,
		"reply":     reply,
	})
}

// Conversation handles GET /conversation?userId=N&limit=M.
func (h *Handler) Conversation(c *gin.Context) {
	var query struct {
		UserID int64 `form:"userId" binding:"required"`
		Limit  int   `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		apierrors.BadRequest(c, "invalid query parameters", map[string]interface{}{"error": err.Error()})
		return
	}

	messages, err := h.service.conversations.Recent(c.Request.Context(), query.UserID, query.Limit)
	if err != nil {
		h.logger.LogError(c.Request.Context(), err, "failed to load conversation")
		apierrors.Internal(c, "failed to load conversation", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
