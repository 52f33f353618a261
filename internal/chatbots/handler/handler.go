package handler

import (
	"net/http"

	"chatlead_backend/internal/chatbots/service"
	"chatlead_backend/internal/chatbots/transport"
	"chatlead_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const msgInvalidRequest = "invalid request"

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:chatbotId/settings", h.GetSettings)
	rg.PUT("/:chatbotId/settings", h.UpdateSettings)
	rg.POST("/:chatbotId/crm/test", h.TestCRM)
}

func (h *Handler) GetSettings(c *gin.Context) {
	chatbotID, identity, ok := h.requestScope(c)
	if !ok {
		return
	}

	settings, err := h.svc.GetSettings(c.Request.Context(), chatbotID, identity)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, settings)
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	chatbotID, identity, ok := h.requestScope(c)
	if !ok {
		return
	}

	var req transport.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	settings, err := h.svc.UpdateSettings(c.Request.Context(), chatbotID, identity, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, settings)
}

func (h *Handler) TestCRM(c *gin.Context) {
	chatbotID, identity, ok := h.requestScope(c)
	if !ok {
		return
	}

	result, err := h.svc.TestCRMConnection(c.Request.Context(), chatbotID, identity)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) requestScope(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	chatbotID, err := uuid.Parse(c.Param("chatbotId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.Nil, uuid.Nil, false
	}
	identity, ok := httpkit.GetIdentity(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return uuid.Nil, uuid.Nil, false
	}
	return chatbotID, identity.UserID(), true
}
