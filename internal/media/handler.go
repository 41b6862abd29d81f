package media

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bluechain-mrv/backend/internal/auth"
	"bluechain-mrv/backend/internal/httpapi"
)

type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/media/upload-url", h.createUploadURL)
}

// createUploadURL handles POST /api/v1/media/upload-url
func (h *Handler) createUploadURL(c *gin.Context) {
	identity, err := auth.CurrentIdentity(c)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}

	var req UploadRequest
	if err := httpapi.BindJSON(c, &req); err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}

	ticket, err := h.service.CreateUploadURL(c.Request.Context(), identity, &req)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}
