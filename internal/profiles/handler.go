package profiles

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
	profiles := router.Group("/profiles")
	{
		profiles.POST("", h.createProfile)
		profiles.GET("/me", h.getMyProfile)
		profiles.PUT("/me", h.updateMyProfile)
	}
}

func (h *Handler) createProfile(c *gin.Context) {
	identity, err := auth.CurrentIdentity(c)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}

	var req CreateProfileRequest
	if err := httpapi.BindJSON(c, &req); err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}

	profile, err := h.service.CreateProfile(c.Request.Context(), identity, &req)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "profile": profile})
}

func (h *Handler) getMyProfile(c *gin.Context) {
	identity, err := auth.CurrentIdentity(c)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}

	profile, err := h.service.GetProfile(c.Request.Context(), identity.UserID)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

func (h *Handler) updateMyProfile(c *gin.Context) {
	identity, err := auth.CurrentIdentity(c)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}

	var req UpdateProfileRequest
	if err := httpapi.BindJSON(c, &req); err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}

	profile, err := h.service.UpdateProfile(c.Request.Context(), identity.UserID, &req)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "profile": profile})
}
