package certificates

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bluechain-mrv/backend/internal/httpapi"
	"bluechain-mrv/backend/internal/projects"
)

type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/projects/:id/certificate", h.getCertificate)
}

func (h *Handler) getCertificate(c *gin.Context) {
	projectID, err := projects.ParseProjectID(c)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}

	body, err := h.service.Issue(c.Request.Context(), projectID)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="certificate-%s.pdf"`, projectID))
	c.Data(http.StatusOK, "application/pdf", body)
}
