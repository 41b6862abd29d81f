package projects

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"bluechain-mrv/backend/internal/auth"
	"bluechain-mrv/backend/internal/httpapi"
	"bluechain-mrv/backend/pkg/apperrors"
	"bluechain-mrv/backend/pkg/geospatial"
)

// Handler handles HTTP requests for the project lifecycle
type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/submit-project", h.submitProject)
	router.POST("/validate-project", h.validateProject)

	projects := router.Group("/projects")
	{
		projects.GET("", h.listProjects)
		projects.GET("/mine", h.listMyProjects)
		projects.GET("/map", h.projectMap)
		projects.GET("/:id", h.getProject)
		projects.GET("/:id/history", h.getHistory)
	}
}

// submitProject handles POST /api/v1/submit-project
func (h *Handler) submitProject(c *gin.Context) {
	identity, err := auth.CurrentIdentity(c)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}

	if err := h.service.RequireSubmitter(c.Request.Context(), identity); err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}

	var req SubmitProjectRequest
	if err := httpapi.BindJSON(c, &req); err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}

	project, err := h.service.Submit(c.Request.Context(), identity, &req)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "project": project})
}

// validateProject handles POST /api/v1/validate-project
func (h *Handler) validateProject(c *gin.Context) {
	identity, err := auth.CurrentIdentity(c)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}

	if err := h.service.RequireDecider(c.Request.Context(), identity); err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}

	var req DecideRequest
	if err := httpapi.BindJSON(c, &req); err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}

	project, err := h.service.Decide(c.Request.Context(), identity, &req)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "project": project})
}

func (h *Handler) listProjects(c *gin.Context) {
	projects, err := h.service.ListProjects(c.Request.Context(), h.filterFromQuery(c))
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (h *Handler) listMyProjects(c *gin.Context) {
	identity, err := auth.CurrentIdentity(c)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}

	projects, err := h.service.ListMine(c.Request.Context(), identity.UserID, h.filterFromQuery(c))
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// projectMap handles GET /api/v1/projects/map and returns a GeoJSON
// FeatureCollection with the centre of the listed projects.
func (h *Handler) projectMap(c *gin.Context) {
	fc, err := h.service.Map(c.Request.Context(), h.filterFromQuery(c))
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}
	if center, ok := geospatial.CalculateCenter(fc); ok {
		fc.ExtraMembers = map[string]interface{}{"center": []float64{center.Lon(), center.Lat()}}
	}
	c.JSON(http.StatusOK, fc)
}

func (h *Handler) getProject(c *gin.Context) {
	id, err := ParseProjectID(c)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}

	project, err := h.service.GetProject(c.Request.Context(), id)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

func (h *Handler) getHistory(c *gin.Context) {
	id, err := ParseProjectID(c)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}

	changes, err := h.service.History(c.Request.Context(), id)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": changes})
}

// ParseProjectID reads the :id path parameter.
func ParseProjectID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperrors.Validation("id", "project id must be a valid UUID")
	}
	return id, nil
}

func (h *Handler) filterFromQuery(c *gin.Context) ProjectFilter {
	filter := ProjectFilter{
		Limit:  h.getIntParam(c, "limit", defaultListLimit),
		Offset: h.getIntParam(c, "offset", 0),
	}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}
	return filter
}

func (h *Handler) getIntParam(c *gin.Context, name string, defaultVal int) int {
	if val := c.Query(name); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}
