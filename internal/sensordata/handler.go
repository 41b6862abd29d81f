package sensordata

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"bluechain-mrv/backend/internal/auth"
	"bluechain-mrv/backend/internal/httpapi"
	"bluechain-mrv/backend/pkg/apperrors"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/submit-sensor-data", h.submitSensorData)
	router.GET("/projects/:id/sensor-data", h.listSensorData)
	router.GET("/projects/:id/sensor-data/export", h.exportSensorData)
}

// submitSensorData handles POST /api/v1/submit-sensor-data
func (h *Handler) submitSensorData(c *gin.Context) {
	identity, err := auth.CurrentIdentity(c)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}

	if err := h.service.RequireRecorder(c.Request.Context(), identity); err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}

	var req RecordReadingRequest
	if err := httpapi.BindJSON(c, &req); err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}

	reading, err := h.service.Record(c.Request.Context(), identity, &req)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sensor_data": reading})
}

func (h *Handler) listSensorData(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpapi.RespondError(c, h.logger, apperrors.Validation("id", "project id must be a valid UUID"))
		return
	}
	limit := 100
	if v, err := strconv.Atoi(c.Query("limit")); err == nil {
		limit = v
	}

	readings, err := h.service.List(c.Request.Context(), projectID, limit)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sensor_data": readings})
}

func (h *Handler) exportSensorData(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpapi.RespondError(c, h.logger, apperrors.Validation("id", "project id must be a valid UUID"))
		return
	}

	readings, err := h.service.List(c.Request.Context(), projectID, 0)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}

	var buf bytes.Buffer
	if c.Query("format") == "csv" {
		if err := WriteCSV(&buf, readings); err != nil {
			httpapi.RespondError(c, h.logger, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="sensor-data-%s.csv"`, projectID))
		c.Data(http.StatusOK, "text/csv", buf.Bytes())
		return
	}

	if err := WriteWorkbook(&buf, readings); err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="sensor-data-%s.xlsx"`, projectID))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
