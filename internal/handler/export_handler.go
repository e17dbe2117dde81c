package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pawtrack/walks-backend-go/internal/export"
	"github.com/pawtrack/walks-backend-go/internal/service"
	"github.com/pawtrack/walks-backend-go/pkg/response"
)

// ExportHandler handles walk export downloads.
type ExportHandler struct {
	service *service.WalkService
}

// NewExportHandler creates a new export handler.
func NewExportHandler(service *service.WalkService) *ExportHandler {
	return &ExportHandler{service: service}
}

// ExportGPX handles GET /api/v1/walks/:id/export/gpx
func (h *ExportHandler) ExportGPX(c *gin.Context) {
	id := c.Param("id")
	detail, err := h.service.Detail(id)
	if err != nil {
		if errors.Is(err, service.ErrWalkNotFound) {
			response.Error(c, http.StatusNotFound, "Walk not found", nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to load walk", err)
		return
	}

	c.Header("Content-Type", "application/gpx+xml")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="walk-%s.gpx"`, id))
	if err := export.WriteGPX(c.Writer, &detail.Walk, detail.TrackPoints); err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to write GPX", err)
	}
}

// ExportJSON handles GET /api/v1/walks/:id/export/json
func (h *ExportHandler) ExportJSON(c *gin.Context) {
	id := c.Param("id")
	bundle, err := h.service.Bundle(id)
	if err != nil {
		if errors.Is(err, service.ErrWalkNotFound) {
			response.Error(c, http.StatusNotFound, "Walk not found", nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to load walk", err)
		return
	}

	c.Header("Content-Type", "application/json")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="walk-%s.json"`, id))
	if err := export.WriteJSON(c.Writer, bundle); err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to write bundle", err)
	}
}
