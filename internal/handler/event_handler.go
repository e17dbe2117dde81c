package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pawtrack/walks-backend-go/internal/service"
	"github.com/pawtrack/walks-backend-go/pkg/response"
)

// EventHandler handles HTTP requests for stop events.
type EventHandler struct {
	service *service.WalkService
}

// NewEventHandler creates a new event handler.
func NewEventHandler(service *service.WalkService) *EventHandler {
	return &EventHandler{service: service}
}

// RelabelRequest is the body for a user relabel.
type RelabelRequest struct {
	Label string `json:"label" binding:"required"`
}

// RelabelEvent handles PATCH /api/v1/events/:id/label
func (h *EventHandler) RelabelEvent(c *gin.Context) {
	var req RelabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ev, err := h.service.RelabelEvent(c.Param("id"), req.Label)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			response.Error(c, http.StatusNotFound, "Stop event not found", nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to relabel stop event", err)
		return
	}

	response.Success(c, ev)
}
