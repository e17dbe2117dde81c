package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pawtrack/walks-backend-go/internal/ingest"
	"github.com/pawtrack/walks-backend-go/internal/models"
	"github.com/pawtrack/walks-backend-go/internal/service"
	"github.com/pawtrack/walks-backend-go/pkg/response"
)

// WalkHandler handles HTTP requests for walk recording and retrieval.
type WalkHandler struct {
	recorder *ingest.Recorder
	service  *service.WalkService
}

// NewWalkHandler creates a new walk handler.
func NewWalkHandler(recorder *ingest.Recorder, service *service.WalkService) *WalkHandler {
	return &WalkHandler{recorder: recorder, service: service}
}

// StartWalkRequest is the body for starting a recording session.
type StartWalkRequest struct {
	UserID string   `json:"userId" binding:"required"`
	DogIDs []string `json:"dogIds"`
}

// StartWalk handles POST /api/v1/walks
func (h *WalkHandler) StartWalk(c *gin.Context) {
	var req StartWalkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	walk, err := h.recorder.StartWalk(req.UserID, req.DogIDs)
	if err != nil {
		if errors.Is(err, ingest.ErrWalkOpen) {
			response.Error(c, http.StatusConflict, "A walk is already being recorded", nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to start walk", err)
		return
	}

	response.Success(c, walk)
}

// StopWalk handles POST /api/v1/walks/stop
func (h *WalkHandler) StopWalk(c *gin.Context) {
	walk, err := h.recorder.StopWalk()
	if err != nil {
		if errors.Is(err, ingest.ErrNoOpenWalk) {
			response.Error(c, http.StatusConflict, "No walk is being recorded", nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to stop walk", err)
		return
	}

	response.Success(c, walk)
}

// PushFix handles POST /api/v1/walks/current/fixes
func (h *WalkHandler) PushFix(c *gin.Context) {
	var fix models.Fix
	if err := c.ShouldBindJSON(&fix); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid fix", err)
		return
	}

	if err := h.recorder.Push(fix); err != nil {
		response.Error(c, http.StatusConflict, "No walk is being recorded", nil)
		return
	}

	response.Success(c, nil)
}

// GetWalks handles GET /api/v1/walks
func (h *WalkHandler) GetWalks(c *gin.Context) {
	var filter models.WalkFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	walks, total, err := h.service.List(filter)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get walks", err)
		return
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 100
	}
	totalPages := int(total) / filter.PageSize
	if int(total)%filter.PageSize > 0 {
		totalPages++
	}

	response.Success(c, gin.H{
		"data":       walks,
		"total":      total,
		"page":       filter.Page,
		"pageSize":   filter.PageSize,
		"totalPages": totalPages,
	})
}

// GetWalkByID handles GET /api/v1/walks/:id
func (h *WalkHandler) GetWalkByID(c *gin.Context) {
	detail, err := h.service.Detail(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrWalkNotFound) {
			response.Error(c, http.StatusNotFound, "Walk not found", nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to get walk", err)
		return
	}

	response.Success(c, detail)
}

// DeleteWalk handles DELETE /api/v1/walks/:id
func (h *WalkHandler) DeleteWalk(c *gin.Context) {
	if err := h.service.Delete(c.Param("id")); err != nil {
		if errors.Is(err, service.ErrWalkNotFound) {
			response.Error(c, http.StatusNotFound, "Walk not found", nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to delete walk", err)
		return
	}

	response.Success(c, nil)
}

// Resegment handles POST /api/v1/walks/:id/resegment
func (h *WalkHandler) Resegment(c *gin.Context) {
	events, err := h.service.Resegment(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrWalkNotFound) {
			response.Error(c, http.StatusNotFound, "Walk not found", nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to resegment walk", err)
		return
	}

	response.Success(c, events)
}
