package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pawtrack/walks-backend-go/internal/syncer"
	"github.com/pawtrack/walks-backend-go/pkg/response"
)

// SyncHandler exposes the sync engine's triggers and the pending-records
// indicator.
type SyncHandler struct {
	engine *syncer.Engine
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(engine *syncer.Engine) *SyncHandler {
	return &SyncHandler{engine: engine}
}

// Flush handles POST /api/v1/sync/flush
func (h *SyncHandler) Flush(c *gin.Context) {
	h.engine.Trigger()
	response.Success(c, nil)
}

// ConnectivityRequest is the body of a connectivity transition report.
type ConnectivityRequest struct {
	Online bool `json:"online"`
}

// Connectivity handles POST /api/v1/sync/connectivity. Going online is a
// drain trigger; going offline is informational only.
func (h *SyncHandler) Connectivity(c *gin.Context) {
	var req ConnectivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Online {
		h.engine.Trigger()
	}
	response.Success(c, nil)
}

// Pending handles GET /api/v1/sync/pending
func (h *SyncHandler) Pending(c *gin.Context) {
	counts, err := h.engine.PendingCounts()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to read pending counts", err)
		return
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	response.Success(c, gin.H{
		"total":    total,
		"byEntity": counts,
	})
}
