package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pawtrack/walks-backend-go/internal/handler"
	"github.com/pawtrack/walks-backend-go/internal/middleware"
)

// Handlers bundles the HTTP handlers mounted by the router.
type Handlers struct {
	Walks  *handler.WalkHandler
	Events *handler.EventHandler
	Export *handler.ExportHandler
	Sync   *handler.SyncHandler
}

// SetupRouter builds the gin engine with all routes mounted.
func SetupRouter(h Handlers, registry *prometheus.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// CORS so a companion web UI can hit the local API directly
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Device-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Walks Backend API is running",
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := r.Group("/api/v1")
	{
		walks := api.Group("/walks")
		{
			walks.POST("", h.Walks.StartWalk)
			walks.POST("/stop", h.Walks.StopWalk)
			// Fixes arrive at ~1 Hz from real location services; anything
			// wildly beyond that is an adapter bug.
			walks.POST("/current/fixes", middleware.RateLimit(600, time.Minute), h.Walks.PushFix)
			walks.GET("", h.Walks.GetWalks)
			walks.GET("/:id", h.Walks.GetWalkByID)
			walks.DELETE("/:id", h.Walks.DeleteWalk)
			walks.POST("/:id/resegment", h.Walks.Resegment)
			walks.GET("/:id/export/gpx", h.Export.ExportGPX)
			walks.GET("/:id/export/json", h.Export.ExportJSON)
		}

		events := api.Group("/events")
		{
			events.PATCH("/:id/label", h.Events.RelabelEvent)
		}

		sync := api.Group("/sync")
		{
			sync.POST("/flush", h.Sync.Flush)
			sync.POST("/connectivity", h.Sync.Connectivity)
			sync.GET("/pending", h.Sync.Pending)
		}
	}

	return r
}
