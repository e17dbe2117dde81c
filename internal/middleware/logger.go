package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger logs each request with status, latency and client, plus the walk
// or event id when the route carries one, so a recording session can be
// followed through the log.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		extra := ""
		if id := c.Param("id"); id != "" {
			extra += " id=" + id
		}
		if device := c.GetHeader("X-Device-ID"); device != "" {
			extra += " device=" + device
		}
		if errs := c.Errors.String(); errs != "" {
			extra += " " + errs
		}

		log.Printf("[HTTP] %s %s %d %v %s%s",
			c.Request.Method,
			path,
			c.Writer.Status(),
			time.Since(start),
			c.ClientIP(),
			extra,
		)
	}
}
