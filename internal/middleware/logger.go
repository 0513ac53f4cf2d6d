package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger logs one line per request with status and latency. Health
// probes are skipped so pipeline and sync runs stay readable in the
// server log.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}

		c.Next()

		if path == "/health" {
			return
		}

		status := c.Writer.Status()
		latency := time.Since(start).Round(time.Microsecond)
		if errs := c.Errors.String(); errs != "" {
			log.Printf("%s %s -> %d in %v from %s | %s",
				c.Request.Method, path, status, latency, c.ClientIP(), errs)
			return
		}
		log.Printf("%s %s -> %d in %v from %s",
			c.Request.Method, path, status, latency, c.ClientIP())
	}
}
