package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// requestLogger records one structured line per request.
func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// serveStatic falls back to the public directory for unmatched GET and HEAD requests.
func (h *Handler) serveStatic() gin.HandlerFunc {
	files := http.FileServer(http.Dir(h.publicDir))
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead:
			files.ServeHTTP(c.Writer, c.Request)
		default:
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		}
	}
}
