package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Logger logs method, path, status and latency of each request
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		entry := log.WithFields(log.Fields{
			"status":  c.Writer.Status(),
			"latency": time.Since(startTime),
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("[HTTP] Request failed")
		} else {
			entry.Debug("[HTTP] Request served")
		}
	}
}

// ErrorHandler handles global errors: anything attached with c.Error is
// logged, and turned into a 500 if no handler answered
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		for _, e := range c.Errors {
			log.WithField("path", c.Request.URL.Path).Errorf("[HTTP-ERROR] %v", e.Err)
		}
		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{"error": c.Errors.Last().Error()})
		}
	}
}
