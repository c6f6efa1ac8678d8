package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-optimizer/internal/shared/telemetry"
)

// Context keys handlers may set to enrich the request log line.
const (
	OutcomeKey      = "outcome"
	ResumeFormatKey = "resumeFormat"
	ParseOKKey      = "parseOk"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		reqID := RequestIDFromContext(c)

		outcome := ""
		if raw, ok := c.Get(OutcomeKey); ok {
			if s, ok := raw.(string); ok {
				outcome = s
			}
		}
		resumeFormat, _ := c.Get(ResumeFormatKey)
		parseOK, _ := c.Get(ParseOKKey)

		telemetry.Info("request.complete", map[string]any{
			"request_id":    reqID,
			"method":        c.Request.Method,
			"path":          c.Request.URL.Path,
			"route":         c.FullPath(),
			"status":        status,
			"outcome":       outcome,
			"duration_ms":   float64(latency.Microseconds()) / 1000.0,
			"resume_format": resumeFormat,
			"parse_ok":      parseOK,
			"client_ip":     c.ClientIP(),
			"user_agent":    c.Request.UserAgent(),
		})
	}
}
