package httpx

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MikeMC777/vendor-backoffice/internal/audit"
)

const ridKey = "rid"

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(ridKey, rid)
		c.Writer.Header().Set("X-Request-ID", rid)
		c.Next()
	}
}

func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("rid", c.GetString(ridKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
		}
		if id, ok := CallerID(c); ok {
			fields = append(fields, zap.String("caller", id))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case c.Writer.Status() >= 500:
			log.Error("http", fields...)
		default:
			log.Info("http", fields...)
		}
	}
}

// Actor attaches who is calling to the request context so audit events can
// carry it. The dashboard forwards the signed-in user in X-Actor-* headers.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		a := audit.Actor{
			Email:     strings.TrimSpace(c.GetHeader("X-Actor-Email")),
			Name:      strings.TrimSpace(c.GetHeader("X-Actor-Name")),
			IP:        clientIP(c),
			UserAgent: c.GetHeader("User-Agent"),
		}
		c.Request = c.Request.WithContext(audit.WithActor(c.Request.Context(), a))
		c.Next()
	}
}

func clientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if ip := strings.TrimSpace(c.GetHeader("X-Real-IP")); ip != "" {
		return ip
	}
	return c.ClientIP()
}
