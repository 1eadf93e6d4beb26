package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/Cymoe/bill/internal/auditcontext"
	"github.com/Cymoe/bill/internal/observability"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	HeaderOrg       = "X-Org-ID"
	HeaderRequestID = "X-Request-ID"

	contextOrgIDKey = "org_id"
)

// RequestContext propagates the request id, client IP, and user agent into
// the request context so the audit trail can pick them up.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(HeaderRequestID, requestID)

		ctx := c.Request.Context()
		ctx = auditcontext.WithRequestID(ctx, requestID)
		ctx = auditcontext.WithIPAddress(ctx, c.ClientIP())
		ctx = auditcontext.WithUserAgent(ctx, c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func RequestLogger(log *zap.Logger, metrics *observability.Metrics) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		if metrics != nil {
			metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
			metrics.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(duration.Seconds())
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("request_id", auditcontext.RequestIDFromContext(c.Request.Context())),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.Last().Error()))
		}

		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

// OrgContext resolves the tenant from the X-Org-ID header. Every /api/v1
// route requires it.
func OrgContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderOrg))
		if raw == "" {
			AbortWithError(c, newValidationError("org_id", "missing_org_id", "missing "+HeaderOrg+" header"))
			return
		}
		orgID, err := snowflake.ParseString(raw)
		if err != nil || orgID == 0 {
			AbortWithError(c, newValidationError("org_id", "invalid_org_id", "invalid "+HeaderOrg+" header"))
			return
		}

		c.Set(contextOrgIDKey, orgID)
		c.Next()
	}
}

func orgID(c *gin.Context) snowflake.ID {
	if v, ok := c.Get(contextOrgIDKey); ok {
		if id, ok := v.(snowflake.ID); ok {
			return id
		}
	}
	return 0
}

// ShareRateLimit throttles the unauthenticated share surface per client
// IP. A limiter error fails open: a redis outage must not take the share
// links down with it.
func (s *Server) ShareRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.shareLimiter.Enabled() {
			c.Next()
			return
		}

		allowed, err := s.shareLimiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			s.log.Warn("share rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			if s.metrics != nil {
				s.metrics.RateLimitRejected.Inc()
			}
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
