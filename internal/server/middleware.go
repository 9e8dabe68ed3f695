package server

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/carhouse/internal/observability/context"
	"github.com/smallbiznis/carhouse/internal/observability/logger"
	"go.uber.org/zap"
)

const rateLimitReasonAdminWrite = "admin-write"

// AdminWriteRateLimit throttles mutating admin requests per actor. Reads pass
// through, as does everything when the limiter is disabled.
func (s *Server) AdminWriteRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isWrite(c.Request.Method) || s.writeLimiter == nil || !s.writeLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		endpoint := normalizeRateLimitEndpoint(c)
		_, actorID := obscontext.ActorFromContext(ctx)
		if actorID == "" {
			actorID = c.ClientIP()
		}

		result, err := s.writeLimiter.Allow(ctx, actorID)
		if err != nil {
			logger.FromContext(ctx).Warn("admin write rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !result.Allowed {
			logger.FromContext(ctx).Warn("admin write rate limit exceeded",
				zap.String("endpoint", endpoint),
				zap.String("actor_id", actorID),
			)
			if s.obsMetrics != nil {
				s.obsMetrics.RecordRateLimitDenied(ctx, endpoint, rateLimitReasonAdminWrite)
			}
			retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.Header("X-Rate-Limited-Reason", rateLimitReasonAdminWrite)
			AbortWithError(c, ErrRateLimited)
			return
		}

		if s.obsMetrics != nil {
			s.obsMetrics.RecordRateLimitAllowed(ctx, endpoint)
		}
		c.Next()
	}
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := c.FullPath()
	if endpoint == "" {
		endpoint = c.Request.URL.Path
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
