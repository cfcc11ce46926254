package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"studylog/internal/ratelimit"
	"studylog/pkg/config"

	"github.com/gin-gonic/gin"
)

// RateLimitLogin throttles password attempts per client IP, backed by
// the redis token bucket. Redis hiccups fail open.
func RateLimitLogin(lim ratelimit.Limiter, bcfg config.Bucket) gin.HandlerFunc {
	bucket := ratelimit.Bucket{RequestsPerMinute: bcfg.RequestsPerMinute, BurstSize: bcfg.BurstSize}
	return func(c *gin.Context) {
		if lim == nil || !bucket.Enabled() {
			c.Next()
			return
		}

		dec, err := lim.Allow(c.Request.Context(), "login", c.ClientIP(), bucket)
		if err != nil {
			slog.Default().Warn("rate limit check failed", "scope", "login", "err", err)
			c.Next()
			return
		}
		if dec.Allowed {
			c.Next()
			return
		}

		retryAfterSeconds := int(dec.RetryAfter.Seconds())
		if retryAfterSeconds <= 0 {
			retryAfterSeconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":             "too many login attempts",
			"retryAfterSeconds": retryAfterSeconds,
		})
	}
}
