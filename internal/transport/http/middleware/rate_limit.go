package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aurelhotels/credential-service/internal/core/port"
)

// IPRateLimiter applies a per-client-IP sliding-window burst limit in front of
// the reset endpoints. It complements, not replaces, the per-email policy in
// the usecase layer: this one stops request floods, that one stops targeted
// abuse of a single account.
type IPRateLimiter struct {
	store  port.RateLimitStore
	logger *zap.Logger
	now    func() time.Time
	limit  int
	window time.Duration
}

// NewIPRateLimiter builds the middleware helper.
func NewIPRateLimiter(store port.RateLimitStore, limit int, window time.Duration, log *zap.Logger) *IPRateLimiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &IPRateLimiter{
		store:  store,
		logger: log,
		now:    time.Now,
		limit:  limit,
		window: window,
	}
}

// WithClock allows injection of a custom clock (primarily for testing).
func (rl *IPRateLimiter) WithClock(now func() time.Time) *IPRateLimiter {
	if now != nil {
		rl.now = now
	}
	return rl
}

// Handler returns the Gin middleware. A misconfigured limiter passes all
// traffic through; an unavailable store fails open with a warning.
func (rl *IPRateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.store == nil || rl.limit <= 0 || rl.window <= 0 {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		key := "ip_burst:" + ip
		now := rl.now().UTC()
		ctx := c.Request.Context()

		if err := rl.store.TrimWindow(ctx, key, rl.window, now); err != nil {
			rl.logger.Warn("ip rate limit trim failed", zap.Error(err))
			c.Next()
			return
		}

		count, err := rl.store.CountAttempts(ctx, key, rl.window, now)
		if err != nil {
			rl.logger.Warn("ip rate limit count failed", zap.Error(err))
			c.Next()
			return
		}

		reset := now.Add(rl.window)
		if oldest, found, err := rl.store.OldestAttempt(ctx, key, rl.window, now); err == nil && found {
			reset = oldest.Add(rl.window)
		}

		headers := c.Writer.Header()
		headers.Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if count >= rl.limit {
			retryAfter := int(math.Ceil(reset.Sub(now).Seconds()))
			if retryAfter < 0 {
				retryAfter = 0
			}
			headers.Set("X-RateLimit-Remaining", "0")
			headers.Set("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many requests",
				"retry_after": retryAfter,
			})
			return
		}

		if err := rl.store.RecordAttempt(ctx, key, now); err != nil {
			rl.logger.Warn("ip rate limit record failed", zap.Error(err))
		}
		remaining := rl.limit - count - 1
		if remaining < 0 {
			remaining = 0
		}
		headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		c.Next()
	}
}
