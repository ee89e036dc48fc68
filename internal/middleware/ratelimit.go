package middleware

import (
	"sync"
	"time"

	"ezm_trade_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// RateLimiter hands out one token bucket per authenticated user. Buckets of users that
// stay idle for longer than a minute are evicted.
type RateLimiter struct {
	mu       sync.Mutex
	limiters *cache.Cache
	limit    rate.Limit
	burst    int
}

// NewRateLimiter allows perMinute requests per user per minute, with an equal burst.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &RateLimiter{
		limiters: cache.New(time.Minute, 5*time.Minute),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
	}
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if v, ok := rl.limiters.Get(key); ok {
		l := v.(*rate.Limiter)
		rl.limiters.SetDefault(key, l)
		return l
	}
	l := rate.NewLimiter(rl.limit, rl.burst)
	rl.limiters.SetDefault(key, l)
	return l
}

// Middleware rejects requests over the user's budget with 429. Must run after AuthMiddleware.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiterFor(common.GetUserIDFromContext(c).String()).Allow() {
			common.RespondWithError(c, common.ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
