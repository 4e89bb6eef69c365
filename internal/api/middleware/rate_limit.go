package middleware

import (
	"fmt"
	"net/http"
	"time"

	"marketplace-chat/internal/services"

	"github.com/gin-gonic/gin"
)

type RateLimitMiddleware struct {
	presence *services.PresenceService
}

func NewRateLimitMiddleware(presence *services.PresenceService) *RateLimitMiddleware {
	return &RateLimitMiddleware{presence: presence}
}

// RateLimit limits authenticated requests per user and endpoint.
func (rm *RateLimitMiddleware) RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		key := fmt.Sprintf("rate_limit:%s:%s", userID, c.Request.URL.Path)
		rm.check(c, key, requests, window)
	}
}

// RateLimitIP limits public routes by client IP.
func (rm *RateLimitMiddleware) RateLimitIP(requests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("rate_limit_ip:%s:%s", c.ClientIP(), c.Request.URL.Path)
		rm.check(c, key, requests, window)
	}
}

func (rm *RateLimitMiddleware) check(c *gin.Context, key string, requests int, window time.Duration) {
	allowed, err := rm.presence.CheckRateLimit(c.Request.Context(), key, requests, window)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rate limit check failed"})
		c.Abort()
		return
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":   "rate limit exceeded",
			"message": fmt.Sprintf("too many requests, limit is %d per %v", requests, window),
		})
		c.Abort()
		return
	}
	c.Next()
}
