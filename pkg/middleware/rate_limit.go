package middleware

import (
	"net/http"
	"sync"

	"github.com/Omarrawas/Atmetny1/pkg/metrics"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitedMessage is the localized body of a 429 response.
const RateLimitedMessage = "عدد كبير من الطلبات. الرجاء المحاولة بعد قليل."

// limitKey prefers the authenticated subject (NAT-friendly) and falls back
// to the client IP. scope separates limiters mounted on different routes.
func limitKey(c *gin.Context, scope string) string {
	if sub := Subject(c); sub != "" {
		return scope + ":sub:" + sub
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return scope + ":ip:" + ip
}

func rejectRateLimited(c *gin.Context, limiter, retryAfter string) {
	c.Header("Retry-After", retryAfter)
	metrics.RateLimitRejected.WithLabelValues(limiter).Inc()
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited", "message": RateLimitedMessage})
}

// RateLimitMiddleware returns a Gin middleware enforcing an in-memory
// token-bucket per key. rps = allowed events per second, burst = maximum
// tokens in bucket.
func RateLimitMiddleware(scope string, rps float64, burst int) gin.HandlerFunc {
	var limiters sync.Map // key -> *rate.Limiter
	get := func(key string) *rate.Limiter {
		if v, ok := limiters.Load(key); ok {
			return v.(*rate.Limiter)
		}
		v, _ := limiters.LoadOrStore(key, rate.NewLimiter(rate.Limit(rps), burst))
		return v.(*rate.Limiter)
	}
	return func(c *gin.Context) {
		if !get(limitKey(c, scope)).Allow() {
			rejectRateLimited(c, "memory", "1")
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
