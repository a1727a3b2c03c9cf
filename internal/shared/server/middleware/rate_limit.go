package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth/v7/limiter"
	"github.com/gin-gonic/gin"

	"kyc-backend/internal/shared/server/respond"
)

const defaultRateLimitGroup = "DEFAULT"

// RateLimitRule is a per-client token bucket: Rate requests per second, Burst capacity.
type RateLimitRule struct {
	Rate  float64
	Burst int
}

// RateLimitConfig maps route groups to rules. Requests whose group has no rule pass through.
type RateLimitConfig struct {
	Rules        map[string]RateLimitRule
	DefaultGroup string
	GroupFor     func(*gin.Context) string
	TTL          time.Duration
}

// RateLimit limits requests per client IP and route group using tollbooth.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.DefaultGroup == "" {
		cfg.DefaultGroup = defaultRateLimitGroup
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}

	limiters := make(map[string]*limiter.Limiter, len(cfg.Rules))
	for group, rule := range cfg.Rules {
		if rule.Rate <= 0 {
			continue
		}
		lmt := tollbooth.NewLimiter(rule.Rate, &limiter.ExpirableOptions{
			DefaultExpirationTTL: cfg.TTL,
		})
		if rule.Burst > 0 {
			lmt.SetBurst(rule.Burst)
		}
		lmt.SetMessage("Too many requests")
		limiters[group] = lmt
	}

	return func(c *gin.Context) {
		group := cfg.DefaultGroup
		if cfg.GroupFor != nil {
			if g := strings.TrimSpace(cfg.GroupFor(c)); g != "" {
				group = g
			}
		}
		lmt, ok := limiters[group]
		if !ok {
			c.Next()
			return
		}
		if httpErr := tollbooth.LimitByRequest(lmt, c.Writer, c.Request); httpErr != nil {
			retryAfter := int(1 / lmt.GetMax())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			respond.Error(c, http.StatusTooManyRequests, "rate_limited", httpErr.Message, gin.H{"group": group})
			return
		}
		c.Next()
	}
}
