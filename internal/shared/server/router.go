package server

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"kyc-backend/internal/onboarding"
	"kyc-backend/internal/shared/config"
	"kyc-backend/internal/shared/metrics"
	"kyc-backend/internal/shared/server/middleware"
	"kyc-backend/internal/shared/server/respond"
)

// Rate limit groups. Status polling gets a larger budget.
const (
	RateGroupDefault = "DEFAULT"
	RateGroupPolling = "POLLING"

	pollingRateFactor = 4
)

// RouterDeps are the handlers and settings the router mounts.
type RouterDeps struct {
	Config            config.Config
	OnboardingHandler *onboarding.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	cfg := deps.Config

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "kyc-api"
	}

	r.Use(
		middleware.RequestID(),
		otelgin.Middleware(serviceName),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)
	if cfg.RateLimitRPS > 0 {
		r.Use(middleware.RateLimit(rateLimitConfig(cfg)))
	}

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		respond.OK(c, gin.H{"ok": true})
	})
	if deps.OnboardingHandler != nil {
		deps.OnboardingHandler.RegisterRoutes(api)
	}

	return r
}

func rateLimitConfig(cfg config.Config) middleware.RateLimitConfig {
	burst := cfg.RateLimitBurst
	return middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			RateGroupDefault: {Rate: cfg.RateLimitRPS, Burst: burst},
			RateGroupPolling: {Rate: cfg.RateLimitRPS * pollingRateFactor, Burst: burst * pollingRateFactor},
		},
		DefaultGroup: RateGroupDefault,
		GroupFor: func(c *gin.Context) string {
			if c.FullPath() == "/api"+onboarding.StatusRoute {
				return RateGroupPolling
			}
			return RateGroupDefault
		},
		TTL: cfg.RateLimitTTL,
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
