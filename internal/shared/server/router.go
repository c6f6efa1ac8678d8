package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-optimizer/internal/services/health"
	"resume-optimizer/internal/shared/config"
	"resume-optimizer/internal/shared/metrics"
	"resume-optimizer/internal/shared/server/middleware"
	"resume-optimizer/internal/shared/server/respond"
)

const optimizeRoute = "/api/v1/optimize"

// RouteRegistrar attaches routes to a group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// PageRegistrar attaches the HTML page routes at the root.
type PageRegistrar interface {
	RegisterRoutes(r gin.IRoutes)
}

// RouterDeps carries the handlers mounted by NewRouter. Nil handlers are
// skipped; a nil Health still serves the health route with only "ok".
type RouterDeps struct {
	Config          config.Config
	Page            PageRegistrar
	OptimizeHandler RouteRegistrar
	FetchHandler    RouteRegistrar
	RateLimiter     *middleware.RateLimiter
	Health          *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	if cfg.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = cfg.MaxUploadBytes
	}

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			DefaultGroup: "DEFAULT",
			GroupFor:     rateLimitGroup,
			Limiter:      deps.RateLimiter,
			Rules: map[string]middleware.RateLimitRule{
				"OPTIMIZE": {PerMinute: cfg.RateLimitPerMinute, Burst: cfg.RateLimitBurst},
			},
		}),
	)

	r.GET("/metrics", metrics.Handler())
	if deps.Page != nil {
		deps.Page.RegisterRoutes(r)
	}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, deps.Health.Status())
	})
	if deps.OptimizeHandler != nil {
		deps.OptimizeHandler.RegisterRoutes(api)
	}
	if deps.FetchHandler != nil {
		deps.FetchHandler.RegisterRoutes(api)
	}

	return r
}

// rateLimitGroup puts the routes that can reach the model in the OPTIMIZE
// group. The form body is not read here, so page fetches count too.
func rateLimitGroup(c *gin.Context) string {
	if c.Request.Method != http.MethodPost {
		return "DEFAULT"
	}
	switch c.FullPath() {
	case optimizeRoute, "/":
		return "OPTIMIZE"
	}
	return "DEFAULT"
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
