package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/collabcare-api/internal/config"
	"github.com/jwalitptl/collabcare-api/internal/handler/health"
	"github.com/jwalitptl/collabcare-api/internal/handler/prometheus"
	"github.com/jwalitptl/collabcare-api/internal/middleware"
	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/pkg/validator"
)

// Handler mounts routes open to every authenticated user.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// AdminHandler mounts routes where some operations are admin only.
type AdminHandler interface {
	RegisterRoutes(r *gin.RouterGroup, adminOnly gin.HandlerFunc)
}

// Handlers is every route group served by the API.
type Handlers struct {
	Auth       Handler
	Patient    Handler
	Clinical   Handler
	SafetyPlan Handler
	Reminder   Handler
	Psych      Handler
	Report     Handler
	Clinic     AdminHandler
	User       AdminHandler
	Audit      AdminHandler
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	health   *health.Handler
	metrics  *prometheus.Handler
}

func NewRouter(
	cfg *config.Config,
	auth *middleware.AuthMiddleware,
	handlers Handlers,
	healthH *health.Handler,
	metricsH *prometheus.Handler,
) (*Router, error) {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	if err := validator.Register(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}
	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		health:   healthH,
		metrics:  metricsH,
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		metricsH.Middleware(),
		middleware.ErrorHandler(),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.NoStore(),
		middleware.CORS(cfg.CORS),
	)

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  rate.Limit(cfg.RateLimit.RequestsPerSecond),
			Burst: cfg.RateLimit.Burst,
		})
		engine.Use(limiter.RateLimit())
	}

	engine.Use(
		middleware.SizeLimit(cfg.Server.MaxBodyBytes),
		middleware.Timeout(cfg.Server.RequestTimeout),
		middleware.AuditClient(),
	)

	r.setup()
	return r, nil
}

func (r *Router) setup() {
	api := r.engine.Group("/api/v1")

	r.health.RegisterRoutes(api)
	api.GET("/health/metrics", r.metrics.Handler())

	r.handlers.Auth.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	for _, h := range []Handler{
		r.handlers.Patient,
		r.handlers.Clinical,
		r.handlers.SafetyPlan,
		r.handlers.Reminder,
		r.handlers.Psych,
		r.handlers.Report,
	} {
		h.RegisterRoutes(protected)
	}

	adminOnly := r.auth.RequireRole(model.RoleAdmin)
	for _, h := range []AdminHandler{r.handlers.Clinic, r.handlers.User, r.handlers.Audit} {
		h.RegisterRoutes(protected, adminOnly)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
