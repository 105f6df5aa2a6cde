package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/domain"
	"github.com/mustafakutlankale/my-ecommerce-app/internal/service"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/health"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/middleware"
)

const serviceName = "storefront"

// Services bundles the application services the router exposes.
type Services struct {
	Catalog    *service.CatalogService
	Engagement *service.EngagementService
	Users      *service.UserService
	Audit      *service.AuditService
}

// RouterConfig holds the transport-level settings of the router.
type RouterConfig struct {
	CORS              middleware.CORSConfig
	RateLimitRPS      float64
	RateLimitBurst    int
	PprofAllowedCIDRs []string
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	svc Services,
	validate middleware.TokenValidator,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing(serviceName, "/health/live", "/health/ready", "/metrics"))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	if len(cfg.PprofAllowedCIDRs) > 0 {
		middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)
	}

	limit := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimitRPS > 0 {
		limit = middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
	}

	authHandler := NewAuthHandler(svc.Users, logger)
	itemHandler := NewItemHandler(svc.Catalog, svc.Engagement, logger)
	userHandler := NewUserHandler(svc.Users, logger)
	auditHandler := NewAuditHandler(svc.Audit, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Public endpoints
		r.Group(func(r chi.Router) {
			r.Use(limit)

			r.Post("/auth/login", authHandler.Login)
			r.Post("/auth/refresh", authHandler.RefreshToken)

			r.Get("/categories", itemHandler.ListCategories)
			r.Get("/items", itemHandler.ListItems)
			r.Get("/items/slug/{slug}", itemHandler.GetItemBySlug)
			r.Get("/items/{id}", itemHandler.GetItem)
		})

		// Session required
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(validate))
			r.Use(limit)

			r.Post("/items/{id}/rating", itemHandler.SubmitRating)
			r.Post("/items/{id}/review", itemHandler.SubmitReview)
			r.Get("/users/me", userHandler.GetProfile)
		})

		// Administration
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(validate))
			r.Use(middleware.RequireRole(domain.RoleAdmin))
			r.Use(limit)

			r.Post("/items", itemHandler.CreateItem)
			r.Delete("/items/{id}", itemHandler.DeleteItem)

			r.Get("/users", userHandler.ListUsers)
			r.Post("/users", userHandler.CreateUser)
			r.Delete("/users/{id}", userHandler.DeleteUser)

			r.Get("/audit", auditHandler.ListEntries)
		})
	})

	return r
}
