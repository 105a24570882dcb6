package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/antoniojosev/crm-satoru/internal/cache"
	"github.com/antoniojosev/crm-satoru/internal/event"
	"github.com/antoniojosev/crm-satoru/internal/session"
	"github.com/antoniojosev/crm-satoru/pkg/health"
	"github.com/antoniojosev/crm-satoru/pkg/middleware"
)

// RouterDeps bundles everything the router wires together.
type RouterDeps struct {
	Manager        *session.Manager
	Store          session.Store
	Codec          *session.CookieCodec
	Projects       *cache.ProjectCache
	Investors      *cache.InvestorCache
	Dashboard      *cache.DashboardCache
	Events         *event.Publisher
	Health         *health.Handler
	Logger         *slog.Logger
	AllowedOrigins []string
	RateLimitRPS   int
	RateLimitBurst int
}

// NewRouter creates a chi router with all dashboard routes registered.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowCredentials: true,
	}))
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.Tracing("satoru-admin-dashboard"))
	r.Use(middleware.RequestLogging(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.PrometheusMetrics("satoru_admin"))
	r.Use(middleware.RateLimit(deps.RateLimitRPS, deps.RateLimitBurst, deps.Logger))

	// Health check endpoints
	r.Get("/health/live", deps.Health.LivenessHandler())
	r.Get("/health/ready", deps.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	authHandler := NewAuthHandler(deps.Manager, deps.Codec, deps.Events, deps.Logger)
	projectHandler := NewProjectHandler(deps.Projects, deps.Events, deps.Logger)
	investorHandler := NewInvestorHandler(deps.Investors, deps.Events, deps.Logger)
	dashboardHandler := NewDashboardHandler(deps.Dashboard, deps.Logger)

	requireSession := RequireSession(deps.Codec, deps.Store, deps.Logger)
	requireSuperAdmin := RequireSuperAdmin(deps.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Session endpoints that must work without a live session.
		r.Post("/auth/login", authHandler.Login)
		r.Get("/auth/session", authHandler.Session)

		r.Group(func(r chi.Router) {
			r.Use(requireSession)

			r.Post("/auth/logout", authHandler.Logout)
			r.Post("/auth/register", authHandler.Register)

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projectHandler.List)
				r.Post("/", projectHandler.Create)
				r.Get("/{id}", projectHandler.Get)
				r.Patch("/{id}", projectHandler.Update)
				r.Patch("/{id}/status/{status}", projectHandler.UpdateStatus)
				r.With(requireSuperAdmin).Delete("/{id}", projectHandler.Delete)
				r.Post("/{id}/images", projectHandler.UploadImages)
				r.Delete("/{id}/images/{filename}", projectHandler.DeleteImage)
			})

			r.Route("/investors", func(r chi.Router) {
				r.Get("/", investorHandler.List)
				r.Get("/{id}", investorHandler.Get)
				r.Patch("/{id}/kyc", investorHandler.UpdateKyc)
			})

			r.Get("/dashboard/stats", dashboardHandler.Stats)
		})
	})

	return r
}
