package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meimberg-io/awesomeapps/pkg/health"
	"github.com/meimberg-io/awesomeapps/pkg/middleware"
)

// Handlers bundles the HTTP handlers the router mounts.
type Handlers struct {
	Review  *ReviewHandler
	Member  *MemberHandler
	Tag     *TagHandler
	Service *ServiceHandler
	GraphQL http.Handler
	Health  *health.Handler
}

// NewRouter creates a chi router with all backend routes registered.
func NewRouter(h Handlers, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing("awesomeapps-backend"))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("awesomeapps-backend"))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	// Health and metrics endpoints
	r.Get("/health/live", h.Health.LivenessHandler())
	r.Get("/health/ready", h.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	// Profiling endpoints, reachable from loopback only.
	middleware.RegisterPprof(r, []string{"127.0.0.1/32", "::1/128"}, logger)

	// Review API endpoints
	r.Route("/api/reviews", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", h.Review.Create)
		r.Put("/{id}", h.Review.Update)
		r.Delete("/{id}", h.Review.Delete)
		r.Post("/{id}/helpful", h.Review.IncrementHelpful)
		r.Get("/service/{serviceId}", h.Review.ListByService)
		r.Get("/service/{serviceId}/average", h.Review.AverageRating)
	})

	// Member API endpoints (the member id comes from the X-Member-ID header,
	// resolved by the upstream auth layer)
	r.Route("/api/members/me", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/", h.Member.GetProfile)
		r.Put("/", h.Member.UpdateProfile)
		r.Get("/statistics", h.Member.GetStatistics)
		r.Get("/reviews", h.Member.ListReviews)

		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", h.Member.ListFavorites)
			r.Post("/", h.Member.AddFavorite)
			r.Get("/{serviceId}", h.Member.CheckFavorite)
			r.Delete("/{serviceId}", h.Member.RemoveFavorite)
		})
	})

	// Tag API endpoints. Tag listings change rarely, let clients and CDNs
	// cache them briefly.
	r.Route("/api/tags", func(r chi.Router) {
		r.Use(middleware.CacheControl(60))

		r.Get("/", h.Tag.List)
		r.Get("/{documentId}/count", h.Tag.CountServices)
	})

	// Service API endpoints
	r.Route("/api/services", func(r chi.Router) {
		r.With(middleware.CacheControl(60)).Get("/by-tags", h.Tag.ServicesByTags)
		r.Post("/refresh-review-stats", h.Service.RefreshReviewStats)
	})

	// GraphQL endpoint
	if h.GraphQL != nil {
		r.Handle("/graphql", h.GraphQL)
	}

	return r
}
