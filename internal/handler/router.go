// Package handler provides the HTTP API of the DeveHub server.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/prn-tf/devehub/internal/app"
	"github.com/prn-tf/devehub/internal/metrics"
	"github.com/prn-tf/devehub/internal/repository"
)

// Router handles HTTP routing for the marketplace API.
type Router struct {
	app         *app.App
	metrics     *metrics.Metrics
	metricsPath string
	health      repository.HealthChecker
	limiter     *RateLimiter
	maxBodySize int64
	logger      zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	App *app.App

	// Metrics is optional. When set, requests are instrumented and the
	// registry is served at MetricsPath.
	Metrics     *metrics.Metrics
	MetricsPath string

	// Health is optional; nil reports the store as always healthy.
	Health repository.HealthChecker

	// RateLimiter is optional.
	RateLimiter *RateLimiter

	MaxBodySize int64
	Logger      zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(config RouterConfig) *Router {
	path := config.MetricsPath
	if path == "" {
		path = "/metrics"
	}
	return &Router{
		app:         config.App,
		metrics:     config.Metrics,
		metricsPath: path,
		health:      config.Health,
		limiter:     config.RateLimiter,
		maxBodySize: config.MaxBodySize,
		logger:      config.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(rt.logger))
	r.Use(rt.metrics.InstrumentHandler)
	if rt.maxBodySize > 0 {
		r.Use(middleware.RequestSize(rt.maxBodySize))
	}

	// Operational endpoints (not rate limited)
	r.Get("/healthz", rt.handleHealth)
	if rt.metrics != nil {
		r.Handle(rt.metricsPath, rt.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		if rt.limiter != nil {
			r.Use(rt.limiter.Handler)
		}

		// Routing state
		r.Get("/state", rt.handleState)
		r.Get("/view", rt.handleView)
		r.Post("/hash", rt.handleHash)
		r.Post("/navigate", rt.handleNavigate)
		r.Get("/tasks/{id}", rt.handleTask)

		// Session
		r.Route("/session", func(r chi.Router) {
			r.Post("/login", rt.handleLogin)
			r.Post("/logout", rt.handleLogout)
			r.Post("/admin-enter", rt.handleAdminEnter)
			r.Post("/impersonate", rt.handleImpersonate)
			r.Post("/become-developer", rt.handleBecomeDeveloper)
			r.Post("/home", rt.handleHome)
		})

		// Buyer
		r.Route("/projects/{id}", func(r chi.Router) {
			r.Post("/select", rt.handleSelectProject)
			r.Post("/purchase", rt.handlePurchase)
			r.Get("/launch", rt.handleLaunch)
			r.Post("/feedback", rt.handleFeedback)
		})
		r.Post("/licenses/{id}/refund", rt.handleRefund)
		r.Get("/licenses/{id}/receipt", rt.handleReceipt)

		// Admin console
		r.Route("/admin", func(r chi.Router) {
			r.Post("/licenses/{id}/force-refund", rt.handleForceRefund)
			r.Delete("/users/{id}", rt.handleDeleteUser)
			r.Post("/projects/{id}/move", rt.handleMoveRank)
			r.Put("/projects/{id}/status", rt.handleSetProjectStatus)
			r.Post("/payouts/run", rt.handleRunPayoutCycle)
		})

		// Developer console
		r.Route("/developer", func(r chi.Router) {
			r.Post("/projects", rt.handleCreateProject)
			r.Put("/projects/{id}", rt.handleUpdateProject)
			r.Put("/payout-method", rt.handleUpdatePayoutMethod)
		})
	})

	return r
}

// handleHealth handles health check requests.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	if rt.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := rt.health.Ping(ctx); err != nil {
			rt.logger.Error().Err(err).Msg("Store health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// fail writes err as an API error, logging unexpected failures.
func (rt *Router) fail(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := mapError(err)
	if apiErr.HTTPStatusCode >= http.StatusInternalServerError {
		rt.logger.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("Request failed")
	}
	writeError(w, r, apiErr)
}
