package api

import (
	"log/slog"
	"net/http"
	"osworks-api/internal/api/handler"
	mw "osworks-api/internal/api/middleware"
	"osworks-api/internal/api/problem"
	"osworks-api/internal/config"
	"osworks-api/internal/domain/customer"
	"osworks-api/internal/pkg/i18n"
	"time"

	_ "osworks-api/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

const requestTimeout = 60 * time.Second

// SetupRouter also returns the rate limiter so the caller can stop its
// cleanup loop on shutdown.
func SetupRouter(customerRepo handler.CustomerReader, registrationService customer.RegistrationService, messages *i18n.MessageSource, cfg *config.Config, logger *slog.Logger) (*chi.Mux, *mw.RateLimiterMiddleware) {
	router := chi.NewRouter()
	problems := problem.NewWriter(messages, logger)
	rateLimiter := mw.NewRateLimiterMiddleware(cfg.Server.RateLimit, problems, logger)

	setupMiddleware(router, rateLimiter, logger)
	setupMetricsEndpoint(router, cfg, logger)
	setupAuthRoutes(router, cfg, messages, problems, logger)
	setupCustomerRoutes(router, cfg, customerRepo, registrationService, messages, problems, logger)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	setupSwaggerEndpoint(router, logger)

	return router, rateLimiter
}

func setupMiddleware(router *chi.Mux, rateLimiter *mw.RateLimiterMiddleware, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(requestTimeout))
	router.Use(rateLimiter.Middleware)
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupSwaggerEndpoint(router *chi.Mux, logger *slog.Logger) {
	logger.Info("Setting up Swagger UI endpoint", "path", "/swagger/")
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
}

// setupAuthRoutes exposes the token endpoint only when bearer auth is on.
func setupAuthRoutes(router *chi.Mux, cfg *config.Config, messages *i18n.MessageSource, problems *problem.Writer, logger *slog.Logger) {
	if !cfg.Server.Auth.Enabled {
		logger.Info("Bearer auth disabled, /auth/token not registered")
		return
	}

	authHandler := handler.NewAuthHandler(cfg.Server.Auth, messages, problems, logger)
	router.Route("/auth", func(r chi.Router) {
		r.Post("/token", authHandler.GenerateBearerToken)
	})
}

func setupCustomerRoutes(router chi.Router, cfg *config.Config, repo handler.CustomerReader, svc customer.RegistrationService, messages *i18n.MessageSource, problems *problem.Writer, logger *slog.Logger) {
	h := handler.NewCustomerHandler(repo, svc, messages, problems, logger)

	router.Route("/clientes", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, problems, logger))
		r.Get("/", h.ListCustomers)
		r.Post("/", h.CreateCustomer)
		r.Get("/busca", h.SearchCustomers)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetCustomer)
			r.Put("/", h.UpdateCustomer)
			r.Delete("/", h.DeleteCustomer)
		})
	})
}
