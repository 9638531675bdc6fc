package ripple

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/ripple-engine/internal/config"
	"github.com/magabrotheeeer/ripple-engine/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/ripple-engine/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/ripple-engine/internal/http/handlers/billing/checkout"
	"github.com/magabrotheeeer/ripple-engine/internal/http/handlers/billing/webhook"
	"github.com/magabrotheeeer/ripple-engine/internal/http/handlers/generation/generate"
	"github.com/magabrotheeeer/ripple-engine/internal/http/handlers/generation/history"
	"github.com/magabrotheeeer/ripple-engine/internal/http/handlers/health"
	"github.com/magabrotheeeer/ripple-engine/internal/http/middlewarectx"
	authservice "github.com/magabrotheeeer/ripple-engine/internal/services/auth"
	billingservice "github.com/magabrotheeeer/ripple-engine/internal/services/billing"
	generationservice "github.com/magabrotheeeer/ripple-engine/internal/services/generation"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config,
	authService *authservice.Service,
	generationService *generationservice.Service,
	billingService *billingservice.Service) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)
		r.Get("/health", health.New(logger).ServeHTTP)

		// Вебхук аутентифицируется подписью тела, не JWT
		r.Post("/billing/webhook", webhook.New(logger, billingService, cfg.WebhookSecret).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/generate", generate.New(logger, generationService).ServeHTTP)
			r.Get("/generations", history.New(logger, generationService).ServeHTTP)
			r.Post("/billing/checkout", checkout.New(logger, billingService).ServeHTTP)
		})
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
