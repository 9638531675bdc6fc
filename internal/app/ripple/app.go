// Package ripple собирает основной HTTP-сервис: хранилище, кеш, клиентов
// внешних API, бизнес-сервисы и маршруты.
package ripple

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/ripple-engine/internal/cache"
	"github.com/magabrotheeeer/ripple-engine/internal/config"
	"github.com/magabrotheeeer/ripple-engine/internal/generator"
	"github.com/magabrotheeeer/ripple-engine/internal/lib/jwt"
	librabbitmq "github.com/magabrotheeeer/ripple-engine/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/ripple-engine/internal/lib/sl"
	"github.com/magabrotheeeer/ripple-engine/internal/migrations"
	"github.com/magabrotheeeer/ripple-engine/internal/paymentprovider"
	"github.com/magabrotheeeer/ripple-engine/internal/rabbitmq"
	authservice "github.com/magabrotheeeer/ripple-engine/internal/services/auth"
	billingservice "github.com/magabrotheeeer/ripple-engine/internal/services/billing"
	generationservice "github.com/magabrotheeeer/ripple-engine/internal/services/generation"
	"github.com/magabrotheeeer/ripple-engine/internal/storage/repository"
)

// App — основной HTTP-сервис.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	amqp   *amqp.Connection
}

// New создаёт и связывает все зависимости основного сервиса.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	// Очередь уведомлений не критична для приёма запросов: без неё
	// сервис стартует, но об апгрейдах никого не уведомит.
	var amqpConn *amqp.Connection
	var publisher billingservice.Publisher
	if cfg.RabbitMQURL != "" {
		amqpConn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			logger.Warn("rabbitmq is unavailable, upgrade notifications disabled", sl.Err(err))
		} else {
			ch, chErr := rabbitmq.SetupChannel(amqpConn, rabbitmq.GetNotificationQueues())
			if chErr != nil {
				logger.Warn("failed to setup rabbitmq channel", sl.Err(chErr))
			} else {
				publisher = librabbitmq.NewPublisher(ch, rabbitmq.NotificationsExchange)
			}
		}
	}

	jwtMaker := jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservice.New(db, jwtMaker)

	modelClient := generator.NewClient(cfg.GeneratorAPIKey, cfg.GeneratorModel,
		cfg.GeneratorAPIURL, cfg.GeneratorTimeout, cfg.GeneratorRetries)
	generationService := generationservice.New(db, cacheRedis, modelClient, logger)

	providerClient := paymentprovider.NewClient(cfg.ProviderAPIKey, cfg.ProviderAPIURL)
	billingService := billingservice.New(db, providerClient, publisher, cfg.PaymentProvider, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, authService, generationService, billingService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		amqp:   amqpConn,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if a.amqp != nil {
			_ = a.amqp.Close()
		}
		_ = a.db.DB.Close()
		return err
	}
}
