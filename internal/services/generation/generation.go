// Package generation реализует основной конвейер генерации постов:
// проверка доступа -> построение промпта -> вызов модели -> разбор ответа
// -> сохранение записи в историю.
package generation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/magabrotheeeer/ripple-engine/internal/entitlement"
	"github.com/magabrotheeeer/ripple-engine/internal/generator"
	"github.com/magabrotheeeer/ripple-engine/internal/lib/sl"
	"github.com/magabrotheeeer/ripple-engine/internal/models"
)

var generationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ripple_generations_total",
	Help: "Generation pipeline outcomes.",
}, []string{"outcome"})

// Repository определяет методы хранилища, нужные конвейеру генерации.
type Repository interface {
	// GetUser возвращает пользователя по UID; уровень подписки читается
	// из базы при каждом запросе.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	// CreateGeneration сохраняет запись генерации и возвращает её ID.
	CreateGeneration(ctx context.Context, gen models.Generation) (string, error)
	// ListGenerationsByUser возвращает историю от новых к старым.
	ListGenerationsByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.Generation, error)
	// IncrementGenerationCount увеличивает счётчик генераций пользователя.
	IncrementGenerationCount(ctx context.Context, userUID string) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Invoker описывает вызов внешней генеративной модели.
type Invoker interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Result — итог успешного прохода конвейера. Saved=false означает, что
// посты сгенерированы, но запись в историю не удалась; это не ошибка
// запроса, подробности в StorageWarning.
type Result struct {
	Posts          []models.Post
	GenerationID   string
	Saved          bool
	StorageWarning string
}

// Service реализует бизнес-логику генерации и истории.
type Service struct {
	repo    Repository
	cache   Cache
	invoker Invoker
	log     *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, cache Cache, invoker Invoker, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		cache:   cache,
		invoker: invoker,
		log:     log,
	}
}

// Generate выполняет полный конвейер генерации для пользователя.
//
// Отказ в доступе происходит до какого-либо обращения к модели и не имеет
// побочных эффектов. После отправки запроса модели конвейер доводится до
// конца независимо от отключения клиента: вызов и сохранение идут на
// контексте, отвязанном от запроса, чтобы не оставлять половинчатых
// состояний ценой впустую доделанной работы.
func (s *Service) Generate(ctx context.Context, userUID string, req models.DummyGenerateRequest) (*Result, error) {
	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		generationsTotal.WithLabelValues("storage_error").Inc()
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	platforms := generator.DedupePlatforms(req.Platforms)

	if denied := entitlement.Check(user.Tier, platforms); len(denied) > 0 {
		generationsTotal.WithLabelValues("denied").Inc()
		return nil, &entitlement.DeniedError{Platforms: denied}
	}

	prompt := generator.BuildPrompt(req.Text, platforms)

	callCtx := context.WithoutCancel(ctx)
	raw, err := s.invoker.Generate(callCtx, prompt)
	if err != nil {
		generationsTotal.WithLabelValues("model_error").Inc()
		return nil, err
	}

	posts, err := generator.ParsePosts(raw)
	if err != nil {
		generationsTotal.WithLabelValues("parse_error").Inc()
		return nil, err
	}

	result := &Result{Posts: posts, Saved: true}

	gen := models.Generation{
		UserUID:      user.UUID,
		OriginalText: req.Text,
		Platforms:    platforms,
		Posts:        posts,
	}
	id, err := s.repo.CreateGeneration(callCtx, gen)
	if err != nil {
		// Модель уже отработала и оплачена: сбой хранилища не должен
		// отнимать у пользователя готовый результат. Отдаём посты и
		// сообщаем о проблеме отдельно.
		s.log.Error("failed to persist generation", sl.Err(err),
			slog.String("user_uid", user.UUID))
		generationsTotal.WithLabelValues("storage_warning").Inc()
		result.Saved = false
		result.StorageWarning = "generation could not be saved to history"
		return result, nil
	}
	result.GenerationID = id

	if err := s.repo.IncrementGenerationCount(callCtx, user.UUID); err != nil {
		s.log.Warn("failed to increment generation count", sl.Err(err),
			slog.String("user_uid", user.UUID))
	}

	cacheKey := historyCacheKey(user.UUID)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate history cache", slog.String("key", cacheKey), sl.Err(err))
	}

	generationsTotal.WithLabelValues("success").Inc()
	s.log.Info("generation persisted", slog.String("id", id),
		slog.Int("posts", len(posts)))
	return result, nil
}

// historyPage — кэшируемая первая страница истории вместе с лимитом, под
// который она собиралась: по длине страницы нельзя отличить "лимит меньше"
// от "записей меньше лимита".
type historyPage struct {
	Limit int                  `json:"limit"`
	Items []*models.Generation `json:"items"`
}

// History возвращает историю генераций пользователя от новых к старым,
// используя кеш или хранилище.
func (s *Service) History(ctx context.Context, userUID string, limit, offset int) ([]*models.Generation, error) {
	cacheKey := historyCacheKey(userUID)

	// Кэшируется только первая страница: её запрашивают чаще всего.
	cacheable := offset == 0
	if cacheable {
		var page historyPage
		found, err := s.cache.Get(cacheKey, &page)
		if err != nil {
			s.log.Warn("failed to read history cache", slog.String("key", cacheKey), sl.Err(err))
		}
		if found && page.Limit == limit {
			return page.Items, nil
		}
	}

	result, err := s.repo.ListGenerationsByUser(ctx, userUID, limit, offset)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := s.cache.Set(cacheKey, historyPage{Limit: limit, Items: result}, 5*time.Minute); err != nil {
			s.log.Warn("failed to cache history", slog.String("key", cacheKey), sl.Err(err))
		}
	}
	return result, nil
}

func historyCacheKey(userUID string) string {
	return fmt.Sprintf("history:%s", userUID)
}
