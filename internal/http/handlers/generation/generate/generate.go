// Package generate реализует HTTP-обработчик генерации постов из текста статьи.
//
// Handler принимает JSON-запрос с текстом и списком платформ, валидирует его,
// извлекает пользователя из контекста и вызывает конвейер генерации.
// Ошибки конвейера транслируются в HTTP-статусы согласно их природе:
// отказ в доступе — 403, недоступность модели — 503, негодный ответ
// модели — 502. Сбой сохранения истории не отменяет успешный результат.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/ripple-engine/internal/entitlement"
	"github.com/magabrotheeeer/ripple-engine/internal/generator"
	"github.com/magabrotheeeer/ripple-engine/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ripple-engine/internal/http/response"
	"github.com/magabrotheeeer/ripple-engine/internal/lib/sl"
	"github.com/magabrotheeeer/ripple-engine/internal/models"
	generationservice "github.com/magabrotheeeer/ripple-engine/internal/services/generation"
)

// Service описывает интерфейс конвейера генерации.
type Service interface {
	Generate(ctx context.Context, userUID string, req models.DummyGenerateRequest) (*generationservice.Result, error)
}

// Handler управляет HTTP-запросами на генерацию постов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Сгенерировать посты из текста статьи
// @Description Генерирует посты для запрошенных платформ через внешнюю модель и сохраняет результат в историю.
// @Tags Generations
// @Accept  json
// @Produce  json
// @Param request body models.DummyGenerateRequest true "Текст статьи и список платформ"
// @Success 200 {object} map[string]any "Сгенерированные посты"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Платформа недоступна на уровне free"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Модель вернула негодный ответ"
// @Failure 503 {object} response.ErrorResponse "Модель недоступна"
// @Router /generate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.generation.generate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.Any("platforms", req.Platforms))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	result, err := h.service.Generate(r.Context(), userUID, req)
	if err != nil {
		h.renderPipelineError(w, r, log, err)
		return
	}

	log.Info("posts generated", slog.Int("count", len(result.Posts)), slog.Bool("saved", result.Saved))
	data := map[string]any{
		"posts": result.Posts,
		"saved": result.Saved,
	}
	if result.GenerationID != "" {
		data["generation_id"] = result.GenerationID
	}
	if result.StorageWarning != "" {
		data["warning"] = result.StorageWarning
	}
	render.JSON(w, r, response.OKWithData(data))
}

func (h *Handler) renderPipelineError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var deniedErr *entitlement.DeniedError
	var modelErr *generator.ModelError

	switch {
	case errors.As(err, &deniedErr):
		log.Info("generation denied", slog.Any("platforms", deniedErr.Platforms))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error(deniedErr.Error()))
	case errors.Is(err, generator.ErrModelUnavailable), errors.Is(err, generator.ErrModelTimeout):
		log.Error("model is unavailable", sl.Err(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("generation service is temporarily unavailable"))
	case errors.As(err, &modelErr):
		log.Error("model rejected request", sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error("the model rejected this request"))
	case errors.Is(err, generator.ErrMalformedResponse), errors.Is(err, generator.ErrNoValidPosts):
		log.Error("model returned unusable response", sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error("failed to generate posts from the text"))
	default:
		log.Error("generation failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not generate posts"))
	}
}
