// Package history реализует HTTP-обработчик истории генераций пользователя.
// Записи возвращаются от новых к старым — это контракт API.
package history

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/ripple-engine/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ripple-engine/internal/http/response"
	"github.com/magabrotheeeer/ripple-engine/internal/lib/sl"
	"github.com/magabrotheeeer/ripple-engine/internal/models"
)

// Service описывает интерфейс чтения истории генераций.
type Service interface {
	History(ctx context.Context, userUID string, limit, offset int) ([]*models.Generation, error)
}

// Handler управляет HTTP-запросами истории генераций.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary История генераций
// @Description Возвращает генерации текущего пользователя от новых к старым.
// @Tags Generations
// @Produce  json
// @Param limit query int false "Количество записей (по умолчанию 10)"
// @Param offset query int false "Смещение (по умолчанию 0)"
// @Success 200 {object} map[string]any "Список генераций"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка чтения истории"
// @Router /generations [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.generation.history"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	generations, err := h.service.History(r.Context(), userUID, limit, offset)
	if err != nil {
		log.Error("failed to list generations", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list generations"))
		return
	}

	log.Info("history listed", slog.Int("count", len(generations)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"list_count":  len(generations),
		"generations": generations,
	}))
}
