// Package checkout реализует HTTP-обработчик создания сессии оплаты подписки Pro.
package checkout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/ripple-engine/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ripple-engine/internal/http/response"
	"github.com/magabrotheeeer/ripple-engine/internal/lib/sl"
)

// Service описывает интерфейс платёжной бизнес-логики.
type Service interface {
	CreateCheckout(ctx context.Context, userUID string) (string, error)
}

// Handler управляет HTTP-запросами на создание сессии оплаты.
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
// @Summary Создать сессию оплаты подписки Pro
// @Description Создает сессию оплаты у платёжного провайдера и возвращает адрес страницы оплаты.
// @Tags Billing
// @Produce  json
// @Success 200 {object} map[string]any "Адрес страницы оплаты"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка создания сессии"
// @Router /billing/checkout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.checkout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	url, err := h.service.CreateCheckout(r.Context(), userUID)
	if err != nil {
		log.Error("failed to create checkout session", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create checkout session"))
		return
	}

	log.Info("checkout session created")
	render.JSON(w, r, response.OKWithData(map[string]any{
		"checkout_url": url,
	}))
}
