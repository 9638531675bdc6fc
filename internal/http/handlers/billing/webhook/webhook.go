// Package webhook реализует HTTP-обработчик событий платёжного провайдера.
//
// Тело запроса принимается только с корректной HMAC-подписью: провайдер
// не заслуживает доверия по одному лишь адресу отправителя. Для принятых
// событий обработчик всегда отвечает 200, в том числе когда событие не
// потребовало действий — провайдер повторяет доставку при любом другом
// статусе.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/ripple-engine/internal/http/response"
	"github.com/magabrotheeeer/ripple-engine/internal/lib/sl"
	"github.com/magabrotheeeer/ripple-engine/internal/services/billing"
)

// SignatureHeader — заголовок с HMAC-SHA256 подписью сырого тела запроса.
const SignatureHeader = "X-Webhook-Signature"

// Service описывает интерфейс применения платёжных событий.
type Service interface {
	HandleEvent(ctx context.Context, body []byte) error
}

// Handler управляет HTTP-запросами платёжного вебхука.
type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: secret,
	}
}

// verifySignature проверяет HMAC-SHA256 подпись тела запроса.
func (h *Handler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expectedSig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expectedSig), []byte(signature))
}

// ServeHTTP godoc
// @Summary Вебхук платёжного провайдера
// @Description Принимает подписанные события провайдера; событие checkout.session.completed переводит пользователя на уровень pro.
// @Tags Billing
// @Accept  json
// @Produce  json
// @Success 200 {object} map[string]any "Событие принято"
// @Failure 400 {object} response.ErrorResponse "Некорректное тело события"
// @Failure 401 {object} response.ErrorResponse "Неверная подпись"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка обработки"
// @Router /billing/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("unreadable body"))
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get(SignatureHeader)
	if signature == "" || !h.verifySignature(body, signature) {
		log.Error("invalid or missing webhook signature")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	if err := h.service.HandleEvent(r.Context(), body); err != nil {
		if errors.Is(err, billing.ErrInvalidEvent) {
			log.Error("invalid event payload", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid event payload"))
			return
		}
		log.Error("failed to process event", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to process event"))
		return
	}

	log.Info("webhook processed")
	render.JSON(w, r, response.OKWithData(map[string]any{
		"received": true,
	}))
}
