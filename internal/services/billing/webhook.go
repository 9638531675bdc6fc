package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/ripple-engine/internal/storage/repository"
)

// EventCheckoutCompleted — единственный тип события, который переводит
// пользователя с уровня free на pro. Остальные типы подтверждаются
// без каких-либо действий.
const EventCheckoutCompleted = "checkout.session.completed"

// ErrInvalidEvent возвращается, когда тело события не является корректным
// JSON ожидаемой формы. Такое событие отклоняется, а не роняет процесс.
var ErrInvalidEvent = errors.New("invalid event payload")

// EventPayload — конверт события платёжного провайдера.
type EventPayload struct {
	ID   string `json:"id"`   // Идентификатор события, ключ идемпотентности
	Type string `json:"type"` // Тип события
	Data struct {
		Object struct {
			Metadata map[string]string `json:"metadata"` // содержит user_id
		} `json:"object"`
	} `json:"data"`
}

// HandleEvent применяет событие платёжного провайдера к состоянию подписки.
//
// Разбор тела защитный: битый JSON отклоняется через ErrInvalidEvent.
// Неизвестные типы событий, события без user_id или без идентификатора,
// а также события для несуществующих пользователей подтверждаются без
// действий — провайдер повторяет доставку при любом не-2xx ответе, и
// ошибкой должен быть только внутренний сбой, который повтор может
// исправить. Повторная доставка уже применённого события — штатный no-op.
func (s *Service) HandleEvent(ctx context.Context, body []byte) error {
	const op = "billing.HandleEvent"
	log := s.log.With(slog.String("op", op))

	var payload EventPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrInvalidEvent, err)
	}

	if payload.Type != EventCheckoutCompleted {
		log.Info("ignored event", slog.String("type", payload.Type))
		return nil
	}

	userUID := payload.Data.Object.Metadata["user_id"]
	if userUID == "" {
		log.Warn("completion event without user_id", slog.String("event_id", payload.ID))
		return nil
	}
	if payload.ID == "" {
		// Без идентификатора событие нельзя учесть в реестре обработанных,
		// а значит и безопасно применить повторно.
		log.Warn("completion event without id", slog.String("user_uid", userUID))
		return nil
	}

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			log.Warn("completion event for unknown user",
				slog.String("event_id", payload.ID), slog.String("user_uid", userUID))
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	applied, err := s.repo.ApplyCheckoutCompleted(ctx, payload.ID, user.UUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !applied {
		log.Info("event already processed", slog.String("event_id", payload.ID))
		return nil
	}

	log.Info("user upgraded to pro",
		slog.String("user_uid", user.UUID), slog.String("event_id", payload.ID))
	s.publishUpgrade(user)
	return nil
}
