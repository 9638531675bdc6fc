package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/ripple-engine/internal/models"
)

// ApplyCheckoutCompleted идемпотентно применяет успешную оплату подписки:
// в одной транзакции отмечает событие обработанным и переводит пользователя
// на уровень pro. Возвращает false без каких-либо изменений, если событие
// с таким идентификатором уже было применено ранее.
//
// Идентификаторы обработанных событий хранятся явно (processed_events),
// а не за счёт того, что переход free -> pro случайно идемпотентен сам по
// себе: будущие типы событий могут иметь неидемпотентные эффекты.
func (s *Storage) ApplyCheckoutCompleted(ctx context.Context, eventID, userUID string) (bool, error) {
	const op = "storage.ApplyCheckoutCompleted"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO processed_events (event_id)
		 VALUES ($1)
		 ON CONFLICT (event_id) DO NOTHING`, eventID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if inserted == 0 {
		// Повторная доставка того же события: подтверждаем без действий.
		return false, nil
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE users SET tier = $2 WHERE uid = $1`, userUID, models.TierPro); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}
