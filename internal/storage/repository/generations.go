package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/magabrotheeeer/ripple-engine/internal/models"
)

// CreateGeneration сохраняет одну запись генерации и возвращает её ID.
// Запись выполняется одним INSERT в одной транзакции; владелец должен
// существовать, иначе сработает внешний ключ.
func (s *Storage) CreateGeneration(ctx context.Context, gen models.Generation) (string, error) {
	const op = "storage.CreateGeneration"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	platformsJSON, err := json.Marshal(gen.Platforms)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	postsJSON, err := json.Marshal(gen.Posts)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var newID string
	query := `INSERT INTO generations (user_uid, original_text, platforms, posts)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		gen.UserUID, gen.OriginalText, platformsJSON, postsJSON).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListGenerationsByUser возвращает историю генераций пользователя.
// Порядок — от новых к старым: это контракт API, а не случайность
// порядка хранения.
func (s *Storage) ListGenerationsByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.Generation, error) {
	const op = "storage.ListGenerationsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, original_text, platforms, posts, created_at
			  FROM generations
			  WHERE user_uid = $1
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Generation
	for rows.Next() {
		var g models.Generation
		var platformsJSON, postsJSON []byte
		if err = rows.Scan(&g.ID, &g.UserUID, &g.OriginalText,
			&platformsJSON, &postsJSON, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err = json.Unmarshal(platformsJSON, &g.Platforms); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err = json.Unmarshal(postsJSON, &g.Posts); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
