// Package models содержит доменные структуры генерации постов,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// Post представляет один сгенерированный пост для конкретной платформы.
// Существует только внутри Generation и отдельно не адресуется.
type Post struct {
	Platform string   `json:"platform"` // Название платформы
	Content  string   `json:"content"`  // Текст поста
	Hashtags []string `json:"hashtags"` // Хэштеги без символа '#'
}

// Generation представляет одну сохранённую генерацию: исходный текст,
// запрошенные платформы и получившиеся посты. Запись создаётся один раз
// и после этого не изменяется и не удаляется.
type Generation struct {
	ID           string    `json:"id"`            // Уникальный идентификатор записи
	UserUID      string    `json:"user_uid"`      // Владелец записи
	OriginalText string    `json:"original_text"` // Исходный текст статьи
	Platforms    []string  `json:"platforms"`     // Платформы в порядке запроса, без дубликатов
	Posts        []Post    `json:"posts"`         // Посты в порядке ответа генератора
	CreatedAt    time.Time `json:"created_at"`    // Время создания записи
}

// DummyGenerateRequest используется для приёма данных из JSON-запроса
// на генерацию, прежде чем передать их в бизнес-логику.
type DummyGenerateRequest struct {
	Text      string   `json:"text" validate:"required"`                          // Текст статьи
	Platforms []string `json:"platforms" validate:"required,min=1,dive,required"` // Список платформ
}
