package generator

import (
	"errors"
	"fmt"
)

// Ошибки этапов конвейера генерации. Ошибки транспорта (unavailable,
// timeout) допускают повтор запроса; остальные — нет.
var (
	// ErrModelUnavailable — транспортная ошибка или 5xx от генератора
	// после исчерпания повторов.
	ErrModelUnavailable = errors.New("model is unavailable")
	// ErrModelTimeout — генератор не ответил за отведённое время.
	ErrModelTimeout = errors.New("model call timed out")
	// ErrMalformedResponse — ответ генератора не является ожидаемым
	// JSON-объектом с массивом постов.
	ErrMalformedResponse = errors.New("malformed model response")
	// ErrNoValidPosts — ни один элемент ответа не прошёл валидацию.
	ErrNoValidPosts = errors.New("no valid posts in model response")
)

// ModelError означает, что генератор отклонил сам запрос (например,
// по политике контента). Такие ошибки не повторяются: повтор не изменит
// результат, но потратит деньги.
type ModelError struct {
	StatusCode int    // HTTP-статус ответа генератора
	Reason     string // Текст ошибки от генератора
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model rejected request (status %d): %s", e.StatusCode, e.Reason)
}
