// Package models содержит доменную модель пользователя системы,
// включающую данные учётной записи, уровень подписки и счётчик генераций.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// Уровни подписки пользователя. Переход free -> pro выполняется
// только обработчиком платёжного вебхука; canceled — терминальный статус.
const (
	TierFree     = "free"
	TierPro      = "pro"
	TierCanceled = "canceled"
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	UUID              string    // Уникальный идентификатор пользователя
	Email             string    // Электронная почта
	Username          string    // Имя пользователя (уникальное)
	PasswordHash      string    // Хэш пароля пользователя
	Role              string    // Роль пользователя, admin или user
	Tier              string    // Уровень подписки: free, pro или canceled
	PaymentCustomerID *string   // Идентификатор клиента у платёжного провайдера, nil — ещё не создан
	GenerationCount   int       // Счётчик выполненных генераций, только растёт
	CreatedAt         time.Time // Дата регистрации
}
