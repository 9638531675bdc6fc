package paymentprovider

import "time"

// CreateCustomerRequest — запрос на создание клиента у платёжного провайдера.
type CreateCustomerRequest struct {
	Email    string            `json:"email"`
	Metadata map[string]string `json:"metadata,omitempty"` // user_uid и другая служебная информация
}

// CreateCustomerResponse — ответ провайдера на создание клиента.
type CreateCustomerResponse struct {
	ID        string    `json:"id"` // Идентификатор клиента у провайдера
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCheckoutSessionRequest — запрос на создание сессии оплаты подписки.
type CreateCheckoutSessionRequest struct {
	CustomerID string            `json:"customer"`
	PriceID    string            `json:"price"` // Тариф Pro
	SuccessURL string            `json:"success_url"`
	CancelURL  string            `json:"cancel_url"`
	Metadata   map[string]string `json:"metadata,omitempty"` // обязан содержать user_id
}

// CreateCheckoutSessionResponse — ответ провайдера с адресом страницы оплаты.
type CreateCheckoutSessionResponse struct {
	ID        string    `json:"id"`     // Идентификатор сессии
	URL       string    `json:"url"`    // Адрес страницы оплаты
	Status    string    `json:"status"` // Статус сессии, например "open"
	CreatedAt time.Time `json:"created_at"`
}
