// Package billing реализует платёжную часть: создание сессии оплаты
// подписки Pro и машину состояний уровня подписки, управляемую событиями
// платёжного провайдера.
package billing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/ripple-engine/internal/config"
	"github.com/magabrotheeeer/ripple-engine/internal/lib/sl"
	"github.com/magabrotheeeer/ripple-engine/internal/models"
	"github.com/magabrotheeeer/ripple-engine/internal/paymentprovider"
)

// Repository определяет методы хранилища, нужные платёжной логике.
type Repository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	// ClaimPaymentCustomer атомарно устанавливает идентификатор клиента,
	// только если он ещё не установлен.
	ClaimPaymentCustomer(ctx context.Context, userUID, customerID string) (bool, error)
	// ApplyCheckoutCompleted идемпотентно применяет событие оплаты.
	ApplyCheckoutCompleted(ctx context.Context, eventID, userUID string) (bool, error)
}

// Provider описывает клиент платёжного провайдера.
type Provider interface {
	CreateCustomer(ctx context.Context, req paymentprovider.CreateCustomerRequest) (*paymentprovider.CreateCustomerResponse, error)
	CreateCheckoutSession(ctx context.Context, req paymentprovider.CreateCheckoutSessionRequest) (*paymentprovider.CreateCheckoutSessionResponse, error)
}

// Publisher публикует уведомления в очередь сообщений.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// Service реализует платёжную бизнес-логику.
type Service struct {
	repo      Repository
	provider  Provider
	publisher Publisher
	cfg       config.PaymentProvider
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, provider Provider, publisher Publisher, cfg config.PaymentProvider, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		provider:  provider,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

// CreateCheckout создаёт сессию оплаты подписки Pro и возвращает адрес
// страницы оплаты. Клиент у провайдера создаётся один раз на пользователя;
// закрепление идентификатора атомарное, поэтому два одновременных запроса
// не привяжут к пользователю двух разных клиентов.
func (s *Service) CreateCheckout(ctx context.Context, userUID string) (string, error) {
	const op = "billing.CreateCheckout"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	session, err := s.provider.CreateCheckoutSession(ctx, paymentprovider.CreateCheckoutSessionRequest{
		CustomerID: customerID,
		PriceID:    s.cfg.ProviderPriceID,
		SuccessURL: s.cfg.CheckoutSuccess,
		CancelURL:  s.cfg.CheckoutCancel,
		Metadata:   map[string]string{"user_id": user.UUID},
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("checkout session created",
		slog.String("user_uid", user.UUID), slog.String("session_id", session.ID))
	return session.URL, nil
}

// ensureCustomer возвращает идентификатор клиента у провайдера, создавая
// и закрепляя его при необходимости. При проигрыше гонки за закрепление
// используется уже сохранённый идентификатор.
func (s *Service) ensureCustomer(ctx context.Context, user *models.User) (string, error) {
	if user.PaymentCustomerID != nil {
		return *user.PaymentCustomerID, nil
	}

	customer, err := s.provider.CreateCustomer(ctx, paymentprovider.CreateCustomerRequest{
		Email:    user.Email,
		Metadata: map[string]string{"user_id": user.UUID},
	})
	if err != nil {
		return "", err
	}

	claimed, err := s.repo.ClaimPaymentCustomer(ctx, user.UUID, customer.ID)
	if err != nil {
		return "", err
	}
	if claimed {
		return customer.ID, nil
	}

	// Параллельный запрос успел закрепить клиента первым: берём его,
	// а только что созданный у провайдера остаётся неиспользованным.
	s.log.Warn("lost payment customer claim race, using stored customer",
		slog.String("user_uid", user.UUID), slog.String("orphan_customer_id", customer.ID))
	stored, err := s.repo.GetUser(ctx, user.UUID)
	if err != nil {
		return "", err
	}
	if stored.PaymentCustomerID == nil {
		return "", fmt.Errorf("payment customer lost after claim race for user %s", user.UUID)
	}
	return *stored.PaymentCustomerID, nil
}

// UpgradeNotification — сообщение для очереди уведомлений об активации Pro.
type UpgradeNotification struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

func (s *Service) publishUpgrade(user *models.User) {
	if s.publisher == nil {
		return
	}
	notification := UpgradeNotification{Email: user.Email, Username: user.Username}
	if err := s.publisher.Publish("tier.upgraded", notification); err != nil {
		s.log.Warn("failed to publish upgrade notification", sl.Err(err),
			slog.String("user_uid", user.UUID))
	}
}
