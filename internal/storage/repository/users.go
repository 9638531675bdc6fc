package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/ripple-engine/internal/models"
)

// ErrDuplicateUser возвращается при попытке зарегистрировать пользователя
// с уже занятыми email или username.
var ErrDuplicateUser = errors.New("user already exists")

// ErrUserNotFound возвращается, когда пользователь не найден в базе.
var ErrUserNotFound = errors.New("user not found")

// RegisterUser сохраняет нового пользователя в базу данных и возвращает его UID.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"

	var newID string
	query := `INSERT INTO users (email, username, password_hash, role, tier)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, user.Role, user.Tier).Scan(&newID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return "", fmt.Errorf("%s: %w", op, ErrDuplicateUser)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUserByUsername возвращает пользователя по его username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"

	query := `SELECT uid, email, username, password_hash, role, tier,
			      payment_customer_id, generation_count, created_at
			  FROM users
			  WHERE username = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, username), op)
}

// GetUser возвращает пользователя по его UID. Данные всегда читаются из
// базы заново: уровень подписки и счётчик генераций нигде не кэшируются.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"

	query := `SELECT uid, email, username, password_hash, role, tier,
			      payment_customer_id, generation_count, created_at
			  FROM users
			  WHERE uid = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, userUID), op)
}

func (s *Storage) scanUser(row *sql.Row, op string) (*models.User, error) {
	u := &models.User{}
	var customerID sql.NullString
	if err := row.Scan(&u.UUID, &u.Email, &u.Username, &u.PasswordHash,
		&u.Role, &u.Tier, &customerID, &u.GenerationCount, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if customerID.Valid {
		u.PaymentCustomerID = &customerID.String
	}
	return u, nil
}

// ClaimPaymentCustomer атомарно закрепляет за пользователем идентификатор
// клиента платёжного провайдера, но только если он ещё не установлен.
// Возвращает true, если запись выполнил именно этот вызов. При проигрыше
// гонки вызывающая сторона перечитывает пользователя и берёт уже
// сохранённый идентификатор.
func (s *Storage) ClaimPaymentCustomer(ctx context.Context, userUID, customerID string) (bool, error) {
	const op = "storage.ClaimPaymentCustomer"

	query := `UPDATE users
		      SET payment_customer_id = $2
		      WHERE uid = $1 AND payment_customer_id IS NULL`
	res, err := s.DB.ExecContext(ctx, query, userUID, customerID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return affected == 1, nil
}

// IncrementGenerationCount увеличивает счётчик генераций пользователя.
// Инкремент выполняется одним запросом, без чтения-модификации на стороне
// приложения, поэтому безопасен при конкурентных запросах.
func (s *Storage) IncrementGenerationCount(ctx context.Context, userUID string) error {
	const op = "storage.IncrementGenerationCount"

	query := `UPDATE users
		      SET generation_count = generation_count + 1
		      WHERE uid = $1`
	if _, err := s.DB.ExecContext(ctx, query, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
