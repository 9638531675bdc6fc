// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string        `yaml:"env"`
	StorageConnectionString string        `yaml:"storage_connection_string"`
	RabbitMQURL             string        `yaml:"rabbitmq_url"`
	RabbitMQMaxRetries      int           `yaml:"rabbitmq_max_retries"`
	RabbitMQRetryDelay      time.Duration `yaml:"rabbitmq_retry_delay"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Generator               `yaml:"generator"`
	PaymentProvider         `yaml:"payment_provider"`
	SMTP                    `yaml:"smtp"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

// Generator структура для настройки клиента генеративной модели
type Generator struct {
	GeneratorAPIKey  string        `yaml:"api_key" env:"GOOGLE_API_KEY"`
	GeneratorModel   string        `yaml:"model"`
	GeneratorAPIURL  string        `yaml:"api_url"`
	GeneratorTimeout time.Duration `yaml:"timeout"`
	GeneratorRetries int           `yaml:"max_retries"`
}

// PaymentProvider структура для настройки клиента платёжного провайдера
type PaymentProvider struct {
	ProviderAPIKey  string `yaml:"api_key" env:"PAYMENT_API_KEY"`
	ProviderAPIURL  string `yaml:"api_url"`
	WebhookSecret   string `yaml:"webhook_secret" env:"PAYMENT_WEBHOOK_SECRET"`
	ProviderPriceID string `yaml:"price_id"`
	CheckoutSuccess string `yaml:"checkout_success_url"`
	CheckoutCancel  string `yaml:"checkout_cancel_url"`
}

// SMTP структура для настройки почтового транспорта
type SMTP struct {
	SMTPHost string `yaml:"host"`
	SMTPPort string `yaml:"port"`
	SMTPUser string `yaml:"user"`
	SMTPPass string `yaml:"pass" env:"SMTP_PASS"`
}

// MustLoad функция для загрузки конфига. Падает один раз со списком
// всех отсутствующих обязательных настроек, а не по одной за запуск.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %s", err)
	}
	return &cfg
}

// Validate проверяет наличие всех обязательных настроек и возвращает
// одну ошибку с полным перечнем отсутствующих полей.
func (c *Config) Validate() error {
	var missing []string

	required := []struct {
		name  string
		value string
	}{
		{"storage_connection_string", c.StorageConnectionString},
		{"http_server.addresshttp", c.AddressHTTP},
		{"jwttoken.jwt_secret_key", c.JWTSecretKey},
		{"generator.api_key", c.GeneratorAPIKey},
		{"generator.model", c.GeneratorModel},
		{"payment_provider.api_key", c.ProviderAPIKey},
		{"payment_provider.webhook_secret", c.WebhookSecret},
		{"payment_provider.price_id", c.ProviderPriceID},
	}
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}
