package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{
		Env:                     "test",
		StorageConnectionString: "postgres://localhost:5432/ripple",
	}
	cfg.AddressHTTP = "0.0.0.0:8080"
	cfg.JWTSecretKey = "secret"
	cfg.GeneratorAPIKey = "api-key"
	cfg.GeneratorModel = "gemini-2.0-flash"
	cfg.ProviderAPIKey = "payment-key"
	cfg.WebhookSecret = "webhook-secret"
	cfg.ProviderPriceID = "price_pro"
	return cfg
}

func TestConfig_Validate_Valid(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestConfig_Validate_SingleMissing(t *testing.T) {
	cfg := validConfig()
	cfg.GeneratorAPIKey = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generator.api_key")
	assert.NotContains(t, err.Error(), "jwttoken.jwt_secret_key")
}

func TestConfig_Validate_EnumeratesAllMissing(t *testing.T) {
	cfg := validConfig()
	cfg.JWTSecretKey = ""
	cfg.GeneratorAPIKey = ""
	cfg.WebhookSecret = ""

	err := cfg.Validate()
	require.Error(t, err)

	// Все отсутствующие настройки перечисляются в одной ошибке,
	// а не обнаруживаются по одной за перезапуск.
	assert.Contains(t, err.Error(), "jwttoken.jwt_secret_key")
	assert.Contains(t, err.Error(), "generator.api_key")
	assert.Contains(t, err.Error(), "payment_provider.webhook_secret")
}

func TestConfig_Validate_EmptyConfig(t *testing.T) {
	err := (&Config{}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage_connection_string")
	assert.Contains(t, err.Error(), "http_server.addresshttp")
	assert.Contains(t, err.Error(), "payment_provider.price_id")
}
