// Package paymentprovider реализует REST-клиент платёжного провайдера:
// создание клиентов и сессий оплаты подписки.
package paymentprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Client — клиент API платёжного провайдера.
type Client struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент платёжного провайдера.
func NewClient(apiKey, apiURL string) *Client {
	return &Client{
		apiKey:     apiKey,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	url := c.apiURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	// Провайдер дедуплицирует повторные запросы по этому ключу.
	req.Header.Set("Idempotency-Key", uuid.New().String())
	return req, nil
}

// CreateCustomer создаёт клиента у провайдера и возвращает его идентификатор.
func (c *Client) CreateCustomer(ctx context.Context, reqParams CreateCustomerRequest) (*CreateCustomerResponse, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/customers", reqParams)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errors.New("unexpected status: " + resp.Status)
	}

	var customerResp CreateCustomerResponse
	if err := json.NewDecoder(resp.Body).Decode(&customerResp); err != nil {
		return nil, err
	}
	return &customerResp, nil
}

// CreateCheckoutSession создаёт сессию оплаты подписки Pro.
func (c *Client) CreateCheckoutSession(ctx context.Context, reqParams CreateCheckoutSessionRequest) (*CreateCheckoutSessionResponse, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/checkout/sessions", reqParams)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errors.New("unexpected status: " + resp.Status)
	}

	var sessionResp CreateCheckoutSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sessionResp); err != nil {
		return nil, err
	}
	return &sessionResp, nil
}
