package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Client — клиент REST API генеративной модели. Единственная точка,
// выполняющая оплачиваемый внешний вызов.
type Client struct {
	apiKey     string
	model      string
	apiURL     string
	maxRetries uint64
	httpClient *http.Client
}

// NewClient создаёт новый клиент генеративной модели.
// Если apiURL пустой, используется адрес продакшен-API.
func NewClient(apiKey, model, apiURL string, timeout time.Duration, maxRetries int) *Client {
	if apiURL == "" {
		apiURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		apiURL:     apiURL,
		maxRetries: uint64(maxRetries),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate отправляет промпт модели и возвращает сырой текст её ответа.
//
// Транспортные сбои (ошибки сети, 429, 5xx) повторяются ограниченное число
// раз с экспоненциальной задержкой; отказ модели по содержимому запроса
// (прочие 4xx) не повторяется никогда — см. *ModelError.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	const op = "generator.Generate"

	var raw string
	operation := func() error {
		var err error
		raw, err = c.doGenerate(ctx, prompt)
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		var modelErr *ModelError
		switch {
		case errors.As(err, &modelErr):
			return "", modelErr
		case errors.Is(err, ErrModelTimeout):
			return "", ErrModelTimeout
		default:
			return "", fmt.Errorf("%s: %w: %w", op, ErrModelUnavailable, err)
		}
	}
	return raw, nil
}

func (c *Client) doGenerate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
		return "", backoff.Permanent(err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.apiURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.Is(err, context.DeadlineExceeded) ||
			(errors.As(err, &urlErr) && urlErr.Timeout()) {
			return "", ErrModelTimeout
		}
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		reason := decodeAPIError(body, resp.Status)
		// 429 и 5xx — временные сбои, их можно повторить; прочее означает,
		// что модель отклонила сам запрос.
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", fmt.Errorf("transient status %d: %s", resp.StatusCode, reason)
		}
		return "", backoff.Permanent(&ModelError{StatusCode: resp.StatusCode, Reason: reason})
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", backoff.Permanent(&ModelError{StatusCode: resp.StatusCode, Reason: "unreadable response body"})
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", backoff.Permanent(&ModelError{StatusCode: resp.StatusCode, Reason: "response contains no candidates"})
	}
	return genResp.Candidates[0].Content.Parts[0].Text, nil
}

func decodeAPIError(body []byte, fallback string) string {
	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err == nil && genResp.Error != nil {
		return genResp.Error.Message
	}
	return fallback
}
