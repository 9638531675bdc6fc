package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/ripple-engine/internal/entitlement"
	"github.com/magabrotheeeer/ripple-engine/internal/generator"
	"github.com/magabrotheeeer/ripple-engine/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ripple-engine/internal/models"
	generationservice "github.com/magabrotheeeer/ripple-engine/internal/services/generation"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Generate(ctx context.Context, userUID string, req models.DummyGenerateRequest) (*generationservice.Result, error) {
	args := m.Called(ctx, userUID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*generationservice.Result), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newRequest(t *testing.T, body any, userUID string) *http.Request {
	t.Helper()
	var bodyBytes []byte
	switch v := body.(type) {
	case string:
		bodyBytes = []byte(v)
	default:
		var err error
		bodyBytes, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewReader(bodyBytes))
	ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123")
	if userUID != "" {
		ctx = context.WithValue(ctx, middlewarectx.UserUID, userUID)
	}
	return req.WithContext(ctx)
}

func TestGenerateHandler_ServeHTTP_Success(t *testing.T) {
	svc := new(ServiceMock)
	handler := New(newNoopLogger(), svc)

	request := models.DummyGenerateRequest{
		Text:      "article text",
		Platforms: []string{"Twitter", "LinkedIn"},
	}
	result := &generationservice.Result{
		Posts: []models.Post{
			{Platform: "Twitter", Content: "post one", Hashtags: []string{"go"}},
			{Platform: "LinkedIn", Content: "post two", Hashtags: []string{}},
		},
		GenerationID: "gen-42",
		Saved:        true,
	}
	svc.On("Generate", mock.Anything, "uid-1", request).Return(result, nil).Once()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest(t, request, "uid-1"))

	assert.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "OK", got["status"])

	data, ok := got["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "gen-42", data["generation_id"])
	assert.Equal(t, true, data["saved"])
	assert.Nil(t, data["warning"])

	posts, ok := data["posts"].([]any)
	require.True(t, ok)
	assert.Len(t, posts, 2)

	svc.AssertExpectations(t)
}

func TestGenerateHandler_ServeHTTP_StorageWarning(t *testing.T) {
	svc := new(ServiceMock)
	handler := New(newNoopLogger(), svc)

	request := models.DummyGenerateRequest{Text: "article", Platforms: []string{"Twitter"}}
	result := &generationservice.Result{
		Posts:          []models.Post{{Platform: "Twitter", Content: "post", Hashtags: []string{}}},
		Saved:          false,
		StorageWarning: "generation could not be saved to history",
	}
	svc.On("Generate", mock.Anything, "uid-1", request).Return(result, nil).Once()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest(t, request, "uid-1"))

	assert.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	data := got["data"].(map[string]any)
	assert.Equal(t, false, data["saved"])
	assert.Equal(t, "generation could not be saved to history", data["warning"])
	assert.Nil(t, data["generation_id"])
}

func TestGenerateHandler_ServeHTTP_PipelineErrors(t *testing.T) {
	request := models.DummyGenerateRequest{Text: "article", Platforms: []string{"Twitter", "LinkedIn"}}

	tests := []struct {
		name           string
		serviceErr     error
		wantStatusCode int
		wantError      string
	}{
		{
			name:           "entitlement denied",
			serviceErr:     &entitlement.DeniedError{Platforms: []string{"LinkedIn"}},
			wantStatusCode: http.StatusForbidden,
			wantError:      "tier has no access to platforms: LinkedIn",
		},
		{
			name:           "model unavailable",
			serviceErr:     generator.ErrModelUnavailable,
			wantStatusCode: http.StatusServiceUnavailable,
			wantError:      "generation service is temporarily unavailable",
		},
		{
			name:           "model timeout",
			serviceErr:     generator.ErrModelTimeout,
			wantStatusCode: http.StatusServiceUnavailable,
			wantError:      "generation service is temporarily unavailable",
		},
		{
			name:           "model rejected request",
			serviceErr:     &generator.ModelError{StatusCode: 400, Reason: "prompt blocked"},
			wantStatusCode: http.StatusBadGateway,
			wantError:      "the model rejected this request",
		},
		{
			name:           "malformed response",
			serviceErr:     generator.ErrMalformedResponse,
			wantStatusCode: http.StatusBadGateway,
			wantError:      "failed to generate posts from the text",
		},
		{
			name:           "no valid posts",
			serviceErr:     generator.ErrNoValidPosts,
			wantStatusCode: http.StatusBadGateway,
			wantError:      "failed to generate posts from the text",
		},
		{
			name:           "unexpected error",
			serviceErr:     errors.New("boom"),
			wantStatusCode: http.StatusInternalServerError,
			wantError:      "could not generate posts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			handler := New(newNoopLogger(), svc)
			svc.On("Generate", mock.Anything, "uid-1", request).Return(nil, tt.serviceErr).Once()

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, newRequest(t, request, "uid-1"))

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, "Error", got["status"])
			assert.Equal(t, tt.wantError, got["error"])
		})
	}
}

func TestGenerateHandler_ServeHTTP_BadRequests(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		userUID        string
		wantStatusCode int
	}{
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			userUID:        "uid-1",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "missing text",
			requestBody:    models.DummyGenerateRequest{Platforms: []string{"Twitter"}},
			userUID:        "uid-1",
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:           "empty platforms",
			requestBody:    models.DummyGenerateRequest{Text: "article", Platforms: []string{}},
			userUID:        "uid-1",
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:           "no user in context",
			requestBody:    models.DummyGenerateRequest{Text: "article", Platforms: []string{"Twitter"}},
			userUID:        "",
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			handler := New(newNoopLogger(), svc)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, newRequest(t, tt.requestBody, tt.userUID))

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			svc.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}
