package register

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

	"github.com/magabrotheeeer/ripple-engine/internal/storage/repository"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Register(ctx context.Context, email, username, rawPassword string) (string, error) {
	args := m.Called(ctx, email, username, rawPassword)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		mockUID        string
		mockErr        error
		callExpected   bool
		wantStatusCode int
		wantError      string
	}{
		{
			name: "valid registration",
			requestBody: Request{
				Username: "user1",
				Password: "password123",
				Email:    "user1@example.com",
			},
			mockUID:        "uid-1",
			callExpected:   true,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid request body",
		},
		{
			name: "validation error - missing password",
			requestBody: Request{
				Username: "user1",
				Email:    "user1@example.com",
			},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      "field Password is a required field",
		},
		{
			name: "validation error - bad email",
			requestBody: Request{
				Username: "user1",
				Password: "password123",
				Email:    "not-an-email",
			},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      "field Email must be a valid email",
		},
		{
			name: "duplicate user",
			requestBody: Request{
				Username: "user1",
				Password: "password123",
				Email:    "user1@example.com",
			},
			mockErr:        repository.ErrDuplicateUser,
			callExpected:   true,
			wantStatusCode: http.StatusConflict,
			wantError:      "user with this email or username already exists",
		},
		{
			name: "storage error",
			requestBody: Request{
				Username: "user1",
				Password: "password123",
				Email:    "user1@example.com",
			},
			mockErr:        errors.New("db down"),
			callExpected:   true,
			wantStatusCode: http.StatusInternalServerError,
			wantError:      "failed to register user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			handler := New(newNoopLogger(), svc)

			if tt.callExpected {
				svc.On("Register", mock.Anything,
					"user1@example.com", "user1", "password123").
					Return(tt.mockUID, tt.mockErr).Once()
			}

			var bodyBytes []byte
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				var err error
				bodyBytes, err = json.Marshal(tt.requestBody)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))

			if tt.wantError != "" {
				assert.Equal(t, "Error", got["status"])
				assert.Equal(t, tt.wantError, got["error"])
			} else {
				assert.Equal(t, "OK", got["status"])
				data := got["data"].(map[string]any)
				assert.Equal(t, "user1", data["username"])
				assert.Equal(t, "user created successfully", data["message"])
			}

			svc.AssertExpectations(t)
		})
	}
}
