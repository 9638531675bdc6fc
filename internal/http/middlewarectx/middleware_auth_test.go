package middlewarectx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/ripple-engine/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) ValidateToken(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestJWTMiddleware(t *testing.T) {
	validUser := &models.User{UUID: "uid-1", Username: "user1", Role: "user"}

	tests := []struct {
		name           string
		authHeader     string
		mockUser       *models.User
		mockErr        error
		callExpected   bool
		wantStatusCode int
		wantNextCalled bool
	}{
		{
			name:           "valid token",
			authHeader:     "Bearer good-token",
			mockUser:       validUser,
			callExpected:   true,
			wantStatusCode: http.StatusOK,
			wantNextCalled: true,
		},
		{
			name:           "missing header",
			authHeader:     "",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "wrong scheme",
			authHeader:     "Basic dXNlcjpwYXNz",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "invalid token",
			authHeader:     "Bearer bad-token",
			mockErr:        errors.New("token is expired"),
			callExpected:   true,
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.callExpected {
				svc.On("ValidateToken", mock.Anything, mock.Anything).
					Return(tt.mockUser, tt.mockErr).Once()
			}

			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				assert.Equal(t, "user1", r.Context().Value(User))
				assert.Equal(t, "uid-1", r.Context().Value(UserUID))
				assert.Equal(t, "user", r.Context().Value(Role))
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/generations", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			JWTMiddleware(svc, newNoopLogger())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantNextCalled, nextCalled)
			svc.AssertExpectations(t)
		})
	}
}
