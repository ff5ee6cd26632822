package apilogin

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/orchestra-mcp/portal/internal/models"
	"github.com/orchestra-mcp/portal/internal/services/auth"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Login(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *ServiceMock) IssueIDEToken(ctx context.Context, userUID, name string) (string, error) {
	args := m.Called(ctx, userUID, name)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func sponsorUser() *models.User {
	return &models.User{
		UID:    "uid-1",
		Email:  "sponsor@example.com",
		Status: models.UserStatusActive,
		Roles:  []string{models.RoleUser, models.RoleSubscriber},
		Subscription: &models.Subscription{
			Plan:   models.PlanSponsor,
			Status: models.SubscriptionActive,
		},
	}
}

func TestAPILogin_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		setupMocks     func(s *ServiceMock)
		wantStatusCode int
	}{
		{
			name: "sponsor receives token",
			body: models.LoginRequest{Email: "sponsor@example.com", Password: "secret123"},
			setupMocks: func(s *ServiceMock) {
				s.On("Login", mock.Anything, "sponsor@example.com", "secret123").
					Return(sponsorUser(), nil).Once()
				s.On("IssueIDEToken", mock.Anything, "uid-1", "desktop-ide").
					Return("signed-token", nil).Once()
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "admin without subscription receives token",
			body: models.LoginRequest{Email: "admin@example.com", Password: "secret123"},
			setupMocks: func(s *ServiceMock) {
				s.On("Login", mock.Anything, "admin@example.com", "secret123").
					Return(&models.User{
						UID:    "uid-2",
						Status: models.UserStatusActive,
						Roles:  []string{models.RoleAdmin},
					}, nil).Once()
				s.On("IssueIDEToken", mock.Anything, "uid-2", "desktop-ide").
					Return("signed-token", nil).Once()
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "user without subscription is rejected",
			body: models.LoginRequest{Email: "free@example.com", Password: "secret123"},
			setupMocks: func(s *ServiceMock) {
				s.On("Login", mock.Anything, "free@example.com", "secret123").
					Return(&models.User{
						UID:    "uid-3",
						Status: models.UserStatusActive,
						Roles:  []string{models.RoleUser},
					}, nil).Once()
			},
			wantStatusCode: http.StatusForbidden,
		},
		{
			name: "invalid credentials",
			body: models.LoginRequest{Email: "user@example.com", Password: "wrong"},
			setupMocks: func(s *ServiceMock) {
				s.On("Login", mock.Anything, "user@example.com", "wrong").
					Return(nil, auth.ErrInvalidCredentials).Once()
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name: "blocked user",
			body: models.LoginRequest{Email: "blocked@example.com", Password: "secret123"},
			setupMocks: func(s *ServiceMock) {
				s.On("Login", mock.Anything, "blocked@example.com", "secret123").
					Return(nil, auth.ErrUserBlocked).Once()
			},
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:           "missing password fails validation",
			body:           models.LoginRequest{Email: "user@example.com"},
			setupMocks:     func(s *ServiceMock) {},
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:           "invalid json",
			body:           "not a json",
			setupMocks:     func(s *ServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(ServiceMock)
			tt.setupMocks(service)

			handler := New(newNoopLogger(), service)

			var body []byte
			if s, ok := tt.body.(string); ok {
				body = []byte(s)
			} else {
				body, _ = json.Marshal(tt.body)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			service.AssertExpectations(t)

			if tt.wantStatusCode == http.StatusOK {
				var resp struct {
					Status string         `json:"status"`
					Data   map[string]any `json:"data"`
				}
				assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, "signed-token", resp.Data["token"])
				assert.Equal(t, "Bearer", resp.Data["token_type"])
			}
		})
	}
}
