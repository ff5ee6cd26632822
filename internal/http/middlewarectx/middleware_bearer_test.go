package middlewarectx_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/orchestra-mcp/portal/internal/http/middlewarectx"
	appjwt "github.com/orchestra-mcp/portal/internal/lib/jwt"
	"github.com/orchestra-mcp/portal/internal/models"
	"github.com/orchestra-mcp/portal/internal/storage/repository"
)

// Мок для TokenProvider
type TokenProviderMock struct {
	mock.Mock
}

func (m *TokenProviderMock) GetToken(ctx context.Context, tokenID string) (*models.APIToken, error) {
	args := m.Called(ctx, tokenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.APIToken), args.Error(1)
}

func (m *TokenProviderMock) TouchToken(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func TestBearerMiddleware(t *testing.T) {
	maker := appjwt.NewMaker("test-secret", time.Hour)

	activeUser := &models.User{UID: "uid-1", Status: models.UserStatusActive}
	blockedUser := &models.User{UID: "uid-1", Status: models.UserStatusBlocked}

	validToken, err := maker.GenerateToken("token-1", "uid-1", []string{appjwt.AbilityIDEAccess})
	assert.NoError(t, err)
	noAbilityToken, err := maker.GenerateToken("token-2", "uid-1", nil)
	assert.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		setupMocks     func(tokens *TokenProviderMock, users *UserProviderMock)
		wantStatusCode int
		wantNextCalled bool
	}{
		{
			name:       "valid token",
			authHeader: "Bearer " + validToken,
			setupMocks: func(tokens *TokenProviderMock, users *UserProviderMock) {
				tokens.On("GetToken", mock.Anything, "token-1").
					Return(&models.APIToken{ID: "token-1", UserUID: "uid-1"}, nil).Once()
				users.On("GetUserByUID", mock.Anything, "uid-1").Return(activeUser, nil).Once()
				tokens.On("TouchToken", mock.Anything, "token-1").Return(nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantNextCalled: true,
		},
		{
			name:           "missing header",
			authHeader:     "",
			setupMocks:     func(tokens *TokenProviderMock, users *UserProviderMock) {},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "garbage token",
			authHeader:     "Bearer not-a-jwt",
			setupMocks:     func(tokens *TokenProviderMock, users *UserProviderMock) {},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:       "revoked token",
			authHeader: "Bearer " + validToken,
			setupMocks: func(tokens *TokenProviderMock, users *UserProviderMock) {
				tokens.On("GetToken", mock.Anything, "token-1").
					Return(nil, repository.ErrNotFound).Once()
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:       "token without required ability",
			authHeader: "Bearer " + noAbilityToken,
			setupMocks: func(tokens *TokenProviderMock, users *UserProviderMock) {
				tokens.On("GetToken", mock.Anything, "token-2").
					Return(&models.APIToken{ID: "token-2", UserUID: "uid-1"}, nil).Once()
			},
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:       "blocked user",
			authHeader: "Bearer " + validToken,
			setupMocks: func(tokens *TokenProviderMock, users *UserProviderMock) {
				tokens.On("GetToken", mock.Anything, "token-1").
					Return(&models.APIToken{ID: "token-1", UserUID: "uid-1"}, nil).Once()
				users.On("GetUserByUID", mock.Anything, "uid-1").Return(blockedUser, nil).Once()
			},
			wantStatusCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := new(TokenProviderMock)
			users := new(UserProviderMock)
			tt.setupMocks(tokens, users)

			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				user, ok := middlewarectx.UserFromContext(r.Context())
				assert.True(t, ok)
				assert.Equal(t, "uid-1", user.UID)
				tokenID, ok := r.Context().Value(middlewarectx.TokenID).(string)
				assert.True(t, ok)
				assert.Equal(t, "token-1", tokenID)
				w.WriteHeader(http.StatusOK)
			})

			mw := middlewarectx.BearerMiddleware(newNoopLogger(), maker, tokens, users, appjwt.AbilityIDEAccess)(next)

			req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			rec := httptest.NewRecorder()
			mw.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantNextCalled, nextCalled)
			tokens.AssertExpectations(t)
			users.AssertExpectations(t)
		})
	}
}
