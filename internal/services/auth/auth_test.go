package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	appjwt "github.com/orchestra-mcp/portal/internal/lib/jwt"
	"github.com/orchestra-mcp/portal/internal/lib/password"
	"github.com/orchestra-mcp/portal/internal/models"
	"github.com/orchestra-mcp/portal/internal/services/auth"
	"github.com/orchestra-mcp/portal/internal/storage/repository"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) SetUserPassword(ctx context.Context, uid, passwordHash string) error {
	args := m.Called(ctx, uid, passwordHash)
	return args.Error(0)
}

// Мок для TokenRepository
type TokenRepoMock struct {
	mock.Mock
}

func (m *TokenRepoMock) CreateToken(ctx context.Context, token models.APIToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *TokenRepoMock) DeleteToken(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

// Мок для jwt.Maker
type MakerMock struct {
	mock.Mock
}

func (m *MakerMock) GenerateToken(tokenID, userUID string, abilities []string) (string, error) {
	args := m.Called(tokenID, userUID, abilities)
	return args.String(0), args.Error(1)
}

func (m *MakerMock) ParseToken(tokenStr string) (*appjwt.AccessClaims, error) {
	args := m.Called(tokenStr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appjwt.AccessClaims), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuthService_Login(t *testing.T) {
	hash, err := password.GetHash("correct-password")
	assert.NoError(t, err)

	tests := []struct {
		name       string
		email      string
		password   string
		setupMocks func(r *UserRepoMock)
		wantErr    error
	}{
		{
			name:     "successful login",
			email:    "user@example.com",
			password: "correct-password",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "user@example.com").Return(&models.User{
					UID:          "uid-1",
					Email:        "user@example.com",
					PasswordHash: hash,
					PasswordSet:  true,
					Status:       models.UserStatusActive,
				}, nil).Once()
			},
		},
		{
			name:     "unknown user maps to invalid credentials",
			email:    "nobody@example.com",
			password: "whatever",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "nobody@example.com").
					Return(nil, repository.ErrNotFound).Once()
			},
			wantErr: auth.ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			email:    "user@example.com",
			password: "wrong-password",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "user@example.com").Return(&models.User{
					UID:          "uid-1",
					PasswordHash: hash,
					PasswordSet:  true,
					Status:       models.UserStatusActive,
				}, nil).Once()
			},
			wantErr: auth.ErrInvalidCredentials,
		},
		{
			name:     "password never set",
			email:    "social@example.com",
			password: "anything",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "social@example.com").Return(&models.User{
					UID:         "uid-2",
					PasswordSet: false,
					Status:      models.UserStatusActive,
				}, nil).Once()
			},
			wantErr: auth.ErrInvalidCredentials,
		},
		{
			name:     "blocked user with correct password",
			email:    "blocked@example.com",
			password: "correct-password",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "blocked@example.com").Return(&models.User{
					UID:          "uid-3",
					PasswordHash: hash,
					PasswordSet:  true,
					Status:       models.UserStatusBlocked,
				}, nil).Once()
			},
			wantErr: auth.ErrUserBlocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(UserRepoMock)
			tokens := new(TokenRepoMock)
			maker := new(MakerMock)
			tt.setupMocks(users)

			svc := auth.New(newNoopLogger(), users, tokens, maker)
			user, err := svc.Login(context.Background(), tt.email, tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, user)
			}
			users.AssertExpectations(t)
		})
	}
}

func TestAuthService_IssueIDEToken(t *testing.T) {
	users := new(UserRepoMock)
	tokens := new(TokenRepoMock)
	maker := new(MakerMock)

	maker.On("GenerateToken", mock.AnythingOfType("string"), "uid-1", []string{appjwt.AbilityIDEAccess}).
		Return("signed-token", nil).Once()
	tokens.On("CreateToken", mock.Anything, mock.MatchedBy(func(token models.APIToken) bool {
		return token.UserUID == "uid-1" &&
			token.Name == "desktop-ide" &&
			token.ID != ""
	})).Return(nil).Once()

	svc := auth.New(newNoopLogger(), users, tokens, maker)
	got, err := svc.IssueIDEToken(context.Background(), "uid-1", "desktop-ide")

	assert.NoError(t, err)
	assert.Equal(t, "signed-token", got)
	maker.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestAuthService_IssueIDEToken_StorageError(t *testing.T) {
	users := new(UserRepoMock)
	tokens := new(TokenRepoMock)
	maker := new(MakerMock)

	maker.On("GenerateToken", mock.Anything, mock.Anything, mock.Anything).
		Return("signed-token", nil).Once()
	tokens.On("CreateToken", mock.Anything, mock.Anything).
		Return(errors.New("db error")).Once()

	svc := auth.New(newNoopLogger(), users, tokens, maker)
	got, err := svc.IssueIDEToken(context.Background(), "uid-1", "desktop-ide")

	assert.Error(t, err)
	assert.Empty(t, got)
}

func TestAuthService_RevokeToken(t *testing.T) {
	users := new(UserRepoMock)
	tokens := new(TokenRepoMock)
	maker := new(MakerMock)

	tokens.On("DeleteToken", mock.Anything, "token-1").Return(nil).Once()

	svc := auth.New(newNoopLogger(), users, tokens, maker)
	assert.NoError(t, svc.RevokeToken(context.Background(), "token-1"))
	tokens.AssertExpectations(t)
}
