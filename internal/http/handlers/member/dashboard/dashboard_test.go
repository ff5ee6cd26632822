package dashboard

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/orchestra-mcp/portal/internal/http/middlewarectx"
	"github.com/orchestra-mcp/portal/internal/models"
	"github.com/orchestra-mcp/portal/internal/storage/repository"
)

// Мок для MetaProvider
type MetasMock struct {
	mock.Mock
}

func (m *MetasMock) GetUserMeta(ctx context.Context, userUID, key string) (string, error) {
	args := m.Called(ctx, userUID, key)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServeHTTP(t *testing.T) {
	user := &models.User{
		UID:   "uid-1",
		Name:  "Member",
		Email: "member@example.com",
		Roles: []string{models.RoleSubscriber},
	}

	t.Run("includes avatar from metas", func(t *testing.T) {
		metas := new(MetasMock)
		metas.On("GetUserMeta", mock.Anything, "uid-1", models.MetaAvatarURL).
			Return("https://avatars.example/1", nil).Once()

		handler := New(newNoopLogger(), metas)
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req = req.WithContext(context.WithValue(req.Context(), middlewarectx.CurrentUser, user))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "https://avatars.example/1")
		metas.AssertExpectations(t)
	})

	t.Run("missing avatar is not an error", func(t *testing.T) {
		metas := new(MetasMock)
		metas.On("GetUserMeta", mock.Anything, "uid-1", models.MetaAvatarURL).
			Return("", repository.ErrNotFound).Once()

		handler := New(newNoopLogger(), metas)
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req = req.WithContext(context.WithValue(req.Context(), middlewarectx.CurrentUser, user))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "member@example.com")
		metas.AssertExpectations(t)
	})

	t.Run("unauthorized without user in context", func(t *testing.T) {
		handler := New(newNoopLogger(), new(MetasMock))
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
