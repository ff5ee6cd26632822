package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/orchestra-mcp/portal/internal/http/response"
	appjwt "github.com/orchestra-mcp/portal/internal/lib/jwt"
	"github.com/orchestra-mcp/portal/internal/lib/sl"
	"github.com/orchestra-mcp/portal/internal/models"
)

// TokenProvider описывает интерфейс хранилища выданных API-токенов.
type TokenProvider interface {
	GetToken(ctx context.Context, tokenID string) (*models.APIToken, error)
	TouchToken(ctx context.Context, tokenID string) error
}

// BearerMiddleware возвращает HTTP middleware, проверяющее JWT в заголовке
// Authorization для API настольного клиента.
//
// Токен должен быть криптографически валиден, присутствовать в хранилище
// (отозванные токены удаляются из него) и нести требуемую способность.
// При успехе пользователь добавляется в контекст запроса.
func BearerMiddleware(log *slog.Logger, maker appjwt.Maker, tokens TokenProvider, users UserProvider, ability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.BearerMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := maker.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			// Токен, удалённый из хранилища, считается отозванным даже
			// если подпись ещё валидна.
			stored, err := tokens.GetToken(r.Context(), claims.ID)
			if err != nil {
				log.Error("token revoked or unknown", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("token revoked"))
				return
			}

			if ability != "" && !claims.Can(ability) {
				log.Warn("token lacks required ability",
					slog.String("ability", ability),
					slog.String("token_id", stored.ID))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("insufficient token abilities"))
				return
			}

			user, err := users.GetUserByUID(r.Context(), claims.UserUID)
			if err != nil {
				log.Error("failed to load token user", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			if user.IsBlocked() {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("account is blocked"))
				return
			}

			if err := tokens.TouchToken(r.Context(), claims.ID); err != nil {
				log.Error("failed to touch token", sl.Err(err))
			}

			ctx := context.WithValue(r.Context(), CurrentUser, user)
			ctx = context.WithValue(ctx, TokenID, claims.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
