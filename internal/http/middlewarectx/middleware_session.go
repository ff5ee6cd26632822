// Package middlewarectx содержит HTTP middleware портала: разрешение сессии,
// проверки статуса пользователя, пароля и подписки, допуск администраторов
// и проверку bearer-токенов настольного клиента.
//
// Middleware сессии кладёт в контекст запроса загруженного пользователя
// целиком, чтобы обработчики и последующие проверки не ходили в хранилище
// повторно.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/orchestra-mcp/portal/internal/lib/sl"
	"github.com/orchestra-mcp/portal/internal/models"
	"github.com/orchestra-mcp/portal/internal/session"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// CurrentUser — ключ для загруженного пользователя в контексте.
	CurrentUser Key = "current_user"
	// SessionID — ключ для идентификатора сессии в контексте.
	SessionID Key = "session_id"
	// TokenID — ключ для идентификатора API-токена в контексте.
	TokenID Key = "token_id"
)

// SessionStore описывает интерфейс хранилища сессий.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (string, error)
	Destroy(ctx context.Context, sessionID string) error
}

// UserProvider описывает интерфейс загрузки пользователя по идентификатору.
type UserProvider interface {
	GetUserByUID(ctx context.Context, uid string) (*models.User, error)
}

// UserFromContext возвращает пользователя, положенного в контекст middleware сессии
// или bearer-токена.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(CurrentUser).(*models.User)
	return user, ok
}

// SessionMiddleware возвращает HTTP middleware, разрешающий сессионную cookie
// в пользователя.
//
// Запрос без валидной сессии перенаправляется на страницу входа. Сессия,
// указывающая на несуществующего пользователя, уничтожается.
func SessionMiddleware(log *slog.Logger, sessions SessionStore, users UserProvider, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.SessionMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			userUID, err := sessions.Get(r.Context(), cookie.Value)
			if err != nil {
				if !errors.Is(err, session.ErrNotFound) {
					log.Error("failed to resolve session", sl.Err(err))
				}
				clearSessionCookie(w, cookieName)
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			user, err := users.GetUserByUID(r.Context(), userUID)
			if err != nil {
				log.Error("failed to load session user", sl.Err(err))
				_ = sessions.Destroy(r.Context(), cookie.Value)
				clearSessionCookie(w, cookieName)
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			ctx := context.WithValue(r.Context(), CurrentUser, user)
			ctx = context.WithValue(ctx, SessionID, cookie.Value)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func clearSessionCookie(w http.ResponseWriter, cookieName string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
