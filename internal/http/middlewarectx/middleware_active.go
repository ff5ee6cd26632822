package middlewarectx

import (
	"log/slog"
	"net/http"
)

// ActiveUserMiddleware создает middleware, прерывающее сессию заблокированного
// пользователя.
//
// Заблокированный пользователь разлогинивается на первом же запросе: сессия
// уничтожается, cookie сбрасывается, запрос перенаправляется на страницу входа.
func ActiveUserMiddleware(log *slog.Logger, sessions SessionStore, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			if user.IsBlocked() {
				log.Warn("blocked user attempted access", slog.String("user_uid", user.UID))
				if sessionID, ok := r.Context().Value(SessionID).(string); ok {
					_ = sessions.Destroy(r.Context(), sessionID)
				}
				clearSessionCookie(w, cookieName)
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
