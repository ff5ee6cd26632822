package middlewarectx

import (
	"log/slog"
	"net/http"
)

// SubscriptionMiddleware создает middleware для проверки активной подписки.
//
// Пользователь без активной подписки перенаправляется на страницу оформления.
// Администраторы проходят без подписки.
func SubscriptionMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			if !user.IsAdmin() && !user.HasActiveSubscription() {
				log.Info("subscription required, redirecting",
					slog.String("user_uid", user.UID),
					slog.String("path", r.URL.Path))
				http.Redirect(w, r, "/subscribe", http.StatusFound)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
