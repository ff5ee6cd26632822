package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/orchestra-mcp/portal/internal/http/response"
)

// AdminMiddleware создает middleware, допускающее только администраторов.
//
// Не-администратор получает 403, а не перенаправление: пользователь уже
// аутентифицирован, ему просто не хватает прав.
func AdminMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			if !user.IsAdmin() {
				log.Warn("non-admin attempted admin access",
					slog.String("user_uid", user.UID),
					slog.String("path", r.URL.Path))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("admin access required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
