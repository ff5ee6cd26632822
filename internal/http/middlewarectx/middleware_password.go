package middlewarectx

import (
	"net/http"
)

// SetPasswordPath — страница установки пароля для пользователей,
// созданных через социальный вход.
const SetPasswordPath = "/set-password"

// PasswordSetMiddleware создает middleware, требующее установленный пароль.
//
// Пользователь без пароля перенаправляется на страницу его установки.
// Сама страница установки и выход из системы проходят без проверки.
func PasswordSetMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			if user.NeedsPassword() && r.URL.Path != SetPasswordPath && r.URL.Path != "/logout" {
				http.Redirect(w, r, SetPasswordPath, http.StatusFound)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
