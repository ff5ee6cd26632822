// Package logout реализует HTTP-обработчик выхода: уничтожает сессию
// и сбрасывает cookie.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/orchestra-mcp/portal/internal/http/middlewarectx"
	"github.com/orchestra-mcp/portal/internal/lib/sl"
)

// Handler обрабатывает HTTP-запросы выхода из системы.
type Handler struct {
	log        *slog.Logger
	sessions   SessionStore
	cookieName string
}

// SessionStore описывает интерфейс уничтожения сессий.
type SessionStore interface {
	Destroy(ctx context.Context, sessionID string) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, sessions SessionStore, cookieName string) *Handler {
	return &Handler{
		log:        log,
		sessions:   sessions,
		cookieName: cookieName,
	}
}

// ServeHTTP godoc
// @Summary Выход из системы
// @Description Уничтожает текущую сессию и сбрасывает cookie.
// @Tags Auth
// @Success 302 "Перенаправление на страницу входа"
// @Router /logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if sessionID, ok := r.Context().Value(middlewarectx.SessionID).(string); ok {
		if err := h.sessions.Destroy(r.Context(), sessionID); err != nil {
			log.Error("failed to destroy session", sl.Err(err))
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	log.Info("user logged out")
	http.Redirect(w, r, "/login", http.StatusFound)
}
