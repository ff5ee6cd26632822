// Package socialcallback реализует HTTP-обработчик возврата от OAuth-провайдера.
//
// Проверяет state, обменивает код на профиль, сопоставляет профиль
// с учетной записью портала и открывает сессию. Ошибки провайдера
// переводятся в перенаправление с нетехническим сообщением, сырой текст
// ошибки пользователю не показывается.
package socialcallback

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/orchestra-mcp/portal/internal/lib/sl"
	"github.com/orchestra-mcp/portal/internal/models"
	"github.com/orchestra-mcp/portal/internal/oauth"
	"github.com/orchestra-mcp/portal/internal/services/social"
)

// Handler обрабатывает возврат от провайдера социального входа.
type Handler struct {
	log      *slog.Logger
	registry *oauth.Registry
	service  Service
	sessions SessionStore
	cookie   CookieConfig
}

// CookieConfig — параметры сессионной cookie.
type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// Service описывает интерфейс сопоставления профиля с учетной записью.
type Service interface {
	ResolveIdentity(ctx context.Context, provider string, identity *oauth.Identity) (*models.User, error)
}

// SessionStore описывает интерфейс сессий и одноразовых state.
type SessionStore interface {
	Create(ctx context.Context, userUID string) (string, error)
	TakeState(ctx context.Context, state string) (string, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, registry *oauth.Registry, service Service, sessions SessionStore, cookie CookieConfig) *Handler {
	return &Handler{
		log:      log,
		registry: registry,
		service:  service,
		sessions: sessions,
		cookie:   cookie,
	}
}

// ServeHTTP godoc
// @Summary Возврат от OAuth-провайдера
// @Description Завершает социальный вход: проверяет state, получает профиль и открывает сессию.
// @Tags Auth
// @Param provider path string true "Имя провайдера" Enums(github, google, discord)
// @Param code query string true "Код авторизации"
// @Param state query string true "Одноразовый state"
// @Success 302 "Перенаправление на портал"
// @Failure 404 "Неизвестный провайдер"
// @Router /auth/{provider}/callback [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.socialcallback"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	providerName := chi.URLParam(r, "provider")
	provider, ok := h.registry.Get(providerName)
	if !ok {
		log.Info("unknown provider requested", slog.String("provider", providerName))
		http.NotFound(w, r)
		return
	}
	log = log.With(slog.String("provider", providerName))

	state := r.URL.Query().Get("state")
	storedProvider, err := h.sessions.TakeState(r.Context(), state)
	if err != nil || storedProvider != providerName {
		log.Warn("oauth state mismatch", sl.Err(err))
		http.Redirect(w, r, "/login?error=login_failed", http.StatusFound)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		log.Info("provider returned no code",
			slog.String("provider_error", r.URL.Query().Get("error")))
		http.Redirect(w, r, "/login?error=login_cancelled", http.StatusFound)
		return
	}

	identity, err := provider.FetchIdentity(r.Context(), code)
	if err != nil {
		// Статус провайдера пишется в лог для операторов, пользователь
		// видит только общее сообщение.
		switch {
		case errors.Is(err, oauth.ErrRateLimited):
			log.Error("provider rate limited", sl.Err(err))
			http.Redirect(w, r, "/login?error=provider_busy", http.StatusFound)
		case errors.Is(err, oauth.ErrProvider):
			log.Error("provider returned error", sl.Err(err))
			http.Redirect(w, r, "/login?error=login_failed", http.StatusFound)
		default:
			log.Error("unexpected provider failure", sl.Err(err))
			http.Redirect(w, r, "/login?error=login_failed", http.StatusFound)
		}
		return
	}

	user, err := h.service.ResolveIdentity(r.Context(), providerName, identity)
	if err != nil {
		switch {
		case errors.Is(err, social.ErrUserBlocked):
			log.Warn("blocked user social login attempt")
			http.Redirect(w, r, "/login?error=account_blocked", http.StatusFound)
		case errors.Is(err, social.ErrNoEmail):
			log.Info("provider returned no email")
			http.Redirect(w, r, "/login?error=email_required", http.StatusFound)
		default:
			log.Error("failed to resolve identity", sl.Err(err))
			http.Redirect(w, r, "/login?error=login_failed", http.StatusFound)
		}
		return
	}

	sessionID, err := h.sessions.Create(r.Context(), user.UID)
	if err != nil {
		log.Error("failed to create session", sl.Err(err))
		http.Redirect(w, r, "/login?error=login_failed", http.StatusFound)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(h.cookie.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	log.Info("social login success", slog.String("user_uid", user.UID))
	if user.NeedsPassword() {
		http.Redirect(w, r, "/set-password", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}
