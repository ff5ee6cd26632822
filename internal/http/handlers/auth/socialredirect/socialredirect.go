// Package socialredirect реализует HTTP-обработчик начала входа через
// внешнего OAuth-провайдера: генерирует state и перенаправляет на страницу
// согласия провайдера.
package socialredirect

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/orchestra-mcp/portal/internal/lib/sl"
	"github.com/orchestra-mcp/portal/internal/oauth"
)

// Handler обрабатывает HTTP-запросы начала социального входа.
type Handler struct {
	log      *slog.Logger
	registry *oauth.Registry
	states   StateStore
}

// StateStore сохраняет одноразовый state для защиты от CSRF.
type StateStore interface {
	SetState(ctx context.Context, state, provider string) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, registry *oauth.Registry, states StateStore) *Handler {
	return &Handler{
		log:      log,
		registry: registry,
		states:   states,
	}
}

// ServeHTTP godoc
// @Summary Начало входа через OAuth-провайдера
// @Description Перенаправляет пользователя на страницу согласия провайдера.
// @Tags Auth
// @Param provider path string true "Имя провайдера" Enums(github, google, discord)
// @Success 302 "Перенаправление к провайдеру"
// @Failure 404 "Неизвестный провайдер"
// @Router /auth/{provider}/redirect [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.socialredirect"

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

	state, err := newState()
	if err != nil {
		log.Error("failed to generate oauth state", sl.Err(err))
		http.Redirect(w, r, "/login?error=login_failed", http.StatusFound)
		return
	}
	if err := h.states.SetState(r.Context(), state, providerName); err != nil {
		log.Error("failed to store oauth state", sl.Err(err))
		http.Redirect(w, r, "/login?error=login_failed", http.StatusFound)
		return
	}

	log.Info("redirecting to provider", slog.String("provider", providerName))
	http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusFound)
}

func newState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
