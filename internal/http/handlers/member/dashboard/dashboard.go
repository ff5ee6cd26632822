// Package dashboard реализует HTTP-обработчик личного кабинета участника.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/orchestra-mcp/portal/internal/http/middlewarectx"
	"github.com/orchestra-mcp/portal/internal/http/response"
	"github.com/orchestra-mcp/portal/internal/lib/sl"
	"github.com/orchestra-mcp/portal/internal/models"
	"github.com/orchestra-mcp/portal/internal/storage/repository"
)

// MetaProvider читает метаданные пользователя.
type MetaProvider interface {
	GetUserMeta(ctx context.Context, userUID, key string) (string, error)
}

// Handler обрабатывает запросы личного кабинета.
type Handler struct {
	log   *slog.Logger
	metas MetaProvider
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, metas MetaProvider) *Handler {
	return &Handler{
		log:   log,
		metas: metas,
	}
}

// ServeHTTP godoc
// @Summary Личный кабинет
// @Description Возвращает данные кабинета текущего участника.
// @Tags Member
// @Produce  json
// @Success 200 {object} map[string]any "Данные кабинета"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Router /dashboard [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.member.dashboard"

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	avatar, err := h.metas.GetUserMeta(r.Context(), user.UID, models.MetaAvatarURL)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		h.log.Warn("failed to load avatar meta",
			slog.String("op", op),
			slog.String("user_uid", user.UID),
			sl.Err(err))
	}

	payload := map[string]any{
		"uid":        user.UID,
		"name":       user.Name,
		"email":      user.Email,
		"roles":      user.Roles,
		"avatar_url": avatar,
	}
	if sub := user.Subscription; sub != nil {
		payload["subscription"] = map[string]any{
			"plan":      sub.Plan,
			"status":    sub.Status,
			"is_active": sub.IsActive(),
			"end_date":  sub.EndDate,
		}
	}

	render.JSON(w, r, response.StatusOKWithData(payload))
}
