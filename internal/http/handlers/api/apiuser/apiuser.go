// Package apiuser реализует HTTP-обработчик профиля текущего пользователя
// для настольного клиента.
package apiuser

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/orchestra-mcp/portal/internal/http/middlewarectx"
	"github.com/orchestra-mcp/portal/internal/http/response"
)

// Handler обрабатывает HTTP-запросы профиля по bearer-токену.
type Handler struct {
	log *slog.Logger
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Текущий пользователь
// @Description Возвращает профиль, роли и подписку владельца bearer-токена.
// @Tags API
// @Produce  json
// @Success 200 {object} map[string]any "Профиль пользователя"
// @Failure 401 {object} response.ErrorResponse "Токен невалиден или отозван"
// @Router /api/auth/user [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.api.user"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("user not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	payload := map[string]any{
		"uid":    user.UID,
		"name":   user.Name,
		"email":  user.Email,
		"roles":  user.Roles,
		"status": user.Status,
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
