// Package rolelist реализует HTTP-обработчик списка ролей с количеством
// пользователей и чеклистом разрешений.
package rolelist

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/orchestra-mcp/portal/internal/http/response"
	"github.com/orchestra-mcp/portal/internal/lib/sl"
	"github.com/orchestra-mcp/portal/internal/models"
)

// Handler обрабатывает запросы списка ролей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс чтения ролей и разрешений.
type Service interface {
	List(ctx context.Context) ([]*models.Role, error)
	Permissions(ctx context.Context) ([]string, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список ролей
// @Description Возвращает роли с разрешениями и количеством пользователей, плюс полный список разрешений.
// @Tags Admin
// @Produce  json
// @Success 200 {object} map[string]any "Роли и разрешения"
// @Failure 403 {object} response.ErrorResponse "Нет прав администратора"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/roles [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.rolelist"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	roles, err := h.service.List(r.Context())
	if err != nil {
		log.Error("failed to list roles", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	permissions, err := h.service.Permissions(r.Context())
	if err != nil {
		log.Error("failed to list permissions", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	items := make([]map[string]any, 0, len(roles))
	for _, role := range roles {
		items = append(items, map[string]any{
			"id":          role.ID,
			"name":        role.Name,
			"permissions": role.Permissions,
			"user_count":  role.UserCount,
			"protected":   models.IsProtectedRole(role.Name),
		})
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"roles":       items,
		"permissions": permissions,
	}))
}
