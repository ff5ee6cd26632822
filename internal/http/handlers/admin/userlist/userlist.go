// Package userlist реализует HTTP-обработчик списка пользователей в админке
// с фильтрами по подстроке, роли и статусу.
package userlist

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/orchestra-mcp/portal/internal/http/response"
	"github.com/orchestra-mcp/portal/internal/lib/sl"
	"github.com/orchestra-mcp/portal/internal/models"
	"github.com/orchestra-mcp/portal/internal/storage/repository"
)

// Handler обрабатывает запросы списка пользователей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс выборки пользователей.
type Service interface {
	List(ctx context.Context, filter repository.UserFilter) ([]*models.User, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список пользователей
// @Description Возвращает страницу пользователей с фильтрами по подстроке имени или email, роли и статусу.
// @Tags Admin
// @Produce  json
// @Param search query string false "Подстрока имени или email"
// @Param role query string false "Имя роли"
// @Param status query string false "Статус" Enums(active, blocked)
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]any "Пользователи"
// @Failure 403 {object} response.ErrorResponse "Нет прав администратора"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/users [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.userlist"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	filter := repository.UserFilter{
		Search: r.URL.Query().Get("search"),
		Role:   r.URL.Query().Get("role"),
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	}

	users, err := h.service.List(r.Context(), filter)
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	items := make([]map[string]any, 0, len(users))
	for _, u := range users {
		item := map[string]any{
			"uid":          u.UID,
			"name":         u.Name,
			"email":        u.Email,
			"status":       u.Status,
			"roles":        u.Roles,
			"password_set": u.PasswordSet,
			"created_at":   u.CreatedAt,
		}
		if sub := u.Subscription; sub != nil {
			item["subscription"] = map[string]any{
				"plan":      sub.Plan,
				"status":    sub.Status,
				"is_active": sub.IsActive(),
			}
		}
		items = append(items, item)
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"users": items,
	}))
}
