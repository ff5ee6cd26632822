// Package usertoggle реализует HTTP-обработчик переключения статуса
// пользователя между active и blocked.
package usertoggle

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/orchestra-mcp/portal/internal/http/response"
	"github.com/orchestra-mcp/portal/internal/lib/sl"
	"github.com/orchestra-mcp/portal/internal/storage/repository"
)

// Handler обрабатывает запросы переключения статуса.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс переключения статуса пользователя.
type Service interface {
	ToggleStatus(ctx context.Context, uid string) (string, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Переключить статус пользователя
// @Description Блокирует активного пользователя либо разблокирует заблокированного.
// @Tags Admin
// @Produce  json
// @Param id path string true "UID пользователя"
// @Success 200 {object} map[string]any "Новый статус"
// @Failure 403 {object} response.ErrorResponse "Нет прав администратора"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/users/{id}/toggle-status [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.usertoggle"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid := chi.URLParam(r, "id")
	status, err := h.service.ToggleStatus(r.Context(), uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to toggle user status", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not toggle status"))
		return
	}

	log.Info("user status toggled",
		slog.String("user_uid", uid),
		slog.String("status", status))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"status": status,
	}))
}
