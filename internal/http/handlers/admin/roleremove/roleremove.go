// Package roleremove реализует HTTP-обработчик удаления роли в админке.
package roleremove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/orchestra-mcp/portal/internal/http/response"
	"github.com/orchestra-mcp/portal/internal/lib/sl"
	roleservice "github.com/orchestra-mcp/portal/internal/services/role"
	"github.com/orchestra-mcp/portal/internal/storage/repository"
)

// Handler обрабатывает запросы удаления роли.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс удаления роли.
type Service interface {
	Delete(ctx context.Context, id int) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удалить роль
// @Description Удаляет роль. Встроенные роли super_admin, admin и user защищены.
// @Tags Admin
// @Produce  json
// @Param id path int true "ID роли"
// @Success 200 {object} response.Response "Роль удалена"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 403 {object} response.ErrorResponse "Нет прав администратора"
// @Failure 404 {object} response.ErrorResponse "Роль не найдена"
// @Failure 422 {object} response.ErrorResponse "Роль защищена от удаления"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/roles/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.roleremove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid role id"))
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("role not found"))
		case errors.Is(err, roleservice.ErrProtectedRole):
			log.Warn("attempt to delete protected role", slog.Int("role_id", id))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("cannot delete a protected role"))
		default:
			log.Error("failed to delete role", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not delete role"))
		}
		return
	}

	log.Info("role deleted", slog.Int("role_id", id))
	render.JSON(w, r, response.StatusOKWithData(nil))
}
