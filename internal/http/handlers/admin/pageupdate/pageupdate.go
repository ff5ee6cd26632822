// Package pageupdate реализует HTTP-обработчик правки CMS-страницы в админке.
package pageupdate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/orchestra-mcp/portal/internal/http/middlewarectx"
	"github.com/orchestra-mcp/portal/internal/http/response"
	"github.com/orchestra-mcp/portal/internal/lib/sl"
	"github.com/orchestra-mcp/portal/internal/models"
	"github.com/orchestra-mcp/portal/internal/storage/repository"
)

// Handler обрабатывает запросы правки страницы.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс правки страницы.
type Service interface {
	Update(ctx context.Context, id int, updatedBy string, req models.UpdatePageRequest) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Изменить CMS-страницу
// @Description Правит заголовок, содержимое, метаданные, картинку и флаг публикации.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param id path int true "ID страницы"
// @Param request body models.UpdatePageRequest true "Новые поля страницы"
// @Success 200 {object} response.Response "Страница обновлена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ID"
// @Failure 403 {object} response.ErrorResponse "Нет прав администратора"
// @Failure 404 {object} response.ErrorResponse "Страница не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/pages/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.pageupdate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid page id"))
		return
	}

	var req models.UpdatePageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	if err := h.service.Update(r.Context(), id, user.UID, req); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("page not found"))
			return
		}
		log.Error("failed to update page", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update page"))
		return
	}

	log.Info("page updated", slog.Int("page_id", id), slog.String("updated_by", user.UID))
	render.JSON(w, r, response.StatusOKWithData(nil))
}
