// Package pagelist реализует HTTP-обработчик списка CMS-страниц в админке.
package pagelist

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
)

// Handler обрабатывает запросы списка страниц.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс выборки страниц.
type Service interface {
	List(ctx context.Context, limit, offset int) ([]*models.Page, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список CMS-страниц
// @Description Возвращает страницу списка CMS-страниц, включая неопубликованные.
// @Tags Admin
// @Produce  json
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]any "Страницы"
// @Failure 403 {object} response.ErrorResponse "Нет прав администратора"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/pages [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.pagelist"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	pages, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		log.Error("failed to list pages", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	items := make([]map[string]any, 0, len(pages))
	for _, p := range pages {
		items = append(items, map[string]any{
			"id":           p.ID,
			"slug":         p.Slug,
			"title":        p.Title,
			"is_published": p.IsPublished,
			"updated_by":   p.UpdatedBy,
			"updated_at":   p.UpdatedAt,
		})
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"pages": items,
	}))
}
