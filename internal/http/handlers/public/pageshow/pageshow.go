// Package pageshow реализует HTTP-обработчик публичной CMS-страницы по slug.
package pageshow

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
	"github.com/orchestra-mcp/portal/internal/models"
	"github.com/orchestra-mcp/portal/internal/storage/repository"
)

// Handler обрабатывает запросы публичных страниц.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс чтения опубликованных страниц.
type Service interface {
	GetPublished(ctx context.Context, slug string) (*models.Page, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Публичная CMS-страница
// @Description Возвращает опубликованную страницу по slug. Неопубликованные страницы не видны.
// @Tags Public
// @Produce  json
// @Param slug path string true "Slug страницы"
// @Success 200 {object} map[string]any "Содержимое страницы"
// @Failure 404 {object} response.ErrorResponse "Страница не найдена"
// @Router /page/{slug} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.public.pageshow"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	slug := chi.URLParam(r, "slug")
	page, err := h.service.GetPublished(r.Context(), slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("page not found"))
			return
		}
		log.Error("failed to load page", sl.Err(err), slog.String("slug", slug))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"slug":      page.Slug,
		"title":     page.Title,
		"content":   page.Content,
		"meta":      page.Meta,
		"image_url": page.ImageURL,
	}))
}
