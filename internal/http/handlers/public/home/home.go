// Package home реализует HTTP-обработчик главной страницы портала.
package home

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/orchestra-mcp/portal/internal/http/response"
	"github.com/orchestra-mcp/portal/internal/lib/sl"
	"github.com/orchestra-mcp/portal/internal/models"
	"github.com/orchestra-mcp/portal/internal/storage/repository"
)

// Handler обрабатывает запросы главной страницы.
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
// @Summary Главная страница
// @Description Возвращает содержимое главной CMS-страницы.
// @Tags Public
// @Produce  json
// @Success 200 {object} map[string]any "Содержимое страницы"
// @Router / [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.public.home"

	page, err := h.service.GetPublished(r.Context(), "home")
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			h.log.Error("failed to load home page", slog.String("op", op), sl.Err(err))
		}
		// Главная без CMS-записи отдает пустой каркас.
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"slug":  "home",
			"title": "",
		}))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(pagePayload(page)))
}

func pagePayload(p *models.Page) map[string]any {
	return map[string]any{
		"slug":      p.Slug,
		"title":     p.Title,
		"content":   p.Content,
		"meta":      p.Meta,
		"image_url": p.ImageURL,
	}
}
