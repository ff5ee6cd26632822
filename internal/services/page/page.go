// Package page содержит бизнес-логику CMS-страниц портала.
package page

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/orchestra-mcp/portal/internal/models"
)

// Repository определяет методы хранилища страниц.
type Repository interface {
	GetPageBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.Page, error)
	GetPage(ctx context.Context, id int) (*models.Page, error)
	ListPages(ctx context.Context, limit, offset int) ([]*models.Page, error)
	UpdatePage(ctx context.Context, id int, page models.Page) error
}

// PageService реализует чтение и правку CMS-страниц.
type PageService struct {
	repo Repository
	log  *slog.Logger
}

// New создает новый экземпляр PageService.
func New(log *slog.Logger, repo Repository) *PageService {
	return &PageService{
		repo: repo,
		log:  log,
	}
}

// GetPublished возвращает опубликованную страницу по slug.
func (s *PageService) GetPublished(ctx context.Context, slug string) (*models.Page, error) {
	const op = "page.GetPublished"

	p, err := s.repo.GetPageBySlug(ctx, slug, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// Get возвращает страницу по идентификатору без учета публикации.
func (s *PageService) Get(ctx context.Context, id int) (*models.Page, error) {
	const op = "page.Get"

	p, err := s.repo.GetPage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// List возвращает страницу списка CMS-страниц.
func (s *PageService) List(ctx context.Context, limit, offset int) ([]*models.Page, error) {
	const op = "page.List"

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	pages, err := s.repo.ListPages(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pages, nil
}

// Update изменяет заголовок, содержимое, метаданные и флаг публикации.
func (s *PageService) Update(ctx context.Context, id int, updatedBy string, req models.UpdatePageRequest) error {
	const op = "page.Update"

	if err := s.repo.UpdatePage(ctx, id, models.Page{
		Title:       req.Title,
		Content:     req.Content,
		Meta:        req.Meta,
		IsPublished: req.IsPublished,
		ImageURL:    req.ImageURL,
		UpdatedBy:   updatedBy,
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("updated page", slog.Int("page_id", id), slog.String("updated_by", updatedBy))
	return nil
}
