package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/orchestra-mcp/portal/internal/models"
)

const pageColumns = `id, slug, title, content, meta, is_published, image_url, updated_by, updated_at`

func scanPage(row interface{ Scan(...any) error }) (*models.Page, error) {
	var p models.Page
	var meta []byte
	var updatedBy sql.NullString
	if err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Content, &meta,
		&p.IsPublished, &p.ImageURL, &updatedBy, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &p.Meta); err != nil {
			return nil, err
		}
	}
	if updatedBy.Valid {
		p.UpdatedBy = updatedBy.String
	}
	return &p, nil
}

// GetPageBySlug возвращает страницу по slug. При publishedOnly=true
// неопубликованные страницы считаются отсутствующими.
func (s *Storage) GetPageBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.Page, error) {
	const op = "storage.GetPageBySlug"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + pageColumns + ` FROM pages WHERE slug = $1 AND (NOT $2 OR is_published)`
	p, err := scanPage(s.DB.QueryRowContext(ctx, query, slug, publishedOnly))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// GetPage возвращает страницу по ID.
func (s *Storage) GetPage(ctx context.Context, id int) (*models.Page, error) {
	const op = "storage.GetPage"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + pageColumns + ` FROM pages WHERE id = $1`
	p, err := scanPage(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ListPages возвращает страницы с пагинацией, последние изменённые первыми.
func (s *Storage) ListPages(ctx context.Context, limit, offset int) ([]*models.Page, error) {
	const op = "storage.ListPages"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + pageColumns + ` FROM pages ORDER BY updated_at DESC LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdatePage перезаписывает содержимое страницы и атрибуцию редактора.
func (s *Storage) UpdatePage(ctx context.Context, id int, page models.Page) error {
	const op = "storage.UpdatePage"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	meta, err := json.Marshal(page.Meta)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	var updatedBy any
	if page.UpdatedBy != "" {
		updatedBy = page.UpdatedBy
	}
	query := `UPDATE pages
			  SET title = $1, content = $2, meta = $3, is_published = $4,
			      image_url = $5, updated_by = $6, updated_at = now()
			  WHERE id = $7`
	result, err := s.DB.ExecContext(ctx, query,
		page.Title, page.Content, meta, page.IsPublished, page.ImageURL, updatedBy, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
