package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/orchestra-mcp/portal/internal/models"
)

// CreateToken сохраняет запись выданного токена настольного клиента.
func (s *Storage) CreateToken(ctx context.Context, t models.APIToken) error {
	const op = "storage.CreateToken"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO api_tokens (id, user_uid, name, abilities)
			  VALUES ($1, $2, $3, $4)`
	if _, err := s.DB.ExecContext(ctx, query,
		t.ID, t.UserUID, t.Name, strings.Join(t.Abilities, ",")); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetToken возвращает запись токена по его jti.
func (s *Storage) GetToken(ctx context.Context, id string) (*models.APIToken, error) {
	const op = "storage.GetToken"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var t models.APIToken
	var abilities string
	var lastUsedAt sql.NullTime
	query := `SELECT id, user_uid, name, abilities, created_at, last_used_at
			  FROM api_tokens WHERE id = $1`
	if err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.UserUID, &t.Name, &abilities, &t.CreatedAt, &lastUsedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if abilities != "" {
		t.Abilities = strings.Split(abilities, ",")
	}
	if lastUsedAt.Valid {
		t.LastUsedAt = &lastUsedAt.Time
	}
	return &t, nil
}

// DeleteToken удаляет запись токена — это и есть его отзыв.
func (s *Storage) DeleteToken(ctx context.Context, id string) error {
	const op = "storage.DeleteToken"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM api_tokens WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// TouchToken обновляет время последнего использования токена.
func (s *Storage) TouchToken(ctx context.Context, id string) error {
	const op = "storage.TouchToken"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if _, err := s.DB.ExecContext(ctx,
		`UPDATE api_tokens SET last_used_at = now() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
