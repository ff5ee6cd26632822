package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/orchestra-mcp/portal/internal/models"
)

// UserFilter параметры списочного запроса пользователей.
type UserFilter struct {
	Search string // Подстрока имени или email
	Role   string // Имя роли
	Status string // active или blocked
	Limit  int
	Offset int
}

const userColumns = `u.uid, u.name, u.email, u.password_hash, u.password_set, u.status, u.created_at, u.deleted_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	var deletedAt sql.NullTime
	if err := row.Scan(&u.UID, &u.Name, &u.Email, &u.PasswordHash, &u.PasswordSet,
		&u.Status, &u.CreatedAt, &deletedAt); err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		u.DeletedAt = &deletedAt.Time
	}
	return &u, nil
}

// CreateUser сохраняет нового пользователя и возвращает его UID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO users (name, email, password_hash, password_set, status)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING uid`
	err := s.DB.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.PasswordSet, user.Status).Scan(&newUID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", fmt.Errorf("%s: %w", op, ErrDuplicate)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetUserByUID возвращает пользователя с ролями и последней подпиской.
func (s *Storage) GetUserByUID(ctx context.Context, uid string) (*models.User, error) {
	const op = "storage.GetUserByUID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users u WHERE u.uid = $1 AND u.deleted_at IS NULL`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, uid))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.attachRelations(ctx, u); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по email с ролями и последней подпиской.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users u WHERE u.email = $1 AND u.deleted_at IS NULL`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.attachRelations(ctx, u); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// FindUserByMeta возвращает пользователя, у которого метаданные key имеют значение value.
// Так пользователи сопоставляются с идентификаторами внешних провайдеров.
func (s *Storage) FindUserByMeta(ctx context.Context, key, value string) (*models.User, error) {
	const op = "storage.FindUserByMeta"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users u
			  JOIN user_metas m ON m.user_uid = u.uid
			  WHERE m.key = $1 AND m.value = $2 AND u.deleted_at IS NULL`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, key, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.attachRelations(ctx, u); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// SetUserMeta сохраняет значение метаданных пользователя, перезаписывая существующее.
func (s *Storage) SetUserMeta(ctx context.Context, userUID, key, value string) error {
	const op = "storage.SetUserMeta"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO user_metas (user_uid, key, value)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (user_uid, key) DO UPDATE SET value = EXCLUDED.value`
	if _, err := s.DB.ExecContext(ctx, query, userUID, key, value); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUserMeta возвращает значение метаданных пользователя по ключу.
func (s *Storage) GetUserMeta(ctx context.Context, userUID, key string) (string, error) {
	const op = "storage.GetUserMeta"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var value string
	query := `SELECT value FROM user_metas WHERE user_uid = $1 AND key = $2`
	if err := s.DB.QueryRowContext(ctx, query, userUID, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return value, nil
}

// UpdateUser обновляет имя и email пользователя.
func (s *Storage) UpdateUser(ctx context.Context, uid, name, email string) error {
	const op = "storage.UpdateUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET name = $1, email = $2, updated_at = now() WHERE uid = $3`
	result, err := s.DB.ExecContext(ctx, query, name, email, uid)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%s: %w", op, ErrDuplicate)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// SetUserPassword сохраняет хэш пароля и помечает пароль установленным.
func (s *Storage) SetUserPassword(ctx context.Context, uid, passwordHash string) error {
	const op = "storage.SetUserPassword"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET password_hash = $1, password_set = TRUE, updated_at = now() WHERE uid = $2`
	if _, err := s.DB.ExecContext(ctx, query, passwordHash, uid); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetUserStatus меняет статус учётной записи (active или blocked).
func (s *Storage) SetUserStatus(ctx context.Context, uid, status string) error {
	const op = "storage.SetUserStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET status = $1, updated_at = now() WHERE uid = $2`
	result, err := s.DB.ExecContext(ctx, query, status, uid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// SoftDeleteUser помечает пользователя удалённым.
func (s *Storage) SoftDeleteUser(ctx context.Context, uid string) error {
	const op = "storage.SoftDeleteUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET deleted_at = now() WHERE uid = $1 AND deleted_at IS NULL`
	result, err := s.DB.ExecContext(ctx, query, uid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// ListUsers возвращает пользователей по фильтру с пагинацией.
func (s *Storage) ListUsers(ctx context.Context, filter UserFilter) ([]*models.User, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var conditions []string
	var args []any
	conditions = append(conditions, "u.deleted_at IS NULL")
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(u.name ILIKE $%d OR u.email ILIKE $%d)", n, n))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("u.status = $%d", len(args)))
	}
	if filter.Role != "" {
		args = append(args, filter.Role)
		conditions = append(conditions, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM user_roles ur JOIN roles r ON r.id = ur.role_id
			 WHERE ur.user_uid = u.uid AND r.name = $%d)`, len(args)))
	}
	args = append(args, filter.Limit, filter.Offset)

	query := `SELECT ` + userColumns + ` FROM users u
			  WHERE ` + strings.Join(conditions, " AND ") + `
			  ORDER BY u.created_at DESC
			  LIMIT $` + fmt.Sprint(len(args)-1) + ` OFFSET $` + fmt.Sprint(len(args))
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, u := range result {
		if err := s.attachRelations(ctx, u); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return result, nil
}

// ListAdmins возвращает всех пользователей с ролью admin или super_admin.
func (s *Storage) ListAdmins(ctx context.Context) ([]*models.User, error) {
	const op = "storage.ListAdmins"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT DISTINCT ` + userColumns + `
			  FROM users u
			  JOIN user_roles ur ON ur.user_uid = u.uid
			  JOIN roles r ON r.id = ur.role_id
			  WHERE r.name IN ('admin', 'super_admin') AND u.deleted_at IS NULL`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// AssignRole добавляет пользователю роль по имени, если её ещё нет.
func (s *Storage) AssignRole(ctx context.Context, userUID, roleName string) error {
	const op = "storage.AssignRole"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO user_roles (user_uid, role_id)
			  SELECT $1, id FROM roles WHERE name = $2
			  ON CONFLICT DO NOTHING`
	if _, err := s.DB.ExecContext(ctx, query, userUID, roleName); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ReplaceRoles заменяет набор ролей пользователя единственной ролью.
func (s *Storage) ReplaceRoles(ctx context.Context, userUID, roleName string) error {
	const op = "storage.ReplaceRoles"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_uid = $1`, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO user_roles (user_uid, role_id) SELECT $1, id FROM roles WHERE name = $2`,
		userUID, roleName); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CountUsersByStatus возвращает количество неудалённых пользователей со статусом.
// Пустой статус считает всех.
func (s *Storage) CountUsersByStatus(ctx context.Context, status string) (int, error) {
	const op = "storage.CountUsersByStatus"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	query := `SELECT COUNT(*) FROM users WHERE deleted_at IS NULL AND ($1 = '' OR status = $1)`
	if err := s.DB.QueryRowContext(ctx, query, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// attachRelations загружает роли и последнюю подписку пользователя.
func (s *Storage) attachRelations(ctx context.Context, u *models.User) error {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT r.name FROM roles r JOIN user_roles ur ON ur.role_id = r.id WHERE ur.user_uid = $1 ORDER BY r.name`,
		u.UID)
	if err != nil {
		return err
	}
	defer func() {
		_ = rows.Close()
	}()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		u.Roles = append(u.Roles, name)
	}
	if err = rows.Err(); err != nil {
		return err
	}

	sub, err := s.GetSubscriptionByUser(ctx, u.UID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	u.Subscription = sub
	return nil
}
