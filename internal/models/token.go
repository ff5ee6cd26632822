package models

import "time"

// APIToken — запись выданного токена настольного клиента.
// Отзыв токена — удаление этой записи: JWT с неизвестным jti отклоняется.
type APIToken struct {
	ID         string // jti токена
	UserUID    string
	Name       string
	Abilities  []string
	CreatedAt  time.Time
	LastUsedAt *time.Time
}
