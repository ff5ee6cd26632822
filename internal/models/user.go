// Package models содержит доменные структуры портала: пользователей, роли,
// подписки, страницы и уведомления, а также DTO для входящих JSON-запросов.
package models

import (
	"slices"
	"time"
)

// Статусы учётной записи пользователя.
const (
	UserStatusActive  = "active"
	UserStatusBlocked = "blocked"
)

// Защищённые роли, создаваемые сидом миграций.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleSubscriber = "subscriber"
	RoleUser       = "user"
)

// User представляет пользователя портала.
//
// Роли загружаются жадно вместе с пользователем и проверяются по срезу имён,
// без обращения к базе. PasswordSet отличает пользователей, вошедших через
// соц-провайдера и ещё не установивших пароль: такой пользователь не может
// аутентифицироваться по паролю.
type User struct {
	UID          string     // Уникальный идентификатор пользователя
	Name         string     // Отображаемое имя
	Email        string     // Электронная почта (уникальная)
	PasswordHash string     // bcrypt-хэш пароля, пустая строка если пароль не установлен
	PasswordSet  bool       // Устанавливал ли пользователь пароль явно
	Status       string     // active или blocked
	Roles        []string   // Имена ролей пользователя
	Subscription *Subscription
	CreatedAt    time.Time
	DeletedAt    *time.Time // Мягкое удаление
}

// HasRole сообщает, содержит ли набор ролей указанную роль.
func HasRole(roles []string, name string) bool {
	return slices.Contains(roles, name)
}

// HasAnyRole сообщает, содержит ли набор ролей хотя бы одну из указанных.
func HasAnyRole(roles []string, names ...string) bool {
	for _, name := range names {
		if slices.Contains(roles, name) {
			return true
		}
	}
	return false
}

// IsBlocked сообщает, заблокирована ли учётная запись.
func (u *User) IsBlocked() bool {
	return u.Status == UserStatusBlocked
}

// IsAdmin сообщает, входит ли пользователь в admin или super_admin.
func (u *User) IsAdmin() bool {
	return HasAnyRole(u.Roles, RoleAdmin, RoleSuperAdmin)
}

// IsSuperAdmin сообщает, имеет ли пользователь роль super_admin.
func (u *User) IsSuperAdmin() bool {
	return HasRole(u.Roles, RoleSuperAdmin)
}

// NeedsPassword сообщает, требуется ли пользователю одноразовая установка пароля.
func (u *User) NeedsPassword() bool {
	return !u.PasswordSet
}

// HasActiveSubscription сообщает, есть ли у пользователя действующая спонсорская подписка.
func (u *User) HasActiveSubscription() bool {
	return u.Subscription != nil && u.Subscription.IsSponsor()
}
