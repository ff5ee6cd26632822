package models

// Role представляет роль с набором именованных разрешений.
type Role struct {
	ID          int
	Name        string
	Permissions []string
	UserCount   int // Количество пользователей с ролью, заполняется списочными запросами
}

// ProtectedRoles — роли, защищённые от удаления.
var ProtectedRoles = []string{RoleSuperAdmin, RoleAdmin, RoleUser}

// IsProtectedRole сообщает, защищена ли роль от удаления.
func IsProtectedRole(name string) bool {
	return HasRole(ProtectedRoles, name)
}
