package models

// DTO входящих JSON-запросов. Даты приходят строками в формате 2006-01-02,
// парсятся и проверяются в сервисах.

// LoginRequest — вход по email и паролю (API настольного клиента).
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SetPasswordRequest — одноразовая установка пароля после входа через соц-провайдера.
type SetPasswordRequest struct {
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// CreateUserRequest — создание пользователя администратором.
type CreateUserRequest struct {
	Name      string `json:"name" validate:"required,max=255"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Role      string `json:"role" validate:"required"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
}

// UpdateUserRequest — правка пользователя администратором.
type UpdateUserRequest struct {
	Name      string `json:"name" validate:"required,max=255"`
	Email     string `json:"email" validate:"required,email"`
	Role      string `json:"role" validate:"omitempty"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
}

// RoleRequest — создание или правка роли с набором разрешений.
type RoleRequest struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Permissions []string `json:"permissions" validate:"omitempty,dive,required"`
}

// UpdateSubscriptionRequest — ручная правка подписки администратором.
type UpdateSubscriptionRequest struct {
	Plan      string `json:"plan" validate:"required,oneof=free sponsor team_sponsor"`
	Status    string `json:"status" validate:"required,oneof=active expired cancelled past_due"`
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// UpdatePageRequest — правка CMS-страницы.
type UpdatePageRequest struct {
	Title       string         `json:"title" validate:"required,max=255"`
	Content     string         `json:"content" validate:"required,json"`
	Meta        map[string]any `json:"meta"`
	IsPublished bool           `json:"is_published"`
	ImageURL    string         `json:"image_url" validate:"omitempty,url"`
}
