package models

import "time"

// Page представляет CMS-страницу с уникальным slug.
type Page struct {
	ID          int
	Slug        string
	Title       string
	Content     string         // JSON-блок с содержимым страницы
	Meta        map[string]any // Произвольный JSON с SEO-метаданными
	IsPublished bool
	ImageURL    string
	UpdatedBy   string // UID последнего редактора, пустая строка если не задан
	UpdatedAt   time.Time
}
