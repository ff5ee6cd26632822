package models

import "time"

// Типы уведомлений.
const (
	NotificationWelcome              = "welcome"
	NotificationSubscriptionExpiring = "subscription_expiring"
	NotificationSubscriptionExpired  = "subscription_expired"
)

// Notification представляет запись во встроенном ящике уведомлений пользователя.
type Notification struct {
	UID       string
	UserUID   string
	Type      string
	Title     string
	Message   string
	Payload   map[string]any
	ReadAt    *time.Time
	CreatedAt time.Time
}

// EmailMessage — задание на отправку письма, публикуемое в очередь
// notification.email и потребляемое notification-sender.
type EmailMessage struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
