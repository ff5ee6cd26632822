// Package jwt реализует генерацию и парсинг JWT токенов доступа для настольного клиента.
//
// Maker определяет интерфейс для создания и проверки токенов, MakerImpl — конкретная
// реализация на секретном ключе HS256. Каждый токен несёт uid пользователя, список
// abilities (например "ide:access") и jti — идентификатор записи токена в базе,
// удаление которой означает отзыв токена.
package jwt

import (
	"time"
)

// AbilityIDEAccess — ability, выдаваемая токенам настольного клиента.
const AbilityIDEAccess = "ide:access"

// Maker описывает интерфейс для генерации и парсинга токенов доступа.
type Maker interface {
	// GenerateToken создает токен для пользователя с заданными abilities.
	GenerateToken(tokenID, userUID string, abilities []string) (string, error)
	// ParseToken возвращает *AccessClaims, если токен корректен.
	ParseToken(tokenStr string) (*AccessClaims, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа
// и времени жизни токена (TTL).
type MakerImpl struct {
	secretKey string        // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration // Время жизни токена.
}

// NewMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
