package jwt

import (
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims описывает данные, хранящиеся в токене доступа.
type AccessClaims struct {
	UserUID              string   `json:"user_uid"`  // UID пользователя
	Abilities            []string `json:"abilities"` // Разрешённые действия токена
	jwt.RegisteredClaims          // Встроенные стандартные claims JWT (ExpiresAt, IssuedAt, ID и пр.)
}

// Can сообщает, разрешает ли токен указанную ability.
func (c *AccessClaims) Can(ability string) bool {
	return slices.Contains(c.Abilities, ability)
}

// GenerateToken создает JWT токен с заданными tokenID (jti), userUID и abilities,
// подписывая его секретным ключом. Время жизни токена определяется полем tokenTTL.
func (j *MakerImpl) GenerateToken(tokenID, userUID string, abilities []string) (string, error) {
	claims := AccessClaims{
		UserUID:   userUID,
		Abilities: abilities,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// ParseToken парсит JWT токен, проверяет его подпись и валидность,
// возвращает AccessClaims с данными, если токен корректен.
func (j *MakerImpl) ParseToken(tokenStr string) (*AccessClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &AccessClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	return claims, nil
}
