// Package session реализует хранилище веб-сессий на Redis.
//
// Сессия — это случайный идентификатор в cookie, отображаемый на UID
// пользователя. Пользователь при этом всегда перечитывается из базы,
// чтобы проверки блокировки и подписки видели актуальное состояние.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orchestra-mcp/portal/internal/config"
)

// ErrNotFound возвращается для отсутствующей или истёкшей сессии.
var ErrNotFound = errors.New("session not found")

// Store хранит сессии в Redis с TTL.
type Store struct {
	db  *redis.Client
	ttl time.Duration
}

// New подключается к Redis и возвращает Store.
func New(ctx context.Context, cfg config.RedisConnection, ttl time.Duration) (*Store, error) {
	const op = "session.New"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{db: db, ttl: ttl}, nil
}

// Create создаёт сессию для пользователя и возвращает её идентификатор.
func (s *Store) Create(ctx context.Context, userUID string) (string, error) {
	const op = "session.Create"
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	id := hex.EncodeToString(buf)
	if err := s.db.Set(ctx, key(id), userUID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// Get возвращает UID пользователя по идентификатору сессии.
func (s *Store) Get(ctx context.Context, id string) (string, error) {
	const op = "session.Get"
	userUID, err := s.db.Get(ctx, key(id)).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return userUID, nil
}

// Destroy инвалидирует сессию.
func (s *Store) Destroy(ctx context.Context, id string) error {
	const op = "session.Destroy"
	if err := s.db.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetState сохраняет одноразовое OAuth state-значение на время обмена кодом.
func (s *Store) SetState(ctx context.Context, state, provider string) error {
	const op = "session.SetState"
	if err := s.db.Set(ctx, "oauth_state:"+state, provider, 10*time.Minute).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// TakeState забирает state-значение, удаляя его: повторное использование невозможно.
func (s *Store) TakeState(ctx context.Context, state string) (string, error) {
	const op = "session.TakeState"
	provider, err := s.db.GetDel(ctx, "oauth_state:"+state).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return provider, nil
}

func key(id string) string {
	return "session:" + id
}
