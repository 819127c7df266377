package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"agendavip/config"
	"agendavip/internal/domain"
)

const (
	blacklistPrefix = "blacklist:"
	resetPrefix     = "senha_reset:"
)

// TokenStore хранит отозванные access-токены и токены сброса пароля.
type TokenStore struct {
	client *redis.Client
}

func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("не удалось подключиться к redis: %w", err)
	}

	return client, nil
}

func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

// Blacklist помечает токен отозванным до истечения его срока.
func (s *TokenStore) Blacklist(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, blacklistPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("ошибка записи токена в черный список: %w", err)
	}
	return nil
}

func (s *TokenStore) IsBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, blacklistPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("ошибка проверки черного списка: %w", err)
	}
	return n > 0, nil
}

func (s *TokenStore) SaveResetToken(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	if err := s.client.Set(ctx, resetPrefix+token, userID, ttl).Err(); err != nil {
		return fmt.Errorf("ошибка сохранения токена сброса пароля: %w", err)
	}
	return nil
}

// ConsumeResetToken одноразовый: токен удаляется при чтении.
func (s *TokenStore) ConsumeResetToken(ctx context.Context, token string) (int64, error) {
	value, err := s.client.GetDel(ctx, resetPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return 0, domain.ErrUnauthorized
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка чтения токена сброса пароля: %w", err)
	}

	userID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректный токен сброса пароля: %w", err)
	}
	return userID, nil
}
