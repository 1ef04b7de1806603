package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"taskboard/internal/domain"
)

// redisSessionClient es el subconjunto de comandos de Redis que usa el store.
type redisSessionClient interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	ExpireAt(ctx context.Context, key string, tm time.Time) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisSessionStore guarda sesiones como hashes "session:<id>" que Redis
// expira junto con la sesión.
type RedisSessionStore struct {
	client  redisSessionClient
	prefix  string
	timeout time.Duration
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	if client == nil {
		return nil
	}
	return &RedisSessionStore{
		client:  client,
		prefix:  "session:",
		timeout: 500 * time.Millisecond,
	}
}

func (s *RedisSessionStore) Create(ctx context.Context, session domain.Session) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	key := s.prefix + session.ID
	err := s.client.HSet(ctx, key,
		"user_id", session.UserID,
		"expires_at", session.ExpiresAt.UTC().Format(time.RFC3339Nano),
		"created_at", session.CreatedAt.UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return err
	}
	if err := s.client.ExpireAt(ctx, key, session.ExpiresAt).Err(); err != nil {
		// Sin TTL el hash quedaría vivo para siempre: se borra antes de devolver el error.
		cleanupCtx, cleanupCancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cleanupCancel()
		if delErr := s.client.Del(cleanupCtx, key).Err(); delErr != nil {
			return errors.Join(err, delErr)
		}
		return err
	}
	return nil
}

func (s *RedisSessionStore) GetByID(ctx context.Context, id string) (domain.Session, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Session{}, pgx.ErrNoRows
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.client.HGetAll(ctx, s.prefix+id).Result()
	if err != nil {
		return domain.Session{}, err
	}
	if len(data) == 0 {
		return domain.Session{}, pgx.ErrNoRows
	}

	expiresAt, err := time.Parse(time.RFC3339Nano, data["expires_at"])
	if err != nil {
		return domain.Session{}, err
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, data["created_at"])
	return domain.Session{
		ID:        id,
		UserID:    data["user_id"],
		ExpiresAt: expiresAt,
		CreatedAt: createdAt,
	}, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Del(ctx, s.prefix+id).Err()
}
