package redissessionrepo

import (
	"context"
	"encoding/json"
	"time"

	apierrors "github.com/jomko/go-session-api/internal/errors"
	"github.com/jomko/go-session-api/sessions"
	"github.com/pkg/errors"
	redis "github.com/redis/go-redis/v9"
)

var _ sessions.Repo = (*RedisSessionRepo)(nil)

// RedisSessionRepo stores sessions as JSON values in Redis. The key TTL
// mirrors the session expiry, so Redis evicts expired sessions on its own and
// DeleteExpired has nothing to do.
type RedisSessionRepo struct {
	client *redis.Client
	prefix string
}

// NewRedisSessionRepo connects to Redis and verifies the connection.
func NewRedisSessionRepo(addr, password string, db int) (*RedisSessionRepo, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "[NewRedisSessionRepo] ping")
	}
	return &RedisSessionRepo{
		client: client,
		prefix: "sessions:",
	}, nil
}

func (r *RedisSessionRepo) Upsert(ctx context.Context, session *sessions.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "[RedisSessionRepo.Upsert] marshal")
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return apierrors.ErrSessionExpired
	}
	if err := r.client.Set(ctx, r.prefix+session.ID, payload, ttl).Err(); err != nil {
		return errors.Wrap(err, "[RedisSessionRepo.Upsert] set")
	}
	return nil
}

func (r *RedisSessionRepo) Get(ctx context.Context, sessionID string) (*sessions.Session, error) {
	payload, err := r.client.Get(ctx, r.prefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apierrors.ErrSessionNotFound
		}
		return nil, errors.Wrap(err, "[RedisSessionRepo.Get] get")
	}
	var session sessions.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, errors.Wrap(err, "[RedisSessionRepo.Get] unmarshal")
	}
	return &session, nil
}

func (r *RedisSessionRepo) Delete(ctx context.Context, sessionID string) error {
	deleted, err := r.client.Del(ctx, r.prefix+sessionID).Result()
	if err != nil {
		return errors.Wrap(err, "[RedisSessionRepo.Delete] del")
	}
	if deleted == 0 {
		return apierrors.ErrSessionNotFound
	}
	return nil
}

func (r *RedisSessionRepo) DeleteExpired(context.Context, time.Time) error {
	// Redis evicts keys via TTL
	return nil
}

func (r *RedisSessionRepo) Close() {
	if r.client != nil {
		_ = r.client.Close()
	}
}
