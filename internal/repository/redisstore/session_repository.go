package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pharmacy-assistant-be/internal/repository/contract"
	"pharmacy-assistant-be/pkg/assistant/session"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "assistant:session:"

// SessionRepository shares conversation contexts between instances.
type SessionRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ contract.SessionStore = (*SessionRepository)(nil)

func NewSessionRepository(rdb *redis.Client, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionRepository{rdb: rdb, ttl: ttl}
}

// NewClient parses a redis:// URL, falling back to treating it as host:port.
func NewClient(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}
	return redis.NewClient(opt)
}

func key(id string) string {
	return keyPrefix + id
}

func (r *SessionRepository) Save(ctx context.Context, id string, sc session.Context) error {
	data, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", id, err)
	}
	if err := r.rdb.Set(ctx, key(id), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session %s: %w", id, err)
	}
	return nil
}

// Get refreshes the TTL on every read so active conversations stay alive.
func (r *SessionRepository) Get(ctx context.Context, id string) (session.Context, bool, error) {
	data, err := r.rdb.GetEx(ctx, key(id), r.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return session.Context{}, false, nil
	}
	if err != nil {
		return session.Context{}, false, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	sc, err := decode(data)
	if err != nil {
		return session.Context{}, false, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return sc, true, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, key(id)).Err()
}

func (r *SessionRepository) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func decode(data []byte) (session.Context, error) {
	sc := session.Empty()
	if err := json.Unmarshal(data, &sc); err != nil {
		return session.Context{}, err
	}
	if sc.RecentDrugs == nil {
		sc.RecentDrugs = []string{}
	}
	return sc, nil
}
